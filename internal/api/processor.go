// Package api is the request/response boundary of the service. Every
// operation runs through the Processor, which owns request/response logging
// and the single error-to-status mapping; handlers stay thin.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chatfold/chatfold/internal/api/respond"
	"github.com/chatfold/chatfold/internal/model"
)

type Processor struct {
	log         zerolog.Logger
	truncateLen int
}

// NewProcessor builds the shared request funnel. truncateLen caps the logged
// rendering of request and response payloads, counted in runes.
func NewProcessor(log zerolog.Logger, truncateLen int) *Processor {
	return &Processor{
		log:         log.With().Str("component", "api").Logger(),
		truncateLen: truncateLen,
	}
}

// Run executes one operation: the decoded request is logged truncated, logic
// runs with the request context, and the result is logged the same way and
// written as JSON. req may be nil for body-less operations.
func (p *Processor) Run(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	req interface{},
	logic func(ctx context.Context) (interface{}, error),
) {
	p.log.Debug().Str("op", op).Msg(">>> Request:  " + p.render(req))
	out, err := logic(r.Context())
	if err != nil {
		p.writeError(w, op, err)
		return
	}
	p.log.Debug().Str("op", op).Msg("<<< Response: " + p.render(out))
	respond.WriteJSON(w, http.StatusOK, out)
}

// writeError is the boundary mapping: a missing dataset key surfaces as 412
// with its own message; every other failure collapses to a generic 500 and
// the full detail stays in the server log.
func (p *Processor) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, model.ErrNotLoaded) {
		p.log.Warn().Str("op", op).Msg(err.Error())
		respond.WritePreconditionFailed(w, err.Error())
		return
	}
	p.log.Error().Stack().Err(err).Str("op", op).Msg("request failed")
	respond.WriteInternalError(w, "internal error")
}

func (p *Processor) render(v interface{}) string {
	if v == nil {
		return "<none>"
	}
	var s string
	if b, err := json.Marshal(v); err == nil {
		s = string(b)
	} else {
		s = fmt.Sprintf("%+v", v)
	}
	return truncateRunes(s, p.truncateLen)
}

// truncateRunes caps s at n runes without splitting a rune in half.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// decodeJSON parses the request body into dst; on failure it writes 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return false
	}
	return true
}
