package chooser

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chatfold/chatfold/internal/model"
)

// Remote asks an external endpoint (typically a human-facing picker UI) to
// select the local user. The request blocks until the endpoint answers or
// the timeout elapses.
type Remote struct {
	baseURL string
	client  *resty.Client
	log     zerolog.Logger
}

// NewRemote builds a chooser against baseURL, e.g. "http://localhost:8081".
func NewRemote(baseURL string, timeout time.Duration, log zerolog.Logger) *Remote {
	return &Remote{
		baseURL: baseURL,
		client:  resty.New().SetTimeout(timeout),
		log:     log.With().Str("component", "chooser").Logger(),
	}
}

type chooseRequest struct {
	Users []model.User `json:"users"`
}

type chooseResponse struct {
	PickedIndex int `json:"pickedIndex"`
}

// ChooseMyself posts the candidate list and returns the picked index.
// Every failure mode maps to ErrAmbiguousIdentity so callers treat a dead
// or refusing endpoint the same as an unanswerable question.
func (r *Remote) ChooseMyself(ctx context.Context, users []model.User) (int, error) {
	if len(users) == 0 {
		return -1, errors.Wrap(model.ErrAmbiguousIdentity, "no candidates to choose from")
	}

	r.log.Info().Int("candidates", len(users)).Msg("asking remote chooser to pick myself")

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(chooseRequest{Users: users}).
		Post(r.baseURL + "/api/choose-myself")
	if err != nil {
		return -1, errors.Wrapf(model.ErrAmbiguousIdentity, "remote chooser unreachable: %v", err)
	}
	if resp.IsError() {
		return -1, errors.Wrapf(model.ErrAmbiguousIdentity, "remote chooser returned status %d: %s",
			resp.StatusCode(), resp.String())
	}

	var out chooseResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return -1, errors.Wrapf(model.ErrAmbiguousIdentity, "remote chooser sent malformed response: %v", err)
	}
	if out.PickedIndex < 0 || out.PickedIndex >= len(users) {
		return -1, errors.Wrapf(model.ErrAmbiguousIdentity, "remote chooser picked index %d out of %d candidates",
			out.PickedIndex, len(users))
	}

	r.log.Info().Int("picked", out.PickedIndex).Msg("remote chooser answered")
	return out.PickedIndex, nil
}
