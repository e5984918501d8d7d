package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfold/chatfold/internal/model"
)

func runOp(t *testing.T, p *Processor, req interface{}, logic func(ctx context.Context) (interface{}, error)) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	p.Run(rr, httptest.NewRequest(http.MethodPost, "/op", nil), "Op", req, logic)
	return rr
}

func TestProcessorLogsTruncatedPayloads(t *testing.T) {
	var buf bytes.Buffer
	p := NewProcessor(zerolog.New(&buf).Level(zerolog.DebugLevel), 10)

	rr := runOp(t, p, map[string]string{"key": "0123456789ABCDEF"},
		func(ctx context.Context) (interface{}, error) {
			return map[string]string{"ok": "true"}, nil
		})
	require.Equal(t, http.StatusOK, rr.Code)

	logged := buf.String()
	assert.Contains(t, logged, ">>> Request:")
	assert.Contains(t, logged, "<<< Response:")
	// The payload is cut at 10 runes, well before the key's tail.
	assert.NotContains(t, logged, "ABCDEF")
}

func TestProcessorRendersMissingBody(t *testing.T) {
	var buf bytes.Buffer
	p := NewProcessor(zerolog.New(&buf).Level(zerolog.DebugLevel), 150)

	rr := runOp(t, p, nil, func(ctx context.Context) (interface{}, error) {
		return map[string]int{"n": 1}, nil
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, buf.String(), "<none>")
}

func TestProcessorErrorMapping(t *testing.T) {
	p := NewProcessor(zerolog.Nop(), 150)

	t.Run("missing dataset is a precondition failure", func(t *testing.T) {
		rr := runOp(t, p, nil, func(ctx context.Context) (interface{}, error) {
			return nil, pkgerrors.Wrap(model.ErrNotLoaded, `dataset with key "/tmp/a.json"`)
		})
		require.Equal(t, http.StatusPreconditionFailed, rr.Code)
		assert.Contains(t, rr.Body.String(), "/tmp/a.json")
	})

	t.Run("other failures stay opaque", func(t *testing.T) {
		rr := runOp(t, p, nil, func(ctx context.Context) (interface{}, error) {
			return nil, pkgerrors.New("secret detail")
		})
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret detail")
		assert.Contains(t, rr.Body.String(), "internal error")
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "unchanged", truncateRunes("unchanged", 0))
	assert.Equal(t, "unchanged", truncateRunes("unchanged", -5))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "exact", truncateRunes("exact", 5))
	assert.Equal(t, "01234", truncateRunes("0123456789", 5))
	// Runes, not bytes: multibyte characters are never split.
	assert.Equal(t, "привет", truncateRunes("привет, мир", 6))
}
