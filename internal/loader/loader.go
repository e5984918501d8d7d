// Package loader defines the source-format loader contract and the front
// that dispatches a path to whichever loader recognizes it. Concrete formats
// live in subpackages; the front treats them uniformly.
package loader

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/model"
)

// Loader handles one source format.
type Loader interface {
	// Name identifies the loader in logs and error messages.
	Name() string

	// LooksAboutRight cheaply checks whether path plausibly belongs to this
	// format: naming conventions, table presence, top-level structure. It
	// returns an error wrapping model.ErrFormatMismatch that names exactly
	// what is missing, and loads no data.
	LooksAboutRight(path string) error

	// Load fully parses the source into a dataset. It consults ch when the
	// format does not itself mark the local user. Any failure aborts the
	// whole load; there are no partially loaded datasets.
	Load(ctx context.Context, path string, ch chooser.Chooser) (*history.Loaded, error)
}

// Front tries each registered loader in order.
type Front struct {
	log     zerolog.Logger
	loaders []Loader
}

func NewFront(log zerolog.Logger, loaders ...Loader) *Front {
	return &Front{
		log:     log.With().Str("component", "loader").Logger(),
		loaders: loaders,
	}
}

// Detect returns the first loader that recognizes path. A loader error that
// is not a format mismatch aborts detection immediately.
func (f *Front) Detect(path string) (Loader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "source %q is not accessible", path)
	}
	for _, l := range f.loaders {
		err := l.LooksAboutRight(path)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, model.ErrFormatMismatch) {
			return nil, err
		}
		f.log.Debug().Str("loader", l.Name()).Str("path", path).Msg(err.Error())
	}
	return nil, errors.Wrapf(model.ErrFormatMismatch,
		"no loader recognizes %q (tried %s)", path, strings.Join(f.names(), ", "))
}

// DetectAndLoad is Detect followed by Load on the winning loader.
func (f *Front) DetectAndLoad(ctx context.Context, path string, ch chooser.Chooser) (*history.Loaded, error) {
	l, err := f.Detect(path)
	if err != nil {
		return nil, err
	}
	f.log.Info().Str("loader", l.Name()).Str("path", path).Msg("loading source")
	loaded, err := l.Load(ctx, path, ch)
	if err != nil {
		return nil, err
	}
	f.log.Info().
		Str("loader", l.Name()).
		Str("uuid", string(loaded.Dataset().UUID)).
		Int("users", len(loaded.Users())).
		Int("chats", len(loaded.Chats())).
		Msg("source loaded")
	return loaded, nil
}

func (f *Front) names() []string {
	out := make([]string, len(f.loaders))
	for i, l := range f.loaders {
		out[i] = l.Name()
	}
	return out
}
