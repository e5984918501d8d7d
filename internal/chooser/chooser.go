// Package chooser resolves which chat participant is the local user when a
// source format does not record it. Loaders invoke a Chooser exactly once
// per ambiguous source, before any dataset state is published.
package chooser

import (
	"context"

	"github.com/pkg/errors"

	"github.com/chatfold/chatfold/internal/model"
)

// Chooser picks the local user out of candidates collected by a loader.
// Implementations return the index into users, or an error when no decision
// can be made. A failed choice aborts the load.
type Chooser interface {
	ChooseMyself(ctx context.Context, users []model.User) (int, error)
}

// NoChooser always declines. It is used for parse-only flows where identity
// resolution is either unnecessary or must fail loudly.
type NoChooser struct{}

func (NoChooser) ChooseMyself(ctx context.Context, users []model.User) (int, error) {
	return -1, errors.Wrap(model.ErrAmbiguousIdentity, "no way to choose myself")
}
