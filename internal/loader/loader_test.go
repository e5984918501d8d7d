package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfold/chatfold/internal/chooser"
	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/model"
)

type stubLoader struct {
	name      string
	detectErr error
	loaded    *history.Loaded
	loadCalls int
}

func (s *stubLoader) Name() string { return s.name }

func (s *stubLoader) LooksAboutRight(string) error { return s.detectErr }

func (s *stubLoader) Load(context.Context, string, chooser.Chooser) (*history.Loaded, error) {
	s.loadCalls++
	return s.loaded, nil
}

func stubLoaded(t *testing.T) *history.Loaded {
	t.Helper()
	ds := model.NewDataset("stub", model.SourceTelegram)
	root, err := model.NewDatasetRoot(t.TempDir())
	require.NoError(t, err)
	loaded, err := history.New(ds, root, 1, []model.User{{DsUUID: ds.UUID, ID: 1}}, nil)
	require.NoError(t, err)
	return loaded
}

func existingFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.dat")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestDetectPicksFirstRecognizing(t *testing.T) {
	skip := &stubLoader{name: "first", detectErr: errors.Wrap(model.ErrFormatMismatch, "not mine")}
	win := &stubLoader{name: "second"}
	after := &stubLoader{name: "third"}

	l, err := NewFront(zerolog.Nop(), skip, win, after).Detect(existingFile(t))
	require.NoError(t, err)
	assert.Equal(t, "second", l.(*stubLoader).name)
}

func TestDetectAbortsOnHardError(t *testing.T) {
	broken := &stubLoader{name: "broken", detectErr: errors.New("short read")}
	win := &stubLoader{name: "second"}

	_, err := NewFront(zerolog.Nop(), broken, win).Detect(existingFile(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrFormatMismatch)
	assert.Contains(t, err.Error(), "short read")
}

func TestDetectMissingFile(t *testing.T) {
	_, err := NewFront(zerolog.Nop(), &stubLoader{name: "any"}).
		Detect(filepath.Join(t.TempDir(), "absent.dat"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetectNoMatchNamesTriedLoaders(t *testing.T) {
	mismatch := errors.Wrap(model.ErrFormatMismatch, "not mine")
	_, err := NewFront(zerolog.Nop(),
		&stubLoader{name: "telegram", detectErr: mismatch},
		&stubLoader{name: "whatsapp", detectErr: mismatch},
	).Detect(existingFile(t))
	require.ErrorIs(t, err, model.ErrFormatMismatch)
	assert.Contains(t, err.Error(), "tried telegram, whatsapp")
}

func TestDetectAndLoad(t *testing.T) {
	want := stubLoaded(t)
	win := &stubLoader{name: "second", loaded: want}
	f := NewFront(zerolog.Nop(),
		&stubLoader{name: "first", detectErr: errors.Wrap(model.ErrFormatMismatch, "not mine")},
		win,
	)

	got, err := f.DetectAndLoad(context.Background(), existingFile(t), chooser.NoChooser{})
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 1, win.loadCalls)
}
