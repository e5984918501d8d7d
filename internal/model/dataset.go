package model

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// SourceType names the system a dataset was exported from.
type SourceType string

const (
	SourceTelegram   SourceType = "telegram"
	SourceWhatsAppDB SourceType = "whatsapp-db"
	SourceTinderDB   SourceType = "tinder-db"
)

// Dataset is one imported chat history snapshot.
type Dataset struct {
	UUID       UUID       `json:"uuid"`
	Alias      string     `json:"alias"`
	SourceType SourceType `json:"sourceType"`
}

// NewDataset mints a dataset with a fresh UUID.
func NewDataset(alias string, st SourceType) Dataset {
	return Dataset{UUID: NewUUID(), Alias: alias, SourceType: st}
}

// DatasetRoot is the absolute directory that every stored file path in a
// dataset is relative to. Entities never hold absolute paths.
type DatasetRoot string

// NewDatasetRoot canonicalizes path into an absolute, symlink-resolved root.
// The directory must exist.
func NewDatasetRoot(path string) (DatasetRoot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "resolve dataset root %q", path)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(err, "resolve dataset root %q", path)
	}
	return DatasetRoot(abs), nil
}

// ToAbsolute resolves a stored relative path against the root. Stored paths
// are always relative; an absolute input means a broken invariant upstream.
func (r DatasetRoot) ToAbsolute(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", errors.Wrapf(ErrValidation, "path is already absolute: %s", rel)
	}
	return filepath.Join(string(r), filepath.FromSlash(rel)), nil
}

// ToRelative rewrites an absolute path into the slash-separated relative form
// used for storage. The path must reside under the root.
func (r DatasetRoot) ToRelative(abs string) (string, error) {
	abs, err := filepath.Abs(abs)
	if err != nil {
		return "", errors.Wrapf(err, "canonicalize %q", abs)
	}
	rel, err := filepath.Rel(string(r), abs)
	if err != nil {
		return "", errors.Wrapf(err, "relativize %q against %q", abs, r)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrValidation, "path %s is outside dataset root %s", abs, r)
	}
	return filepath.ToSlash(rel), nil
}
