package loader

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/chatfold/chatfold/internal/model"
)

// OpenVendorDB opens an existing vendor database read-only. Vendor files are
// someone else's property; nothing in a load may write to them.
func OpenVendorDB(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "vendor db %q is not accessible", path)
	}
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open vendor db %q", path)
	}
	// Simple ping to verify the file really is a database
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(model.ErrFormatMismatch, "%q is not a sqlite database: %v", filepath.Base(path), err)
	}
	return db, nil
}

// RequireTables verifies the named tables exist, reporting every missing one
// as a format mismatch.
func RequireTables(db *sql.DB, path string, tables ...string) error {
	var missing []string
	for _, tbl := range tables {
		var n int
		err := db.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, tbl,
		).Scan(&n)
		if err != nil {
			return errors.Wrapf(err, "inspect schema of %q", path)
		}
		if n == 0 {
			missing = append(missing, tbl)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(model.ErrFormatMismatch,
			"%s is missing tables: %s", filepath.Base(path), strings.Join(missing, ", "))
	}
	return nil
}
