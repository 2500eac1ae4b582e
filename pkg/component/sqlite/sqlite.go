// Package sqlite builds GORM dialectors for the pure Go SQLite driver.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	sqliteopts "github.com/kart-io/rag-assistant/pkg/options/sqlite"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

// BuildDSN returns the driver DSN with busy timeout and WAL pragmas.
func BuildDSN(opts *sqliteopts.Options) string {
	if opts.Path == Memory {
		return fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", opts.BusyTimeoutMS)
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		opts.Path, opts.BusyTimeoutMS)
}

// Dialector creates the parent directory of the database file and returns
// the GORM dialector for opts.
func Dialector(opts *sqliteopts.Options) (gorm.Dialector, error) {
	if opts.Path != Memory {
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory %s: %w", dir, err)
			}
		}
	}
	return sqlite.Open(BuildDSN(opts)), nil
}
