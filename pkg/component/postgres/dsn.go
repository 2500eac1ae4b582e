// Package postgres builds GORM dialectors for PostgreSQL.
package postgres

import (
	"fmt"
	"strings"

	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	postgresopts "github.com/kart-io/rag-assistant/pkg/options/postgres"
)

// BuildDSN creates a PostgreSQL DSN from the provided options:
// host=<host> port=<port> user=<username> password=<password> dbname=<database> sslmode=<sslmode>
func BuildDSN(opts *postgresopts.Options) string {
	if opts == nil {
		return ""
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		opts.Host,
		opts.Port,
		opts.Username,
		escapePostgresValue(opts.Password),
		opts.Database,
		opts.SSLMode,
	)
}

// Dialector returns the GORM dialector for opts.
func Dialector(opts *postgresopts.Options) gorm.Dialector {
	return postgresdriver.Open(BuildDSN(opts))
}

// escapePostgresValue quotes values containing spaces, quotes or backslashes.
func escapePostgresValue(value string) string {
	if value == "" {
		return "''"
	}
	if !strings.ContainsAny(value, " '\\") {
		return value
	}
	escaped := strings.ReplaceAll(value, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "'", "''")
	return "'" + escaped + "'"
}
