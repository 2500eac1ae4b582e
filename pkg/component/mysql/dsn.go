// Package mysql builds GORM dialectors for MySQL.
package mysql

import (
	"fmt"
	"net/url"

	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"

	mysqlopts "github.com/kart-io/rag-assistant/pkg/options/mysql"
)

// BuildDSN creates a MySQL Data Source Name (DSN) from the provided options.
// The DSN format is: username:password@tcp(host:port)/database?params
//
// The password is query-escaped so characters like @ or / cannot break parsing.
func BuildDSN(opts *mysqlopts.Options) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		opts.Username,
		url.QueryEscape(opts.Password),
		opts.Host,
		opts.Port,
		opts.Database,
	)
}

// Dialector returns the GORM dialector for opts.
func Dialector(opts *mysqlopts.Options) gorm.Dialector {
	return mysqldriver.Open(BuildDSN(opts))
}
