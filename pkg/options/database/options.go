// Package database selects the relational database backing the interaction log.
package database

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/rag-assistant/pkg/options"
	mysqlopts "github.com/kart-io/rag-assistant/pkg/options/mysql"
	postgresopts "github.com/kart-io/rag-assistant/pkg/options/postgres"
	sqliteopts "github.com/kart-io/rag-assistant/pkg/options/sqlite"
)

var _ options.IOptions = (*Options)(nil)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Options contains the driver choice and per-driver settings.
type Options struct {
	Driver   string                `json:"driver" mapstructure:"driver"`
	SQLite   *sqliteopts.Options   `json:"sqlite" mapstructure:"sqlite"`
	MySQL    *mysqlopts.Options    `json:"mysql" mapstructure:"mysql"`
	Postgres *postgresopts.Options `json:"postgres" mapstructure:"postgres"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Driver:   DriverSQLite,
		SQLite:   sqliteopts.NewOptions(),
		MySQL:    mysqlopts.NewOptions(),
		Postgres: postgresopts.NewOptions(),
	}
}

// AddFlags adds flags for the database and every driver.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Driver, options.Join(prefixes...)+"database.driver", o.Driver, "Interaction log database driver (sqlite, mysql, postgres).")
	nested := append(append([]string{}, prefixes...), "database")
	o.SQLite.AddFlags(fs, nested...)
	o.MySQL.AddFlags(fs, nested...)
	o.Postgres.AddFlags(fs, nested...)
}

// Validate validates only the selected driver.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	switch o.Driver {
	case DriverSQLite:
		return o.SQLite.Validate()
	case DriverMySQL:
		return o.MySQL.Validate()
	case DriverPostgres:
		return o.Postgres.Validate()
	default:
		return []error{fmt.Errorf("database.driver %q is not supported", o.Driver)}
	}
}

// Complete completes the selected driver options.
func (o *Options) Complete() error {
	if o.SQLite == nil {
		o.SQLite = sqliteopts.NewOptions()
	}
	if o.MySQL == nil {
		o.MySQL = mysqlopts.NewOptions()
	}
	if o.Postgres == nil {
		o.Postgres = postgresopts.NewOptions()
	}
	switch o.Driver {
	case DriverMySQL:
		return o.MySQL.Complete()
	case DriverPostgres:
		return o.Postgres.Complete()
	default:
		return o.SQLite.Complete()
	}
}
