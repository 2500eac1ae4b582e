// Package mysql provides MySQL connection options.
package mysql

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/rag-assistant/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for MySQL.
type Options struct {
	Host                  string        `json:"host" mapstructure:"host"`
	Port                  int           `json:"port" mapstructure:"port"`
	Username              string        `json:"username" mapstructure:"username"`
	Password              string        `json:"-" mapstructure:"password"`
	Database              string        `json:"database" mapstructure:"database"`
	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time"`
	LogLevel              int           `json:"log-level" mapstructure:"log-level"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                  "127.0.0.1",
		Port:                  3306,
		Username:              "root",
		Database:              "assistant",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifeTime: 10 * time.Second,
		LogLevel:              1, // Silent
	}
}

// AddFlags adds flags for MySQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "mysql."
	fs.StringVar(&o.Host, p+"host", o.Host, "MySQL host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "MySQL port.")
	fs.StringVar(&o.Username, p+"username", o.Username, "MySQL username.")
	fs.StringVar(&o.Password, p+"password", o.Password, "MySQL password (prefer the MYSQL_PASSWORD env var).")
	fs.StringVar(&o.Database, p+"database", o.Database, "MySQL database.")
	fs.IntVar(&o.MaxIdleConnections, p+"max-idle-connections", o.MaxIdleConnections, "MySQL max idle connections.")
	fs.IntVar(&o.MaxOpenConnections, p+"max-open-connections", o.MaxOpenConnections, "MySQL max open connections.")
	fs.DurationVar(&o.MaxConnectionLifeTime, p+"max-connection-life-time", o.MaxConnectionLifeTime, "MySQL max connection life time.")
	fs.IntVar(&o.LogLevel, p+"log-level", o.LogLevel, "Gorm log level (1 silent, 2 error, 3 warn, 4 info).")
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Host == "" {
		errs = append(errs, fmt.Errorf("mysql.host is required"))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("mysql.database is required"))
	}
	if o.LogLevel < 1 || o.LogLevel > 4 {
		errs = append(errs, fmt.Errorf("mysql.log-level must be between 1 and 4"))
	}
	return errs
}

// Complete reads the password from MYSQL_PASSWORD when it is not configured.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("MYSQL_PASSWORD")
	}
	return nil
}
