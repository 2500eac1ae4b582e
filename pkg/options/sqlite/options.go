// Package sqlite provides options for the embedded SQLite database.
package sqlite

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/rag-assistant/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for SQLite.
type Options struct {
	// Path 数据库文件路径，":memory:" 表示内存库。
	Path string `json:"path" mapstructure:"path"`
	// BusyTimeoutMS 写锁等待时间（毫秒）。
	BusyTimeoutMS int `json:"busy-timeout-ms" mapstructure:"busy-timeout-ms"`
	LogLevel      int `json:"log-level" mapstructure:"log-level"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Path:          "data/assistant.db",
		BusyTimeoutMS: 5000,
		LogLevel:      1,
	}
}

// AddFlags adds flags for SQLite options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "sqlite."
	fs.StringVar(&o.Path, p+"path", o.Path, "SQLite database file.")
	fs.IntVar(&o.BusyTimeoutMS, p+"busy-timeout-ms", o.BusyTimeoutMS, "SQLite busy timeout in milliseconds.")
	fs.IntVar(&o.LogLevel, p+"log-level", o.LogLevel, "Gorm log level (1 silent, 2 error, 3 warn, 4 info).")
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Path == "" {
		errs = append(errs, fmt.Errorf("sqlite.path is required"))
	}
	if o.BusyTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("sqlite.busy-timeout-ms must not be negative"))
	}
	return errs
}

// Complete completes the options.
func (o *Options) Complete() error {
	return nil
}
