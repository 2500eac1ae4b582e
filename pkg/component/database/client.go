// Package database opens the relational database selected by configuration.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/rag-assistant/pkg/component"
	"github.com/kart-io/rag-assistant/pkg/component/mysql"
	"github.com/kart-io/rag-assistant/pkg/component/postgres"
	"github.com/kart-io/rag-assistant/pkg/component/sqlite"
	databaseopts "github.com/kart-io/rag-assistant/pkg/options/database"
	sqliteopts "github.com/kart-io/rag-assistant/pkg/options/sqlite"
)

var _ component.Client = (*Client)(nil)

// Client wraps gorm.DB.
type Client struct {
	db     *gorm.DB
	driver string
}

// PoolConfig configures the sql.DB connection pool.
type PoolConfig struct {
	MaxIdle     int
	MaxOpen     int
	MaxLifetime time.Duration
}

// New opens the database chosen by opts.Driver and verifies connectivity.
func New(ctx context.Context, opts *databaseopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("database options cannot be nil")
	}

	switch opts.Driver {
	case databaseopts.DriverMySQL:
		o := opts.MySQL
		return Open(ctx, opts.Driver, mysql.Dialector(o), o.LogLevel, PoolConfig{
			MaxIdle: o.MaxIdleConnections, MaxOpen: o.MaxOpenConnections, MaxLifetime: o.MaxConnectionLifeTime,
		})
	case databaseopts.DriverPostgres:
		o := opts.Postgres
		return Open(ctx, opts.Driver, postgres.Dialector(o), o.LogLevel, PoolConfig{
			MaxIdle: o.MaxIdleConnections, MaxOpen: o.MaxOpenConnections, MaxLifetime: o.MaxConnectionLifeTime,
		})
	case databaseopts.DriverSQLite:
		return OpenSQLite(ctx, opts.SQLite)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// OpenSQLite opens an SQLite file with a single connection, which serialises
// writers at the driver level.
func OpenSQLite(ctx context.Context, opts *sqliteopts.Options) (*Client, error) {
	d, err := sqlite.Dialector(opts)
	if err != nil {
		return nil, err
	}
	return Open(ctx, databaseopts.DriverSQLite, d, opts.LogLevel, PoolConfig{MaxIdle: 1, MaxOpen: 1})
}

// Open opens a GORM connection with the unified logger and pool settings.
func Open(ctx context.Context, driver string, dialector gorm.Dialector, logLevel int, pool PoolConfig) (*Client, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(LogLevel(logLevel), 200*time.Millisecond, true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if pool.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdle)
	}
	if pool.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpen)
	}
	if pool.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.MaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	return &Client{db: db, driver: driver}, nil
}

// Name returns the driver name.
func (c *Client) Name() string {
	return c.driver
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// SqlDB returns the underlying sql.DB instance.
func (c *Client) SqlDB() (*sql.DB, error) {
	return c.db.DB()
}

// Ping checks if the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
