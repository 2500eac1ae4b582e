package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	databaseopts "github.com/kart-io/rag-assistant/pkg/options/database"
)

func TestNewSQLite(t *testing.T) {
	opts := databaseopts.NewOptions()
	opts.SQLite.Path = filepath.Join(t.TempDir(), "assistant.db")

	c, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "sqlite", c.Name())
	assert.NoError(t, c.Ping(context.Background()))

	var one int
	require.NoError(t, c.DB().Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewUnsupportedDriver(t *testing.T) {
	opts := databaseopts.NewOptions()
	opts.Driver = "oracle"
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  gormlogger.LogLevel
	}{
		{name: "静默", level: 1, want: gormlogger.Silent},
		{name: "错误", level: 2, want: gormlogger.Error},
		{name: "警告", level: 3, want: gormlogger.Warn},
		{name: "信息", level: 4, want: gormlogger.Info},
		{name: "未知值回落静默", level: 9, want: gormlogger.Silent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogLevel(tt.level))
		})
	}
}
