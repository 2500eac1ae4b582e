package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kart-io/rag-assistant/pkg/component/database"
	sqliteopts "github.com/kart-io/rag-assistant/pkg/options/sqlite"
)

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	opts := sqliteopts.NewOptions()
	opts.Path = path
	c, err := database.OpenSQLite(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c.DB()
}

func tempDBPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "vector_db.sqlite")
}
