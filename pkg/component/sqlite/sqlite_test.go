package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliteopts "github.com/kart-io/rag-assistant/pkg/options/sqlite"
)

func TestDialector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")
	opts := &sqliteopts.Options{Path: path, BusyTimeoutMS: 100}

	d, err := Dialector(opts)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err, "自动创建父目录")
	assert.Contains(t, BuildDSN(opts), "busy_timeout(100)")
	assert.Contains(t, BuildDSN(&sqliteopts.Options{Path: Memory}), "file::memory:")
}
