package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	postgresopts "github.com/kart-io/rag-assistant/pkg/options/postgres"
)

func TestBuildDSN(t *testing.T) {
	opts := postgresopts.NewOptions()
	opts.Password = "secret"

	assert.Equal(t, "host=127.0.0.1 port=5432 user=postgres password=secret dbname=assistant sslmode=disable", BuildDSN(opts))
	assert.Empty(t, BuildDSN(nil))
}

func TestEscapePostgresValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "空密码", value: "", want: "''"},
		{name: "普通密码", value: "secret", want: "secret"},
		{name: "包含空格", value: "pass word", want: "'pass word'"},
		{name: "包含单引号", value: "pass'word", want: "'pass''word'"},
		{name: "包含反斜杠", value: `pass\word`, want: `'pass\\word'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapePostgresValue(tt.value))
		})
	}
}
