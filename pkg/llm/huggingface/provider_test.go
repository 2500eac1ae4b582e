package huggingface

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want [][]float32
	}{
		{name: "句向量", body: `[[1,2],[3,4]]`, want: [][]float32{{1, 2}, {3, 4}}},
		{name: "token向量取平均", body: `[[[1,2],[3,4]],[[2,2]]]`, want: [][]float32{{2, 3}, {2, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/pipeline/feature-extraction/intfloat/multilingual-e5-large", r.URL.Path)
				assert.Equal(t, "Bearer hf-test", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := NewProvider(map[string]any{"base_url": srv.URL, "api_key": "hf-test"})
			require.NoError(t, err)

			got, err := p.Embed(context.Background(), []string{"a", "b"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(nil)
	assert.Error(t, err)
}
