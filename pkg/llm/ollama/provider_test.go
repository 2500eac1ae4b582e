package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/pkg/llm"
	"github.com/kart-io/rag-assistant/pkg/utils/json"
)

func TestProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "bge-m3", req.Model)
			_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2],[0.3,0.4]]}`))
		case "/api/chat":
			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.False(t, req.Stream)
			require.NotNil(t, req.Options)
			assert.Equal(t, 100, req.Options.NumPredict)
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok"},"prompt_eval_count":5,"eval_count":2}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p, err := NewProvider(map[string]any{"base_url": srv.URL, "embed_model": "bge-m3", "max_retries": 0})
	require.NoError(t, err)
	ctx := context.Background()

	vecs, err := p.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)

	_, err = p.Embed(ctx, []string{"a", "b", "c"})
	assert.Error(t, err, "count mismatch must be reported")

	resp, err := p.Chat(ctx, llm.BuildMessages("q", ""), llm.WithMaxTokens(100))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 7, resp.TokenUsage.TotalTokens)
}
