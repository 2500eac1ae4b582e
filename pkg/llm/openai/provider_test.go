package openai

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

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider(map[string]any{"base_url": srv.URL, "api_key": "sk-test", "max_retries": 0})
	require.NoError(t, err)
	return p.(*Provider)
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(map[string]any{})
	assert.Error(t, err)
}

func TestEmbedKeepsOrder(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[2,2],"index":1},{"embedding":[1,1],"index":0}]}`))
	})

	got, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 2}}, got)
}

func TestChat(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.NotNil(t, req.Temperature)
		assert.InDelta(t, 0.6, *req.Temperature, 1e-9)
		assert.Equal(t, 2000, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Нужен паспорт."}}],"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}}`))
	})

	resp, err := p.Chat(context.Background(), llm.BuildMessages("Что нужно?", "Ты помощник"),
		llm.WithTemperature(0.6), llm.WithMaxTokens(2000))
	require.NoError(t, err)
	assert.Equal(t, "Нужен паспорт.", resp.Content)
	assert.Equal(t, 14, resp.TokenUsage.TotalTokens)
}

func TestChatEmptyChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := p.Chat(context.Background(), llm.BuildMessages("q", ""))
	assert.Error(t, err)
}
