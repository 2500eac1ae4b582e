package biz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/pkg/llm"
	"github.com/kart-io/rag-assistant/pkg/llm/yandexgpt"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

func newYandexClient(t *testing.T, url string, timeout time.Duration) *CompletionClient {
	t.Helper()
	p, err := yandexgpt.NewProvider(map[string]any{
		"base_url":    url,
		"api_key":     "key",
		"folder_id":   "folder",
		"max_retries": 0,
	})
	require.NoError(t, err)
	return NewCompletionClient(p, timeout)
}

func TestCompletionGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"alternatives":[{"message":{"role":"assistant","text":"Нужен паспорт."}}],"usage":{"totalTokens":"21"}}}`))
	}))
	defer srv.Close()

	res, err := newYandexClient(t, srv.URL, time.Second).Generate(context.Background(), "prompt", 0.6, 2000)
	require.NoError(t, err)
	assert.Equal(t, "Нужен паспорт.", res.Text)
	assert.Equal(t, 21, res.TokensUsed)
}

func TestCompletionFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
	}{
		{
			name: "服务端错误不重试",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			},
			timeout: time.Second,
		},
		{
			name: "鉴权失败",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			timeout: time.Second,
		},
		{
			name: "请求超时",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			_, err := newYandexClient(t, srv.URL, tt.timeout).Generate(context.Background(), "prompt", 0.6, 100)
			assert.ErrorIs(t, err, errors.ErrGenerationFailed)
			assert.EqualValues(t, 1, calls.Load())
		})
	}
}

type emptyChat struct{}

func (emptyChat) Chat(context.Context, []llm.Message, ...llm.GenerateOption) (*llm.GenerateResponse, error) {
	return &llm.GenerateResponse{}, nil
}

func (emptyChat) Name() string { return "empty" }

func TestCompletionEmptyAnswer(t *testing.T) {
	_, err := NewCompletionClient(emptyChat{}, 0).Generate(context.Background(), "prompt", 0.6, 100)
	assert.ErrorIs(t, err, errors.ErrGenerationFailed)
}
