package llm

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int32
	texts int32
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&e.calls, 1)
	atomic.AddInt32(&e.texts, int32(len(texts)))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len([]rune(t))), 1}
	}
	return out, nil
}

func (e *countingEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := e.Embed(ctx, []string{text})
	return v[0], err
}

func (e *countingEmbedder) Name() string { return "counting" }

func TestCachedEmbeddingProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	inner := &countingEmbedder{}
	cached := NewCachedEmbeddingProvider(inner, client, &EmbeddingCacheConfig{KeyPrefix: "emb:", Namespace: "e5"})
	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"паспорт", "аттестат"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{7, 1}, {8, 1}}, first)

	second, err := cached.Embed(ctx, []string{"аттестат", "заявление", "паспорт"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{8, 1}, {9, 1}, {7, 1}}, second)

	assert.EqualValues(t, 2, atomic.LoadInt32(&inner.calls))
	assert.EqualValues(t, 3, atomic.LoadInt32(&inner.texts), "only the miss should reach the provider")

	single, err := cached.EmbedSingle(ctx, "паспорт")
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 1}, single)
	assert.EqualValues(t, 2, atomic.LoadInt32(&inner.calls))

	require.NoError(t, cached.ClearCache(ctx))
	assert.Empty(t, mr.Keys())
	assert.Equal(t, "counting-cached", cached.Name())
}

func TestCachedEmbeddingProviderRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	inner := &countingEmbedder{}
	cached := NewCachedEmbeddingProvider(inner, client, nil)

	v, err := cached.EmbedSingle(context.Background(), "ЕГЭ")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, v)
}

func TestRegistry(t *testing.T) {
	RegisterEmbeddingProvider("test-embed", func(map[string]any) (EmbeddingProvider, error) {
		return &countingEmbedder{}, nil
	})

	p, err := NewEmbeddingProvider("test-embed", nil)
	require.NoError(t, err)
	assert.Equal(t, "counting", p.Name())

	_, err = NewChatProvider("test-embed", nil)
	assert.Error(t, err)
	assert.Contains(t, ListProviders(), "test-embed")
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	assert.Nil(t, o.Temperature)
	assert.Zero(t, o.MaxTokens)

	o = ApplyOptions(WithTemperature(0), WithMaxTokens(2000))
	require.NotNil(t, o.Temperature)
	assert.Zero(t, *o.Temperature)
	assert.Equal(t, 2000, o.MaxTokens)

	msgs := BuildMessages("вопрос", "")
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
}

func TestConfigHelpers(t *testing.T) {
	cfg := map[string]any{"max_retries": 0, "api_key": "", "temperature": 0.6}

	v, ok := Int(cfg, "max_retries")
	assert.True(t, ok)
	assert.Zero(t, v)

	_, ok = String(cfg, "api_key")
	assert.False(t, ok)

	f, ok := Float(cfg, "temperature")
	assert.True(t, ok)
	assert.InDelta(t, 0.6, f, 1e-9)
}
