package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragopts "github.com/kart-io/rag-assistant/pkg/options/rag"
)

// newTestOptions 返回带有供应商凭据的默认配置。
func newTestOptions(t *testing.T) *Options {
	t.Helper()
	t.Setenv("YANDEX_API_KEY", "yc-key")
	t.Setenv("YANDEX_FOLDER_ID", "b1g-folder")
	t.Setenv("HF_TOKEN", "hf-token")
	opts := NewOptions()
	require.NoError(t, opts.Complete())
	return opts
}

func TestOptionsDefaults(t *testing.T) {
	opts := newTestOptions(t)
	require.NoError(t, opts.Validate())

	assert.Equal(t, 0.6, opts.Assistant.RelevanceThreshold)
	assert.Equal(t, 10, opts.Assistant.TopK)
	assert.Equal(t, ragopts.IndexBackendSQLite, opts.Index.Backend)
	assert.Equal(t, Name, opts.Tracing.ServiceName)
}

func TestOptionsFlags(t *testing.T) {
	opts := NewOptions()
	fss := opts.Flags()

	assert.Equal(t, []string{
		"http", "log", "tracing", "assistant", "index", "ingest",
		"milvus", "database", "redis", "embedding", "chat",
	}, fss.Order)

	fs := fss.FlagSets["assistant"]
	require.NoError(t, fs.Parse([]string{"--assistant.relevance-threshold=0.75", "--assistant.top-k=5"}))
	assert.Equal(t, 0.75, opts.Assistant.RelevanceThreshold)
	assert.Equal(t, 5, opts.Assistant.TopK)

	require.NoError(t, fss.FlagSets["ingest"].Parse([]string{"--ingest.only", "--ingest.watch"}))
	require.NoError(t, opts.Complete())
	assert.True(t, opts.Ingest.OnStart)
	assert.False(t, opts.Ingest.Watch)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr string
	}{
		{"阈值越界", func(o *Options) { o.Assistant.RelevanceThreshold = 1.2 }, "relevance-threshold"},
		{"topK 为零", func(o *Options) { o.Assistant.TopK = 0 }, "top-k"},
		{"重叠不小于块大小", func(o *Options) { o.Ingest.ChunkOverlap = o.Ingest.ChunkSize }, "chunk-overlap"},
		{"Redis 会话缺少地址", func(o *Options) {
			o.Assistant.SessionStore = ragopts.SessionStoreRedis
			o.Redis.Host = ""
		}, "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := newTestOptions(t)
			tt.mutate(opts)
			err := opts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("多个错误一并返回", func(t *testing.T) {
		opts := newTestOptions(t)
		opts.Assistant.TopK = 0
		opts.Assistant.Temperature = 3
		err := opts.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "top-k")
		assert.Contains(t, err.Error(), "temperature")
	})
}
