package llm

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReadsCredentials(t *testing.T) {
	t.Setenv("YANDEX_API_KEY", "yc-key")
	t.Setenv("YANDEX_FOLDER_ID", "b1g-folder")
	t.Setenv("HF_TOKEN", "hf-token")

	chat := NewChatOptions()
	require.NoError(t, chat.Complete())
	assert.Equal(t, "yc-key", chat.APIKey)
	assert.Equal(t, "b1g-folder", chat.FolderID)
	assert.Empty(t, chat.Validate())

	embedding := NewEmbeddingOptions()
	embedding.APIKey = "configured"
	require.NoError(t, embedding.Complete())
	assert.Equal(t, "configured", embedding.APIKey, "已配置的密钥不被环境变量覆盖")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *ProviderOptions)
		wantErr int
	}{
		{"本地 ollama 无需密钥", func(o *ProviderOptions) { o.Provider = "ollama" }, 0},
		{"yandexgpt 缺少目录", func(o *ProviderOptions) { o.Provider = "yandexgpt"; o.APIKey = "k" }, 1},
		{"缺少供应商", func(o *ProviderOptions) { o.Provider = "" }, 1},
		{"超时与重试非法", func(o *ProviderOptions) {
			o.Provider = "ollama"
			o.Timeout = 0
			o.MaxRetries = -1
		}, 2},
		{"缓存 TTL 非法", func(o *ProviderOptions) {
			o.APIKey = "hf"
			o.CacheEnabled = true
			o.CacheTTL = 0
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewEmbeddingOptions()
			tt.mutate(o)
			assert.Len(t, o.Validate(), tt.wantErr)
		})
	}
}

func TestValidateChatRetries(t *testing.T) {
	o := NewChatOptions()
	o.Provider = "ollama"
	assert.Empty(t, o.Validate())

	o.MaxRetries = 2
	errs := o.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "chat.max-retries")

	e := NewEmbeddingOptions()
	e.Provider = "ollama"
	e.MaxRetries = 2
	assert.Empty(t, e.Validate())
}

func TestAddFlags(t *testing.T) {
	embedding, chat := NewEmbeddingOptions(), NewChatOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	embedding.AddFlags(fs)
	chat.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--embedding.provider=ollama",
		"--embedding.cache-enabled",
		"--chat.model=yandexgpt",
	}))
	assert.Equal(t, "ollama", embedding.Provider)
	assert.True(t, embedding.CacheEnabled)
	assert.Equal(t, "yandexgpt", chat.Model)
	assert.Nil(t, fs.Lookup("chat.cache-enabled"))
}
