// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/rag-assistant/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义 LLM 供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（huggingface, yandexgpt, openai, ollama）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，为空时使用供应商默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥。
	APIKey string `json:"-" mapstructure:"api-key"`

	// FolderID Yandex Cloud 目录 ID。
	FolderID string `json:"folder-id" mapstructure:"folder-id"`

	// Model 使用的模型名称，为空时使用供应商默认值。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数，0 表示不重试。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// CacheEnabled 是否在 Redis 中缓存向量（仅 embedding 使用）。
	CacheEnabled bool `json:"cache-enabled" mapstructure:"cache-enabled"`

	// CacheTTL 向量缓存过期时间。
	CacheTTL time.Duration `json:"cache-ttl" mapstructure:"cache-ttl"`

	name string
}

// NewEmbeddingOptions 创建默认 Embedding 供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		name:       "embedding",
		Provider:   "huggingface",
		Model:      "intfloat/multilingual-e5-large",
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		CacheTTL:   24 * time.Hour,
	}
}

// NewChatOptions 创建默认 Chat 供应商配置。
func NewChatOptions() *ProviderOptions {
	return &ProviderOptions{
		name:       "chat",
		Provider:   "yandexgpt",
		Model:      "yandexgpt-lite",
		Timeout:    30 * time.Second,
		MaxRetries: 0,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"folder_id":    o.FolderID,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + o.name + "."
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Provider name for "+o.name+" (huggingface, yandexgpt, openai, ollama).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "API base URL, provider default when empty.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "API key.")
	fs.StringVar(&o.FolderID, p+"folder-id", o.FolderID, "Yandex Cloud folder id.")
	fs.StringVar(&o.Model, p+"model", o.Model, "Model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Maximum number of retries on 5xx, 0 disables retries.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "OpenAI organization id (optional).")
	if o.name == "embedding" {
		fs.BoolVar(&o.CacheEnabled, p+"cache-enabled", o.CacheEnabled, "Cache embeddings in Redis.")
		fs.DurationVar(&o.CacheTTL, p+"cache-ttl", o.CacheTTL, "Embedding cache TTL.")
	}
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("%s.provider is required", o.name))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s.timeout must be positive", o.name))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s.max-retries must not be negative", o.name))
	}
	// 对话生成失败后不重试
	if o.name == "chat" && o.MaxRetries > 0 {
		errs = append(errs, fmt.Errorf("%s.max-retries must be 0, answer generation is never retried", o.name))
	}
	switch o.Provider {
	case "openai", "huggingface":
		if o.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s.api-key is required for provider %s", o.name, o.Provider))
		}
	case "yandexgpt":
		if o.APIKey == "" || o.FolderID == "" {
			errs = append(errs, fmt.Errorf("%s.api-key and %s.folder-id are required for yandexgpt", o.name, o.name))
		}
	}
	if o.CacheEnabled && o.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s.cache-ttl must be positive", o.name))
	}
	return errs
}

// credentialEnv 未配置密钥时读取的环境变量。
var credentialEnv = map[string]string{
	"yandexgpt":   "YANDEX_API_KEY",
	"huggingface": "HF_TOKEN",
	"openai":      "OPENAI_API_KEY",
}

// Complete fills credentials from the environment when they are not configured.
func (o *ProviderOptions) Complete() error {
	if o.APIKey == "" {
		if env, ok := credentialEnv[o.Provider]; ok {
			o.APIKey = os.Getenv(env)
		}
	}
	if o.Provider == "yandexgpt" && o.FolderID == "" {
		o.FolderID = os.Getenv("YANDEX_FOLDER_ID")
	}
	return nil
}
