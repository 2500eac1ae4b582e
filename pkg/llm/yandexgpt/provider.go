// Package yandexgpt 实现 Yandex Foundation Models 的 Chat 供应商。
package yandexgpt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kart-io/rag-assistant/pkg/llm"
	"github.com/kart-io/rag-assistant/pkg/utils/httpclient"
)

// ProviderName 供应商名称。
const ProviderName = "yandexgpt"

const defaultEndpoint = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

func init() {
	llm.RegisterChatProvider(ProviderName, NewProvider)
}

// Config YandexGPT 供应商配置。
type Config struct {
	Endpoint   string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey     string        `json:"api_key" mapstructure:"api_key"`
	FolderID   string        `json:"folder_id" mapstructure:"folder_id"`
	Model      string        `json:"chat_model" mapstructure:"chat_model"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"`
	MaxTokens  int           `json:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		Endpoint:  defaultEndpoint,
		Model:     "yandexgpt-lite",
		Timeout:   30 * time.Second,
		MaxTokens: 2000,
	}
}

// Provider YandexGPT 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider 从配置 map 创建供应商。
func NewProvider(configMap map[string]any) (llm.ChatProvider, error) {
	cfg := DefaultConfig()

	if v, ok := llm.String(configMap, "base_url"); ok {
		cfg.Endpoint = v
	}
	if v, ok := llm.String(configMap, "api_key"); ok {
		cfg.APIKey = v
	}
	if v, ok := llm.String(configMap, "folder_id"); ok {
		cfg.FolderID = v
	}
	if v, ok := llm.String(configMap, "chat_model"); ok {
		cfg.Model = v
	}
	if v, ok := llm.Duration(configMap, "timeout"); ok {
		cfg.Timeout = v
	}
	if v, ok := llm.Int(configMap, "max_retries"); ok {
		cfg.MaxRetries = v
	}
	if v, ok := llm.Int(configMap, "max_tokens"); ok && v > 0 {
		cfg.MaxTokens = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("yandexgpt: api_key 是必需的")
	}
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("yandexgpt: folder_id 是必需的")
	}

	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}, nil
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

// ModelURI 返回 gpt://<folder>/<model>/latest。
func (p *Provider) ModelURI() string {
	return fmt.Sprintf("gpt://%s/%s/latest", p.config.FolderID, p.config.Model)
}

type completionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []message         `json:"messages"`
}

type completionOptions struct {
	Stream      bool     `json:"stream"`
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens 按 API 要求以字符串传递。
	MaxTokens string `json:"maxTokens"`
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionResponse struct {
	Result struct {
		Alternatives []struct {
			Message message `json:"message"`
			Status  string  `json:"status"`
		} `json:"alternatives"`
		Usage struct {
			InputTextTokens  string `json:"inputTextTokens"`
			CompletionTokens string `json:"completionTokens"`
			TotalTokens      string `json:"totalTokens"`
		} `json:"usage"`
	} `json:"result"`
}

// Chat 发送一次同步补全请求。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (*llm.GenerateResponse, error) {
	o := llm.ApplyOptions(opts...)
	maxTokens := p.config.MaxTokens
	if o.MaxTokens > 0 {
		maxTokens = o.MaxTokens
	}

	req := completionRequest{
		ModelURI: p.ModelURI(),
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: o.Temperature,
			MaxTokens:   strconv.Itoa(maxTokens),
		},
		Messages: make([]message, len(messages)),
	}
	for i, msg := range messages {
		req.Messages[i] = message{Role: string(msg.Role), Text: msg.Content}
	}

	headers := map[string]string{
		"Authorization": "Api-Key " + p.config.APIKey,
		"x-folder-id":   p.config.FolderID,
	}

	var resp completionResponse
	if err := p.client.PostJSON(ctx, p.config.Endpoint, headers, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result.Alternatives) == 0 {
		return nil, fmt.Errorf("yandexgpt: 未返回响应内容")
	}

	return &llm.GenerateResponse{
		Content: resp.Result.Alternatives[0].Message.Text,
		TokenUsage: &llm.TokenUsage{
			PromptTokens:     atoi(resp.Result.Usage.InputTextTokens),
			CompletionTokens: atoi(resp.Result.Usage.CompletionTokens),
			TotalTokens:      atoi(resp.Result.Usage.TotalTokens),
		},
	}, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
