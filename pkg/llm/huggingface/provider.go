// Package huggingface 实现 HuggingFace Inference API 的 Embedding 供应商。
package huggingface

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/rag-assistant/pkg/llm"
	"github.com/kart-io/rag-assistant/pkg/utils/httpclient"
	"github.com/kart-io/rag-assistant/pkg/utils/json"
)

// ProviderName 供应商名称。
const ProviderName = "huggingface"

func init() {
	llm.RegisterEmbeddingProvider(ProviderName, NewProvider)
}

// Config HuggingFace 供应商配置。
type Config struct {
	BaseURL      string        `json:"base_url" mapstructure:"base_url"`
	APIKey       string        `json:"api_key" mapstructure:"api_key"`
	EmbedModel   string        `json:"embed_model" mapstructure:"embed_model"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries   int           `json:"max_retries" mapstructure:"max_retries"`
	WaitForModel bool          `json:"wait_for_model" mapstructure:"wait_for_model"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://api-inference.huggingface.co",
		EmbedModel:   "intfloat/multilingual-e5-large",
		Timeout:      120 * time.Second,
		MaxRetries:   3,
		WaitForModel: true,
	}
}

// Provider HuggingFace 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider 从配置 map 创建供应商。
func NewProvider(configMap map[string]any) (llm.EmbeddingProvider, error) {
	cfg := DefaultConfig()

	if v, ok := llm.String(configMap, "base_url"); ok {
		cfg.BaseURL = v
	}
	if v, ok := llm.String(configMap, "api_key"); ok {
		cfg.APIKey = v
	}
	if v, ok := llm.String(configMap, "embed_model"); ok {
		cfg.EmbedModel = v
	}
	if v, ok := llm.Duration(configMap, "timeout"); ok {
		cfg.Timeout = v
	}
	if v, ok := llm.Int(configMap, "max_retries"); ok {
		cfg.MaxRetries = v
	}
	if v, ok := configMap["wait_for_model"].(bool); ok {
		cfg.WaitForModel = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("huggingface: api_key 是必需的")
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

type embeddingRequest struct {
	Inputs  []string          `json:"inputs"`
	Options *embeddingOptions `json:"options,omitempty"`
}

type embeddingOptions struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
}

// Embed 调用 feature-extraction 管道。
// 模型返回 token 级向量时按 token 取平均。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := embeddingRequest{Inputs: texts}
	if p.config.WaitForModel {
		req.Options = &embeddingOptions{WaitForModel: true}
	}

	var raw json.RawMessage
	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", p.config.BaseURL, p.config.EmbedModel)
	headers := map[string]string{"Authorization": "Bearer " + p.config.APIKey}
	if err := p.client.PostJSON(ctx, url, headers, req, &raw); err != nil {
		return nil, err
	}

	embeddings, err := decodeEmbeddings(raw)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("huggingface: 期望 %d 个向量，实际返回 %d 个", len(texts), len(embeddings))
	}
	return embeddings, nil
}

func decodeEmbeddings(raw []byte) ([][]float32, error) {
	var embeddings [][]float32
	if err := json.Unmarshal(raw, &embeddings); err == nil {
		return embeddings, nil
	}

	var tokenEmbeddings [][][]float32
	if err := json.Unmarshal(raw, &tokenEmbeddings); err != nil {
		return nil, fmt.Errorf("huggingface: 解析响应失败: %w", err)
	}
	embeddings = make([][]float32, len(tokenEmbeddings))
	for i, tokens := range tokenEmbeddings {
		if len(tokens) == 0 {
			continue
		}
		embeddings[i] = make([]float32, len(tokens[0]))
		for _, token := range tokens {
			for j, v := range token {
				embeddings[i][j] += v
			}
		}
		for j := range embeddings[i] {
			embeddings[i][j] /= float32(len(tokens))
		}
	}
	return embeddings, nil
}

// EmbedSingle 为单个文本生成向量嵌入。
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

