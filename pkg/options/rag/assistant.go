// Package rag provides options for the question answering pipeline, the
// vector index and document ingestion.
package rag

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/rag-assistant/pkg/options"
)

var _ options.IOptions = (*AssistantOptions)(nil)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// AssistantOptions configures answer synthesis.
type AssistantOptions struct {
	// RelevanceThreshold 最高相关度低于该值时不调用大模型。
	RelevanceThreshold float64 `json:"relevance-threshold" mapstructure:"relevance-threshold"`

	// TopK 检索片段数量。
	TopK int `json:"top-k" mapstructure:"top-k"`

	// Temperature 请求未指定时使用的采样温度。
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens 生成的最大 token 数。
	MaxTokens int `json:"max-tokens" mapstructure:"max-tokens"`

	// HistoryWindow 写入提示词的最近对话条数。
	HistoryWindow int `json:"history-window" mapstructure:"history-window"`

	// HistoryLimit 每个会话保留的最大对话条数。
	HistoryLimit int `json:"history-limit" mapstructure:"history-limit"`

	// PromptFile YAML 提示词模板，为空时使用内置模板。
	PromptFile string `json:"prompt-file" mapstructure:"prompt-file"`

	// Abbreviations 缩写词典，为空时使用内置词典。
	Abbreviations map[string]string `json:"abbreviations" mapstructure:"abbreviations"`

	// SessionStore 会话存储（memory, redis）。
	SessionStore string `json:"session-store" mapstructure:"session-store"`

	// SessionTTL 会话空闲过期时间，内存与 Redis 存储均生效，0 表示不过期。
	SessionTTL time.Duration `json:"session-ttl" mapstructure:"session-ttl"`

	// MaxRenderedSources 文本回复中列出的来源数量。
	MaxRenderedSources int `json:"max-rendered-sources" mapstructure:"max-rendered-sources"`
}

// NewAssistantOptions creates default assistant options.
func NewAssistantOptions() *AssistantOptions {
	return &AssistantOptions{
		RelevanceThreshold: 0.6,
		TopK:               10,
		Temperature:        0.6,
		MaxTokens:          2000,
		HistoryWindow:      6,
		HistoryLimit:       10,
		SessionStore:       SessionStoreMemory,
		SessionTTL:         24 * time.Hour,
		MaxRenderedSources: 3,
	}
}

// AddFlags adds flags for assistant options to the specified FlagSet.
func (o *AssistantOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "assistant."
	fs.Float64Var(&o.RelevanceThreshold, p+"relevance-threshold", o.RelevanceThreshold, "Minimum best-passage score required to call the language model.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of passages retrieved per question.")
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "Default sampling temperature.")
	fs.IntVar(&o.MaxTokens, p+"max-tokens", o.MaxTokens, "Maximum tokens generated per answer.")
	fs.IntVar(&o.HistoryWindow, p+"history-window", o.HistoryWindow, "Number of recent turns rendered into the prompt.")
	fs.IntVar(&o.HistoryLimit, p+"history-limit", o.HistoryLimit, "Number of turns kept per session.")
	fs.StringVar(&o.PromptFile, p+"prompt-file", o.PromptFile, "YAML prompt template file, built-in template when empty.")
	fs.StringToStringVar(&o.Abbreviations, p+"abbreviations", o.Abbreviations, "Abbreviation dictionary, ABBR=expansion pairs.")
	fs.StringVar(&o.SessionStore, p+"session-store", o.SessionStore, "Session history store (memory, redis).")
	fs.DurationVar(&o.SessionTTL, p+"session-ttl", o.SessionTTL, "Idle session TTL for both stores, 0 disables expiry.")
	fs.IntVar(&o.MaxRenderedSources, p+"max-rendered-sources", o.MaxRenderedSources, "Sources listed under a rendered answer.")
}

// Validate validates the assistant options.
func (o *AssistantOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.RelevanceThreshold < 0 || o.RelevanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("assistant.relevance-threshold must be within [0, 1], got %v", o.RelevanceThreshold))
	}
	if o.TopK < 1 {
		errs = append(errs, fmt.Errorf("assistant.top-k must be at least 1"))
	}
	if o.Temperature < 0 || o.Temperature > 1 {
		errs = append(errs, fmt.Errorf("assistant.temperature must be within [0, 1], got %v", o.Temperature))
	}
	if o.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("assistant.max-tokens must be positive"))
	}
	if o.HistoryLimit <= 0 || o.HistoryWindow < 0 {
		errs = append(errs, fmt.Errorf("assistant.history-limit must be positive and history-window non-negative"))
	}
	if o.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("assistant.session-ttl must not be negative"))
	}
	switch o.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("assistant.session-store %q is not supported", o.SessionStore))
	}
	return errs
}

// Complete completes the assistant options with defaults.
func (o *AssistantOptions) Complete() error {
	if o.HistoryWindow > o.HistoryLimit {
		o.HistoryWindow = o.HistoryLimit
	}
	return nil
}
