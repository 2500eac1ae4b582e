package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/rag-assistant/pkg/llm"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/httpclient"
)

// DefaultCompletionTimeout 是单次生成的超时时间。
const DefaultCompletionTimeout = 30 * time.Second

// GenerateResult 是一次生成的结果。
type GenerateResult struct {
	Text       string
	TokensUsed int
}

// Completer 生成答案，便于在测试中替换。
type Completer interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (*GenerateResult, error)
}

// CompletionClient 对 ChatProvider 的单次同步调用，不重试。
type CompletionClient struct {
	provider llm.ChatProvider
	timeout  time.Duration
}

var _ Completer = (*CompletionClient)(nil)

// NewCompletionClient 创建生成客户端，timeout <= 0 使用 DefaultCompletionTimeout。
func NewCompletionClient(provider llm.ChatProvider, timeout time.Duration) *CompletionClient {
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	return &CompletionClient{provider: provider, timeout: timeout}
}

// Generate 发送一次生成请求，失败时返回匹配 errors.ErrGenerationFailed 的错误。
func (c *CompletionClient) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (*GenerateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.provider.Chat(ctx,
		[]llm.Message{{Role: llm.RoleUser, Content: prompt}},
		llm.WithTemperature(temperature),
		llm.WithMaxTokens(maxTokens),
	)
	if err != nil {
		fields := []interface{}{"provider", c.provider.Name(), "error", err.Error()}
		var se *httpclient.StatusError
		if stderrors.As(err, &se) {
			fields = append(fields, "status", se.StatusCode, "body", se.Body)
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			fields = append(fields, "timeout", c.timeout.String())
		}
		logger.Errorw("Completion request failed", fields...)
		return nil, errors.ErrGenerationFailed.WithCause(err)
	}
	if resp == nil || resp.Content == "" {
		logger.Errorw("Completion returned an empty answer", "provider", c.provider.Name())
		return nil, errors.ErrGenerationFailed.WithCause(fmt.Errorf("empty completion from %s", c.provider.Name()))
	}

	res := &GenerateResult{Text: resp.Content}
	if resp.TokenUsage != nil {
		res.TokensUsed = resp.TokenUsage.TotalTokens
	}
	return res, nil
}
