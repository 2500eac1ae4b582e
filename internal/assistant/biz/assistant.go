package biz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/rag-assistant/internal/assistant/metrics"
	"github.com/kart-io/rag-assistant/internal/assistant/store"
	"github.com/kart-io/rag-assistant/internal/model"
	"github.com/kart-io/rag-assistant/internal/pkg/rag/textutil"
	"github.com/kart-io/rag-assistant/pkg/infra/tracing"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/json"
)

const tracerName = "github.com/kart-io/rag-assistant/internal/assistant/biz"

// NoInformationMarker 是未调用大模型时写入日志的答案。
const NoInformationMarker = "[no-information]"

const sourcePreviewLen = 200

// AssistantConfig 问答配置。
type AssistantConfig struct {
	// RelevanceThreshold 最高相关度低于该值时不调用大模型，等于时放行。
	RelevanceThreshold float64
	// TopK 检索片段数量。
	TopK int
	// Temperature 请求未指定时的采样温度。
	Temperature float64
	// MaxTokens 生成的最大 token 数。
	MaxTokens int
	// HistoryWindow 写入提示词的最近对话条数。
	HistoryWindow int
}

// DefaultAssistantConfig 返回默认配置。
func DefaultAssistantConfig() *AssistantConfig {
	return &AssistantConfig{
		RelevanceThreshold: 0.6,
		TopK:               10,
		Temperature:        0.6,
		MaxTokens:          2000,
		HistoryWindow:      6,
	}
}

// Validate 校验配置。
func (c *AssistantConfig) Validate() error {
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("relevance threshold must be within [0, 1], got %v", c.RelevanceThreshold)
	}
	if c.TopK < 1 {
		return fmt.Errorf("topK must be at least 1, got %d", c.TopK)
	}
	return nil
}

// InteractionRecorder 记录问答与反馈。
type InteractionRecorder interface {
	LogRequest(ctx context.Context, rec *model.AIRequest) LogResult
	LogFeedback(ctx context.Context, requestID uint64, value int) error
}

// Source 是答案引用的一个片段。
type Source = model.SourceRef

// AskRequest 是一次提问。
type AskRequest struct {
	Question string
	// History 会话历史，只用于提示词，不参与检索。
	History []Turn
	// Temperature 为 nil 时使用配置的默认值。
	Temperature *float64
	UserID      int64
	Username    string
}

// Answer 是一次提问的结果。
type Answer struct {
	Answer        string   `json:"answer"`
	Sources       []Source `json:"sources"`
	RequestID     uint64   `json:"request_id"`
	NoInformation bool     `json:"no_information"`
	TopScore      float64  `json:"top_score"`
	ContextLength int      `json:"context_length"`
	TokensUsed    int      `json:"tokens_used"`
}

// Assistant 编排一次问答：预处理、检索、相关度门控、生成、记录。
type Assistant struct {
	query     *QueryProcessor
	retriever *Retriever
	completer Completer
	recorder  InteractionRecorder
	prompt    *PromptTemplate
	config    *AssistantConfig
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewAssistant 创建问答编排器。
func NewAssistant(
	query *QueryProcessor,
	retriever *Retriever,
	completer Completer,
	recorder InteractionRecorder,
	prompt *PromptTemplate,
	config *AssistantConfig,
) (*Assistant, error) {
	if config == nil {
		config = DefaultAssistantConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ErrConfig.WithCause(err)
	}
	if prompt == nil {
		prompt = DefaultPromptTemplate()
	}
	return &Assistant{
		query:     query,
		retriever: retriever,
		completer: completer,
		recorder:  recorder,
		prompt:    prompt,
		config:    config,
		metrics:   metrics.GetMetrics(),
		now:       time.Now,
	}, nil
}

// Ask 回答一个问题。
func (a *Assistant) Ask(ctx context.Context, req *AskRequest) (*Answer, error) {
	start := a.now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "assistant.Ask")
	defer span.End()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, errors.ErrInvalidRequest.WithMessage("question must not be empty")
	}

	// 1. 预处理
	processed := a.query.Process(question)
	if processed != question {
		logger.Debugw("Question normalized", "question", question, "processed", processed)
	}

	// 2. 检索
	results, err := a.retrieve(ctx, processed)
	if err != nil {
		tracing.RecordError(ctx, err)
		a.metrics.ObserveAsk(metrics.OutcomeRetrievalFailed, a.now().Sub(start))
		logger.Errorw("Retrieval failed", "question", question, "error", err.Error())
		return nil, errors.ErrRetrievalFailed.WithCause(err)
	}

	sources := buildSources(results)
	maxScore, minScore, avgScore := scoreStats(results)
	span.SetAttributes(
		attribute.Int("assistant.results", len(results)),
		attribute.Float64("assistant.top_score", maxScore),
	)
	if len(results) > 0 {
		a.metrics.TopScore.Observe(maxScore)
	}

	rec := &model.AIRequest{
		UserID:         req.UserID,
		Username:       req.Username,
		Question:       question,
		Timestamp:      start,
		DocumentsFound: len(results),
		AvgRelevance:   avgScore,
		MaxRelevance:   maxScore,
		MinRelevance:   minScore,
		Sources:        encodeSources(sources),
	}

	// 3. 相关度门控
	if len(results) == 0 || maxScore < a.config.RelevanceThreshold {
		span.SetAttributes(attribute.Bool("assistant.no_information", true))
		logger.Infow("No relevant documents, skipping generation",
			"question", question,
			"results", len(results),
			"top_score", maxScore,
			"threshold", a.config.RelevanceThreshold,
		)
		rec.Answer = NoInformationMarker
		rec.ResponseTimeMS = a.now().Sub(start).Milliseconds()
		ans := &Answer{
			Answer:        NoInformationText,
			Sources:       []Source{},
			NoInformation: true,
			TopScore:      maxScore,
			RequestID:     a.logRequest(ctx, rec),
		}
		a.metrics.ObserveAsk(metrics.OutcomeNoInformation, a.now().Sub(start))
		return ans, nil
	}

	// 4-6. 组装上下文、历史与提示词
	docContext := AssembleContext(results)
	transcript := RenderTranscript(lastTurns(req.History, a.config.HistoryWindow))
	prompt, err := a.prompt.Render(PromptData{
		Context:  docContext,
		History:  transcript,
		Question: question,
	})
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, errors.ErrInternal.WithCause(err)
	}

	// 7. 生成
	temperature := a.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	gen, err := a.generate(ctx, prompt, temperature)
	if err != nil {
		tracing.RecordError(ctx, err)
		a.metrics.ObserveAsk(metrics.OutcomeGenerationFailed, a.now().Sub(start))
		logger.Errorw("Answer generation failed", "question", question, "error", err.Error())
		return nil, err
	}

	// 8. 记录并返回
	contextLength := utf8.RuneCountInString(docContext)
	rec.Answer = gen.Text
	rec.ContextLength = contextLength
	rec.TokensUsed = gen.TokensUsed
	rec.ResponseTimeMS = a.now().Sub(start).Milliseconds()

	ans := &Answer{
		Answer:        gen.Text,
		Sources:       sources,
		TopScore:      maxScore,
		ContextLength: contextLength,
		TokensUsed:    gen.TokensUsed,
		RequestID:     a.logRequest(ctx, rec),
	}
	a.metrics.ObserveAsk(metrics.OutcomeAnswered, a.now().Sub(start))
	logger.Infow("Question answered",
		"request_id", ans.RequestID,
		"sources", len(sources),
		"top_score", maxScore,
		"context_length", contextLength,
		"duration_ms", rec.ResponseTimeMS,
	)
	return ans, nil
}

func (a *Assistant) retrieve(ctx context.Context, question string) ([]store.RetrievalResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "assistant.Retrieve",
		trace.WithAttributes(attribute.Int("assistant.top_k", a.config.TopK)))
	defer span.End()

	start := time.Now()
	results, err := a.retriever.Retrieve(ctx, question, a.config.TopK)
	a.metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		tracing.RecordError(ctx, err)
	}
	return results, err
}

func (a *Assistant) generate(ctx context.Context, prompt string, temperature float64) (*GenerateResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "assistant.Generate",
		trace.WithAttributes(
			attribute.Float64("assistant.temperature", temperature),
			attribute.Int("assistant.max_tokens", a.config.MaxTokens),
		))
	defer span.End()

	start := time.Now()
	res, err := a.completer.Generate(ctx, prompt, temperature, a.config.MaxTokens)
	a.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return res, nil
}

// logRequest 写入日志，失败只记录告警并返回 0。
func (a *Assistant) logRequest(ctx context.Context, rec *model.AIRequest) uint64 {
	res := a.recorder.LogRequest(ctx, rec)
	if !res.OK() {
		a.metrics.LogFailures.Inc()
		logger.Warnw("Failed to log interaction", "question", rec.Question, "error", res.Err.Error())
		return 0
	}
	return res.RequestID
}

// RecordFeedback 记录用户反馈，value 只能为 1 或 -1，重复评价以最后一次为准。
func (a *Assistant) RecordFeedback(ctx context.Context, requestID uint64, value int) error {
	if err := a.recorder.LogFeedback(ctx, requestID, value); err != nil {
		return err
	}
	a.metrics.ObserveFeedback(value)
	logger.Infow("Feedback recorded", "request_id", requestID, "value", value)
	return nil
}

// AssembleContext 按排名渲染检索结果。
func AssembleContext(results []store.RetrievalResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		page := "N/A"
		if r.Page > 0 {
			page = strconv.Itoa(r.Page)
		}
		parts = append(parts, fmt.Sprintf("[ДОКУМЕНТ %d]\nИсточник: %s\nСтраница: %s\nТекст:\n%s\n",
			i+1, r.SourceFile, page, r.Text))
	}
	return strings.Join(parts, "\n")
}

func buildSources(results []store.RetrievalResult) []Source {
	out := make([]Source, 0, len(results))
	for _, r := range results {
		out = append(out, Source{
			FileName:    r.SourceFile,
			Page:        r.Page,
			Score:       r.Score,
			TextPreview: textutil.Preview(r.Text, sourcePreviewLen),
		})
	}
	return out
}

func encodeSources(sources []Source) string {
	s, err := json.MarshalString(sources)
	if err != nil {
		logger.Warnw("Failed to encode sources", "error", err.Error())
		return "[]"
	}
	return s
}

func scoreStats(results []store.RetrievalResult) (maxScore, minScore, avg float64) {
	if len(results) == 0 {
		return 0, 0, 0
	}
	maxScore, minScore = results[0].Score, results[0].Score
	var sum float64
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
		if r.Score < minScore {
			minScore = r.Score
		}
		sum += r.Score
	}
	return maxScore, minScore, sum / float64(len(results))
}
