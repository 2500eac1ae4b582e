package biz

import (
	"context"
	"math"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/rag-assistant/internal/assistant/store"
	"github.com/kart-io/rag-assistant/internal/model"
	"github.com/kart-io/rag-assistant/internal/pkg/rag/textutil"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

// 报表默认值。
const (
	DefaultStatsDays         = 7
	DefaultPopularLimit      = 10
	DefaultLowRelevanceLimit = 20
	popularWindow            = 30 * 24 * time.Hour
	lowRelevancePreview      = 100
)

// LogResult 是一次日志写入的结果，调用方检查但不上抛。
type LogResult struct {
	RequestID uint64
	Err       error
}

// OK 表示写入成功。
func (r LogResult) OK() bool {
	return r.Err == nil
}

// Stats 是问答质量统计。
type Stats struct {
	PeriodDays        int     `json:"period_days"`
	TotalRequests     int64   `json:"total_requests"`
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`
	AvgRelevance      float64 `json:"avg_relevance"`
	PositiveFeedback  int64   `json:"positive_feedback"`
	NegativeFeedback  int64   `json:"negative_feedback"`
	TotalFeedback     int64   `json:"total_feedback"`
	FeedbackRate      float64 `json:"feedback_rate"`
}

// LowRelevanceRequest 是相关度不足的一条请求。
type LowRelevanceRequest struct {
	ID           uint64    `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	MaxRelevance float64   `json:"max_relevance"`
	Timestamp    time.Time `json:"timestamp"`
}

// InteractionLogger 记录问答与反馈并提供监控查询。
type InteractionLogger struct {
	store *store.InteractionStore
	now   func() time.Time
}

// NewInteractionLogger 创建问答日志记录器。
func NewInteractionLogger(s *store.InteractionStore) *InteractionLogger {
	return &InteractionLogger{store: s, now: time.Now}
}

// LogRequest 写入一条问答记录，失败只体现在结果中。
func (l *InteractionLogger) LogRequest(ctx context.Context, rec *model.AIRequest) LogResult {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now()
	}
	id, err := l.store.Create(ctx, rec)
	if err != nil {
		return LogResult{Err: err}
	}
	return LogResult{RequestID: id}
}

// LogFeedback 覆盖请求的反馈值，value 只能为 1 或 -1。
func (l *InteractionLogger) LogFeedback(ctx context.Context, requestID uint64, value int) error {
	if value != 1 && value != -1 {
		return errors.ErrInvalidFeedback
	}
	found, err := l.store.SetFeedback(ctx, requestID, value, l.now())
	if err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	if !found {
		logger.Warnw("Feedback for unknown request ignored", "request_id", requestID, "value", value)
	}
	return nil
}

// Stats 返回最近 days 天的统计，days <= 0 使用默认值。
func (l *InteractionLogger) Stats(ctx context.Context, days int) (*Stats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}
	raw, err := l.store.Stats(ctx, l.now().Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, errors.ErrStatsUnavailable.WithCause(err)
	}

	total := raw.TotalRequests
	if total < 1 {
		total = 1
	}
	return &Stats{
		PeriodDays:        days,
		TotalRequests:     raw.TotalRequests,
		AvgResponseTimeMS: round(raw.AvgResponseTime, 2),
		AvgRelevance:      round(raw.AvgRelevance, 3),
		PositiveFeedback:  raw.PositiveFeedback,
		NegativeFeedback:  raw.NegativeFeedback,
		TotalFeedback:     raw.TotalFeedback,
		FeedbackRate:      round(float64(raw.TotalFeedback)/float64(total)*100, 1),
	}, nil
}

// PopularQuestions 返回最近 30 天最常见的问题。
func (l *InteractionLogger) PopularQuestions(ctx context.Context, limit int) ([]store.PopularQuestion, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	out, err := l.store.Popular(ctx, l.now().Add(-popularWindow), limit)
	if err != nil {
		return nil, errors.ErrStatsUnavailable.WithCause(err)
	}
	return out, nil
}

// LowRelevanceRequests 返回最大相关度低于 threshold 的请求，最新的在前。
func (l *InteractionLogger) LowRelevanceRequests(ctx context.Context, threshold float64, limit int) ([]LowRelevanceRequest, error) {
	if limit <= 0 {
		limit = DefaultLowRelevanceLimit
	}
	rows, err := l.store.LowRelevance(ctx, threshold, limit)
	if err != nil {
		return nil, errors.ErrStatsUnavailable.WithCause(err)
	}

	out := make([]LowRelevanceRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, LowRelevanceRequest{
			ID:           r.ID,
			Question:     r.Question,
			Answer:       textutil.Preview(r.Answer, lowRelevancePreview),
			MaxRelevance: r.MaxRelevance,
			Timestamp:    r.Timestamp,
		})
	}
	return out, nil
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
