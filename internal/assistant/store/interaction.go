package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/rag-assistant/internal/model"
)

// InteractionStats 是时间窗口内的原始聚合值。
type InteractionStats struct {
	TotalRequests    int64   `gorm:"column:total_requests"`
	AvgResponseTime  float64 `gorm:"column:avg_response_time"`
	AvgRelevance     float64 `gorm:"column:avg_relevance"`
	PositiveFeedback int64   `gorm:"column:positive_feedback"`
	NegativeFeedback int64   `gorm:"column:negative_feedback"`
	TotalFeedback    int64   `gorm:"column:total_feedback"`
}

// PopularQuestion 是按小写问题分组的计数。
type PopularQuestion struct {
	Question string `json:"question" gorm:"column:question"`
	Count    int64  `json:"count" gorm:"column:count"`
}

// InteractionStore 问答日志存储。
type InteractionStore struct {
	db *gorm.DB
}

// NewInteractionStore 创建问答日志存储并迁移表结构。
func NewInteractionStore(ctx context.Context, db *gorm.DB) (*InteractionStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&model.AIRequest{}); err != nil {
		return nil, fmt.Errorf("failed to migrate ai_requests: %w", err)
	}
	return &InteractionStore{db: db}, nil
}

// Create 写入一条记录并返回自增 id。
func (s *InteractionStore) Create(ctx context.Context, rec *model.AIRequest) (uint64, error) {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// Get 按 id 读取记录。
func (s *InteractionStore) Get(ctx context.Context, id uint64) (*model.AIRequest, error) {
	var rec model.AIRequest
	if err := s.db.WithContext(ctx).Take(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetFeedback 覆盖反馈值，id 不存在时不做任何修改。
func (s *InteractionStore) SetFeedback(ctx context.Context, id uint64, value int, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.AIRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{"feedback": value, "feedback_time": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Stats 聚合 since 之后的记录。
func (s *InteractionStore) Stats(ctx context.Context, since time.Time) (*InteractionStats, error) {
	var st InteractionStats
	err := s.db.WithContext(ctx).
		Model(&model.AIRequest{}).
		Select(`COUNT(*) AS total_requests,
			COALESCE(AVG(response_time_ms), 0) AS avg_response_time,
			COALESCE(AVG(avg_relevance), 0) AS avg_relevance,
			COALESCE(SUM(CASE WHEN feedback = 1 THEN 1 ELSE 0 END), 0) AS positive_feedback,
			COALESCE(SUM(CASE WHEN feedback = -1 THEN 1 ELSE 0 END), 0) AS negative_feedback,
			COUNT(feedback) AS total_feedback`).
		Where("timestamp >= ?", since).
		Scan(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Popular 返回 since 之后出现次数最多的问题。
// SQLite 的 LOWER 只处理 ASCII，大小写归并在内存中完成，
// 每组展示最早出现的原始写法。
func (s *InteractionStore) Popular(ctx context.Context, since time.Time, limit int) ([]PopularQuestion, error) {
	var rows []struct {
		Question string `gorm:"column:question"`
		Count    int64  `gorm:"column:count"`
		FirstID  uint64 `gorm:"column:first_id"`
	}
	err := s.db.WithContext(ctx).
		Model(&model.AIRequest{}).
		Select("question, COUNT(*) AS count, MIN(id) AS first_id").
		Where("timestamp >= ?", since).
		Group("question").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	type group struct {
		question string
		firstID  uint64
		count    int64
	}
	groups := make(map[string]*group, len(rows))
	for _, r := range rows {
		key := strings.ToLower(r.Question)
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{question: r.Question, firstID: r.FirstID, count: r.Count}
			continue
		}
		g.count += r.Count
		if r.FirstID < g.firstID {
			g.question, g.firstID = r.Question, r.FirstID
		}
	}
	out := make([]PopularQuestion, 0, len(groups))
	for _, g := range groups {
		out = append(out, PopularQuestion{Question: g.question, Count: g.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Question < out[j].Question
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LowRelevance 返回最大相关度低于 threshold 的记录，最新的在前。
func (s *InteractionStore) LowRelevance(ctx context.Context, threshold float64, limit int) ([]model.AIRequest, error) {
	var out []model.AIRequest
	err := s.db.WithContext(ctx).
		Where("max_relevance < ?", threshold).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
