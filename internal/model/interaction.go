package model

import (
	"time"
)

// AIRequest is one answered question together with its retrieval quality
// and optional user feedback.
type AIRequest struct {
	ID             uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         int64      `json:"user_id" gorm:"index:idx_ai_requests_user_id"`
	Username       string     `json:"username" gorm:"type:varchar(255)"`
	Question       string     `json:"question" gorm:"type:text;not null"`
	Answer         string     `json:"answer" gorm:"type:text"`
	Timestamp      time.Time  `json:"timestamp" gorm:"index:idx_ai_requests_timestamp;not null"`
	ResponseTimeMS int64      `json:"response_time_ms"`
	DocumentsFound int        `json:"documents_found"`
	AvgRelevance   float64    `json:"avg_relevance"`
	MaxRelevance   float64    `json:"max_relevance"`
	MinRelevance   float64    `json:"min_relevance"`
	Feedback       *int       `json:"feedback,omitempty" gorm:"index:idx_ai_requests_feedback"` // +1 / -1
	FeedbackTime   *time.Time `json:"feedback_time,omitempty"`
	Sources        string     `json:"sources" gorm:"type:text"` // JSON
	ContextLength  int        `json:"context_length"`
	TokensUsed     int        `json:"tokens_used"`
}

// TableName specifies the table name for AIRequest.
func (AIRequest) TableName() string {
	return "ai_requests"
}

// SourceRef is one entry of the sources column.
type SourceRef struct {
	FileName    string  `json:"file_name"`
	Page        int     `json:"page,omitempty"`
	Score       float64 `json:"score"`
	TextPreview string  `json:"text_preview"`
}
