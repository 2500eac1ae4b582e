// Package model provides the persistent data models of the assistant.
package model

import (
	"time"
)

// Passage is one indexed chunk of the embedded vector index.
type Passage struct {
	Collection string    `json:"collection" gorm:"primaryKey;type:varchar(255)"`
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(512)"`
	Seq        int64     `json:"seq" gorm:"index;not null"` // insertion order within the collection
	Text       string    `json:"text" gorm:"type:text;not null"`
	Source     string    `json:"source" gorm:"type:varchar(1024);index"`
	FileName   string    `json:"file_name" gorm:"type:varchar(512)"`
	Page       int       `json:"page" gorm:"default:0"` // 0 means no page
	Metadata   string    `json:"metadata" gorm:"type:text"`
	Embedding  []byte    `json:"-" gorm:"not null"` // little-endian float32
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Passage.
func (Passage) TableName() string {
	return "rag_passages"
}

// Collection records a named vector collection and its dimension.
type Collection struct {
	Name      string    `json:"name" gorm:"primaryKey;type:varchar(255)"`
	Dimension int       `json:"dimension" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Collection.
func (Collection) TableName() string {
	return "rag_collections"
}
