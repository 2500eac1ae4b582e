package biz

import (
	"context"

	"github.com/kart-io/rag-assistant/internal/assistant/store"
)

// Retriever 负责向量检索。
type Retriever struct {
	embedder *Embedder
	index    store.VectorIndex
}

// NewRetriever 创建检索器实例。
func NewRetriever(embedder *Embedder, index store.VectorIndex) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve 向量化问题并检索，错误原样返回。
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]store.RetrievalResult, error) {
	vec, err := r.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, err
	}
	return r.index.Search(ctx, vec, topK)
}
