package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/rag-assistant/pkg/llm"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

// DefaultEmbedBatchSize 是批量向量化的默认批大小。
const DefaultEmbedBatchSize = 32

// dimensionProbe 用于在构造时探测向量维度。
const dimensionProbe = "dimension probe"

// Embedder 将文本映射为定长向量。
type Embedder struct {
	provider  llm.EmbeddingProvider
	dimension int
	batchSize int
}

// NewEmbedder 创建 Embedder，构造时调用一次后端以获得向量维度。
func NewEmbedder(ctx context.Context, provider llm.EmbeddingProvider, batchSize int) (*Embedder, error) {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	vec, err := provider.EmbedSingle(ctx, dimensionProbe)
	if err != nil {
		return nil, errors.ErrEmbeddingFailed.WithCause(fmt.Errorf("probe %s: %w", provider.Name(), err))
	}
	if len(vec) == 0 {
		return nil, errors.ErrEmbeddingFailed.WithMessage("embedding provider returned an empty vector")
	}

	logger.Infow("Embedder initialized", "provider", provider.Name(), "dimension", len(vec))
	return &Embedder{provider: provider, dimension: len(vec), batchSize: batchSize}, nil
}

// Dimension 返回向量维度。
func (e *Embedder) Dimension() int {
	return e.dimension
}

// EmbedOne 向量化单个文本。
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.provider.EmbedSingle(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("embedding has dimension %d, expected %d", len(vec), e.dimension)
	}
	return vec, nil
}

// EmbedMany 分批向量化，输出与输入按下标对齐。batchSize <= 0 使用默认值。
func (e *Embedder) EmbedMany(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = e.batchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.provider.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed batch [%d:%d]: got %d vectors", start, end, len(vecs))
		}
		for i, v := range vecs {
			if len(v) != e.dimension {
				return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", start+i, len(v), e.dimension)
			}
		}
		out = append(out, vecs...)
		logger.Debugw("Embedded batch", "start", start, "end", end, "total", len(texts))
	}
	return out, nil
}
