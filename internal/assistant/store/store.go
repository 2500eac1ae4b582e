// Package store 提供向量索引与问答日志的持久化。
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/kart-io/rag-assistant/internal/pkg/rag/docutil"
)

// 元数据键。
const (
	MetaSource   = "source"
	MetaFileName = "file_name"
	MetaFileType = "file_type"
	MetaPage     = "page"
)

// ErrInvalidTopK 表示 topK 小于 1。
var ErrInvalidTopK = errors.New("topK must be at least 1")

// ErrLengthMismatch 表示文档块与向量数量不一致。
var ErrLengthMismatch = errors.New("chunks and embeddings length mismatch")

// Chunk 表示文档块。
type Chunk struct {
	// Text 块文本，裁剪后非空。
	Text string
	// SourcePath 来源文件路径。
	SourcePath string
	// Index 块在来源文件内的序号，从 0 递增。
	Index int
	// Page 页码，从 1 开始，0 表示无页码。
	Page int
	// Metadata 附加元数据。
	Metadata map[string]string
}

// RetrievalResult 表示检索结果。
type RetrievalResult struct {
	// Text 块文本。
	Text string
	// SourceFile 来源文件名。
	SourceFile string
	// Page 页码，0 表示无页码。
	Page int
	// Score 余弦相似度，越高越相关。
	Score float64
	// Metadata 元数据。
	Metadata map[string]string
}

// VectorIndex 定义向量索引接口。
type VectorIndex interface {
	// Add 批量写入文档块，已存在的 id 被忽略。
	Add(ctx context.Context, chunks []Chunk, embeddings [][]float32) error

	// Search 按相似度降序返回至多 topK 条结果。
	Search(ctx context.Context, vector []float32, topK int) ([]RetrievalResult, error)

	// Count 返回已索引的块数。
	Count(ctx context.Context) (int64, error)

	// DeleteSource 删除来源文件的全部块，返回删除数量。
	DeleteSource(ctx context.Context, sourcePath string) (int64, error)

	// Clear 删除并重建同名集合。
	Clear(ctx context.Context) error

	// Close 释放资源。
	Close() error
}

// PassageID 返回块的稳定标识 {stem}_chunk_{index}，index 为文件内序号。
func PassageID(sourcePath string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", docutil.Stem(sourcePath), index)
}

// passageMetadata 合并 loader 元数据与标准字段。
func passageMetadata(c Chunk) map[string]string {
	md := make(map[string]string, len(c.Metadata)+3)
	for k, v := range c.Metadata {
		md[k] = v
	}
	md[MetaSource] = c.SourcePath
	if _, ok := md[MetaFileName]; !ok {
		md[MetaFileName] = fileName(c.SourcePath)
	}
	if c.Page > 0 {
		md[MetaPage] = strconv.Itoa(c.Page)
	} else {
		delete(md, MetaPage)
	}
	return md
}

func checkAdd(chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks, %d embeddings", ErrLengthMismatch, len(chunks), len(embeddings))
	}
	return nil
}

func fileName(path string) string {
	return filepath.Base(path)
}
