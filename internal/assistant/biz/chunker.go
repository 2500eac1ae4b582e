package biz

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/kart-io/rag-assistant/internal/assistant/store"
	"github.com/kart-io/rag-assistant/internal/pkg/rag/docutil"
	"github.com/kart-io/rag-assistant/internal/pkg/rag/textutil"
)

// 默认切分参数。
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunker 将抽取后的文档切分为文档块。
type Chunker struct {
	size    int
	overlap int
}

// NewChunker 创建切分器，要求 size > 0 且 0 <= overlap < size。
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// SplitText 按字符滑动窗口切分文本。
func (c *Chunker) SplitText(text string) []string {
	// 参数已在构造时校验
	parts, _ := textutil.SplitText(text, c.size, c.overlap)
	return parts
}

// ChunkDocument 切分一个已抽取的文档。
// 分页文档逐页切分并记录页码，其余文档整体切分。
func (c *Chunker) ChunkDocument(doc *docutil.Document) []store.Chunk {
	name := filepath.Base(doc.Path)
	var chunks []store.Chunk
	for _, page := range doc.Pages {
		for _, text := range c.SplitText(page.Text) {
			md := map[string]string{
				store.MetaSource:   doc.Path,
				store.MetaFileName: name,
				store.MetaFileType: doc.FileType,
			}
			if page.Number > 0 {
				md[store.MetaPage] = strconv.Itoa(page.Number)
			}
			chunks = append(chunks, store.Chunk{
				Text:       text,
				SourcePath: doc.Path,
				Index:      len(chunks),
				Page:       page.Number,
				Metadata:   md,
			})
		}
	}
	return chunks
}

// ChunkFile 抽取并切分单个文件。
func (c *Chunker) ChunkFile(path string) ([]store.Chunk, error) {
	doc, err := docutil.Load(path)
	if err != nil {
		return nil, err
	}
	return c.ChunkDocument(doc), nil
}
