package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/kart-io/logger"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/rag-assistant/pkg/component/milvus"
	"github.com/kart-io/rag-assistant/pkg/utils/json"
)

const (
	fieldText     = "text"
	fieldSource   = "source"
	fieldFileName = "file_name"
	fieldPage     = "page"
	fieldMetadata = "metadata"
)

var milvusOutputFields = []string{fieldText, fieldSource, fieldFileName, fieldPage, fieldMetadata}

// MilvusIndexConfig Milvus 向量索引配置。
type MilvusIndexConfig struct {
	// Collection 集合名称。
	Collection string
	// Dimension 向量维度。
	Dimension int
	// BatchSize 每批写入的块数。
	BatchSize int
}

// MilvusIndex 基于 Milvus 的向量索引。
type MilvusIndex struct {
	client *milvus.Client
	config *MilvusIndexConfig
	mu     sync.RWMutex
}

var _ VectorIndex = (*MilvusIndex)(nil)

// NewMilvusIndex 打开已有集合或创建新集合。
func NewMilvusIndex(ctx context.Context, client *milvus.Client, config *MilvusIndexConfig) (*MilvusIndex, error) {
	if config == nil || config.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", config.Dimension)
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	idx := &MilvusIndex{client: client, config: config}
	if err := idx.ensure(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (m *MilvusIndex) schema() *milvus.CollectionSchema {
	return &milvus.CollectionSchema{
		Name:        m.config.Collection,
		Description: "document passages",
		Dimension:   m.config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: fieldText, DataType: entity.FieldTypeVarChar, MaxLen: 65535},
			{Name: fieldSource, DataType: entity.FieldTypeVarChar, MaxLen: 1024},
			{Name: fieldFileName, DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: fieldPage, DataType: entity.FieldTypeInt64},
			{Name: fieldMetadata, DataType: entity.FieldTypeVarChar, MaxLen: 8192},
		},
	}
}

func (m *MilvusIndex) ensure(ctx context.Context) error {
	created, err := m.client.EnsureCollection(ctx, m.schema())
	if err != nil {
		return fmt.Errorf("failed to open collection %s: %w", m.config.Collection, err)
	}
	if created {
		logger.Infow("Created vector collection", "collection", m.config.Collection, "backend", "milvus")
	} else {
		logger.Infow("Opened vector collection", "collection", m.config.Collection, "backend", "milvus")
	}
	return nil
}

// Add 批量写入文档块，Milvus 不对主键去重，写入前先查询已存在的 id。
func (m *MilvusIndex) Add(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if err := checkAdd(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		logger.Warnw("No chunks to add", "collection", m.config.Collection)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	inserted := make(map[string]struct{}, len(chunks))
	for _, r := range batchRanges(len(chunks), m.config.BatchSize) {
		n, err := m.insertBatch(ctx, chunks[r[0]:r[1]], embeddings[r[0]:r[1]], inserted)
		if err != nil {
			return err
		}
		added += n
	}

	if added > 0 {
		if err := m.client.Flush(ctx, m.config.Collection); err != nil {
			return err
		}
	}
	logger.Infow("Added passages",
		"collection", m.config.Collection,
		"added", added,
		"skipped", len(chunks)-added,
	)
	return nil
}

// batchRanges 将 [0, n) 按 size 切成半开区间。
func batchRanges(n, size int) [][2]int {
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// insertBatch 写入一批块，inserted 记录本次 Add 已写入但尚未 flush 的 id。
func (m *MilvusIndex) insertBatch(ctx context.Context, chunks []Chunk, embeddings [][]float32, inserted map[string]struct{}) (int, error) {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = PassageID(c.SourcePath, c.Index)
	}
	existing, err := m.client.ExistingIDs(ctx, m.config.Collection, ids)
	if err != nil {
		return 0, err
	}
	for id := range inserted {
		existing[id] = struct{}{}
	}

	b, err := newMilvusBatch(chunks, embeddings, existing, m.config.Dimension)
	if err != nil {
		return 0, err
	}
	if len(b.ids) == 0 {
		return 0, nil
	}
	if err := m.client.Insert(ctx, m.config.Collection, b.columns(m.config.Dimension)...); err != nil {
		return 0, err
	}
	for _, id := range b.ids {
		inserted[id] = struct{}{}
	}
	return len(b.ids), nil
}

// milvusBatch 是一批待写入的列数据。
type milvusBatch struct {
	ids, texts, sources, names, metas []string
	pages                             []int64
	vectors                           [][]float32
}

// newMilvusBatch 跳过 existing 中已有以及批内重复的 id。
func newMilvusBatch(chunks []Chunk, embeddings [][]float32, existing map[string]struct{}, dim int) (*milvusBatch, error) {
	seen := make(map[string]struct{}, len(existing)+len(chunks))
	for id := range existing {
		seen[id] = struct{}{}
	}

	b := &milvusBatch{}
	for i, c := range chunks {
		id := PassageID(c.SourcePath, c.Index)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if len(embeddings[i]) != dim {
			return nil, fmt.Errorf("embedding for %s has dimension %d, collection expects %d", id, len(embeddings[i]), dim)
		}
		md := passageMetadata(c)
		mdJSON, err := json.MarshalString(md)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}

		b.ids = append(b.ids, id)
		b.texts = append(b.texts, c.Text)
		b.sources = append(b.sources, c.SourcePath)
		b.names = append(b.names, md[MetaFileName])
		b.pages = append(b.pages, int64(c.Page))
		b.metas = append(b.metas, mdJSON)
		b.vectors = append(b.vectors, embeddings[i])
	}
	return b, nil
}

func (b *milvusBatch) columns(dim int) []column.Column {
	return []column.Column{
		column.NewColumnVarChar(milvus.FieldID, b.ids),
		column.NewColumnFloatVector(milvus.FieldEmbedding, dim, b.vectors),
		column.NewColumnVarChar(fieldText, b.texts),
		column.NewColumnVarChar(fieldSource, b.sources),
		column.NewColumnVarChar(fieldFileName, b.names),
		column.NewColumnInt64(fieldPage, b.pages),
		column.NewColumnVarChar(fieldMetadata, b.metas),
	}
}

// Search 按余弦相似度降序返回至多 topK 条结果。
func (m *MilvusIndex) Search(ctx context.Context, vector []float32, topK int) ([]RetrievalResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits, err := m.client.Search(ctx, m.config.Collection, vector, topK, milvusOutputFields)
	if err != nil {
		return nil, err
	}

	out := make([]RetrievalResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, resultFromFields(h.Score, h.Fields))
	}
	return out, nil
}

func resultFromFields(score float32, fields map[string]any) RetrievalResult {
	r := RetrievalResult{Score: float64(score), Metadata: map[string]string{}}
	if v, ok := fields[fieldText].(string); ok {
		r.Text = v
	}
	if v, ok := fields[fieldFileName].(string); ok {
		r.SourceFile = v
	}
	if v, ok := fields[fieldPage].(int64); ok {
		r.Page = int(v)
	}
	if v, ok := fields[fieldMetadata].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &r.Metadata); err != nil {
			logger.Warnw("Failed to decode passage metadata", "error", err.Error())
		}
	}
	if v, ok := fields[fieldSource].(string); ok {
		r.Metadata[MetaSource] = v
	}
	if r.Page > 0 {
		r.Metadata[MetaPage] = strconv.Itoa(r.Page)
	}
	return r
}

// Count 返回集合中的块数。
func (m *MilvusIndex) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client.Count(ctx, m.config.Collection)
}

// DeleteSource 删除来源文件的全部块。
func (m *MilvusIndex) DeleteSource(ctx context.Context, sourcePath string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.client.DeleteByFilter(ctx, m.config.Collection, sourceFilter(sourcePath))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Infow("Deleted passages", "collection", m.config.Collection, "source", sourcePath, "deleted", n)
	}
	return n, nil
}

func sourceFilter(sourcePath string) string {
	return fieldSource + " == " + strconv.Quote(sourcePath)
}

// Clear 删除并重建同名集合。
func (m *MilvusIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.client.DropCollection(ctx, m.config.Collection); err != nil {
		return err
	}
	logger.Infow("Dropped vector collection", "collection", m.config.Collection, "backend", "milvus")
	return m.ensure(ctx)
}

// Close 关闭 Milvus 连接。
func (m *MilvusIndex) Close() error {
	return m.client.Close(context.Background())
}
