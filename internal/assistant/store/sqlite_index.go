package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kart-io/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kart-io/rag-assistant/internal/model"
	"github.com/kart-io/rag-assistant/internal/pkg/rag/textutil"
	"github.com/kart-io/rag-assistant/pkg/utils/json"
)

// DefaultBatchSize 是写入时每批的块数。
const DefaultBatchSize = 100

// SQLiteIndexConfig SQLite 向量索引配置。
type SQLiteIndexConfig struct {
	// Collection 集合名称。
	Collection string
	// BatchSize 每批写入的块数。
	BatchSize int
}

type entry struct {
	id       string
	source   string
	text     string
	fileName string
	page     int
	metadata map[string]string
	vector   []float32
}

// SQLiteIndex 基于 gorm 的持久化向量索引。
// 集合在内存中保留一份镜像，检索为暴力余弦计算。
type SQLiteIndex struct {
	db     *gorm.DB
	config *SQLiteIndexConfig

	mu        sync.RWMutex
	entries   []entry
	ids       map[string]struct{}
	dimension int
	nextSeq   int64
}

var _ VectorIndex = (*SQLiteIndex)(nil)

// NewSQLiteIndex 打开已有集合或创建新集合。
func NewSQLiteIndex(ctx context.Context, db *gorm.DB, config *SQLiteIndexConfig) (*SQLiteIndex, error) {
	if config == nil || config.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&model.Collection{}, &model.Passage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate vector tables: %w", err)
	}

	idx := &SQLiteIndex{
		db:     db,
		config: config,
		ids:    make(map[string]struct{}),
	}

	var coll model.Collection
	err := db.Where("name = ?", config.Collection).Take(&coll).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&model.Collection{Name: config.Collection}).Error; err != nil {
			return nil, fmt.Errorf("failed to create collection: %w", err)
		}
		logger.Infow("Created vector collection", "collection", config.Collection, "backend", "sqlite")
		return idx, nil
	case err != nil:
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	if err := idx.load(ctx); err != nil {
		return nil, err
	}
	idx.dimension = coll.Dimension
	logger.Infow("Opened vector collection",
		"collection", config.Collection,
		"backend", "sqlite",
		"passages", len(idx.entries),
	)
	return idx, nil
}

func (s *SQLiteIndex) load(ctx context.Context) error {
	var rows []model.Passage
	err := s.db.WithContext(ctx).
		Where("collection = ?", s.config.Collection).
		Order("seq").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to load passages: %w", err)
	}

	for _, row := range rows {
		vec, err := textutil.DecodeVector(row.Embedding)
		if err != nil {
			return fmt.Errorf("passage %s: %w", row.ID, err)
		}
		md := map[string]string{}
		if row.Metadata != "" {
			if err := json.Unmarshal([]byte(row.Metadata), &md); err != nil {
				return fmt.Errorf("passage %s metadata: %w", row.ID, err)
			}
		}
		s.entries = append(s.entries, entry{
			id:       row.ID,
			source:   row.Source,
			text:     row.Text,
			fileName: row.FileName,
			page:     row.Page,
			metadata: md,
			vector:   vec,
		})
		s.ids[row.ID] = struct{}{}
		if row.Seq >= s.nextSeq {
			s.nextSeq = row.Seq + 1
		}
	}
	return nil
}

// Add 批量写入文档块。
func (s *SQLiteIndex) Add(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if err := checkAdd(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		logger.Warnw("No chunks to add", "collection", s.config.Collection)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	rows := make([]model.Passage, 0, len(chunks))
	added := make([]entry, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	seq := s.nextSeq
	for i, c := range chunks {
		vec := embeddings[i]
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return fmt.Errorf("embedding %d has dimension %d, collection expects %d", i, len(vec), dim)
		}

		id := PassageID(c.SourcePath, c.Index)
		if _, ok := s.ids[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		md := passageMetadata(c)
		mdJSON, err := json.MarshalString(md)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		rows = append(rows, model.Passage{
			Collection: s.config.Collection,
			ID:         id,
			Seq:        seq,
			Text:       c.Text,
			Source:     c.SourcePath,
			FileName:   md[MetaFileName],
			Page:       c.Page,
			Metadata:   mdJSON,
			Embedding:  textutil.EncodeVector(vec),
		})
		added = append(added, entry{
			id:       id,
			source:   c.SourcePath,
			text:     c.Text,
			fileName: md[MetaFileName],
			page:     c.Page,
			metadata: md,
			vector:   vec,
		})
		seq++
	}

	if len(rows) == 0 {
		logger.Infow("All chunks already indexed", "collection", s.config.Collection, "chunks", len(chunks))
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.dimension == 0 {
			if err := tx.Model(&model.Collection{}).
				Where("name = ?", s.config.Collection).
				Update("dimension", dim).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(rows, s.config.BatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert passages: %w", err)
	}

	s.dimension = dim
	s.nextSeq = seq
	s.entries = append(s.entries, added...)
	for _, e := range added {
		s.ids[e.id] = struct{}{}
	}

	logger.Infow("Added passages",
		"collection", s.config.Collection,
		"added", len(added),
		"skipped", len(chunks)-len(added),
		"total", len(s.entries),
	)
	return nil
}

// Search 按余弦相似度降序返回至多 topK 条结果。
func (s *SQLiteIndex) Search(_ context.Context, vector []float32, topK int) ([]RetrievalResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return []RetrievalResult{}, nil
	}
	if s.dimension > 0 && len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, collection expects %d", len(vector), s.dimension)
	}

	type scored struct {
		idx   int
		score float64
	}
	hits := make([]scored, len(s.entries))
	for i := range s.entries {
		hits[i] = scored{idx: i, score: textutil.CosineSimilarity(vector, s.entries[i].vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if topK > len(hits) {
		topK = len(hits)
	}
	out := make([]RetrievalResult, 0, topK)
	for _, h := range hits[:topK] {
		e := s.entries[h.idx]
		md := make(map[string]string, len(e.metadata))
		for k, v := range e.metadata {
			md[k] = v
		}
		out = append(out, RetrievalResult{
			Text:       e.text,
			SourceFile: e.fileName,
			Page:       e.page,
			Score:      h.score,
			Metadata:   md,
		})
	}
	return out, nil
}

// Count 返回集合中的块数。
func (s *SQLiteIndex) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// DeleteSource 删除来源文件的全部块。
func (s *SQLiteIndex) DeleteSource(ctx context.Context, sourcePath string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).
		Where("collection = ? AND source = ?", s.config.Collection, sourcePath).
		Delete(&model.Passage{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete passages of %s: %w", sourcePath, res.Error)
	}

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.source == sourcePath {
			delete(s.ids, e.id)
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	if res.RowsAffected > 0 {
		logger.Infow("Deleted passages",
			"collection", s.config.Collection,
			"source", sourcePath,
			"deleted", res.RowsAffected,
			"total", len(s.entries),
		)
	}
	return res.RowsAffected, nil
}

// Clear 删除并重建同名集合。
func (s *SQLiteIndex) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", s.config.Collection).Delete(&model.Passage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("name = ?", s.config.Collection).Delete(&model.Collection{}).Error; err != nil {
			return err
		}
		return tx.Create(&model.Collection{Name: s.config.Collection}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	s.entries = nil
	s.ids = make(map[string]struct{})
	s.dimension = 0
	s.nextSeq = 0
	logger.Infow("Cleared vector collection", "collection", s.config.Collection, "backend", "sqlite")
	return nil
}

// Close 释放内存镜像，数据库连接由调用方关闭。
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.ids = make(map[string]struct{})
	return nil
}
