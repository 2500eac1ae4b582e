package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/rag-assistant/internal/assistant/metrics"
	"github.com/kart-io/rag-assistant/internal/assistant/store"
	"github.com/kart-io/rag-assistant/internal/pkg/rag/docutil"
	"github.com/kart-io/rag-assistant/pkg/infra/pool"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
)

// IngestReport 是一次导入的结果。
type IngestReport struct {
	Files        int      `json:"files"`
	Skipped      int      `json:"skipped"`
	Chunks       int      `json:"chunks"`
	Replaced     int      `json:"replaced,omitempty"`
	SkippedFiles []string `json:"skipped_files,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
}

// IngestConfig 导入配置。
type IngestConfig struct {
	// Dir 默认文档目录。
	Dir string
	// EmbedBatchSize 向量化批大小。
	EmbedBatchSize int
}

// Ingestor 抽取、切分、向量化并写入文档。
// 文件抽取在协程池中并行，之后按路径顺序串行切分、向量化与写入。
type Ingestor struct {
	chunker  *Chunker
	embedder *Embedder
	index    store.VectorIndex
	pool     *pool.Pool
	config   *IngestConfig
	metrics  *metrics.Metrics
}

// NewIngestor 创建导入器。
func NewIngestor(chunker *Chunker, embedder *Embedder, index store.VectorIndex, p *pool.Pool, config *IngestConfig) *Ingestor {
	if config == nil {
		config = &IngestConfig{}
	}
	return &Ingestor{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		pool:     p,
		config:   config,
		metrics:  metrics.GetMetrics(),
	}
}

// IngestDir 导入目录下所有支持的文件，dir 为空时使用配置目录。
// clear 为 true 时先清空索引。
func (i *Ingestor) IngestDir(ctx context.Context, dir string, clear bool) (*IngestReport, error) {
	if dir == "" {
		dir = i.config.Dir
	}
	if !docutil.DirExists(dir) {
		return nil, errors.ErrInvalidDirectory.WithMessagef("directory %q does not exist", dir)
	}

	files, err := docutil.FindFiles(dir, docutil.SupportedExtensions())
	if err != nil {
		return nil, errors.ErrIngestFailed.WithCause(err)
	}
	logger.Infow("Found documents", "dir", dir, "files", len(files))

	if clear {
		if err := i.index.Clear(ctx); err != nil {
			return nil, errors.ErrIndexFailed.WithCause(err)
		}
	}
	return i.IngestFiles(ctx, files)
}

type extracted struct {
	chunks []store.Chunk
	err    error
}

// IngestFiles 导入指定文件，单个文件失败只跳过该文件。
// 已存在的块 id 被忽略。
func (i *Ingestor) IngestFiles(ctx context.Context, paths []string) (*IngestReport, error) {
	return i.ingest(ctx, paths, false)
}

// ReplaceFiles 重新导入指定文件：先删除这些文件已有的块再写入新块。
// 已被删除的文件只移除其块，读取失败的文件保留原有块。
func (i *Ingestor) ReplaceFiles(ctx context.Context, paths []string) (*IngestReport, error) {
	return i.ingest(ctx, paths, true)
}

func (i *Ingestor) ingest(ctx context.Context, paths []string, replace bool) (*IngestReport, error) {
	start := time.Now()
	paths = absPaths(paths)
	sort.Strings(paths)

	results := make([]extracted, len(paths))
	err := i.pool.ForEach(ctx, len(paths), func(n int) {
		chunks, err := i.chunker.ChunkFile(paths[n])
		results[n] = extracted{chunks: chunks, err: err}
	})
	if err != nil {
		return nil, errors.ErrIngestFailed.WithCause(err)
	}

	report := &IngestReport{Files: len(paths)}
	var (
		all   []store.Chunk
		stale []string
	)
	for n, r := range results {
		switch {
		case r.err != nil && replace && stderrors.Is(r.err, fs.ErrNotExist):
			logger.Infow("Document removed", "path", paths[n])
			stale = append(stale, paths[n])
		case r.err != nil:
			logger.Warnw("Skipping unreadable document", "path", paths[n], "error", r.err.Error())
		case len(r.chunks) == 0:
			logger.Warnw("Skipping document without text", "path", paths[n])
			if replace {
				stale = append(stale, paths[n])
			}
		default:
			logger.Debugw("Document chunked", "path", paths[n], "chunks", len(r.chunks))
			all = append(all, r.chunks...)
			stale = append(stale, paths[n])
			i.metrics.IngestFiles.WithLabelValues("indexed").Inc()
			continue
		}
		report.Skipped++
		report.SkippedFiles = append(report.SkippedFiles, paths[n])
		i.metrics.IngestFiles.WithLabelValues("skipped").Inc()
	}
	report.Chunks = len(all)

	var vectors [][]float32
	if len(all) > 0 {
		texts := make([]string, len(all))
		for n, c := range all {
			texts[n] = c.Text
		}
		var err error
		vectors, err = i.embedder.EmbedMany(ctx, texts, i.config.EmbedBatchSize)
		if err != nil {
			return nil, errors.ErrEmbeddingFailed.WithCause(err)
		}
	}

	// 向量化成功后才删除旧块
	if replace {
		for _, path := range stale {
			n, err := i.index.DeleteSource(ctx, path)
			if err != nil {
				return nil, errors.ErrIndexFailed.WithCause(err)
			}
			report.Replaced += int(n)
		}
	}

	if len(all) > 0 {
		if err := i.index.Add(ctx, all, vectors); err != nil {
			return nil, errors.ErrIndexFailed.WithCause(err)
		}
		i.metrics.IngestChunks.Add(float64(len(all)))
	}

	if count, err := i.index.Count(ctx); err == nil {
		i.metrics.IndexPassages.Set(float64(count))
	}

	report.DurationMS = time.Since(start).Milliseconds()
	logger.Infow("Ingestion finished",
		"files", report.Files,
		"skipped", report.Skipped,
		"chunks", report.Chunks,
		"replaced", report.Replaced,
		"duration_ms", report.DurationMS,
	)
	return report, nil
}

// Count 返回索引中的块数。
func (i *Ingestor) Count(ctx context.Context) (int64, error) {
	n, err := i.index.Count(ctx)
	if err != nil {
		return 0, errors.ErrIndexFailed.WithCause(err)
	}
	return n, nil
}

// Clear 清空索引。
func (i *Ingestor) Clear(ctx context.Context) error {
	if err := i.index.Clear(ctx); err != nil {
		return errors.ErrIndexFailed.WithCause(err)
	}
	i.metrics.IndexPassages.Set(0)
	return nil
}

// absPaths 统一为绝对路径，使来源路径与导入入口无关。
func absPaths(paths []string) []string {
	out := make([]string, len(paths))
	for n, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out[n] = p
	}
	return out
}

func (r *IngestReport) String() string {
	return fmt.Sprintf("files=%d skipped=%d chunks=%d", r.Files, r.Skipped, r.Chunks)
}
