package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/rag-assistant/pkg/options"
)

var _ options.IOptions = (*IngestOptions)(nil)

// IngestOptions configures document ingestion.
type IngestOptions struct {
	// Dir 文档目录。
	Dir string `json:"dir" mapstructure:"dir"`
	// OnStart 服务启动时先建立索引。
	OnStart bool `json:"on-start" mapstructure:"on-start"`
	// Only 只建立索引后退出，不启动 HTTP 服务。
	Only bool `json:"only" mapstructure:"only"`
	// Clear 建立索引前清空集合。
	Clear bool `json:"clear" mapstructure:"clear"`
	// Watch 监听目录变化并增量建立索引。
	Watch bool `json:"watch" mapstructure:"watch"`
	// Workers 并行解析文件的协程数。
	Workers int `json:"workers" mapstructure:"workers"`

	ChunkSize      int `json:"chunk-size" mapstructure:"chunk-size"`
	ChunkOverlap   int `json:"chunk-overlap" mapstructure:"chunk-overlap"`
	EmbedBatchSize int `json:"embed-batch-size" mapstructure:"embed-batch-size"`
}

// NewIngestOptions creates default ingest options.
func NewIngestOptions() *IngestOptions {
	return &IngestOptions{
		Dir:            "documents",
		Workers:        4,
		ChunkSize:      500,
		ChunkOverlap:   50,
		EmbedBatchSize: 32,
	}
}

// AddFlags adds flags for ingest options to the specified FlagSet.
func (o *IngestOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "ingest."
	fs.StringVar(&o.Dir, p+"dir", o.Dir, "Directory with source documents.")
	fs.BoolVar(&o.OnStart, p+"on-start", o.OnStart, "Index the document directory before serving.")
	fs.BoolVar(&o.Only, p+"only", o.Only, "Index the document directory and exit.")
	fs.BoolVar(&o.Clear, p+"clear", o.Clear, "Clear the collection before indexing.")
	fs.BoolVar(&o.Watch, p+"watch", o.Watch, "Re-index files changed in the document directory.")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Parallel file extraction workers.")
	fs.IntVar(&o.ChunkSize, p+"chunk-size", o.ChunkSize, "Chunk size in characters.")
	fs.IntVar(&o.ChunkOverlap, p+"chunk-overlap", o.ChunkOverlap, "Overlap between consecutive chunks in characters.")
	fs.IntVar(&o.EmbedBatchSize, p+"embed-batch-size", o.EmbedBatchSize, "Texts per embedding request.")
}

// Validate validates the ingest options.
func (o *IngestOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if (o.OnStart || o.Only || o.Watch) && o.Dir == "" {
		errs = append(errs, fmt.Errorf("ingest.dir is required"))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("ingest.workers must be positive"))
	}
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk-overlap must be within [0, chunk-size)"))
	}
	if o.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.embed-batch-size must be positive"))
	}
	return errs
}

// Complete completes the ingest options.
func (o *IngestOptions) Complete() error {
	return nil
}
