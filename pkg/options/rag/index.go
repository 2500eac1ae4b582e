package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/rag-assistant/pkg/options"
)

var _ options.IOptions = (*IndexOptions)(nil)

// Vector index backends.
const (
	IndexBackendSQLite = "sqlite"
	IndexBackendMilvus = "milvus"
)

// IndexOptions configures the vector index.
type IndexOptions struct {
	Backend    string `json:"backend" mapstructure:"backend"`
	Path       string `json:"path" mapstructure:"path"`
	Collection string `json:"collection" mapstructure:"collection"`
	BatchSize  int    `json:"batch-size" mapstructure:"batch-size"`
}

// NewIndexOptions creates default index options.
func NewIndexOptions() *IndexOptions {
	return &IndexOptions{
		Backend:    IndexBackendSQLite,
		Path:       "data/vector_db.sqlite",
		Collection: "documents",
		BatchSize:  100,
	}
}

// AddFlags adds flags for index options to the specified FlagSet.
func (o *IndexOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "index."
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Vector index backend (sqlite, milvus).")
	fs.StringVar(&o.Path, p+"path", o.Path, "SQLite file holding the vector index.")
	fs.StringVar(&o.Collection, p+"collection", o.Collection, "Collection name.")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Passages inserted per batch.")
}

// Validate validates the index options.
func (o *IndexOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Backend {
	case IndexBackendSQLite:
		if o.Path == "" {
			errs = append(errs, fmt.Errorf("index.path is required for the sqlite backend"))
		}
	case IndexBackendMilvus:
	default:
		errs = append(errs, fmt.Errorf("index.backend %q is not supported", o.Backend))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("index.collection is required"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("index.batch-size must be positive"))
	}
	return errs
}

// Complete completes the index options.
func (o *IndexOptions) Complete() error {
	return nil
}
