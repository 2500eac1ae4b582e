// Package milvus wraps the Milvus v2 SDK for string-keyed cosine collections.
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/rag-assistant/pkg/options/milvus"
)

// Field names shared by every collection created through this package.
const (
	FieldID        = "id"
	FieldEmbedding = "embedding"
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{client: c, opts: opts}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// Name returns the component name.
func (c *Client) Name() string {
	return "milvus"
}

// Ping checks that the server answers a metadata call.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	return err
}

// CollectionSchema defines the schema for a vector collection.
type CollectionSchema struct {
	Name        string
	Description string
	Dimension   int
	IDMaxLen    int
	MetaFields  []MetaField
}

// MetaField defines a scalar field in the collection.
type MetaField struct {
	Name     string
	DataType entity.FieldType
	MaxLen   int // VARCHAR only
}

// EnsureCollection opens the named collection or creates it with a COSINE
// IVF_FLAT index. It reports whether the collection was created.
func (c *Client) EnsureCollection(ctx context.Context, schema *CollectionSchema) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(schema.Name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return false, c.load(ctx, schema.Name)
	}

	idMax := schema.IDMaxLen
	if idMax <= 0 {
		idMax = 512
	}

	collSchema := entity.NewSchema().
		WithName(schema.Name).
		WithDescription(schema.Description).
		WithAutoID(false).
		WithField(entity.NewField().
			WithName(FieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(int64(idMax)).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(FieldEmbedding).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(schema.Dimension)))

	for _, f := range schema.MetaFields {
		field := entity.NewField().WithName(f.Name).WithDataType(f.DataType)
		if f.DataType == entity.FieldTypeVarChar && f.MaxLen > 0 {
			field.WithMaxLength(int64(f.MaxLen))
		}
		collSchema.WithField(field)
	}

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.Name, collSchema)); err != nil {
		return false, fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewIvfFlatIndex(entity.COSINE, c.opts.NList)
	task, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(schema.Name, FieldEmbedding, idx))
	if err != nil {
		return false, fmt.Errorf("failed to create index: %w", err)
	}
	if err := task.Await(ctx); err != nil {
		return false, fmt.Errorf("failed to wait for index creation: %w", err)
	}

	return true, c.load(ctx, schema.Name)
}

func (c *Client) load(ctx context.Context, name string) error {
	task, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// ExistingIDs returns the subset of ids already stored in the collection.
func (c *Client) ExistingIDs(ctx context.Context, collection string, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(ids) == 0 {
		return found, nil
	}

	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	expr := fmt.Sprintf("%s in [%s]", FieldID, strings.Join(quoted, ","))

	rs, err := c.client.Query(ctx, milvusclient.NewQueryOption(collection).
		WithFilter(expr).
		WithOutputFields(FieldID))
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	if col, ok := rs.GetColumn(FieldID).(*column.ColumnVarChar); ok {
		for _, id := range col.Data() {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

// Insert inserts column-based rows into the collection.
func (c *Client) Insert(ctx context.Context, collection string, columns ...column.Column) error {
	if _, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collection, columns...)); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}
	return nil
}

// Flush makes inserted rows visible to search and stats.
func (c *Client) Flush(ctx context.Context, collection string) error {
	task, err := c.client.Flush(ctx, milvusclient.NewFlushOption(collection))
	if err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}
	return nil
}

// SearchResult represents a single search hit.
type SearchResult struct {
	ID     string
	Score  float32
	Fields map[string]any
}

// Search performs a cosine similarity search, best hit first.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, topK int, outputFields []string) ([]SearchResult, error) {
	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		collection,
		topK,
		[]entity.Vector{entity.FloatVector(vector)},
	).WithANNSField(FieldEmbedding).
		WithSearchParam("nprobe", strconv.Itoa(c.opts.NProbe)).
		WithOutputFields(outputFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	rs := results[0]
	out := make([]SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		hit := SearchResult{Score: rs.Scores[i], Fields: make(map[string]any)}
		if ids, ok := rs.IDs.(*column.ColumnVarChar); ok {
			hit.ID = ids.Data()[i]
		}
		for _, field := range rs.Fields {
			switch col := field.(type) {
			case *column.ColumnVarChar:
				hit.Fields[col.Name()] = col.Data()[i]
			case *column.ColumnInt64:
				hit.Fields[col.Name()] = col.Data()[i]
			}
		}
		out = append(out, hit)
	}
	return out, nil
}

// DeleteByFilter deletes the rows matching a boolean expression and
// returns how many were removed.
func (c *Client) DeleteByFilter(ctx context.Context, collection, expr string) (int64, error) {
	res, err := c.client.Delete(ctx, milvusclient.NewDeleteOption(collection).WithExpr(expr))
	if err != nil {
		return 0, fmt.Errorf("failed to delete data: %w", err)
	}
	return res.DeleteCount, nil
}

// DropCollection drops a collection.
func (c *Client) DropCollection(ctx context.Context, collection string) error {
	if err := c.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(collection)); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Count returns the number of entities in a collection.
func (c *Client) Count(ctx context.Context, collection string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collection))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}
	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}
