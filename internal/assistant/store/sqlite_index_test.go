package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, path string) *SQLiteIndex {
	t.Helper()
	idx, err := NewSQLiteIndex(context.Background(), openTestDB(t, path), &SQLiteIndexConfig{Collection: "documents", BatchSize: 2})
	require.NoError(t, err)
	return idx
}

func sampleChunks() ([]Chunk, [][]float32) {
	chunks := []Chunk{
		{Text: "Приём документов начинается 20 июня.", SourcePath: "docs/rules.pdf", Page: 1, Metadata: map[string]string{MetaFileType: "pdf"}},
		{Text: "Стоимость обучения 250 000 рублей.", SourcePath: "docs/rules.pdf", Index: 1, Page: 2},
		{Text: "Общежитие предоставляется иногородним.", SourcePath: "docs/campus.txt"},
	}
	vecs := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	return chunks, vecs
}

func TestSQLiteIndexAddSearch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, tempDBPath(t))

	chunks, vecs := sampleChunks()
	require.NoError(t, idx.Add(ctx, chunks, vecs))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	res, err := idx.Search(ctx, []float32{0.1, 0.9, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Стоимость обучения 250 000 рублей.", res[0].Text)
	assert.Equal(t, "rules.pdf", res[0].SourceFile)
	assert.Equal(t, 2, res[0].Page)
	assert.Equal(t, "2", res[0].Metadata[MetaPage])
	assert.Equal(t, "docs/rules.pdf", res[0].Metadata[MetaSource])
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)

	res, err = idx.Search(ctx, []float32{0, 0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 3)
	assert.Equal(t, 0, res[0].Page)
	_, hasPage := res[0].Metadata[MetaPage]
	assert.False(t, hasPage)
}

func TestSQLiteIndexSelfRetrieval(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, tempDBPath(t))
	chunks, vecs := sampleChunks()
	require.NoError(t, idx.Add(ctx, chunks, vecs))

	for i, v := range vecs {
		res, err := idx.Search(ctx, v, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, chunks[i].Text, res[0].Text)
		assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	}
}

func TestSQLiteIndexEdgeCases(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, tempDBPath(t))

	t.Run("空索引返回空切片", func(t *testing.T) {
		res, err := idx.Search(ctx, []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		assert.Empty(t, res)
		assert.NotNil(t, res)
	})

	t.Run("topK 小于 1 报错", func(t *testing.T) {
		_, err := idx.Search(ctx, []float32{1, 0, 0}, 0)
		assert.ErrorIs(t, err, ErrInvalidTopK)
	})

	t.Run("空输入不报错", func(t *testing.T) {
		assert.NoError(t, idx.Add(ctx, nil, nil))
	})

	t.Run("长度不一致报错", func(t *testing.T) {
		chunks, _ := sampleChunks()
		err := idx.Add(ctx, chunks, [][]float32{{1, 0, 0}})
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})
}

func TestSQLiteIndexIgnoresExistingIDs(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, tempDBPath(t))
	chunks, vecs := sampleChunks()
	require.NoError(t, idx.Add(ctx, chunks, vecs))

	changed := append([]Chunk(nil), chunks...)
	changed[0].Text = "другой текст"
	require.NoError(t, idx.Add(ctx, changed, vecs))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	res, err := idx.Search(ctx, vecs[0], 1)
	require.NoError(t, err)
	assert.Equal(t, chunks[0].Text, res[0].Text)
}

func TestSQLiteIndexPersistsAndClears(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)

	idx := newTestIndex(t, path)
	chunks, vecs := sampleChunks()
	require.NoError(t, idx.Add(ctx, chunks, vecs))
	require.NoError(t, idx.Close())

	reopened := newTestIndex(t, path)
	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	res, err := reopened.Search(ctx, vecs[2], 1)
	require.NoError(t, err)
	assert.Equal(t, chunks[2].Text, res[0].Text)

	require.NoError(t, reopened.Clear(ctx))
	n, err = reopened.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	again := newTestIndex(t, path)
	n, err = again.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPassageID(t *testing.T) {
	assert.Equal(t, "rules_chunk_7", PassageID("/data/docs/rules.pdf", 7))
	assert.Equal(t, "notes_chunk_0", PassageID("notes.md", 0))
}

func TestSQLiteIndexDeleteSource(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)
	idx := newTestIndex(t, path)
	chunks, vecs := sampleChunks()
	require.NoError(t, idx.Add(ctx, chunks, vecs))

	n, err := idx.DeleteSource(ctx, "docs/rules.pdf")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	t.Run("删除后同一 id 可重新写入新文本", func(t *testing.T) {
		edited := []Chunk{{Text: "Приём документов начинается 1 июля.", SourcePath: "docs/rules.pdf", Page: 1}}
		require.NoError(t, idx.Add(ctx, edited, vecs[:1]))

		res, err := idx.Search(ctx, vecs[0], 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, edited[0].Text, res[0].Text)
	})

	t.Run("未知来源删除数量为零", func(t *testing.T) {
		n, err := idx.DeleteSource(ctx, "docs/missing.txt")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("删除结果持久化", func(t *testing.T) {
		reopened := newTestIndex(t, path)
		count, err := reopened.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})
}
