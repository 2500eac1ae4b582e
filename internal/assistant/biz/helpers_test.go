package biz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kart-io/rag-assistant/internal/assistant/store"
	"github.com/kart-io/rag-assistant/internal/model"
	"github.com/kart-io/rag-assistant/pkg/component/database"
	"github.com/kart-io/rag-assistant/pkg/infra/pool"
	"github.com/kart-io/rag-assistant/pkg/llm"
	sqliteopts "github.com/kart-io/rag-assistant/pkg/options/sqlite"
)

// keywordEmbedder 按关键词词干出现与否生成向量。
type keywordEmbedder struct {
	keywords []string
	calls    atomic.Int64
	fail     bool

	mu    sync.Mutex
	texts []string
}

func (e *keywordEmbedder) lastText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.texts) == 0 {
		return ""
	}
	return e.texts[len(e.texts)-1]
}

var _ llm.EmbeddingProvider = (*keywordEmbedder)(nil)

func newKeywordEmbedder() *keywordEmbedder {
	return &keywordEmbedder{keywords: []string{
		"поступлен", "нуж", "паспорт", "погод", "париж", "общежит", "стоимост",
	}}
}

func (e *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(e.keywords))
	for i, k := range e.keywords {
		if strings.Contains(lower, k) {
			v[i] = 1
		}
	}
	return v
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	e.mu.Lock()
	e.texts = append(e.texts, texts...)
	e.mu.Unlock()
	if e.fail {
		return nil, errors.New("embedding backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (e *keywordEmbedder) Name() string { return "keyword" }

// mockCompleter 记录调用次数与最后一次提示词。
type mockCompleter struct {
	mu         sync.Mutex
	calls      int
	lastPrompt string
	answer     string
	err        error
}

func (m *mockCompleter) Generate(_ context.Context, prompt string, _ float64, _ int) (*GenerateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return nil, m.err
	}
	return &GenerateResult{Text: m.answer, TokensUsed: 42}, nil
}

func (m *mockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// failingRecorder 模拟日志库不可用。
type failingRecorder struct{}

func (failingRecorder) LogRequest(context.Context, *model.AIRequest) LogResult {
	return LogResult{Err: errors.New("database is locked")}
}

func (failingRecorder) LogFeedback(context.Context, uint64, int) error {
	return errors.New("database is locked")
}

type testEnv struct {
	dir       string
	embedder  *Embedder
	provider  *keywordEmbedder
	index     *store.SQLiteIndex
	ingestor  *Ingestor
	logger    *InteractionLogger
	completer *mockCompleter
	assistant *Assistant
}

func openTestDB(t *testing.T, name string) *database.Client {
	t.Helper()
	opts := sqliteopts.NewOptions()
	opts.Path = filepath.Join(t.TempDir(), name)
	c, err := database.OpenSQLite(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	provider := newKeywordEmbedder()
	embedder, err := NewEmbedder(ctx, provider, 2)
	require.NoError(t, err)

	index, err := store.NewSQLiteIndex(ctx, openTestDB(t, "vector_db.sqlite").DB(), &store.SQLiteIndexConfig{Collection: "documents"})
	require.NoError(t, err)

	interactions, err := store.NewInteractionStore(ctx, openTestDB(t, "assistant.db").DB())
	require.NoError(t, err)

	p, err := pool.New("ingest-test", pool.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(p.Release)

	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)

	dir := t.TempDir()
	env := &testEnv{
		dir:       dir,
		embedder:  embedder,
		provider:  provider,
		index:     index,
		ingestor:  NewIngestor(chunker, embedder, index, p, &IngestConfig{Dir: dir, EmbedBatchSize: 2}),
		logger:    NewInteractionLogger(interactions),
		completer: &mockCompleter{answer: "Для поступления нужен паспорт (Rules.txt)."},
	}

	env.assistant, err = NewAssistant(
		NewQueryProcessor(nil),
		NewRetriever(embedder, index),
		env.completer,
		env.logger,
		DefaultPromptTemplate(),
		DefaultAssistantConfig(),
	)
	require.NoError(t, err)
	return env
}
