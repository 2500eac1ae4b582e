package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/rag-assistant/internal/assistant/biz"
	"github.com/kart-io/rag-assistant/internal/assistant/handler"
	"github.com/kart-io/rag-assistant/internal/assistant/router"
	"github.com/kart-io/rag-assistant/internal/assistant/store"
	"github.com/kart-io/rag-assistant/pkg/component/database"
	"github.com/kart-io/rag-assistant/pkg/component/milvus"
	"github.com/kart-io/rag-assistant/pkg/component/redis"
	"github.com/kart-io/rag-assistant/pkg/infra/app"
	"github.com/kart-io/rag-assistant/pkg/infra/pool"
	"github.com/kart-io/rag-assistant/pkg/infra/server"
	"github.com/kart-io/rag-assistant/pkg/infra/tracing"
	"github.com/kart-io/rag-assistant/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/rag-assistant/pkg/llm/huggingface"
	_ "github.com/kart-io/rag-assistant/pkg/llm/ollama"
	_ "github.com/kart-io/rag-assistant/pkg/llm/openai"
	_ "github.com/kart-io/rag-assistant/pkg/llm/yandexgpt"
	databaseopts "github.com/kart-io/rag-assistant/pkg/options/database"
	httpopts "github.com/kart-io/rag-assistant/pkg/options/http"
	llmopts "github.com/kart-io/rag-assistant/pkg/options/llm"
	logopts "github.com/kart-io/rag-assistant/pkg/options/logger"
	milvusopts "github.com/kart-io/rag-assistant/pkg/options/milvus"
	ragopts "github.com/kart-io/rag-assistant/pkg/options/rag"
	redisopts "github.com/kart-io/rag-assistant/pkg/options/redis"
	sqliteopts "github.com/kart-io/rag-assistant/pkg/options/sqlite"
	tracingopts "github.com/kart-io/rag-assistant/pkg/options/tracing"
)

// Name is the name of the application.
const Name = "assistant"

const (
	embeddingCachePrefix = "assistant:embedding:"
	sessionKeyPrefix     = "assistant:session:"
)

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	TracingOptions   *tracingopts.Options
	AssistantOptions *ragopts.AssistantOptions
	IndexOptions     *ragopts.IndexOptions
	IngestOptions    *ragopts.IngestOptions
	MilvusOptions    *milvusopts.Options
	DatabaseOptions  *databaseopts.Options
	RedisOptions     *redisopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
}

// Server represents the assistant server.
type Server struct {
	srv      *server.Manager
	ingestor *biz.Ingestor
	ingest   *ragopts.IngestOptions
	closers  []func()
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (_ *Server, err error) {
	printBanner(cfg)

	s := &Server{ingest: cfg.IngestOptions}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	// 1. 初始化日志
	if err := cfg.LogOptions.Init(Name, app.GetVersion()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting assistant service...")

	// 2. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions, app.GetVersion())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.onClose(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	})
	logger.Infow("Tracing initialized", "enabled", cfg.TracingOptions.Enabled, "exporter", cfg.TracingOptions.Exporter)

	// 3. 初始化问答日志数据库
	db, err := database.New(ctx, cfg.DatabaseOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	s.onClose(func() { _ = db.Close() })
	interactionStore, err := store.NewInteractionStore(ctx, db.DB())
	if err != nil {
		return nil, err
	}
	checks := []router.Pinger{db}
	logger.Infow("Interaction store initialized", "driver", cfg.DatabaseOptions.Driver)

	// 4. 初始化 Redis（会话与向量缓存）
	var redisClient *redis.Client
	if cfg.AssistantOptions.SessionStore == ragopts.SessionStoreRedis || cfg.EmbeddingOptions.CacheEnabled {
		redisClient, err = redis.New(ctx, cfg.RedisOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		s.onClose(func() { _ = redisClient.Close() })
		checks = append(checks, redisClient)
		logger.Infow("Redis client initialized", "addr", cfg.RedisOptions.Addr())
	}

	// 5. 初始化 LLM 供应商
	embedProvider, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	if cfg.EmbeddingOptions.CacheEnabled {
		embedProvider = llm.NewCachedEmbeddingProvider(embedProvider, redisClient.Client(), &llm.EmbeddingCacheConfig{
			TTL:       cfg.EmbeddingOptions.CacheTTL,
			KeyPrefix: embeddingCachePrefix,
			Namespace: cfg.EmbeddingOptions.Provider + ":" + cfg.EmbeddingOptions.Model,
		})
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
		"cache", cfg.EmbeddingOptions.CacheEnabled,
	)

	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	// 6. 探测向量维度
	embedder, err := biz.NewEmbedder(ctx, embedProvider, cfg.IngestOptions.EmbedBatchSize)
	if err != nil {
		return nil, err
	}
	logger.Infow("Embedder initialized", "dimension", embedder.Dimension())

	// 7. 初始化向量索引
	index, pinger, err := cfg.newVectorIndex(ctx, s, embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	s.onClose(func() { _ = index.Close() })
	checks = append(checks, pinger)

	// 8. 初始化 Biz 层
	prompt := biz.DefaultPromptTemplate()
	if cfg.AssistantOptions.PromptFile != "" {
		if prompt, err = biz.LoadPromptTemplate(cfg.AssistantOptions.PromptFile); err != nil {
			return nil, err
		}
	}
	interactionLogger := biz.NewInteractionLogger(interactionStore)
	assistant, err := biz.NewAssistant(
		biz.NewQueryProcessor(cfg.AssistantOptions.Abbreviations),
		biz.NewRetriever(embedder, index),
		biz.NewCompletionClient(chatProvider, cfg.ChatOptions.Timeout),
		interactionLogger,
		prompt,
		&biz.AssistantConfig{
			RelevanceThreshold: cfg.AssistantOptions.RelevanceThreshold,
			TopK:               cfg.AssistantOptions.TopK,
			Temperature:        cfg.AssistantOptions.Temperature,
			MaxTokens:          cfg.AssistantOptions.MaxTokens,
			HistoryWindow:      cfg.AssistantOptions.HistoryWindow,
		},
	)
	if err != nil {
		return nil, err
	}

	var sessions biz.SessionStore
	if cfg.AssistantOptions.SessionStore == ragopts.SessionStoreRedis {
		sessions = biz.NewRedisSessionStore(redisClient.Client(), &biz.RedisSessionConfig{
			Limit:     cfg.AssistantOptions.HistoryLimit,
			TTL:       cfg.AssistantOptions.SessionTTL,
			KeyPrefix: sessionKeyPrefix,
		})
	} else {
		sessions = biz.NewMemorySessionStore(cfg.AssistantOptions.HistoryLimit, cfg.AssistantOptions.SessionTTL)
	}
	logger.Infow("Assistant initialized",
		"relevance_threshold", cfg.AssistantOptions.RelevanceThreshold,
		"top_k", cfg.AssistantOptions.TopK,
		"session_store", cfg.AssistantOptions.SessionStore,
	)

	// 9. 初始化文档导入
	ingestPool, err := pool.New("ingest", &pool.Config{
		Capacity:       cfg.IngestOptions.Workers,
		ExpiryDuration: 10 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	s.onClose(ingestPool.Release)
	chunker, err := biz.NewChunker(cfg.IngestOptions.ChunkSize, cfg.IngestOptions.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	s.ingestor = biz.NewIngestor(chunker, embedder, index, ingestPool, &biz.IngestConfig{
		Dir:            cfg.IngestOptions.Dir,
		EmbedBatchSize: cfg.IngestOptions.EmbedBatchSize,
	})

	s.srv = server.NewManager(server.WithShutdownTimeout(cfg.HTTPOptions.ShutdownTimeout))
	if cfg.IngestOptions.Only {
		logger.Info("Ingest-only mode, HTTP server disabled")
		return s, nil
	}

	// 10. 初始化 Handler 与路由
	engine := router.NewEngine(cfg.HTTPOptions.Mode)
	router.Register(engine,
		handler.NewAssistantHandler(assistant, sessions, interactionLogger, &handler.AssistantHandlerConfig{
			MaxRenderedSources:    cfg.AssistantOptions.MaxRenderedSources,
			LowRelevanceThreshold: cfg.AssistantOptions.RelevanceThreshold,
		}),
		handler.NewIndexHandler(s.ingestor, cfg.IngestOptions.Dir),
		checks...,
	)

	// 11. 初始化服务器
	s.srv.AddServer(server.NewHTTPServer(cfg.HTTPOptions, engine))
	if cfg.IngestOptions.Watch {
		watcher, err := biz.NewWatcher(s.ingestor, cfg.IngestOptions.Dir, biz.DefaultWatchDebounce)
		if err != nil {
			return nil, err
		}
		s.srv.AddServer(watcher)
	}

	logger.Info("Assistant service is ready")
	return s, nil
}

// newVectorIndex opens the configured vector index backend.
func (cfg *Config) newVectorIndex(ctx context.Context, s *Server, dimension int) (store.VectorIndex, router.Pinger, error) {
	switch cfg.IndexOptions.Backend {
	case ragopts.IndexBackendMilvus:
		client, err := milvus.New(ctx, cfg.MilvusOptions)
		if err != nil {
			return nil, nil, err
		}
		index, err := store.NewMilvusIndex(ctx, client, &store.MilvusIndexConfig{
			Collection: cfg.IndexOptions.Collection,
			Dimension:  dimension,
			BatchSize:  cfg.IndexOptions.BatchSize,
		})
		if err != nil {
			_ = client.Close(context.Background())
			return nil, nil, err
		}
		logger.Infow("Vector index initialized", "backend", "milvus", "address", cfg.MilvusOptions.Address)
		return index, client, nil

	default:
		opts := sqliteopts.NewOptions()
		opts.Path = cfg.IndexOptions.Path
		client, err := database.OpenSQLite(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		s.onClose(func() { _ = client.Close() })
		index, err := store.NewSQLiteIndex(ctx, client.DB(), &store.SQLiteIndexConfig{
			Collection: cfg.IndexOptions.Collection,
			BatchSize:  cfg.IndexOptions.BatchSize,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Infow("Vector index initialized", "backend", "sqlite", "path", cfg.IndexOptions.Path)
		return index, client, nil
	}
}

func (s *Server) onClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// close runs close funcs in reverse order of registration.
func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run indexes documents when configured, then serves until shutdown.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	if s.ingest.OnStart {
		report, err := s.ingestor.IngestDir(ctx, s.ingest.Dir, s.ingest.Clear)
		if err != nil {
			return fmt.Errorf("failed to index documents: %w", err)
		}
		logger.Infow("Documents indexed",
			"files", report.Files,
			"skipped", report.Skipped,
			"chunks", report.Chunks,
			"duration_ms", report.DurationMS,
		)
	}
	if s.ingest.Only {
		return nil
	}
	return s.srv.Run(ctx)
}

func printBanner(cfg *Config) {
	fmt.Println("===========================================")
	fmt.Printf("  %s %s\n", Name, app.GetVersion())
	fmt.Println("===========================================")
	if !cfg.IngestOptions.Only {
		fmt.Printf("HTTP: %s (mode: %s)\n", cfg.HTTPOptions.Addr, cfg.HTTPOptions.Mode)
	}
	fmt.Printf("Embedding: %s (%s)\n", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model)
	fmt.Printf("Chat: %s (%s)\n", cfg.ChatOptions.Provider, cfg.ChatOptions.Model)
	fmt.Printf("Index: %s (collection: %s)\n", cfg.IndexOptions.Backend, cfg.IndexOptions.Collection)
	fmt.Printf("Interaction log: %s\n", cfg.DatabaseOptions.Driver)
	fmt.Printf("Sessions: %s\n", cfg.AssistantOptions.SessionStore)
	fmt.Printf("Documents: %s (on-start: %t, watch: %t)\n", cfg.IngestOptions.Dir, cfg.IngestOptions.OnStart, cfg.IngestOptions.Watch)
	fmt.Println("-------------------------------------------")
	fmt.Println("Press Ctrl+C to gracefully shutdown")
	fmt.Println()
}
