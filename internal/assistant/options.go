package assistant

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/rag-assistant/pkg/app/cliflag"
	databaseopts "github.com/kart-io/rag-assistant/pkg/options/database"
	httpopts "github.com/kart-io/rag-assistant/pkg/options/http"
	llmopts "github.com/kart-io/rag-assistant/pkg/options/llm"
	logopts "github.com/kart-io/rag-assistant/pkg/options/logger"
	milvusopts "github.com/kart-io/rag-assistant/pkg/options/milvus"
	ragopts "github.com/kart-io/rag-assistant/pkg/options/rag"
	redisopts "github.com/kart-io/rag-assistant/pkg/options/redis"
	tracingopts "github.com/kart-io/rag-assistant/pkg/options/tracing"
)

// Options contains all assistant service options.
type Options struct {
	HTTP      *httpopts.Options         `json:"http" mapstructure:"http"`
	Log       *logopts.Options          `json:"log" mapstructure:"log"`
	Tracing   *tracingopts.Options      `json:"tracing" mapstructure:"tracing"`
	Assistant *ragopts.AssistantOptions `json:"assistant" mapstructure:"assistant"`
	Index     *ragopts.IndexOptions     `json:"index" mapstructure:"index"`
	Ingest    *ragopts.IngestOptions    `json:"ingest" mapstructure:"ingest"`
	Milvus    *milvusopts.Options       `json:"milvus" mapstructure:"milvus"`
	Database  *databaseopts.Options     `json:"database" mapstructure:"database"`
	Redis     *redisopts.Options        `json:"redis" mapstructure:"redis"`
	Embedding *llmopts.ProviderOptions  `json:"embedding" mapstructure:"embedding"`
	Chat      *llmopts.ProviderOptions  `json:"chat" mapstructure:"chat"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	tracing := tracingopts.NewOptions()
	tracing.ServiceName = Name

	return &Options{
		HTTP:      httpopts.NewOptions(),
		Log:       logopts.NewOptions(),
		Tracing:   tracing,
		Assistant: ragopts.NewAssistantOptions(),
		Index:     ragopts.NewIndexOptions(),
		Ingest:    ragopts.NewIngestOptions(),
		Milvus:    milvusopts.NewOptions(),
		Database:  databaseopts.NewOptions(),
		Redis:     redisopts.NewOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Chat:      llmopts.NewChatOptions(),
	}
}

// Flags returns flags grouped by section.
func (o *Options) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTP.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("log"))
	o.Tracing.AddFlags(fss.FlagSet("tracing"))
	o.Assistant.AddFlags(fss.FlagSet("assistant"))
	o.Index.AddFlags(fss.FlagSet("index"))
	o.Ingest.AddFlags(fss.FlagSet("ingest"))
	o.Milvus.AddFlags(fss.FlagSet("milvus"))
	o.Database.AddFlags(fss.FlagSet("database"))
	o.Redis.AddFlags(fss.FlagSet("redis"))
	o.Embedding.AddFlags(fss.FlagSet("embedding"))
	o.Chat.AddFlags(fss.FlagSet("chat"))
	return fss
}

// Complete completes the options.
func (o *Options) Complete() error {
	completers := []interface{ Complete() error }{
		o.HTTP, o.Log, o.Tracing, o.Assistant, o.Index, o.Ingest,
		o.Milvus, o.Database, o.Redis, o.Embedding, o.Chat,
	}
	for _, c := range completers {
		if err := c.Complete(); err != nil {
			return err
		}
	}
	// 仅建索引时不需要 HTTP 服务，但需要先读取目录
	if o.Ingest.Only {
		o.Ingest.OnStart = true
		o.Ingest.Watch = false
	}
	return nil
}

// Validate validates the options.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	errs = append(errs, o.Tracing.Validate()...)
	errs = append(errs, o.Assistant.Validate()...)
	errs = append(errs, o.Index.Validate()...)
	errs = append(errs, o.Ingest.Validate()...)
	errs = append(errs, o.Database.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Chat.Validate()...)

	// 只校验实际启用的外部组件
	if o.Index.Backend == ragopts.IndexBackendMilvus {
		errs = append(errs, o.Milvus.Validate()...)
	}
	if o.redisRequired() {
		errs = append(errs, o.Redis.Validate()...)
	}
	return utilerrors.NewAggregate(errs)
}

func (o *Options) redisRequired() bool {
	return o.Assistant.SessionStore == ragopts.SessionStoreRedis || o.Embedding.CacheEnabled
}

// Config builds the server configuration from the options.
func (o *Options) Config() *Config {
	return &Config{
		HTTPOptions:      o.HTTP,
		LogOptions:       o.Log,
		TracingOptions:   o.Tracing,
		AssistantOptions: o.Assistant,
		IndexOptions:     o.Index,
		IngestOptions:    o.Ingest,
		MilvusOptions:    o.Milvus,
		DatabaseOptions:  o.Database,
		RedisOptions:     o.Redis,
		EmbeddingOptions: o.Embedding,
		ChatOptions:      o.Chat,
	}
}
