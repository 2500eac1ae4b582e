// Package assistant wires the retrieval-augmented question answering service.
package assistant

import (
	"context"

	"github.com/kart-io/rag-assistant/pkg/infra/app"
)

const appDescription = `RAG Assistant

Answers questions about a private document corpus by retrieving the most
relevant passages and passing them to a language model.

This server provides:
  - Document ingestion (txt, md, pdf, docx, html) into a vector index
  - Relevance-gated answers with cited sources
  - Per-session conversation history
  - Interaction logging, feedback and quality reports

Examples:
  # Start with default configuration
  assistant

  # Index the documents directory before serving
  assistant --ingest.on-start --ingest.dir=./documents

  # Rebuild the index and exit
  assistant --ingest.only --ingest.clear

  # Use Milvus instead of the embedded SQLite index
  assistant --index.backend=milvus --milvus.address=localhost:19530

  # Use config file
  assistant -c /etc/assistant/assistant.yaml

Configuration:
  Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (prefix: ASSISTANT_)
  - Configuration file (YAML, default ./configs/assistant.yaml)
  - Default values (lowest priority)`

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("Document question answering service"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run runs the assistant with the given options.
func Run(opts *Options) error {
	ctx := context.Background()
	srv, err := opts.Config().NewServer(ctx)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
