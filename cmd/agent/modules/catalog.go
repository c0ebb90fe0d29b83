package modules

import (
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/vendorlink/vendorlink/internal/catalog"
	"github.com/vendorlink/vendorlink/internal/config"
	"github.com/vendorlink/vendorlink/internal/embeddings"
	"github.com/vendorlink/vendorlink/internal/match"
)

// CatalogModule provides the embedder, the supplier index, and the matcher.
var CatalogModule = fx.Module(
	"catalog",
	fx.Provide(
		provideEmbedder,
		provideQdrantStore,
		provideMatchEngine,
	),
)

func provideEmbedder(log *slog.Logger, cfg config.Config) (embeddings.Embedder, error) {
	ec := cfg.Embeddings
	embedder, err := embeddings.NewOpenAIEmbedder(log, ec.APIKey, ec.BaseURL, ec.Model, ec.Dimensions,
		time.Duration(ec.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("embedder init: %w", err)
	}
	return embedder, nil
}

func provideQdrantStore(log *slog.Logger, cfg config.Config, embedder embeddings.Embedder) (*catalog.QdrantStore, error) {
	qc := cfg.Qdrant
	store, err := catalog.NewQdrantStore(log, qc.BaseURL, qc.APIKey, qc.Collection, embedder.Dimensions(),
		time.Duration(qc.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("qdrant init: %w", err)
	}
	return store, nil
}

func provideMatchEngine(log *slog.Logger, embedder embeddings.Embedder, store *catalog.QdrantStore) *match.Engine {
	return match.NewEngine(log, embedder, store)
}
