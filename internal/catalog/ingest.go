package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/vendorlink/vendorlink/internal/embeddings"
)

const ingestBatchSize = 64

// LoadFile parses a suppliers JSON file (an array of Supplier objects) and
// drops entries without a product or contact.
func LoadFile(path string) ([]Supplier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Supplier
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	suppliers := entries[:0]
	for _, entry := range entries {
		if strings.TrimSpace(entry.Product) == "" || strings.TrimSpace(entry.Contact) == "" {
			continue
		}
		suppliers = append(suppliers, entry)
	}
	return suppliers, nil
}

// Ingester embeds supplier entries and writes them to the store in batches.
type Ingester struct {
	embedder embeddings.Embedder
	store    *QdrantStore
	logger   *slog.Logger
}

// NewIngester creates an Ingester.
func NewIngester(log *slog.Logger, embedder embeddings.Embedder, store *QdrantStore) *Ingester {
	if log == nil {
		log = slog.Default()
	}
	return &Ingester{
		embedder: embedder,
		store:    store,
		logger:   log.With(slog.String("service", "ingest")),
	}
}

// Ingest embeds and upserts every supplier, returning the number written.
// A supplier whose embedding fails is skipped and logged, not fatal.
func (i *Ingester) Ingest(ctx context.Context, suppliers []Supplier) (int, error) {
	batch := make([]Point, 0, ingestBatchSize)
	written := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.store.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, supplier := range suppliers {
		vector, err := i.embedder.Embed(ctx, supplier.EmbedText())
		if err != nil {
			i.logger.Warn("embed supplier failed, skipping",
				slog.String("product", supplier.Product),
				slog.Any("error", err))
			continue
		}
		batch = append(batch, Point{
			ID:       uuid.NewString(),
			Vector:   vector,
			Supplier: supplier,
		})
		if len(batch) >= ingestBatchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}

	i.logger.Info("catalog ingest complete", slog.Int("written", written), slog.Int("total", len(suppliers)))
	return written, nil
}
