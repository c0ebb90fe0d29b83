// Command catalogctl manages the supplier catalog collection: one-time batch
// ingestion of a suppliers file and wiping before a reindex.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vendorlink/vendorlink/internal/catalog"
	"github.com/vendorlink/vendorlink/internal/config"
	"github.com/vendorlink/vendorlink/internal/embeddings"
	"github.com/vendorlink/vendorlink/internal/logger"
	"github.com/vendorlink/vendorlink/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "catalogctl",
	Short:   "Manage the supplier catalog collection",
	Version: version.GetInfo(),
}

var ingestCmd = &cobra.Command{
	Use:   "ingest --file suppliers.json",
	Short: "Embed and upsert a suppliers file into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			return fmt.Errorf("--file is required")
		}

		suppliers, err := catalog.LoadFile(file)
		if err != nil {
			return err
		}
		if len(suppliers) == 0 {
			return fmt.Errorf("%s contains no usable suppliers", file)
		}

		embedder, store, err := connect()
		if err != nil {
			return err
		}

		ingester := catalog.NewIngester(logger.L, embedder, store)
		written, err := ingester.Ingest(cmd.Context(), suppliers)
		if err != nil {
			return err
		}
		fmt.Printf("ingested %d of %d suppliers\n", written, len(suppliers))
		return nil
	},
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Drop every supplier from the catalog collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := connect()
		if err != nil {
			return err
		}
		if err := store.Wipe(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("catalog wiped")
		return nil
	},
}

func connect() (embeddings.Embedder, *catalog.QdrantStore, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ec := cfg.Embeddings
	embedder, err := embeddings.NewOpenAIEmbedder(logger.L, ec.APIKey, ec.BaseURL, ec.Model, ec.Dimensions,
		time.Duration(ec.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, nil, err
	}

	qc := cfg.Qdrant
	store, err := catalog.NewQdrantStore(logger.L, qc.BaseURL, qc.APIKey, qc.Collection, embedder.Dimensions(),
		time.Duration(qc.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, nil, err
	}
	return embedder, store, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")
	ingestCmd.Flags().String("file", "", "suppliers JSON file to ingest")
	rootCmd.AddCommand(ingestCmd, wipeCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
