package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/config"
	"github.com/fyrsmithlabs/deskd/internal/department"
	"github.com/fyrsmithlabs/deskd/internal/embeddings"
	"github.com/fyrsmithlabs/deskd/internal/ingest"
	"github.com/fyrsmithlabs/deskd/internal/knowledge"
)

var (
	indexConfigPath string
	indexSource     string
	indexReset      bool
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexConfigPath, "config", "", "path to config file (default ~/.config/deskd/config.yaml)")
	indexCmd.Flags().StringVar(&indexSource, "source", "", "policy document to ingest (txt, md, or pdf)")
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "drop the existing knowledge base before ingesting")
}

// indexCmd builds the knowledge base from a policy document
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the knowledge base from a policy document",
	Long: `Build the deskd knowledge base by ingesting a policy document.

The document is split into sections, each section is tagged with its
department and embedded, and the vectors are written to the knowledge
store from the daemon configuration. The daemon does not need to be
running; this command opens the store directly.

Examples:
  # Ingest the company handbook
  deskctl index --source handbook.txt

  # Rebuild from scratch
  deskctl index --source handbook.txt --reset

  # Use a specific config file
  deskctl index --config ./deskd.yaml --source policies.pdf`,
	RunE: runIndex,
}

// runIndex handles the index command
func runIndex(cmd *cobra.Command, args []string) error {
	if indexSource == "" {
		return fmt.Errorf("--source is required")
	}

	cfg, err := config.Load(indexConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if indexReset {
		if err := resetKnowledge(cmd, cfg); err != nil {
			return err
		}
	}

	embedderCfg, err := cfg.EmbeddingsProviderConfig()
	if err != nil {
		return fmt.Errorf("failed to resolve embeddings config: %w", err)
	}
	embedder, err := embeddings.NewProvider(embedderCfg)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer embedder.Close()

	storeCfg, err := cfg.KnowledgeStoreConfig()
	if err != nil {
		return fmt.Errorf("failed to resolve knowledge config: %w", err)
	}
	store, err := knowledge.NewStore(storeCfg, embedder, zap.NewNop())
	if err != nil {
		return fmt.Errorf("failed to open knowledge store: %w", err)
	}
	defer store.Close()

	splitter, err := buildSplitter(cfg)
	if err != nil {
		return err
	}

	builder, err := ingest.NewBuilder(store, splitter, zap.NewNop())
	if err != nil {
		return err
	}

	ctx := context.Background()
	report, err := builder.Build(ctx, indexSource)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", indexSource, err)
	}

	printReport(ctx, cmd, store, report)
	return nil
}

// buildSplitter selects the splitter from the ingest configuration. Unknown
// names are rejected by config validation, so the default case is "section".
func buildSplitter(cfg *config.Config) (ingest.Splitter, error) {
	switch cfg.Ingest.Splitter {
	case "recursive":
		return ingest.NewRecursiveSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	default:
		return ingest.NewSectionSplitter(cfg.Ingest.MinSectionLen), nil
	}
}

// resetKnowledge drops the existing store. Only the embedded chromem store
// can be reset locally; a qdrant deployment is shared and must be cleared
// server-side.
func resetKnowledge(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.Knowledge.Provider != "" && cfg.Knowledge.Provider != "chromem" {
		return fmt.Errorf("--reset only supports the chromem provider; drop the %q collection on the qdrant server instead", cfg.Knowledge.Qdrant.Collection)
	}

	path, err := config.ExpandHome(cfg.Knowledge.Chromem.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve knowledge path: %w", err)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to reset knowledge store at %s: %w", path, err)
	}

	cmd.Printf("Reset knowledge store at %s\n", path)
	return nil
}

// printReport summarizes the ingestion run
func printReport(ctx context.Context, cmd *cobra.Command, store knowledge.Store, report *ingest.Report) {
	cmd.Printf("Ingested %s: %d sections\n", report.Source, report.Sections)

	for _, dept := range department.All() {
		if n, ok := report.PerDepartment[dept]; ok {
			cmd.Printf("  %-12s %d\n", dept.Key(), n)
		}
	}

	if total, err := store.Count(ctx); err == nil {
		cmd.Printf("Knowledge base now holds %d entries\n", total)
	}
}
