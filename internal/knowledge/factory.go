// Package knowledge provides knowledge base implementations.
package knowledge

import (
	"fmt"

	"go.uber.org/zap"
)

// Config selects and configures a knowledge store implementation.
type Config struct {
	// Provider selects the backend: "chromem" (default) or "qdrant"
	Provider string

	// Chromem configures the embedded chromem-go store
	Chromem ChromemConfig

	// Qdrant configures the external Qdrant gRPC store
	Qdrant QdrantConfig
}

// NewStore creates a Store based on the configuration.
//
// The chromem provider is the default: embedded, persistent, and requires
// no external service. The qdrant provider needs a running Qdrant server
// reachable over gRPC.
//
// Example usage:
//
//	store, err := knowledge.NewStore(cfg, embedder, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
func NewStore(cfg Config, embedder Embedder, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem", "":
		return NewChromemStore(cfg.Chromem, embedder, logger)
	case "qdrant":
		return NewQdrantStore(cfg.Qdrant, embedder, logger)
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q (supported: chromem, qdrant)", ErrInvalidConfig, cfg.Provider)
	}
}
