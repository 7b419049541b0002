// Package config provides configuration loading for deskd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables. See Load for precedence and mapping rules.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/deskd/internal/logging"
	"github.com/fyrsmithlabs/deskd/internal/telemetry"
)

// Config holds the complete deskd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    logging.Config   `koanf:"logging"`
	Telemetry  telemetry.Config `koanf:"telemetry"`
	LLM        LLMConfig        `koanf:"llm"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Knowledge  KnowledgeConfig  `koanf:"knowledge"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Ingest     IngestConfig     `koanf:"ingest"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LLMConfig holds configuration for the shared language model client.
//
// One client instance serves routing, department answering, and merging.
// Temperature defaults to 0 so routing output stays deterministic.
type LLMConfig struct {
	Provider          string   `koanf:"provider"` // groq, openai, ollama
	Model             string   `koanf:"model"`
	BaseURL           string   `koanf:"base_url"` // empty selects the provider default
	APIKey            Secret   `koanf:"api_key"`
	Temperature       float64  `koanf:"temperature"`
	MaxTokens         int      `koanf:"max_tokens"`
	Timeout           Duration `koanf:"timeout"`
	RequestsPerSecond float64  `koanf:"requests_per_second"`
	MaxRetries        int      `koanf:"max_retries"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	Provider string   `koanf:"provider"` // tei, ollama, fastembed
	Model    string   `koanf:"model"`
	BaseURL  string   `koanf:"base_url"`
	CacheDir string   `koanf:"cache_dir"` // fastembed model cache
	Timeout  Duration `koanf:"timeout"`
}

// KnowledgeConfig holds knowledge store configuration.
type KnowledgeConfig struct {
	Provider string        `koanf:"provider"` // chromem, qdrant
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig holds configuration for the embedded chromem store.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
	Compress   bool   `koanf:"compress"`
}

// QdrantConfig holds configuration for the remote Qdrant store.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"` // gRPC port
	APIKey     Secret `koanf:"api_key"`
	UseTLS     bool   `koanf:"use_tls"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
}

// PipelineConfig holds query pipeline tuning knobs.
type PipelineConfig struct {
	TopK        int `koanf:"top_k"`        // entries retrieved per department
	MaxParallel int `koanf:"max_parallel"` // concurrent department executions
}

// IngestConfig holds knowledge-base build configuration.
type IngestConfig struct {
	Splitter      string `koanf:"splitter"` // section, recursive
	MinSectionLen int    `koanf:"min_section_len"`
	ChunkSize     int    `koanf:"chunk_size"`
	ChunkOverlap  int    `koanf:"chunk_overlap"`
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	// Logging defaults
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if !cfg.Logging.Output.Stdout && !cfg.Logging.Output.OTEL {
		cfg.Logging.Output.Stdout = true
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "deskd"}
	}

	// Telemetry defaults
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
		cfg.Telemetry.Insecure = true
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "deskd"
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = "0.1.0"
	}
	if cfg.Telemetry.Sampling.Rate == 0 {
		cfg.Telemetry.Sampling.Rate = 1.0
	}
	if cfg.Telemetry.Metrics.ExportInterval == 0 {
		cfg.Telemetry.Metrics.ExportInterval = 15 * time.Second
	}
	if cfg.Telemetry.Shutdown.Timeout == 0 {
		cfg.Telemetry.Shutdown.Timeout = 5 * time.Second
	}

	// LLM defaults
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "groq"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.1-8b-instant"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = Duration(60 * time.Second)
	}
	if cfg.LLM.RequestsPerSecond == 0 {
		cfg.LLM.RequestsPerSecond = 2
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}

	// Embeddings defaults
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "tei"
	}
	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.Embeddings.Timeout == 0 {
		cfg.Embeddings.Timeout = Duration(30 * time.Second)
	}

	// Knowledge store defaults (chromem is default - embedded, no external deps)
	if cfg.Knowledge.Provider == "" {
		cfg.Knowledge.Provider = "chromem"
	}
	if cfg.Knowledge.Chromem.Path == "" {
		cfg.Knowledge.Chromem.Path = "~/.config/deskd/knowledge"
	}
	if cfg.Knowledge.Chromem.Collection == "" {
		cfg.Knowledge.Chromem.Collection = "company_policies"
	}
	if cfg.Knowledge.Chromem.VectorSize == 0 {
		cfg.Knowledge.Chromem.VectorSize = 384 // bge-small-en-v1.5 dimensions
	}
	if cfg.Knowledge.Qdrant.Host == "" {
		cfg.Knowledge.Qdrant.Host = "localhost"
	}
	if cfg.Knowledge.Qdrant.Port == 0 {
		cfg.Knowledge.Qdrant.Port = 6334
	}
	if cfg.Knowledge.Qdrant.Collection == "" {
		cfg.Knowledge.Qdrant.Collection = "company_policies"
	}
	if cfg.Knowledge.Qdrant.VectorSize == 0 {
		cfg.Knowledge.Qdrant.VectorSize = 384
	}

	// Pipeline defaults
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 4
	}
	if cfg.Pipeline.MaxParallel == 0 {
		cfg.Pipeline.MaxParallel = 5
	}

	// Ingest defaults
	if cfg.Ingest.Splitter == "" {
		cfg.Ingest.Splitter = "section"
	}
	if cfg.Ingest.MinSectionLen == 0 {
		cfg.Ingest.MinSectionLen = 50
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 800
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 100
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("server shutdown_timeout must be positive")
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	switch c.LLM.Provider {
	case "groq", "openai", "ollama":
	default:
		return fmt.Errorf("unknown llm provider %q (supported: groq, openai, ollama)", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be in [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.RequestsPerSecond <= 0 {
		return fmt.Errorf("llm requests_per_second must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm max_retries cannot be negative")
	}

	switch c.Embeddings.Provider {
	case "tei", "ollama", "fastembed":
	default:
		return fmt.Errorf("unknown embeddings provider %q (supported: tei, ollama, fastembed)", c.Embeddings.Provider)
	}

	switch c.Knowledge.Provider {
	case "chromem":
		if c.Knowledge.Chromem.Path == "" {
			return fmt.Errorf("knowledge chromem path is required")
		}
		if c.Knowledge.Chromem.VectorSize <= 0 {
			return fmt.Errorf("knowledge chromem vector_size must be positive")
		}
	case "qdrant":
		if c.Knowledge.Qdrant.Host == "" {
			return fmt.Errorf("knowledge qdrant host is required")
		}
		if c.Knowledge.Qdrant.Port < 1 || c.Knowledge.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid knowledge qdrant port: %d", c.Knowledge.Qdrant.Port)
		}
	default:
		return fmt.Errorf("unknown knowledge provider %q (supported: chromem, qdrant)", c.Knowledge.Provider)
	}

	if c.Pipeline.TopK < 1 {
		return fmt.Errorf("pipeline top_k must be at least 1, got %d", c.Pipeline.TopK)
	}
	if c.Pipeline.MaxParallel < 1 {
		return fmt.Errorf("pipeline max_parallel must be at least 1, got %d", c.Pipeline.MaxParallel)
	}

	switch c.Ingest.Splitter {
	case "section":
		if c.Ingest.MinSectionLen < 1 {
			return fmt.Errorf("ingest min_section_len must be at least 1")
		}
	case "recursive":
		if c.Ingest.ChunkSize < 1 {
			return fmt.Errorf("ingest chunk_size must be at least 1")
		}
		if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
			return fmt.Errorf("ingest chunk_overlap must be in [0, chunk_size)")
		}
	default:
		return fmt.Errorf("unknown ingest splitter %q (supported: section, recursive)", c.Ingest.Splitter)
	}

	return nil
}
