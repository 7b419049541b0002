package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDimensionFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"BAAI/bge-small-en-v1.5", 384},
		{"BAAI/bge-base-en-v1.5", 768},
		{"fast-bge-base-en", 768},
		{"nomic-embed-text", 768},
		{"mxbai-embed-large", 1024},
		{"all-minilm", 384},
		{"some-base-model", 768},
		{"some-large-model", 1024},
		{"some-small-model", 384},
		{"totally-unknown", 384},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, detectDimensionFromModel(tt.model))
		})
	}
}

func TestNewProvider_TEI(t *testing.T) {
	provider, err := NewProvider(ProviderConfig{
		Provider: "tei",
		Model:    "BAAI/bge-small-en-v1.5",
		BaseURL:  "http://localhost:8080",
	})
	require.NoError(t, err)
	defer provider.Close()

	assert.Equal(t, 384, provider.Dimension())
}

func TestNewProvider_TEI_MissingBaseURL(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Provider: "tei"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewProvider_Ollama(t *testing.T) {
	provider, err := NewProvider(ProviderConfig{
		Provider: "ollama",
		Model:    "mxbai-embed-large",
		BaseURL:  "http://localhost:11434",
	})
	require.NoError(t, err)
	defer provider.Close()

	assert.Equal(t, 1024, provider.Dimension())
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Provider: "openai"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "openai")
}
