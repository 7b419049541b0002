package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStore(t *testing.T) {
	embedder := &policyTestEmbedder{vectorSize: 64}

	t.Run("defaults to chromem", func(t *testing.T) {
		store, err := NewStore(Config{
			Chromem: ChromemConfig{Path: t.TempDir(), VectorSize: 64},
		}, embedder, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &ChromemStore{}, store)
	})

	t.Run("explicit chromem", func(t *testing.T) {
		store, err := NewStore(Config{
			Provider: "chromem",
			Chromem:  ChromemConfig{Path: t.TempDir(), VectorSize: 64},
		}, embedder, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &ChromemStore{}, store)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := NewStore(Config{Provider: "pinecone"}, embedder, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "pinecone")
	})
}
