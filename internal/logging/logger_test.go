package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with default config", func(t *testing.T) {
		logger, err := NewLogger(NewDefaultConfig(), nil)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.True(t, logger.Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Enabled(zapcore.DebugLevel))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Format = "xml"

		_, err := NewLogger(cfg, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "format")
	})

	t.Run("rejects config with no outputs", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Output.Stdout = false
		cfg.Output.OTEL = false

		_, err := NewLogger(cfg, nil)
		assert.Error(t, err)
	})

	t.Run("otel output without provider falls back to stdout", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Output.OTEL = true

		logger, err := NewLogger(cfg, nil)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})
}

func TestLogger_ContextFields(t *testing.T) {
	tl := NewTestLogger()

	ctx := WithRequestID(context.Background(), "req-123")
	tl.Info(ctx, "handled query", zap.String("department", "finance"))

	tl.AssertLogged(t, zapcore.InfoLevel, "handled query")
	tl.AssertField(t, "handled query", "request.id", "req-123")
	tl.AssertField(t, "handled query", "department", "finance")
}

func TestLogger_Named(t *testing.T) {
	tl := NewTestLogger()

	child := tl.Named("router")
	child.Info(context.Background(), "routing")

	entries := tl.FilterMessage("routing").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "router", entries[0].LoggerName)
}

func TestWithRequestID_Validation(t *testing.T) {
	assert.Panics(t, func() {
		WithRequestID(context.Background(), "")
	})
	assert.Panics(t, func() {
		WithRequestID(context.Background(), "has spaces")
	})
	assert.NotPanics(t, func() {
		WithRequestID(context.Background(), "abc-123_XYZ")
	})
}

func TestFromContext(t *testing.T) {
	t.Run("returns stored logger", func(t *testing.T) {
		tl := NewTestLogger()
		ctx := WithLogger(context.Background(), tl.Logger)
		assert.Same(t, tl.Logger, FromContext(ctx))
	})

	t.Run("returns nop logger when absent", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		// Must not panic when used.
		logger.Info(context.Background(), "ignored")
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults valid", mutate: func(c *Config) {}, wantErr: ""},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Format = "yaml" },
			wantErr: "format",
		},
		{
			name:    "negative caller skip",
			mutate:  func(c *Config) { c.Caller.Skip = -1 },
			wantErr: "caller skip",
		},
		{
			name:    "empty field value",
			mutate:  func(c *Config) { c.Fields = map[string]string{"env": ""} },
			wantErr: "empty value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
