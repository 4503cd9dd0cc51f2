package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/drxagencia/dashboards/internal/config"
)

func TestZapConfig(t *testing.T) {
	cfg := zapConfig(config.Observability{LogLevel: "debug", LogEncoding: "json"})
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.Equal(t, "ts", cfg.EncoderConfig.TimeKey)

	cfg = zapConfig(config.Observability{LogLevel: "nonsense", LogEncoding: "console"})
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
}

func TestBuild(t *testing.T) {
	logger, err := Build(config.Observability{ServiceName: "painel", Environment: "test", LogLevel: "warn", LogEncoding: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
