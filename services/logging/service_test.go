package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewService(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		svc, err := NewService(Config{Level: "info", Format: "json"})
		require.NoError(t, err)
		assert.NotNil(t, svc.Logger())
	})

	t.Run("console format", func(t *testing.T) {
		svc, err := NewService(Config{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.NotNil(t, svc.Logger())
	})
}

func TestNewNop(t *testing.T) {
	svc := NewNop()

	assert.NotNil(t, svc.Logger())
	assert.NotPanics(t, func() {
		svc.Info("discarded")
	})
}

func TestNilServiceIsSafe(t *testing.T) {
	var svc *Service

	assert.NotPanics(t, func() {
		svc.Debug("debug")
		svc.Info("info")
		svc.Warn("warn")
		svc.Error("error")
	})
	assert.Nil(t, svc.Logger())
	assert.NoError(t, svc.Sync())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("nonsense"))
}
