package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, levelFor(0))
	assert.Equal(t, zapcore.InfoLevel, levelFor(1))
	assert.Equal(t, zapcore.DebugLevel, levelFor(2))
	assert.Equal(t, zapcore.DebugLevel, levelFor(5))
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode, 1)
		require.NoError(t, err)
		l.With("mode", mode).Info("ready")
	}
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	require.NotNil(t, l)
	l.Debug("discarded", "key", 1)
}
