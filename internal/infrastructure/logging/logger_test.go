package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.ErrorContains(t, err, "loud")
}

func TestNewWritesJSONToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Config{Level: "warn", OutputPaths: []string{out}})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("visible", zap.String("path", "/tmp/x"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"message":"visible"`)
	assert.Contains(t, string(data), `"path":"/tmp/x"`)
}

func TestSetLevel(t *testing.T) {
	logger, err := New(Config{Level: "info", OutputPaths: []string{filepath.Join(t.TempDir(), "l.log")}})
	require.NoError(t, err)

	assert.Equal(t, zapcore.InfoLevel, logger.Level())
	require.NoError(t, logger.SetLevel("debug"))
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.Error(t, logger.SetLevel("nope"))
}

func TestTee(t *testing.T) {
	logger, err := New(Config{Level: "info", OutputPaths: []string{filepath.Join(t.TempDir(), "l.log")}})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	teed := logger.Tee(core)
	teed.Info("copied", zap.Int("n", 1))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "copied", logs.All()[0].Message)

	require.NoError(t, teed.SetLevel("debug"))
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
}

func TestStdioSafe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "stdout only", in: []string{"stdout"}, want: []string{"stderr"}},
		{name: "mixed", in: []string{"stdout", "/var/log/fs.log"}, want: []string{"/var/log/fs.log"}},
		{name: "device path", in: []string{"/dev/stdout", "stderr"}, want: []string{"stderr"}},
		{name: "empty", in: nil, want: []string{"stderr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{OutputPaths: tt.in}
			assert.Equal(t, tt.want, cfg.StdioSafe().OutputPaths)
		})
	}
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, []string{"stderr"}, DefaultConfig().OutputPaths)
	assert.True(t, DevelopmentConfig().Development)
	assert.NotNil(t, NewDefault())
	assert.NotNil(t, NewNop())
}
