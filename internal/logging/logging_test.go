package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slidesync/internal/config"
)

func TestSetupWithWriter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		log     func(*slog.Logger)
		want    []string
		notWant []string
	}{
		{
			name: "text",
			cfg:  config.Config{LogLevel: "debug", LogFormat: "text"},
			log:  func(l *slog.Logger) { l.Info("hello") },
			want: []string{"msg=hello"},
		},
		{
			name: "json",
			cfg:  config.Config{LogLevel: "info", LogFormat: "json"},
			log:  func(l *slog.Logger) { l.Info("test-msg") },
			want: []string{`"msg":"test-msg"`},
		},
		{
			name: "quiet keeps errors only",
			cfg:  config.Config{LogLevel: "info", LogFormat: "text", Quiet: true},
			log: func(l *slog.Logger) {
				l.Info("should-not-appear")
				l.Error("should-appear")
			},
			want:    []string{"should-appear"},
			notWant: []string{"should-not-appear"},
		},
		{
			name: "info hides debug",
			cfg:  config.Config{LogLevel: "info", LogFormat: "text"},
			log: func(l *slog.Logger) {
				l.Debug("debug-hidden")
			},
			notWant: []string{"debug-hidden"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			cfg := tt.cfg
			logger := SetupWithWriter(&cfg, &buf)
			require.NotNil(t, logger)
			assert.Equal(t, logger.Handler(), slog.Default().Handler())

			tt.log(logger)

			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}

			for _, w := range tt.notWant {
				assert.NotContains(t, buf.String(), w)
			}
		})
	}
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "slidesync.log")
	cfg := &config.Config{LogLevel: "info", LogFormat: "text", LogFile: path}

	logger, closeFn, err := SetupFile(cfg)
	require.NoError(t, err)

	logger.Info("refresh scheduled")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refresh scheduled")
}

func TestSetupFile_WithoutFile(t *testing.T) {
	logger, closeFn, err := SetupFile(&config.Config{LogLevel: "info", LogFormat: "text"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closeFn())
}

func TestSetupFile_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, _, err := SetupFile(&config.Config{LogLevel: "info", LogFile: filepath.Join(blocker, "x.log")})
	assert.ErrorContains(t, err, "creating log directory")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer

	base := slog.New(slog.NewTextHandler(&buf, nil))
	Component(base, "coordinator").Info("hi")

	assert.Contains(t, buf.String(), "component=coordinator")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	assert.Equal(t, logger, FromContext(NewContext(context.Background(), logger)))
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}
