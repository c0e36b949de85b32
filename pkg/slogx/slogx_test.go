package slogx

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warning"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewInstallsDefaultLogger(t *testing.T) {
	logger := New(Config{Service: "tellerauth", Version: "test", Format: "text"})
	require.NotNil(t, logger)
	require.Same(t, logger, slog.Default())
}
