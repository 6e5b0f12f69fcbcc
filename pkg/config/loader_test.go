package config_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarosa2890/RUCord/pkg/config"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(newTestLogger(), "no-such-config-file")
	require.NoError(t, err, "a missing config file falls back to defaults")

	assert.Equal(t, ":5000", cfg.Server.Address)
	assert.Equal(t, 720*time.Hour, cfg.Server.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Server.ConnectionLimit.MaxPerUser)
	assert.Equal(t, "cycle", cfg.Server.ConnectionLimit.Mode)
	assert.Equal(t, 60*time.Second, cfg.Transport.ReadTimeout)
	assert.Equal(t, int64(65536), cfg.Transport.MaxMessageSize)
	assert.Equal(t, "instance", cfg.Storage.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RUCORD_SERVER_ADDRESS", ":9999")
	t.Setenv("RUCORD_LOGGING_LEVEL", "debug")

	cfg, err := config.Load(newTestLogger(), "no-such-config-file")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
