package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerEnvDefaults(t *testing.T) {
	var env ServerEnv
	require.NoError(t, cleanenv.ReadEnv(&env))

	assert.Equal(t, "PORTAL_", env.EnvPrefix)
	assert.Equal(t, "/api/v1", env.APIPrefix)
	assert.Equal(t, 10*time.Second, env.ShutdownTimeout)
}

func TestServerEnvOverrides(t *testing.T) {
	t.Setenv("PORTAL_API_PREFIX", "/portal")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	var env ServerEnv
	require.NoError(t, cleanenv.ReadEnv(&env))

	assert.Equal(t, "/portal", env.APIPrefix)
	assert.Equal(t, 3*time.Second, env.ShutdownTimeout)
}

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		debug   bool
		warning bool
	}{
		{"debug", "text", true, true},
		{"warn", "json", false, true},
		{"bogus", "text", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := newLogger(ServerEnv{LogLevel: tt.level, LogFormat: tt.format})
			ctx := context.Background()
			assert.Equal(t, tt.debug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warning, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}
