package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8008", cfg.Port)
	assert.Equal(t, ":8008", cfg.Addr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)

	ws := cfg.WebSocket
	assert.Equal(t, "/websocket", ws.Path)
	assert.True(t, ws.AllowEmptyOrigin)
	assert.False(t, ws.RequireAuthForAdmin)
	assert.Equal(t, 30*time.Second, ws.HeartbeatInterval)
	assert.Equal(t, 60*time.Second, ws.DeadAfter)
	assert.Equal(t, 60*time.Second, ws.SweepInterval)
	assert.Equal(t, int64(4096), ws.MaxMessageBytes)
	assert.Equal(t, 32, ws.BroadcastParallelism)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, "JWT_SECRET is required", err.Error())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://studio.example.com,https://*.preview.app")
	t.Setenv("WS_ALLOW_EMPTY_ORIGIN", "false")
	t.Setenv("WS_REQUIRE_AUTH_FOR_ADMIN", "true")
	t.Setenv("WS_HEARTBEAT_INTERVAL", "10s")
	t.Setenv("WS_DEAD_AFTER", "25s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://studio.example.com", "https://*.preview.app"}, cfg.WebSocket.AllowedOrigins)
	assert.False(t, cfg.WebSocket.AllowEmptyOrigin)
	assert.True(t, cfg.WebSocket.RequireAuthForAdmin)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.HeartbeatInterval)
	assert.Equal(t, 25*time.Second, cfg.WebSocket.DeadAfter)
}

func TestLoad_InvalidTimings(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "dead threshold not above heartbeat",
			env:     map[string]string{"WS_HEARTBEAT_INTERVAL": "30s", "WS_DEAD_AFTER": "30s"},
			wantErr: "WS_DEAD_AFTER (30s) must exceed WS_HEARTBEAT_INTERVAL (30s)",
		},
		{
			name:    "zero sweep",
			env:     map[string]string{"WS_SWEEP_INTERVAL": "0s"},
			wantErr: "WS_SWEEP_INTERVAL must be positive",
		},
		{
			name:    "no parallelism",
			env:     map[string]string{"WS_BROADCAST_PARALLELISM": "0"},
			wantErr: "WS_BROADCAST_PARALLELISM must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_MalformedValue(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("WS_DEAD_AFTER", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load environment variables")
}
