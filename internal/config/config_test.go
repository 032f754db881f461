package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TOGETHER_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("TOGETHER_SESSION_SECRET", "fedcba9876543210fedc")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "file", cfg.MemberSource)
	assert.Equal(t, "members.json", cfg.MemberFile)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "/Image/Dabompng.png", cfg.Images.DefaultProfile)
	assert.Equal(t, 256, cfg.SendBuffer)
	assert.Equal(t, 5*time.Second, cfg.Surreal.QueryTimeout)
	assert.False(t, cfg.Tracing.Enabled)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TOGETHER_ADDR", ":9090")
	t.Setenv("TOGETHER_LOG_FORMAT", "json")
	t.Setenv("TOGETHER_MEMBER_SOURCE", "surreal")
	t.Setenv("TOGETHER_SURREAL_URL", "ws://localhost:8000/rpc")
	t.Setenv("TOGETHER_SURREAL_NS", "together")
	t.Setenv("TOGETHER_SURREAL_DB", "members")
	t.Setenv("TOGETHER_TRACING_ENABLED", "true")
	t.Setenv("TOGETHER_TIMEZONE", "UTC")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "ws://localhost:8000/rpc", cfg.Surreal.URL)
	assert.Equal(t, "members", cfg.Surreal.Database)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"TOGETHER_JWT_SECRET": ""}},
		{"short jwt secret", map[string]string{"TOGETHER_JWT_SECRET": "short"}},
		{"unknown log format", map[string]string{"TOGETHER_LOG_FORMAT": "xml"}},
		{"surreal without url", map[string]string{"TOGETHER_MEMBER_SOURCE": "surreal"}},
		{"bad timezone", map[string]string{"TOGETHER_TIMEZONE": "Mars/Olympus"}},
		{"zero send buffer", map[string]string{"TOGETHER_SEND_BUFFER": "0"}},
		{"unparseable duration", map[string]string{"TOGETHER_TOKEN_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
