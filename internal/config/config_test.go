package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultQdrantCollection, cfg.Qdrant.Collection)
	assert.Equal(t, DefaultTransport, cfg.Transport.Type)
	assert.Equal(t, 30*time.Minute, cfg.Retention.SessionIdle())
	assert.Equal(t, 72*time.Hour, cfg.Retention.InquiryAge())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[log]
level = "debug"
format = "json"

[server]
addr = ":9090"

[qdrant]
collection = "catalog"

[transport]
type = "telegram"

[transport.telegram]
bot_token = "123:abc"

[retention]
session_idle_ttl = "10m"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "catalog", cfg.Qdrant.Collection)
	assert.Equal(t, "telegram", cfg.Transport.Type)
	assert.Equal(t, "123:abc", cfg.Transport.Telegram.BotToken)
	assert.Equal(t, 10*time.Minute, cfg.Retention.SessionIdle())
	// untouched sections keep their defaults
	assert.Equal(t, DefaultEmbeddingModel, cfg.Embeddings.Model)
}

func TestRetentionFallsBackOnGarbage(t *testing.T) {
	r := RetentionConfig{SessionIdleTTL: "soon", InquiryTTL: "-1h"}
	assert.Equal(t, 30*time.Minute, r.SessionIdle())
	assert.Equal(t, 72*time.Hour, r.InquiryAge())
}
