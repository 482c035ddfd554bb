package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 500, cfg.Embedder.ChunkSize)
	assert.Equal(t, 50, cfg.Embedder.ChunkOverlap)
	assert.Equal(t, uint(1000), cfg.Scraper.Radius)
	assert.Equal(t, 3, cfg.Scraper.MaxPages)
	assert.Len(t, cfg.Scraper.Seeds, 25)
	assert.Equal(t, "restaurants.changes", cfg.Nats.RestaurantsSubject)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
server:
  port: 9090
  publicBaseURL: https://bot.example.com/
postgres:
  host: db
  port: "5433"
  user: u
  password: p
  database: eats
  sslmode: disable
scraper:
  keyword: 拉麵
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_TOKEN", "token")
	t.Setenv("GOOGLE_API_KEY", "gkey")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://bot.example.com", cfg.Server.PublicBase())
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, "拉麵", cfg.Scraper.Keyword)
	assert.Equal(t, "secret", cfg.Line.ChannelSecret)
	assert.Equal(t, "token", cfg.Line.ChannelToken)
	assert.Equal(t, "gkey", cfg.Google.APIKey)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.Equal(t, "host=db user=u password=p dbname=eats port=5433 sslmode=disable", cfg.Postgres.ConnStr())
	assert.Contains(t, cfg.Postgres.ReplicationConnStr(), "replication=database")
}

func TestLog_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
	}
	for level, want := range tests {
		assert.Equal(t, want, Log{Level: level}.SlogLevel(), level)
	}
}
