package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresUpstream(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("API_KEY", "")
	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrMissingAPIURL)

	t.Setenv("API_URL", "https://api.example.test")
	_, err = LoadConfig()
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_URL", "https://api.example.test/")
	t.Setenv("API_KEY", "secret")
	t.Setenv("PG_DSN", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://api.example.test", cfg.APIURL)
	require.Equal(t, 20*time.Second, cfg.APITimeout)
	require.Equal(t, 5*time.Minute, cfg.CatalogTTL)
	require.Equal(t, 30*time.Second, cfg.GotenbergTimeout)
	require.False(t, cfg.JournalEnabled())
	require.False(t, cfg.IsProduction())
}

func TestJournalEnabled(t *testing.T) {
	var nilCfg *Config
	require.False(t, nilCfg.JournalEnabled())
	require.True(t, (&Config{PGDSN: "postgres://localhost/billdesk"}).JournalEnabled())
}
