package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TICKET_API_URL", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	require.Equal(t, "0.0.0.0:8000", cfg.App.Addr())
	require.Equal(t, 20, cfg.Backend.PageSize)
	require.Equal(t, 15*time.Second, cfg.Backend.RequestTimeout())
	require.Equal(t, "triage", cfg.Cache.KeyPrefix)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TICKET_API_URL", "http://tickets.internal:9000")
	t.Setenv("TICKET_API_TIMEOUT_SECONDS", "0")
	t.Setenv("CACHE_PERSIST_TICKETS", "true")
	t.Setenv("TICKETS_MAX_PAGE_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://tickets.internal:9000", cfg.Backend.BaseURL)
	require.Equal(t, time.Duration(0), cfg.Backend.RequestTimeout())
	require.True(t, cfg.Cache.PersistTickets)
	require.Equal(t, 100, cfg.App.MaxPageSize)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}
