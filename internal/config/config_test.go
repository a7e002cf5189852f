package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "seller-metrics.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 10, cfg.Rank.Concurrency)
	assert.Equal(t, 3, cfg.Rank.MaxAttempts)
	assert.Equal(t, 1000, cfg.Rank.InitialBackoffMs)
	assert.Equal(t, 30000, cfg.Rank.MaxBackoffMs)
	assert.Equal(t, "https://sheets.googleapis.com/v4", cfg.Sheets.BaseURL)
	assert.Equal(t, "Campaigns.csv", cfg.Sources.Campaigns)
	assert.Equal(t, "B", cfg.Publish.ProductStartCol)
	assert.Equal(t, "Business", cfg.Publish.SummarySheetTitle)
	assert.Equal(t, 2, cfg.Publish.StartRow)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SELLERMETRICS_STORE_DRIVER", "postgres")
	t.Setenv("SELLERMETRICS_RANK_MAX_ATTEMPTS", "5")
	t.Setenv("SELLERMETRICS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Rank.MaxAttempts)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSpreadsheetID(t *testing.T) {
	cfg := SheetsConfig{SpreadsheetIDs: map[string]string{"uk": "sheet-uk"}}
	assert.Equal(t, "sheet-uk", cfg.SpreadsheetID("uk"))
	assert.Empty(t, cfg.SpreadsheetID("us"))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shouting"}))
}
