package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
app:
  run_mode: prod
prosper:
  base_url: https://api.example.test
  client_id: cid
  client_secret: csecret
  username: investor@example.test
  password: pw
  timeout: 5s
investment:
  minimum_amount: 50
  global_filters:
    listing_category_id: "2"
  filter_set_path: rules.yml
database:
  in_memory: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileValuesAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, RunModeProd, cfg.App.RunMode)
	assert.Equal(t, "https://api.example.test", cfg.Prosper.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Prosper.Timeout)
	assert.Equal(t, 5000, cfg.Prosper.ListingsLimit)
	assert.Equal(t, 50.0, cfg.Investment.MinimumAmount)
	assert.Equal(t, 25, cfg.Investment.OrderListLimit)
	assert.Equal(t, 100, cfg.Investment.MaxBatchSize)
	assert.Equal(t, "2", cfg.Investment.GlobalFilters["listing_category_id"])
	assert.Equal(t, "rules.yml", cfg.Investment.FilterSetPath)
	assert.True(t, cfg.Database.InMemory)
	assert.Equal(t, []string{"stdout"}, cfg.Logging.OutputPaths)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Notification.Gmail.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("INVESTOR_APP_RUN_MODE", "test")
	t.Setenv("INVESTOR_PROSPER_PASSWORD", "from-env")
	t.Setenv("INVESTOR_NOTIFICATION_TO", "a@example.test,b@example.test")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, RunModeTest, cfg.App.RunMode)
	assert.Equal(t, "from-env", cfg.Prosper.Password)
	assert.Equal(t, []string{"a@example.test", "b@example.test"}, cfg.Notification.To)
}

func TestLoad_PartialGlobalFiltersKeepDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"listing_category_id": "2",
		"has_mortgage":        "true",
		"income_range":        "4,5,6",
	}, cfg.Investment.GlobalFilters)
}

func TestLoadFromEnv_OverridesSingleGlobalFilter(t *testing.T) {
	for key, value := range map[string]string{
		"INVESTOR_PROSPER_CLIENT_ID":     "cid",
		"INVESTOR_PROSPER_CLIENT_SECRET": "csecret",
		"INVESTOR_PROSPER_USERNAME":      "investor@example.test",
		"INVESTOR_PROSPER_PASSWORD":      "pw",
	} {
		t.Setenv(key, value)
	}
	t.Setenv("INVESTOR_INVESTMENT_GLOBAL_FILTERS_HAS_MORTGAGE", "false")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "false", cfg.Investment.GlobalFilters["has_mortgage"])
	assert.Equal(t, "1", cfg.Investment.GlobalFilters["listing_category_id"])
	assert.Equal(t, "4,5,6", cfg.Investment.GlobalFilters["income_range"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidConfig(t *testing.T) {
	_, err := Load(writeConfig(t, "investment:\n  minimum_amount: 0\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "investment.minimum_amount")
	assert.Contains(t, err.Error(), "prosper.client_id")
}

func TestValidate_GmailRequiresRecipients(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg.Notification.Gmail = GmailConfig{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "notification.to")
}

func TestValidate_BatchSizeBounded(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg.Investment.MaxBatchSize = 101
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
