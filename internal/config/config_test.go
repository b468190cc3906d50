package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CONVERTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv(legacyAPIKeyEnv, "")
	v := newTestViper()
	v.Set("exchangerates_api.api_key", "key")

	cfg, err := fromViper(v)

	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "http://api.exchangeratesapi.io", cfg.ExchangeRatesAPI.BaseURL)
	assert.Equal(t, "key", cfg.ExchangeRatesAPI.APIKey)
	assert.Equal(t, "@every 6h", cfg.Worker.SyncCron)
	assert.Equal(t, int32(6), cfg.Conversion.Precision)
	assert.Equal(t, "postgres://postgres:postgres@db:5432/converterdb?sslmode=disable", cfg.Database.DSN)
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("CONVERTER_SERVER_PORT", "9090")
	t.Setenv("CONVERTER_EXCHANGERATES_API_API_KEY", "from-env")

	cfg, err := fromViper(newTestViper())

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.ExchangeRatesAPI.APIKey)
}

func TestFromViper_LegacyAPIKey(t *testing.T) {
	t.Setenv(legacyAPIKeyEnv, "legacy")

	cfg, err := fromViper(newTestViper())

	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.ExchangeRatesAPI.APIKey)
}

func TestFromViper_MissingAPIKey(t *testing.T) {
	t.Setenv(legacyAPIKeyEnv, "")

	_, err := fromViper(newTestViper())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchangerates_api.api_key is required")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()

	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"server.port must be positive",
		"database.host is required",
		"redis.asynq_addr is required",
		"redis.cache_addr is required",
		"exchangerates_api.api_key is required",
		"worker.concurrency must be positive",
		"cache.symbols_ttl_sec must be positive",
	} {
		assert.Contains(t, msg, want)
	}
}
