// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// legacyAPIKeyEnv is the variable older deployments used for the provider access key.
const legacyAPIKeyEnv = "RATE_API_SECRET"

// Config holds the complete application configuration.
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	ExchangeRatesAPI ExchangeRatesAPIConfig `mapstructure:"exchangerates_api"`
	Frankfurter      FrankfurterConfig      `mapstructure:"frankfurter"`
	Worker           WorkerConfig
	Cache            CacheConfig
	Conversion       ConversionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                int  `mapstructure:"port"`
	ServeSwagger        bool `mapstructure:"serve_swagger"`
	ServeAsynqmon       bool `mapstructure:"serve_asynqmon"`
	EnableServiceWorker bool `mapstructure:"enable_service_worker"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for the Asynq task queue (required).
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for the currency catalogue cache (required).
}

// ExchangeRatesAPIConfig holds settings for the exchangeratesapi.io provider.
type ExchangeRatesAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// FrankfurterConfig holds settings for the optional Frankfurter catalogue source.
// An empty BaseURL disables it.
type FrankfurterConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency      int    `mapstructure:"concurrency"`
	MaxRetry         int    `mapstructure:"max_retry"`
	TimeoutSec       int    `mapstructure:"timeout_sec"`
	CheckIntervalSec int    `mapstructure:"check_interval_sec"`
	SyncCron         string `mapstructure:"sync_cron"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	SymbolsTTLSec int `mapstructure:"symbols_ttl_sec"`
}

// ConversionConfig holds settings of the conversion endpoint.
type ConversionConfig struct {
	Precision int32 `mapstructure:"precision"`
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config search paths
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	v.SetEnvPrefix("CONVERTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.serve_swagger", true)
	v.SetDefault("server.serve_asynqmon", true)
	v.SetDefault("server.enable_service_worker", false)
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "converterdb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	v.SetDefault("redis.cache_addr", "redis_cache:6381")
	v.SetDefault("exchangerates_api.base_url", "http://api.exchangeratesapi.io")
	v.SetDefault("exchangerates_api.api_key", "")
	v.SetDefault("exchangerates_api.timeout_sec", 5)
	v.SetDefault("frankfurter.base_url", "https://api.frankfurter.dev/v1")
	v.SetDefault("frankfurter.timeout_sec", 5)
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.max_retry", 3)
	v.SetDefault("worker.timeout_sec", 30)
	v.SetDefault("worker.check_interval_sec", 5)
	v.SetDefault("worker.sync_cron", "@every 6h")
	v.SetDefault("cache.symbols_ttl_sec", 3600)
	v.SetDefault("conversion.precision", 6)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.ExchangeRatesAPI.APIKey == "" {
		cfg.ExchangeRatesAPI.APIKey = os.Getenv(legacyAPIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeSec <= 0 {
		cfg.Database.ConnMaxLifetimeSec = 300
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set CONVERTER_REDIS_ASYNQ_ADDR)"))
	}
	if c.Redis.CacheAddr == "" {
		errs = append(errs, fmt.Errorf("redis.cache_addr is required (set CONVERTER_REDIS_CACHE_ADDR)"))
	}

	if c.ExchangeRatesAPI.BaseURL == "" {
		errs = append(errs, fmt.Errorf("exchangerates_api.base_url is required"))
	}
	if c.ExchangeRatesAPI.APIKey == "" {
		errs = append(errs, fmt.Errorf("exchangerates_api.api_key is required (set CONVERTER_EXCHANGERATES_API_API_KEY or %s)", legacyAPIKeyEnv))
	}
	if c.ExchangeRatesAPI.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("exchangerates_api.timeout_sec must be positive, got %d", c.ExchangeRatesAPI.Timeout))
	}
	if c.Frankfurter.BaseURL != "" && c.Frankfurter.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("frankfurter.timeout_sec must be positive, got %d", c.Frankfurter.Timeout))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.CheckIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.check_interval_sec must be positive, got %d", c.Worker.CheckIntervalSec))
	}

	if c.Cache.SymbolsTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.symbols_ttl_sec must be positive, got %d", c.Cache.SymbolsTTLSec))
	}
	if c.Conversion.Precision < 0 || c.Conversion.Precision > 18 {
		errs = append(errs, fmt.Errorf("conversion.precision must be between 0 and 18, got %d", c.Conversion.Precision))
	}

	return errors.Join(errs...)
}
