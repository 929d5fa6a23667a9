package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kosarica/dialect-service/internal/dialect"
	"github.com/kosarica/dialect-service/internal/http/ratelimit"
	"github.com/kosarica/dialect-service/internal/sniffer"
)

// EnvPrefix is prepended to every environment variable override
const EnvPrefix = "DIALECT_SERVICE"

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	API       APIConfig       `mapstructure:"api"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Sniffer   SnifferConfig   `mapstructure:"sniffer"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig holds database connection configuration.
// An empty URL disables the sniff result cache.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// ResultTTL evicts cached results not refreshed for this long (0 keeps them forever)
	ResultTTL     time.Duration `mapstructure:"result_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RateLimitConfig holds rate limiting configuration for outgoing sample fetches
type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	MaxRetries        int `mapstructure:"max_retries"`
	InitialBackoffMs  int `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int `mapstructure:"max_backoff_ms"`
}

// Limits converts the section to the fetch client's rate limit config
func (r RateLimitConfig) Limits() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerSecond: r.RequestsPerSecond,
		MaxRetries:        r.MaxRetries,
		InitialBackoffMs:  r.InitialBackoffMs,
		MaxBackoffMs:      r.MaxBackoffMs,
	}
}

// APIConfig holds inbound API protection settings
type APIConfig struct {
	Key               string  `mapstructure:"key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// StorageConfig holds sample archive configuration
type StorageConfig struct {
	Type     string `mapstructure:"type"`
	BasePath string `mapstructure:"base_path"`
	Archive  bool   `mapstructure:"archive"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// SnifferConfig holds dialect inference settings.
// Character sets are given as plain strings, e.g. ",;\t|".
type SnifferConfig struct {
	SampleSize       int    `mapstructure:"sample_size"`
	Candidates       string `mapstructure:"candidates"`
	QuoteChars       string `mapstructure:"quote_chars"`
	Ranking          string `mapstructure:"ranking"`
	FallbackQuote    string `mapstructure:"fallback_quote"`
	DefaultDelimiter string `mapstructure:"default_delimiter"`
}

// EngineConfig converts the section into an inference engine config
func (s SnifferConfig) EngineConfig() (sniffer.Config, error) {
	cfg := sniffer.DefaultConfig()
	if s.SampleSize != 0 {
		cfg.SampleSize = s.SampleSize
	}
	if s.Candidates != "" {
		cfg.Candidates = []rune(unescape(s.Candidates))
	}
	if s.QuoteChars != "" {
		cfg.QuoteChars = []rune(s.QuoteChars)
	}

	ranking, err := sniffer.ParseRanking(s.Ranking)
	if err != nil {
		return sniffer.Config{}, fmt.Errorf("sniffer.ranking: %w", err)
	}
	cfg.Ranking = ranking

	if s.FallbackQuote != "" {
		r, err := dialect.SingleRune("sniffer.fallback_quote", s.FallbackQuote)
		if err != nil {
			return sniffer.Config{}, err
		}
		cfg.FallbackQuote = r
	}
	if s.DefaultDelimiter != "" {
		r, err := dialect.SingleRune("sniffer.default_delimiter", unescape(s.DefaultDelimiter))
		if err != nil {
			return sniffer.Config{}, err
		}
		cfg.DefaultDelimiter = r
	}
	return cfg, nil
}

// FetchConfig holds settings for reading samples from remote URLs
type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes"`
}

// TelemetryConfig holds OpenTelemetry exporter settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found
func loadEnvFile() error {
	envPaths := []string{
		".",
		"./config",
	}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables.
// Variables already present in the environment win.
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(strings.TrimPrefix(parts[0], "export "))
			value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")
			if _, set := os.LookupEnv(key); set {
				continue
			}
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds the unprefixed environment variables used by deployments
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST", "HOST")

	v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")

	v.BindEnv("storage.base_path", EnvPrefix+"_STORAGE_BASE_PATH", "STORAGE_PATH")

	v.BindEnv("api.key", EnvPrefix+"_API_KEY", "INTERNAL_API_KEY")

	v.BindEnv("telemetry.endpoint", EnvPrefix+"_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.service_name", EnvPrefix+"_TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 10<<20)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.result_ttl", 30*24*time.Hour)
	v.SetDefault("database.sweep_interval", 1*time.Hour)

	limits := ratelimit.DefaultConfig()
	v.SetDefault("rate_limit.requests_per_second", limits.RequestsPerSecond)
	v.SetDefault("rate_limit.max_retries", limits.MaxRetries)
	v.SetDefault("rate_limit.initial_backoff_ms", limits.InitialBackoffMs)
	v.SetDefault("rate_limit.max_backoff_ms", limits.MaxBackoffMs)

	v.SetDefault("api.key", "")
	v.SetDefault("api.requests_per_second", 10.0)
	v.SetDefault("api.burst", 20)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_path", "./data/samples")
	v.SetDefault("storage.archive", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("sniffer.sample_size", sniffer.DefaultSampleSize)
	v.SetDefault("sniffer.candidates", string(sniffer.DefaultCandidates()))
	v.SetDefault("sniffer.quote_chars", string(sniffer.DefaultQuoteChars))
	v.SetDefault("sniffer.ranking", sniffer.RankLowest.String())
	v.SetDefault("sniffer.fallback_quote", `"`)
	v.SetDefault("sniffer.default_delimiter", "")

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_bytes", 1<<20)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "dialect-service")
	v.SetDefault("telemetry.environment", "production")
}

// unescape turns the two-character sequence \t into a tab so that a tab
// delimiter can be written in YAML and environment variables.
func unescape(s string) string {
	return strings.ReplaceAll(s, `\t`, "\t")
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
