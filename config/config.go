package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddress     = ":8080"
	defaultProviderBaseURL = "https://api.aviationstack.com/v1"
	defaultProviderTimeout = 10
	defaultDemoFlightCode  = "UA102"
	defaultRecentLimit     = 5
	defaultStatsInterval   = 60
	defaultLogLevel        = "info"

	// AccessKeyEnv overrides provider.access_key when set.
	AccessKeyEnv = "AVIATIONSTACK_API_KEY"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Provider  ProviderConfig  `yaml:"provider"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Recent    RecentConfig    `yaml:"recent"`
	Worker    WorkerConfig    `yaml:"worker"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level name to a slog level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessKey      string `yaml:"access_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// HasCredential reports whether an upstream access key is configured.
func (p ProviderConfig) HasCredential() bool {
	return strings.TrimSpace(p.AccessKey) != ""
}

type SyntheticConfig struct {
	DemoFlightCode string `yaml:"demo_flight_code"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled is false when no address is configured; the in-memory store is used then.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	LookupTopic string   `yaml:"lookup_topic"`
	GroupID     string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.LookupTopic != ""
}

type RecentConfig struct {
	Limit int `yaml:"limit"`
}

type WorkerConfig struct {
	StatsIntervalSeconds int `yaml:"stats_interval_seconds"`
}

// LoadConfig reads the yaml file at path, then applies the .env file and
// environment overrides. A missing .env file is not an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if key := os.Getenv(AccessKeyEnv); key != "" {
		cfg.Provider.AccessKey = key
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = defaultHTTPAddress
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	c.Provider.BaseURL = strings.TrimRight(c.Provider.BaseURL, "/")
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = defaultProviderTimeout
	}
	if c.Synthetic.DemoFlightCode == "" {
		c.Synthetic.DemoFlightCode = defaultDemoFlightCode
	}
	if c.Recent.Limit <= 0 {
		c.Recent.Limit = defaultRecentLimit
	}
	if c.Worker.StatsIntervalSeconds <= 0 {
		c.Worker.StatsIntervalSeconds = defaultStatsInterval
	}
}
