package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"streamer-stats/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Source    SourceConfig    `mapstructure:"source"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SourceConfig covers analytics API access.
type SourceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Platform       string        `mapstructure:"platform"`
	ClientID       string        `mapstructure:"client_id"`
	Token          string        `mapstructure:"token"`
	TestingMode    bool          `mapstructure:"testing_mode"`
	TopN           int           `mapstructure:"top_n"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PoliteInterval time.Duration `mapstructure:"polite_interval"`
	Workers        int           `mapstructure:"workers"`
	RetryMax       int           `mapstructure:"retry_max"`
	RetryWaitMin   time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax   time.Duration `mapstructure:"retry_wait_max"`
}

// SchedulerConfig governs the watch-mode cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STREAMERSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindLegacyEnv(v)
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// bindLegacyEnv wires the plain variable names the deployment already uses.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("source.client_id", "STREAMERSTATS_SOURCE_CLIENT_ID", "CLIENT_ID")
	_ = v.BindEnv("source.token", "STREAMERSTATS_SOURCE_TOKEN", "TOKEN")
	_ = v.BindEnv("database.password", "STREAMERSTATS_DATABASE_PASSWORD", "PGPASSWORD")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "streamerstats")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.name", "twitchdata")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("source.base_url", "https://streamscharts.com/api/jazz")
	v.SetDefault("source.platform", "twitch")
	v.SetDefault("source.testing_mode", false)
	v.SetDefault("source.top_n", 20)
	v.SetDefault("source.request_timeout", "10s")
	v.SetDefault("source.polite_interval", "200ms")
	v.SetDefault("source.workers", 3)
	v.SetDefault("source.retry_max", 0)
	v.SetDefault("source.retry_wait_min", "1s")
	v.SetDefault("source.retry_wait_max", "10s")

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
// Missing API credentials are fatal here, before any network or database
// activity happens.
func (c *Config) Validate() error {
	if c.Source.ClientID == "" {
		return fmt.Errorf("source.client_id is required (set CLIENT_ID)")
	}
	if c.Source.Token == "" {
		return fmt.Errorf("source.token is required (set TOKEN)")
	}
	if c.Source.TopN <= 0 {
		return fmt.Errorf("source.top_n must be greater than zero")
	}
	if c.Source.Workers <= 0 {
		return fmt.Errorf("source.workers must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Database.Port <= 0 {
		return fmt.Errorf("database.port must be greater than zero")
	}
	return nil
}
