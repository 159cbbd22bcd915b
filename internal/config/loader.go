package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// TOMLConfig represents the TOML configuration file structure
type TOMLConfig struct {
	HTTP      TOMLHTTPConfig      `toml:"http"`
	MongoDB   TOMLMongoDBConfig   `toml:"mongodb"`
	Redis     TOMLRedisConfig     `toml:"redis"`
	SMTP      TOMLSMTPConfig      `toml:"smtp"`
	Gateway   TOMLGatewayConfig   `toml:"gateway"`
	Scheduler TOMLSchedulerConfig `toml:"scheduler"`
	DevMode   bool                `toml:"dev_mode"`
}

// TOMLHTTPConfig represents HTTP configuration in TOML
type TOMLHTTPConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// TOMLMongoDBConfig represents MongoDB configuration in TOML
type TOMLMongoDBConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// TOMLRedisConfig represents Redis configuration in TOML
type TOMLRedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// TOMLSMTPConfig represents SMTP configuration in TOML
type TOMLSMTPConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	FromAddress string `toml:"from_address"`
	Enabled     bool   `toml:"enabled"`
}

// TOMLGatewayConfig represents SMS/WhatsApp gateway configuration in TOML
type TOMLGatewayConfig struct {
	BaseURL       string `toml:"base_url"`
	APIKey        string `toml:"api_key"`
	SenderID      string `toml:"sender_id"`
	Enabled       bool   `toml:"enabled"`
	RatePerMinute int    `toml:"rate_per_minute"`
}

// TOMLSchedulerConfig represents scan scheduler configuration in TOML
type TOMLSchedulerConfig struct {
	Interval        string `toml:"interval"`
	Concurrency     int    `toml:"concurrency"`
	LeaderElection  bool   `toml:"leader_election"`
	InstanceID      string `toml:"instance_id"`
	TTL             string `toml:"ttl"`
	RefreshInterval string `toml:"refresh_interval"`
}

// ConfigPaths lists the paths to search for config files
var ConfigPaths = []string{
	"config.toml",
	"propserve.toml",
	"./config/config.toml",
	"/etc/propserve/config.toml",
}

// LoadFromFile loads configuration from a TOML file
func LoadFromFile(path string) (*Config, error) {
	var tomlCfg TOMLConfig

	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return tomlConfigToConfig(&tomlCfg)
}

// LoadWithFile loads configuration from file first, then overrides with env vars
func LoadWithFile() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	configPath := os.Getenv("PROPSERVE_CONFIG")
	if configPath == "" {
		for _, path := range ConfigPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
	}

	// No config file is fine; env vars and defaults stand alone.
	if configPath == "" {
		return cfg, nil
	}

	fileCfg, err := LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	return mergeConfigs(fileCfg, cfg), nil
}

// tomlConfigToConfig converts TOML config to the internal Config struct
func tomlConfigToConfig(tc *TOMLConfig) (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Port:        tc.HTTP.Port,
			CORSOrigins: tc.HTTP.CORSOrigins,
		},
		MongoDB: MongoDBConfig{
			URI:      tc.MongoDB.URI,
			Database: tc.MongoDB.Database,
		},
		Redis: RedisConfig{
			Addr:     tc.Redis.Addr,
			Password: tc.Redis.Password,
			DB:       tc.Redis.DB,
		},
		SMTP: SMTPConfig{
			Host:        tc.SMTP.Host,
			Port:        tc.SMTP.Port,
			Username:    tc.SMTP.Username,
			Password:    tc.SMTP.Password,
			FromAddress: tc.SMTP.FromAddress,
			Enabled:     tc.SMTP.Enabled,
		},
		Gateway: GatewayConfig{
			BaseURL:       tc.Gateway.BaseURL,
			APIKey:        tc.Gateway.APIKey,
			SenderID:      tc.Gateway.SenderID,
			Enabled:       tc.Gateway.Enabled,
			RatePerMinute: tc.Gateway.RatePerMinute,
		},
		Scheduler: SchedulerConfig{
			Concurrency:    tc.Scheduler.Concurrency,
			LeaderElection: tc.Scheduler.LeaderElection,
			InstanceID:     tc.Scheduler.InstanceID,
		},
		DevMode: tc.DevMode,
	}

	var err error
	if cfg.Scheduler.Interval, err = parseDuration(tc.Scheduler.Interval); err != nil {
		return nil, fmt.Errorf("scheduler.interval: %w", err)
	}
	if cfg.Scheduler.TTL, err = parseDuration(tc.Scheduler.TTL); err != nil {
		return nil, fmt.Errorf("scheduler.ttl: %w", err)
	}
	if cfg.Scheduler.RefreshInterval, err = parseDuration(tc.Scheduler.RefreshInterval); err != nil {
		return nil, fmt.Errorf("scheduler.refresh_interval: %w", err)
	}

	return cfg, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// mergeConfigs overlays env-derived values onto file-derived values.
// The env config was built with defaults, so a file value wins only where
// the env config still holds the zero/default for that field.
func mergeConfigs(file, env *Config) *Config {
	merged := *file

	if env.HTTP.Port != 0 {
		merged.HTTP.Port = env.HTTP.Port
	}
	if len(merged.HTTP.CORSOrigins) == 0 {
		merged.HTTP.CORSOrigins = env.HTTP.CORSOrigins
	}
	if merged.MongoDB.URI == "" {
		merged.MongoDB.URI = env.MongoDB.URI
	}
	if merged.MongoDB.Database == "" {
		merged.MongoDB.Database = env.MongoDB.Database
	}
	if merged.Redis.Addr == "" {
		merged.Redis = env.Redis
	}
	if merged.SMTP.Host == "" {
		merged.SMTP = env.SMTP
	}
	if merged.Gateway.BaseURL == "" && env.Gateway.BaseURL != "" {
		merged.Gateway = env.Gateway
	}
	if merged.Scheduler.Interval == 0 {
		merged.Scheduler.Interval = env.Scheduler.Interval
	}
	if merged.Scheduler.Concurrency == 0 {
		merged.Scheduler.Concurrency = env.Scheduler.Concurrency
	}
	if merged.Scheduler.InstanceID == "" {
		merged.Scheduler.InstanceID = env.Scheduler.InstanceID
	}
	if merged.Scheduler.TTL == 0 {
		merged.Scheduler.TTL = env.Scheduler.TTL
	}
	if merged.Scheduler.RefreshInterval == 0 {
		merged.Scheduler.RefreshInterval = env.Scheduler.RefreshInterval
	}
	merged.DevMode = merged.DevMode || env.DevMode

	return &merged
}
