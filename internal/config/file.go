package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the subset of Config that may come from --config.
// Pointer fields distinguish "absent" from a zero value.
type FileConfig struct {
	URLFile     *string `yaml:"url_file"`
	OutputFile  *string `yaml:"output_file"`
	HTTPTimeout *int    `yaml:"http_timeout"` // seconds
	MaxThreads  *int    `yaml:"max_threads"`
	UserAgent   *string `yaml:"user_agent"`
	Insecure    *bool   `yaml:"insecure"`

	LogLevel  *string `yaml:"log_level"`
	PrettyLog *bool   `yaml:"pretty_log"`
	NoColor   *bool   `yaml:"no_color"`
	Progress  *string `yaml:"progress"`

	Listen     *string  `yaml:"listen"`
	AllowCIDRs []string `yaml:"allow_cidrs"`

	Redis *RedisFileConfig `yaml:"redis"`
}

type RedisFileConfig struct {
	Addr     *string        `yaml:"addr"`
	Username *string        `yaml:"username"`
	Password *string        `yaml:"password"`
	DB       *int           `yaml:"db"`
	TTL      *time.Duration `yaml:"ttl"`
	PoolSize *int           `yaml:"pool_size"`
}

// LoadFile reads and parses a YAML configuration file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	return &fc, nil
}

// apply copies present values onto cfg unless the matching flag was given
// explicitly on the command line.
func (fc *FileConfig) apply(cfg *Config, set map[string]bool) {
	setString(&cfg.URLFile, fc.URLFile, set["u"] || set["url_file"])
	setString(&cfg.OutputFile, fc.OutputFile, set["o"] || set["output_file"])
	if fc.HTTPTimeout != nil && !set["http-timeout"] {
		cfg.HTTPTimeout = time.Duration(*fc.HTTPTimeout) * time.Second
	}
	setInt(&cfg.MaxThreads, fc.MaxThreads, set["max-threads"])
	setString(&cfg.UserAgent, fc.UserAgent, set["user-agent"])
	setBool(&cfg.Insecure, fc.Insecure, set["insecure"])

	setString(&cfg.LogLevel, fc.LogLevel, set["log-level"])
	setBool(&cfg.PrettyLog, fc.PrettyLog, set["pretty-log"])
	setBool(&cfg.NoColor, fc.NoColor, set["no-color"])
	setString(&cfg.Progress, fc.Progress, set["progress"])

	setString(&cfg.ListenAddr, fc.Listen, set["listen"])
	if fc.AllowCIDRs != nil && !set["allow-cidr"] {
		cfg.AllowCIDRs = fc.AllowCIDRs
	}

	if r := fc.Redis; r != nil {
		setString(&cfg.RedisAddr, r.Addr, set["redis-addr"])
		setString(&cfg.RedisUser, r.Username, false)
		setString(&cfg.RedisPassword, r.Password, set["redis-password"])
		setInt(&cfg.RedisDB, r.DB, set["redis-db"])
		if r.TTL != nil && !set["redis-ttl"] {
			cfg.RedisTTL = *r.TTL
		}
		setInt(&cfg.RedisPoolSize, r.PoolSize, false)
	}
}

func setString(dst *string, v *string, locked bool) {
	if v != nil && !locked {
		*dst = *v
	}
}

func setInt(dst *int, v *int, locked bool) {
	if v != nil && !locked {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool, locked bool) {
	if v != nil && !locked {
		*dst = *v
	}
}
