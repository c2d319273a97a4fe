package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DatasetPath  string `mapstructure:"dataset_path" yaml:"dataset_path"`
	DatasetSheet string `mapstructure:"dataset_sheet" yaml:"dataset_sheet"`
	DateLayout   string `mapstructure:"date_layout" yaml:"date_layout"`
	ModelPath    string `mapstructure:"model_path" yaml:"model_path"`
	FeaturesPath string `mapstructure:"features_path" yaml:"features_path"`

	// Dashboard server
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	Currency   string `mapstructure:"currency" yaml:"currency"`

	// Chart size in inches
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`

	// Prediction history (optional)
	HistoryDriver string `mapstructure:"history_driver" yaml:"history_driver"`
	HistoryDSN    string `mapstructure:"history_dsn" yaml:"history_dsn"`

	// HTTP/Retry configuration for remote predictors
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Dir returns ~/.profitscope.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".profitscope"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.profitscope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PROFITSCOPE")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset_path", "data/Coffee_Chain_Sales.csv")
	v.SetDefault("dataset_sheet", "")
	v.SetDefault("date_layout", "")
	v.SetDefault("model_path", "model/profit_model.json")
	v.SetDefault("features_path", "") // Selected_features.txt beside the model
	v.SetDefault("listen_addr", "127.0.0.1:8501")
	v.SetDefault("currency", "$")
	v.SetDefault("chart_width_in", 10.0)
	v.SetDefault("chart_height_in", 5.0)
	v.SetDefault("history_driver", "")
	v.SetDefault("history_dsn", "")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// a missing file is fine; a malformed one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns a single key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "dataset_path":
		c.DatasetPath = val
	case "dataset_sheet":
		c.DatasetSheet = val
	case "date_layout":
		c.DateLayout = val
	case "model_path":
		c.ModelPath = val
	case "features_path":
		c.FeaturesPath = val
	case "listen_addr":
		c.ListenAddr = val
	case "currency":
		c.Currency = val
	case "chart_width_in", "chart_height_in":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid positive number for %s: %v", key, val)
		}
		if key == "chart_width_in" {
			c.ChartWidthIn = f
		} else {
			c.ChartHeightIn = f
		}
	case "history_driver":
		switch strings.ToLower(val) {
		case "", "none":
			c.HistoryDriver = ""
		case "sqlite", "sqlite3":
			c.HistoryDriver = "sqlite3"
		case "postgres", "postgresql":
			c.HistoryDriver = "postgres"
		default:
			return fmt.Errorf("invalid history_driver: %s (use sqlite3, postgres or none)", val)
		}
	case "history_dsn":
		c.HistoryDSN = val
	case "http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "http_timeout_sec":
			c.HTTPTimeoutSec = i
		case "retry_max_attempts":
			c.RetryMaxAttempts = i
		case "retry_base_delay_ms":
			c.RetryBaseDelayMs = i
		default:
			c.RetryMaxDelayMs = i
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// HTTPTimeout returns the configured timeout as a duration.
func (c *Global) HTTPTimeout() time.Duration { return time.Duration(c.HTTPTimeoutSec) * time.Second }

// RetryBaseDelay returns the configured base backoff.
func (c *Global) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// RetryMaxDelay returns the configured backoff cap.
func (c *Global) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}
