package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Portfolio struct {
		Symbols []string `yaml:"symbols"`
		Factors []string `yaml:"factors"`
	} `yaml:"portfolio"`
	Risk struct {
		Window            int           `yaml:"window"`
		Lambda            float64       `yaml:"lambda"`
		MinAlignedRows    int           `yaml:"min_aligned_rows"`
		VaRWindow         int           `yaml:"var_window"`
		VaRConfidences    []float64     `yaml:"var_confidences"`
		CorrWindow        int           `yaml:"corr_window"`
		Annualization     float64       `yaml:"annualization"`
		LookbackDays      int           `yaml:"lookback_days"`
		RecomputeInterval time.Duration `yaml:"recompute_interval"`
		Parallelism       int           `yaml:"parallelism"`
	} `yaml:"risk"`
	Regions struct {
		// CloseMinutes maps region tags to UTC close times in minutes after
		// midnight; unset regions fall back to built-in defaults.
		CloseMinutes map[string]int `yaml:"close_minutes"`
	} `yaml:"regions"`
	Scenarios []ScenarioConfig `yaml:"scenarios"`
	Cache     struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// ScenarioConfig names one historical stress episode by its date range.
type ScenarioConfig struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"` // YYYY-MM-DD
	End   string `yaml:"end"`   // YYYY-MM-DD
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Portfolio.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("FACTORS"); v != "" {
		c.Portfolio.Factors = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Portfolio.Symbols) == 0 {
		return fmt.Errorf("portfolio.symbols cannot be empty")
	}
	if len(c.Portfolio.Factors) == 0 {
		return fmt.Errorf("portfolio.factors cannot be empty")
	}
	if c.Risk.Window < 0 {
		return fmt.Errorf("risk.window cannot be negative")
	}
	if c.Risk.Lambda < 0 {
		return fmt.Errorf("risk.lambda cannot be negative")
	}
	for _, conf := range c.Risk.VaRConfidences {
		if conf <= 0 || conf >= 1 {
			return fmt.Errorf("risk.var_confidences must lie in (0,1), got %v", conf)
		}
	}
	for _, sc := range c.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenario with empty name")
		}
		if _, err := time.Parse("2006-01-02", sc.Start); err != nil {
			return fmt.Errorf("scenario %q start: %w", sc.Name, err)
		}
		if _, err := time.Parse("2006-01-02", sc.End); err != nil {
			return fmt.Errorf("scenario %q end: %w", sc.Name, err)
		}
	}
	return nil
}
