package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Pipeline struct {
		LookbackDays          int           `yaml:"lookback_days" default:"180" validate:"gt=0"`
		MinHistory            int           `yaml:"min_history" default:"60" validate:"gt=1"`
		MaxFillGap            int           `yaml:"max_fill_gap" default:"3" validate:"gte=0"`
		HorizonDays           int           `yaml:"horizon_days" default:"7" validate:"gt=0"`
		Workers               int           `yaml:"workers" default:"4" validate:"gt=0"`
		TickerTimeout         time.Duration `yaml:"ticker_timeout" default:"30s"`
		RunDeadline           time.Duration `yaml:"run_deadline" default:"10m"`
		CompletenessThreshold float64       `yaml:"completeness_threshold" default:"0.95" validate:"gte=0,lte=1"`
		TopN                  int           `yaml:"top_n" default:"10" validate:"gt=0"`
	} `yaml:"pipeline"`

	Ranking struct {
		Weights struct {
			MarketCap          float64 `yaml:"market_cap" default:"1.0" validate:"gte=0"`
			GrowthRate         float64 `yaml:"growth_rate" default:"1.0" validate:"gte=0"`
			Momentum           float64 `yaml:"momentum" default:"1.0" validate:"gte=0"`
			ForecastConfidence float64 `yaml:"forecast_confidence" default:"0.5" validate:"gte=0"`
		} `yaml:"weights"`
		LowCapThreshold    float64 `yaml:"low_cap_threshold" default:"2e9" validate:"gt=0"`
		GrowthTagThreshold float64 `yaml:"growth_tag_threshold" default:"0.05" validate:"gt=0"`
	} `yaml:"ranking"`

	Provider struct {
		BaseURL    string  `yaml:"base_url" default:"https://finnhub.io/api/v1" validate:"required,url"`
		APIKey     string  `yaml:"api_key"`
		RatePerSec float64 `yaml:"rate_per_sec" default:"10" validate:"gt=0"`
		Burst      int     `yaml:"burst" default:"5" validate:"gt=0"`
		Retry      struct {
			MaxAttempts int           `yaml:"max_attempts" default:"3" validate:"gt=0"`
			BackoffMin  time.Duration `yaml:"backoff_min" default:"500ms"`
			BackoffMax  time.Duration `yaml:"backoff_max" default:"8s"`
		} `yaml:"retry"`
	} `yaml:"provider"`

	Cache struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		TTL     time.Duration `yaml:"ttl" default:"12h"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Artifact struct {
		Dir  string `yaml:"dir" default:"data" validate:"required"`
		File string `yaml:"file" default:"summary.json" validate:"required"`
	} `yaml:"artifact"`

	Universe struct {
		Path string `yaml:"path" default:"config/universe.yaml" validate:"required"`
	} `yaml:"universe"`
}

// UniverseEntry is one configured ticker with its static metadata.
type UniverseEntry struct {
	Symbol    string  `yaml:"symbol" validate:"required"`
	MarketCap float64 `yaml:"market_cap" validate:"gte=0"`
	Sector    string  `yaml:"sector"`
}

// Load reads and parses a YAML configuration file, applying struct defaults
// before validation.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

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
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("ARTIFACT_DIR"); v != "" {
		c.Artifact.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("PIPELINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.Workers = n
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Pipeline.MinHistory > c.Pipeline.LookbackDays {
		return fmt.Errorf("pipeline.min_history (%d) exceeds pipeline.lookback_days (%d)",
			c.Pipeline.MinHistory, c.Pipeline.LookbackDays)
	}
	if c.Provider.Retry.BackoffMin > c.Provider.Retry.BackoffMax {
		return fmt.Errorf("provider.retry.backoff_min exceeds backoff_max")
	}
	return nil
}

// LoadUniverse reads the ticker universe file. Order is preserved; duplicate
// symbols are rejected so ranking input stays well defined.
func LoadUniverse(path string) ([]UniverseEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}

	var doc struct {
		Tickers []UniverseEntry `yaml:"tickers"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if len(doc.Tickers) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}

	seen := make(map[string]bool, len(doc.Tickers))
	for i := range doc.Tickers {
		doc.Tickers[i].Symbol = strings.ToUpper(strings.TrimSpace(doc.Tickers[i].Symbol))
		if err := validate.Struct(&doc.Tickers[i]); err != nil {
			return nil, fmt.Errorf("universe entry %d: %w", i, err)
		}
		if seen[doc.Tickers[i].Symbol] {
			return nil, fmt.Errorf("duplicate symbol %s in universe", doc.Tickers[i].Symbol)
		}
		seen[doc.Tickers[i].Symbol] = true
	}

	return doc.Tickers, nil
}
