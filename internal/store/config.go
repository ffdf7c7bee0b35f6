package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Sentiment struct {
		Threshold float64 `yaml:"threshold" default:"0.1" validate:"gte=0,lte=1"`
	} `yaml:"sentiment"`
	Scorer struct {
		Provider    string        `yaml:"provider" default:"LEXICON" validate:"oneof=LEXICON OPENAI CLAUDE"`
		Model       string        `yaml:"model" default:"gpt-4o-mini"`
		MaxTokens   int           `yaml:"max_tokens" default:"200" validate:"gt=0"`
		Concurrency int           `yaml:"concurrency" default:"8" validate:"gte=1,lte=64"`
		Timeout     time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"scorer"`
	News struct {
		Sources      []string `yaml:"sources" validate:"min=1,dive,oneof=YAHOO_RSS FINVIZ STATIC"`
		MaxHeadlines int      `yaml:"max_headlines" default:"50" validate:"gt=0"`
	} `yaml:"news"`
	Market struct {
		Source   string `yaml:"source" default:"YAHOO" validate:"oneof=YAHOO KITE STATIC"`
		Exchange string `yaml:"exchange" default:"NSE"`
	} `yaml:"market"`
	Fetch struct {
		Timeout       time.Duration `yaml:"timeout" default:"20s" validate:"gt=0"`
		RatePerSecond float64       `yaml:"rate_per_second" default:"2" validate:"gte=0"`
		Burst         int           `yaml:"burst" default:"2" validate:"gte=1"`
		Retry         struct {
			MaxAttempts     int           `yaml:"max_attempts" default:"3" validate:"gte=1,lte=10"`
			InitialInterval time.Duration `yaml:"initial_interval" default:"500ms"`
			MaxInterval     time.Duration `yaml:"max_interval" default:"5s"`
		} `yaml:"retry"`
	} `yaml:"fetch"`
	Cache struct {
		Backend string        `yaml:"backend" default:"MEMORY" validate:"oneof=NONE MEMORY REDIS"`
		TTL     time.Duration `yaml:"ttl" default:"10m"`
		MaxSize int           `yaml:"max_size" default:"256" validate:"gte=1"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"sentistock"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Indicators struct {
		SMAShort   int `yaml:"sma_short" default:"20" validate:"gt=0"`
		SMALong    int `yaml:"sma_long" default:"50" validate:"gt=0"`
		RSIPeriod  int `yaml:"rsi_period" default:"14" validate:"gt=0"`
		MACDFast   int `yaml:"macd_fast" default:"12" validate:"gt=0"`
		MACDSlow   int `yaml:"macd_slow" default:"26" validate:"gt=0"`
		MACDSignal int `yaml:"macd_signal" default:"9" validate:"gt=0"`
	} `yaml:"indicators"`
	ReportLog struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir" default:"logs"`
		RetentionDays int    `yaml:"retention_days" default:"30" validate:"gte=0"`
	} `yaml:"report_log"`
	Server struct {
		Addr string `yaml:"addr" default:":8080"`
	} `yaml:"server"`
	Analysis struct {
		DefaultDays  int `yaml:"default_days" default:"30" validate:"gte=1,lte=3650"`
		TopHeadlines int `yaml:"top_headlines" default:"5" validate:"gte=1"`
	} `yaml:"analysis"`
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed '%s' rule (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Indicators.SMAShort >= c.Indicators.SMALong {
		return fmt.Errorf("indicators.sma_short (%d) must be less than indicators.sma_long (%d)", c.Indicators.SMAShort, c.Indicators.SMALong)
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return fmt.Errorf("indicators.macd_fast (%d) must be less than indicators.macd_slow (%d)", c.Indicators.MACDFast, c.Indicators.MACDSlow)
	}
	if c.Fetch.Retry.InitialInterval > c.Fetch.Retry.MaxInterval {
		return fmt.Errorf("fetch.retry.initial_interval %s exceeds max_interval %s", c.Fetch.Retry.InitialInterval, c.Fetch.Retry.MaxInterval)
	}
	return nil
}

// Default returns a config with every default applied.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if len(c.News.Sources) == 0 {
		c.News.Sources = []string{"YAHOO_RSS", "FINVIZ"}
	}
}

// LoadConfig reads path, applies defaults and SENTISTOCK_* environment
// overrides, then validates. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SENTISTOCK_SCORER_PROVIDER"); v != "" {
		c.Scorer.Provider = strings.ToUpper(v)
	}
	if v := os.Getenv("SENTISTOCK_SCORER_MODEL"); v != "" {
		c.Scorer.Model = v
	}
	if v := os.Getenv("SENTISTOCK_MARKET_SOURCE"); v != "" {
		c.Market.Source = strings.ToUpper(v)
	}
	if v := os.Getenv("SENTISTOCK_NEWS_SOURCES"); v != "" {
		parts := strings.Split(v, ",")
		c.News.Sources = c.News.Sources[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				c.News.Sources = append(c.News.Sources, strings.ToUpper(p))
			}
		}
	}
	if v := os.Getenv("SENTISTOCK_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = strings.ToUpper(v)
	}
	if v := os.Getenv("SENTISTOCK_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("SENTISTOCK_REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("SENTISTOCK_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SENTISTOCK_THRESHOLD: %w", err)
		}
		c.Sentiment.Threshold = f
	}
	if v := os.Getenv("SENTISTOCK_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SENTISTOCK_FETCH_TIMEOUT: %w", err)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("SENTISTOCK_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	return nil
}
