package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/nicempc/internal/analyze"
	"github.com/Alias1177/nicempc/internal/database"
	"github.com/Alias1177/nicempc/internal/screener"
	"github.com/Alias1177/nicempc/internal/trading/backtest"
	"github.com/Alias1177/nicempc/internal/trading/guard"
	"github.com/Alias1177/nicempc/internal/trading/risk"
)

// Providers
const (
	ProviderTwelveData = "twelvedata"
	ProviderBithumb    = "bithumb"
)

// Config holds all application configuration
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Market     MarketConfig     `yaml:"market"`
	TwelveData TwelveDataConfig `yaml:"twelvedata"`
	Bithumb    BithumbConfig    `yaml:"bithumb"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Guard      guard.Config     `yaml:"guard"`
	Sizing     risk.Params      `yaml:"sizing"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	Screener   screener.Options `yaml:"screener"`
	Store      StoreConfig      `yaml:"store"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Server     ServerConfig     `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

type MarketConfig struct {
	Provider    string `yaml:"provider" default:"bithumb" validate:"oneof=twelvedata bithumb"`
	Symbol      string `yaml:"symbol" default:"BTC" validate:"required"`
	Interval    string `yaml:"interval" default:"1h"`
	CandleCount int    `yaml:"candle_count" default:"200" validate:"min=60,max=5000"`
}

type TwelveDataConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url" default:"https://api.twelvedata.com"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"30s"`
	RequestsPerSec  int           `yaml:"requests_per_sec" default:"5" validate:"min=1"`
	MaxRetries      int           `yaml:"max_retries" default:"3" validate:"min=0"`
	MaxRetryTimeout time.Duration `yaml:"max_retry_timeout" default:"30s"`
}

type BithumbConfig struct {
	BaseURL         string        `yaml:"base_url" default:"https://api.bithumb.com/public"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"10s"`
	RequestsPerSec  int           `yaml:"requests_per_sec" default:"10" validate:"min=1"`
	MaxRetries      int           `yaml:"max_retries" default:"2" validate:"min=0"`
	MaxRetryTimeout time.Duration `yaml:"max_retry_timeout" default:"5s"`
}

type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model" default:"gpt-4o-mini"`
	Timeout     time.Duration `yaml:"timeout" default:"20s"`
	MaxFailures uint32        `yaml:"max_failures" default:"3" validate:"min=1"`
	OpenTimeout time.Duration `yaml:"open_timeout" default:"1m"`
}

// Enabled reports whether a synthesizer should be wired
func (c OpenAIConfig) Enabled() bool { return c.APIKey != "" }

type ScoringConfig struct {
	// пустая карта = равные веса
	Weights map[string]float64 `yaml:"weights" validate:"dive,gte=0,lte=1"`
	Tiers   analyze.Tiers      `yaml:"tiers"`
}

type BacktestConfig struct {
	backtest.Options `yaml:",inline"`
	Days             int `yaml:"days" default:"30" validate:"min=1"`
}

type StoreConfig struct {
	Enabled                   bool `yaml:"enabled"`
	database.ConnectionParams `yaml:",inline"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Enabled reports whether both token and chat are set
func (c TelegramConfig) Enabled() bool { return c.Token != "" && c.ChatID != 0 }

type ServerConfig struct {
	Addr         string        `yaml:"addr" default:":8080" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"60s"`
}

// Load builds the configuration: .env, struct defaults, optional YAML file,
// environment overrides and validation, in that order
func Load(path string) (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found: %w", path, err)
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides file values with the environment
func applyEnv(cfg *Config) {
	cfg.Log.Level = getEnvWithDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvWithDefault("LOG_FORMAT", cfg.Log.Format)

	cfg.Market.Provider = getEnvWithDefault("MARKET_PROVIDER", cfg.Market.Provider)
	cfg.Market.Symbol = getEnvWithDefault("SYMBOL", cfg.Market.Symbol)
	cfg.Market.Interval = getEnvWithDefault("INTERVAL", cfg.Market.Interval)
	cfg.Market.CandleCount = getEnvIntWithDefault("CANDLE_COUNT", cfg.Market.CandleCount)

	cfg.TwelveData.APIKey = getEnvWithDefault("TWELVE_API_KEY", cfg.TwelveData.APIKey)
	cfg.OpenAI.APIKey = getEnvWithDefault("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = getEnvWithDefault("OPENAI_MODEL", cfg.OpenAI.Model)

	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
		cfg.Store.Enabled = true
	}
	cfg.Store.DSN = getEnvWithDefault("STORE_DSN", cfg.Store.DSN)

	cfg.Telegram.Token = getEnvWithDefault("TELEGRAM_BOT_TOKEN", cfg.Telegram.Token)
	cfg.Telegram.ChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)

	cfg.Server.Addr = getEnvWithDefault("SERVER_ADDR", cfg.Server.Addr)

	cfg.Guard.MaxSpreadBps = getEnvFloatWithDefault("MAX_SPREAD_BPS", cfg.Guard.MaxSpreadBps)
	cfg.Guard.VolatilityBlocking = getEnvBoolWithDefault("VOLATILITY_BLOCKING", cfg.Guard.VolatilityBlocking)

	cfg.Sizing.WinRate = getEnvFloatWithDefault("WIN_RATE", cfg.Sizing.WinRate)
	cfg.Sizing.PayoffRatio = getEnvFloatWithDefault("PAYOFF_RATIO", cfg.Sizing.PayoffRatio)
	cfg.Sizing.AccountBalance = getEnvFloatWithDefault("ACCOUNT_BALANCE", cfg.Sizing.AccountBalance)
	cfg.Sizing.MaxAllocationPct = getEnvFloatWithDefault("MAX_ALLOCATION_PCT", cfg.Sizing.MaxAllocationPct)

	cfg.Screener.Concurrency = getEnvIntWithDefault("SCREENER_CONCURRENCY", cfg.Screener.Concurrency)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and cross-field rules
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Market.Provider == ProviderTwelveData && cfg.TwelveData.APIKey == "" {
		log.Warn().Msg("TWELVE_API_KEY is empty; only --demo runs will work")
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
