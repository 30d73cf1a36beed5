// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	Telegram TelegramConfig
	Security SecurityConfig
	Database DatabaseConfig
	Redis    RedisConfig
	XRPL     XRPLConfig
	Price    PriceConfig
}

type TelegramConfig struct {
	BotToken   string
	WebhookURL string // empty selects long polling
	// WebhookSecret is the last path segment of the webhook and set_webhook
	// routes. Required in webhook mode.
	WebhookSecret string
	Debug         bool
}

type SecurityConfig struct {
	MasterKey string
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Addr     string // empty disables redis
	Password string
	DB       int
}

type XRPLConfig struct {
	RPCURL         string
	FaucetURL      string
	ReserveXRP     string
	SubmitTimeout  time.Duration
	FundingTimeout time.Duration
	HistoryLimit   int
}

type PriceConfig struct {
	APIURL   string
	CacheTTL time.Duration
}

var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

const (
	defaultRPCURL    = "https://s.altnet.rippletest.net:51234/"
	defaultFaucetURL = "https://faucet.altnet.rippletest.net/accounts"
	defaultPriceURL  = "https://api.coingecko.com/api/v3/coins/ripple/market_chart?vs_currency=usd&days=7&interval=daily"
)

func Load(logger *zap.Logger) (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "production"),
		HTTPAddr: ":" + getEnv("PORT", "8080"),
		Telegram: TelegramConfig{
			BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
			WebhookURL:    os.Getenv("WEBHOOK_URL"),
			WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
			Debug:         getEnvAsBool("TELEGRAM_DEBUG", false),
		},
		Security: SecurityConfig{
			MasterKey: os.Getenv("ENCRYPTION_KEY"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 0)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASS"),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		XRPL: XRPLConfig{
			RPCURL:         getEnv("XRPL_RPC_URL", defaultRPCURL),
			FaucetURL:      getEnv("XRPL_FAUCET_URL", defaultFaucetURL),
			ReserveXRP:     getEnv("XRPL_RESERVE_XRP", "1"),
			SubmitTimeout:  getEnvAsDuration("XRPL_SUBMIT_TIMEOUT", 90*time.Second),
			FundingTimeout: getEnvAsDuration("XRPL_FUNDING_TIMEOUT", 40*time.Second),
			HistoryLimit:   getEnvAsInt("XRPL_HISTORY_LIMIT", 5),
		},
		Price: PriceConfig{
			APIURL:   getEnv("PRICE_API_URL", defaultPriceURL),
			CacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", 15*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info("configuration loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("webhook_mode", cfg.WebhookMode()),
		zap.Bool("redis_enabled", cfg.Redis.Addr != ""),
		zap.String("xrpl_rpc", cfg.XRPL.RPCURL),
	)
	return cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"TELEGRAM_BOT_TOKEN": c.Telegram.BotToken,
		"ENCRYPTION_KEY":     c.Security.MasterKey,
		"DATABASE_URL":       c.Database.URL,
	}
	for name, v := range required {
		if v == "" {
			return fmt.Errorf("missing required environment variable %s", name)
		}
	}

	if c.WebhookMode() && !webhookSecretPattern.MatchString(c.Telegram.WebhookSecret) {
		return fmt.Errorf("WEBHOOK_SECRET must be 16-128 characters of A-Z, a-z, 0-9, _ or - when WEBHOOK_URL is set")
	}

	reserve, err := decimal.NewFromString(c.XRPL.ReserveXRP)
	if err != nil || reserve.IsNegative() {
		return fmt.Errorf("invalid XRPL_RESERVE_XRP %q", c.XRPL.ReserveXRP)
	}
	return nil
}

// WebhookMode reports whether updates arrive by webhook instead of polling.
func (c *Config) WebhookMode() bool {
	return c.Telegram.WebhookURL != ""
}

// ============================================================================
// Helper Functions
// ============================================================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// ReserveDrops is the configured reserve in drops. validate guarantees it parses.
func (c XRPLConfig) ReserveDrops() int64 {
	reserve, err := decimal.NewFromString(c.ReserveXRP)
	if err != nil {
		return 0
	}
	return reserve.Shift(6).IntPart()
}
