package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Earnings
	HourlyRate     string `yaml:"hourly_rate"`
	LocalCurrency  string `yaml:"local_currency"`
	LocalSymbol    string `yaml:"local_symbol"`
	CustomCurrency string `yaml:"custom_currency"`
	CustomSymbol   string `yaml:"custom_symbol"`

	// Price sources
	PiCoinID            string `yaml:"pi_coin_id"`
	CoinGeckoBaseURL    string `yaml:"coingecko_base_url"`
	PiWalletBaseURL     string `yaml:"pi_wallet_base_url"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	FetchMaxAttempts    int    `yaml:"fetch_max_attempts"`

	// Timing
	EarningsInterval time.Duration `yaml:"earnings_interval"`
	RatesInterval    time.Duration `yaml:"rates_interval"`
	LockedInterval   time.Duration `yaml:"locked_interval"`

	// History
	HistoryBackend string `yaml:"history_backend"`
	HistoryFile    string `yaml:"history_file"`
	HistoryWALDir  string `yaml:"history_wal_dir"`

	// Database (postgres history backend)
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBName     string `yaml:"db_name"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"-"`

	// API
	APIPort         int    `yaml:"api_port"`
	APIKey          string `yaml:"-"`
	CORSAllowOrigin string `yaml:"cors_allow_origin"`

	// Notifications
	WebhookURL string `yaml:"-"`
	BotName    string `yaml:"bot_name"`

	// Display
	DashboardEnabled bool   `yaml:"dashboard_enabled"`
	ChartWidth       int    `yaml:"chart_width"`
	ChartHeight      int    `yaml:"chart_height"`
	SMAPeriod        int    `yaml:"sma_period"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
}

const (
	BackendJSON     = "json"
	BackendWAL      = "wal"
	BackendPostgres = "postgres"
)

// Load reads .env (if present) and the process environment. When path is
// non-empty, or CONFIG_FILE is set, a YAML file is applied on top.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HourlyRate:     envStr("HOURLY_RATE", "0"),
		LocalCurrency:  strings.ToLower(envStr("LOCAL_CURRENCY", "try")),
		LocalSymbol:    envStr("LOCAL_SYMBOL", "₺"),
		CustomCurrency: strings.ToLower(envStr("CUSTOM_CURRENCY", "")),
		CustomSymbol:   envStr("CUSTOM_SYMBOL", ""),

		PiCoinID:            envStr("PI_COIN_ID", "pi-network"),
		CoinGeckoBaseURL:    envStr("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		PiWalletBaseURL:     envStr("PI_WALLET_BASE_URL", "https://api.minepi.com"),
		FetchTimeoutSeconds: envInt("FETCH_TIMEOUT_SECONDS", 10),
		FetchMaxAttempts:    envInt("FETCH_MAX_ATTEMPTS", 1),

		EarningsInterval: envDuration("EARNINGS_INTERVAL", time.Second),
		RatesInterval:    envDuration("RATES_INTERVAL", time.Hour),
		LockedInterval:   envDuration("LOCKED_INTERVAL", time.Hour),

		HistoryBackend: strings.ToLower(envStr("HISTORY_BACKEND", BackendJSON)),
		HistoryFile:    envStr("HISTORY_FILE", "price_history.json"),
		HistoryWALDir:  envStr("HISTORY_WAL_DIR", "./wal/history"),

		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "pi_tracker"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		APIPort:         envInt("API_PORT", 3001),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		WebhookURL: envStr("WEBHOOK_URL", ""),
		BotName:    envStr("BOT_NAME", "PiTracker"),

		DashboardEnabled: envBool("DASHBOARD_ENABLED", false),
		ChartWidth:       envInt("CHART_WIDTH", 60),
		ChartHeight:      envInt("CHART_HEIGHT", 12),
		SMAPeriod:        envInt("SMA_PERIOD", 5),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		LogFormat:        envStr("LOG_FORMAT", "json"),
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyFile overlays the non-zero fields of a YAML file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	c.LocalCurrency = strings.ToLower(strings.TrimSpace(c.LocalCurrency))
	c.CustomCurrency = strings.ToLower(strings.TrimSpace(c.CustomCurrency))
	c.HistoryBackend = strings.ToLower(c.HistoryBackend)
	return nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.LocalCurrency == "" {
		errs = append(errs, "LOCAL_CURRENCY is required")
	}
	if c.PiCoinID == "" {
		errs = append(errs, "PI_COIN_ID is required")
	}
	if c.FetchTimeoutSeconds <= 0 {
		errs = append(errs, "FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.EarningsInterval <= 0 || c.RatesInterval <= 0 || c.LockedInterval <= 0 {
		errs = append(errs, "EARNINGS_INTERVAL, RATES_INTERVAL and LOCKED_INTERVAL must be positive")
	}
	switch c.HistoryBackend {
	case BackendJSON:
		if c.HistoryFile == "" {
			errs = append(errs, "HISTORY_FILE is required for the json backend")
		}
	case BackendWAL:
		if c.HistoryWALDir == "" {
			errs = append(errs, "HISTORY_WAL_DIR is required for the wal backend")
		}
	case BackendPostgres:
		if c.DBUser == "" {
			errs = append(errs, "DB_USER is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown HISTORY_BACKEND %q (json, wal, postgres)", c.HistoryBackend))
	}
	if c.SMAPeriod < 2 {
		errs = append(errs, "SMA_PERIOD must be at least 2")
	}

	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set — REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Pi Earnings Tracker Configuration ===")
	fmt.Printf("Hourly Rate: %s Pi\n", c.HourlyRate)
	fmt.Printf("Local Currency: %s (%s)\n", strings.ToUpper(c.LocalCurrency), c.LocalSymbol)
	fmt.Printf("Custom Currency: %s\n", boolLabel(c.CustomCurrency != "", strings.ToUpper(c.CustomCurrency), "not set"))
	fmt.Println("--------------------------------------")
	fmt.Printf("Price Source: %s (%s)\n", c.CoinGeckoBaseURL, c.PiCoinID)
	fmt.Printf("Fetch Timeout: %ds, attempts: %d\n", c.FetchTimeoutSeconds, c.FetchMaxAttempts)
	fmt.Printf("Earnings refresh: every %s\n", c.EarningsInterval)
	fmt.Printf("Rates refresh: every %s\n", c.RatesInterval)
	fmt.Printf("Locked balance refresh: every %s\n", c.LockedInterval)
	fmt.Println("--------------------------------------")
	fmt.Printf("History Backend: %s\n", c.HistoryBackend)
	switch c.HistoryBackend {
	case BackendJSON:
		fmt.Printf("  File: %s\n", c.HistoryFile)
	case BackendWAL:
		fmt.Printf("  Dir: %s\n", c.HistoryWALDir)
	case BackendPostgres:
		fmt.Printf("  DB: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	}
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set (console only)"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
