package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Polymarket API
	PolymarketWSURL      string
	PolymarketClobURL    string
	PolymarketGammaURL   string
	PolymarketDataURL    string
	PolymarketAPIKey     string
	PolymarketSecret     string
	PolymarketPassphrase string
	PolygonRPCURL        string
	ProxyAddress         string
	SignatureType        int

	// Copy trading
	TargetWallet     string
	CopyMode         string // "proportional", "fixed" or "mirror"
	ScaleFactor      float64
	FixedTradeAmount float64
	MaxTradeAmount   float64
	MaxDailyVolume   float64 // 0 disables the cumulative cap

	// Monitoring
	PollInterval       time.Duration
	PollLookback       int // trades fetched per poll / gap-fill query
	WalletSyncInterval time.Duration

	// WebSocket
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSReconnectMaxAttempts  int
	WSMessageBufferSize     int

	// Execution
	ExecutionMode       string  // "paper" or "live"
	PaperInitialBalance float64 // starting balance for paper sessions
	ExecMaxAttempts     int
	ExecRetryBaseDelay  time.Duration
	ExecRetryMaxDelay   time.Duration
	ExecRetryMult       float64
	ExecSubmitTimeout   time.Duration

	// Deduplication
	DedupRetention     time.Duration
	DedupSweepInterval time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Polymarket API defaults
		PolymarketWSURL:      getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-live-data.polymarket.com"),
		PolymarketClobURL:    getEnvOrDefault("POLYMARKET_CLOB_URL", "https://clob.polymarket.com"),
		PolymarketGammaURL:   getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketDataURL:    getEnvOrDefault("POLYMARKET_DATA_API_URL", "https://data-api.polymarket.com"),
		PolymarketAPIKey:     os.Getenv("POLYMARKET_API_KEY"),
		PolymarketSecret:     os.Getenv("POLYMARKET_SECRET"),
		PolymarketPassphrase: os.Getenv("POLYMARKET_PASSPHRASE"),
		PolygonRPCURL:        getEnvOrDefault("POLYGON_RPC_URL", "https://polygon-rpc.com"),
		ProxyAddress:         os.Getenv("PROXY_ADDRESS"),
		SignatureType:        getIntOrDefault("SIGNATURE_TYPE", 0),

		// Copy trading defaults
		TargetWallet:     os.Getenv("TARGET_WALLET_ADDRESS"),
		CopyMode:         getEnvOrDefault("COPY_MODE", "proportional"),
		ScaleFactor:      getFloat64OrDefault("SCALE_FACTOR", 1.0),
		FixedTradeAmount: getFloat64OrDefault("FIXED_TRADE_AMOUNT", 10.0),
		MaxTradeAmount:   getFloat64OrDefault("MAX_TRADE_AMOUNT", 100.0),
		MaxDailyVolume:   getFloat64OrDefault("MAX_DAILY_VOLUME", 0),

		// Monitoring defaults
		PollInterval:       getDurationOrDefault("POLL_INTERVAL", 1*time.Second),
		PollLookback:       getIntOrDefault("POLL_LOOKBACK", 50),
		WalletSyncInterval: getDurationOrDefault("WALLET_SYNC_INTERVAL", 60*time.Second),

		// WebSocket defaults
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSReconnectMaxAttempts:  getIntOrDefault("WS_RECONNECT_MAX_ATTEMPTS", 10),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 1000),

		// Execution defaults
		ExecutionMode:       getEnvOrDefault("EXECUTION_MODE", "paper"),
		PaperInitialBalance: getFloat64OrDefault("PAPER_INITIAL_BALANCE", 1000.0),
		ExecMaxAttempts:     getIntOrDefault("EXEC_MAX_ATTEMPTS", 3),
		ExecRetryBaseDelay:  getDurationOrDefault("EXEC_RETRY_BASE_DELAY", 500*time.Millisecond),
		ExecRetryMaxDelay:   getDurationOrDefault("EXEC_RETRY_MAX_DELAY", 5*time.Second),
		ExecRetryMult:       getFloat64OrDefault("EXEC_RETRY_BACKOFF_MULTIPLIER", 2.0),
		ExecSubmitTimeout:   getDurationOrDefault("EXEC_SUBMIT_TIMEOUT", 30*time.Second),

		// Deduplication defaults
		DedupRetention:     getDurationOrDefault("DEDUP_RETENTION", 6*time.Hour),
		DedupSweepInterval: getDurationOrDefault("DEDUP_SWEEP_INTERVAL", 5*time.Minute),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "polymarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "polymarket_copytrader"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.TargetWallet == "" {
		return fmt.Errorf("TARGET_WALLET_ADDRESS is required")
	}

	switch c.CopyMode {
	case "proportional", "fixed", "mirror":
	default:
		return fmt.Errorf("COPY_MODE must be 'proportional', 'fixed' or 'mirror', got %q", c.CopyMode)
	}

	if c.ScaleFactor <= 0 {
		return fmt.Errorf("SCALE_FACTOR must be > 0, got %f", c.ScaleFactor)
	}

	if c.FixedTradeAmount <= 0 {
		return fmt.Errorf("FIXED_TRADE_AMOUNT must be > 0, got %f", c.FixedTradeAmount)
	}

	if c.MaxTradeAmount <= 0 {
		return fmt.Errorf("MAX_TRADE_AMOUNT must be > 0, got %f", c.MaxTradeAmount)
	}

	if c.MaxDailyVolume < 0 {
		return fmt.Errorf("MAX_DAILY_VOLUME cannot be negative, got %f", c.MaxDailyVolume)
	}

	if c.ExecutionMode != "paper" && c.ExecutionMode != "live" {
		return fmt.Errorf("EXECUTION_MODE must be 'paper' or 'live', got %q", c.ExecutionMode)
	}

	if c.ExecutionMode == "paper" && c.PaperInitialBalance <= 0 {
		return fmt.Errorf("PAPER_INITIAL_BALANCE must be > 0, got %f", c.PaperInitialBalance)
	}

	if c.ExecMaxAttempts < 1 {
		return fmt.Errorf("EXEC_MAX_ATTEMPTS must be >= 1, got %d", c.ExecMaxAttempts)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
