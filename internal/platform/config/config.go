package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration read once at startup.
type Config struct {
	Server     Server
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Transfer   TransferConfig
	Payment    PaymentConfig
	Settlement SettlementConfig
	Alert      AlertConfig
	LogLevel   string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string // empty skips the iss check
	JWTAudience   string // empty skips the aud check
}

// DatabaseConfig selects Postgres. An empty URL runs every store in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// RedisConfig configures the code-attempt limiter backend. Empty URL keeps the
// limiter in process.
type RedisConfig struct {
	URL          string
	KeyPrefix    string // namespaces limiter keys when environments share one Redis
	ClientName   string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	TransferTopic string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// TransferConfig holds the protocol parameters.
type TransferConfig struct {
	FeeMinor              int64
	FeeCurrency           string
	PendingTTL            time.Duration
	ReaperInterval        time.Duration
	CodeAttemptsPerMinute int
	DisableCodeLimiter    bool
}

const (
	PaymentModeSandbox = "sandbox"
	PaymentModeHTTP    = "http"
)

type PaymentConfig struct {
	Mode    string // PaymentModeSandbox or PaymentModeHTTP
	URL     string
	APIKey  string
	Timeout time.Duration
}

// SettlementConfig points at the downstream collaborators. An empty URL
// means the corresponding action is recorded as skipped.
type SettlementConfig struct {
	LedgerURL        string
	SMSURL           string
	EmailURL         string
	APIKey           string
	CustodyMasterKey string
	ImageBaseURL     string
	PollInterval     time.Duration
	MaxAttempts      int
	BatchSize        int
	Timeout          time.Duration
}

type AlertConfig struct {
	SlackWebhookURL string
	WebhookURL      string
	Cooldown        time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:          getEnv("TBT_ADDR", ":8080"),
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", devSigningKey),
			JWTIssuer:     os.Getenv("JWT_ISSUER"),
			JWTAudience:   os.Getenv("JWT_AUDIENCE"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			TxTimeout:       getEnvDuration("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			KeyPrefix:    os.Getenv("REDIS_KEY_PREFIX"),
			ClientName:   getEnv("REDIS_CLIENT_NAME", "tbt-code-limiter"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			TransferTopic: getEnv("KAFKA_TRANSFER_TOPIC", "tbt.transfers"),
		},
		Transfer: TransferConfig{
			FeeMinor:              int64(getEnvInt("TRANSFER_FEE_MINOR", 500)),
			FeeCurrency:           strings.ToUpper(getEnv("TRANSFER_FEE_CURRENCY", "USD")),
			PendingTTL:            getEnvDuration("TRANSFER_PENDING_TTL", 15*time.Minute),
			ReaperInterval:        getEnvDuration("TRANSFER_REAPER_INTERVAL", time.Minute),
			CodeAttemptsPerMinute: getEnvInt("CODE_ATTEMPTS_PER_MINUTE", 10),
			DisableCodeLimiter:    os.Getenv("DISABLE_CODE_LIMITER") == "true",
		},
		Payment: PaymentConfig{
			Mode:    getEnv("PAYMENT_MODE", PaymentModeSandbox),
			URL:     os.Getenv("PAYMENT_URL"),
			APIKey:  os.Getenv("PAYMENT_API_KEY"),
			Timeout: getEnvDuration("PAYMENT_TIMEOUT", 10*time.Second),
		},
		Settlement: SettlementConfig{
			LedgerURL:        os.Getenv("LEDGER_URL"),
			SMSURL:           os.Getenv("SMS_URL"),
			EmailURL:         os.Getenv("EMAIL_URL"),
			APIKey:           os.Getenv("SETTLEMENT_API_KEY"),
			CustodyMasterKey: os.Getenv("CUSTODY_MASTER_KEY"),
			ImageBaseURL:     os.Getenv("CERTIFICATE_IMAGE_BASE_URL"),
			PollInterval:     getEnvDuration("SETTLEMENT_POLL_INTERVAL", 2*time.Second),
			MaxAttempts:      getEnvInt("SETTLEMENT_MAX_ATTEMPTS", 8),
			BatchSize:        getEnvInt("SETTLEMENT_BATCH_SIZE", 20),
			Timeout:          getEnvDuration("SETTLEMENT_TIMEOUT", 5*time.Second),
		},
		Alert: AlertConfig{
			SlackWebhookURL: os.Getenv("ALERT_SLACK_WEBHOOK"),
			WebhookURL:      os.Getenv("ALERT_WEBHOOK_URL"),
			Cooldown:        getEnvDuration("ALERT_COOLDOWN", 5*time.Minute),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Transfer.FeeMinor < 0 {
		return fmt.Errorf("TRANSFER_FEE_MINOR must not be negative")
	}
	if len(c.Transfer.FeeCurrency) != 3 {
		return fmt.Errorf("TRANSFER_FEE_CURRENCY must be a three-letter code")
	}
	if c.Transfer.PendingTTL <= 0 {
		return fmt.Errorf("TRANSFER_PENDING_TTL must be positive")
	}
	if c.Transfer.CodeAttemptsPerMinute <= 0 {
		return fmt.Errorf("CODE_ATTEMPTS_PER_MINUTE must be positive")
	}
	switch c.Payment.Mode {
	case PaymentModeSandbox:
	case PaymentModeHTTP:
		if c.Payment.URL == "" {
			return fmt.Errorf("PAYMENT_URL is required when PAYMENT_MODE=http")
		}
	default:
		return fmt.Errorf("PAYMENT_MODE must be sandbox or http, got %q", c.Payment.Mode)
	}
	if c.Settlement.MaxAttempts <= 0 {
		return fmt.Errorf("SETTLEMENT_MAX_ATTEMPTS must be positive")
	}
	if len(c.Server.JWTSigningKey) < 32 {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least 32 bytes")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
