package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPendingOrderTTL bounds how long an unpaid checkout holds stock.
// ORDER_PENDING_TTL=0 turns the sweeper off.
const DefaultPendingOrderTTL = 30 * time.Minute

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret []byte
	AdminEmails     []string

	KafkaBrokers  []string
	NotifyTopic   string
	NotifyGroupID string
	NotifyWorkers int

	RedisAddr          string
	RateLimitPerMinute int

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	PaymentBaseURL       string
	PaymentSecretKey     string
	PaymentTimeout       time.Duration
	PaymentCallbackURL   string
	PaymentReturnURL     string
	PaymentWebhookSecret string

	DefaultCurrency string
	PendingOrderTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shop"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		AdminEmails:     CSV(os.Getenv("ADMIN_EMAILS")),

		KafkaBrokers:  CSV(os.Getenv("KAFKA_BROKERS")),
		NotifyTopic:   EnvDefault("NOTIFY_TOPIC", "order_notifications"),
		NotifyGroupID: EnvDefault("NOTIFY_GROUP_ID", "notifier"),
		NotifyWorkers: EnvIntDefault("NOTIFY_WORKERS", 4),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RateLimitPerMinute: EnvIntDefault("RATE_LIMIT_PER_MINUTE", 60),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		PaymentBaseURL:       EnvDefault("PAYMENT_BASE_URL", "https://api.chapa.co/v1"),
		PaymentSecretKey:     os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentTimeout:       EnvDurationDefault("PAYMENT_TIMEOUT", 15*time.Second),
		PaymentCallbackURL:   os.Getenv("PAYMENT_CALLBACK_URL"),
		PaymentReturnURL:     os.Getenv("PAYMENT_RETURN_URL"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),

		DefaultCurrency: EnvDefault("DEFAULT_CURRENCY", "ETB"),
		PendingOrderTTL: EnvDurationDefault("ORDER_PENDING_TTL", DefaultPendingOrderTTL),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     EnvIntDefault("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     EnvDefault("SMTP_FROM", "no-reply@shop.local"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault accepts Go duration strings ("15s", "24h").
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
