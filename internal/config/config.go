package config

import (
	"strings"

	"github.com/Skotchmaster/shop_payments/pkg/config"
)

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustSecret(cfg.JWTAccessSecret, "JWT_SECRET")

	return ServiceConfig{Config: cfg}
}

// LoadNotifier skips the database and JWT checks; the notifier only reads
// the topic.
func LoadNotifier() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(strings.Join(cfg.KafkaBrokers, ","), "KAFKA_BROKERS")

	return ServiceConfig{Config: cfg}
}
