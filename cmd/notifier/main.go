package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	shopcfg "github.com/Skotchmaster/shop_payments/internal/config"
	"github.com/Skotchmaster/shop_payments/internal/notify"
	"github.com/Skotchmaster/shop_payments/pkg/kafka"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := shopcfg.LoadNotifier()

	logger := logging.New(cfg.LogLevel).With("service", "notifier")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	var sender notify.Sender = notify.LogSender{}
	if cfg.SMTPHost != "" {
		sender = &notify.MailSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	}

	m := metrics.NewServerMetrics("notifier")
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           m.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_listen_failed", "error", err)
		}
	}()

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.NotifyGroupID, cfg.NotifyTopic)
	logger.Info("notifier_started", "topic", cfg.NotifyTopic, "group", cfg.NotifyGroupID, "smtp", cfg.SMTPHost != "")

	if err := consumer.Run(ctx, notify.Deliver(sender, m)); err != nil {
		logger.Error("consumer_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("notifier_stopped")
}
