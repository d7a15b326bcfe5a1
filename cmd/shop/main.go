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
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	shopcfg "github.com/Skotchmaster/shop_payments/internal/config"
	"github.com/Skotchmaster/shop_payments/internal/httpserver"
	"github.com/Skotchmaster/shop_payments/internal/models"
	"github.com/Skotchmaster/shop_payments/internal/notify"
	"github.com/Skotchmaster/shop_payments/internal/payment"
	"github.com/Skotchmaster/shop_payments/internal/repo"
	"github.com/Skotchmaster/shop_payments/internal/search"
	"github.com/Skotchmaster/shop_payments/internal/service"
	pkgdb "github.com/Skotchmaster/shop_payments/pkg/db"
	"github.com/Skotchmaster/shop_payments/pkg/kafka"
	"github.com/Skotchmaster/shop_payments/pkg/logging"
	"github.com/Skotchmaster/shop_payments/pkg/metrics"
	loggingmw "github.com/Skotchmaster/shop_payments/pkg/middleware/logging"
	"github.com/Skotchmaster/shop_payments/pkg/middleware/ratelimit"
)

const productEventsTopic = "product_events"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := shopcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	m := metrics.NewServerMetrics(cfg.ServiceName)
	r := &repo.GormRepo{DB: db}

	var sender notify.Sender
	var notifyProducer *kafka.Producer
	switch {
	case len(cfg.KafkaBrokers) > 0:
		notifyProducer = kafka.NewProducer(cfg.KafkaBrokers, cfg.NotifyTopic)
		sender = &notify.KafkaSender{Producer: notifyProducer}
	case cfg.SMTPHost != "":
		sender = &notify.MailSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	default:
		sender = notify.LogSender{}
	}
	dispatcher := notify.NewDispatcher(sender, cfg.NotifyWorkers, 256, m)
	dispatcher.Start(ctx)

	catalog := &service.CatalogService{Repo: r}
	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(ctx, 5*time.Second)
		idx, err := search.NewClient(esCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex)
		esCancel()
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		} else {
			catalog.Index = idx
		}
	}
	var eventsProducer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		eventsProducer = kafka.NewProducer(cfg.KafkaBrokers, productEventsTopic)
		catalog.Events = eventsProducer
	}

	var limit echo.MiddlewareFunc
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limit = ratelimit.New(rdb, cfg.RateLimitPerMinute, time.Minute).Middleware
	}

	authSvc := &service.AuthService{Repo: r, JWTSecret: cfg.JWTAccessSecret, AdminEmails: cfg.AdminEmails}
	orders := &service.OrderService{Repo: r, Notifier: dispatcher}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(m.Middleware)

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: &httpserver.OrderHTTP{
			Checkout: &service.CheckoutService{
				Repo:            r,
				Gateway:         payment.NewChapaClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey, cfg.PaymentTimeout),
				Notifier:        dispatcher,
				Metrics:         m,
				CallbackURL:     cfg.PaymentCallbackURL,
				ReturnURL:       cfg.PaymentReturnURL,
				DefaultCurrency: cfg.DefaultCurrency,
			},
			Orders: orders,
			Auth:   authSvc,
		},
		PaymentHandler: &httpserver.PaymentHTTP{
			Webhook: &service.WebhookService{Repo: r, Notifier: dispatcher, Metrics: m},
			Secret:  []byte(cfg.PaymentWebhookSecret),
		},
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog},
		JWTSecret:      cfg.JWTAccessSecret,
		DB:             db,
		Metrics:        m,
		RateLimit:      limit,
	})

	if cfg.PendingOrderTTL > 0 {
		every := cfg.PendingOrderTTL / 4
		if every < time.Minute {
			every = time.Minute
		}
		go orders.RunExpiry(ctx, cfg.PendingOrderTTL, every)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.PaymentTimeout + 15*time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	dispatcher.Close()
	if notifyProducer != nil {
		_ = notifyProducer.Close()
	}
	if eventsProducer != nil {
		_ = eventsProducer.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = pkgdb.Close(db)

	logger.Info("server_stopped")
}
