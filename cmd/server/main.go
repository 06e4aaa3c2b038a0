package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/tailorone/backend/internal/config"
	"github.com/tailorone/backend/internal/handler"
	"github.com/tailorone/backend/internal/logger"
	"github.com/tailorone/backend/internal/repository"
	"github.com/tailorone/backend/internal/scheduler"
	"github.com/tailorone/backend/internal/service"
	"github.com/tailorone/backend/pkg/crypto"
	"github.com/tailorone/backend/pkg/mailer"
	"github.com/tailorone/backend/pkg/payment"
	"github.com/tailorone/backend/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (for local development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	defer db.Close()

	version, err := repository.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	log.Info("database connected and migrated", "version", version)

	enc, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption error: %w", err)
	}

	events := newEventPublisher(cfg, log)
	if closer, ok := events.(interface{ Close() }); ok {
		defer closer.Close()
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable, rate limiter will fail open", "error", err)
		} else {
			log.Info("redis connected")
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	instanceRepo := repository.NewUserSubscriptionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	cartRepo := repository.NewCartRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	configRepo := repository.NewConfigRepository(db)

	// Services
	authSvc := service.NewAuthService(service.AuthConfig{
		JWTSecret:           cfg.JWTSecret,
		JWTExpires:          cfg.JWTExpires,
		AdminEmail:          cfg.AdminEmail,
		AdminName:           cfg.AdminName,
		AdminPassword:       cfg.AdminPassword,
		RequireVerification: cfg.RequireEmailVerification,
		OTPTTL:              cfg.OTPTTL,
	}, userRepo, newMailer(cfg, log))

	if err := authSvc.SeedAdmin(ctx); err != nil {
		return fmt.Errorf("admin seed error: %w", err)
	}

	subSvc := service.NewSubscriptionService(planRepo, instanceRepo, events)
	gateway, err := newGateway(cfg, log)
	if err != nil {
		return err
	}
	orderSvc := service.NewOrderService(orderRepo, gateway, events, cfg.Currency)
	systemSvc := service.NewSystemService(configRepo, enc, userRepo, orderRepo, subSvc, cfg.RazorpayKeyID)

	sched := scheduler.New(subSvc, log)
	if err := sched.Start(cfg.SubscriptionSweepSchedule); err != nil {
		return err
	}
	defer sched.Stop()

	checks := map[string]handler.HealthCheck{"database": db.Ping}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	router := newRouter(routerDeps{
		cfg:           cfg,
		redis:         rdb,
		auth:          authSvc,
		subscriptions: subSvc,
		orders:        orderSvc,
		offers:        service.NewOfferService(offerRepo),
		carts:         service.NewCartService(cartRepo),
		addresses:     service.NewAddressService(addressRepo),
		catalog:       service.NewCatalogService(catalogRepo),
		system:        systemSvc,
		health:        checks,
	})

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr <- server.Shutdown(ctx)
	}()

	log.Info("TailorOne API listening", "addr", addr, "payments_live", cfg.PaymentsLive())
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return <-shutdownErr
}

func newGateway(cfg *config.Config, log *slog.Logger) (payment.Gateway, error) {
	if cfg.PaymentsLive() {
		return payment.NewRazorpayGateway(payment.RazorpayConfig{
			KeyID:         cfg.RazorpayKeyID,
			KeySecret:     cfg.RazorpayKeySecret,
			WebhookSecret: cfg.RazorpayWebhookSecret,
			BaseURL:       cfg.RazorpayBaseURL,
		}), nil
	}
	secret := cfg.RazorpayWebhookSecret
	if secret == "" {
		var err error
		if secret, err = payment.RandomSecret(); err != nil {
			return nil, err
		}
		log.Warn("RAZORPAY_WEBHOOK_SECRET not set, mock gateway signs with a per-process random secret")
	}
	log.Warn("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET not set, using mock payment gateway")
	return payment.NewMockGateway(secret), nil
}

func newMailer(cfg *config.Config, log *slog.Logger) mailer.Mailer {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		return mailer.LogMailer{Logger: log}
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

func newEventPublisher(cfg *config.Config, log *slog.Logger) service.EventPublisher {
	if cfg.AMQPURL == "" {
		log.Info("AMQP_URL not set, domain events disabled")
		return service.NoopPublisher{}
	}
	producer, err := rabbitmq.NewEventProducer(cfg.AMQPURL, cfg.EventsExchange)
	if err != nil {
		log.Warn("rabbitmq unavailable, domain events disabled", "error", err)
		return service.NoopPublisher{}
	}
	log.Info("publishing domain events", "exchange", cfg.EventsExchange)
	return producer
}
