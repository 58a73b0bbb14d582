package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/correlation"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/store"
	"github.com/spec-kit/helpdesk/internal/ticketid"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	technicians, err := auth.LoadCredentials(cfg.Store.CredentialsFile)
	if err != nil {
		logger.Fatal("failed to load technician credentials", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	tickets := store.NewTicketStore(cfg.Store.TicketsFile, logger)
	ids := ticketid.NewGenerator(cfg.Store.CounterFile)
	dispatcher := events.NewInMemoryDispatcher()

	var redis *persistence.Redis
	if cfg.Redis.Addr != "" {
		redis = persistence.NewRedis(cfg.Redis, cfg.Mail.SeenCacheTTL(), logger)
		defer redis.Close()
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      tickets,
		IDs:        ids,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(technicians, tokens, logger)
	authMiddleware := auth.NewAuthMiddleware(tokens, technicians)

	var emailSender service.EmailSender
	if cfg.Mail.OutboundConfigured() {
		emailSender = mailer.NewConfirmationSender(cfg.Mail, logger)
	} else {
		logger.Warn("outbound mail not configured, confirmation email disabled")
	}
	notificationService := service.NewNotificationService(dispatcher, emailSender, cfg.Notification, logger)
	worker.StartNotificationWorker(notificationService)

	if cfg.Mail.InboundConfigured() {
		var seen correlation.SeenCache
		if redis != nil {
			seen = redis
		}
		source := mailer.NewIMAPSource(cfg.Mail, logger)
		engine := correlation.NewEngine(source, tickets, seen, dispatcher, metrics, logger)
		go worker.NewCorrelationWorker(engine, cfg.Mail.PollInterval(), logger).Run(ctx)
	} else {
		logger.Warn("inbound mail not configured, reply correlation disabled")
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, tickets, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
