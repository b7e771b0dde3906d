package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/clinic-booking/internal/api/http"
	"github.com/spec-kit/clinic-booking/internal/api/http/handlers"
	"github.com/spec-kit/clinic-booking/internal/auth"
	"github.com/spec-kit/clinic-booking/internal/config"
	"github.com/spec-kit/clinic-booking/internal/events"
	"github.com/spec-kit/clinic-booking/internal/mail"
	"github.com/spec-kit/clinic-booking/internal/observability"
	"github.com/spec-kit/clinic-booking/internal/persistence"
	"github.com/spec-kit/clinic-booking/internal/repository"
	"github.com/spec-kit/clinic-booking/internal/repository/memory"
	"github.com/spec-kit/clinic-booking/internal/service"
	"github.com/spec-kit/clinic-booking/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	messages     repository.MessageRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := newRepositories(pg.PoolHandle(), logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Sender:     mail.NewSender(cfg.Mail, mail.NewLogSender(logger)),
		Logger:     logger,
		Metrics:    metrics,
		Config:     cfg.Notification,
		BaseURL:    cfg.App.BaseURL,
	})
	worker.StartNotificationWorker(notificationService)

	identityService := service.NewIdentityService(service.IdentityDependencies{
		UserRepo:        repos.users,
		Resets:          auth.NewResetTokenManager(cfg.Auth.SecretKey),
		Dispatcher:      dispatcher,
		BcryptCost:      cfg.Auth.BcryptCost,
		BootstrapAdmins: cfg.Auth.BootstrapAdmins,
	})
	appointmentService := service.NewAppointmentService(service.AppointmentDependencies{
		AppointmentRepo: repos.appointments,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
	})
	contactService := service.NewContactService(repos.messages)

	var revoked auth.RevocationStore
	if redis.Available() {
		revoked = auth.NewRedisRevocationStore(redis.Client)
	}
	sessions := auth.NewSessionMiddleware(
		auth.NewSessionManager(cfg.Auth.SecretKey, cfg.Auth.SessionTTL()),
		repos.users,
		revoked,
		logger,
		cfg.Auth.CookieSecure,
	)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		Immutable:             true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:        handlers.NewUsersHandler(identityService, sessions),
		Appointments: handlers.NewAppointmentsHandler(appointmentService),
		Admin:        handlers.NewAdminHandler(appointmentService, contactService),
		Contact:      handlers.NewContactHandler(contactService),
		Sessions:     sessions,
		RateLimiter:  httptransport.NewIPRateLimiter(cfg.RateLimit),
		Metrics:      metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// newRepositories uses Postgres when a pool is available and falls back to
// in-memory storage otherwise.
func newRepositories(pool *pgxpool.Pool, logger *zap.Logger) repositories {
	if pool == nil {
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return repositories{
			users:        store.Users(),
			appointments: store.Appointments(),
			messages:     store.Messages(),
		}
	}
	return repositories{
		users:        repository.NewUserRepository(pool),
		appointments: repository.NewAppointmentRepository(pool),
		messages:     repository.NewMessageRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
