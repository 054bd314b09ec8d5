package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"directory-service/internal/handler"
	"directory-service/internal/middleware"
	"directory-service/internal/notifier"
	"directory-service/internal/org"
	"directory-service/internal/otp"
	"directory-service/internal/service"
	"directory-service/internal/store"
	"directory-service/pkg/config"
	"directory-service/pkg/database"
	"directory-service/pkg/jwtutil"
	"directory-service/pkg/logger"
	"directory-service/pkg/password"
	"directory-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync() //nolint:errcheck
	log.Info("Starting directory service...", zap.String("environment", cfg.Server.Env))

	db, err := database.Open(&cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck
	log.Info("Database connection established")
	repo := store.NewPostgresStore(db)

	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	hasher := password.NewHasher(password.DefaultCost)
	tokens := jwtutil.NewJWTUtil(&cfg.JWT)
	engine := otp.NewEngine(repo, cfg.OTP)

	delivery, err := notifier.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	defer delivery.Close() //nolint:errcheck
	log.Info("Notifier initialized", zap.String("driver", cfg.Notifier.Driver))

	auth := service.NewAuthService(repo, engine, org.NewResolver(repo), hasher, tokens, delivery)
	admin := service.NewAdminService(repo, repo, hasher, cfg.Admin.SecretKey)
	services := handler.Services{
		Auth:          auth,
		Admin:         admin,
		Organizations: service.NewOrganizationService(repo, repo),
		Members:       service.NewMemberService(repo, repo, engine, auth),
		Catalog:       service.NewCatalogService(repo),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx := logger.WithLogger(ctx, log)
	seeded, err := admin.EnsureBootstrapSecret(bootCtx, cfg.Admin.BootstrapSecret)
	if err != nil {
		log.Fatal("Failed to seed admin secret", zap.Error(err))
	}
	if seeded {
		log.Info("Admin secret seeded from ADMIN_SECRET")
	}
	if _, err := admin.EnsureBootstrapAdmin(bootCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatal("Failed to seed admin member", zap.Error(err))
	}
	if cfg.Admin.EnforceRole && cfg.Admin.Email == "" {
		log.Warn("ADMIN_ENFORCE_ROLE is on but ADMIN_EMAIL is unset; admin routes need an existing admin member")
	}

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	handler.RegisterRoutes(e, services, handler.RouterConfig{
		Tokens:           tokens,
		EnforceAdminRole: cfg.Admin.EnforceRole,
		AuthRateLimit:    cfg.RateLimit.RequestsPerMinute,
		DB: handler.PingerFunc(func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("Shutting down server")
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
	}
}
