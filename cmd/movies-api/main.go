package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/swapi-vault/movies-api/docs" // Swagger docs
	"github.com/swapi-vault/movies-api/internal/auth"
	"github.com/swapi-vault/movies-api/internal/cache"
	"github.com/swapi-vault/movies-api/internal/clients"
	"github.com/swapi-vault/movies-api/internal/config"
	"github.com/swapi-vault/movies-api/internal/logging"
	"github.com/swapi-vault/movies-api/internal/metrics"
	"github.com/swapi-vault/movies-api/internal/middleware"
	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/routes"
	"github.com/swapi-vault/movies-api/internal/scheduler"
	"github.com/swapi-vault/movies-api/internal/secrets"
	"github.com/swapi-vault/movies-api/internal/services"
	"github.com/swapi-vault/movies-api/internal/storage"
	"github.com/swapi-vault/movies-api/internal/storage/memory"
	"github.com/swapi-vault/movies-api/internal/tracing"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
)

// @title Movies API
// @version 1.0
// @description Star Wars movie catalog with JWT auth and SWAPI synchronization

// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logging.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Secrets Manager values override the environment
	if err := secrets.Apply(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Failed to load secrets")
	}

	if err := metrics.Init(); err != nil {
		logger.WithError(err).Fatal("Failed to initialize metrics")
	}

	tracingShutdown, err := tracing.Init(&cfg.Observability, cfg.Server.Environment, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to setup tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown tracing")
		}
	}()

	checks := map[string]routes.HealthCheck{}

	users, movies, db := initStorage(ctx, cfg, logger)
	if db != nil {
		defer db.Close()
		checks["database"] = db.PingContext
	}

	// Cache stays a nil interface when disabled
	var movieCache services.MovieCache
	var cacheFlusher routes.CacheFlusher
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, &cfg.Redis, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Redis client")
		}
		defer redisClient.Close()

		mc := cache.NewMovieCache(redisClient, cfg.Cache.Prefix, cfg.Cache.TTL, logger)
		movieCache = mc
		cacheFlusher = mc
		checks["redis"] = cache.HealthCheck(redisClient, logger)
	}

	tokens := auth.NewManager(&cfg.JWT)
	authService := services.NewAuthService(users, tokens.Access, tokens.Refresh, logger)
	moviesService := services.NewMoviesService(movies, clients.NewFilmClient(&cfg.Catalog, logger), movieCache, logger)

	if cfg.Bootstrap.Username != "" {
		created, err := authService.EnsureUser(ctx, cfg.Bootstrap.Username, cfg.Bootstrap.Password, models.Role(cfg.Bootstrap.Role))
		if err != nil {
			logger.WithError(err).Fatal("Failed to bootstrap user")
		}
		logger.WithFields(logrus.Fields{
			"username": cfg.Bootstrap.Username,
			"created":  created,
		}).Info("Bootstrap user ensured")
	}

	var syncScheduler *scheduler.SyncScheduler
	if cfg.Sync.Enabled {
		syncScheduler, err = scheduler.New(&cfg.Sync, moviesService, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create sync scheduler")
		}
		if err := syncScheduler.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to start sync scheduler")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "Movies API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Requested-With,X-Request-Id",
		MaxAge:       86400,
	}))
	app.Use(otelfiber.Middleware())

	routes.Setup(app, routes.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Middleware: middleware.NewManager(tokens, logger),
		Auth:       authService,
		Movies:     moviesService,
		Cache:      cacheFlusher,
		Checks:     checks,
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Gracefully shutting down...")
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.WithField("port", cfg.Server.Port).Info("Starting Movies API server")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}

// initStorage returns the repositories for the configured driver. db is nil for the memory driver.
func initStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.UserRepository, services.MovieRepository, *sql.DB) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewUserRepository(), memory.NewMovieRepository(), nil
	}

	db, err := storage.Open(ctx, &cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if cfg.Database.MigrateOnStart {
		if err := storage.Migrate(ctx, db); err != nil {
			logger.WithError(err).Fatal("Failed to run database migrations")
		}
		logger.Info("Database migrations applied")
	}

	logger.WithFields(logrus.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	}).Info("Connected to PostgreSQL")

	return storage.NewUserRepository(db), storage.NewMovieRepository(db), db
}
