// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/inkwell-go/internal/access"
	"github.com/olegiv/inkwell-go/internal/cache"
	"github.com/olegiv/inkwell-go/internal/config"
	"github.com/olegiv/inkwell-go/internal/content"
	"github.com/olegiv/inkwell-go/internal/geoip"
	"github.com/olegiv/inkwell-go/internal/handler"
	"github.com/olegiv/inkwell-go/internal/handler/api"
	"github.com/olegiv/inkwell-go/internal/ledger"
	"github.com/olegiv/inkwell-go/internal/logging"
	"github.com/olegiv/inkwell-go/internal/middleware"
	"github.com/olegiv/inkwell-go/internal/reading"
	"github.com/olegiv/inkwell-go/internal/scheduler"
	"github.com/olegiv/inkwell-go/internal/service"
	"github.com/olegiv/inkwell-go/internal/session"
	"github.com/olegiv/inkwell-go/internal/store"
	"github.com/olegiv/inkwell-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Inkwell - E-Book Storefront\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_DB_PATH           SQLite database path (default: ./data/inkwell.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_UPLOADS_DIR      Upload storage directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_CONTENT_DIR      Book content directory (default: ./content)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  INKWELL_GEOIP_DB_PATH    GeoLite2 country database path (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("inkwell %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Expose build info to the health endpoint
	version.Version = appVersion
	version.GitCommit = appGitCommit
	version.BuildTime = appBuildTime

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data, uploads and content directories exist
	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.UploadsDir, cfg.ContentDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	appCache, err := cache.NewCache(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		slog.Warn("cache backend unavailable, using memory cache", "error", err)
		appCache = cache.NewDefaultCache()
	}
	defer func() { _ = appCache.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip database unavailable", "path", cfg.GeoIPDBPath, "error", err)
		} else {
			slog.Info("geoip lookups enabled", "path", cfg.GeoIPDBPath)
		}
	}
	defer func() { _ = geo.Close() }()

	// Domain services
	ledgerService := ledger.New(db, appCache)
	accessResolver := access.New(db, appCache)
	readingTracker := reading.New(db)
	contentSource := content.NewSource(cfg.ContentDir)
	mediaService := service.NewMediaService(cfg.UploadsDir, cfg.MaxUploadBytes)
	eventService := service.NewEventService(db)

	sched := scheduler.New(db, ledgerService, geo, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	globalRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	apiHandler := api.NewHandler(api.Deps{
		DB:       db,
		Sessions: sessionManager,
		Ledger:   ledgerService,
		Access:   accessResolver,
		Reading:  readingTracker,
		Content:  contentSource,
		Cache:    appCache,
		Media:    mediaService,
		Events:   eventService,
		Login:    loginProtection,
		GeoIP:    geo,
	})
	healthHandler := handler.NewHealthHandler(db, sessionManager, cfg.UploadsDir)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CompressSelective(5, 1024))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)
	r.Use(globalRateLimiter.Middleware())

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	// Health and status, no auth
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Uploaded files (covers, avatars; proofs are access-checked uploads
	// but their URLs are unguessable UUID paths)
	uploadsFS := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.With(middleware.StaticCache(86400)).Get("/uploads/*", uploadsFS.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.LoadUser(sessionManager, db))

		r.Get("/status", apiHandler.Status)

		// Public catalog
		r.Get("/books", apiHandler.ListBooks)
		r.Get("/books/{id}", apiHandler.GetBook)
		r.Get("/books/slug/{slug}", apiHandler.GetBookBySlug)

		// Authentication
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", apiHandler.Signup)
			r.With(loginProtection.Middleware()).Post("/login", apiHandler.Login)
			r.Post("/logout", apiHandler.Logout)
			r.Get("/me", apiHandler.Me)
		})

		// Authenticated customer surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))

			r.Post("/orders", apiHandler.SubmitOrder)
			r.Get("/orders/mine", apiHandler.ListMyOrders)
			r.Get("/orders/{id}", apiHandler.GetOrder)

			r.Get("/library", apiHandler.Library)
			r.Get("/books/{id}/content", apiHandler.ReadBook)
			r.Get("/books/{id}/progress", apiHandler.GetProgress)
			r.Delete("/books/{id}/progress", apiHandler.DeleteProgress)

			r.Get("/account", apiHandler.Account)
			r.Put("/account", apiHandler.UpdateProfile)
			r.Put("/account/password", apiHandler.ChangePassword)
			r.Get("/account/progress", apiHandler.ListProgress)
			r.Post("/account/progress", apiHandler.RecordProgress)

			r.Post("/uploads", apiHandler.Upload)
		})

		// Admin surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.RequireAdminWithEventLog(eventService))

			r.Post("/books", apiHandler.CreateBook)
			r.Put("/books/{id}", apiHandler.UpdateBook)
			r.Delete("/books/{id}", apiHandler.DeleteBook)

			r.Get("/orders", apiHandler.AdminListOrders)
			r.Post("/orders/{id}/approve", apiHandler.ApproveOrder)
			r.Post("/orders/{id}/reject", apiHandler.RejectOrder)
			r.Post("/orders/{id}/revoke", apiHandler.RevokeOrder)
			r.Put("/orders/{id}", apiHandler.UpdateOrderStatus)
			r.Get("/events", apiHandler.AdminListEvents)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
