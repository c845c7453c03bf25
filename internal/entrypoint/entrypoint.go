package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/analytics"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/covers"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/checkouts"
	"github.com/openshelf/openshelf/internal/database/reviews"
	"github.com/openshelf/openshelf/internal/database/stafflog"
	"github.com/openshelf/openshelf/internal/database/users"
	http_controllers "github.com/openshelf/openshelf/internal/http"
	"github.com/openshelf/openshelf/internal/metadata"
	"github.com/openshelf/openshelf/internal/scheduler"
	"github.com/openshelf/openshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue and scheduler)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting OpenShelf v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Repositories
	bookRepo := books.NewRepository(db.DB)
	checkoutRepo := checkouts.NewRepository(db.DB, checkouts.Config{
		LoanDays:     cfg.Lending.LoanDays,
		MaxOpenLoans: cfg.Lending.MaxOpenLoans,
		LateFeeCents: cfg.Lending.LateFeeCents,
	})
	reviewRepo := reviews.NewRepository(db.DB)
	staffLogRepo := stafflog.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)

	// Create cover cache for locally caching book covers
	coverCacheDir := filepath.Join(filepath.Dir(cfg.Database.Path), "covers")
	coverCache, err := covers.NewCache(coverCacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
	} else {
		log.Printf("Cover cache initialized at %s", coverCacheDir)
	}

	// Create metadata enricher for catalog enrichment from OpenLibrary
	openLibraryClient := metadata.NewOpenLibraryClient()
	metadataEnricher := metadata.NewEnricher(openLibraryClient, bookRepo)
	if coverCache != nil {
		metadataEnricher.SetCoverInvalidator(coverCache)
	}

	// Reading analytics store (optional, needs a Mongo URI)
	var analyticsStore *analytics.Store
	if cfg.Analytics.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		analyticsStore, err = analytics.NewStore(ctx, cfg.Analytics)
		cancel()
		switch {
		case errors.Is(err, analytics.ErrAnalyticsDisabled):
			log.Printf("Reading analytics disabled")
		case err != nil:
			log.Fatalf("Failed to connect to analytics store: %v", err)
		default:
			log.Printf("Reading analytics connected to %s/%s", cfg.Analytics.Database, cfg.Analytics.Collection)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := analyticsStore.Close(ctx); err != nil {
					log.Printf("Error closing analytics store: %v", err)
				}
			}()
		}
	} else {
		log.Printf("Reading analytics disabled (set ANALYTICS_MONGO_URI to enable)")
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var sweepScheduler *scheduler.SweepScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewOverdueSweepQueue(checkoutRepo),
			tasks.NewCleanupStaffLogQueue(staffLogRepo),
			tasks.NewEnrichBookQueue(metadataEnricher),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		// Cron scheduler feeding the queues
		sweepScheduler = scheduler.NewSweepScheduler(taskClient, cfg.Lending)
		if err := sweepScheduler.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start sweep scheduler: %v", err)
		}
	}

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(db.DB, cfg.Auth)

		// Get underlying SQL DB for the session store
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		// Generate or use configured CSRF secret
		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No users found. POST /setup to create an administrator account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		BookStore:      bookRepo,
		AdminBookStore: bookRepo,
		CheckoutStore:  checkoutRepo,
		ReviewStore:    reviewRepo,
		StaffLogStore:  staffLogRepo,
		UserStore:      userRepo,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		AnalyticsStore: analyticsStore,
		CoverCache:     coverCache,
		TaskClient:     taskClient,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if sweepScheduler != nil {
			sweepScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
