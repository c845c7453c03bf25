package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's
	// request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Serve the static frontend
	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
		router.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
		router.StaticFile("/favicon.ico", cfg.StaticPath+"/favicon.ico")
	}

	// Register auth routes if auth service is available
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		authController.RegisterRoutes(router)

		tokenController := auth.NewAPITokenController(cfg.AuthService)
		router.POST("/api/auth/token", tokenController.GenerateToken)
		router.DELETE("/api/auth/token", tokenController.RevokeToken)
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.BookStore)
	checkoutsController := NewCheckoutsController(cfg.CheckoutStore)
	reviewsController := NewReviewsController(cfg.ReviewStore)
	adminController := NewAdminController(cfg.AdminBookStore, cfg.StaffLogStore, cfg.UserStore, cfg.TaskClient)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Catalog endpoints (any authenticated user)
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/stats", booksController.GetStats)
	router.GET("/api/books/:id", booksController.GetBook)
	router.GET("/api/books/:id/reviews", reviewsController.ListReviews)

	// Book cover endpoint
	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.BookStore)
		router.GET("/api/books/:id/cover", coversController.GetCover)
	}

	// Lending endpoints
	router.POST("/api/books/:id/borrow", checkoutsController.Borrow)
	router.POST("/api/checkouts/:id/return", checkoutsController.Return)
	router.GET("/api/checkouts", checkoutsController.ListMine)

	// Review endpoints
	router.PUT("/api/books/:id/review", reviewsController.SubmitReview)
	router.DELETE("/api/books/:id/review", reviewsController.DeleteReview)

	// Reading analytics endpoints. Without a configured document store the
	// routes answer 503 rather than vanish.
	var analyticsController *AnalyticsController
	if cfg.AnalyticsStore != nil {
		analyticsController = NewAnalyticsController(cfg.AnalyticsStore)
		router.POST("/api/analytics/sessions", analyticsController.RecordSession)
		router.GET("/api/analytics/sessions", analyticsController.ListMySessions)
		router.GET("/api/analytics/summary", analyticsController.MySummary)
	} else {
		router.POST("/api/analytics/sessions", AnalyticsUnavailable)
		router.GET("/api/analytics/sessions", AnalyticsUnavailable)
		router.GET("/api/analytics/summary", AnalyticsUnavailable)
	}

	// Staff inventory endpoints
	staff := router.Group("/api/admin")
	if cfg.AuthMiddleware != nil {
		staff.Use(cfg.AuthMiddleware.RequireStaff())
	}
	staff.POST("/books", adminController.CreateBook)
	staff.PATCH("/books/:id", adminController.UpdateBook)
	staff.POST("/books/:id/retire", adminController.RetireBook)
	staff.POST("/books/:id/enrich", adminController.EnrichBook)
	staff.GET("/staff-log", adminController.ListStaffLog)
	staff.GET("/checkouts/overdue", checkoutsController.ListOverdue)
	if analyticsController != nil {
		staff.GET("/analytics/books/:id", analyticsController.BookEngagement)
		staff.GET("/analytics/top-books", analyticsController.TopBooks)
		staff.GET("/analytics/book-highlights", analyticsController.BookHighlights)
		staff.GET("/analytics/readers/:id/summary", analyticsController.ReaderSummary)
	} else {
		staff.GET("/analytics/books/:id", AnalyticsUnavailable)
		staff.GET("/analytics/top-books", AnalyticsUnavailable)
		staff.GET("/analytics/book-highlights", AnalyticsUnavailable)
		staff.GET("/analytics/readers/:id/summary", AnalyticsUnavailable)
	}

	// Admin-only user management
	admin := router.Group("/api/admin/users")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	admin.GET("", adminController.ListUsers)
	admin.PUT("/:id/role", adminController.ChangeUserRole)

	return router
}
