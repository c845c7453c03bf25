package http

import (
	"github.com/openshelf/openshelf/internal/analytics"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/covers"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router. This replaces a long parameter list in NewRouter.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database

	// Repositories
	BookStore      BookStore
	AdminBookStore AdminBookStore
	CheckoutStore  CheckoutStore
	ReviewStore    ReviewStore
	StaffLogStore  StaffLogStore
	UserStore      UserStore

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Reading analytics (optional, nil when Mongo is not configured)
	AnalyticsStore *analytics.Store

	// Cover caching (optional)
	CoverCache *covers.Cache

	// Task queue client (optional)
	TaskClient *tasks.Client

	// UI
	StaticPath string

	// Application info
	Version string
}
