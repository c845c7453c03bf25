package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (development only)
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type (
	Config struct {
		HTTP
		Global
		Database
		Analytics
		Lending
		UI
		Tasks
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	// Analytics configures the MongoDB reading-telemetry store.
	// Leaving URI empty disables the analytics endpoints.
	Analytics struct {
		URI        string
		Database   string
		Collection string
	}

	// Lending controls the borrow/return workflow.
	Lending struct {
		LoanDays     int           // Default loan period
		MaxOpenLoans int           // Per-user cap on simultaneous open checkouts
		LateFeeCents int           // Fee per day late
		OverdueSweep string        // Cron schedule for the overdue sweep
		LogRetention time.Duration // How long to keep staff log rows
		CleanupSweep string        // Cron schedule for staff log cleanup
	}

	UI struct {
		StaticPath string
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}

	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Login rate limiting
		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("static_path", "./static")

	// Analytics defaults
	v.SetDefault("analytics_mongo_uri", "")
	v.SetDefault("analytics_mongo_database", "openshelf")
	v.SetDefault("analytics_mongo_collection", "reading_sessions")

	// Lending defaults
	v.SetDefault("lending_loan_days", DefaultLoanDays)
	v.SetDefault("lending_max_open_loans", DefaultMaxOpenLoans)
	v.SetDefault("lending_late_fee_cents", DefaultLateFeeCents)
	v.SetDefault("lending_overdue_sweep", "0 * * * *")  // Hourly at :00
	v.SetDefault("lending_cleanup_sweep", "30 3 * * *") // Nightly at 03:30
	v.SetDefault("lending_log_retention", "2160h")      // 90 days

	// Auth defaults
	v.SetDefault("auth_mode", "local")
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_token_expiry", "720h") // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Analytics: Analytics{
			URI:        v.GetString("ANALYTICS_MONGO_URI"),
			Database:   v.GetString("ANALYTICS_MONGO_DATABASE"),
			Collection: v.GetString("ANALYTICS_MONGO_COLLECTION"),
		},
		Lending: Lending{
			LoanDays:     v.GetInt("LENDING_LOAN_DAYS"),
			MaxOpenLoans: v.GetInt("LENDING_MAX_OPEN_LOANS"),
			LateFeeCents: v.GetInt("LENDING_LATE_FEE_CENTS"),
			OverdueSweep: v.GetString("LENDING_OVERDUE_SWEEP"),
			CleanupSweep: v.GetString("LENDING_CLEANUP_SWEEP"),
			LogRetention: v.GetDuration("LENDING_LOG_RETENTION"),
		},
		UI: UI{
			StaticPath: v.GetString("STATIC_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
	}
}
