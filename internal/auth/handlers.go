package auth

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
)

// setupMutex serializes setup requests to prevent two first-run admins.
var setupMutex sync.Mutex

// AuthController handles authentication-related HTTP endpoints. The frontend
// is a static JS client, so all endpoints speak JSON.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	rateLimiter    *RateLimiter
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		rateLimiter:    rateLimiter,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.POST("/setup", ac.Setup)
	router.GET("/api/auth/me", ac.Me)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login authenticates a user and establishes a session.
// POST /login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	ip := c.ClientIP()

	allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Username)
	if !allowed {
		c.Header("Retry-After", retryAfter.String())
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"retry_after": retryAfter.String(),
		})
		return
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		ac.rateLimiter.RecordFailure(ip, req.Username)

		if errors.Is(err, ErrAccountLocked) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "account is temporarily locked"})
			return
		}
		// Same message for unknown user and wrong password
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	ac.rateLimiter.RecordSuccess(ip, req.Username)

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "logged in",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Logout destroys the current session.
// POST /logout
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type setupRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Setup creates the first administrator account. Only available while no
// users exist.
// POST /setup
func (ac *AuthController) Setup(c *gin.Context) {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check existing users"})
		return
	}
	if hasUsers {
		c.JSON(http.StatusForbidden, gin.H{"error": "setup already completed"})
		return
	}

	var req setupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	user, err := ac.service.CreateUser(req.Username, req.Email, req.Password, entities.UserRoleAdmin)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(c.Request, user)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "administrator account created",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Me returns the authenticated user's identity.
// GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := ac.service.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// APITokenController manages per-user API tokens.
type APITokenController struct {
	service *Service
}

// NewAPITokenController creates a new token controller.
func NewAPITokenController(service *Service) *APITokenController {
	return &APITokenController{service: service}
}

// GenerateToken issues a new API token for the authenticated user, replacing
// any existing one. The plaintext is returned exactly once.
// POST /api/auth/token
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	token, err := tc.service.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":   token,
		"message": "store this token now; it will not be shown again",
	})
}

// RevokeToken removes the authenticated user's API token.
// DELETE /api/auth/token
func (tc *APITokenController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := tc.service.RevokeToken(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
