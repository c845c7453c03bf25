package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/analytics"
	"github.com/openshelf/openshelf/internal/entities"
)

// AnalyticsController exposes the reading-session telemetry endpoints backed
// by the MongoDB store.
type AnalyticsController struct {
	store *analytics.Store
}

func NewAnalyticsController(store *analytics.Store) *AnalyticsController {
	return &AnalyticsController{store: store}
}

type sessionRequest struct {
	BookID          uint      `json:"book_id" binding:"required"`
	Device          string    `json:"device"`
	DurationSeconds int       `json:"duration_seconds"`
	PagesRead       int       `json:"pages_read"`
	Highlights      int       `json:"highlights"`
	Bookmarks       int       `json:"bookmarks"`
	ProgressPercent float64   `json:"progress_percent"`
	StartedAt       time.Time `json:"started_at"`
}

// RecordSession stores a reading session for the authenticated user.
// POST /api/analytics/sessions
func (ac *AnalyticsController) RecordSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	session := &entities.ReadingSession{
		UserID:          GetUserID(c),
		BookID:          req.BookID,
		Device:          req.Device,
		DurationSeconds: req.DurationSeconds,
		PagesRead:       req.PagesRead,
		Highlights:      req.Highlights,
		Bookmarks:       req.Bookmarks,
		ProgressPercent: req.ProgressPercent,
		StartedAt:       req.StartedAt,
	}

	if err := ac.store.InsertSession(c.Request.Context(), session); err != nil {
		if errors.Is(err, analytics.ErrInvalidSession) {
			respondBadRequest(c, "invalid session values")
			return
		}
		respondInternalError(c, err, "record reading session")
		return
	}

	respondCreated(c, session)
}

// ListMySessions returns the authenticated user's sessions, newest first.
// GET /api/analytics/sessions
func (ac *AnalyticsController) ListMySessions(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	sessions, err := ac.store.ListSessionsByUser(c.Request.Context(), GetUserID(c), int64(limit), int64(offset))
	if err != nil {
		respondInternalError(c, err, "list reading sessions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "limit": limit, "offset": offset})
}

// MySummary aggregates the authenticated user's reading activity.
// GET /api/analytics/summary
func (ac *AnalyticsController) MySummary(c *gin.Context) {
	summary, err := ac.store.GetUserSummary(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "user reading summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ReaderSummary aggregates a specific reader's activity. Staff only.
// GET /api/admin/analytics/readers/:id/summary
func (ac *AnalyticsController) ReaderSummary(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := ac.store.GetUserSummary(c.Request.Context(), userID)
	if err != nil {
		respondInternalError(c, err, "reader summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// BookEngagement aggregates all users' activity on one book. Staff only.
// GET /api/admin/analytics/books/:id
func (ac *AnalyticsController) BookEngagement(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	engagement, err := ac.store.GetBookEngagement(c.Request.Context(), bookID)
	if err != nil {
		respondInternalError(c, err, "book engagement")
		return
	}

	c.JSON(http.StatusOK, engagement)
}

// TopBooks lists the most-read books by total session duration. Staff only.
// GET /api/admin/analytics/top-books?limit=10
func (ac *AnalyticsController) TopBooks(c *gin.Context) {
	top, err := ac.store.GetTopBooks(c.Request.Context(), reportLimit(c))
	if err != nil {
		respondInternalError(c, err, "top books")
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": top})
}

// BookHighlights ranks books by total highlight count. Staff only.
// GET /api/admin/analytics/book-highlights?limit=10
func (ac *AnalyticsController) BookHighlights(c *gin.Context) {
	ranked, err := ac.store.GetBookHighlightCounts(c.Request.Context(), reportLimit(c))
	if err != nil {
		respondInternalError(c, err, "book highlight counts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": ranked})
}

func reportLimit(c *gin.Context) int64 {
	limit := int64(10)
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.ParseInt(limitStr, 10, 64); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	return limit
}

// AnalyticsUnavailable answers analytics routes when no document store is
// configured, so clients get a clear signal instead of a 404.
func AnalyticsUnavailable(c *gin.Context) {
	respondError(c, http.StatusServiceUnavailable, "reading analytics is not configured")
}
