package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/stafflog"
	"github.com/openshelf/openshelf/internal/database/users"
	"github.com/openshelf/openshelf/internal/entities"
)

func newAdminRouter(db *database.Database, actorID uint) (*gin.Engine, *stafflog.Repository) {
	staffLogRepo := stafflog.NewRepository(db.DB)
	controller := NewAdminController(books.NewRepository(db.DB), staffLogRepo, users.NewRepository(db.DB), nil)

	router := gin.New()
	router.Use(asUser(actorID, entities.UserRoleAdmin))
	router.POST("/api/admin/books", controller.CreateBook)
	router.PATCH("/api/admin/books/:id", controller.UpdateBook)
	router.POST("/api/admin/books/:id/retire", controller.RetireBook)
	router.POST("/api/admin/books/:id/enrich", controller.EnrichBook)
	router.GET("/api/admin/staff-log", controller.ListStaffLog)
	router.GET("/api/admin/users", controller.ListUsers)
	router.PUT("/api/admin/users/:id/role", controller.ChangeUserRole)
	return router, staffLogRepo
}

func jsonRequest(router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAdminController_CreateBook(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	staff := createTestUser(t, db, "librarian")
	router, staffLogRepo := newAdminRouter(db, staff.ID)

	t.Run("creates a book with authors and logs the action", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPost, "/api/admin/books", map[string]any{
			"title":        "The Dispossessed",
			"authors":      []string{"Ursula K. Le Guin"},
			"isbn":         "9780061054884",
			"total_copies": 3,
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var book entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
		assert.Equal(t, 3, book.TotalCopies)
		assert.Equal(t, 3, book.AvailableCopies)

		entries, total, err := staffLogRepo.List(entities.StaffActionBookCreate, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, staff.ID, entries[0].ActorID)
	})

	t.Run("defaults to a single copy", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPost, "/api/admin/books", map[string]any{
			"title": "Pamphlet",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var book entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
		assert.Equal(t, 1, book.TotalCopies)
	})

	t.Run("rejects a missing title", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPost, "/api/admin/books", map[string]any{
			"authors": []string{"Anonymous"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminController_UpdateBook(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	bookRepo := books.NewRepository(db.DB)
	book := createCatalogBook(t, bookRepo, "Dune", 2)
	staff := createTestUser(t, db, "librarian")
	router, staffLogRepo := newAdminRouter(db, staff.ID)

	t.Run("edits details and shifts availability with copy count", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPatch, fmt.Sprintf("/api/admin/books/%d", book.ID), map[string]any{
			"publisher":    "Chilton Books",
			"total_copies": 5,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var updated entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, "Chilton Books", updated.Publisher)
		assert.Equal(t, 5, updated.TotalCopies)
		assert.Equal(t, 5, updated.AvailableCopies)

		_, total, err := staffLogRepo.List(entities.StaffActionBookUpdate, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("returns 404 for an unknown book", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPatch, "/api/admin/books/999", map[string]any{
			"publisher": "Nobody",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminController_RetireBook(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	bookRepo := books.NewRepository(db.DB)
	book := createCatalogBook(t, bookRepo, "Dune", 2)
	staff := createTestUser(t, db, "librarian")
	router, staffLogRepo := newAdminRouter(db, staff.ID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/api/admin/books/%d/retire", book.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var retired entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &retired))
	assert.True(t, retired.Retired)

	_, total, err := staffLogRepo.List(entities.StaffActionBookRetire, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestAdminController_EnrichBook_NoQueue(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	staff := createTestUser(t, db, "librarian")
	router, _ := newAdminRouter(db, staff.ID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/admin/books/1/enrich", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminController_ListStaffLog(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	staff := createTestUser(t, db, "librarian")
	router, staffLogRepo := newAdminRouter(db, staff.ID)

	bookID := uint(1)
	require.NoError(t, staffLogRepo.Record(staff.ID, entities.StaffActionBookCreate, "book", &bookID, "created", nil, nil, "127.0.0.1"))
	require.NoError(t, staffLogRepo.Record(staff.ID, entities.StaffActionBookRetire, "book", &bookID, "retired", nil, nil, "127.0.0.1"))

	t.Run("lists all entries", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/admin/staff-log", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(2), response.Total)
	})

	t.Run("filters by action", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/admin/staff-log?action=book_retire", nil)
		router.ServeHTTP(w, req)

		var response PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(1), response.Total)
	})
}

func TestAdminController_ChangeUserRole(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	admin := createTestUser(t, db, "boss")
	reader := createTestUser(t, db, "reader")
	router, staffLogRepo := newAdminRouter(db, admin.ID)

	t.Run("promotes a reader to staff and logs the change", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", reader.ID), map[string]any{
			"role": "staff",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var updated entities.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, entities.UserRoleStaff, updated.Role)

		_, total, err := staffLogRepo.List(entities.StaffActionRoleChange, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("rejects changing your own role", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", admin.ID), map[string]any{
			"role": "reader",
		})

		assert.Equal(t, http.StatusConflict, w.Code)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "self_role_change", response.Code)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", reader.ID), map[string]any{
			"role": "superuser",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 404 for an unknown user", func(t *testing.T) {
		w := jsonRequest(router, http.MethodPut, "/api/admin/users/999/role", map[string]any{
			"role": "staff",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
