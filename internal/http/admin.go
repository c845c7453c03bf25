package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/users"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/tasks"
)

// AdminBookStore defines the inventory mutations available to staff.
type AdminBookStore interface {
	CreateBook(book *entities.Book, authorNames []string) error
	UpdateBook(id uint, update books.BookUpdate) (old, updated *entities.Book, err error)
	RetireBook(id uint) (old, updated *entities.Book, err error)
}

// StaffLogStore records and lists staff audit entries.
type StaffLogStore interface {
	Record(actorID uint, action entities.StaffAction, entityType string, entityID *uint, description string, oldValue, newValue any, ipAddress string) error
	List(action entities.StaffAction, limit, offset int) ([]entities.StaffLog, int64, error)
}

// UserStore defines the user administration operations.
type UserStore interface {
	List(limit, offset int) ([]entities.User, int64, error)
	UpdateRole(id uint, role entities.UserRole) (old, updated *entities.User, err error)
}

// AdminController handles staff inventory actions and admin user management.
// Every mutation writes a staff log entry with before/after snapshots.
type AdminController struct {
	books      AdminBookStore
	staffLog   StaffLogStore
	users      UserStore
	taskClient *tasks.Client
}

func NewAdminController(bookStore AdminBookStore, staffLog StaffLogStore, userStore UserStore, taskClient *tasks.Client) *AdminController {
	return &AdminController{
		books:      bookStore,
		staffLog:   staffLog,
		users:      userStore,
		taskClient: taskClient,
	}
}

type createBookRequest struct {
	Title           string   `json:"title" binding:"required"`
	Authors         []string `json:"authors"`
	ISBN            string   `json:"isbn"`
	Publisher       string   `json:"publisher"`
	PublicationYear int      `json:"publication_year"`
	Description     string   `json:"description"`
	TotalCopies     int      `json:"total_copies"`
}

// CreateBook adds a catalog entry. When the book carries an ISBN and the task
// queue is running, a metadata enrichment job is enqueued.
// POST /api/admin/books
func (ac *AdminController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}
	if req.TotalCopies == 0 {
		req.TotalCopies = 1
	}

	book := &entities.Book{
		Title:           req.Title,
		ISBN:            req.ISBN,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Description:     req.Description,
		TotalCopies:     req.TotalCopies,
	}

	if err := ac.books.CreateBook(book, req.Authors); err != nil {
		switch {
		case errors.Is(err, books.ErrTitleRequired):
			respondBadRequest(c, "title is required")
		case errors.Is(err, books.ErrInvalidCopyCount):
			respondBadRequest(c, "total copies must be at least 1")
		default:
			respondInternalError(c, err, "create book")
		}
		return
	}

	ac.record(c, entities.StaffActionBookCreate, book.ID,
		fmt.Sprintf("created book %q", book.Title), nil, book)

	if ac.taskClient != nil && book.ISBN != "" {
		_, _ = ac.taskClient.Add(tasks.EnrichBookTask{BookID: book.ID}).Save()
	}

	respondCreated(c, book)
}

type updateBookRequest struct {
	Title           *string `json:"title"`
	ISBN            *string `json:"isbn"`
	Publisher       *string `json:"publisher"`
	PublicationYear *int    `json:"publication_year"`
	Description     *string `json:"description"`
	CoverURL        *string `json:"cover_url"`
	TotalCopies     *int    `json:"total_copies"`
}

// UpdateBook edits catalog details and copy counts. Changing the total copy
// count shifts availability by the same delta so copies on loan stay
// accounted for.
// PATCH /api/admin/books/:id
func (ac *AdminController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	old, updated, err := ac.books.UpdateBook(id, books.BookUpdate{
		Title:           req.Title,
		ISBN:            req.ISBN,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Description:     req.Description,
		CoverURL:        req.CoverURL,
		TotalCopies:     req.TotalCopies,
	})
	if err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, books.ErrTitleRequired):
			respondBadRequest(c, "title cannot be empty")
		case errors.Is(err, books.ErrInvalidCopyCount):
			respondBadRequest(c, "total copies must be at least 1")
		default:
			respondInternalError(c, err, "update book")
		}
		return
	}

	ac.record(c, entities.StaffActionBookUpdate, id,
		fmt.Sprintf("updated book %q", updated.Title), old, updated)

	c.JSON(http.StatusOK, updated)
}

// RetireBook removes a book from circulation. Existing checkouts stay open;
// new borrows are rejected.
// POST /api/admin/books/:id/retire
func (ac *AdminController) RetireBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	old, updated, err := ac.books.RetireBook(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "retire book")
		return
	}

	ac.record(c, entities.StaffActionBookRetire, id,
		fmt.Sprintf("retired book %q", updated.Title), old, updated)

	c.JSON(http.StatusOK, updated)
}

// EnrichBook enqueues a metadata enrichment job for a book.
// POST /api/admin/books/:id/enrich
func (ac *AdminController) EnrichBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if ac.taskClient == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is not running")
		return
	}

	ids, err := ac.taskClient.Add(tasks.EnrichBookTask{BookID: id}).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue enrichment")
		return
	}

	ac.record(c, entities.StaffActionBookEnrich, id, "requested metadata enrichment", nil, nil)

	c.JSON(http.StatusAccepted, gin.H{"message": "enrichment queued", "task_ids": ids})
}

// ListStaffLog returns the audit trail, newest first, optionally filtered by
// action.
// GET /api/admin/staff-log?action=...
func (ac *AdminController) ListStaffLog(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)
	action := entities.StaffAction(c.Query("action"))

	entries, total, err := ac.staffLog.List(action, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list staff log")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(entries)) < total,
	})
}

// ListUsers returns all accounts for the admin user screen.
// GET /api/admin/users
func (ac *AdminController) ListUsers(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)

	list, total, err := ac.users.List(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    list,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(list)) < total,
	})
}

type roleChangeRequest struct {
	Role entities.UserRole `json:"role" binding:"required"`
}

// ChangeUserRole promotes or demotes an account.
// PUT /api/admin/users/:id/role
func (ac *AdminController) ChangeUserRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req roleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "role is required")
		return
	}

	// Admins cannot demote themselves; the last admin would lock everyone out
	if id == GetUserID(c) {
		respondConflict(c, "cannot change your own role", "self_role_change")
		return
	}

	old, updated, err := ac.users.UpdateRole(id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			respondNotFound(c, "user")
		case errors.Is(err, users.ErrInvalidRole):
			respondBadRequest(c, "invalid role")
		default:
			respondInternalError(c, err, "change user role")
		}
		return
	}

	ac.record(c, entities.StaffActionRoleChange, id,
		fmt.Sprintf("changed role of %q from %s to %s", updated.Username, old.Role, updated.Role),
		gin.H{"role": old.Role}, gin.H{"role": updated.Role})

	c.JSON(http.StatusOK, updated)
}

// record writes a staff log entry. Logging failures are reported in the
// server log but never fail the action itself.
func (ac *AdminController) record(c *gin.Context, action entities.StaffAction, entityID uint, description string, oldValue, newValue any) {
	if ac.staffLog == nil {
		return
	}

	entityType := "book"
	if action == entities.StaffActionRoleChange {
		entityType = "user"
	}

	err := ac.staffLog.Record(GetUserID(c), action, entityType, &entityID, description, oldValue, newValue, c.ClientIP())
	if err != nil {
		log.Printf("Failed to record staff log entry: %v", err)
	}
}
