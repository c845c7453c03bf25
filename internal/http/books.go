package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/entities"
)

// BookStore defines the catalog operations used by the public book endpoints.
type BookStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	ListBooks(search string, includeRetired bool, limit, offset int) ([]entities.Book, int64, error)
	CountBooks() (int64, error)
}

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{store: store}
}

// ListBooks returns catalog entries with pagination and optional search.
// GET /api/books?search=...&limit=...&offset=...
func (bc *BooksController) ListBooks(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)
	search := c.Query("search")

	// Retired books only show up for staff browsing with ?include_retired=true
	includeRetired := false
	if c.Query("include_retired") == "true" {
		role := GetUserRole(c)
		includeRetired = role == entities.UserRoleStaff || role == entities.UserRoleAdmin
	}

	list, total, err := bc.store.ListBooks(search, includeRetired, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list books")
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

// GetBook returns a single catalog entry with its authors and review
// aggregates.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// GetStats returns simple catalog statistics.
// GET /api/books/stats
func (bc *BooksController) GetStats(c *gin.Context) {
	count, err := bc.store.CountBooks()
	if err != nil {
		respondInternalError(c, err, "book stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"total_books": count})
}
