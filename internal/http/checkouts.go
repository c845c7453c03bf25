package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/database/checkouts"
	"github.com/openshelf/openshelf/internal/entities"
)

// CheckoutStore defines the lending operations used by the checkout endpoints.
type CheckoutStore interface {
	Borrow(userID, bookID uint) (*entities.Checkout, error)
	Return(userID, checkoutID uint) (*entities.Checkout, error)
	ListByUser(userID uint, limit, offset int) ([]entities.Checkout, int64, error)
	ListOverdue() ([]entities.Checkout, error)
}

type CheckoutsController struct {
	store CheckoutStore
}

func NewCheckoutsController(store CheckoutStore) *CheckoutsController {
	return &CheckoutsController{store: store}
}

// Borrow checks out one copy of a book to the authenticated user.
// POST /api/books/:id/borrow
func (cc *CheckoutsController) Borrow(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)

	checkout, err := cc.store.Borrow(userID, bookID)
	if err != nil {
		switch {
		case errors.Is(err, checkouts.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, checkouts.ErrBookRetired):
			respondConflict(c, "book is retired from circulation", "book_retired")
		case errors.Is(err, checkouts.ErrNoCopiesAvailable):
			respondConflict(c, "no copies available", "no_copies")
		case errors.Is(err, checkouts.ErrAlreadyBorrowed):
			respondConflict(c, "you already have this book checked out", "already_borrowed")
		case errors.Is(err, checkouts.ErrTooManyOpenLoans):
			respondConflict(c, "open checkout limit reached", "loan_limit")
		default:
			respondInternalError(c, err, "borrow book")
		}
		return
	}

	respondCreated(c, checkout)
}

// Return closes an open checkout and restores the copy to the shelf. A
// return past the due date carries a late fee on the closed checkout.
// POST /api/checkouts/:id/return
func (cc *CheckoutsController) Return(c *gin.Context) {
	checkoutID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)

	checkout, err := cc.store.Return(userID, checkoutID)
	if err != nil {
		switch {
		case errors.Is(err, checkouts.ErrCheckoutNotFound):
			respondNotFound(c, "checkout")
		case errors.Is(err, checkouts.ErrNotCheckoutOwner):
			respondError(c, http.StatusForbidden, "checkout belongs to another user")
		case errors.Is(err, checkouts.ErrAlreadyReturned):
			respondConflict(c, "checkout already returned", "already_returned")
		default:
			respondInternalError(c, err, "return book")
		}
		return
	}

	c.JSON(http.StatusOK, checkout)
}

// ListMine returns the authenticated user's checkouts, open loans first.
// GET /api/checkouts
func (cc *CheckoutsController) ListMine(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 200)
	userID := GetUserID(c)

	list, total, err := cc.store.ListByUser(userID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list checkouts")
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

// ListOverdue returns every open checkout past its due date. Staff only.
// GET /api/admin/checkouts/overdue
func (cc *CheckoutsController) ListOverdue(c *gin.Context) {
	list, err := cc.store.ListOverdue()
	if err != nil {
		respondInternalError(c, err, "list overdue checkouts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkouts": list, "count": len(list)})
}
