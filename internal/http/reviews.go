package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/database/reviews"
	"github.com/openshelf/openshelf/internal/entities"
)

// ReviewStore defines the review operations used by the review endpoints.
type ReviewStore interface {
	Upsert(userID, bookID uint, rating int, comment string) (*entities.Review, bool, error)
	Delete(userID, bookID uint) error
	ListByBook(bookID uint, limit, offset int) ([]entities.Review, int64, error)
}

type ReviewsController struct {
	store ReviewStore
}

func NewReviewsController(store ReviewStore) *ReviewsController {
	return &ReviewsController{store: store}
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// SubmitReview creates or replaces the user's review of a book. The book's
// average rating and review count are recomputed in the same transaction.
// PUT /api/books/:id/review
func (rc *ReviewsController) SubmitReview(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "rating is required")
		return
	}

	review, created, err := rc.store.Upsert(userID, bookID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrInvalidRating):
			respondBadRequest(c, "rating must be between 1 and 5")
		case errors.Is(err, reviews.ErrBookNotFound):
			respondNotFound(c, "book")
		default:
			respondInternalError(c, err, "submit review")
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, review)
}

// DeleteReview removes the user's review of a book, recomputing the book's
// aggregates.
// DELETE /api/books/:id/review
func (rc *ReviewsController) DeleteReview(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)

	if err := rc.store.Delete(userID, bookID); err != nil {
		if errors.Is(err, reviews.ErrReviewNotFound) {
			respondNotFound(c, "review")
			return
		}
		respondInternalError(c, err, "delete review")
		return
	}

	respondSuccess(c, "review deleted")
}

// ListReviews returns a book's reviews, newest first.
// GET /api/books/:id/reviews
func (rc *ReviewsController) ListReviews(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	limit, offset := parsePagination(c, 50, 200)

	list, total, err := rc.store.ListByBook(bookID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list reviews")
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
