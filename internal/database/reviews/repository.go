// Package reviews provides review storage and keeps each book's denormalized
// rating aggregates in step with its live reviews. The recomputation runs in
// the same transaction as the review write, so readers never observe a book
// whose average disagrees with its reviews.
package reviews

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrReviewNotFound = errors.New("review not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new review repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert creates or replaces the user's review of a book. A user has at most
// one review per book; a second submission updates the existing row.
// Returns the review and whether it was newly created.
func (r *Repository) Upsert(userID, bookID uint, rating int, comment string) (*entities.Review, bool, error) {
	if rating < 1 || rating > 5 {
		return nil, false, ErrInvalidRating
	}

	var review entities.Review
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		err := tx.Where("user_id = ? AND book_id = ?", userID, bookID).First(&review).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = entities.Review{
				UserID:  userID,
				BookID:  bookID,
				Rating:  rating,
				Comment: comment,
			}
			if err := tx.Create(&review).Error; err != nil {
				return fmt.Errorf("create review: %w", err)
			}
			created = true
		case err != nil:
			return err
		default:
			review.Rating = rating
			review.Comment = comment
			if err := tx.Save(&review).Error; err != nil {
				return fmt.Errorf("update review: %w", err)
			}
		}

		return recomputeAggregates(tx, bookID)
	})
	if err != nil {
		return nil, false, err
	}
	return &review, created, nil
}

// Delete removes the user's review of a book and recomputes the aggregates.
func (r *Repository) Delete(userID, bookID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND book_id = ?", userID, bookID).
			Delete(&entities.Review{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrReviewNotFound
		}
		return recomputeAggregates(tx, bookID)
	})
}

// ListByBook returns a book's reviews, newest first, with pagination.
func (r *Repository) ListByBook(bookID uint, limit, offset int) ([]entities.Review, int64, error) {
	var reviews []entities.Review
	var total int64

	if err := r.db.Model(&entities.Review{}).Where("book_id = ?", bookID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Where("book_id = ?", bookID).Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&reviews).Error
	return reviews, total, err
}

// GetByUserAndBook returns a user's review of a book, if any.
func (r *Repository) GetByUserAndBook(userID, bookID uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// recomputeAggregates refreshes a book's average_rating and review_count from
// its live reviews. A book with no reviews goes back to 0/0.
func recomputeAggregates(tx *gorm.DB, bookID uint) error {
	var agg struct {
		Avg   float64
		Count int64
	}
	err := tx.Model(&entities.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("aggregate reviews: %w", err)
	}

	return tx.Model(&entities.Book{}).
		Where("id = ?", bookID).
		Updates(map[string]any{
			"average_rating": agg.Avg,
			"review_count":   agg.Count,
		}).Error
}
