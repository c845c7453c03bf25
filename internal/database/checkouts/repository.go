// Package checkouts implements the borrow/return workflow.
//
// Both operations run as single gorm transactions. The availability check and
// decrement are expressed as one guarded UPDATE so the check-and-modify is
// atomic regardless of the engine's isolation level:
//
//	UPDATE books SET available_copies = available_copies - 1
//	WHERE id = ? AND available_copies > 0 AND retired = false
//
// Zero rows affected means the borrow must not proceed; a follow-up read
// distinguishes not-found, retired and no-copies for error reporting.
package checkouts

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrBookNotFound       = errors.New("book not found")
	ErrBookRetired        = errors.New("book is retired from circulation")
	ErrNoCopiesAvailable  = errors.New("no copies available")
	ErrAlreadyBorrowed    = errors.New("user already has this book checked out")
	ErrTooManyOpenLoans   = errors.New("user has reached the open checkout limit")
	ErrCheckoutNotFound   = errors.New("checkout not found")
	ErrAlreadyReturned    = errors.New("checkout already returned")
	ErrNotCheckoutOwner   = errors.New("checkout belongs to another user")
)

// Config controls loan periods and fees.
type Config struct {
	LoanDays     int // Default loan period in days
	MaxOpenLoans int // 0 disables the per-user cap
	LateFeeCents int // Fee per started day late
}

// Repository handles all checkout database operations.
type Repository struct {
	db  *gorm.DB
	cfg Config

	// now is swappable for tests.
	now func() time.Time
}

// NewRepository creates a new checkout repository.
func NewRepository(db *gorm.DB, cfg Config) *Repository {
	if cfg.LoanDays <= 0 {
		cfg.LoanDays = 21
	}
	return &Repository{db: db, cfg: cfg, now: time.Now}
}

// Borrow checks out one copy of a book to a user. The whole operation is
// atomic: on any failure no state changes.
func (r *Repository) Borrow(userID, bookID uint) (*entities.Checkout, error) {
	var checkout *entities.Checkout

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Reject a second open checkout of the same book by the same user.
		var open int64
		err := tx.Model(&entities.Checkout{}).
			Where("user_id = ? AND book_id = ? AND returned = ?", userID, bookID, false).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrAlreadyBorrowed
		}

		if r.cfg.MaxOpenLoans > 0 {
			var total int64
			err := tx.Model(&entities.Checkout{}).
				Where("user_id = ? AND returned = ?", userID, false).
				Count(&total).Error
			if err != nil {
				return err
			}
			if total >= int64(r.cfg.MaxOpenLoans) {
				return ErrTooManyOpenLoans
			}
		}

		// Atomic check-and-decrement of the available copy count.
		result := tx.Model(&entities.Book{}).
			Where("id = ? AND available_copies > 0 AND retired = ?", bookID, false).
			UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
		if result.Error != nil {
			return fmt.Errorf("decrement available copies: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var book entities.Book
			if err := tx.First(&book, bookID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrBookNotFound
				}
				return err
			}
			if book.Retired {
				return ErrBookRetired
			}
			return ErrNoCopiesAvailable
		}

		now := r.now()
		checkout = &entities.Checkout{
			UserID:       userID,
			BookID:       bookID,
			CheckedOutAt: now,
			DueAt:        now.AddDate(0, 0, r.cfg.LoanDays),
		}
		if err := tx.Create(checkout).Error; err != nil {
			return fmt.Errorf("create checkout: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkout, nil
}

// Return closes an open checkout: marks it returned, computes lateness and
// fee against the due date, and puts the copy back in circulation. The
// available count is incremented with a guard so it can never exceed the
// total. Returning the same checkout twice is a conflict.
func (r *Repository) Return(userID, checkoutID uint) (*entities.Checkout, error) {
	var checkout entities.Checkout

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&checkout, checkoutID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCheckoutNotFound
			}
			return err
		}
		if userID != 0 && checkout.UserID != userID {
			return ErrNotCheckoutOwner
		}

		// Mark returned, guarded so a concurrent double return loses.
		now := r.now()
		late := now.After(checkout.DueAt)
		fee := 0
		if late && r.cfg.LateFeeCents > 0 {
			daysLate := int(now.Sub(checkout.DueAt).Hours()/24) + 1
			fee = daysLate * r.cfg.LateFeeCents
		}

		result := tx.Model(&entities.Checkout{}).
			Where("id = ? AND returned = ?", checkoutID, false).
			Updates(map[string]any{
				"returned":    true,
				"returned_at": now,
				"late":        late,
				"fee_cents":   fee,
			})
		if result.Error != nil {
			return fmt.Errorf("close checkout: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyReturned
		}

		// Put the copy back, never exceeding the total.
		increment := tx.Model(&entities.Book{}).
			Where("id = ? AND available_copies < total_copies", checkout.BookID).
			UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
		if increment.Error != nil {
			return fmt.Errorf("increment available copies: %w", increment.Error)
		}

		checkout.Returned = true
		checkout.ReturnedAt = &now
		checkout.Late = late
		checkout.FeeCents = fee
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &checkout, nil
}

// ListByUser returns a user's checkouts, open first, newest first within each group.
func (r *Repository) ListByUser(userID uint, limit, offset int) ([]entities.Checkout, int64, error) {
	var checkouts []entities.Checkout
	var total int64

	if err := r.db.Model(&entities.Checkout{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("returned ASC, checked_out_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&checkouts).Error
	return checkouts, total, err
}

// ListOverdue returns open checkouts past their due date.
func (r *Repository) ListOverdue() ([]entities.Checkout, error) {
	var checkouts []entities.Checkout
	err := r.db.Preload("Book").Preload("User").
		Where("returned = ? AND due_at < ?", false, r.now()).
		Order("due_at ASC").
		Find(&checkouts).Error
	return checkouts, err
}

// FlagOverdue marks open past-due checkouts as late without closing them.
// Run periodically by the overdue sweep task. Returns the number flagged.
func (r *Repository) FlagOverdue() (int64, error) {
	result := r.db.Model(&entities.Checkout{}).
		Where("returned = ? AND late = ? AND due_at < ?", false, false, r.now()).
		UpdateColumn("late", true)
	return result.RowsAffected, result.Error
}
