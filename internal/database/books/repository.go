// Package books provides database operations for the catalog.
//
// This package implements the BookStore interface defined in internal/http/books.go.
package books

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidCopyCount = errors.New("total copies must be at least 1")
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a book together with its ordered author credits.
// Authors are created on first use and matched by exact name afterwards.
// AvailableCopies starts equal to TotalCopies.
func (r *Repository) CreateBook(book *entities.Book, authorNames []string) error {
	if strings.TrimSpace(book.Title) == "" {
		return ErrTitleRequired
	}
	if book.TotalCopies < 1 {
		return ErrInvalidCopyCount
	}
	book.AvailableCopies = book.TotalCopies

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(book).Error; err != nil {
			return fmt.Errorf("create book: %w", err)
		}

		for position, name := range authorNames {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			var author entities.Author
			err := tx.Where("name = ?", name).First(&author).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				author = entities.Author{Name: name}
				if err := tx.Create(&author).Error; err != nil {
					return fmt.Errorf("create author %q: %w", name, err)
				}
			} else if err != nil {
				return fmt.Errorf("look up author %q: %w", name, err)
			}

			join := entities.BookAuthor{
				BookID:   book.ID,
				AuthorID: author.ID,
				Position: position,
			}
			if err := tx.Create(&join).Error; err != nil {
				return fmt.Errorf("link author %q: %w", name, err)
			}
		}

		return nil
	})
}

// GetBookByID returns a book with its authors in credit order.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.
		Preload("Authors", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Authors.Author").
		First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns catalog entries with pagination and optional title/ISBN search.
// Retired books are excluded unless includeRetired is set.
func (r *Repository) ListBooks(search string, includeRetired bool, limit, offset int) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	query := r.db.Model(&entities.Book{})
	if !includeRetired {
		query = query.Where("retired = ?", false)
	}
	if search != "" {
		query = query.Where("title LIKE ? OR isbn = ?", "%"+search+"%", search)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.db.
		Preload("Authors", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Authors.Author").
		Order("title ASC")
	if !includeRetired {
		query = query.Where("retired = ?", false)
	}
	if search != "" {
		query = query.Where("title LIKE ? OR isbn = ?", "%"+search+"%", search)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&books).Error
	return books, total, err
}

// BookUpdate carries the updatable detail fields of a book. Nil fields are
// left untouched.
type BookUpdate struct {
	Title           *string
	ISBN            *string
	Publisher       *string
	PublicationYear *int
	Description     *string
	CoverURL        *string
	TotalCopies     *int
}

// UpdateBook applies detail changes and, when the total copy count changes,
// shifts AvailableCopies by the same delta so the number of copies on loan is
// preserved. Available is floored at zero and capped at the new total.
// Returns the previous and updated state for audit snapshots.
func (r *Repository) UpdateBook(id uint, update BookUpdate) (old, updated *entities.Book, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		prev := book
		old = &prev

		if update.Title != nil {
			if strings.TrimSpace(*update.Title) == "" {
				return ErrTitleRequired
			}
			book.Title = *update.Title
		}
		if update.ISBN != nil {
			book.ISBN = *update.ISBN
		}
		if update.Publisher != nil {
			book.Publisher = *update.Publisher
		}
		if update.PublicationYear != nil {
			book.PublicationYear = *update.PublicationYear
		}
		if update.Description != nil {
			book.Description = *update.Description
		}
		if update.CoverURL != nil {
			book.CoverURL = *update.CoverURL
		}
		if update.TotalCopies != nil {
			if *update.TotalCopies < 1 {
				return ErrInvalidCopyCount
			}
			delta := *update.TotalCopies - book.TotalCopies
			book.TotalCopies = *update.TotalCopies
			book.AvailableCopies += delta
			if book.AvailableCopies < 0 {
				book.AvailableCopies = 0
			}
			if book.AvailableCopies > book.TotalCopies {
				book.AvailableCopies = book.TotalCopies
			}
		}

		if err := tx.Save(&book).Error; err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		updated = &book
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return old, updated, nil
}

// RetireBook marks a book as retired, which blocks new borrows.
// Open checkouts are unaffected. Returns previous and updated state.
func (r *Repository) RetireBook(id uint) (old, updated *entities.Book, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		prev := book
		old = &prev

		if err := tx.Model(&book).Update("retired", true).Error; err != nil {
			return err
		}
		book.Retired = true
		updated = &book
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return old, updated, nil
}

// UpdateMetadata fills catalog metadata fields from an external source,
// leaving zero-valued fields untouched. Used by the OpenLibrary enricher.
func (r *Repository) UpdateMetadata(id uint, publisher string, publicationYear int, coverURL, description string) error {
	updates := map[string]any{}
	if publisher != "" {
		updates["publisher"] = publisher
	}
	if publicationYear > 0 {
		updates["publication_year"] = publicationYear
	}
	if coverURL != "" {
		updates["cover_url"] = coverURL
	}
	if description != "" {
		updates["description"] = description
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// CountBooks returns the number of live (non-retired) catalog entries.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("retired = ?", false).Count(&count).Error
	return count, err
}
