package entities

import (
	"time"

	"gorm.io/gorm"
)

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256" json:"name"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Book struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Title           string `gorm:"index;size:512" json:"title"`
	ISBN            string `gorm:"index;size:20" json:"isbn,omitempty"`
	Publisher       string `gorm:"size:256" json:"publisher,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	Description     string `gorm:"type:text" json:"description,omitempty"`
	CoverURL        string `gorm:"size:2048" json:"cover_url,omitempty"`

	// Inventory. Invariant: 0 <= AvailableCopies <= TotalCopies.
	TotalCopies     int  `gorm:"default:1" json:"total_copies"`
	AvailableCopies int  `gorm:"default:1" json:"available_copies"`
	Retired         bool `gorm:"default:false;index" json:"retired"`

	// Denormalized review aggregates, recomputed whenever a review changes.
	AverageRating float64 `gorm:"default:0" json:"average_rating"`
	ReviewCount   int64   `gorm:"default:0" json:"review_count"`

	// Authors are attached through the ordered book_authors join.
	Authors []BookAuthor `gorm:"foreignKey:BookID" json:"authors,omitempty"`
	Reviews []Review     `gorm:"foreignKey:BookID" json:"reviews,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BookAuthor is the order-preserving many-to-many join between books and
// authors. Position is the zero-based credit order on the title page.
type BookAuthor struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	BookID   uint   `gorm:"uniqueIndex:idx_book_author;index" json:"-"`
	AuthorID uint   `gorm:"uniqueIndex:idx_book_author" json:"author_id"`
	Position int    `gorm:"default:0" json:"position"`
	Author   Author `gorm:"foreignKey:AuthorID" json:"author"`
}

type Review struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"uniqueIndex:idx_user_book_review;index" json:"user_id"`
	BookID  uint   `gorm:"uniqueIndex:idx_user_book_review;index" json:"book_id"`
	Rating  int    `json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Book Book `gorm:"foreignKey:BookID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Author) TableName() string {
	return "authors"
}

func (Book) TableName() string {
	return "books"
}

func (BookAuthor) TableName() string {
	return "book_authors"
}

func (Review) TableName() string {
	return "reviews"
}
