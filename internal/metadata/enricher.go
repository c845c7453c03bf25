package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/openshelf/openshelf/internal/entities"
)

var ErrNotFound = errors.New("no metadata found")

// Provider fetches book metadata from an external source.
type Provider interface {
	SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
	SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error)
}

// CatalogStore is the slice of the catalog repository the enricher needs.
type CatalogStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	UpdateMetadata(id uint, publisher string, publicationYear int, coverURL, description string) error
}

// CoverInvalidator drops a cached cover when its URL changes.
type CoverInvalidator interface {
	InvalidateCover(bookID uint) error
}

// EnrichmentResult describes what a single enrichment changed.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
	Source        string         `json:"source"`
	SearchMethod  string         `json:"search_method"` // "isbn" or "title"
}

// Enricher fills missing catalog metadata from an external provider.
type Enricher struct {
	provider         Provider
	catalog          CatalogStore
	coverInvalidator CoverInvalidator
}

// NewEnricher creates an enricher for the given provider and catalog.
func NewEnricher(provider Provider, catalog CatalogStore) *Enricher {
	return &Enricher{provider: provider, catalog: catalog}
}

// SetCoverInvalidator wires the cover cache (optional).
func (e *Enricher) SetCoverInvalidator(invalidator CoverInvalidator) {
	e.coverInvalidator = invalidator
}

// EnrichBook fetches metadata for a catalog entry and fills in its empty
// fields. Fields the book already has are never overwritten, except the cover
// URL which is refreshed when the provider has a different one.
func (e *Enricher) EnrichBook(ctx context.Context, bookID uint) (*EnrichmentResult, error) {
	book, err := e.catalog.GetBookByID(bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	var metadata *BookMetadata
	searchMethod := "isbn"

	if book.ISBN != "" {
		metadata, err = e.provider.SearchByISBN(ctx, book.ISBN)
		if err != nil {
			metadata = nil
		}
	}

	if metadata == nil {
		metadata, err = e.provider.SearchByTitle(ctx, book.Title, firstAuthorName(book))
		if err != nil {
			return nil, fmt.Errorf("metadata search failed: %w", err)
		}
		searchMethod = "title"
	}

	publisher, year, coverURL, description, fieldsUpdated := diffMetadata(book, metadata)

	if len(fieldsUpdated) > 0 {
		if coverURL != "" && e.coverInvalidator != nil {
			_ = e.coverInvalidator.InvalidateCover(bookID)
		}

		if err := e.catalog.UpdateMetadata(bookID, publisher, year, coverURL, description); err != nil {
			return nil, fmt.Errorf("update book metadata: %w", err)
		}

		book, err = e.catalog.GetBookByID(bookID)
		if err != nil {
			return nil, fmt.Errorf("refresh book: %w", err)
		}
	}

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: fieldsUpdated,
		Source:        "openlibrary",
		SearchMethod:  searchMethod,
	}, nil
}

// diffMetadata compares the stored book against fetched metadata and returns
// only the values that should be written.
func diffMetadata(book *entities.Book, metadata *BookMetadata) (publisher string, year int, coverURL, description string, fieldsUpdated []string) {
	if book.Publisher == "" && metadata.Publisher != "" {
		publisher = metadata.Publisher
		fieldsUpdated = append(fieldsUpdated, "publisher")
	}
	if book.PublicationYear == 0 && metadata.PublicationYear > 0 {
		year = metadata.PublicationYear
		fieldsUpdated = append(fieldsUpdated, "publication_year")
	}
	if metadata.CoverURL != "" && book.CoverURL != metadata.CoverURL {
		coverURL = metadata.CoverURL
		fieldsUpdated = append(fieldsUpdated, "cover_url")
	}
	if book.Description == "" && metadata.Description != "" {
		description = metadata.Description
		fieldsUpdated = append(fieldsUpdated, "description")
	}
	return publisher, year, coverURL, description, fieldsUpdated
}

func firstAuthorName(book *entities.Book) string {
	if len(book.Authors) == 0 {
		return ""
	}
	return book.Authors[0].Author.Name
}
