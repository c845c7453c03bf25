package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/covers"
	"github.com/openshelf/openshelf/internal/database/books"
)

// CoversController serves cached book cover images.
type CoversController struct {
	cache *covers.Cache
	store BookStore
}

func NewCoversController(cache *covers.Cache, store BookStore) *CoversController {
	return &CoversController{cache: cache, store: store}
}

// GetCover streams the book's cover image, fetching it into the local cache
// on first access.
// GET /api/books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := cc.store.GetBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book for cover")
		return
	}

	if book.CoverURL == "" {
		respondNotFound(c, "cover")
		return
	}

	path, err := cc.cache.GetCover(c.Request.Context(), id, book.CoverURL)
	if err != nil || path == "" {
		respondNotFound(c, "cover")
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}
