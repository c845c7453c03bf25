// Package covers caches book cover images on local disk so the catalog UI
// does not hit external image hosts on every page load.
package covers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// maxCoverBytes bounds a single cached image.
const maxCoverBytes = 10 << 20

// Cache stores fetched cover images under a single directory, keyed by book
// ID and a hash of the source URL.
type Cache struct {
	dir        string
	httpClient *http.Client
}

// NewCache creates a cover cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cover cache dir: %w", err)
	}

	return &Cache{
		dir:        dir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// GetCover returns the path to the cached cover image for a book, fetching
// and storing it on a miss. An empty coverURL yields an empty path.
func (c *Cache) GetCover(ctx context.Context, bookID uint, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	path := filepath.Join(c.dir, c.filename(bookID, coverURL))

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := c.download(ctx, coverURL, path); err != nil {
		return "", err
	}
	return path, nil
}

// InvalidateCover drops all cached covers for a book. Called when the cover
// URL changes during metadata enrichment.
func (c *Cache) InvalidateCover(bookID uint) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, fmt.Sprintf("cover_%d_*", bookID)))
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// filename keys the cache on book ID plus a hash of the source URL, so a
// changed URL naturally misses.
func (c *Cache) filename(bookID uint, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%d_%x.jpg", bookID, hash[:8])
}

// download fetches the image into a temp file and renames it into place so
// concurrent readers never see a partial file.
func (c *Cache) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "OpenShelf/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp(c.dir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, io.LimitReader(resp.Body, maxCoverBytes)); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}
