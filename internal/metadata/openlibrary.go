// Package metadata enriches catalog entries with data from the OpenLibrary
// API. Lookups go by ISBN first, falling back to a title/author search.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// BookMetadata is the normalized result of an external lookup.
type BookMetadata struct {
	Title           string `json:"title,omitempty"`
	Author          string `json:"author,omitempty"`
	ISBN            string `json:"isbn,omitempty"`
	Publisher       string `json:"publisher,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	Description     string `json:"description,omitempty"`
	CoverURL        string `json:"cover_url,omitempty"`
	PageCount       int    `json:"page_count,omitempty"`
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

// rateLimiter spaces out API calls. OpenLibrary asks for at most one request
// per second from unauthenticated clients.
type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates a rate-limited OpenLibrary API client.
func NewOpenLibraryClient() *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     "https://openlibrary.org",
		rateLimiter: &rateLimiter{interval: time.Second},
	}
}

func (c *OpenLibraryClient) get(ctx context.Context, url string, out any) error {
	c.rateLimiter.wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "OpenShelf/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SearchByISBN looks up a single edition by its ISBN.
func (c *OpenLibraryClient) SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	var edition openLibraryEdition
	if err := c.get(ctx, fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn), &edition); err != nil {
		return nil, err
	}

	metadata := &BookMetadata{
		Title:     edition.Title,
		ISBN:      isbn,
		PageCount: edition.NumberOfPages,
		CoverURL:  coverURLForISBN(isbn),
	}
	if len(edition.Publishers) > 0 {
		metadata.Publisher = edition.Publishers[0]
	}
	if edition.PublishDate != "" {
		metadata.PublicationYear = extractYear(edition.PublishDate)
	}
	metadata.Description = edition.description()

	return metadata, nil
}

// SearchByTitle searches by title (and author, when known) and returns the
// best-scoring result.
func (c *OpenLibraryClient) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	q := title
	if author != "" {
		q = title + " " + author
	}
	searchURL := fmt.Sprintf("%s/search.json?q=%s&limit=5", c.baseURL, url.QueryEscape(q))

	var result openLibrarySearchResult
	if err := c.get(ctx, searchURL, &result); err != nil {
		return nil, err
	}
	if len(result.Docs) == 0 {
		return nil, ErrNotFound
	}

	doc := bestMatch(result.Docs, title, author)

	metadata := &BookMetadata{
		Title:           doc.Title,
		PublicationYear: doc.FirstPublishYear,
	}
	if len(doc.AuthorName) > 0 {
		metadata.Author = doc.AuthorName[0]
	}
	if len(doc.Publisher) > 0 {
		metadata.Publisher = doc.Publisher[0]
	}
	if len(doc.ISBN) > 0 {
		metadata.ISBN = doc.ISBN[0]
		metadata.CoverURL = coverURLForISBN(doc.ISBN[0])
	} else if doc.CoverI != 0 {
		metadata.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI)
	}

	return metadata, nil
}

// bestMatch scores candidates by title and author closeness, preferring docs
// that carry an ISBN and a cover.
func bestMatch(docs []openLibrarySearchDoc, title, author string) *openLibrarySearchDoc {
	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	best := &docs[0]
	bestScore := -1

	for i := range docs {
		doc := &docs[i]
		score := 0

		docTitle := strings.ToLower(doc.Title)
		if docTitle == titleLower {
			score += 10
		} else if strings.Contains(docTitle, titleLower) {
			score += 5
		}

		if author != "" {
			for _, name := range doc.AuthorName {
				if strings.ToLower(name) == authorLower {
					score += 10
					break
				}
				if strings.Contains(strings.ToLower(name), authorLower) {
					score += 5
					break
				}
			}
		}

		if len(doc.ISBN) > 0 {
			score += 2
		}
		if doc.CoverI != 0 {
			score++
		}

		if score > bestScore {
			bestScore = score
			best = doc
		}
	}

	return best
}

func coverURLForISBN(isbn string) string {
	return fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn)
}

// normalizeISBN strips separators and checks the length is ISBN-10 or -13.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// extractYear pulls a plausible 4-digit year out of a free-form date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)

	formats := []string{"2006", "January 2, 2006", "Jan 2, 2006", "2006-01-02", "January 2006"}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	for i := 0; i+4 <= len(dateStr); i++ {
		var year int
		if _, err := fmt.Sscanf(dateStr[i:i+4], "%d", &year); err == nil && year > 1000 && year < 3000 {
			return year
		}
	}
	return 0
}

// OpenLibrary API response types

type openLibraryEdition struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	NumberOfPages int      `json:"number_of_pages"`
	Description   any      `json:"description"` // string or {type, value}
}

func (e *openLibraryEdition) description() string {
	switch v := e.Description.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Publisher        []string `json:"publisher"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
}
