package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"978-0-13-468599-1", "9780134685991"},
		{"0-13-468599-6", "0134685996"},
		{"978 0 13 468599 1", "9780134685991"},
		{"9780134685991", "9780134685991"},
		{"123", ""},            // Too short
		{"12345678901234", ""}, // Too long
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := normalizeISBN(tt.input)
			if result != tt.expected {
				t.Errorf("normalizeISBN(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"2020", 2020},
		{"January 15, 2019", 2019},
		{"Jan 15, 2019", 2019},
		{"2021-06-15", 2021},
		{"January 2018", 2018},
		{"Published in 1999", 1999},
		{"", 0},
		{"no year here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := extractYear(tt.input)
			if result != tt.expected {
				t.Errorf("extractYear(%q) = %d, expected %d", tt.input, result, tt.expected)
			}
		})
	}
}

func newTestClient(serverURL string) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient:  &http.Client{Timeout: time.Second},
		baseURL:     serverURL,
		rateLimiter: &rateLimiter{interval: 0},
	}
}

func TestSearchByISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/isbn/9780134685991.json" {
			http.NotFound(w, r)
			return
		}
		response := openLibraryEdition{
			Key:           "/books/OL123M",
			Title:         "Effective Java",
			Publishers:    []string{"Addison-Wesley"},
			PublishDate:   "2018",
			NumberOfPages: 416,
			Description:   map[string]any{"type": "/type/text", "value": "The definitive guide."},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	metadata, err := client.SearchByISBN(context.Background(), "978-0-13-468599-1")
	if err != nil {
		t.Fatalf("SearchByISBN failed: %v", err)
	}

	if metadata.Title != "Effective Java" {
		t.Errorf("Title = %q, expected %q", metadata.Title, "Effective Java")
	}
	if metadata.ISBN != "9780134685991" {
		t.Errorf("ISBN = %q, expected normalized ISBN", metadata.ISBN)
	}
	if metadata.Publisher != "Addison-Wesley" {
		t.Errorf("Publisher = %q", metadata.Publisher)
	}
	if metadata.PublicationYear != 2018 {
		t.Errorf("PublicationYear = %d, expected 2018", metadata.PublicationYear)
	}
	if metadata.Description != "The definitive guide." {
		t.Errorf("Description = %q", metadata.Description)
	}
	if metadata.CoverURL == "" {
		t.Error("expected a cover URL derived from the ISBN")
	}
}

func TestSearchByISBN_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.SearchByISBN(context.Background(), "9780134685991")
	if err == nil {
		t.Fatal("expected an error for unknown ISBN")
	}
}

func TestSearchByTitle_PicksBestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := openLibrarySearchResult{
			NumFound: 2,
			Docs: []openLibrarySearchDoc{
				{
					Title:      "The Go Programming Language Companion",
					AuthorName: []string{"Somebody Else"},
				},
				{
					Title:            "The Go Programming Language",
					AuthorName:       []string{"Alan A. A. Donovan", "Brian W. Kernighan"},
					FirstPublishYear: 2015,
					Publisher:        []string{"Addison-Wesley"},
					ISBN:             []string{"9780134190440"},
					CoverI:           8231856,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	metadata, err := client.SearchByTitle(context.Background(), "The Go Programming Language", "Donovan")
	if err != nil {
		t.Fatalf("SearchByTitle failed: %v", err)
	}

	if metadata.Title != "The Go Programming Language" {
		t.Errorf("Title = %q, expected exact match to win", metadata.Title)
	}
	if metadata.ISBN != "9780134190440" {
		t.Errorf("ISBN = %q", metadata.ISBN)
	}
	if metadata.PublicationYear != 2015 {
		t.Errorf("PublicationYear = %d", metadata.PublicationYear)
	}
}

func TestSearchByTitle_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openLibrarySearchResult{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.SearchByTitle(context.Background(), "definitely not a real book title", "")
	if err == nil {
		t.Fatal("expected an error when nothing is found")
	}
}
