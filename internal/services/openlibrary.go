// OpenLibrary API [Service] implementation
//
// OpenLibrary (openlibrary.org) is a public catalog used to enrich book
// records: title/author search, ISBN lookup, and cover image URLs. It hosts
// no user shelves, so the shelf operations report ErrNotImplemented.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

const (
	defaultOpenLibraryBaseURL = "https://openlibrary.org"
	openLibraryCoversURL      = "https://covers.openlibrary.org"
	defaultOpenLibraryAgent   = "shelfctl/0.1 (+https://github.com/Kenpir/library-recommendation-system)"

	// The API asks bulk clients to keep well under a handful of requests
	// per second.
	openLibraryRequestsPerSecond = 3

	defaultSearchLimit = 10
)

// openLibrarySearchFields trims search responses to the fields toBook reads.
const openLibrarySearchFields = "key,title,author_name,isbn,cover_i,number_of_pages_median,first_publish_year"

// OpenLibraryDoc represents a work in OpenLibrary search results.
type OpenLibraryDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	ISBNs            []string `json:"isbn"`
	CoverID          int64    `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
	MedianPages      int      `json:"number_of_pages_median"`
}

type openLibrarySearchResponse struct {
	NumFound int              `json:"numFound"`
	Docs     []OpenLibraryDoc `json:"docs"`
}

// OpenLibraryService implements the Service interface for the public
// OpenLibrary catalog.
type OpenLibraryService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOpenLibraryService creates a new OpenLibrary service instance.
//
// Empty arguments fall back to openlibrary.org and the project's default
// contact string.
func NewOpenLibraryService(baseURL, userAgent string) *OpenLibraryService {
	if baseURL == "" {
		baseURL = defaultOpenLibraryBaseURL
	}
	if userAgent == "" {
		userAgent = defaultOpenLibraryAgent
	}

	return &OpenLibraryService{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(openLibraryRequestsPerSecond), openLibraryRequestsPerSecond),
	}
}

// Name returns the service name.
func (o *OpenLibraryService) Name() string {
	return "OpenLibrary"
}

// Authenticate is a no-op; OpenLibrary's search API is public.
//
// An optional user_agent credential overrides the contact string sent with
// each request (the API asks clients to identify themselves).
func (o *OpenLibraryService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if ua, ok := credentials["user_agent"]; ok && ua != "" {
		o.userAgent = ua
	}
	return nil
}

func (o *OpenLibraryService) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", o.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("openlibrary API error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("openlibrary API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchBooks searches the catalog and returns up to limit matches.
//
// Calls GET /search.json with a fields projection so responses stay small.
func (o *OpenLibraryService) SearchBooks(ctx context.Context, query string, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	endpoint := fmt.Sprintf("/search.json?q=%s&limit=%d&fields=%s",
		url.QueryEscape(query), limit, openLibrarySearchFields)

	var result openLibrarySearchResponse
	if err := o.doRequest(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	books := make([]models.Book, len(result.Docs))
	for i, doc := range result.Docs {
		books[i] = o.toBook(doc)
	}

	return books, nil
}

// SearchBook searches for a book by title and author, returning the best
// match.
func (o *OpenLibraryService) SearchBook(ctx context.Context, title, author string) (*models.Book, error) {
	query := strings.TrimSpace(fmt.Sprintf("%s %s", title, author))

	books, err := o.SearchBooks(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: no results for '%s' by '%s'", shared.ErrBookNotFound, title, author)
	}

	return &books[0], nil
}

// LookupISBN resolves a single ISBN to its catalog entry.
func (o *OpenLibraryService) LookupISBN(ctx context.Context, isbn string) (*models.Book, error) {
	isbn = strings.ReplaceAll(isbn, "-", "")
	if isbn == "" {
		return nil, fmt.Errorf("%w: isbn cannot be empty", shared.ErrInvalidInput)
	}

	books, err := o.SearchBooks(ctx, "isbn:"+isbn, 1)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: isbn %s", shared.ErrBookNotFound, isbn)
	}

	book := books[0]
	if book.ISBN == "" {
		book.ISBN = isbn
	}

	return &book, nil
}

// CoverURL builds the covers.openlibrary.org URL for a cover ID. Size is
// "S", "M", or "L"; empty picks "L".
func (o *OpenLibraryService) CoverURL(coverID int64, size string) string {
	if size == "" {
		size = "L"
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", openLibraryCoversURL, coverID, size)
}

// GetShelves is not supported; OpenLibrary is a read-only catalog.
func (o *OpenLibraryService) GetShelves(ctx context.Context) ([]models.Shelf, error) {
	return nil, fmt.Errorf("%w: openlibrary is a read-only catalog", shared.ErrNotImplemented)
}

// GetShelf is not supported; OpenLibrary is a read-only catalog.
func (o *OpenLibraryService) GetShelf(ctx context.Context, shelfID string) (*models.Shelf, error) {
	return nil, fmt.Errorf("%w: openlibrary is a read-only catalog", shared.ErrNotImplemented)
}

// ExportShelf is not supported; OpenLibrary is a read-only catalog.
func (o *OpenLibraryService) ExportShelf(ctx context.Context, shelfID string) (*models.ShelfExport, error) {
	return nil, fmt.Errorf("%w: openlibrary is a read-only catalog", shared.ErrNotImplemented)
}

// ImportShelf is not supported; OpenLibrary is a read-only catalog.
func (o *OpenLibraryService) ImportShelf(ctx context.Context, shelf *models.ShelfExport) (*models.Shelf, error) {
	return nil, fmt.Errorf("%w: openlibrary is a read-only catalog", shared.ErrNotImplemented)
}

func (o *OpenLibraryService) toBook(doc OpenLibraryDoc) models.Book {
	book := models.Book{
		ID:    strings.TrimPrefix(doc.Key, "/works/"),
		Title: doc.Title,
		ISBN:  pickISBN(doc.ISBNs),
		Pages: doc.MedianPages,
	}

	if len(doc.AuthorNames) > 0 {
		book.Author = doc.AuthorNames[0]
	}

	if doc.CoverID != 0 {
		book.CoverImage = o.CoverURL(doc.CoverID, "L")
	}

	return book
}

// pickISBN prefers an ISBN-13 from the edition list, falling back to the
// first entry.
func pickISBN(isbns []string) string {
	if len(isbns) == 0 {
		return ""
	}
	for _, isbn := range isbns {
		if len(isbn) == 13 {
			return isbn
		}
	}
	return isbns[0]
}
