// Bookhive API [Service] implementation
//
// Bookhive is the hosted catalog this client syncs shelves and books
// against. Authentication uses the OAuth2 authorization code flow; requests
// carry a bearer token that renews transparently through the refresh token.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

const (
	bookhiveAuthURL  = "https://auth.bookhive.io/oauth/authorize"
	bookhiveTokenURL = "https://auth.bookhive.io/oauth/token"
	bookhiveBaseURL  = "https://api.bookhive.io/v1"
)

// Bookhive meters requests per client; stay inside the published budget.
const (
	bookhiveRequestsPerSecond = 10
	bookhiveBurst             = 5
)

// errNotFound marks 404 responses so callers can map them to the resource
// they were fetching.
var errNotFound = errors.New("resource not found")

// BookhiveUser represents the authenticated user's profile.
type BookhiveUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Plan        string `json:"plan"`
	ShelfCount  int    `json:"shelf_count"`
	BookCount   int    `json:"book_count"`
}

// BookhiveAuthor represents an author in Bookhive responses.
type BookhiveAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookhiveBook represents a catalog entry in Bookhive responses.
type BookhiveBook struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Authors     []BookhiveAuthor `json:"authors"`
	ISBN10      string           `json:"isbn_10,omitempty"`
	ISBN13      string           `json:"isbn_13,omitempty"`
	Pages       int              `json:"pages"`
	Description string           `json:"description,omitempty"`
	CoverURL    string           `json:"cover_url,omitempty"`
}

// BookhiveShelf represents a shelf from Bookhive.
type BookhiveShelf struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	BookCount   int    `json:"book_count"`
}

type pagedShelves struct {
	Items  []BookhiveShelf `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type pagedBooks struct {
	Items  []BookhiveBook `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// bookPayload is the shape Bookhive accepts when adding books to a shelf.
type bookPayload struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	Description string `json:"description,omitempty"`
}

func (b BookhiveBook) toBook() models.Book {
	book := models.Book{
		ID:          b.ID,
		Title:       b.Title,
		ISBN:        b.ISBN13,
		Pages:       b.Pages,
		Description: b.Description,
		CoverImage:  b.CoverURL,
	}

	if book.ISBN == "" {
		book.ISBN = b.ISBN10
	}

	if len(b.Authors) > 0 {
		names := make([]string, len(b.Authors))
		for i, a := range b.Authors {
			names[i] = a.Name
		}
		book.Author = strings.Join(names, ", ")
	}

	return book
}

func (s BookhiveShelf) toShelf() models.Shelf {
	return models.Shelf{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		BookCount:   s.BookCount,
		Public:      s.Public,
	}
}

// BookhiveService implements [Service] and [OAuthService] for the hosted
// Bookhive catalog.
type BookhiveService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	credentials    map[string]string
	baseURL        string
	limiter        *rate.Limiter
	tokenSource    *refreshableTokenSource
	onTokenRefresh func(*oauth2.Token)
}

// NewBookhiveService creates a new Bookhive service instance.
//
// Required credentials: client_id, client_secret. Optional: redirect_uri
// (defaults to the localhost callback the CLI's OAuth server listens on).
func NewBookhiveService(credentials map[string]string) (*BookhiveService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"profile.read",
			"shelves.read",
			"shelves.write",
			"books.read",
			"books.write",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  bookhiveAuthURL,
			TokenURL: bookhiveTokenURL,
		},
	}

	return &BookhiveService{
		config:      config,
		credentials: credentials,
		httpClient:  http.DefaultClient,
		baseURL:     bookhiveBaseURL,
		limiter:     rate.NewLimiter(rate.Limit(bookhiveRequestsPerSecond), bookhiveBurst),
	}, nil
}

// Name returns the service name.
func (s *BookhiveService) Name() string {
	return "Bookhive"
}

// GetAuthURL generates the OAuth2 authorization URL for the user to visit.
func (s *BookhiveService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration for the callback server.
func (s *BookhiveService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate authenticates with Bookhive using the provided credentials.
//
// Supports two flows:
//   - access_token (plus optional refresh_token): a token obtained elsewhere
//   - auth_code: an authorization code from the OAuth2 consent flow
func (s *BookhiveService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			TokenType:    "Bearer",
			RefreshToken: credentials["refresh_token"],
		}
		s.setToken(ctx, token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		s.setToken(ctx, token)
		return nil
	}

	return fmt.Errorf("missing access_token or auth_code in credentials")
}

// OAuthenticate authenticates with a previously obtained token, such as a
// session restored from disk.
func (s *BookhiveService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidInput)
	}
	s.setToken(ctx, token)
	return nil
}

// SetTokenRefreshCallback registers fn to be invoked whenever the token
// source hands out a new token, so refreshed credentials can be persisted.
// Pass nil to stop receiving updates.
func (s *BookhiveService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
	if s.tokenSource != nil {
		s.tokenSource.setCallback(fn)
	}
}

// setToken installs token and rebuilds the HTTP client around a refreshing
// token source so expired tokens renew without caller involvement.
func (s *BookhiveService) setToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.tokenSource = &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, s.tokenSource)
}

func (s *BookhiveService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: bookhive rejected the token (status 401)", shared.ErrNotAuthenticated)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w (status 404)", errNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("bookhive API error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("bookhive API error: status %d", resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the authenticated user's profile.
//
// Calls GET /me on the catalog.
func (s *BookhiveService) UserProfile(ctx context.Context) (*BookhiveUser, error) {
	var user BookhiveUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetShelves retrieves all shelves for the authenticated user.
//
// Pages through GET /shelves until the catalog reports no further results.
func (s *BookhiveService) GetShelves(ctx context.Context) ([]models.Shelf, error) {
	const limit = 50

	var shelves []models.Shelf
	for offset := 0; ; offset += limit {
		var page pagedShelves
		endpoint := fmt.Sprintf("/shelves?limit=%d&offset=%d", limit, offset)
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sh := range page.Items {
			shelves = append(shelves, sh.toShelf())
		}

		if len(page.Items) < limit || offset+len(page.Items) >= page.Total {
			break
		}
	}

	return shelves, nil
}

// GetShelf retrieves a specific shelf by ID without its books.
//
// Calls GET /shelves/{id} on the catalog.
func (s *BookhiveService) GetShelf(ctx context.Context, shelfID string) (*models.Shelf, error) {
	var bhShelf BookhiveShelf
	endpoint := fmt.Sprintf("/shelves/%s", url.PathEscape(shelfID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &bhShelf); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrShelfNotFound, shelfID)
		}
		return nil, err
	}

	shelf := bhShelf.toShelf()
	return &shelf, nil
}

// ExportShelf exports a shelf with all its books.
//
// Calls GET /shelves/{id} and pages through GET /shelves/{id}/books.
func (s *BookhiveService) ExportShelf(ctx context.Context, shelfID string) (*models.ShelfExport, error) {
	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}

	const limit = 100

	var books []models.Book
	for offset := 0; ; offset += limit {
		var page pagedBooks
		endpoint := fmt.Sprintf("/shelves/%s/books?limit=%d&offset=%d", url.PathEscape(shelfID), limit, offset)
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, b := range page.Items {
			books = append(books, b.toBook())
		}

		if len(page.Items) < limit || offset+len(page.Items) >= page.Total {
			break
		}
	}

	return &models.ShelfExport{Shelf: *shelf, Books: books}, nil
}

// ImportShelf creates a new shelf on Bookhive populated with the export's
// books.
//
// Books are posted in batches; the catalog matches entries on ISBN when one
// is present and creates new entries otherwise.
func (s *BookhiveService) ImportShelf(ctx context.Context, shelf *models.ShelfExport) (*models.Shelf, error) {
	if shelf == nil {
		return nil, fmt.Errorf("%w: shelf export cannot be nil", shared.ErrInvalidInput)
	}

	createReq := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Public      bool   `json:"public"`
	}{
		Name:        shelf.Shelf.Name,
		Description: shelf.Shelf.Description,
		Public:      shelf.Shelf.Public,
	}

	var created BookhiveShelf
	if err := s.doRequest(ctx, http.MethodPost, "/shelves", createReq, &created); err != nil {
		return nil, fmt.Errorf("failed to create shelf: %w", err)
	}

	const batchSize = 100
	for start := 0; start < len(shelf.Books); start += batchSize {
		end := min(start+batchSize, len(shelf.Books))

		batch := make([]bookPayload, 0, end-start)
		for _, b := range shelf.Books[start:end] {
			batch = append(batch, bookPayload{
				Title:       b.Title,
				Author:      b.Author,
				ISBN:        b.ISBN,
				Pages:       b.Pages,
				Description: b.Description,
			})
		}

		addReq := struct {
			Books []bookPayload `json:"books"`
		}{Books: batch}

		endpoint := fmt.Sprintf("/shelves/%s/books", url.PathEscape(created.ID))
		if err := s.doRequest(ctx, http.MethodPost, endpoint, addReq, nil); err != nil {
			return nil, fmt.Errorf("failed to add books to shelf: %w", err)
		}
	}

	return &models.Shelf{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		BookCount:   len(shelf.Books),
		Public:      created.Public,
	}, nil
}

// DeleteShelf removes a shelf from Bookhive. The catalog keeps the books;
// only the shelf and its membership links go away.
//
// Calls DELETE /shelves/{id}.
func (s *BookhiveService) DeleteShelf(ctx context.Context, shelfID string) error {
	endpoint := fmt.Sprintf("/shelves/%s", url.PathEscape(shelfID))
	if err := s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("%w: %s", shared.ErrShelfNotFound, shelfID)
		}
		return err
	}
	return nil
}

// SearchBook searches the catalog for a book by title and author, returning
// the best match.
//
// Calls GET /search/books?q={title} {author}&limit=1.
func (s *BookhiveService) SearchBook(ctx context.Context, title, author string) (*models.Book, error) {
	query := strings.TrimSpace(fmt.Sprintf("%s %s", title, author))
	endpoint := fmt.Sprintf("/search/books?q=%s&limit=1", url.QueryEscape(query))

	var page pagedBooks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("%w: no results for '%s' by '%s'", shared.ErrBookNotFound, title, author)
	}

	book := page.Items[0].toBook()
	return &book, nil
}

// Book retrieves a single catalog entry by ID.
func (s *BookhiveService) Book(ctx context.Context, bookID string) (*models.Book, error) {
	var bhBook BookhiveBook
	endpoint := fmt.Sprintf("/books/%s", url.PathEscape(bookID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &bhBook); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrBookNotFound, bookID)
		}
		return nil, err
	}

	book := bhBook.toBook()
	return &book, nil
}

// UploadCover attaches a cover image to a catalog entry.
//
// dataURI is the self-describing base64 payload produced by the ingest
// pipeline; the catalog stores it verbatim and serves it back as cover_url.
// Calls PUT /books/{id}/cover.
func (s *BookhiveService) UploadCover(ctx context.Context, bookID, dataURI string) error {
	if dataURI == "" {
		return fmt.Errorf("%w: cover payload cannot be empty", shared.ErrInvalidInput)
	}

	payload := struct {
		CoverImage string `json:"cover_image"`
	}{CoverImage: dataURI}

	endpoint := fmt.Sprintf("/books/%s/cover", url.PathEscape(bookID))
	if err := s.doRequest(ctx, http.MethodPut, endpoint, payload, nil); err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("%w: %s", shared.ErrBookNotFound, bookID)
		}
		return err
	}
	return nil
}

// ClearCover removes a catalog entry's cover image.
//
// Calls DELETE /books/{id}/cover.
func (s *BookhiveService) ClearCover(ctx context.Context, bookID string) error {
	endpoint := fmt.Sprintf("/books/%s/cover", url.PathEscape(bookID))
	if err := s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		if errors.Is(err, errNotFound) {
			return fmt.Errorf("%w: %s", shared.ErrBookNotFound, bookID)
		}
		return err
	}
	return nil
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports each new
// token it hands out so refreshed credentials can be persisted.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	mu       sync.Mutex
	callback func(*oauth2.Token)
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	fire := r.callback != nil && token.AccessToken != r.last
	if fire {
		r.last = token.AccessToken
	}
	callback := r.callback
	r.mu.Unlock()

	if fire {
		callback(token)
	}

	return token, nil
}

func (r *refreshableTokenSource) setCallback(fn func(*oauth2.Token)) {
	r.mu.Lock()
	r.callback = fn
	r.mu.Unlock()
}
