// package services defines interface Service for interacting with HTTP APIs
//
// Bookhive (hosted catalog), OpenLibrary (public metadata)
package services

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/Kenpir/library-recommendation-system/internal/models"
)

// Service defines the interface for library service providers (Bookhive, OpenLibrary) that can export and import shelves and books.
type Service interface {
	// Authenticate performs OAuth or API key authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetShelves retrieves all shelves for the authenticated user.
	GetShelves(ctx context.Context) ([]models.Shelf, error)

	// GetShelf retrieves a specific shelf by ID.
	GetShelf(ctx context.Context, shelfID string) (*models.Shelf, error)

	// ExportShelf exports a shelf with all its books.
	ExportShelf(ctx context.Context, shelfID string) (*models.ShelfExport, error)

	// ImportShelf imports a shelf into the service.
	// Creates a new shelf and populates it with the provided books.
	ImportShelf(ctx context.Context, shelf *models.ShelfExport) (*models.Shelf, error)

	// SearchBook searches for a book by title and author.
	// Returns the best match or an error if no match is found.
	SearchBook(ctx context.Context, title, author string) (*models.Book, error)

	// Name returns the name of the service (e.g., "Bookhive", "OpenLibrary")
	Name() string
}

// OAuthService extends [Service] for providers that authenticate with an
// OAuth2 authorization-code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the provider's consent page URL carrying state.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 config so the callback
	// server can exchange authorization codes.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate authenticates with a previously obtained token, such as
	// a session restored from disk.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// SetTokenRefreshCallback registers fn to be called whenever the
	// underlying token source hands out a new token, so callers can persist
	// refreshed credentials.
	SetTokenRefreshCallback(fn func(*oauth2.Token))
}
