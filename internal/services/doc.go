// Package services defines the [Service] interface for library catalog providers and implements it for Bookhive and OpenLibrary.
//
// # Service Interface
//
// All catalog providers implement a common abstraction, enabling shelf operations to work uniformly across providers.
//
// # Bookhive Implementation
//
// [BookhiveService] uses OAuth2 for authentication with automatic token refresh.
//
// The [oauth2] client refreshes expired tokens with the refresh token; a
// refresh callback lets the session store persist the rotated credentials.
//
// # OpenLibrary Implementation
//
// [OpenLibraryService] queries the public openlibrary.org search API for book
// metadata, ISBN resolution, and cover image URLs. It requires no
// authentication and identifies itself with a contact User-Agent. Shelf
// operations are not supported there.
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends Service for OAuth providers.
//
// [BookhiveService] implements this for the server-side OAuth flow used by
// the CLI's auth commands.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called or token rejected
//   - [shared.ErrAuthFailed] : the code exchange failed
//   - [shared.ErrShelfNotFound] / [shared.ErrBookNotFound] : lookup misses
//   - [shared.ErrNotImplemented] : operation outside a provider's capabilities
//
// # API Mappings
//
// Both services convert provider-specific JSON responses to [models.Shelf] and [models.Book]:
//   - Bookhive: maps [BookhiveShelf] and [BookhiveBook], joining author names and preferring ISBN-13
//   - OpenLibrary: maps [OpenLibraryDoc] search docs, deriving cover URLs from cover IDs
//
// Book matching uses ISBN when available, falling back to normalized title/author comparison.
package services
