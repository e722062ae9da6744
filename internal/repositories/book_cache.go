package repositories

import (
	"fmt"
	"strings"

	"github.com/Kenpir/library-recommendation-system/internal/models"
)

// BookCacheAdapter implements tasks.BookCacher using BookRepository.
//
// Provides automatic book caching with deduplication via service+service_id constraints.
// Duplicate books are silently ignored (UNIQUE constraint violations).
type BookCacheAdapter struct {
	repo *BookRepository
}

// NewBookCacheAdapter creates a new BookCacheAdapter with the given repository
func NewBookCacheAdapter(repo *BookRepository) *BookCacheAdapter {
	return &BookCacheAdapter{repo: repo}
}

// CacheBook caches a book from a service.
// Returns nil if the book already exists (deduplication).
// Only returns errors for actual failures (not constraint violations).
func (a *BookCacheAdapter) CacheBook(service, serviceID string, book models.Book) error {
	existing, err := a.repo.GetByServiceID(service, serviceID)
	if err == nil && existing != nil {
		return nil
	}

	persistedBook := models.NewPersistedBook(0, service, serviceID, book)

	err = a.repo.Create(persistedBook)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache book: %w", err)
	}

	return nil
}

// UpdateBook overwrites the cached record for a book, creating it when absent.
// Used by enrichment passes that fill in metadata on already-cached books.
func (a *BookCacheAdapter) UpdateBook(service, serviceID string, book models.Book) error {
	existing, err := a.repo.GetByServiceID(service, serviceID)
	if err != nil || existing == nil {
		return a.CacheBook(service, serviceID, book)
	}

	existing.SetBook(book)
	if err := a.repo.Update(existing); err != nil {
		return fmt.Errorf("failed to update cached book: %w", err)
	}

	return nil
}
