package repositories

import (
	"fmt"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// ShelfCacheAdapter implements tasks.ShelfCache over the shelf, book, and
// junction repositories.
//
// Shelves are keyed by their service-side ID; SaveShelf upserts the shelf row
// and replaces its membership links. Books referenced by a shelf must already
// be cached (see BookCacheAdapter); uncached books are skipped when linking.
type ShelfCacheAdapter struct {
	shelves *ShelfRepository
	books   *BookRepository
	links   *ShelfBookRepository
	service string
	userID  string
}

// NewShelfCacheAdapter creates an adapter caching shelves for the given
// service under userID.
func NewShelfCacheAdapter(shelves *ShelfRepository, books *BookRepository, links *ShelfBookRepository, service, userID string) *ShelfCacheAdapter {
	return &ShelfCacheAdapter{
		shelves: shelves,
		books:   books,
		links:   links,
		service: service,
		userID:  userID,
	}
}

// SaveShelf upserts the shelf row and replaces its membership links.
func (a *ShelfCacheAdapter) SaveShelf(export *models.ShelfExport) error {
	if export == nil {
		return fmt.Errorf("%w: shelf export cannot be nil", shared.ErrInvalidInput)
	}

	localID, err := a.upsertShelf(export)
	if err != nil {
		return err
	}

	bookIDs := make([]string, 0, len(export.Books))
	for _, book := range export.Books {
		cached, err := a.books.GetByServiceID(a.service, book.ID)
		if err != nil || cached == nil {
			// Not cached yet; the link would dangle
			continue
		}
		bookIDs = append(bookIDs, cached.ID())
	}

	if err := a.links.SetBooks(localID, bookIDs); err != nil {
		return fmt.Errorf("failed to link shelf books: %w", err)
	}

	return nil
}

func (a *ShelfCacheAdapter) upsertShelf(export *models.ShelfExport) (string, error) {
	existing, err := a.shelves.GetByServiceID(a.service, export.Shelf.ID)
	if err == nil && existing != nil {
		existing.SetName(export.Shelf.Name)
		existing.SetDescription(export.Shelf.Description)
		existing.SetBookCount(len(export.Books))
		existing.SetPublic(export.Shelf.Public)

		if err := a.shelves.Update(existing); err != nil {
			return "", fmt.Errorf("failed to update cached shelf: %w", err)
		}
		return existing.ID(), nil
	}

	shelf := models.NewPersistedShelf(0, a.service, export.Shelf.ID, a.userID, export.Shelf)
	shelf.SetBookCount(len(export.Books))

	if err := a.shelves.Create(shelf); err != nil {
		return "", fmt.Errorf("failed to cache shelf: %w", err)
	}
	return shelf.ID(), nil
}

// LoadShelf resolves a cached shelf by local ID, service ID, or name, and
// returns it with its books in shelf order.
func (a *ShelfCacheAdapter) LoadShelf(idOrName string) (*models.ShelfExport, error) {
	shelf, err := a.resolve(idOrName)
	if err != nil {
		return nil, err
	}

	links, err := a.links.ListByShelf(shelf.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list shelf books: %w", err)
	}

	books := make([]models.Book, 0, len(links))
	for _, link := range links {
		cached, err := a.books.Get(link.BookID())
		if err != nil {
			return nil, fmt.Errorf("failed to load book %s: %w", link.BookID(), err)
		}
		books = append(books, cached.DTO())
	}

	dto := shelf.DTO()
	if dto.ID == "" {
		dto.ID = shelf.ID()
	}
	dto.BookCount = len(books)

	return &models.ShelfExport{
		Shelf: dto,
		Books: books,
	}, nil
}

// resolve looks a shelf up by local ID first, then service ID, then name.
func (a *ShelfCacheAdapter) resolve(idOrName string) (*models.PersistedShelf, error) {
	if shelf, err := a.shelves.Get(idOrName); err == nil && shelf != nil {
		return shelf, nil
	}

	if shelf, err := a.shelves.GetByServiceID(a.service, idOrName); err == nil && shelf != nil {
		return shelf, nil
	}

	shelves, err := a.shelves.List(map[string]any{"service": a.service})
	if err != nil {
		return nil, fmt.Errorf("failed to list cached shelves: %w", err)
	}

	for _, shelf := range shelves {
		if shelf.Name() == idOrName {
			return shelf, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", shared.ErrShelfNotFound, idOrName)
}
