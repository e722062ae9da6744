package models

import (
	"fmt"
	"time"
)

// PersistedBook is a database-backed book cached from a library service.
//
// Wraps the [Book] DTO with service provenance and lifecycle metadata so
// repeat lookups during shelf syncs hit the local cache instead of the
// remote catalog.
type PersistedBook struct {
	id        string
	sequence  int
	service   string
	serviceID string
	book      Book
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedBook creates a cached book for the given service. The ID is
// assigned by the repository on Create.
func NewPersistedBook(sequence int, service, serviceID string, book Book) *PersistedBook {
	now := time.Now()
	return &PersistedBook{
		sequence:  sequence,
		service:   service,
		serviceID: serviceID,
		book:      book,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *PersistedBook) ID() string            { return b.id }
func (b *PersistedBook) Sequence() int         { return b.sequence }
func (b *PersistedBook) Service() string       { return b.service }
func (b *PersistedBook) ServiceID() string     { return b.serviceID }
func (b *PersistedBook) Title() string         { return b.book.Title }
func (b *PersistedBook) Author() string        { return b.book.Author }
func (b *PersistedBook) ISBN() string          { return b.book.ISBN }
func (b *PersistedBook) Pages() int            { return b.book.Pages }
func (b *PersistedBook) CoverImage() string    { return b.book.CoverImage }
func (b *PersistedBook) Description() string   { return b.book.Description }
func (b *PersistedBook) CreatedAt() time.Time  { return b.createdAt }
func (b *PersistedBook) UpdatedAt() time.Time  { return b.updatedAt }
func (b *PersistedBook) DeletedAt() *time.Time { return b.deletedAt }

// DTO returns the underlying [Book] value for transfer to services.
func (b *PersistedBook) DTO() Book { return b.book }

func (b *PersistedBook) SetID(id string)           { b.id = id }
func (b *PersistedBook) SetCoverImage(uri string)  { b.book.CoverImage = uri }
func (b *PersistedBook) SetUpdatedAt(t time.Time)  { b.updatedAt = t }
func (b *PersistedBook) SetDeletedAt(t *time.Time) { b.deletedAt = t }

// SetBook replaces the underlying [Book] value, preserving identity and
// lifecycle fields.
func (b *PersistedBook) SetBook(book Book) { b.book = book }

// Validate checks that the book has an ID, a service, and at least a title
// or an author to match against.
func (b *PersistedBook) Validate() error {
	if b.id == "" {
		return fmt.Errorf("book ID is required")
	}
	if b.service == "" {
		return fmt.Errorf("book service is required")
	}
	if b.book.Title == "" && b.book.Author == "" {
		return fmt.Errorf("book must have a title or an author")
	}
	return nil
}
