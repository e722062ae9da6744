package models

import (
	"fmt"
	"time"
)

// ShelfBook links a cached book to a cached shelf at a given position.
//
// Rows are identified by the (shelf, book) pair rather than a surrogate ID;
// position is the zero-based order of the book within the shelf.
type ShelfBook struct {
	shelfID  string
	bookID   string
	position int
	addedAt  time.Time
}

// NewShelfBook creates a junction row placing bookID at position within shelfID.
func NewShelfBook(shelfID, bookID string, position int) *ShelfBook {
	return &ShelfBook{
		shelfID:  shelfID,
		bookID:   bookID,
		position: position,
		addedAt:  time.Now(),
	}
}

func (sb *ShelfBook) ShelfID() string    { return sb.shelfID }
func (sb *ShelfBook) BookID() string     { return sb.bookID }
func (sb *ShelfBook) Position() int      { return sb.position }
func (sb *ShelfBook) AddedAt() time.Time { return sb.addedAt }

func (sb *ShelfBook) SetPosition(position int) { sb.position = position }
func (sb *ShelfBook) SetAddedAt(t time.Time)   { sb.addedAt = t }

// Validate checks that both sides of the junction are present and the
// position is non-negative.
func (sb *ShelfBook) Validate() error {
	if sb.shelfID == "" {
		return fmt.Errorf("shelf ID is required")
	}
	if sb.bookID == "" {
		return fmt.Errorf("book ID is required")
	}
	if sb.position < 0 {
		return fmt.Errorf("position must be non-negative")
	}
	return nil
}
