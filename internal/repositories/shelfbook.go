package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/models"
)

// ShelfBookRepository manages the shelf_books junction table.
//
// Junction rows are hard-deleted rather than soft-deleted: membership has no
// independent history, it always reflects the current ordering of a shelf.
type ShelfBookRepository struct {
	db *sql.DB
}

// NewShelfBookRepository creates a new ShelfBookRepository with the given database connection
func NewShelfBookRepository(db *sql.DB) *ShelfBookRepository {
	return &ShelfBookRepository{db: db}
}

// Add places a book on a shelf at the junction row's position.
func (r *ShelfBookRepository) Add(sb *models.ShelfBook) error {
	if err := sb.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO shelf_books (shelf_id, book_id, position, added_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, sb.ShelfID(), sb.BookID(), sb.Position(), sb.AddedAt())
	if err != nil {
		return fmt.Errorf("failed to insert shelf book: %w", err)
	}

	return nil
}

// SetBooks atomically replaces a shelf's membership with bookIDs in order.
func (r *ShelfBookRepository) SetBooks(shelfID string, bookIDs []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM shelf_books WHERE shelf_id = ?", shelfID); err != nil {
		return fmt.Errorf("failed to clear shelf: %w", err)
	}

	now := time.Now()
	for position, bookID := range bookIDs {
		_, err := tx.Exec(
			"INSERT INTO shelf_books (shelf_id, book_id, position, added_at) VALUES (?, ?, ?, ?)",
			shelfID, bookID, position, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert shelf book at position %d: %w", position, err)
		}
	}

	return tx.Commit()
}

// ListByShelf returns a shelf's junction rows ordered by position.
func (r *ShelfBookRepository) ListByShelf(shelfID string) ([]*models.ShelfBook, error) {
	query := `
		SELECT shelf_id, book_id, position, added_at
		FROM shelf_books
		WHERE shelf_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, shelfID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shelf books: %w", err)
	}
	defer rows.Close()

	var shelfBooks []*models.ShelfBook
	for rows.Next() {
		var (
			sID      string
			bookID   string
			position int
			addedAt  time.Time
		)

		if err := rows.Scan(&sID, &bookID, &position, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shelf book: %w", err)
		}

		sb := models.NewShelfBook(sID, bookID, position)
		sb.SetAddedAt(addedAt)
		shelfBooks = append(shelfBooks, sb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return shelfBooks, nil
}

// Remove takes a book off a shelf.
func (r *ShelfBookRepository) Remove(shelfID, bookID string) error {
	result, err := r.db.Exec("DELETE FROM shelf_books WHERE shelf_id = ? AND book_id = ?", shelfID, bookID)
	if err != nil {
		return fmt.Errorf("failed to remove shelf book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("book %s not on shelf %s", bookID, shelfID)
	}

	return nil
}

// Clear removes all books from a shelf.
func (r *ShelfBookRepository) Clear(shelfID string) error {
	if _, err := r.db.Exec("DELETE FROM shelf_books WHERE shelf_id = ?", shelfID); err != nil {
		return fmt.Errorf("failed to clear shelf: %w", err)
	}
	return nil
}
