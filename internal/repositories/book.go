package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// BookRepository implements models.Repository[*models.PersistedBook] for book caching.
//
// Handles automatic book caching with soft delete support and service-specific lookups.
// Books are cached on every fetch to enable cross-service matching via ISBN.
type BookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new BookRepository with the given database connection
func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create inserts a new [models.PersistedBook] into the database with generated ID and sequence
func (r *BookRepository) Create(book *models.PersistedBook) error {
	sequence, err := NextSequence(r.db, "books")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	book.SetID(id)

	if err := book.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO books (id, sequence, service, service_id, title, author, isbn, pages, cover_image, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var serviceID any = book.ServiceID()
	if serviceID == "" {
		serviceID = nil
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		book.Service(),
		serviceID,
		book.Title(),
		book.Author(),
		book.ISBN(),
		book.Pages(),
		book.CoverImage(),
		book.Description(),
		book.CreatedAt(),
		book.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	return nil
}

// Get retrieves a book by ID, excluding soft-deleted books
func (r *BookRepository) Get(id string) (*models.PersistedBook, error) {
	query := `
		SELECT id, sequence, service, service_id, title, author, isbn, pages, cover_image, description, created_at, updated_at, deleted_at
		FROM books
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByServiceID retrieves a book by service and service_id
func (r *BookRepository) GetByServiceID(service, serviceID string) (*models.PersistedBook, error) {
	query := `
		SELECT id, sequence, service, service_id, title, author, isbn, pages, cover_image, description, created_at, updated_at, deleted_at
		FROM books
		WHERE service = ? AND service_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, service, serviceID))
}

// GetByISBN retrieves a book by ISBN across any service
func (r *BookRepository) GetByISBN(isbn string) (*models.PersistedBook, error) {
	query := `
		SELECT id, sequence, service, service_id, title, author, isbn, pages, cover_image, description, created_at, updated_at, deleted_at
		FROM books
		WHERE isbn = ? AND deleted_at IS NULL
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRow(query, isbn))
}

// Update modifies an existing book in the database
func (r *BookRepository) Update(book *models.PersistedBook) error {
	if err := book.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	book.SetUpdatedAt(now)

	query := `
		UPDATE books
		SET title = ?, author = ?, isbn = ?, pages = ?, cover_image = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		book.Title(),
		book.Author(),
		book.ISBN(),
		book.Pages(),
		book.CoverImage(),
		book.Description(),
		now,
		book.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("book not found or already deleted: %s", book.ID())
	}

	return nil
}

// Delete soft-deletes a book by ID
func (r *BookRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE books
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("book not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all books matching the given criteria, excluding soft-deleted books
func (r *BookRepository) List(criteria map[string]any) ([]*models.PersistedBook, error) {
	query := `
		SELECT id, sequence, service, service_id, title, author, isbn, pages, cover_image, description, created_at, updated_at, deleted_at
		FROM books
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	if isbn, ok := criteria["isbn"].(string); ok && isbn != "" {
		query += " AND isbn = ?"
		args = append(args, isbn)
	}

	if author, ok := criteria["author"].(string); ok && author != "" {
		query += " AND author = ?"
		args = append(args, author)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []*models.PersistedBook
	for rows.Next() {
		book, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return books, nil
}

// scanOne scans a single [sql.Row] into a [models.PersistedBook]
func (r *BookRepository) scanOne(row *sql.Row) (*models.PersistedBook, error) {
	var (
		id          string
		sequence    int
		service     string
		serviceID   sql.NullString
		title       string
		author      string
		isbn        string
		pages       int
		coverImage  string
		description string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &service, &serviceID, &title, &author, &isbn, &pages, &coverImage, &description, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	dto := models.Book{
		ID:          serviceID.String,
		Title:       title,
		Author:      author,
		ISBN:        isbn,
		Pages:       pages,
		CoverImage:  coverImage,
		Description: description,
	}

	book := models.NewPersistedBook(sequence, service, serviceID.String, dto)
	book.SetID(id)
	book.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		book.SetDeletedAt(&deletedAt.Time)
	}

	return book, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedBook]
func (r *BookRepository) scanRow(rows *sql.Rows) (*models.PersistedBook, error) {
	var (
		id          string
		sequence    int
		service     string
		serviceID   sql.NullString
		title       string
		author      string
		isbn        string
		pages       int
		coverImage  string
		description string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &service, &serviceID, &title, &author, &isbn, &pages, &coverImage, &description, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	dto := models.Book{
		ID:          serviceID.String,
		Title:       title,
		Author:      author,
		ISBN:        isbn,
		Pages:       pages,
		CoverImage:  coverImage,
		Description: description,
	}

	book := models.NewPersistedBook(sequence, service, serviceID.String, dto)
	book.SetID(id)
	book.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		book.SetDeletedAt(&deletedAt.Time)
	}

	return book, nil
}
