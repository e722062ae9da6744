package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// ShelfRepository implements models.Repository[*models.PersistedShelf] for shelf caching.
//
// Handles shelf CRUD operations with soft delete support and service-specific lookups.
type ShelfRepository struct {
	db *sql.DB
}

// NewShelfRepository creates a new ShelfRepository with the given database connection
func NewShelfRepository(db *sql.DB) *ShelfRepository {
	return &ShelfRepository{db: db}
}

// Create inserts a new shelf into the database with generated ID and sequence
func (r *ShelfRepository) Create(shelf *models.PersistedShelf) error {
	sequence, err := NextSequence(r.db, "shelves")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	shelf.SetID(id)

	if err := shelf.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO shelves (id, sequence, service, service_id, user_id, name, description, book_count, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var serviceID any = shelf.ServiceID()
	if serviceID == "" {
		serviceID = nil
	}

	var userID any = shelf.UserID()
	if userID == "" {
		userID = nil
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		shelf.Service(),
		serviceID,
		userID,
		shelf.Name(),
		shelf.Description(),
		shelf.BookCount(),
		shelf.Public(),
		shelf.CreatedAt(),
		shelf.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert shelf: %w", err)
	}

	return nil
}

// Get retrieves a shelf by ID, excluding soft-deleted shelves
func (r *ShelfRepository) Get(id string) (*models.PersistedShelf, error) {
	query := `
		SELECT id, sequence, service, service_id, user_id, name, description, book_count, public, created_at, updated_at, deleted_at
		FROM shelves
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByServiceID retrieves a shelf by service and service_id
func (r *ShelfRepository) GetByServiceID(service, serviceID string) (*models.PersistedShelf, error) {
	query := `
		SELECT id, sequence, service, service_id, user_id, name, description, book_count, public, created_at, updated_at, deleted_at
		FROM shelves
		WHERE service = ? AND service_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, service, serviceID))
}

// Update modifies an existing shelf in the database
func (r *ShelfRepository) Update(shelf *models.PersistedShelf) error {
	if err := shelf.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	shelf.SetUpdatedAt(now)

	query := `
		UPDATE shelves
		SET name = ?, description = ?, book_count = ?, public = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		shelf.Name(),
		shelf.Description(),
		shelf.BookCount(),
		shelf.Public(),
		now,
		shelf.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update shelf: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("shelf not found or already deleted: %s", shelf.ID())
	}

	return nil
}

// Delete soft-deletes a shelf by ID
func (r *ShelfRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE shelves
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete shelf: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("shelf not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all shelves matching the given criteria, excluding soft-deleted shelves
func (r *ShelfRepository) List(criteria map[string]any) ([]*models.PersistedShelf, error) {
	query := `
		SELECT id, sequence, service, service_id, user_id, name, description, book_count, public, created_at, updated_at, deleted_at
		FROM shelves
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shelves: %w", err)
	}
	defer rows.Close()

	var shelves []*models.PersistedShelf
	for rows.Next() {
		shelf, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		shelves = append(shelves, shelf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return shelves, nil
}

// scanOne scans a single row into a [models.PersistedShelf]
func (r *ShelfRepository) scanOne(row *sql.Row) (*models.PersistedShelf, error) {
	var (
		id          string
		sequence    int
		service     string
		serviceID   sql.NullString
		userID      sql.NullString
		name        string
		description string
		bookCount   int
		public      bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &service, &serviceID, &userID, &name, &description, &bookCount, &public, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("shelf not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan shelf: %w", err)
	}

	dto := models.Shelf{
		ID:          serviceID.String,
		Name:        name,
		Description: description,
		BookCount:   bookCount,
		Public:      public,
	}

	shelf := models.NewPersistedShelf(sequence, service, serviceID.String, userID.String, dto)
	shelf.SetID(id)
	shelf.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		shelf.SetDeletedAt(&deletedAt.Time)
	}

	return shelf, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedShelf]
func (r *ShelfRepository) scanRow(rows *sql.Rows) (*models.PersistedShelf, error) {
	var (
		id          string
		sequence    int
		service     string
		serviceID   sql.NullString
		userID      sql.NullString
		name        string
		description string
		bookCount   int
		public      bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &service, &serviceID, &userID, &name, &description, &bookCount, &public, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan shelf: %w", err)
	}

	dto := models.Shelf{
		ID:          serviceID.String,
		Name:        name,
		Description: description,
		BookCount:   bookCount,
		Public:      public,
	}

	shelf := models.NewPersistedShelf(sequence, service, serviceID.String, userID.String, dto)
	shelf.SetID(id)
	shelf.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		shelf.SetDeletedAt(&deletedAt.Time)
	}

	return shelf, nil
}
