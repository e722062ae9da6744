package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// SyncJobRepository implements models.Repository[*models.SyncJob] for sync tracking.
//
// Handles sync job CRUD operations with soft delete support and status-based queries.
type SyncJobRepository struct {
	db *sql.DB
}

// NewSyncJobRepository creates a new SyncJobRepository with the given database connection
func NewSyncJobRepository(db *sql.DB) *SyncJobRepository {
	return &SyncJobRepository{db: db}
}

// Create inserts a new sync job into the database with generated ID and sequence
func (r *SyncJobRepository) Create(job *models.SyncJob) error {
	sequence, err := NextSequence(r.db, "sync_jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	job.SetID(id)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_jobs (
			id, sequence, user_id, source_service, source_shelf_id,
			target_service, target_shelf_id, status, books_total,
			books_synced, books_failed, error_message, started_at,
			completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var userID any = job.UserID()
	if userID == "" {
		userID = nil
	}

	var targetShelfID any = job.TargetShelfID()
	if targetShelfID == "" {
		targetShelfID = nil
	}

	var errorMessage any = job.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		userID,
		job.SourceService(),
		job.SourceShelfID(),
		job.TargetService(),
		targetShelfID,
		job.Status(),
		job.BooksTotal(),
		job.BooksSynced(),
		job.BooksFailed(),
		errorMessage,
		job.StartedAt(),
		job.CompletedAt(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync job: %w", err)
	}

	return nil
}

// Get retrieves a sync job by ID, excluding soft-deleted jobs
func (r *SyncJobRepository) Get(id string) (*models.SyncJob, error) {
	query := `
		SELECT
			id, sequence, user_id, source_service, source_shelf_id,
			target_service, target_shelf_id, status, books_total,
			books_synced, books_failed, error_message, started_at,
			completed_at, created_at, updated_at, deleted_at
		FROM sync_jobs
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing sync job in the database
func (r *SyncJobRepository) Update(job *models.SyncJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.SetUpdatedAt(now)

	query := `
		UPDATE sync_jobs
		SET target_shelf_id = ?, status = ?, books_total = ?,
			books_synced = ?, books_failed = ?, error_message = ?,
			started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	var targetShelfID any = job.TargetShelfID()
	if targetShelfID == "" {
		targetShelfID = nil
	}

	var errorMessage any = job.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	result, err := r.db.Exec(query,
		targetShelfID,
		job.Status(),
		job.BooksTotal(),
		job.BooksSynced(),
		job.BooksFailed(),
		errorMessage,
		job.StartedAt(),
		job.CompletedAt(),
		now,
		job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync job not found or already deleted: %s", job.ID())
	}

	return nil
}

// Delete soft-deletes a sync job by ID
func (r *SyncJobRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE sync_jobs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync job not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all sync jobs matching the given criteria, excluding soft-deleted jobs
func (r *SyncJobRepository) List(criteria map[string]any) ([]*models.SyncJob, error) {
	query := `
		SELECT
			id, sequence, user_id, source_service, source_shelf_id,
			target_service, target_shelf_id, status, books_total,
			books_synced, books_failed, error_message, started_at,
			completed_at, created_at, updated_at, deleted_at
		FROM sync_jobs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if sourceService, ok := criteria["source_service"].(string); ok && sourceService != "" {
		query += " AND source_service = ?"
		args = append(args, sourceService)
	}

	if targetService, ok := criteria["target_service"].(string); ok && targetService != "" {
		query += " AND target_service = ?"
		args = append(args, targetService)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.SyncJob
	for rows.Next() {
		job, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// scanOne scans a single [sql.Row] into a [models.SyncJob]
func (r *SyncJobRepository) scanOne(row *sql.Row) (*models.SyncJob, error) {
	var (
		id            string
		sequence      int
		userID        sql.NullString
		sourceService string
		sourceShelfID string
		targetService string
		targetShelfID sql.NullString
		status        string
		booksTotal    int
		booksSynced   int
		booksFailed   int
		errorMessage  sql.NullString
		startedAt     sql.NullTime
		completedAt   sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &userID, &sourceService, &sourceShelfID,
		&targetService, &targetShelfID, &status, &booksTotal,
		&booksSynced, &booksFailed, &errorMessage, &startedAt,
		&completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync job: %w", err)
	}

	return r.build(id, sequence, userID, sourceService, sourceShelfID, targetService, targetShelfID, status, booksTotal, booksSynced, booksFailed, errorMessage, startedAt, completedAt, updatedAt, deletedAt), nil
}

// scanRow scans a row from [sql.Rows] into a [models.SyncJob]
func (r *SyncJobRepository) scanRow(rows *sql.Rows) (*models.SyncJob, error) {
	var (
		id            string
		sequence      int
		userID        sql.NullString
		sourceService string
		sourceShelfID string
		targetService string
		targetShelfID sql.NullString
		status        string
		booksTotal    int
		booksSynced   int
		booksFailed   int
		errorMessage  sql.NullString
		startedAt     sql.NullTime
		completedAt   sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := rows.Scan(
		&id, &sequence, &userID, &sourceService, &sourceShelfID,
		&targetService, &targetShelfID, &status, &booksTotal,
		&booksSynced, &booksFailed, &errorMessage, &startedAt,
		&completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync job: %w", err)
	}

	return r.build(id, sequence, userID, sourceService, sourceShelfID, targetService, targetShelfID, status, booksTotal, booksSynced, booksFailed, errorMessage, startedAt, completedAt, updatedAt, deletedAt), nil
}

// build assembles a [models.SyncJob] from scanned column values.
func (r *SyncJobRepository) build(
	id string, sequence int, userID sql.NullString,
	sourceService, sourceShelfID, targetService string,
	targetShelfID sql.NullString, status string,
	booksTotal, booksSynced, booksFailed int,
	errorMessage sql.NullString, startedAt, completedAt sql.NullTime,
	updatedAt time.Time, deletedAt sql.NullTime,
) *models.SyncJob {
	job := models.NewSyncJob(sequence, userID.String, sourceService, sourceShelfID, targetService)
	job.SetID(id)
	job.SetUpdatedAt(updatedAt)

	if targetShelfID.Valid {
		job.SetTargetShelfID(targetShelfID.String)
	}
	job.SetStatus(status)
	job.SetBooksTotal(booksTotal)
	job.SetBooksSynced(booksSynced)
	job.SetBooksFailed(booksFailed)
	if errorMessage.Valid {
		job.SetErrorMessage(errorMessage.String)
	}
	if startedAt.Valid {
		job.SetStartedAt(&startedAt.Time)
	}
	if completedAt.Valid {
		job.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		job.SetDeletedAt(&deletedAt.Time)
	}

	return job
}
