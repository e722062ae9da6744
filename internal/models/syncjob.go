package models

import (
	"fmt"
	"time"
)

// Sync job status values.
const (
	SyncStatusPending   = "pending"
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncJob tracks a single shelf transfer between services: which shelf moved
// where, how many books made it, and what went wrong if it failed.
type SyncJob struct {
	id            string
	sequence      int
	userID        string
	sourceService string
	sourceShelfID string
	targetService string
	targetShelfID string
	status        string
	booksTotal    int
	booksSynced   int
	booksFailed   int
	errorMessage  string
	startedAt     *time.Time
	completedAt   *time.Time
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

// NewSyncJob creates a pending sync job for moving sourceShelfID from
// sourceService to targetService. The ID is assigned by the repository on Create.
func NewSyncJob(sequence int, userID, sourceService, sourceShelfID, targetService string) *SyncJob {
	now := time.Now()
	return &SyncJob{
		sequence:      sequence,
		userID:        userID,
		sourceService: sourceService,
		sourceShelfID: sourceShelfID,
		targetService: targetService,
		status:        SyncStatusPending,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (j *SyncJob) ID() string              { return j.id }
func (j *SyncJob) Sequence() int           { return j.sequence }
func (j *SyncJob) UserID() string          { return j.userID }
func (j *SyncJob) SourceService() string   { return j.sourceService }
func (j *SyncJob) SourceShelfID() string   { return j.sourceShelfID }
func (j *SyncJob) TargetService() string   { return j.targetService }
func (j *SyncJob) TargetShelfID() string   { return j.targetShelfID }
func (j *SyncJob) Status() string          { return j.status }
func (j *SyncJob) BooksTotal() int         { return j.booksTotal }
func (j *SyncJob) BooksSynced() int        { return j.booksSynced }
func (j *SyncJob) BooksFailed() int        { return j.booksFailed }
func (j *SyncJob) ErrorMessage() string    { return j.errorMessage }
func (j *SyncJob) StartedAt() *time.Time   { return j.startedAt }
func (j *SyncJob) CompletedAt() *time.Time { return j.completedAt }
func (j *SyncJob) CreatedAt() time.Time    { return j.createdAt }
func (j *SyncJob) UpdatedAt() time.Time    { return j.updatedAt }
func (j *SyncJob) DeletedAt() *time.Time   { return j.deletedAt }

func (j *SyncJob) SetID(id string)             { j.id = id }
func (j *SyncJob) SetTargetShelfID(id string)  { j.targetShelfID = id }
func (j *SyncJob) SetStatus(status string)     { j.status = status }
func (j *SyncJob) SetBooksTotal(n int)         { j.booksTotal = n }
func (j *SyncJob) SetBooksSynced(n int)        { j.booksSynced = n }
func (j *SyncJob) SetBooksFailed(n int)        { j.booksFailed = n }
func (j *SyncJob) SetErrorMessage(msg string)  { j.errorMessage = msg }
func (j *SyncJob) SetStartedAt(t *time.Time)   { j.startedAt = t }
func (j *SyncJob) SetCompletedAt(t *time.Time) { j.completedAt = t }
func (j *SyncJob) SetUpdatedAt(t time.Time)    { j.updatedAt = t }
func (j *SyncJob) SetDeletedAt(t *time.Time)   { j.deletedAt = t }

// Start marks the job running as of now.
func (j *SyncJob) Start() {
	now := time.Now()
	j.status = SyncStatusRunning
	j.startedAt = &now
}

// Complete marks the job finished with the given tallies.
func (j *SyncJob) Complete(synced, failed int) {
	now := time.Now()
	j.status = SyncStatusCompleted
	j.booksSynced = synced
	j.booksFailed = failed
	j.completedAt = &now
}

// Fail marks the job failed with the given error message.
func (j *SyncJob) Fail(msg string) {
	now := time.Now()
	j.status = SyncStatusFailed
	j.errorMessage = msg
	j.completedAt = &now
}

// Validate checks required fields and that the status is a known value.
func (j *SyncJob) Validate() error {
	if j.id == "" {
		return fmt.Errorf("sync job ID is required")
	}
	if j.sourceService == "" {
		return fmt.Errorf("source service is required")
	}
	if j.sourceShelfID == "" {
		return fmt.Errorf("source shelf ID is required")
	}
	if j.targetService == "" {
		return fmt.Errorf("target service is required")
	}
	switch j.status {
	case SyncStatusPending, SyncStatusRunning, SyncStatusCompleted, SyncStatusFailed:
	default:
		return fmt.Errorf("invalid sync status: %s", j.status)
	}
	return nil
}
