package models

import (
	"fmt"
	"time"
)

// PersistedShelf is a database-backed shelf cached from a library service.
type PersistedShelf struct {
	id        string
	sequence  int
	service   string
	serviceID string
	userID    string
	shelf     Shelf
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedShelf creates a cached shelf owned by userID for the given
// service. The ID is assigned by the repository on Create.
func NewPersistedShelf(sequence int, service, serviceID, userID string, shelf Shelf) *PersistedShelf {
	now := time.Now()
	return &PersistedShelf{
		sequence:  sequence,
		service:   service,
		serviceID: serviceID,
		userID:    userID,
		shelf:     shelf,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *PersistedShelf) ID() string            { return s.id }
func (s *PersistedShelf) Sequence() int         { return s.sequence }
func (s *PersistedShelf) Service() string       { return s.service }
func (s *PersistedShelf) ServiceID() string     { return s.serviceID }
func (s *PersistedShelf) UserID() string        { return s.userID }
func (s *PersistedShelf) Name() string          { return s.shelf.Name }
func (s *PersistedShelf) Description() string   { return s.shelf.Description }
func (s *PersistedShelf) BookCount() int        { return s.shelf.BookCount }
func (s *PersistedShelf) Public() bool          { return s.shelf.Public }
func (s *PersistedShelf) CreatedAt() time.Time  { return s.createdAt }
func (s *PersistedShelf) UpdatedAt() time.Time  { return s.updatedAt }
func (s *PersistedShelf) DeletedAt() *time.Time { return s.deletedAt }

// DTO returns the underlying [Shelf] value for transfer to services.
func (s *PersistedShelf) DTO() Shelf { return s.shelf }

func (s *PersistedShelf) SetID(id string)           { s.id = id }
func (s *PersistedShelf) SetName(name string)       { s.shelf.Name = name }
func (s *PersistedShelf) SetDescription(d string)   { s.shelf.Description = d }
func (s *PersistedShelf) SetBookCount(n int)        { s.shelf.BookCount = n }
func (s *PersistedShelf) SetPublic(public bool)     { s.shelf.Public = public }
func (s *PersistedShelf) SetUpdatedAt(t time.Time)  { s.updatedAt = t }
func (s *PersistedShelf) SetDeletedAt(t *time.Time) { s.deletedAt = t }

// Validate checks that the shelf has an ID, a service, and a name.
func (s *PersistedShelf) Validate() error {
	if s.id == "" {
		return fmt.Errorf("shelf ID is required")
	}
	if s.service == "" {
		return fmt.Errorf("shelf service is required")
	}
	if s.shelf.Name == "" {
		return fmt.Errorf("shelf name is required")
	}
	return nil
}
