// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [UserRepository] : User account persistence with email-based lookups
//   - [ShelfRepository] : Shelf caching with service-specific queries
//   - [BookRepository] : Book caching with ISBN-based cross-service matching
//   - [ShelfBookRepository] : Junction table managing shelf book membership and ordering
//   - [SyncJobRepository] : Sync history with status tracking
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42, shelf #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
