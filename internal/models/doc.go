// Package models defines domain entities and persistence interfaces for the shelfctl library sync service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external service data
//   - [Shelf] : Basic shelf metadata from library services
//   - [ShelfExport] : Shelf with complete book listing
//   - [Book] : Book metadata with ISBN for cross-service matching
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : User accounts with authentication and preferences
//   - [PersistedShelf] : Cached shelves with service metadata
//   - [PersistedBook] : Cached books with ISBN for matching optimization
//   - [ShelfBook] : Junction table linking shelves to books with ordering
//   - [SyncJob] : Sync operations tracking progress and results
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
