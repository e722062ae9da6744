// Package tasks orchestrates shelf operations between the hosted catalog and the local cache with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines six operations:
//
//  1. [SyncEngine.Pull] : Fetch a hosted shelf into the local cache
//     - Resolves the shelf by ID, falling back to a name lookup
//     - Caches each book (deduplicated by service ID)
//     - Persists the shelf row and its membership links
//
//  2. [SyncEngine.Push] : Create a hosted shelf from the cache
//     - Loads the cached shelf and its books
//     - Creates the shelf on the catalog with its full book listing
//
//  3. [SyncEngine.Diff] : Compare a hosted shelf against a cached shelf
//     - Matches books via ISBN (preferred) or normalized title/author
//     - Reports matched count, missing books, and extra books
//
//  4. [SyncEngine.Enrich] : Fill missing book metadata from the public catalog
//     - Looks up each incomplete book by title and author
//     - Merges ISBN, page count, cover, and description into the cached record
//
//  5. [SyncEngine.BulkExport] : Export multiple shelves to disk
//     - Worker pool with API rate limiting
//     - json, csv, markdown, and txt formats plus a manifest file
//
//  6. [SyncEngine.Snapshot] : Fetch all account data from the catalog API
//     - Retrieves health, profile, shelves, and books
//     - Returns structured data for backup or diagnostics
//
// # Progress Reporting
//
// All operations send [ProgressUpdate] values over a caller-supplied channel.
// Updates use select with default so a slow or absent consumer never blocks
// the operation.
//
// # Book Caching
//
// The [BookCacher] interface enables automatic book persistence during pulls
// and enrichment. Cache failures are tallied (Pull) or ignored (Enrich) to
// avoid disrupting transfers.
//
// # Implementation
//
// [ShelfEngine] implements [SyncEngine] with dependencies on:
//   - [services.Service] : hosted catalog and public metadata clients
//   - [ShelfCache] : local shelf persistence (repositories.ShelfCacheAdapter)
//   - [BookCacher] : local book persistence (repositories.BookCacheAdapter)
//   - [APIClient] : raw HTTP client for catalog diagnostics
package tasks
