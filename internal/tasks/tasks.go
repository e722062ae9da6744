// package tasks orchestrates shelf operations between the hosted catalog and the local cache.
//
// The core abstraction is SyncEngine, which orchestrates shelf pulls, pushes, comparisons, and exports.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/Kenpir/library-recommendation-system/internal/formatter"
	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/services"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// BookMatchResult represents the result of attempting to match a single book
// against the metadata catalog.
type BookMatchResult struct {
	Original models.Book  // Original book from the shelf
	Matched  *models.Book // Matched catalog record (nil if not found)
	Error    error        // Error if the lookup failed
}

// PullResult contains all data from pulling a hosted shelf into the cache.
type PullResult struct {
	Export        *models.ShelfExport // Shelf with books as fetched from the catalog
	BooksCached   int                 // Books written to the local cache
	CacheFailures int                 // Books that could not be cached
}

// PushResult contains all data from pushing a cached shelf to the catalog.
type PushResult struct {
	Shelf       *models.Shelf // Created or updated hosted shelf
	BooksPushed int           // Books sent with the shelf
}

// EnrichResult contains all data from an OpenLibrary enrichment pass.
type EnrichResult struct {
	Export          *models.ShelfExport // Shelf with enriched book records
	Matches         []BookMatchResult   // Individual lookup results
	EnrichedCount   int                 // Books that gained metadata
	SkippedCount    int                 // Books already complete
	FailedCount     int                 // Books with no catalog match
	TotalBooks      int                 // Total books on the shelf
	MatchPercentage float64             // Enrichment rate over attempted lookups
}

// ComparisonResult contains book comparison details between two shelves.
type ComparisonResult struct {
	SourceShelf   *models.ShelfExport // Source shelf
	DestShelf     *models.ShelfExport // Destination shelf
	MatchedCount  int                 // Books found in both
	MissingInDest []models.Book       // Books in source but not in dest
	ExtraInDest   []models.Book       // Books in dest but not in source
}

// DiffResult contains the results of comparing two shelves.
type DiffResult struct {
	Comparison ComparisonResult
}

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Data     any
	Error    error
}

// SnapshotResult contains account data fetched from the catalog API.
type SnapshotResult struct {
	Health  any              // Health status
	Profile any              // Account profile
	Shelves any              // All shelves
	Books   any              // Library-wide book listing
	Errors  []EndpointResult // Failed endpoint fetches
}

// SnapshotData is the JSON-serializable form of a SnapshotResult.
type SnapshotData struct {
	Health  any      `json:"health"`
	Profile any      `json:"profile,omitempty"`
	Shelves any      `json:"shelves,omitempty"`
	Books   any      `json:"books,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Data converts the result into its JSON-serializable form.
func (r *SnapshotResult) Data() SnapshotData {
	data := SnapshotData{
		Health:  r.Health,
		Profile: r.Profile,
		Shelves: r.Shelves,
		Books:   r.Books,
	}
	for _, e := range r.Errors {
		data.Errors = append(data.Errors, fmt.Sprintf("%s: %v", e.Endpoint, e.Error))
	}
	return data
}

type endpointOperation struct {
	name    string
	path    string
	target  *any
	phase   Phase
	message string
}

// SyncEngine defines operations for syncing shelves between the hosted
// catalog and the local cache.
type SyncEngine interface {
	// Pull fetches a hosted shelf (by ID, falling back to name lookup) and
	// writes the shelf and its books into the local cache.
	Pull(ctx context.Context, progress chan<- ProgressUpdate, shelfIDOrName string) (*PullResult, error)

	// Push creates a hosted shelf from a cached shelf and its books.
	Push(ctx context.Context, progress chan<- ProgressUpdate, shelfID string) (*PushResult, error)

	// Diff compares a hosted shelf against a cached shelf by identifying
	// matched books, missing books, and extra books.
	Diff(ctx context.Context, progress chan<- ProgressUpdate, remoteID, localID string) (*DiffResult, error)

	// Enrich fills missing metadata (ISBN, pages, cover) on a cached shelf's
	// books from the public metadata catalog.
	Enrich(ctx context.Context, progress chan<- ProgressUpdate, shelfID string) (*EnrichResult, error)

	// BulkExport exports multiple hosted shelves to disk concurrently.
	BulkExport(ctx context.Context, progress chan<- ProgressUpdate, srv services.Service, ids []string, opts BulkExportOpts) (*formatter.BulkExportResult, error)

	// Snapshot fetches all account data from the catalog API by retrieving
	// health, profile, shelves, and books.
	Snapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error)
}

// ShelfCache is the local persistence surface the engine reads and writes.
//
// SaveShelf expects the shelf's books to already be cached (see BookCacher);
// it persists the shelf row and its membership links.
type ShelfCache interface {
	SaveShelf(export *models.ShelfExport) error
	LoadShelf(idOrName string) (*models.ShelfExport, error)
}

// BookCacher persists books fetched during sync operations.
//
// CacheBook is deduplicating: caching an already-known book is a no-op.
// UpdateBook overwrites the cached record for an enrichment pass.
type BookCacher interface {
	CacheBook(service, serviceID string, book models.Book) error
	UpdateBook(service, serviceID string, book models.Book) error
}

// APIClient defines the interface for making raw requests to the catalog API.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// ShelfEngine implements SyncEngine for shelf operations.
// Contains dependencies on the catalog service, metadata service, and local cache.
type ShelfEngine struct {
	catalog  services.Service
	metadata services.Service
	cache    ShelfCache
	books    BookCacher
	api      APIClient
}

var _ SyncEngine = (*ShelfEngine)(nil)

// NewShelfEngine creates a new ShelfEngine with the provided dependencies.
//
// metadata, books, and api may be nil; operations requiring them return
// shared.ErrServiceUnavailable.
func NewShelfEngine(catalog, metadata services.Service, cache ShelfCache, books BookCacher, api APIClient) *ShelfEngine {
	return &ShelfEngine{
		catalog:  catalog,
		metadata: metadata,
		cache:    cache,
		books:    books,
		api:      api,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ShelfEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// resolveShelf exports a hosted shelf by ID, falling back to a name lookup
// across the service's shelves when the direct fetch fails.
func (e *ShelfEngine) resolveShelf(ctx context.Context, srv services.Service, idOrName string) (*models.ShelfExport, error) {
	export, err := srv.ExportShelf(ctx, idOrName)
	if err == nil {
		return export, nil
	}

	shelves, shelvesErr := srv.GetShelves(ctx)
	if shelvesErr != nil {
		return nil, fmt.Errorf("%w: failed to get shelves: %v", shared.ErrAPIRequest, shelvesErr)
	}

	var matchedID string
	for _, sh := range shelves {
		if sh.Name == idOrName {
			matchedID = sh.ID
			break
		}
	}

	if matchedID == "" {
		return nil, fmt.Errorf("%w: no shelf found with name '%s'", shared.ErrShelfNotFound, idOrName)
	}

	export, err = srv.ExportShelf(ctx, matchedID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to export shelf: %v", shared.ErrAPIRequest, err)
	}
	return export, nil
}

// Pull fetches a hosted shelf and writes it into the local cache.
func (e *ShelfEngine) Pull(ctx context.Context, progress chan<- ProgressUpdate, shelfIDOrName string) (*PullResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil || e.books == nil {
		return nil, fmt.Errorf("%w: local cache not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchSourceUpdate(1, 1, e.catalog.Name()))

	export, err := e.resolveShelf(ctx, e.catalog, shelfIDOrName)
	if err != nil {
		return nil, err
	}

	total := len(export.Books)
	result := &PullResult{Export: export}

	e.sendProgress(progress, foundShelfUpdate(1, 1, export))
	e.sendProgress(progress, cacheBooksUpdate(0, total, nil))

	for i, book := range export.Books {
		e.sendProgress(progress, cacheBooksUpdate(i+1, total, &book))

		if err := e.books.CacheBook(e.catalog.Name(), book.ID, book); err != nil {
			result.CacheFailures++
			continue
		}
		result.BooksCached++
	}

	if err := e.cache.SaveShelf(export); err != nil {
		return result, fmt.Errorf("failed to save shelf to cache: %w", err)
	}

	return result, nil
}

// Push creates a hosted shelf from a cached shelf and its books.
func (e *ShelfEngine) Push(ctx context.Context, progress chan<- ProgressUpdate, shelfID string) (*PushResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: local cache not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchSourceUpdate(1, 2, "local cache"))

	export, err := e.cache.LoadShelf(shelfID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load shelf from cache: %v", shared.ErrShelfNotFound, err)
	}

	e.sendProgress(progress, creatingShelfUpdate(2, 2, e.catalog.Name()))

	created, err := e.catalog.ImportShelf(ctx, export)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create shelf: %v", shared.ErrAPIRequest, err)
	}

	e.sendProgress(progress, createShelfUpdate(2, 2, created))

	return &PushResult{
		Shelf:       created,
		BooksPushed: len(export.Books),
	}, nil
}

// Diff compares a hosted shelf against a cached shelf and identifies differences.
func (e *ShelfEngine) Diff(ctx context.Context, progress chan<- ProgressUpdate, remoteID, localID string) (*DiffResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: local cache not initialized", shared.ErrServiceUnavailable)
	}

	result := &DiffResult{}

	e.sendProgress(progress, fetchSourceUpdate(1, 2, e.catalog.Name()))
	sourceExport, err := e.catalog.ExportShelf(ctx, remoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to export source shelf: %v", shared.ErrShelfNotFound, err)
	}

	e.sendProgress(progress, fetchDestUpdate(2, 2, "local cache"))
	destExport, err := e.cache.LoadShelf(localID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load destination shelf: %v", shared.ErrShelfNotFound, err)
	}

	result.Comparison = e.compareShelves(progress, sourceExport, destExport)
	return result, nil
}

// compareShelves matches books between two exports, preferring ISBN identity
// and falling back to the normalized title/author key.
func (e *ShelfEngine) compareShelves(progress chan<- ProgressUpdate, sourceExport, destExport *models.ShelfExport) ComparisonResult {
	comparison := ComparisonResult{
		SourceShelf: sourceExport,
		DestShelf:   destExport,
	}

	e.sendProgress(progress, buildDestMapUpdate(1, 2))
	destBookMap := make(map[string]models.Book)
	destISBNMap := make(map[string]models.Book)

	for _, book := range destExport.Books {
		normalizedKey := shared.NormalizeBookKey(book.Title, book.Author)
		destBookMap[normalizedKey] = book
		if book.ISBN != "" {
			destISBNMap[book.ISBN] = book
		}
	}

	e.sendProgress(progress, compareBooksUpdate(2, 2))
	var missingInDest []models.Book
	matchedCount := 0

	for _, srcBook := range sourceExport.Books {
		matched := false

		if srcBook.ISBN != "" {
			if _, found := destISBNMap[srcBook.ISBN]; found {
				matched = true
			}
		}

		if !matched {
			normalizedKey := shared.NormalizeBookKey(srcBook.Title, srcBook.Author)
			if _, found := destBookMap[normalizedKey]; found {
				matched = true
			}
		}

		if matched {
			matchedCount++
		} else {
			missingInDest = append(missingInDest, srcBook)
		}
	}

	sourceBookMap := make(map[string]models.Book)
	sourceISBNMap := make(map[string]models.Book)

	for _, book := range sourceExport.Books {
		normalizedKey := shared.NormalizeBookKey(book.Title, book.Author)
		sourceBookMap[normalizedKey] = book
		if book.ISBN != "" {
			sourceISBNMap[book.ISBN] = book
		}
	}

	var extraInDest []models.Book
	for _, destBook := range destExport.Books {
		matched := false

		if destBook.ISBN != "" {
			if _, found := sourceISBNMap[destBook.ISBN]; found {
				matched = true
			}
		}

		if !matched {
			normalizedKey := shared.NormalizeBookKey(destBook.Title, destBook.Author)
			if _, found := sourceBookMap[normalizedKey]; found {
				matched = true
			}
		}

		if !matched {
			extraInDest = append(extraInDest, destBook)
		}
	}

	comparison.MatchedCount = matchedCount
	comparison.MissingInDest = missingInDest
	comparison.ExtraInDest = extraInDest
	return comparison
}

// enrichable reports whether a book is missing metadata the public catalog
// could supply.
func enrichable(book models.Book) bool {
	return book.ISBN == "" || book.Pages == 0 || book.CoverImage == ""
}

// mergeBook fills empty fields on base from the matched catalog record.
func mergeBook(base models.Book, matched *models.Book) models.Book {
	if base.ISBN == "" {
		base.ISBN = matched.ISBN
	}
	if base.Pages == 0 {
		base.Pages = matched.Pages
	}
	if base.CoverImage == "" {
		base.CoverImage = matched.CoverImage
	}
	if base.Description == "" {
		base.Description = matched.Description
	}
	return base
}

// Enrich fills missing metadata on a cached shelf's books from the public
// metadata catalog.
func (e *ShelfEngine) Enrich(ctx context.Context, progress chan<- ProgressUpdate, shelfID string) (*EnrichResult, error) {
	if e.metadata == nil {
		return nil, fmt.Errorf("%w: metadata service not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: local cache not initialized", shared.ErrServiceUnavailable)
	}

	export, err := e.cache.LoadShelf(shelfID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load shelf from cache: %v", shared.ErrShelfNotFound, err)
	}

	total := len(export.Books)
	result := &EnrichResult{
		Export:     export,
		TotalBooks: total,
		Matches:    make([]BookMatchResult, 0, total),
	}

	e.sendProgress(progress, matchBookUpdate(0, total, nil))

	for i := range export.Books {
		book := export.Books[i]
		e.sendProgress(progress, matchBookUpdate(i+1, total, &book))

		if !enrichable(book) {
			result.SkippedCount++
			continue
		}

		matched, err := e.metadata.SearchBook(ctx, book.Title, book.Author)
		result.Matches = append(result.Matches, BookMatchResult{
			Original: book,
			Matched:  matched,
			Error:    err,
		})

		if err != nil {
			result.FailedCount++
			continue
		}

		export.Books[i] = mergeBook(book, matched)
		result.EnrichedCount++

		if e.books != nil {
			// Cache failures do not interrupt enrichment
			_ = e.books.UpdateBook(e.cacheService(), book.ID, export.Books[i])
		}
	}

	attempted := result.EnrichedCount + result.FailedCount
	if attempted > 0 {
		result.MatchPercentage = float64(result.EnrichedCount) / float64(attempted) * 100
	}

	return result, nil
}

// cacheService names the service cached books belong to.
func (e *ShelfEngine) cacheService() string {
	if e.catalog != nil {
		return e.catalog.Name()
	}
	return "local"
}

// Snapshot fetches all account data from the catalog API.
func (e *ShelfEngine) Snapshot(ctx context.Context, progress chan<- ProgressUpdate) (*SnapshotResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	result := &SnapshotResult{
		Errors: []EndpointResult{},
	}

	endpoints := []endpointOperation{
		{name: "health", path: "/health", target: &result.Health, phase: FetchHealth, message: "Fetching health status..."},
		{name: "profile", path: "/me", target: &result.Profile, phase: FetchProfile, message: "Fetching profile..."},
		{name: "shelves", path: "/shelves", target: &result.Shelves, phase: FetchShelves, message: "Fetching shelves..."},
		{name: "books", path: "/books", target: &result.Books, phase: FetchBooks, message: "Fetching books..."},
	}

	totalSteps := len(endpoints)

	for i, endpoint := range endpoints {
		e.sendProgress(progress, operationUpdate(endpoint, i+1, totalSteps))

		resp, err := e.api.Get(ctx, endpoint.path)
		if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			} else {
				errMsg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			result.Errors = append(result.Errors, EndpointResult{
				Endpoint: endpoint.path,
				Error:    fmt.Errorf("%s", errMsg),
			})
		} else {
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}
