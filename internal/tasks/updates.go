package tasks

import (
	"fmt"

	"github.com/Kenpir/library-recommendation-system/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	Compare
	MatchBooks
	CacheBooks
	CreateShelf
	ExportShelf
	FetchHealth
	FetchProfile
	FetchShelves
	FetchBooks
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case Compare:
		return "compare"
	case MatchBooks:
		return "match_books"
	case CacheBooks:
		return "cache_books"
	case CreateShelf:
		return "create_shelf"
	case ExportShelf:
		return "export_shelf"
	case FetchHealth:
		return "fetch_health"
	case FetchProfile:
		return "fetch_profile"
	case FetchShelves:
		return "fetch_shelves"
	case FetchBooks:
		return "fetch_books"
	default:
		return ""
	}
}

func fetchSourceUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching source shelf (%s)...", name),
	}
}

func fetchDestUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching destination shelf (%s)...", name),
	}
}

func foundShelfUpdate(step, total int, export *models.ShelfExport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found shelf: %s (%d books)", export.Shelf.Name, len(export.Books)),
		Data:    export,
	}
}

func buildDestMapUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: "Building book comparison maps...",
	}
}

func compareBooksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: "Comparing books...",
	}
}

func matchBookUpdate(step, total int, b *models.Book) ProgressUpdate {
	if b == nil {
		return ProgressUpdate{
			Phase:   MatchBooks,
			Step:    step,
			Total:   total,
			Message: "Looking up books in the catalog...",
		}
	}
	return ProgressUpdate{
		Phase:   MatchBooks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, b.Author, b.Title),
	}
}

func cacheBooksUpdate(step, total int, b *models.Book) ProgressUpdate {
	if b == nil {
		return ProgressUpdate{
			Phase:   CacheBooks,
			Step:    step,
			Total:   total,
			Message: "Caching books locally...",
		}
	}
	return ProgressUpdate{
		Phase:   CacheBooks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Caching: %s", step, total, b.Title),
	}
}

func creatingShelfUpdate(step, total int, serviceName string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateShelf,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating shelf on %s...", serviceName),
	}
}

func createShelfUpdate(step, total int, shelf *models.Shelf) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateShelf,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Shelf created: %s (ID: %s)", shelf.Name, shelf.ID),
		Data:    shelf,
	}
}

func operationUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}

func fetchingShelvesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    0,
		Total:   total,
		Message: "Fetching shelves for export...",
	}
}

func exportingShelfUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportShelf,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportShelf,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportShelf,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
