package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/formatter"
	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/services"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk shelf exports.
type BulkExportOpts struct {
	Format        string                                               // Export format: json, csv, markdown, txt
	OutputDir     string                                               // Base output directory (default: shelf_export_{epoch})
	NumWorkers    int                                                  // Concurrent workers (default: 5)
	RateLimit     float64                                              // Requests per second (default: 5)
	GetCoverImage func(ctx context.Context, id string) (string, error) // Cover source fetcher (data URI or URL)
}

// ShelfExportJob carries a fetched shelf to an export worker.
type ShelfExportJob struct {
	ShelfID string
	Export  *models.ShelfExport
}

// BulkExport exports multiple shelves concurrently with rate limiting and progress tracking.
//
// This method implements a worker pool pattern to efficiently export multiple shelves.
// It respects API rate limits, handles partial failures gracefully, and generates a manifest file summarizing the export results.
func (e *ShelfEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	srv services.Service,
	ids []string,
	opts BulkExportOpts,
) (*formatter.BulkExportResult, error) {
	if srv == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("shelf_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &formatter.BulkExportResult{
		TotalShelves:    len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]formatter.ShelfExportStatus, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan ShelfExportJob, len(ids))
	results := make(chan formatter.ShelfExportStatus, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		e.sendProgress(prog, fetchingShelvesUpdate(len(ids)))
		for i, shelfID := range ids {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(jobs)
				return
			}

			export, err := srv.ExportShelf(ctx, shelfID)
			if err != nil {
				results <- formatter.ShelfExportStatus{
					ShelfID:   shelfID,
					ShelfName: fmt.Sprintf("Unknown (%s)", shelfID),
					Success:   false,
					Err:       fmt.Errorf("failed to fetch shelf: %w", err),
				}
				continue
			}

			jobs <- ShelfExportJob{
				ShelfID: shelfID,
				Export:  export,
			}

			e.sendProgress(prog, exportingShelfUpdate(i+1, len(ids), export.Shelf.Name))
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(
				completed,
				len(ids),
				res.ShelfName,
				len(res.Files),
			))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(
				completed,
				len(ids),
				res.ShelfName,
				res.Err,
			))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports shelves from the jobs channel.
func (e *ShelfEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan ShelfExportJob,
	results chan<- formatter.ShelfExportStatus,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := e.exportSingleShelf(ctx, job, opts)
		results <- res
	}
}

// exportSingleShelf exports a single shelf to the appropriate format.
func (e *ShelfEngine) exportSingleShelf(
	ctx context.Context,
	j ShelfExportJob,
	opts BulkExportOpts,
) formatter.ShelfExportStatus {
	result := formatter.ShelfExportStatus{
		ShelfID:   j.ShelfID,
		ShelfName: j.Export.Shelf.Name,
		Success:   false,
		Files:     []string{},
	}

	switch opts.Format {
	case "csv":
		baseFilepath := filepath.Join(opts.OutputDir, j.Export.Shelf.ID)
		csvRes, err := formatter.WriteCSVExport(j.Export, baseFilepath)
		if err != nil {
			result.Err = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.BooksFile, csvRes.MetadataFile}
		result.Success = true

	case "markdown":
		outputDir := filepath.Join(opts.OutputDir, j.Export.Shelf.ID)

		var cover string
		if opts.GetCoverImage != nil {
			if src, err := opts.GetCoverImage(ctx, j.ShelfID); err == nil {
				cover = src
			}
		}

		mdRes, err := formatter.WriteMarkdownExport(j.Export, outputDir, cover)
		if err != nil {
			result.Err = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_books.txt", j.Export.Shelf.ID))
		path, err := formatter.WriteTextExport(j.Export, txtPath)
		if err != nil {
			result.Err = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}
		result.Success = true
	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.json", j.Export.Shelf.ID))
		path, err := formatter.WriteJSONExport(j.Export, jsonPath)
		if err != nil {
			result.Err = fmt.Errorf("JSON export failed: %w", err)
			return result
		}
		result.Files = []string{path}
		result.Success = true
	}
	return result
}
