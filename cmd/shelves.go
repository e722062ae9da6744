package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Kenpir/library-recommendation-system/internal/formatter"
	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/notify"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
	"github.com/Kenpir/library-recommendation-system/internal/tasks"
)

// shelfDeleter is the optional capability for removing hosted shelves.
type shelfDeleter interface {
	DeleteShelf(ctx context.Context, shelfID string) error
}

// listShelves fetches up to limit shelves from the hosted catalog.
func (r *Runner) listShelves(ctx context.Context, limit int) ([]models.Shelf, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized; run 'shelfctl auth login'", shared.ErrServiceUnavailable)
	}

	shelves, err := r.catalog.GetShelves(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch shelves: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && len(shelves) > limit {
		shelves = shelves[:limit]
	}
	return shelves, nil
}

// ShelvesList lists shelves on the hosted catalog.
func (r *Runner) ShelvesList(ctx context.Context, cmd *cli.Command) error {
	shelves, err := r.listShelves(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(shelves, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d shelves:\n\n", len(shelves))
	for i, shelf := range shelves {
		r.writePlain("%d. %s (%d books)\n", i+1, shelf.Name, shelf.BookCount)
		r.writePlain("   ID: %s\n", shelf.ID)
		if shelf.Description != "" {
			r.writePlain("   %s\n", shelf.Description)
		}
	}

	return nil
}

// ShelvesShow prints a shelf with all its books, optionally writing the
// export to a file.
func (r *Runner) ShelvesShow(ctx context.Context, cmd *cli.Command) error {
	shelfID := cmd.StringArg("shelf")
	if shelfID == "" {
		return fmt.Errorf("%w: shelf ID or name is required", shared.ErrMissingArgument)
	}
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog service not initialized; run 'shelfctl auth login'", shared.ErrServiceUnavailable)
	}

	export, err := r.catalog.ExportShelf(ctx, shelfID)
	if err != nil {
		return fmt.Errorf("%w: failed to export shelf: %v", shared.ErrShelfNotFound, err)
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteJSONExport(export, output)
		if err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		r.writePlain("✓ Shelf written to %s\n", path)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(export, cmd.Bool("pretty"))
	}

	r.writePlain("%s (%d books)\n", export.Shelf.Name, len(export.Books))
	if export.Shelf.Description != "" {
		r.writePlain("%s\n", export.Shelf.Description)
	}
	r.writePlain("\n")
	for i, book := range export.Books {
		r.writePlain("  %d. %s", i+1, book.Title)
		if book.Author != "" {
			r.writePlain(" - %s", book.Author)
		}
		if book.Pages > 0 {
			r.writePlain(" (%d pages)", book.Pages)
		}
		r.writePlain("\n")
	}

	return nil
}

// ShelvesCreate creates an empty shelf on the hosted catalog.
func (r *Runner) ShelvesCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: shelf name is required", shared.ErrMissingArgument)
	}
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog service not initialized; run 'shelfctl auth login'", shared.ErrServiceUnavailable)
	}

	export := &models.ShelfExport{
		Shelf: models.Shelf{
			Name:        name,
			Description: cmd.String("description"),
			Public:      cmd.Bool("public"),
		},
		Books: []models.Book{},
	}

	created, err := r.catalog.ImportShelf(ctx, export)
	if err != nil {
		return fmt.Errorf("%w: failed to create shelf: %v", shared.ErrAPIRequest, err)
	}

	r.notifier.NotifySuccess(fmt.Sprintf("Created shelf '%s' (ID: %s)", created.Name, created.ID))
	return nil
}

// ShelvesDelete removes a hosted shelf after confirmation.
func (r *Runner) ShelvesDelete(ctx context.Context, cmd *cli.Command) error {
	shelfID := cmd.StringArg("shelf")
	if shelfID == "" {
		return fmt.Errorf("%w: shelf ID is required", shared.ErrMissingArgument)
	}

	deleter, ok := r.catalog.(shelfDeleter)
	if !ok {
		return fmt.Errorf("%w: catalog does not support shelf deletion", shared.ErrServiceUnavailable)
	}

	shelf, err := r.catalog.GetShelf(ctx, shelfID)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch shelf: %v", shared.ErrShelfNotFound, err)
	}

	if !cmd.Bool("yes") {
		confirmed, err := r.confirmer.Confirm(ctx, notify.Options{
			Title:       fmt.Sprintf("Delete shelf '%s' (%d books)?", shelf.Name, shelf.BookCount),
			Description: "This removes the shelf from Bookhive. Cached copies stay on disk.",
		})
		if err != nil {
			return fmt.Errorf("failed to confirm: %w", err)
		}
		if !confirmed {
			r.writePlain("Aborted.\n")
			return nil
		}
	}

	if err := deleter.DeleteShelf(ctx, shelf.ID); err != nil {
		return fmt.Errorf("%w: failed to delete shelf: %v", shared.ErrAPIRequest, err)
	}

	r.notifier.NotifySuccess(fmt.Sprintf("Deleted shelf '%s'", shelf.Name))
	return nil
}

// ShelvesPull fetches a hosted shelf into the local cache.
func (r *Runner) ShelvesPull(ctx context.Context, cmd *cli.Command) error {
	shelfID := cmd.StringArg("shelf")
	if shelfID == "" {
		return fmt.Errorf("%w: shelf ID or name is required", shared.ErrMissingArgument)
	}

	r.logger.Info("starting pull", "shelf", shelfID)
	r.writePlain("Pulling shelf into the local cache...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CacheBooks:
				if update.Step == 0 {
					r.writePlain("\n💾 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			}
		}
	}()

	result, err := r.engine.Pull(ctx, progressCh, shelfID)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainln("═══════════════════════════════════════")
	r.writePlain("Pull Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Shelf: %s (%d books)\n", result.Export.Shelf.Name, len(result.Export.Books))
	r.writePlain("Cached: %d books\n", result.BooksCached)
	if result.CacheFailures > 0 {
		r.writePlain("Failed to cache %d books\n", result.CacheFailures)
	}

	return nil
}

// ShelvesPush creates a hosted shelf from a cached shelf.
func (r *Runner) ShelvesPush(ctx context.Context, cmd *cli.Command) error {
	shelfID := cmd.StringArg("shelf")
	if shelfID == "" {
		return fmt.Errorf("%w: shelf ID or name is required", shared.ErrMissingArgument)
	}
	if r.cache == nil {
		return fmt.Errorf("%w: local cache not initialized; run 'shelfctl setup database'", shared.ErrServiceUnavailable)
	}

	export, err := r.cache.LoadShelf(shelfID)
	if err != nil {
		return fmt.Errorf("%w: failed to load shelf from cache: %v", shared.ErrShelfNotFound, err)
	}

	if !cmd.Bool("yes") {
		confirmed, err := r.confirmer.Confirm(ctx, notify.Options{
			Title:       fmt.Sprintf("Push '%s' (%d books) to Bookhive?", export.Shelf.Name, len(export.Books)),
			Description: "A new shelf will be created on the hosted catalog.",
		})
		if err != nil {
			return fmt.Errorf("failed to confirm: %w", err)
		}
		if !confirmed {
			r.writePlain("Aborted.\n")
			return nil
		}
	}

	r.logger.Info("starting push", "shelf", shelfID)

	progressCh := make(chan tasks.ProgressUpdate, 10)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CreateShelf:
				r.writePlain("📤 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Push(ctx, progressCh, shelfID)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainln("═══════════════════════════════════════")
	r.writePlain("Push Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Shelf: %s (ID: %s)\n", result.Shelf.Name, result.Shelf.ID)
	r.writePlain("Books pushed: %d\n", result.BooksPushed)

	return nil
}

// ShelvesDiff compares a hosted shelf against a cached shelf.
func (r *Runner) ShelvesDiff(ctx context.Context, cmd *cli.Command) error {
	remoteID := cmd.String("remote")
	localID := cmd.String("local")

	r.logger.Info("diff requested", "remote", remoteID, "local", localID)
	r.writePlain("Comparing shelves...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 10)
	go func() {
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	result, err := r.engine.Diff(ctx, progressCh, remoteID, localID)
	close(progressCh)

	if err != nil {
		return err
	}

	comparison := result.Comparison
	r.writePlain("\n✓ Remote: %s (%d books)\n", comparison.SourceShelf.Shelf.Name, len(comparison.SourceShelf.Books))
	r.writePlain("✓ Local: %s (%d books)\n\n", comparison.DestShelf.Shelf.Name, len(comparison.DestShelf.Books))

	r.writePlainHeader("Comparison Results")
	r.writePlain("Matched: %d books\n", comparison.MatchedCount)
	r.writePlain("Missing locally: %d books\n", len(comparison.MissingInDest))
	r.writePlain("Extra locally: %d books\n\n", len(comparison.ExtraInDest))

	if len(comparison.MissingInDest) > 0 {
		r.writePlain("Missing locally:\n")
		for i, book := range comparison.MissingInDest {
			r.writePlain("  %d. %s - %s", i+1, book.Author, book.Title)
			if book.ISBN != "" {
				r.writePlain(" (%s)", book.ISBN)
			}
			r.writePlain("\n")
		}
		r.writePlain("\n")
	}

	if len(comparison.ExtraInDest) > 0 {
		r.writePlain("Extra locally (not on the hosted shelf):\n")
		for i, book := range comparison.ExtraInDest {
			r.writePlain("  %d. %s - %s", i+1, book.Author, book.Title)
			if book.ISBN != "" {
				r.writePlain(" (%s)", book.ISBN)
			}
			r.writePlain("\n")
		}
	}

	return nil
}

// ShelvesEnrich fills missing book metadata on a cached shelf from OpenLibrary.
func (r *Runner) ShelvesEnrich(ctx context.Context, cmd *cli.Command) error {
	shelfID := cmd.StringArg("shelf")
	if shelfID == "" {
		return fmt.Errorf("%w: shelf ID or name is required", shared.ErrMissingArgument)
	}

	r.logger.Info("starting enrichment", "shelf", shelfID)
	r.writePlain("Enriching shelf from OpenLibrary...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			if update.Step == 0 {
				r.writePlain("🔍 %s\n", update.Message)
			} else {
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Enrich(ctx, progressCh, shelfID)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainln("═══════════════════════════════════════")
	r.writePlain("Enrichment Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Shelf: %s (%d books)\n", result.Export.Shelf.Name, result.TotalBooks)
	r.writePlain("Enriched: %d\n", result.EnrichedCount)
	r.writePlain("Already complete: %d\n", result.SkippedCount)
	if result.EnrichedCount+result.FailedCount > 0 {
		r.writePlain("Match rate: %d/%d (%.1f%%)\n", result.EnrichedCount, result.EnrichedCount+result.FailedCount, result.MatchPercentage)
	}

	if result.FailedCount > 0 {
		r.writePlain("\nNo match for %d books:\n", result.FailedCount)
		for _, match := range result.Matches {
			if match.Error != nil {
				r.writePlain("  - %s - %s\n", match.Original.Author, match.Original.Title)
			}
		}
	}

	return nil
}

// ShelvesExport exports hosted shelves to disk concurrently.
func (r *Runner) ShelvesExport(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one shelf ID is required", shared.ErrMissingArgument)
	}
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog service not initialized; run 'shelfctl auth login'", shared.ErrServiceUnavailable)
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}

	r.logger.Info("starting bulk export", "shelves", len(ids), "format", opts.Format)
	r.writePlain("Exporting %d shelves (%s)...\n\n", len(ids), opts.Format)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			r.writePlain("📦 %s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, r.catalog, ids, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainln("═══════════════════════════════════════")
	r.writePlain("Export Complete!\n")
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("Exported: %d/%d shelves\n", result.SuccessfulExports, result.TotalShelves)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed exports:\n")
		for _, status := range result.Results {
			if !status.Success {
				r.writePlain("  - %s: %v\n", status.ShelfName, status.Err)
			}
		}
	}

	return nil
}
