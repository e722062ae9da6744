package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/Kenpir/library-recommendation-system/internal/ingest"
	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// coverUploader is the optional capability for syncing covers to the hosted
// catalog.
type coverUploader interface {
	UploadCover(ctx context.Context, bookID, dataURI string) error
	ClearCover(ctx context.Context, bookID string) error
}

// ingestConfigFromShared maps the TOML ingest section onto the pipeline's
// config.
func ingestConfigFromShared(cfg shared.IngestConfig) ingest.Config {
	return ingest.Config{
		MaxSizeMB:      cfg.MaxSizeMB,
		MaxEncodedKB:   cfg.MaxEncodedKB,
		MaxDimensionPx: cfg.MaxDimensionPx,
		Disabled:       cfg.Disabled,
	}
}

// hostedBookID picks the ID the catalog knows a cached book by.
func hostedBookID(book *models.PersistedBook) string {
	if book.ServiceID() != "" {
		return book.ServiceID()
	}
	return book.ID()
}

// setCover runs the ingestion pipeline over the file at path and stores the
// emitted value on the cached book.
func (r *Runner) setCover(bookID, path string) (*models.PersistedBook, error) {
	repo, err := r.bookRepo()
	if err != nil {
		return nil, err
	}

	persisted, err := repo.Get(bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: book '%s' not found: %v", shared.ErrInvalidArgument, bookID, err)
	}

	var emitted string
	ingestor := ingest.New(ingestConfigFromShared(r.config.Ingest), func(value string) {
		emitted = value
	}, r.logger)

	if err := ingestor.SelectFile(path); err != nil {
		return nil, err
	}
	if emitted == "" {
		return nil, fmt.Errorf("%w: ingestion produced no cover", shared.ErrInvalidArgument)
	}

	persisted.SetCoverImage(emitted)
	if err := repo.Update(persisted); err != nil {
		return nil, fmt.Errorf("failed to store cover: %w", err)
	}

	return persisted, nil
}

// CoverSet ingests an image file as a cached book's cover and optionally
// uploads it to the hosted catalog.
func (r *Runner) CoverSet(ctx context.Context, cmd *cli.Command) error {
	bookID := cmd.StringArg("book")
	path := cmd.StringArg("file")
	if bookID == "" || path == "" {
		return fmt.Errorf("%w: book ID and image file are required", shared.ErrMissingArgument)
	}

	persisted, err := r.setCover(bookID, path)
	if err != nil {
		return err
	}

	r.notifier.NotifySuccess(fmt.Sprintf("Cover set for '%s' (%s)", persisted.Title(), shared.FormatByteSize(int64(len(persisted.CoverImage())))))

	if !cmd.Bool("push") {
		return nil
	}

	uploader, ok := r.catalog.(coverUploader)
	if !ok {
		return fmt.Errorf("%w: catalog does not support cover uploads", shared.ErrServiceUnavailable)
	}
	if err := uploader.UploadCover(ctx, hostedBookID(persisted), persisted.CoverImage()); err != nil {
		return fmt.Errorf("%w: failed to upload cover: %v", shared.ErrAPIRequest, err)
	}

	r.notifier.NotifySuccess("Cover uploaded to Bookhive")
	return nil
}

// CoverClear removes a cached book's cover and optionally clears it on the
// hosted catalog.
func (r *Runner) CoverClear(ctx context.Context, cmd *cli.Command) error {
	bookID := cmd.StringArg("book")
	if bookID == "" {
		return fmt.Errorf("%w: book ID is required", shared.ErrMissingArgument)
	}

	repo, err := r.bookRepo()
	if err != nil {
		return err
	}

	persisted, err := repo.Get(bookID)
	if err != nil {
		return fmt.Errorf("%w: book '%s' not found: %v", shared.ErrInvalidArgument, bookID, err)
	}

	persisted.SetCoverImage("")
	if err := repo.Update(persisted); err != nil {
		return fmt.Errorf("failed to clear cover: %w", err)
	}

	r.notifier.NotifySuccess(fmt.Sprintf("Cover cleared for '%s'", persisted.Title()))

	if !cmd.Bool("push") {
		return nil
	}

	uploader, ok := r.catalog.(coverUploader)
	if !ok {
		return fmt.Errorf("%w: catalog does not support cover uploads", shared.ErrServiceUnavailable)
	}
	if err := uploader.ClearCover(ctx, hostedBookID(persisted)); err != nil {
		return fmt.Errorf("%w: failed to clear hosted cover: %v", shared.ErrAPIRequest, err)
	}

	r.notifier.NotifySuccess("Cover cleared on Bookhive")
	return nil
}

// CoverWatch watches a drop directory and ingests new images as covers for
// the given book until interrupted.
func (r *Runner) CoverWatch(ctx context.Context, cmd *cli.Command) error {
	bookID := cmd.StringArg("book")
	if bookID == "" {
		return fmt.Errorf("%w: book ID is required", shared.ErrMissingArgument)
	}

	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Ingest.DropDir
	}
	if dir == "" {
		return fmt.Errorf("%w: no drop directory; pass --dir or set ingest.drop_dir", shared.ErrMissingArgument)
	}

	repo, err := r.bookRepo()
	if err != nil {
		return err
	}

	persisted, err := repo.Get(bookID)
	if err != nil {
		return fmt.Errorf("%w: book '%s' not found: %v", shared.ErrInvalidArgument, bookID, err)
	}

	ingestor := ingest.New(ingestConfigFromShared(r.config.Ingest), func(value string) {
		if value == "" {
			return
		}
		persisted.SetCoverImage(value)
		if err := repo.Update(persisted); err != nil {
			r.notifier.NotifyError(fmt.Sprintf("Failed to store cover: %v", err))
			return
		}
		r.notifier.NotifySuccess(fmt.Sprintf("Cover set for '%s' (%s)", persisted.Title(), shared.FormatByteSize(int64(len(value)))))
	}, r.logger)

	watcher, err := ingest.NewDropWatcher(ingestor, dir, r.logger)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer watcher.Close()

	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("Watching %s for covers for '%s' (ctrl-c to stop)...\n", dir, persisted.Title())

	if err := watcher.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
		return fmt.Errorf("watcher stopped: %w", err)
	}

	r.writePlain("\nStopped.\n")
	return nil
}
