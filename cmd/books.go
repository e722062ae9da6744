package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/notify"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// BooksList lists cached books with optional author and service filters.
func (r *Runner) BooksList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.bookRepo()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if author := cmd.String("author"); author != "" {
		criteria["author"] = author
	}
	if service := cmd.String("service"); service != "" {
		criteria["service"] = service
	}

	books, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}

	if cmd.Bool("json") {
		dtos := make([]models.Book, 0, len(books))
		for _, book := range books {
			dtos = append(dtos, book.DTO())
		}
		return r.writeJSON(dtos, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d cached books:\n\n", len(books))
	for i, book := range books {
		r.writePlain("%d. %s", i+1, book.Title())
		if book.Author() != "" {
			r.writePlain(" - %s", book.Author())
		}
		r.writePlain("\n   ID: %s (%s)\n", book.ID(), book.Service())
	}

	return nil
}

// BooksShow prints a single cached book.
func (r *Runner) BooksShow(ctx context.Context, cmd *cli.Command) error {
	bookID := cmd.StringArg("book")
	if bookID == "" {
		return fmt.Errorf("%w: book ID is required", shared.ErrMissingArgument)
	}

	repo, err := r.bookRepo()
	if err != nil {
		return err
	}

	book, err := repo.Get(bookID)
	if err != nil {
		return fmt.Errorf("%w: book '%s' not found: %v", shared.ErrInvalidArgument, bookID, err)
	}

	r.writePlain("%s\n", book.Title())
	if book.Author() != "" {
		r.writePlain("  Author: %s\n", book.Author())
	}
	if book.ISBN() != "" {
		r.writePlain("  ISBN: %s\n", book.ISBN())
	}
	if book.Pages() > 0 {
		r.writePlain("  Pages: %d\n", book.Pages())
	}
	if cover := book.CoverImage(); cover != "" {
		if strings.HasPrefix(cover, "data:") {
			r.writePlain("  Cover: embedded (%s)\n", shared.FormatByteSize(int64(len(cover))))
		} else {
			r.writePlain("  Cover: %s\n", cover)
		}
	}
	if book.Description() != "" {
		r.writePlain("  %s\n", book.Description())
	}
	r.writePlain("  ID: %s\n", book.ID())
	r.writePlain("  Service: %s\n", book.Service())
	r.writePlain("  Cached: %s\n", book.CreatedAt().Format("2006-01-02 15:04"))

	return nil
}

// BooksAdd inserts a manually entered book into the local cache.
func (r *Runner) BooksAdd(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.bookRepo()
	if err != nil {
		return err
	}

	book := models.Book{
		Title:       cmd.String("title"),
		Author:      cmd.String("author"),
		ISBN:        cmd.String("isbn"),
		Pages:       cmd.Int("pages"),
		Description: cmd.String("description"),
	}

	persisted := models.NewPersistedBook(0, "local", "", book)
	if err := repo.Create(persisted); err != nil {
		return fmt.Errorf("failed to add book: %w", err)
	}

	r.notifier.NotifySuccess(fmt.Sprintf("Added '%s' (ID: %s)", persisted.Title(), persisted.ID()))
	return nil
}

// BooksUpdate modifies the metadata of a cached book. Only flags that were
// set change the record.
func (r *Runner) BooksUpdate(ctx context.Context, cmd *cli.Command) error {
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

	book := persisted.DTO()
	if cmd.IsSet("title") {
		book.Title = cmd.String("title")
	}
	if cmd.IsSet("author") {
		book.Author = cmd.String("author")
	}
	if cmd.IsSet("isbn") {
		book.ISBN = cmd.String("isbn")
	}
	if cmd.IsSet("pages") {
		book.Pages = cmd.Int("pages")
	}
	if cmd.IsSet("description") {
		book.Description = cmd.String("description")
	}

	persisted.SetBook(book)
	if err := repo.Update(persisted); err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	r.notifier.NotifySuccess(fmt.Sprintf("Updated '%s'", persisted.Title()))
	return nil
}

// BooksRemove deletes a book from the local cache after confirmation.
func (r *Runner) BooksRemove(ctx context.Context, cmd *cli.Command) error {
	bookID := cmd.StringArg("book")
	if bookID == "" {
		return fmt.Errorf("%w: book ID is required", shared.ErrMissingArgument)
	}

	repo, err := r.bookRepo()
	if err != nil {
		return err
	}

	book, err := repo.Get(bookID)
	if err != nil {
		return fmt.Errorf("%w: book '%s' not found: %v", shared.ErrInvalidArgument, bookID, err)
	}

	if !cmd.Bool("yes") {
		confirmed, err := r.confirmer.Confirm(ctx, notify.Options{
			Title:       fmt.Sprintf("Remove '%s' from the local cache?", book.Title()),
			Description: "Shelf memberships referencing this book are removed too.",
		})
		if err != nil {
			return fmt.Errorf("failed to confirm: %w", err)
		}
		if !confirmed {
			r.writePlain("Aborted.\n")
			return nil
		}
	}

	if err := repo.Delete(book.ID()); err != nil {
		return fmt.Errorf("failed to remove book: %w", err)
	}

	r.notifier.NotifySuccess(fmt.Sprintf("Removed '%s'", book.Title()))
	return nil
}

// BooksSearch looks up a book on OpenLibrary.
func (r *Runner) BooksSearch(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: a title to search for is required", shared.ErrMissingArgument)
	}
	if r.metadata == nil {
		return fmt.Errorf("%w: metadata service not initialized", shared.ErrServiceUnavailable)
	}

	book, err := r.metadata.SearchBook(ctx, title, cmd.String("author"))
	if err != nil {
		return fmt.Errorf("no match for '%s': %w", title, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(book, true)
	}

	r.writePlain("Best match:\n")
	r.writePlain("  %s", book.Title)
	if book.Author != "" {
		r.writePlain(" - %s", book.Author)
	}
	r.writePlain("\n")
	if book.ISBN != "" {
		r.writePlain("  ISBN: %s\n", book.ISBN)
	}
	if book.Pages > 0 {
		r.writePlain("  Pages: %d\n", book.Pages)
	}
	if book.CoverImage != "" {
		r.writePlain("  Cover: %s\n", book.CoverImage)
	}

	return nil
}
