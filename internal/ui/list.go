package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

var (
	_ list.Item = shelfItem{}
	_ list.Item = bookItem{}
	_ list.Item = pickItem{}
)

// shelfItem wraps [models.Shelf] to implement [list.Item].
type shelfItem struct {
	shelf models.Shelf
}

func (i shelfItem) FilterValue() string { return i.shelf.Name }
func (i shelfItem) Title() string       { return i.shelf.Name }
func (i shelfItem) Description() string {
	desc := fmt.Sprintf("%d books • %s", i.shelf.BookCount, shared.VisibilityString(i.shelf.Public))
	if i.shelf.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.shelf.Description)
	}
	return desc
}

// bookItem wraps [models.Book] to implement [list.Item].
type bookItem struct {
	book models.Book
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.Title }
func (i bookItem) Description() string {
	desc := i.book.Author
	if desc == "" {
		desc = "Unknown author"
	}
	if i.book.ISBN != "" {
		desc = fmt.Sprintf("%s • ISBN %s", desc, i.book.ISBN)
	}
	if i.book.Pages > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatPages(i.book.Pages))
	}
	return desc
}

// pickItem wraps [models.Book] for the multi-select picker, rendering a
// checkbox marker ahead of the title. Filtering still matches on the title.
type pickItem struct {
	book     models.Book
	selected bool
}

func (i pickItem) FilterValue() string { return i.book.Title }
func (i pickItem) Title() string {
	marker := "[ ]"
	if i.selected {
		marker = "[x]"
	}
	return fmt.Sprintf("%s %s", marker, i.book.Title)
}
func (i pickItem) Description() string {
	return bookItem{book: i.book}.Description()
}
