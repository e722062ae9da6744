package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/tasks"
)

// Messages exchanged within the TUI (Elm-style).

// shelvesFetchedMsg carries the catalog's shelf listing.
type shelvesFetchedMsg struct {
	shelves []models.Shelf
	err     error
}

// booksFetchedMsg carries a shelf export selected for browsing.
type booksFetchedMsg struct {
	export *models.ShelfExport
	err    error
}

// progressUpdateMsg relays one engine progress update into the Update loop.
type progressUpdateMsg tasks.ProgressUpdate

// pullCompleteMsg signals the end of a pull started from the shelf list.
type pullCompleteMsg struct {
	result *tasks.PullResult
	err    error
}

// pushCompleteMsg signals the end of a push started from the picker.
type pushCompleteMsg struct {
	result *tasks.PushResult
	err    error
}

// coverChangedMsg reports the outcome of a cover ingestion attempt from the
// book form. emitted distinguishes an empty emission (a clear) from no
// emission at all (a rejected file, which leaves the current cover alone).
type coverChangedMsg struct {
	value   string
	emitted bool
	err     error
}

// bookSavedMsg closes the book form after a save.
type bookSavedMsg struct {
	book models.Book
	err  error
}

// confirmRequestMsg surfaces an external [Prompter] request to the model.
type confirmRequestMsg struct {
	req confirmRequest
}

// toastTickMsg drives expiry of the toast overlay.
type toastTickMsg struct{}

var (
	_ tea.Msg = shelvesFetchedMsg{}
	_ tea.Msg = booksFetchedMsg{}
	_ tea.Msg = pullCompleteMsg{}
	_ tea.Msg = toastTickMsg{}
)
