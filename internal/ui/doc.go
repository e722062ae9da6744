// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for shelf management:
//  1. [ShelfListView] : Browse and select Bookhive shelves
//  2. [BookListView] : Browse books on the selected shelf
//  3. [BookFormView] : Edit book metadata and the cover image (via internal/ingest)
//  4. [PickerView] : Searchable multi-select of books before a push
//  5. [ConfirmView] : Answer yes/no prompts (implements [notify.Confirmer] via [Prompter])
//  6. [SyncView] : Monitor real-time progress updates from the sync engine
//  7. [ResultView] : Display operation outcomes
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the ShelfEngine, providing non-blocking status reporting during pulls and pushes.
// Transient notifications render through a [Toasts] overlay that satisfies [notify.Notifier].
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
