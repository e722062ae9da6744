package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Kenpir/library-recommendation-system/internal/ingest"
	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/notify"
	"github.com/Kenpir/library-recommendation-system/internal/services"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
	"github.com/Kenpir/library-recommendation-system/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ShelfListView ViewState = iota
	BookListView
	BookFormView
	PickerView
	ConfirmView
	SyncView
	ResultView
)

// Deps bundles the external dependencies the TUI works against.
type Deps struct {
	Catalog services.Service
	Engine  *tasks.ShelfEngine
	Ingest  ingest.Config
	DropDir string
	Logger  *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx  context.Context
	view ViewState
	deps Deps

	width  int
	height int

	shelfList list.Model
	shelves   []models.Shelf
	bookList  list.Model
	pickList  list.Model
	selected  *models.ShelfExport
	picks     map[string]bool

	form     *CoverForm
	toasts   *Toasts
	prompter *Prompter

	// Confirm view state. onConfirm handles both internal prompts (push) and
	// external Prompter requests.
	confirmOpts notify.Options
	confirmView ViewState // view to restore after answering
	onConfirm   func(answer bool) tea.Cmd

	syncOp       string // "pull" or "push"
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	pullResult   *tasks.PullResult
	pushResult   *tasks.PushResult

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	return &Model{
		ctx:      ctx,
		view:     ShelfListView,
		deps:     deps,
		picks:    map[string]bool{},
		form:     NewCoverForm(deps.Ingest, deps.DropDir, deps.Logger),
		toasts:   &Toasts{},
		prompter: NewPrompter(),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Notifier returns the toast overlay as a [notify.Notifier] for components
// running outside the Update loop.
func (m *Model) Notifier() notify.Notifier { return m.toasts }

// Confirmer returns the prompter routing confirmations through the TUI.
// Callers must not invoke it from the Update loop itself.
func (m *Model) Confirmer() notify.Confirmer { return m.prompter }

// Init fetches the shelf listing and arms the confirm and toast loops.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchShelves(), m.waitForConfirm(), toastTick())
}

func toastTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return toastTickMsg{}
	})
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.shelfList.Width() == 0 {
			m.shelfList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.bookList.Width() == 0 {
			m.bookList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.pickList.Width() == 0 {
			m.pickList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ShelfListView:
			return m.handleShelfListKeys(msg)
		case BookListView:
			return m.handleBookListKeys(msg)
		case BookFormView:
			return m.handleFormKeys(msg)
		case PickerView:
			return m.handlePickerKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case shelvesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.shelves = msg.shelves
		items := make([]list.Item, len(msg.shelves))
		for i, sh := range msg.shelves {
			items[i] = shelfItem{shelf: sh}
		}
		m.shelfList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.shelfList.Title = fmt.Sprintf("%s Shelves", m.deps.Catalog.Name())
		m.shelfList.SetSize(m.width-4, m.height-8)
		return m, nil

	case booksFetchedMsg:
		if msg.err != nil {
			m.toasts.NotifyError(fmt.Sprintf("failed to load shelf: %v", msg.err))
			m.view = ShelfListView
			return m, nil
		}
		m.selected = msg.export
		m.rebuildBookList()
		m.view = BookListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case pullCompleteMsg:
		m.pullResult = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		if msg.err != nil {
			m.toasts.NotifyError(fmt.Sprintf("pull failed: %v", msg.err))
		} else {
			m.toasts.NotifySuccess(fmt.Sprintf("cached %d books", msg.result.BooksCached))
		}
		return m, nil

	case pushCompleteMsg:
		m.pushResult = msg.result
		m.err = msg.err
		m.view = ResultView
		if msg.err != nil {
			m.toasts.NotifyError(fmt.Sprintf("push failed: %v", msg.err))
		} else {
			m.toasts.NotifySuccess(fmt.Sprintf("pushed %d books", msg.result.BooksPushed))
		}
		return m, nil

	case coverChangedMsg:
		if msg.emitted {
			m.form.ApplyCover(msg.value)
		}
		switch {
		case msg.err != nil:
			m.toasts.NotifyError(msg.err.Error())
		case msg.emitted && msg.value == "":
			m.toasts.NotifyWarning("cover cleared")
		case msg.emitted:
			m.toasts.NotifySuccess("cover updated")
		}
		return m, nil

	case bookSavedMsg:
		if msg.err != nil {
			m.toasts.NotifyError(msg.err.Error())
			return m, nil
		}
		m.applyBook(msg.book)
		m.form.Close()
		m.rebuildBookList()
		m.view = BookListView
		m.toasts.NotifySuccess(fmt.Sprintf("saved '%s'", msg.book.Title))
		return m, nil

	case confirmRequestMsg:
		req := msg.req
		m.confirmOpts = req.opts
		m.confirmView = m.view
		m.onConfirm = func(answer bool) tea.Cmd {
			req.reply(answer)
			m.view = m.confirmView
			return m.waitForConfirm()
		}
		m.view = ConfirmView
		return m, nil

	case toastTickMsg:
		return m, toastTick()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case ShelfListView:
		body = m.renderShelfList()
	case BookListView:
		body = m.renderBookList()
	case BookFormView:
		body = m.renderForm()
	case PickerView:
		body = m.renderPicker()
	case ConfirmView:
		body = m.renderConfirm()
	case SyncView:
		body = m.renderSync()
	case ResultView:
		body = m.renderResult()
	}

	if m.toasts.Active() {
		body = fmt.Sprintf("%s\n\n%s", body, m.toasts.View())
	}
	return body
}

func (m *Model) handleShelfListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if sh, ok := m.selectedShelf(); ok {
			return m, m.fetchBooks(sh.ID)
		}
	case "p":
		if sh, ok := m.selectedShelf(); ok {
			m.syncOp = "pull"
			m.view = SyncView
			return m, m.startPull(sh.ID)
		}
	}

	var cmd tea.Cmd
	m.shelfList, cmd = m.shelfList.Update(msg)
	return m, cmd
}

func (m *Model) handleBookListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ShelfListView
		return m, nil
	case "a":
		m.form.Open(models.Book{})
		m.view = BookFormView
		return m, nil
	case "e":
		if selected, ok := m.bookList.SelectedItem().(bookItem); ok {
			m.form.Open(selected.book)
			m.view = BookFormView
		}
		return m, nil
	case "P":
		m.picks = map[string]bool{}
		m.rebuildPickList()
		m.view = PickerView
		return m, nil
	}

	var cmd tea.Cmd
	m.bookList, cmd = m.bookList.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form.Close()
		m.view = BookListView
		return m, nil
	case "tab":
		m.form.CycleFocus(false)
		return m, nil
	case "shift+tab":
		m.form.CycleFocus(true)
		return m, nil
	case "ctrl+x":
		return m, m.form.ClearCover()
	case "enter":
		if m.form.OnCoverField() {
			return m, m.form.Ingest()
		}
		return m, m.saveBook()
	}
	return m, m.form.Update(msg)
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the user is typing a filter, every key belongs to the list.
	if m.pickList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.pickList, cmd = m.pickList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = BookListView
		return m, nil
	case " ":
		if item, ok := m.pickList.SelectedItem().(pickItem); ok {
			m.picks[item.book.ID] = !m.picks[item.book.ID]
			idx := m.pickList.Index()
			m.rebuildPickList()
			m.pickList.Select(idx)
		}
		return m, nil
	case "enter":
		picked := m.pickedBooks()
		if len(picked) == 0 {
			m.toasts.NotifyWarning("nothing selected")
			return m, nil
		}
		m.confirmOpts = notify.Options{
			Title:       fmt.Sprintf("Push %d books to %s?", len(picked), m.deps.Catalog.Name()),
			Description: fmt.Sprintf("A new shelf '%s' will be created on the hosted catalog.", m.selected.Shelf.Name),
			Default:     true,
		}
		m.confirmView = PickerView
		m.onConfirm = func(answer bool) tea.Cmd {
			if !answer {
				m.view = PickerView
				return nil
			}
			m.syncOp = "push"
			m.view = SyncView
			return m.startPush(picked)
		}
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.pickList, cmd = m.pickList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		return m, m.answerConfirm(true)
	case "n", "esc":
		return m, m.answerConfirm(false)
	case "enter":
		return m, m.answerConfirm(m.confirmOpts.Default)
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) answerConfirm(answer bool) tea.Cmd {
	handler := m.onConfirm
	m.onConfirm = nil
	if handler == nil {
		m.view = m.confirmView
		return nil
	}
	return handler(answer)
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ShelfListView
		m.err = nil
		return m, nil
	case "r":
		m.view = ShelfListView
		m.selected = nil
		m.pullResult = nil
		m.pushResult = nil
		m.err = nil
		return m, m.fetchShelves()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ShelfListView:
		m.shelfList, cmd = m.shelfList.Update(msg)
	case BookListView:
		m.bookList, cmd = m.bookList.Update(msg)
	case PickerView:
		m.pickList, cmd = m.pickList.Update(msg)
	case BookFormView:
		cmd = m.form.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectedShelf() (models.Shelf, bool) {
	if item, ok := m.shelfList.SelectedItem().(shelfItem); ok {
		return item.shelf, true
	}
	return models.Shelf{}, false
}

func (m *Model) pickedBooks() []models.Book {
	if m.selected == nil {
		return nil
	}
	var picked []models.Book
	for _, book := range m.selected.Books {
		if m.picks[book.ID] {
			picked = append(picked, book)
		}
	}
	return picked
}

// applyBook writes a saved book back into the selected export, replacing by
// ID or appending a new record.
func (m *Model) applyBook(book models.Book) {
	if m.selected == nil {
		return
	}
	for i := range m.selected.Books {
		if m.selected.Books[i].ID == book.ID {
			m.selected.Books[i] = book
			return
		}
	}
	m.selected.Books = append(m.selected.Books, book)
	m.selected.Shelf.BookCount = len(m.selected.Books)
}

func (m *Model) rebuildBookList() {
	items := make([]list.Item, len(m.selected.Books))
	for i, book := range m.selected.Books {
		items[i] = bookItem{book: book}
	}
	m.bookList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.bookList.Title = fmt.Sprintf("Books on '%s'", m.selected.Shelf.Name)
	m.bookList.SetSize(m.width-4, m.height-8)
}

func (m *Model) rebuildPickList() {
	items := make([]list.Item, len(m.selected.Books))
	for i, book := range m.selected.Books {
		items[i] = pickItem{book: book, selected: m.picks[book.ID]}
	}
	m.pickList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.pickList.Title = fmt.Sprintf("Pick books from '%s'", m.selected.Shelf.Name)
	m.pickList.SetSize(m.width-4, m.height-8)
}

func (m *Model) fetchShelves() tea.Cmd {
	return func() tea.Msg {
		shelves, err := m.deps.Catalog.GetShelves(m.ctx)
		return shelvesFetchedMsg{shelves: shelves, err: err}
	}
}

func (m *Model) fetchBooks(shelfID string) tea.Cmd {
	return func() tea.Msg {
		export, err := m.deps.Catalog.ExportShelf(m.ctx, shelfID)
		return booksFetchedMsg{export: export, err: err}
	}
}

// saveBook validates the form and emits a [bookSavedMsg]. New books get an
// ID minted locally; the hosted catalog assigns its own on push.
func (m *Model) saveBook() tea.Cmd {
	book := m.form.Book()
	return func() tea.Msg {
		if book.Title == "" {
			return bookSavedMsg{err: fmt.Errorf("title is required")}
		}
		if book.ID == "" {
			book.ID = shared.GenerateID()
		}
		return bookSavedMsg{book: book}
	}
}

func (m *Model) startPull(shelfID string) tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	ch := m.progressChan

	return tea.Batch(
		func() tea.Msg {
			result, err := m.deps.Engine.Pull(m.ctx, ch, shelfID)
			close(ch)
			return pullCompleteMsg{result: result, err: err}
		},
		m.waitForProgress(),
	)
}

// startPush creates a hosted shelf carrying only the picked books.
func (m *Model) startPush(picked []models.Book) tea.Cmd {
	export := &models.ShelfExport{
		Shelf: models.Shelf{
			Name:        m.selected.Shelf.Name,
			Description: m.selected.Shelf.Description,
			Public:      m.selected.Shelf.Public,
		},
		Books: picked,
	}

	return func() tea.Msg {
		created, err := m.deps.Catalog.ImportShelf(m.ctx, export)
		if err != nil {
			return pushCompleteMsg{err: err}
		}
		return pushCompleteMsg{result: &tasks.PushResult{
			Shelf:       created,
			BooksPushed: len(picked),
		}}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		update, ok := <-ch
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

// waitForConfirm surfaces the next external confirmation request.
func (m *Model) waitForConfirm() tea.Cmd {
	return func() tea.Msg {
		req, ok := <-m.prompter.requests
		if !ok {
			return nil
		}
		return confirmRequestMsg{req: req}
	}
}

func (m *Model) renderShelfList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.pull, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.shelfList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderBookList() string {
	helpKeys := []key.Binding{m.keys.add, m.keys.edit, m.keys.push, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.bookList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderForm() string {
	title := "Add Book"
	if m.form.Book().ID != "" {
		title = "Edit Book"
	}

	saveKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save / ingest cover"))
	helpKeys := []key.Binding{saveKey, m.keys.clear, m.keys.back}
	return fmt.Sprintf("%s\n\n%s\n\n%s",
		styles.title.Render(title),
		m.form.View(),
		m.help.ShortHelpView(helpKeys),
	)
}

func (m *Model) renderPicker() string {
	helpKeys := []key.Binding{m.keys.space, m.keys.enter, m.keys.back, m.keys.quit}
	count := len(m.pickedBooks())
	status := styles.help.Render(fmt.Sprintf("%d selected", count))
	return fmt.Sprintf("%s\n%s\n\n%s", m.pickList.View(), status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(m.confirmOpts.Title)
	desc := m.confirmOpts.Description

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n\n%s", title, desc, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Pulling Shelf")
	if m.syncOp == "push" {
		title = styles.title.Render("Pushing Books")
	}

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching shelf..."
	case tasks.CacheBooks:
		phase = fmt.Sprintf("Caching books (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreateShelf:
		phase = "Creating shelf on the catalog..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to restart, q to quit", m.err))
	}

	var info string
	switch {
	case m.syncOp == "pull" && m.pullResult != nil:
		title := styles.ok.Render("✓ Pull Complete")
		info = fmt.Sprintf(
			"%s\n\nShelf: %s\nBooks cached: %d",
			title, m.pullResult.Export.Shelf.Name, m.pullResult.BooksCached,
		)
		if m.pullResult.CacheFailures > 0 {
			info += fmt.Sprintf("\n%s", styles.warn.Render(fmt.Sprintf("Cache failures: %d", m.pullResult.CacheFailures)))
		}
	case m.syncOp == "push" && m.pushResult != nil:
		title := styles.ok.Render("✓ Push Complete")
		info = fmt.Sprintf(
			"%s\n\nShelf: %s (ID: %s)\nBooks pushed: %d",
			title, m.pushResult.Shelf.Name, m.pushResult.Shelf.ID, m.pushResult.BooksPushed,
		)
	default:
		return styles.err.Render("No result available\n\nPress r to restart, q to quit")
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", info, m.help.ShortHelpView(helpKeys))
}
