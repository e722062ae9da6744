package ui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Kenpir/library-recommendation-system/internal/ingest"
	"github.com/Kenpir/library-recommendation-system/internal/models"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
)

// Field indices within the book form.
const (
	fieldTitle = iota
	fieldAuthor
	fieldISBN
	fieldPages
	fieldCoverPath
	fieldCount
)

// CoverForm is the book metadata form with the cover upload widget. The
// widget wraps an [ingest.Ingestor]: the path input plays the file picker,
// and the ingestor's session state (file metadata, inline error, destroyed
// flag) renders next to it.
//
// The form owns the current cover value the way the surrounding form owns it
// in the ingestor's contract: the ingestor only hands values through its
// sink, and a rejected file never replaces a previously accepted value.
type CoverForm struct {
	inputs [fieldCount]textinput.Model
	focus  int

	ingestor *ingest.Ingestor
	dropDir  string

	mu      sync.Mutex
	pending *string // last sink emission since takeEmission

	value string // current cover data URI, externally owned
	book  models.Book
}

// NewCoverForm creates the form with an ingestor configured from cfg.
// dropDir is shown as the drag-and-drop hint when set.
func NewCoverForm(cfg ingest.Config, dropDir string, logger *log.Logger) *CoverForm {
	f := &CoverForm{dropDir: dropDir}
	f.ingestor = ingest.New(cfg, f.sink, logger)

	labels := [fieldCount]string{"Title", "Author", "ISBN", "Pages", "Cover file"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = labels[i]
		ti.CharLimit = 256
		ti.Width = 48
		f.inputs[i] = ti
	}
	return f
}

// sink receives emissions from the ingestor. It only records the value; the
// Update loop applies it when the ingestion command completes.
func (f *CoverForm) sink(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := value
	f.pending = &v
}

// takeEmission returns the last sink emission, if any, and clears it.
func (f *CoverForm) takeEmission() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return "", false
	}
	v := *f.pending
	f.pending = nil
	return v, true
}

// Open starts a form session for book (zero value for a new book). The
// ingestor session resets under a fresh token, which also clears a destroyed
// flag left by a previous Close.
func (f *CoverForm) Open(book models.Book) {
	f.book = book
	f.value = book.CoverImage

	f.inputs[fieldTitle].SetValue(book.Title)
	f.inputs[fieldAuthor].SetValue(book.Author)
	f.inputs[fieldISBN].SetValue(book.ISBN)
	if book.Pages > 0 {
		f.inputs[fieldPages].SetValue(strconv.Itoa(book.Pages))
	} else {
		f.inputs[fieldPages].SetValue("")
	}
	f.inputs[fieldCoverPath].SetValue("")

	f.ingestor.ResetSession(shared.GenerateID())
	f.takeEmission()
	f.setFocus(fieldTitle)
}

// Close destroys the ingestor session; selection becomes a no-op until the
// next Open.
func (f *CoverForm) Close() {
	f.ingestor.Destroy()
	f.takeEmission()
}

// Ingest returns a command that runs the cover ingestion for the path
// currently typed into the cover field. The encode runs off the Update
// loop; the resulting [coverChangedMsg] carries the emission, which the
// Update loop applies via [CoverForm.ApplyCover]. The command must not
// touch f.value: the Update goroutine owns it.
func (f *CoverForm) Ingest() tea.Cmd {
	path := strings.TrimSpace(f.inputs[fieldCoverPath].Value())
	if path == "" {
		return nil
	}

	return func() tea.Msg {
		err := f.ingestor.SelectFile(path)
		value, ok := f.takeEmission()
		return coverChangedMsg{value: value, emitted: ok, err: err}
	}
}

// ClearCover emits the empty value. The emission is captured before the
// command is built so the closure carries plain data, never form state.
func (f *CoverForm) ClearCover() tea.Cmd {
	f.ingestor.Clear()
	value, ok := f.takeEmission()
	return func() tea.Msg {
		return coverChangedMsg{value: value, emitted: ok}
	}
}

// ApplyCover records an emitted cover value as the form's current one. Runs
// on the Update goroutine when a [coverChangedMsg] arrives.
func (f *CoverForm) ApplyCover(value string) {
	f.value = value
}

// Book collects the form fields into a [models.Book], keeping the original
// identity and the current cover value.
func (f *CoverForm) Book() models.Book {
	book := f.book
	book.Title = strings.TrimSpace(f.inputs[fieldTitle].Value())
	book.Author = strings.TrimSpace(f.inputs[fieldAuthor].Value())
	book.ISBN = strings.TrimSpace(f.inputs[fieldISBN].Value())
	book.CoverImage = f.value

	if pages, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldPages].Value())); err == nil {
		book.Pages = pages
	} else {
		book.Pages = 0
	}
	return book
}

func (f *CoverForm) setFocus(i int) {
	f.focus = i
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// CycleFocus moves focus forward (or back) through the fields.
func (f *CoverForm) CycleFocus(back bool) {
	next := f.focus + 1
	if back {
		next = f.focus - 1
	}
	f.setFocus(((next % fieldCount) + fieldCount) % fieldCount)
}

// OnCoverField reports whether the cover path field has focus, which is when
// enter triggers ingestion instead of a save.
func (f *CoverForm) OnCoverField() bool {
	return f.focus == fieldCoverPath
}

// Update forwards msg to the focused input.
func (f *CoverForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// View renders the form fields and the cover widget status line.
func (f *CoverForm) View() string {
	var b strings.Builder

	for i := range f.inputs {
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case f.ingestor.Destroyed():
		b.WriteString(styles.help.Render("cover widget closed"))
	case f.ingestor.LastError() != "":
		b.WriteString(styles.err.Render(f.ingestor.LastError()))
	case f.ingestor.Meta() != nil:
		meta := f.ingestor.Meta()
		b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %s (%s)", meta.Name, shared.FormatByteSize(meta.SizeBytes))))
	case f.value != "":
		b.WriteString(styles.help.Render(fmt.Sprintf("cover set (%s)", shared.FormatByteSize(int64(len(f.value))))))
	default:
		b.WriteString(styles.help.Render("no cover"))
	}
	b.WriteString("\n")

	if f.dropDir != "" {
		hint := fmt.Sprintf("drop an image into %s", f.dropDir)
		if f.ingestor.DragActive() {
			b.WriteString(styles.drop.Render(hint))
		} else {
			b.WriteString(styles.help.Render(hint))
		}
	}

	return b.String()
}
