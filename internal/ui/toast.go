package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Kenpir/library-recommendation-system/internal/notify"
)

// toastTTL is how long a toast stays on screen.
const toastTTL = 4 * time.Second

type toastLevel int

const (
	toastSuccess toastLevel = iota
	toastError
	toastWarning
)

type toast struct {
	level     toastLevel
	text      string
	expiresAt time.Time
}

// Toasts is a transient notification overlay. It implements
// [notify.Notifier] so components outside the Update loop can post
// notifications; the model prunes and renders them on each tick.
type Toasts struct {
	mu    sync.Mutex
	items []toast
}

var _ notify.Notifier = (*Toasts)(nil)

func (t *Toasts) NotifySuccess(msg string) { t.push(toastSuccess, msg) }
func (t *Toasts) NotifyError(msg string)   { t.push(toastError, msg) }
func (t *Toasts) NotifyWarning(msg string) { t.push(toastWarning, msg) }

func (t *Toasts) push(level toastLevel, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, toast{
		level:     level,
		text:      text,
		expiresAt: time.Now().Add(toastTTL),
	})
}

// Active reports whether any toast is still live, pruning expired ones.
func (t *Toasts) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	live := t.items[:0]
	for _, item := range t.items {
		if item.expiresAt.After(now) {
			live = append(live, item)
		}
	}
	t.items = live
	return len(t.items) > 0
}

// View renders the live toasts, newest last.
func (t *Toasts) View() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.items) == 0 {
		return ""
	}

	var b strings.Builder
	for _, item := range t.items {
		switch item.level {
		case toastSuccess:
			fmt.Fprintf(&b, "%s %s\n", styles.ok.Render("✓"), item.text)
		case toastError:
			fmt.Fprintf(&b, "%s %s\n", styles.err.Render("✗"), item.text)
		case toastWarning:
			fmt.Fprintf(&b, "%s %s\n", styles.warn.Render("!"), item.text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
