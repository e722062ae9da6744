// Package notify defines the user-facing notification and confirmation
// capabilities as explicit interfaces, passed to the components that need
// them instead of being discovered through a global event channel.
package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Notifier delivers transient notifications to the user.
type Notifier interface {
	NotifySuccess(msg string)
	NotifyError(msg string)
	NotifyWarning(msg string)
}

// Confirmer asks the user a yes/no question and reports the answer.
type Confirmer interface {
	Confirm(ctx context.Context, opts Options) (bool, error)
}

// Options describe a single confirmation prompt.
type Options struct {
	Title       string
	Description string
	Default     bool // answer used when the user just presses enter
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
)

// Terminal implements [Notifier] and [Confirmer] against a plain terminal.
type Terminal struct {
	out io.Writer
	in  *bufio.Reader
}

// NewTerminal creates a [Terminal] writing prompts and notifications to out
// and reading confirmation answers from in.
func NewTerminal(out io.Writer, in io.Reader) *Terminal {
	return &Terminal{out: out, in: bufio.NewReader(in)}
}

func (t *Terminal) NotifySuccess(msg string) {
	fmt.Fprintf(t.out, "%s %s\n", okStyle.Render("✓"), msg)
}

func (t *Terminal) NotifyError(msg string) {
	fmt.Fprintf(t.out, "%s %s\n", errStyle.Render("✗"), msg)
}

func (t *Terminal) NotifyWarning(msg string) {
	fmt.Fprintf(t.out, "%s %s\n", warnStyle.Render("!"), msg)
}

// Confirm prints the prompt and reads one line. Empty input selects
// opts.Default; only "y"/"yes" (any case) answers true otherwise. The read
// is abandoned when ctx is canceled.
func (t *Terminal) Confirm(ctx context.Context, opts Options) (bool, error) {
	hint := "[y/N]"
	if opts.Default {
		hint = "[Y/n]"
	}

	if opts.Description != "" {
		fmt.Fprintf(t.out, "%s\n", hintStyle.Render(opts.Description))
	}
	fmt.Fprintf(t.out, "%s %s ", opts.Title, hintStyle.Render(hint))

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		if err != nil && line == "" {
			errs <- err
			return
		}
		lines <- line
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return false, ctx.Err()
	case err := <-errs:
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	case line := <-lines:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return opts.Default, nil
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// Nop discards notifications and answers every confirmation with a fixed
// value. Useful for non-interactive runs and tests.
type Nop struct {
	Answer bool
}

func (Nop) NotifySuccess(string) {}
func (Nop) NotifyError(string)   {}
func (Nop) NotifyWarning(string) {}

func (n Nop) Confirm(context.Context, Options) (bool, error) {
	return n.Answer, nil
}
