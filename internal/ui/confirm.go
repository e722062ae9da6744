package ui

import (
	"context"
	"fmt"

	"github.com/Kenpir/library-recommendation-system/internal/notify"
)

// confirmRequest pairs a prompt with the channel its answer travels back on.
// answer is buffered so the Update loop never blocks on a caller that gave
// up waiting.
type confirmRequest struct {
	opts   notify.Options
	answer chan bool
}

// Prompter implements [notify.Confirmer] by routing prompts through the
// TUI's confirm view. Confirm blocks the calling goroutine until the user
// answers or ctx is done; it must not be called from the Update loop itself.
type Prompter struct {
	requests chan confirmRequest
}

var _ notify.Confirmer = (*Prompter)(nil)

func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan confirmRequest)}
}

// Confirm submits the prompt and waits for the user's answer.
func (p *Prompter) Confirm(ctx context.Context, opts notify.Options) (bool, error) {
	req := confirmRequest{opts: opts, answer: make(chan bool, 1)}

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return false, fmt.Errorf("confirmation abandoned: %w", ctx.Err())
	}

	select {
	case answer := <-req.answer:
		return answer, nil
	case <-ctx.Done():
		return false, fmt.Errorf("confirmation abandoned: %w", ctx.Err())
	}
}

// reply records the answer without blocking; a second reply is a no-op
// because the channel is buffered with capacity one and never drained twice.
func (r confirmRequest) reply(answer bool) {
	select {
	case r.answer <- answer:
	default:
	}
}
