package build

import (
	"context"
	"log/slog"
)

// TriggerType records why a rebuild was requested.
type TriggerType string

const (
	TriggerInitial   TriggerType = "initial"   // First build when a loop starts
	TriggerWatch     TriggerType = "watch"     // Source change detected
	TriggerScheduled TriggerType = "scheduled" // Timer or cron fired
)

// Runner serializes rebuild requests: one build runs at a time and at most
// one more is queued. Requests arriving while one is already queued are
// coalesced into it.
type Runner struct {
	build   func(ctx context.Context, trigger TriggerType)
	pending chan TriggerType
}

// NewRunner returns a Runner that calls build for each accepted request.
func NewRunner(build func(ctx context.Context, trigger TriggerType)) *Runner {
	return &Runner{build: build, pending: make(chan TriggerType, 1)}
}

// Trigger queues a rebuild without blocking. It reports false when the
// request was coalesced into one already queued.
func (r *Runner) Trigger(t TriggerType) bool {
	select {
	case r.pending <- t:
		return true
	default:
		slog.Debug("Rebuild already queued", slog.String("trigger", string(t)))
		return false
	}
}

// Run executes queued builds until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-r.pending:
			r.build(ctx, t)
		}
	}
}
