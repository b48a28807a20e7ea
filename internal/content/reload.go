package content

import (
	"context"
	"log/slog"
)

// Reloader funnels reload requests from background goroutines (the tree
// watcher) to the main thread. Request may be called from anywhere; Drain
// must be called on the thread that owns the registry, between resolves.
type Reloader struct {
	loader  *Loader
	target  Target
	log     *slog.Logger
	pending chan string
}

func NewReloader(loader *Loader, target Target) *Reloader {
	return &Reloader{
		loader:  loader,
		target:  target,
		log:     loader.log,
		pending: make(chan string, 1),
	}
}

// Request schedules a reload. Requests coalesce until the next Drain.
func (r *Reloader) Request(reason string) {
	select {
	case r.pending <- reason:
	default:
	}
}

// Drain runs the pending reload, if any. It reports whether a reload ran.
func (r *Reloader) Drain(ctx context.Context) (Report, bool, error) {
	select {
	case reason := <-r.pending:
		r.log.Info("content: reloading", "reason", reason)
		rep, err := r.loader.Load(ctx, r.target)
		return rep, true, err
	default:
		return Report{}, false, nil
	}
}
