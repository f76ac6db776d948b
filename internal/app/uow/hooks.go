package uow

import (
	"context"
	"sync"
)

// Hooks collects callbacks that must wait until the owning unit of work is
// settled. Whoever begins the unit owns the Hooks and calls Settle exactly once.
type Hooks struct {
	mu        sync.Mutex
	settled   bool
	committed []func(context.Context)
	aborted   []func(context.Context)
}

type hooksKey struct{}

// ContextWithHooks attaches a fresh Hooks to ctx.
func ContextWithHooks(ctx context.Context) (context.Context, *Hooks) {
	h := &Hooks{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

func hooksFrom(ctx context.Context) (*Hooks, bool) {
	h, ok := ctx.Value(hooksKey{}).(*Hooks)
	return h, ok && h != nil
}

// AfterCommit defers fn until the unit in ctx commits. Without hooks in ctx
// there is nobody to wait for, so fn runs immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if h, ok := hooksFrom(ctx); ok && h.add(fn, true) {
		return
	}
	fn(ctx)
}

// AfterRollback defers fn until the unit in ctx rolls back or fails to
// commit. It reports false when ctx carries no hooks; the caller then has to
// compensate on its own error path.
func AfterRollback(ctx context.Context, fn func(context.Context)) bool {
	h, ok := hooksFrom(ctx)
	if !ok {
		return false
	}
	return h.add(fn, false)
}

func (h *Hooks) add(fn func(context.Context), onCommit bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settled {
		return false
	}
	if onCommit {
		h.committed = append(h.committed, fn)
	} else {
		h.aborted = append(h.aborted, fn)
	}
	return true
}

// Settle runs the callbacks matching the outcome, in registration order.
// Later calls are no-ops.
func (h *Hooks) Settle(ctx context.Context, committed bool) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.settled {
		h.mu.Unlock()
		return
	}
	h.settled = true
	run := h.aborted
	if committed {
		run = h.committed
	}
	h.committed, h.aborted = nil, nil
	h.mu.Unlock()
	for _, fn := range run {
		fn(ctx)
	}
}
