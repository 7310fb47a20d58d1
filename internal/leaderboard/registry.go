package leaderboard

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry is the set of subscribed listeners for one event category.
// Membership is by identity: subscribing the same callback twice
// creates two memberships, each with its own unsubscribe.
type Registry[T any] struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id uuid.UUID
	fn func(T)
}

// NewRegistry creates an empty registry.
func NewRegistry[T any](logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[T]{logger: logger}
}

// Subscribe adds a callback and returns a closure that removes exactly
// this membership. Calling the closure more than once is a no-op.
func (r *Registry[T]) Subscribe(fn func(T)) func() {
	id := uuid.New()

	r.mu.Lock()
	r.subs = append(r.subs, subscriber[T]{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify invokes every currently-registered callback with the payload.
// Iteration runs over a snapshot, so a callback may subscribe or
// unsubscribe reentrantly. A panicking callback is logged and does not
// stop delivery to the rest.
func (r *Registry[T]) Notify(payload T) {
	r.mu.Lock()
	snapshot := make([]subscriber[T], len(r.subs))
	copy(snapshot, r.subs)
	r.mu.Unlock()

	for _, s := range snapshot {
		r.invoke(s, payload)
	}
}

func (r *Registry[T]) invoke(s subscriber[T], payload T) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("listener panicked", "listener", s.id, "panic", rec)
		}
	}()
	s.fn(payload)
}

// Clear drops every membership. Previously returned unsubscribe
// closures become inert.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	r.subs = nil
	r.mu.Unlock()
}

// Len returns the number of current memberships.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
