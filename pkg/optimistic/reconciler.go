// Package optimistic reconciles locally applied updates with server outcomes.
//
// A client applies a change to its own view immediately, submits it to the
// server, and later learns whether the server accepted it. The Reconciler
// keeps the confirmed value and the pending updates apart so the view can
// show the optimistic state while a rejection rolls back cleanly.
package optimistic

import (
	"sync"
	"time"
)

// Token identifies one submitted update within its reconciler.
type Token uint64

// pendingUpdate is one in-flight change awaiting a server verdict.
type pendingUpdate[V any] struct {
	token    Token
	value    V
	submitAt time.Time
}

// Reconciler tracks confirmed values and in-flight optimistic updates per key.
// All methods are safe for concurrent use.
type Reconciler[K comparable, V any] struct {
	mu        sync.Mutex
	confirmed map[K]V
	pending   map[K][]pendingUpdate[V]
	nextToken Token
	ttl       time.Duration

	now func() time.Time
}

// New creates a reconciler. Pending updates older than ttl are dropped by
// Expire; a zero ttl means pending updates never expire.
func New[K comparable, V any](ttl time.Duration) *Reconciler[K, V] {
	return &Reconciler[K, V]{
		confirmed: make(map[K]V),
		pending:   make(map[K][]pendingUpdate[V]),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Submit records an optimistic update for the key and returns its token.
// Updates per key keep submission order, so the newest one wins the view.
func (r *Reconciler[K, V]) Submit(key K, value V) Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextToken++
	token := r.nextToken
	r.pending[key] = append(r.pending[key], pendingUpdate[V]{
		token:    token,
		value:    value,
		submitAt: r.now(),
	})
	return token
}

// Confirm resolves a pending update as accepted: its value becomes the
// confirmed state and the pending entry is dropped. Unknown tokens are a
// no-op so late or duplicate confirmations are harmless.
func (r *Reconciler[K, V]) Confirm(key K, token Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.pending[key]
	for i, p := range queue {
		if p.token == token {
			r.confirmed[key] = p.value
			r.pending[key] = removeAt(queue, i)
			return
		}
	}
}

// Reject drops a pending update without touching the confirmed state: the
// view rolls back to the confirmed value or to a later pending update.
// Reports whether the token was found.
func (r *Reconciler[K, V]) Reject(key K, token Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.pending[key]
	for i, p := range queue {
		if p.token == token {
			r.pending[key] = removeAt(queue, i)
			return true
		}
	}
	return false
}

// Apply sets the confirmed value from an authoritative server event. The
// server is the source of truth, so any pending updates for the key are
// superseded and dropped.
func (r *Reconciler[K, V]) Apply(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.confirmed[key] = value
	delete(r.pending, key)
}

// View returns the value the client should display: the newest pending
// update when one is in flight, otherwise the confirmed value.
func (r *Reconciler[K, V]) View(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if queue := r.pending[key]; len(queue) > 0 {
		return queue[len(queue)-1].value, true
	}
	value, ok := r.confirmed[key]
	return value, ok
}

// PendingCount reports the number of in-flight updates for the key.
func (r *Reconciler[K, V]) PendingCount(key K) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending[key])
}

// Expire drops pending updates older than the ttl and returns how many were
// dropped. A stuck update then rolls back the same way a rejection would.
func (r *Reconciler[K, V]) Expire() int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	expired := 0
	for key, queue := range r.pending {
		kept := queue[:0]
		for _, p := range queue {
			if p.submitAt.Before(cutoff) {
				expired++
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(r.pending, key)
		} else {
			r.pending[key] = kept
		}
	}
	return expired
}

// removeAt removes the element at index i preserving order.
func removeAt[V any](queue []pendingUpdate[V], i int) []pendingUpdate[V] {
	return append(queue[:i], queue[i+1:]...)
}
