package store

import (
	"sync"

	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/memo"
)

// Cache leaf slots within a binding's sub-path.
const (
	slotSnapshot = "snapshot"
	slotServer   = "server"
	slotPurity   = "purity"
)

// Binding ties a selector to one store for one consumer. It implements the
// pull-based external-store protocol the host scheduler expects: register a
// change callback, synchronously return the current derived value, and
// supply a pre-hydration fallback.
//
// Each binding owns a unique cache sub-path, so independently instantiated
// consumers never collide. Close releases the sub-path; a binding must be
// closed when its consumer stops observing, or the cache grows for the
// lifetime of the store.
type Binding struct {
	store    *Store
	selector Selector
	uid      string

	mu     sync.Mutex
	unsubs map[uint64]func()
	next   uint64
	closed bool
}

// Bind creates a memoized view of the store through selector (Identity
// when nil).
func (s *Store) Bind(selector Selector) *Binding {
	if s == nil {
		return nil
	}
	if selector == nil {
		selector = Identity
	}
	return &Binding{
		store:    s,
		selector: selector,
		uid:      memo.UID(),
		unsubs:   make(map[uint64]func()),
	}
}

// Subscribe registers a change callback with the store and returns its
// unsubscribe function. Unsubscribe is idempotent. Close detaches any
// subscriptions still held.
func (b *Binding) Subscribe(callback func()) (unsubscribe func()) {
	if b == nil || callback == nil {
		return func() {}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	id := b.next
	b.next++
	unsub := b.store.Subscribe(callback)
	b.unsubs[id] = unsub
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.unsubs, id)
		b.mu.Unlock()
		unsub()
	}
}

// GetSnapshot recomputes the derived value from the current state and
// passes it through the cache: when the recomputation is structurally equal
// to the previous one, the previous reference is returned, so downstream
// equality checks see no change. When purity checking is enabled the
// selector is validated by double invocation first.
func (b *Binding) GetSnapshot() (any, error) {
	if b == nil {
		return nil, &UsageError{Op: "snapshot", Reason: "no binding"}
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, &UsageError{Op: "snapshot", Reason: "binding closed"}
	}

	state := b.store.current()
	if b.store.purity {
		if err := validateSelector(state, b.selector, b.store.cache, slotPurity, b.uid); err != nil {
			return nil, err
		}
	}

	value := b.selector(state)
	return b.store.cache.Store(value, slotSnapshot, b.uid), nil
}

// GetServerSnapshot derives the value from the pre-hydration baseline
// state, for server-rendering contexts that have no live instance yet.
func (b *Binding) GetServerSnapshot() (any, error) {
	if b == nil {
		return nil, &UsageError{Op: "server-snapshot", Reason: "no binding"}
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, &UsageError{Op: "server-snapshot", Reason: "binding closed"}
	}

	b.store.mu.Lock()
	baseline := b.store.baseline
	b.store.mu.Unlock()

	value := b.selector(baseline)
	return b.store.cache.Store(value, slotServer, b.uid), nil
}

// Close tears the binding down: detaches its subscriptions and clears its
// cache sub-path. Idempotent.
func (b *Binding) Close() {
	if b == nil {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	unsubs := make([]func(), 0, len(b.unsubs))
	for _, unsub := range b.unsubs {
		unsubs = append(unsubs, unsub)
	}
	b.unsubs = nil
	b.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	b.store.cache.Clear(b.uid)
	log.Debug(log.CatStore, "binding closed", "uid", b.uid)
}
