package store

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/memo"
	"github.com/zjrosen/strand/internal/patch"
	"github.com/zjrosen/strand/internal/pubsub"
	"github.com/zjrosen/strand/internal/registry"
)

// State is the single structured value owned by one store: named fields
// holding arbitrarily nested values. Committed states are immutable; every
// mutation replaces the value wholesale.
type State = map[string]any

// Selector derives a value from state. Selectors must be pure: identical
// input yields the identical result, no side effects.
type Selector func(State) any

// Identity is the default selector.
func Identity(s State) any { return s }

// Mutator edits a draft copy of state in place. The edits are diffed
// against the original to produce the new state and its inverse patches.
type Mutator func(draft State)

// Revert best-effort-undoes a prior mutation: it applies the captured
// inverse patches to whatever the current state is at call time, merges the
// result in, and notifies. It is not an undo stack.
type Revert func()

// ChangeEvent is published on the store's broker after every commit.
type ChangeEvent struct {
	Revision uint64
	Patches  []patch.Patch
}

// Store is a reactive state container. All methods are safe for use from
// the single cooperative host goroutine, including re-entrant mutation from
// inside a notification callback.
type Store struct {
	id       string
	cache    *memo.Cache
	notifier *pubsub.Notifier
	broker   *pubsub.Broker[ChangeEvent]
	tracer   trace.Tracer
	purity   bool

	mu       sync.Mutex
	state    State
	baseline State
	revision uint64
	inNotify bool
	renotify bool
}

type options struct {
	id      string
	initial State
	tracer  trace.Tracer
	purity  bool
}

// Option configures a store at construction.
type Option func(*options)

// WithInitialState seeds the store. The seed is deep-cloned, so the caller
// keeps ownership of the value passed in.
func WithInitialState(initial State) Option {
	return func(o *options) { o.initial = initial }
}

// WithTracer records mutation and snapshot spans on the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithPurityCheck validates every bound selector by double invocation on
// each snapshot read. Intended for development builds.
func WithPurityCheck(enabled bool) Option {
	return func(o *options) { o.purity = enabled }
}

// New creates a fresh, unregistered store. Server-rendering contexts always
// construct through New, so each execution gets its own instance.
func New(opts ...Option) (*Store, error) {
	o := options{tracer: noop.NewTracerProvider().Tracer("strand")}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = registry.Token()
	}

	initial := State{}
	if o.initial != nil {
		next, _, _, err := patch.Merge(State{}, o.initial)
		if err != nil {
			return nil, err
		}
		initial = next
	}

	onPanic := func(recovered any) {
		log.Error(log.CatStore, "subscriber panicked during notification", "recovered", recovered)
	}
	s := &Store{
		id:       o.id,
		cache:    memo.New(),
		notifier: pubsub.NewNotifier(onPanic),
		broker:   pubsub.NewBroker[ChangeEvent](),
		tracer:   o.tracer,
		purity:   o.purity,
		state:    initial,
		baseline: initial,
	}
	return s, nil
}

var shared = registry.New[*Store]()

// Shared returns the store registered under id, creating it if absent.
// Re-construction with the same identifier reuses the live instance rather
// than resetting its state, which is what keeps state alive across
// hot-reload re-execution. An empty id gets a generated token (retrievable
// via ID). Options apply only when the instance is created.
func Shared(id string, opts ...Option) (*Store, error) {
	if id == "" {
		id = registry.Token()
	}

	var createErr error
	s, reused := shared.GetOrCreate(id, func() *Store {
		created, err := New(append(opts, func(o *options) { o.id = id })...)
		if err != nil {
			createErr = err
			return nil
		}
		return created
	})
	if createErr != nil {
		shared.Delete(id)
		return nil, createErr
	}
	if reused {
		log.Debug(log.CatStore, "reusing shared store", "id", id)
	}
	return s, nil
}

// Forget drops the shared registration for id. The instance itself stays
// valid for anyone still holding it.
func Forget(id string) {
	shared.Delete(id)
}

// ID returns the store's identifier (explicit or generated).
func (s *Store) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Events exposes the change-event broker for pull-based hosts.
func (s *Store) Events() *pubsub.Broker[ChangeEvent] {
	if s == nil {
		return nil
	}
	return s.broker
}

// Subscribe registers a change callback and returns its idempotent
// unsubscribe function.
func (s *Store) Subscribe(callback func()) (unsubscribe func()) {
	if s == nil || callback == nil {
		return func() {}
	}
	return s.notifier.Subscribe(callback)
}

// GetSnapshot reads the live current state through an optional selector,
// without subscribing and without memoization. Intended for imperative
// reads outside the render cycle.
func (s *Store) GetSnapshot(selector ...Selector) any {
	if s == nil {
		return nil
	}
	f := Identity
	if len(selector) > 0 && selector[0] != nil {
		f = selector[0]
	}
	return f(s.current())
}

// Mutate applies a draft-function mutation. fn receives a mutable draft of
// the current state; its edits are recorded as patches and committed as a
// new state value. The previous state is never touched. Returns the revert
// closure for the commit.
func (s *Store) Mutate(fn Mutator) (Revert, error) {
	if s == nil {
		return nil, &UsageError{Op: "mutate", Reason: "no store instance"}
	}
	if fn == nil {
		return nil, &UsageError{Op: "mutate", Reason: "nil mutation function"}
	}

	_, span := s.tracer.Start(context.Background(), "store.mutate")
	defer span.End()

	next, forward, inverse, err := patch.ApplyDraft(s.current(), fn)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("patches", len(forward)))

	s.commit(next, forward, pubsub.StateCommittedEvent)
	return s.revertClosure(inverse), nil
}

// Patch applies a partial replacement mapping: each named field is replaced
// by a deep clone of the given value, every other field is preserved.
// Returns the revert closure for the commit.
func (s *Store) Patch(partial State) (Revert, error) {
	if s == nil {
		return nil, &UsageError{Op: "patch", Reason: "no store instance"}
	}
	if partial == nil {
		return nil, &UsageError{Op: "patch", Reason: "nil partial state"}
	}

	_, span := s.tracer.Start(context.Background(), "store.patch")
	defer span.End()

	next, forward, inverse, err := patch.Merge(s.current(), partial)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("patches", len(forward)))

	s.commit(next, forward, pubsub.StateCommittedEvent)
	return s.revertClosure(inverse), nil
}

// current returns the committed state value. Committed states are immutable
// by convention, so handing out the reference is safe.
func (s *Store) current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) revertClosure(inverse []patch.Patch) Revert {
	return func() {
		_, span := s.tracer.Start(context.Background(), "store.revert")
		defer span.End()

		// Best-effort: the inverse patches are replayed against whatever
		// the state is now, not the state at mutation time. Patches whose
		// paths have since vanished are skipped.
		restored := patch.Apply(s.current(), inverse)
		s.commit(restored, inverse, pubsub.StateRevertedEvent)
	}
}

// commit installs the new state, publishes the change event, and runs a
// notification pass. No subscriber ever observes a half-applied mutation:
// the state swap completes before the first callback fires.
func (s *Store) commit(next State, applied []patch.Patch, event pubsub.EventType) {
	s.mu.Lock()
	s.state = next
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	log.Debug(log.CatStore, "committed", "id", s.id, "revision", rev, "patches", len(applied))
	s.broker.Publish(event, ChangeEvent{Revision: rev, Patches: applied})
	s.notifyAll()
}

// notifyAll runs notification passes until no re-entrant mutation arrives.
// A mutation triggered from inside a callback commits immediately but its
// pass is deferred until the in-flight pass completes, so passes are never
// nested, missed, or duplicated.
func (s *Store) notifyAll() {
	s.mu.Lock()
	if s.inNotify {
		s.renotify = true
		s.mu.Unlock()
		return
	}
	s.inNotify = true
	s.mu.Unlock()

	for {
		s.notifier.Notify()

		s.mu.Lock()
		if !s.renotify {
			s.inNotify = false
			s.mu.Unlock()
			return
		}
		s.renotify = false
		s.mu.Unlock()
	}
}
