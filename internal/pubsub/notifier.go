package pubsub

import "sync"

// Notifier is a synchronous subscriber registry. Callbacks carry no payload:
// a notification means "something changed, re-evaluate your derived state".
//
// Subscribers form a set keyed by an internal handle; registration order is
// not part of the contract. Notify iterates over a snapshot copy, so a
// callback may subscribe, unsubscribe or trigger another notification
// without corrupting the iteration in progress.
type Notifier struct {
	mu      sync.Mutex
	subs    map[uint64]func()
	next    uint64
	onPanic func(recovered any)
}

// NewNotifier creates an empty notifier. onPanic, if non-nil, is invoked
// when a subscriber panics during Notify; the remaining subscribers are
// still notified either way.
func NewNotifier(onPanic func(recovered any)) *Notifier {
	return &Notifier{
		subs:    make(map[uint64]func()),
		onPanic: onPanic,
	}
}

// Subscribe registers callback and returns its unsubscribe function.
// Unsubscribe is idempotent: calling it twice is a no-op, and it can never
// remove a different subscriber.
func (n *Notifier) Subscribe(callback func()) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	n.subs[id] = callback

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Notify invokes every currently registered callback synchronously. A
// panicking callback is isolated: it is recovered, reported via onPanic,
// and does not prevent the rest of the batch from running.
func (n *Notifier) Notify() {
	n.mu.Lock()
	callbacks := make([]func(), 0, len(n.subs))
	for _, cb := range n.subs {
		callbacks = append(callbacks, cb)
	}
	n.mu.Unlock()

	for _, cb := range callbacks {
		n.invoke(cb)
	}
}

func (n *Notifier) invoke(cb func()) {
	defer func() {
		if r := recover(); r != nil && n.onPanic != nil {
			n.onPanic(r)
		}
	}()
	cb()
}

// Len returns the number of registered subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
