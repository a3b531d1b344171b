package persisted

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-persisted/internal/clone"
)

// Property holds a value and notifies subscribers of every new value.
//
// Notifications are delivered synchronously on the goroutine that called Set
// or Update, in subscription order, and one emission completes before the
// next begins. Subscribers receive deep copies and must not call Set or
// Update on the same property from inside the callback, nor Set, Update or
// Clear on the Binding that owns it: emissions are serialized and the call
// would block forever. Cancelling a subscription from the callback is fine.
type Property[V any] struct {
	emitMu sync.Mutex

	mu     sync.RWMutex
	value V
	subs  []subscriber[V]
}

type subscriber[V any] struct {
	sub *Subscription
	fn  func(V)
}

// Subscription links a callback to a Property until cancelled.
type Subscription struct {
	active atomic.Bool
	cancel func(*Subscription)
}

// NewProperty returns a property holding initial. No notification is sent
// for the initial value.
func NewProperty[V any](initial V) *Property[V] {
	return &Property[V]{value: cloneValue(initial)}
}

// Get returns a copy of the current value.
func (p *Property[V]) Get() V {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneValue(p.value)
}

// Set replaces the value and notifies subscribers.
func (p *Property[V]) Set(value V) {
	p.set(value, nil)
}

// Update replaces the value with fn(current) and notifies subscribers. The
// read and the replace are atomic with respect to other Set and Update calls.
func (p *Property[V]) Update(fn func(V) V) {
	if fn == nil {
		return
	}
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	next := fn(p.Get())
	p.store(next)
	p.notify(next, nil)
}

// Subscribe registers fn for every value set after this call.
func (p *Property[V]) Subscribe(fn func(V)) *Subscription {
	sub := &Subscription{cancel: p.remove}
	sub.active.Store(true)
	if fn == nil {
		fn = func(V) {}
	}

	p.mu.Lock()
	p.subs = append(p.subs, subscriber[V]{sub: sub, fn: fn})
	p.mu.Unlock()
	return sub
}

// Subscribers returns the number of active subscriptions.
func (p *Property[V]) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// set stores value and notifies every subscriber except skip.
func (p *Property[V]) set(value V, skip *Subscription) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	p.store(value)
	p.notify(value, skip)
}

func (p *Property[V]) store(value V) {
	p.mu.Lock()
	p.value = cloneValue(value)
	p.mu.Unlock()
}

func (p *Property[V]) notify(value V, skip *Subscription) {
	p.mu.RLock()
	subs := slices.Clone(p.subs)
	p.mu.RUnlock()

	for _, s := range subs {
		if s.sub == skip || !s.sub.active.Load() {
			continue
		}
		s.fn(cloneValue(value))
	}
}

func (p *Property[V]) remove(sub *Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = slices.DeleteFunc(p.subs, func(s subscriber[V]) bool { return s.sub == sub })
}

// Cancel stops further notifications. It is safe to call more than once and
// from inside the callback.
func (s *Subscription) Cancel() {
	if s == nil || !s.active.CompareAndSwap(true, false) {
		return
	}
	if s.cancel != nil {
		s.cancel(s)
	}
}

// Active reports whether the subscription still receives notifications.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

func cloneValue[V any](value V) V {
	return clone.Value(value)
}
