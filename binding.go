package persisted

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Binding connects one Property to one store key. It is created bound:
// the stored value (or the fallback) seeds the property and every later
// value is written back until Close is called.
type Binding[V any] struct {
	id     string
	cfg    Configuration[V]
	ctx    context.Context
	prop   *Property[V]
	sub    *Subscription
	closed atomic.Bool
}

type bindingIDKey struct{}

// Bind reads the current value for cfg.Key, seeds a new Property with it and
// subscribes the property to cfg.Write. The seed itself is not written back.
//
// ctx is used for the initial read. Later writes use a context that keeps
// ctx's values but not its cancellation.
func Bind[V any](ctx context.Context, cfg Configuration[V]) *Binding[V] {
	if ctx == nil {
		ctx = context.Background()
	}
	b := &Binding[V]{
		id:  uuid.NewString(),
		cfg: cfg.resolved(),
	}
	b.ctx = context.WithValue(context.WithoutCancel(ctx), bindingIDKey{}, b.id)

	seed := b.cfg.Read(context.WithValue(ctx, bindingIDKey{}, b.id))
	b.prop = NewProperty(seed)
	b.sub = b.prop.Subscribe(func(value V) {
		b.cfg.Write(b.ctx, &value)
	})

	b.cfg.Logger.Debug().Str("key", b.cfg.Key).Str("binding_id", b.id).Msg("binding created")
	return b
}

// ForKey binds key using Default(key, initial, opts...).
func ForKey[V any](ctx context.Context, key string, initial V, opts ...Option[V]) *Binding[V] {
	return Bind(ctx, Default(key, initial, opts...))
}

// ID returns a unique identifier attached to the change events of this
// binding.
func (b *Binding[V]) ID() string {
	return b.id
}

// Key returns the store key the binding persists to.
func (b *Binding[V]) Key() string {
	return b.cfg.Key
}

// Configuration returns the resolved configuration of the binding.
func (b *Binding[V]) Configuration() Configuration[V] {
	return b.cfg
}

// Property returns the bound property. Values set on it are persisted while
// the binding is open.
func (b *Binding[V]) Property() *Property[V] {
	return b.prop
}

// Get returns the current value.
func (b *Binding[V]) Get() V {
	return b.prop.Get()
}

// Set replaces the value and persists it.
func (b *Binding[V]) Set(value V) {
	b.prop.Set(value)
}

// Update replaces the value with fn(current) and persists it.
func (b *Binding[V]) Update(fn func(V) V) {
	b.prop.Update(fn)
}

// Subscribe registers fn for every later value.
func (b *Binding[V]) Subscribe(fn func(V)) *Subscription {
	return b.prop.Subscribe(fn)
}

// Clear removes the stored record and resets the property to the value
// OnReadError produces for ErrNoValue. The reset value is not written back.
// When the store fails to delete the record the failure goes to
// OnWriteError and the property keeps its value, so memory and store still
// agree. On a closed binding only the property is reset.
//
// Like Set, Clear must not be called from a subscriber of this binding.
func (b *Binding[V]) Clear() {
	if !b.closed.Load() {
		if err := b.cfg.write(b.ctx, nil); err != nil {
			b.cfg.writeFailed(err)
			if IsStoreError(err) {
				return
			}
		}
	}
	b.prop.set(b.cfg.fallback(b.ctx, ErrNoValue), b.sub)
}

// Close stops persisting the property. The property keeps working in memory.
// Close does not close the store. It is safe to call more than once.
func (b *Binding[V]) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.sub.Cancel()
	b.cfg.Logger.Debug().Str("key", b.cfg.Key).Str("binding_id", b.id).Msg("binding closed")
	return nil
}

// Closed reports whether Close has been called.
func (b *Binding[V]) Closed() bool {
	return b.closed.Load()
}

func bindingIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(bindingIDKey{}).(string)
	return id
}
