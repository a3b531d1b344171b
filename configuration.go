package persisted

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-persisted/codec"
	xlog "github.com/goliatone/go-persisted/internal/log"
	"github.com/goliatone/go-persisted/pkg/activity"
	"github.com/goliatone/go-persisted/rules"
	"github.com/goliatone/go-persisted/store"
	"github.com/rs/zerolog"
)

// Configuration describes how one value of type V is persisted under Key.
//
// OnReadError must always return a value: it is the only way a read recovers
// from a missing or unusable record. OnWriteError is informational; the
// failed write is dropped either way.
type Configuration[V any] struct {
	Key   string
	Store store.Store
	Codec codec.Codec[V]

	OnReadError  func(error) V
	OnWriteError func(error)

	// Rules run after every decode and before every write. A rejected value
	// is treated like a decode failure on read and dropped on write.
	Rules []*rules.Rule

	// Hooks receive preference.updated, preference.cleared and
	// preference.fallback events. Activity supplies the channel and
	// identity fields applied to those events.
	Hooks    activity.Hooks
	Activity activity.Config

	// Timeout bounds each store call when positive.
	Timeout time.Duration

	// Logger is used by the default error callbacks. The zero Logger is
	// silent.
	Logger zerolog.Logger
}

// Option mutates a Configuration under construction.
type Option[V any] func(*Configuration[V])

// New returns a Configuration for key. Unset fields are filled in at use:
// the process default store, the JSON codec, a read fallback returning the
// zero value and a write callback that logs.
func New[V any](key string, opts ...Option[V]) Configuration[V] {
	cfg := Configuration[V]{
		Key:    key,
		Logger: xlog.WithComponent("persisted"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Default returns a Configuration for key whose read fallback is initial.
// Absence of a record is silent; any other read failure is logged before
// initial is returned. Write failures are logged.
func Default[V any](key string, initial V, opts ...Option[V]) Configuration[V] {
	cfg := New[V](key, opts...)
	logger := cfg.Logger
	if cfg.OnReadError == nil {
		cfg.OnReadError = func(err error) V {
			if !errors.Is(err, ErrNoValue) {
				logger.Error().Err(err).Str("key", key).Str("event", "read_fallback").Msg("using fallback value")
			}
			return cloneValue(initial)
		}
	}
	if cfg.OnWriteError == nil {
		cfg.OnWriteError = logWriteError(logger, key)
	}
	return cfg
}

// WithStore sets the store records are kept in.
func WithStore[V any](s store.Store) Option[V] {
	return func(cfg *Configuration[V]) {
		cfg.Store = s
	}
}

// WithCodec sets the codec used for the stored record.
func WithCodec[V any](c codec.Codec[V]) Option[V] {
	return func(cfg *Configuration[V]) {
		cfg.Codec = c
	}
}

// WithOnReadError sets the read fallback. fn must not be nil in practice;
// a nil fn restores the zero-value fallback.
func WithOnReadError[V any](fn func(error) V) Option[V] {
	return func(cfg *Configuration[V]) {
		cfg.OnReadError = fn
	}
}

// WithOnWriteError sets the write failure callback.
func WithOnWriteError[V any](fn func(error)) Option[V] {
	return func(cfg *Configuration[V]) {
		cfg.OnWriteError = fn
	}
}

// WithLogger sets the logger used by the default callbacks.
func WithLogger[V any](logger zerolog.Logger) Option[V] {
	return func(cfg *Configuration[V]) {
		cfg.Logger = logger
	}
}

// SetLogger replaces the process-wide logger used by configurations created
// without WithLogger and returns the previous one. Existing configurations
// keep the logger they were built with.
func SetLogger(logger zerolog.Logger) zerolog.Logger {
	previous := xlog.Base()
	xlog.SetBase(logger)
	return previous
}

// WithRule appends a validation rule.
func WithRule[V any](rule *rules.Rule) Option[V] {
	return func(cfg *Configuration[V]) {
		if rule != nil {
			cfg.Rules = append(cfg.Rules, rule)
		}
	}
}

// WithActivityHooks attaches change hooks. Nil entries are dropped and the
// slice is copied so later changes by the caller have no effect.
func WithActivityHooks[V any](hooks activity.Hooks, defaults ...activity.Config) Option[V] {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *Configuration[V]) {
		cfg.Hooks = normalized
		if len(defaults) > 0 {
			cfg.Activity = defaults[len(defaults)-1]
		}
	}
}

// WithTimeout bounds every store call made for the configuration.
func WithTimeout[V any](timeout time.Duration) Option[V] {
	return func(cfg *Configuration[V]) {
		cfg.Timeout = timeout
	}
}

// Read returns the stored value, or the result of OnReadError when the
// record is missing (ErrNoValue), cannot be decoded (*CodecError), the
// store fails (*StoreError) or the decoded value is rejected by validation.
func (c Configuration[V]) Read(ctx context.Context) V {
	value, err := c.load(ctx)
	if err != nil {
		return c.fallback(ctx, err)
	}
	return value
}

// Write encodes value and stores it under Key. A nil value removes the
// record. Failures are passed to OnWriteError and the write is dropped.
func (c Configuration[V]) Write(ctx context.Context, value *V) {
	if err := c.write(ctx, value); err != nil {
		c.writeFailed(err)
	}
}

func (c Configuration[V]) load(ctx context.Context) (V, error) {
	var zero V
	ctx, cancel := c.storeContext(ctx)
	defer cancel()

	data, ok, err := c.store().Get(ctx, c.Key)
	if err != nil {
		return zero, &StoreError{Op: OpGet, Key: c.Key, Err: err}
	}
	if !ok {
		return zero, ErrNoValue
	}
	value, err := c.codec().Decode(data)
	if err != nil {
		return zero, &CodecError{Op: OpDecode, Key: c.Key, Err: err}
	}
	if err := c.validate(value); err != nil {
		return zero, err
	}
	return value, nil
}

func (c Configuration[V]) write(ctx context.Context, value *V) error {
	if value == nil {
		return c.clear(ctx)
	}

	data, err := c.codec().Encode(*value)
	if err != nil {
		return &CodecError{Op: OpEncode, Key: c.Key, Err: err}
	}
	if err := c.validate(*value); err != nil {
		return err
	}
	if data == nil {
		// A nil blob would delete the record.
		data = []byte{}
	}

	storeCtx, cancel := c.storeContext(ctx)
	err = c.store().Set(storeCtx, c.Key, data)
	cancel()
	if err != nil {
		return &StoreError{Op: OpSet, Key: c.Key, Err: err}
	}

	return c.emit(ctx, activity.BuildPreferenceUpdatedEvent(activity.PreferenceEventInput{
		Key:       c.Key,
		BindingID: bindingIDFrom(ctx),
		Codec:     codec.NameOf(c.codec()),
		Size:      len(data),
	}))
}

func (c Configuration[V]) clear(ctx context.Context) error {
	storeCtx, cancel := c.storeContext(ctx)
	err := c.store().Delete(storeCtx, c.Key)
	cancel()
	if err != nil {
		return &StoreError{Op: OpDelete, Key: c.Key, Err: err}
	}
	return c.emit(ctx, activity.BuildPreferenceClearedEvent(activity.PreferenceEventInput{
		Key:       c.Key,
		BindingID: bindingIDFrom(ctx),
	}))
}

// fallback resolves a read failure into a value. Absence is not reported to
// hooks.
func (c Configuration[V]) fallback(ctx context.Context, err error) V {
	if !errors.Is(err, ErrNoValue) {
		event := activity.BuildPreferenceFallbackEvent(activity.PreferenceEventInput{
			Key:       c.Key,
			BindingID: bindingIDFrom(ctx),
			Codec:     codec.NameOf(c.codec()),
			Err:       err,
		})
		if hookErr := c.emit(ctx, event); hookErr != nil {
			c.writeFailed(hookErr)
		}
	}
	if c.OnReadError == nil {
		var zero V
		return zero
	}
	return c.OnReadError(err)
}

func (c Configuration[V]) writeFailed(err error) {
	if c.OnWriteError != nil {
		c.OnWriteError(err)
		return
	}
	logWriteError(c.Logger, c.Key)(err)
}

func (c Configuration[V]) emit(ctx context.Context, event activity.Event) error {
	if len(c.Hooks) == 0 {
		return nil
	}
	defaults := c.Activity
	defaults.Enabled = true
	return activity.NewEmitter(c.Hooks, defaults).Emit(ctx, event)
}

func (c Configuration[V]) store() store.Store {
	if c.Store != nil {
		return c.Store
	}
	return store.Default()
}

func (c Configuration[V]) codec() codec.Codec[V] {
	if c.Codec != nil {
		return c.Codec
	}
	return codec.NewJSON[V]()
}

// resolved pins the store and codec so a binding keeps using the same ones
// even if the process default changes.
func (c Configuration[V]) resolved() Configuration[V] {
	c.Store = c.store()
	c.Codec = c.codec()
	return c
}

func (c Configuration[V]) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return ctx, func() {}
}

func logWriteError(logger zerolog.Logger, key string) func(error) {
	return func(err error) {
		logger.Error().Err(err).Str("key", key).Str("event", "write_dropped").Msg("failed to persist value")
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
