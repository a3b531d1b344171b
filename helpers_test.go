package persisted_test

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-persisted/store"
	"github.com/rs/zerolog"
)

var errEngine = errors.New("engine down")

// failingStore fails every operation after being switched on.
type failingStore struct {
	store.Store
	mu      sync.Mutex
	failGet bool
	failSet bool
}

func newFailingStore() *failingStore {
	return &failingStore{Store: store.NewMemory()}
}

func (s *failingStore) fail(get, set bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet, s.failSet = get, set
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return nil, false, errEngine
	}
	return s.Store.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	fail := s.failSet
	s.mu.Unlock()
	if fail {
		return errEngine
	}
	return s.Store.Set(ctx, key, value)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	fail := s.failSet
	s.mu.Unlock()
	if fail {
		return errEngine
	}
	return s.Store.Delete(ctx, key)
}

// errorRecorder collects errors passed to OnWriteError.
type errorRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *errorRecorder) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *errorRecorder) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger() (zerolog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return zerolog.New(buf), buf
}

func storedString(s store.Store, key string) (string, bool) {
	data, ok, err := s.Get(context.Background(), key)
	if err != nil || !ok {
		return "", false
	}
	return string(data), true
}
