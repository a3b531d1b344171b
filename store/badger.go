package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Badger stores records in an embedded badger database.
type Badger struct {
	db     *badger.DB
	prefix []byte
}

// OpenBadger opens (or creates) a badger database in dir. An empty dir opens
// an in-memory database.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger %q: %w", dir, err)
	}
	return &Badger{db: db, prefix: []byte("pref:")}, nil
}

func (s *Badger) key(key string) []byte {
	out := make([]byte, 0, len(s.prefix)+len(key))
	out = append(out, s.prefix...)
	return append(out, key...)
}

func (s *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap("badger", "get", key, mapBadgerErr(err))
	}
	if out == nil {
		out = []byte{}
	}
	return out, true, nil
}

func (s *Badger) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return s.Delete(ctx, key)
	}
	if err := checkKey(key); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(key), cloneBytes(value))
	})
	return wrap("badger", "set", key, mapBadgerErr(err))
}

func (s *Badger) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
	return wrap("badger", "delete", key, mapBadgerErr(err))
}

func (s *Badger) Close() error {
	return s.db.Close()
}

func mapBadgerErr(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return err
}
