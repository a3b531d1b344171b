package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	xlog "github.com/goliatone/go-persisted/internal/log"
)

const fileFormatVersion = 1

// fileDocument is the on-disk layout. Blobs are base64 encoded by
// encoding/json.
type fileDocument struct {
	Version int               `json:"version"`
	Records map[string][]byte `json:"records"`
}

// File keeps every record in one JSON document. The document is loaded once
// on open and rewritten atomically (temp file, fsync, rename) on every
// mutation.
type File struct {
	path   string
	logger zerolog.Logger

	mu      sync.RWMutex
	records map[string][]byte
	closed  bool
}

// OpenFile opens or creates the preferences document at path.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("store: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create directory for %s: %w", path, err)
	}

	records, err := readFileDocument(path)
	if err != nil {
		return nil, err
	}
	return &File{
		path:    path,
		logger:  xlog.WithComponent("store.file").With().Str("path", path).Logger(),
		records: records,
	}, nil
}

func readFileDocument(path string) (map[string][]byte, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- caller-selected preferences path
	if errors.Is(err, os.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return map[string][]byte{}, nil
	}
	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", path, err)
	}
	if doc.Version > fileFormatVersion {
		return nil, fmt.Errorf("store: %s has unsupported version %d", path, doc.Version)
	}
	if doc.Records == nil {
		doc.Records = map[string][]byte{}
	}
	return doc.Records, nil
}

// Path returns the location of the preferences document.
func (s *File) Path() string {
	return s.path
}

func (s *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	record, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	if record == nil {
		record = []byte{}
	}
	return cloneBytes(record), true, nil
}

func (s *File) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return s.Delete(ctx, key)
	}
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	previous, existed := s.records[key]
	s.records[key] = cloneBytes(value)
	if err := s.flushLocked(); err != nil {
		if existed {
			s.records[key] = previous
		} else {
			delete(s.records, key)
		}
		return wrap("file", "set", key, err)
	}
	return nil
}

func (s *File) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	previous, existed := s.records[key]
	if !existed {
		return nil
	}
	delete(s.records, key)
	if err := s.flushLocked(); err != nil {
		s.records[key] = previous
		return wrap("file", "delete", key, err)
	}
	return nil
}

func (s *File) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *File) flushLocked() error {
	data, err := json.MarshalIndent(fileDocument{Version: fileFormatVersion, Records: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			s.logger.Debug().Err(err).Msg("cleanup pending preferences file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", s.path, err)
	}
	s.logger.Debug().Int("records", len(s.records)).Msg("preferences flushed")
	return nil
}
