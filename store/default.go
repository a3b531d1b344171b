package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	xlog "github.com/goliatone/go-persisted/internal/log"
)

const defaultFileName = "preferences.json"

var (
	defaultMu    sync.Mutex
	defaultStore Store
)

// DefaultPath returns the location of the process-wide preferences file:
// $PERSISTED_STORE_PATH when set, otherwise
// <user config dir>/<application>/preferences.json where the application name
// is $PERSISTED_APP or the executable name.
func DefaultPath() (string, error) {
	if path := os.Getenv("PERSISTED_STORE_PATH"); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("store: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, applicationName(), defaultFileName), nil
}

func applicationName() string {
	if name := strings.TrimSpace(os.Getenv("PERSISTED_APP")); name != "" {
		return name
	}
	if exe, err := os.Executable(); err == nil {
		name := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
		if name != "" && name != "." {
			return name
		}
	}
	return "persisted"
}

// Default returns the process-wide store used when a configuration does not
// name one. It is opened lazily as a File store at DefaultPath. When that
// fails, the failure is logged and an in-memory store is used instead so
// bindings keep working for the lifetime of the process.
func Default() Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore != nil {
		return defaultStore
	}

	logger := xlog.WithComponent("store")
	path, err := DefaultPath()
	if err == nil {
		var file *File
		if file, err = OpenFile(path); err == nil {
			defaultStore = file
			return defaultStore
		}
	}
	logger.Warn().Err(err).Msg("default preferences file unavailable, using in-memory store")
	defaultStore = NewMemory()
	return defaultStore
}

// SetDefault replaces the process-wide store and returns the previous one
// (nil if none was opened). Passing nil resets to lazy initialisation.
func SetDefault(s Store) Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	previous := defaultStore
	defaultStore = s
	return previous
}
