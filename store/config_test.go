package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-persisted/store"
)

func TestLoadConfigFromYAMLWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: redis
prefix: app
redis:
  addr: localhost:6379
  db: 2
sqlite:
  busy_timeout: 2s
`), 0o600))

	t.Setenv("PERSISTED_REDIS_ADDR", "cache:6380")
	t.Setenv("PERSISTED_REDIS_DB", "5")

	cfg, err := store.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Driver)
	assert.Equal(t, "app", cfg.Prefix)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Redis.DB)
	assert.Equal(t, "2s", cfg.SQLite.BusyTimeout.String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := store.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOpenDispatchesOnDriver(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	cases := []store.Config{
		{Driver: store.DriverMemory},
		{Driver: store.DriverFile, Path: filepath.Join(dir, "prefs.json")},
		{Driver: store.DriverBadger, Path: filepath.Join(dir, "badger")},
		{Driver: store.DriverSQLite, Path: filepath.Join(dir, "prefs.db")},
		{Driver: store.DriverRedis, Redis: store.RedisConfig{Addr: mr.Addr()}},
		{Driver: "MEMORY", Prefix: "user/42"},
	}
	for _, cfg := range cases {
		t.Run(cfg.Driver, func(t *testing.T) {
			s, err := store.Open(ctx, cfg)
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Set(ctx, "k", []byte("v")))
			got, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("v"), got)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), store.Config{Driver: "etcd"})
	assert.ErrorIs(t, err, store.ErrUnknownDriver)
}

func TestPrefixedNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemory()
	s := store.Prefixed(inner, "/user/42/")

	require.NoError(t, s.Set(ctx, "theme", []byte("dark")))
	got, ok, err := inner.Get(ctx, "user/42/theme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("dark"), got)

	assert.Same(t, inner, store.Prefixed(inner, ""))
}

func TestRefKey(t *testing.T) {
	cases := []struct {
		ref  store.Ref
		want string
		err  bool
	}{
		{ref: store.Ref{Scope: "system", Name: "theme"}, want: "system/theme"},
		{ref: store.Ref{Scope: "user", ID: "u42", Name: "theme"}, want: "user/u42/theme"},
		{ref: store.Ref{Scope: "team", Name: "theme"}, err: true},
		{ref: store.Ref{Scope: "galaxy", ID: "x", Name: "theme"}, err: true},
		{ref: store.Ref{Scope: "system"}, err: true},
	}
	for _, tc := range cases {
		got, err := tc.ref.Key()
		if tc.err {
			assert.Error(t, err, "%+v", tc.ref)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	key, err := store.ScopedKey("org", "acme", "locale")
	require.NoError(t, err)
	assert.Equal(t, "org/acme/locale", key)
}

func TestDefaultStoreUsesConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app", "preferences.json")
	t.Setenv("PERSISTED_STORE_PATH", path)

	previous := store.SetDefault(nil)
	t.Cleanup(func() { store.SetDefault(previous) })

	s := store.Default()
	file, ok := s.(*store.File)
	require.True(t, ok, "expected file store, got %T", s)
	assert.Equal(t, path, file.Path())
	assert.Same(t, s, store.Default())
}
