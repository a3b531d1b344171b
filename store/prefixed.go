package store

import (
	"context"
	"fmt"
	"strings"
)

type prefixed struct {
	inner  Store
	prefix string
}

// Prefixed namespaces every key with prefix + "/". Close closes inner.
func Prefixed(inner Store, prefix string) Store {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return inner
	}
	return &prefixed{inner: inner, prefix: prefix + "/"}
}

func (p *prefixed) key(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return p.prefix + key, nil
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	full, err := p.key(key)
	if err != nil {
		return nil, false, err
	}
	return p.inner.Get(ctx, full)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	full, err := p.key(key)
	if err != nil {
		return err
	}
	return p.inner.Set(ctx, full, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	full, err := p.key(key)
	if err != nil {
		return err
	}
	return p.inner.Delete(ctx, full)
}

func (p *prefixed) Close() error {
	return p.inner.Close()
}

// Ref identifies one preference within a scope.
type Ref struct {
	Scope string // system, tenant, org, team or user
	ID    string // owner identifier; unused for system
	Name  string
}

// Key returns the canonical storage key: "system/<name>" or
// "<scope>/<id>/<name>".
func (r Ref) Key() (string, error) {
	if r.Name == "" {
		return "", fmt.Errorf("store: preference name is required")
	}
	switch r.Scope {
	case "system":
		return fmt.Sprintf("system/%s", r.Name), nil
	case "tenant", "org", "team", "user":
		if r.ID == "" {
			return "", fmt.Errorf("store: missing id for scope %q", r.Scope)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope, r.ID, r.Name), nil
	default:
		return "", fmt.Errorf("store: unsupported scope name %q", r.Scope)
	}
}

// ScopedKey is shorthand for Ref{Scope: scope, ID: id, Name: name}.Key().
func ScopedKey(scope, id, name string) (string, error) {
	return Ref{Scope: scope, ID: id, Name: name}.Key()
}
