package rules

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Function represents a callable exposed to rule expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry holds the custom functions rules may call. Lookup ignores
// case: a function registered as "maxContrast" answers to "maxcontrast" in
// call("maxcontrast", [...]). Engines that bind functions as identifiers
// (expr, JS) use the name as registered.
type FunctionRegistry struct {
	mu    sync.RWMutex
	byKey map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{byKey: map[string]registeredFunction{}}
}

// Register adds fn under name. Names that differ only in case collide, and
// names reserved by the rule environment are refused.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("rules: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("rules: function %q is nil", name)
	}
	key := strings.ToLower(name)
	if _, reserved := reservedNames[key]; reserved {
		return fmt.Errorf("rules: function name %q is reserved", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byKey == nil {
		r.byKey = map[string]registeredFunction{}
	}
	if existing, ok := r.byKey[key]; ok {
		return fmt.Errorf("rules: function %q already registered as %q", name, existing.name)
	}
	r.byKey[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Lookup returns the function registered under name, ignoring case.
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byKey[strings.ToLower(strings.TrimSpace(name))]
	return entry.fn, ok
}

// Call executes the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("rules: no functions registered")
	}
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("rules: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns the registered names, as registered, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byKey))
	for _, entry := range r.byKey {
		names = append(names, entry.name)
	}
	slices.Sort(names)
	return names
}

// Clone returns a registry with the same functions. Registering on the clone
// leaves the original untouched.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{byKey: make(map[string]registeredFunction, len(r.byKey))}
	for key, entry := range r.byKey {
		out.byKey[key] = entry
	}
	return out
}
