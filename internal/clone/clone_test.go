package clone

import (
	"reflect"
	"testing"
	"time"
)

type settings struct {
	Enabled *bool
	Limits  map[string]int
	Tags    []string
	Nested  *nested
	Seen    time.Time
}

type nested struct {
	Name string
}

func TestValueDetachesReferenceTypes(t *testing.T) {
	enabled := true
	original := settings{
		Enabled: &enabled,
		Limits:  map[string]int{"daily": 10},
		Tags:    []string{"a", "b"},
		Nested:  &nested{Name: "inner"},
		Seen:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	got := Value(original)
	if !reflect.DeepEqual(original, got) {
		t.Fatalf("expected equal copy, got %+v", got)
	}

	*got.Enabled = false
	got.Limits["daily"] = 99
	got.Tags[0] = "changed"
	got.Nested.Name = "changed"

	if !*original.Enabled || original.Limits["daily"] != 10 || original.Tags[0] != "a" || original.Nested.Name != "inner" {
		t.Fatalf("expected original untouched, got %+v", original)
	}
}

func TestValueHandlesNilAndScalars(t *testing.T) {
	var ptr *string
	if got := Value(ptr); got != nil {
		t.Fatalf("expected nil pointer, got %v", got)
	}
	if got := Value(42); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	var iface any
	if got := Value(iface); got != nil {
		t.Fatalf("expected nil interface, got %v", got)
	}
	m := map[string]any{"list": []any{"x", map[string]any{"k": 1}}}
	copied := Value(m)
	copied["list"].([]any)[1].(map[string]any)["k"] = 2
	if m["list"].([]any)[1].(map[string]any)["k"] != 1 {
		t.Fatalf("expected nested map detached")
	}
}

type node struct {
	Name  string
	Next  *node
	Peers []*node
	Index map[string]*node
}

func TestValueCopiesCycles(t *testing.T) {
	root := &node{Name: "root"}
	child := &node{Name: "child", Next: root}
	root.Next = root
	root.Peers = []*node{child, child}
	root.Index = map[string]*node{"self": root, "child": child}

	got := Value(root)
	if got == root {
		t.Fatalf("expected a new root")
	}
	if got.Next != got {
		t.Fatalf("expected self reference to point at the copy")
	}
	if got.Peers[0] != got.Peers[1] || got.Peers[0] == child {
		t.Fatalf("expected shared child to be copied once")
	}
	if got.Peers[0].Next != got || got.Index["self"] != got || got.Index["child"] != got.Peers[0] {
		t.Fatalf("expected graph shape to be preserved")
	}

	got.Peers[0].Name = "changed"
	if child.Name != "child" {
		t.Fatalf("copy shares state with the original")
	}
}

func TestValueCopiesSelfReferencingMap(t *testing.T) {
	m := map[string]any{"name": "loop"}
	m["self"] = m

	got := Value(m)
	inner, ok := got["self"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map, got %T", got["self"])
	}
	inner["name"] = "changed"
	if got["name"] != "changed" || m["name"] != "loop" {
		t.Fatalf("expected the cycle to close over the copy only")
	}
}
