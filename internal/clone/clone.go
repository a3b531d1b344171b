// Package clone deep copies values so a held value never shares maps, slices
// or pointers with the copies handed to callers and subscribers.
package clone

import "reflect"

// Value returns a deep copy of value. Structs with unexported fields are
// copied by value; channels and funcs are copied by reference. Shared and
// cyclic references are preserved: a pointer, map or slice reached twice is
// copied once.
func Value[T any](value T) T {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return value
	}
	c := copier{seen: map[ref]reflect.Value{}}
	cloned := c.copy(rv)
	if !cloned.IsValid() {
		return value
	}
	out, ok := cloned.Interface().(T)
	if !ok {
		return value
	}
	return out
}

// ref identifies a reference already copied. Slices also key on length so
// two windows over one backing array are copied separately.
type ref struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type copier struct {
	seen map[ref]reflect.Value
}

func (c *copier) copy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := ref{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		out := reflect.New(v.Type().Elem())
		c.seen[key] = out
		out.Elem().Set(c.copy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := c.copy(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		if !exportedOnly(v.Type()) {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			out.Field(i).Set(c.copy(v.Field(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := ref{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.seen[key] = out
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), c.copy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := ref{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		c.seen[key] = out
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.copy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.copy(v.Index(i)))
		}
		return out
	default:
		return v
	}
}

// exportedOnly reports whether every field of t is settable through
// reflection. Structs with unexported state (time.Time, sync types) are
// copied by value instead of field by field.
func exportedOnly(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			return false
		}
	}
	return true
}
