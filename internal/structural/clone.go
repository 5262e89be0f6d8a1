// Package structural provides deep-clone and deep-equal over nested state
// values. Both walk arbitrary combinations of maps, slices, pointers and
// structs, and both survive cyclic structures by threading an identity-keyed
// visited set through the recursion.
package structural

import (
	"fmt"
	"reflect"
)

// UnsupportedValueError reports a value kind that cannot be safely
// reproduced. Functions, channels and unsafe pointers have no structural
// copy, so cloning one is a logic error rather than something to paper over.
type UnsupportedValueError struct {
	Kind reflect.Kind
	Type string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("structural: unsupported value kind %s (%s)", e.Kind, e.Type)
}

// visitKey identifies a container by its backing pointer. Two slices sharing
// a backing array but with different lengths are distinguished by Len.
type visitKey struct {
	ptr  uintptr
	kind reflect.Kind
	len  int
}

// Clone returns a fully independent deep copy of v. The caller may mutate
// the result freely without observing changes in the original, and vice
// versa. Cycles are preserved: a structure that references itself clones to
// a structure that references its own copy.
func Clone(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	c := cloner{visited: make(map[visitKey]reflect.Value)}
	rv, err := c.clone(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// MustClone is Clone for inputs already known to be clonable. It panics on
// unsupported values and is only used internally after validation.
func MustClone(v any) any {
	out, err := Clone(v)
	if err != nil {
		panic(err)
	}
	return out
}

type cloner struct {
	visited map[visitKey]reflect.Value
}

func (c *cloner) clone(rv reflect.Value) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return rv, nil

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return rv, nil

	case reflect.Interface:
		if rv.IsNil() {
			return rv, nil
		}
		elem, err := c.clone(rv.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(rv.Type()).Elem()
		out.Set(elem)
		return out, nil

	case reflect.Map:
		return c.cloneMap(rv)

	case reflect.Slice:
		return c.cloneSlice(rv)

	case reflect.Array:
		return c.cloneArray(rv)

	case reflect.Pointer:
		return c.clonePointer(rv)

	case reflect.Struct:
		return c.cloneStruct(rv)

	default:
		// Func, Chan, UnsafePointer.
		return reflect.Value{}, &UnsupportedValueError{Kind: rv.Kind(), Type: rv.Type().String()}
	}
}

func (c *cloner) cloneMap(rv reflect.Value) (reflect.Value, error) {
	if rv.IsNil() {
		return rv, nil
	}
	key := visitKey{ptr: rv.Pointer(), kind: reflect.Map}
	if seen, ok := c.visited[key]; ok {
		return seen, nil
	}

	out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
	c.visited[key] = out

	iter := rv.MapRange()
	for iter.Next() {
		k, err := c.clone(iter.Key())
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := c.clone(iter.Value())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(k, v)
	}
	return out, nil
}

func (c *cloner) cloneSlice(rv reflect.Value) (reflect.Value, error) {
	if rv.IsNil() {
		return rv, nil
	}
	key := visitKey{ptr: rv.Pointer(), kind: reflect.Slice, len: rv.Len()}
	if seen, ok := c.visited[key]; ok {
		return seen, nil
	}

	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	c.visited[key] = out

	for i := 0; i < rv.Len(); i++ {
		v, err := c.clone(rv.Index(i))
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

func (c *cloner) cloneArray(rv reflect.Value) (reflect.Value, error) {
	out := reflect.New(rv.Type()).Elem()
	for i := 0; i < rv.Len(); i++ {
		v, err := c.clone(rv.Index(i))
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

func (c *cloner) clonePointer(rv reflect.Value) (reflect.Value, error) {
	if rv.IsNil() {
		return rv, nil
	}
	key := visitKey{ptr: rv.Pointer(), kind: reflect.Pointer}
	if seen, ok := c.visited[key]; ok {
		return seen, nil
	}

	out := reflect.New(rv.Type().Elem())
	c.visited[key] = out

	elem, err := c.clone(rv.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	out.Elem().Set(elem)
	return out, nil
}

// cloneStruct copies the whole struct by value, then replaces exported
// fields with deep clones. Unexported fields keep the shallow copy since
// reflection cannot set them; state values are expected to be maps, slices
// and scalars, so this only matters for caller-defined struct leaves.
func (c *cloner) cloneStruct(rv reflect.Value) (reflect.Value, error) {
	out := reflect.New(rv.Type()).Elem()
	out.Set(rv)

	for i := 0; i < rv.NumField(); i++ {
		if !rv.Type().Field(i).IsExported() {
			continue
		}
		v, err := c.clone(rv.Field(i))
		if err != nil {
			return reflect.Value{}, err
		}
		if v.IsValid() {
			out.Field(i).Set(v)
		}
	}
	return out, nil
}
