package structural

import "reflect"

// visitPair identifies a pair of containers already under comparison.
// Revisiting a pair means we followed a cycle; the pair is treated as equal
// to let the rest of the structure decide.
type visitPair struct {
	a, b visitKey
}

// Equal reports whether a and b are structurally equal. Numeric values
// compare by value within the int, uint and float families, so an int and
// an int64 holding the same number are equal. Functions and channels have
// no structural identity and only compare equal when both are nil.
func Equal(a, b any) bool {
	e := equaler{visited: make(map[visitPair]bool)}
	return e.equal(reflect.ValueOf(a), reflect.ValueOf(b))
}

type equaler struct {
	visited map[visitPair]bool
}

func (e *equaler) equal(a, b reflect.Value) bool {
	a = indirect(a)
	b = indirect(b)

	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}

	if na, ok := numeric(a); ok {
		nb, ok := numeric(b)
		return ok && na == nb
	}

	switch a.Kind() {
	case reflect.Bool:
		return b.Kind() == reflect.Bool && a.Bool() == b.Bool()

	case reflect.String:
		return b.Kind() == reflect.String && a.String() == b.String()

	case reflect.Complex64, reflect.Complex128:
		return (b.Kind() == reflect.Complex64 || b.Kind() == reflect.Complex128) &&
			a.Complex() == b.Complex()

	case reflect.Map:
		return e.equalMap(a, b)

	case reflect.Slice, reflect.Array:
		return e.equalSequence(a, b)

	case reflect.Struct:
		return e.equalStruct(a, b)

	case reflect.Func, reflect.Chan:
		return a.Kind() == b.Kind() && a.IsNil() && b.IsNil()

	default:
		return false
	}
}

func (e *equaler) equalMap(a, b reflect.Value) bool {
	if b.Kind() != reflect.Map {
		return false
	}
	if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
		return false
	}
	if a.IsNil() {
		return true
	}

	pair := visitPair{
		a: visitKey{ptr: a.Pointer(), kind: reflect.Map},
		b: visitKey{ptr: b.Pointer(), kind: reflect.Map},
	}
	if e.visited[pair] {
		return true
	}
	e.visited[pair] = true

	iter := a.MapRange()
	for iter.Next() {
		bv := b.MapIndex(iter.Key())
		if !bv.IsValid() || !e.equal(iter.Value(), bv) {
			return false
		}
	}
	return true
}

func (e *equaler) equalSequence(a, b reflect.Value) bool {
	if b.Kind() != reflect.Slice && b.Kind() != reflect.Array {
		return false
	}
	if a.Len() != b.Len() {
		return false
	}

	if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice {
		if a.IsNil() != b.IsNil() {
			return false
		}
		if a.IsNil() {
			return true
		}
		pair := visitPair{
			a: visitKey{ptr: a.Pointer(), kind: reflect.Slice, len: a.Len()},
			b: visitKey{ptr: b.Pointer(), kind: reflect.Slice, len: b.Len()},
		}
		if e.visited[pair] {
			return true
		}
		e.visited[pair] = true
	}

	for i := 0; i < a.Len(); i++ {
		if !e.equal(a.Index(i), b.Index(i)) {
			return false
		}
	}
	return true
}

func (e *equaler) equalStruct(a, b reflect.Value) bool {
	if b.Kind() != reflect.Struct || a.Type() != b.Type() {
		return false
	}
	for i := 0; i < a.NumField(); i++ {
		if !a.Type().Field(i).IsExported() {
			// Unexported fields are invisible to the structural walk;
			// fall back to the type's own comparability if possible.
			if a.Type().Comparable() {
				return a.Interface() == b.Interface()
			}
			continue
		}
		if !e.equal(a.Field(i), b.Field(i)) {
			return false
		}
	}
	return true
}

// indirect unwraps interfaces and follows non-nil pointers. Nil pointers
// unwrap to the invalid Value so they compare equal to nil.
func indirect(v reflect.Value) reflect.Value {
	for {
		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		case reflect.Pointer:
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		default:
			return v
		}
	}
}

// numeric flattens the int, uint and float families to float64 for
// cross-kind comparison. Large uint64 values above 2^53 lose precision in
// the conversion, which is acceptable for state values.
func numeric(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}
