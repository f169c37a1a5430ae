package hooks

import (
	"math"
	"reflect"
)

// DepsMode records how the dependency argument of a memo or effect was given.
type DepsMode uint8

const (
	// DepsOmitted means no dependency list was given: the cell re-runs every pass.
	DepsOmitted DepsMode = iota

	// DepsEmpty means an empty list was given: the cell runs once.
	DepsEmpty

	// DepsPopulated means one or more values were given.
	DepsPopulated
)

// String returns a human-readable name for the mode.
func (m DepsMode) String() string {
	switch m {
	case DepsOmitted:
		return "omitted"
	case DepsEmpty:
		return "empty"
	case DepsPopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// Deps is the dependency argument of UseMemo, UseCallback and UseEffect.
//
// The three forms are distinct and never conflated:
//
//	hooks.Always        // omitted: re-run on every pass
//	hooks.Once()        // empty: run on the first pass only
//	hooks.On(a, b)      // populated: re-run when a or b changes
//
// The zero value is Always.
type Deps struct {
	values []any
	mode   DepsMode
}

// Always is the omitted dependency list.
var Always = Deps{}

// Once returns the empty dependency list.
func Once() Deps {
	return Deps{mode: DepsEmpty}
}

// On returns a dependency list holding values. Calling On with no values
// is the same as Once.
func On(values ...any) Deps {
	if len(values) == 0 {
		return Once()
	}
	cp := make([]any, len(values))
	copy(cp, values)
	return Deps{values: cp, mode: DepsPopulated}
}

// Mode returns how the list was given.
func (d Deps) Mode() DepsMode {
	return d.mode
}

// Len returns the number of values in the list.
func (d Deps) Len() int {
	return len(d.values)
}

// Values returns a copy of the values in the list.
func (d Deps) Values() []any {
	if len(d.values) == 0 {
		return nil
	}
	cp := make([]any, len(d.values))
	copy(cp, d.values)
	return cp
}

// Changed reports whether next differs from prev. A nil prev means the cell
// has never run. An omitted list on either side always counts as changed.
func Changed(prev *Deps, next Deps) bool {
	if prev == nil {
		return true
	}
	if prev.mode == DepsOmitted || next.mode == DepsOmitted {
		return true
	}
	if len(prev.values) != len(next.values) {
		return true
	}
	for i := range next.values {
		if !Same(prev.values[i], next.values[i]) {
			return true
		}
	}
	return false
}

// Same is the shallow equality used for dependency values and context
// publications. Values of different dynamic types are never the same.
// Scalars, strings and comparable structs and arrays compare like ==,
// except that NaN is the same as NaN, also inside structs and arrays.
// Pointers, maps, channels and slices compare by identity; a slice is
// identified by its backing array and length. Functions are only the same
// when both are nil. Same never compares deeply.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map:
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}

	if !va.Type().Comparable() {
		return false
	}
	return sameComparable(va, vb)
}

// sameComparable is == over values of one comparable type, with NaN equal
// to itself. Interface fields holding uncomparable dynamic values, which
// make == panic, are reported as different.
func sameComparable(va, vb reflect.Value) bool {
	switch va.Kind() {
	case reflect.Float32, reflect.Float64:
		return sameFloat(va.Float(), vb.Float())
	case reflect.Complex64, reflect.Complex128:
		x, y := va.Complex(), vb.Complex()
		return sameFloat(real(x), real(y)) && sameFloat(imag(x), imag(y))
	case reflect.Bool:
		return va.Bool() == vb.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return va.Int() == vb.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return va.Uint() == vb.Uint()
	case reflect.String:
		return va.String() == vb.String()
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Array:
		for i := 0; i < va.Len(); i++ {
			if !sameComparable(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !sameComparable(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		ea, eb := va.Elem(), vb.Elem()
		if ea.Type() != eb.Type() || !ea.Type().Comparable() {
			return false
		}
		return sameComparable(ea, eb)
	}
	return false
}

func sameFloat(x, y float64) bool {
	if math.IsNaN(x) && math.IsNaN(y) {
		return true
	}
	return x == y
}
