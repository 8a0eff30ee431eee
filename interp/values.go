package interp

import (
	"fmt"
	"math"
	"reflect"

	"github.com/es1024/python-staged-programming/report"
	"github.com/pkg/errors"
	"github.com/es1024/python-staged-programming/types"
)

// Value is a runtime value of the interpreter.  Scalars are represented as
// int32, float64 and bool.  Arrays are Go slices: []int32, []float64 and []bool
// for arrays created by the interpreter, or any slice supplied by the host.
// Arrays are shared, never copied, so stores are visible to the caller.
type Value = interface{}

// Coerce converts a host value into a runtime value of the given type.  Host
// integers of any width are accepted for int as long as they fit in 32 bits.
func Coerce(v interface{}, typ types.Type) (Value, error) {
	switch typ {
	case types.PrimTypeInt:
		switch x := v.(type) {
		case int32:
			return x, nil
		case int:
			return narrowInt(int64(x))
		case int64:
			return narrowInt(x)
		case int8:
			return int32(x), nil
		case int16:
			return int32(x), nil
		case uint8:
			return int32(x), nil
		case uint16:
			return int32(x), nil
		}
	case types.PrimTypeFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int32:
			return float64(x), nil
		}
	case types.PrimTypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	default:
		if at, ok := typ.(*types.ArrayType); ok {
			if err := CheckArray(v, at); err != nil {
				return nil, err
			}

			return v, nil
		}
	}

	return nil, report.Raise(report.MarshalError, "", "cannot pass host value of type %T as %s", v, typ.Repr())
}

// typedElems maps each element type to the kind of typed host slice which
// can be passed for it without conversion.
var typedElems = map[types.PrimitiveType]reflect.Kind{
	types.PrimTypeInt:   reflect.Int32,
	types.PrimTypeFloat: reflect.Float64,
	types.PrimTypeBool:  reflect.Bool,
}

// CheckArray returns an error unless v is a host slice which can stand for an
// array of type at: either a typed slice of the exact element width or a
// []interface{} whose elements coerce to the element type.  Nested arrays
// are checked row by row and may be at most two levels deep.
func CheckArray(v interface{}, at *types.ArrayType) error {
	rv := reflect.ValueOf(v)
	if v == nil || rv.Kind() != reflect.Slice {
		return report.Raise(report.MarshalError, "", "cannot pass host value of type %T as %s", v, at.Repr())
	}

	inner, nested := at.ElemType.(*types.ArrayType)
	if nested {
		if _, ok := inner.ElemType.(types.PrimitiveType); !ok {
			return report.Raise(report.MarshalError, "", "arrays of type %s cannot be passed from the host", at.Repr())
		}
	} else {
		elem := at.ElemType.(types.PrimitiveType)
		if ek := rv.Type().Elem().Kind(); ek != reflect.Interface && ek != typedElems[elem] {
			return report.Raise(report.MarshalError, "", "host array of type %T does not match element type %s", v, elem.Repr())
		}
	}

	for i := 0; i < rv.Len(); i++ {
		ev := rv.Index(i)
		if ev.Kind() == reflect.Interface {
			ev = ev.Elem()
		}

		if !ev.IsValid() {
			return report.Raise(report.MarshalError, "", "element %d of host array is nil", i)
		}

		var err error
		if nested {
			err = CheckArray(ev.Interface(), inner)
		} else {
			_, err = Coerce(ev.Interface(), at.ElemType)
		}

		if err != nil {
			return errors.WithMessagef(err, "in element %d", i)
		}
	}

	return nil
}

// narrowInt converts a 64-bit host integer to int32 if it fits.
func narrowInt(x int64) (Value, error) {
	if x < math.MinInt32 || x > math.MaxInt32 {
		return nil, report.Raise(report.MarshalError, "", "integer %d does not fit in 32 bits", x)
	}

	return int32(x), nil
}

// zeroValue returns the zero value of a type.  Arrays have no zero value in
// the interpreter: a nil slice stands in for the null pointer.
func zeroValue(typ types.Type) Value {
	switch typ {
	case types.PrimTypeInt:
		return int32(0)
	case types.PrimTypeFloat:
		return float64(0)
	case types.PrimTypeBool:
		return false
	}

	return nil
}

// newArray creates a fresh zeroed array of n elements.
func newArray(elem types.Type, n int32) Value {
	if n < 0 {
		panic(runtimeError("negative array length %d", n))
	}

	switch elem {
	case types.PrimTypeInt:
		return make([]int32, n)
	case types.PrimTypeFloat:
		return make([]float64, n)
	case types.PrimTypeBool:
		return make([]bool, n)
	}

	return make([]interface{}, n)
}

// -----------------------------------------------------------------------------

// loadElem reads arr[i] as a value of type elem.
func loadElem(arr Value, i int32, elem types.Type) Value {
	rv := sliceValue(arr, i)
	ev := rv.Index(int(i))
	if ev.Kind() == reflect.Interface {
		ev = ev.Elem()
	}

	if !ev.IsValid() {
		return zeroValue(elem)
	}

	// rows of host arrays were checked when they were passed in
	if _, ok := elem.(*types.ArrayType); ok && ev.Kind() == reflect.Slice {
		return ev.Interface()
	}

	v, err := Coerce(ev.Interface(), elem)
	if err != nil {
		panic(runtimeError("array element %d: %s", i, err))
	}

	return v
}

// storeElem writes v into arr[i].
func storeElem(arr Value, i int32, v Value) {
	rv := sliceValue(arr, i)
	ev := rv.Index(int(i))

	nv := reflect.ValueOf(v)
	if ev.Kind() != reflect.Interface {
		if !nv.Type().ConvertibleTo(ev.Type()) {
			panic(runtimeError("cannot store %T into element of %T", v, arr))
		}

		nv = nv.Convert(ev.Type())
	}

	ev.Set(nv)
}

// sliceValue returns the reflected slice of arr after checking that i is in
// range.
func sliceValue(arr Value, i int32) reflect.Value {
	rv := reflect.ValueOf(arr)
	if rv.Kind() != reflect.Slice {
		panic(runtimeError("indexed value of type %T is not an array", arr))
	}

	if i < 0 || int(i) >= rv.Len() {
		panic(runtimeError("index %d out of range for array of length %d", i, rv.Len()))
	}

	return rv
}

// -----------------------------------------------------------------------------

// RuntimeError is an error raised while interpreting a function, such as an
// out of range index or an integer modulo by zero.
type RuntimeError struct {
	Message string
}

func (re *RuntimeError) Error() string {
	return "runtime error: " + re.Message
}

func runtimeError(msg string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(msg, args...)}
}
