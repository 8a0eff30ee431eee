package marshal

import (
	"reflect"

	"github.com/es1024/python-staged-programming/interp"
	"github.com/es1024/python-staged-programming/types"
)

// hostArray is a host sequence passed for an array parameter, validated
// against the parameter's element type.
type hostArray struct {
	// The host slice.
	rv reflect.Value

	// The element type of the array.
	elem types.PrimitiveType

	// The rows of a two-level array.  Nil for flat arrays.
	rows []*hostArray

	// The arena offset of the staging region.
	off int
}

// newHostArray validates a host value against an array type.
func newHostArray(v interface{}, at *types.ArrayType) (*hostArray, error) {
	if err := interp.CheckArray(v, at); err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(v)
	if inner, ok := at.ElemType.(*types.ArrayType); ok {
		ha := &hostArray{rv: rv, elem: inner.ElemType.(types.PrimitiveType), rows: make([]*hostArray, rv.Len())}
		for i := range ha.rows {
			// rows were validated above
			ha.rows[i], _ = newHostArray(unwrap(rv.Index(i)).Interface(), inner)
		}

		return ha, nil
	}

	return &hostArray{rv: rv, elem: at.ElemType.(types.PrimitiveType)}, nil
}

// unwrap returns the dynamic value of an interface element.
func unwrap(ev reflect.Value) reflect.Value {
	if ev.Kind() == reflect.Interface {
		return ev.Elem()
	}

	return ev
}

// size returns the number of arena bytes required to stage the array.
func (ha *hostArray) size() int {
	if ha.rows == nil {
		return regionSize(ha.rv.Len() * ha.elem.Size())
	}

	total := regionSize(len(ha.rows) * 8)
	for _, row := range ha.rows {
		total += row.size()
	}

	return total
}

// stage allocates the staging region of the array and copies the host
// elements into it.
func (ha *hostArray) stage(a *arena) {
	if ha.rows != nil {
		ha.off = a.alloc(len(ha.rows) * 8)

		for i, row := range ha.rows {
			row.stage(a)
			a.putPtr(ha.off+i*8, a.addr(row.off))
		}

		return
	}

	ha.off = a.alloc(ha.rv.Len() * ha.elem.Size())

	for i := 0; i < ha.rv.Len(); i++ {
		// the elements were validated when the array was created
		v, _ := interp.Coerce(unwrap(ha.rv.Index(i)).Interface(), ha.elem)
		slot := ha.off + i*ha.elem.Size()

		switch x := v.(type) {
		case int32:
			a.putInt(slot, x)
		case float64:
			a.putFloat(slot, x)
		case bool:
			a.putBool(slot, x)
		}
	}
}

// copyBack copies the staged elements back into the host array.  Elements of
// untyped host sequences keep their host type where it can represent the
// native value.
func (ha *hostArray) copyBack(a *arena) {
	if ha.rows != nil {
		for _, row := range ha.rows {
			row.copyBack(a)
		}

		return
	}

	for i := 0; i < ha.rv.Len(); i++ {
		slot := ha.off + i*ha.elem.Size()

		var v interface{}
		switch ha.elem {
		case types.PrimTypeInt:
			v = a.getInt(slot)
		case types.PrimTypeFloat:
			v = a.getFloat(slot)
		default:
			v = a.getBool(slot)
		}

		setElem(ha.rv.Index(i), v)
	}
}

// setElem stores a native value into a host slice element.
func setElem(ev reflect.Value, v interface{}) {
	nv := reflect.ValueOf(v)

	if ev.Kind() != reflect.Interface {
		ev.Set(nv.Convert(ev.Type()))
		return
	}

	if old := ev.Elem(); old.IsValid() && kindClass(old.Kind()) == kindClass(nv.Kind()) {
		ev.Set(nv.Convert(old.Type()))
		return
	}

	ev.Set(nv)
}

// kindClass groups reflect kinds into ints, floats and everything else.
func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16:
		return 1
	case reflect.Float32, reflect.Float64:
		return 2
	}

	return 0
}
