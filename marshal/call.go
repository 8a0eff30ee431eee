package marshal

import (
	"reflect"

	"github.com/ebitengine/purego"
	"github.com/es1024/python-staged-programming/interp"
	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/types"
)

// Call calls the native function at addr with the signature sig, converting
// the host arguments into the native calling convention.  Array arguments are
// staged in native memory and copied back into the host values after the
// call so that stores made by the function are visible to the caller.
//
// The result is an int32, a float64 or a bool.  An array result is only
// supported when it is one of the array arguments, in which case the host
// value of that argument is returned.
func Call(addr uintptr, sig *types.FuncType, args ...interface{}) (result interface{}, err error) {
	if addr == 0 {
		return nil, report.Raise(report.MarshalError, "", "call to null function pointer")
	}

	if len(args) != len(sig.ParamTypes) {
		return nil, report.Raise(report.MarshalError, "", "function takes %d arguments but %d were given", len(sig.ParamTypes), len(args))
	}

	// validate the arguments before any native memory is touched
	arrays := make([]*hostArray, len(args))
	scalars := make([]interp.Value, len(args))
	arenaSize := 0
	for i, arg := range args {
		if at, ok := sig.ParamTypes[i].(*types.ArrayType); ok {
			if arrays[i], err = newHostArray(arg, at); err != nil {
				return nil, err
			}

			arenaSize += arrays[i].size()
		} else if scalars[i], err = interp.Coerce(arg, sig.ParamTypes[i]); err != nil {
			return nil, err
		}
	}

	a, err := newArena(arenaSize)
	if err != nil {
		return nil, err
	}

	defer func() {
		if ferr := a.free(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	in := make([]reflect.Value, len(args))
	for i := range args {
		if arrays[i] != nil {
			arrays[i].stage(a)
			in[i] = reflect.ValueOf(a.addr(arrays[i].off))
		} else {
			in[i] = nativeScalar(scalars[i])
		}
	}

	fn := reflect.New(funcType(sig))
	purego.RegisterFunc(fn.Interface(), addr)
	out := fn.Elem().Call(in)

	for _, ha := range arrays {
		if ha != nil {
			ha.copyBack(a)
		}
	}

	return hostResult(out[0], sig.ReturnType, arrays, args, a)
}

// funcType returns the Go function type used to call a native function of the
// given signature.  Bools travel as bytes and arrays as raw addresses.
func funcType(sig *types.FuncType) reflect.Type {
	in := make([]reflect.Type, len(sig.ParamTypes))
	for i, pt := range sig.ParamTypes {
		in[i] = nativeType(pt)
	}

	return reflect.FuncOf(in, []reflect.Type{nativeType(sig.ReturnType)}, false)
}

// nativeType returns the Go type of a value of typ at the native boundary.
func nativeType(typ types.Type) reflect.Type {
	switch typ {
	case types.PrimTypeInt:
		return reflect.TypeOf(int32(0))
	case types.PrimTypeFloat:
		return reflect.TypeOf(float64(0))
	case types.PrimTypeBool:
		return reflect.TypeOf(uint8(0))
	}

	return reflect.TypeOf(uintptr(0))
}

// nativeScalar converts a coerced scalar into its native representation.
func nativeScalar(v interp.Value) reflect.Value {
	if b, ok := v.(bool); ok {
		if b {
			return reflect.ValueOf(uint8(1))
		}

		return reflect.ValueOf(uint8(0))
	}

	return reflect.ValueOf(v)
}

// hostResult converts the native result back into a host value.
func hostResult(out reflect.Value, typ types.Type, arrays []*hostArray, args []interface{}, a *arena) (interface{}, error) {
	switch typ {
	case types.PrimTypeInt:
		return int32(out.Int()), nil
	case types.PrimTypeFloat:
		return out.Float(), nil
	case types.PrimTypeBool:
		// only exactly 1 is true
		return out.Uint() == 1, nil
	}

	ptr := uintptr(out.Uint())
	if ptr == 0 {
		return nil, nil
	}

	for i, ha := range arrays {
		if ha != nil && a.addr(ha.off) == ptr {
			return args[i], nil
		}
	}

	return nil, report.Raise(report.MarshalError, "", "returned array does not refer to an argument")
}
