package interp

import (
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/report"
	"github.com/pkg/errors"
)

// Program resolves the functions a body calls.
type Program interface {
	// Function returns the checked definition of the named function.  It
	// fails for functions that are only declared or that are native.
	Function(name string) (*ir.FuncDef, error)
}

// maxCallDepth bounds the interpreter's recursion.
const maxCallDepth = 10000

// Interpreter is a tree-walking evaluator over checked IR.  Each active call
// has its own scope so recursive calls are independent.
type Interpreter struct {
	// The program used to resolve callees.
	prog Program

	// The current number of active calls.
	depth int
}

// New creates a new interpreter over the given program.
func New(prog Program) *Interpreter {
	return &Interpreter{prog: prog}
}

// frame is the scope of a single active call.
type frame struct {
	vars map[string]Value
}

// Call interprets fn with the given host arguments.  The function must have
// been checked.  Arguments are coerced to the parameter types and arrays are
// shared with the caller.
func (in *Interpreter) Call(fn *ir.FuncDef, args ...interface{}) (result Value, err error) {
	if !fn.Checked() {
		return nil, report.Raise(report.LifecycleError, "", "function `%s` has not been checked", fn.Name)
	}

	if len(args) != len(fn.Signature.ParamTypes) {
		return nil, report.Raise(report.MarshalError, "", "`%s` takes %d arguments but %d were given", fn.Name, len(fn.Signature.ParamTypes), len(args))
	}

	values := make([]Value, len(args))
	for i, arg := range args {
		if values[i], err = Coerce(arg, fn.Signature.ParamTypes[i]); err != nil {
			return nil, report.InUnit(err, fn.Name)
		}
	}

	defer func() {
		if x := recover(); x != nil {
			switch v := x.(type) {
			case *RuntimeError:
				err = errors.Wrapf(v, "interpreting %s", fn.Name)
			case error:
				err = v
			default:
				panic(x)
			}
		}
	}()

	return in.call(fn, values), nil
}

// call performs a call with already coerced arguments.
func (in *Interpreter) call(fn *ir.FuncDef, args []Value) Value {
	in.depth++
	defer func() { in.depth-- }()

	if in.depth > maxCallDepth {
		panic(runtimeError("maximum call depth exceeded in `%s`", fn.Name))
	}

	fr := &frame{vars: make(map[string]Value, len(args))}
	for i, param := range fn.Params {
		fr.vars[param.Name] = args[i]
	}

	if v, ok := in.execBlock(fr, fn.Body); ok {
		return v
	}

	// The checker rejects functions that can reach their end.
	panic(runtimeError("function `%s` finished without returning", fn.Name))
}

// callNamed resolves and calls a function by name.
func (in *Interpreter) callNamed(name string, args []Value) Value {
	fn, err := in.prog.Function(name)
	if err != nil {
		panic(err)
	}

	return in.call(fn, args)
}
