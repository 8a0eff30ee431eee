package walk

import (
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/types"
)

// Registry gives the checker read access to the signatures of all declared and
// defined functions.
type Registry interface {
	// Lookup returns the signature registered under name.
	Lookup(name string) (*types.FuncType, bool)
}

// Walker is responsible for walking a function definition, assigning a type to
// every expression, inserting implicit casts and producing the function's
// signature.
type Walker struct {
	// The function being checked.
	fn *ir.FuncDef

	// The registry used to resolve calls.
	reg Registry

	// The symbol table of the function.  It is flat: a name assigned inside a
	// nested block remains visible after the block ends.
	symbols map[string]types.Type

	// The return type of the enclosing function.
	returnType types.Type

	// The stack of fresh name collectors for the enclosing `if` and `for`
	// statements.  A newly defined name is recorded in every collector.
	freshStack []*[]ir.Binding
}

// Check checks the function definition in place.  On success, fn.Signature is
// set.  All failures are returned as check errors.
func Check(fn *ir.FuncDef, reg Registry) (err error) {
	// Catch any errors that occur while walking the definition.
	defer report.CatchErrors(&err)

	w := &Walker{
		fn:      fn,
		reg:     reg,
		symbols: make(map[string]types.Type),
	}

	sig := w.walkSignature()

	if !w.walkBlock(fn.Body) {
		w.error(nil, "function `%s` may reach its end without returning", fn.Name)
	}

	fn.Signature = sig
	return nil
}

// Signature computes the signature of a function from its declared parameter
// and return types without checking its body.
func Signature(fn *ir.FuncDef) (*types.FuncType, error) {
	rt, err := types.Parse(fn.ReturnExpr)
	if err != nil {
		return nil, report.Wrap(report.CheckError, err, "bad return type of `%s`", fn.Name)
	}

	params := make([]types.Type, len(fn.Params))
	for i, param := range fn.Params {
		if params[i], err = types.Parse(param.TypeExpr); err != nil {
			return nil, report.Wrap(report.CheckError, err, "bad type for parameter `%s` of `%s`", param.Name, fn.Name)
		}
	}

	return types.NewFunc(rt, params...), nil
}

// walkSignature binds the parameters of the function and returns its
// signature.
func (w *Walker) walkSignature() *types.FuncType {
	sig, err := Signature(w.fn)
	if err != nil {
		panic(report.InUnit(err, w.fn.Name))
	}

	for i, param := range w.fn.Params {
		if _, ok := w.symbols[param.Name]; ok {
			w.error(nil, "multiple parameters named `%s`", param.Name)
		}

		w.symbols[param.Name] = sig.ParamTypes[i]
	}

	w.returnType = sig.ReturnType
	return sig
}

// -----------------------------------------------------------------------------

// lookup looks up the type of a local name.  If no name can be found, then an
// error is reported.
func (w *Walker) lookup(node ir.Node, name string) types.Type {
	if typ, ok := w.symbols[name]; ok {
		return typ
	}

	w.error(node, "reference to undeclared name `%s`", name)
	return nil
}

// define binds a fresh local name and records it in every enclosing fresh
// name collector.
func (w *Walker) define(name string, typ types.Type) {
	w.symbols[name] = typ

	for _, fresh := range w.freshStack {
		*fresh = append(*fresh, ir.Binding{Name: name, Type: typ})
	}
}

// pushFresh begins collecting the names defined inside a statement.
func (w *Walker) pushFresh() *[]ir.Binding {
	fresh := &[]ir.Binding{}
	w.freshStack = append(w.freshStack, fresh)
	return fresh
}

// popFresh ends the innermost fresh name collection.
func (w *Walker) popFresh() {
	w.freshStack = w.freshStack[:len(w.freshStack)-1]
}

// lookupFunc looks up the signature of a called function.
func (w *Walker) lookupFunc(node ir.Node, name string) *types.FuncType {
	if w.fn.Signature == nil && name == w.fn.Name {
		sig, _ := Signature(w.fn)
		return sig
	}

	if sig, ok := w.reg.Lookup(name); ok {
		return sig
	}

	w.error(node, "call to unregistered function `%s`", name)
	return nil
}

// -----------------------------------------------------------------------------

// error reports an error on the given node that aborts checking of the current
// function.
func (w *Walker) error(node ir.Node, msg string, args ...interface{}) {
	construct := ""
	if node != nil {
		construct = ir.Print(node)
	}

	cerr := report.Raise(report.CheckError, construct, msg, args...)
	cerr.Unit = w.fn.Name
	panic(cerr)
}

// warn reports a check warning.
func (w *Walker) warn(msg string, args ...interface{}) {
	report.ReportWarning("%s: "+msg, append([]interface{}{w.fn.Name}, args...)...)
}
