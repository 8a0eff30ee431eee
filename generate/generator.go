package generate

import (
	"fmt"
	"sort"

	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/types"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"
)

// Symbols resolves the functions called by the body being generated.
type Symbols interface {
	// Resolve returns the signature of the named function and the symbol name
	// under which its native code is (or will be) loaded.
	Resolve(name string) (sig *types.FuncType, symbol string, ok bool)
}

// valueMap maps each local name to its current SSA value within a block.
type valueMap map[string]value.Value

// clone returns a copy of the value map.
func (vm valueMap) clone() valueMap {
	c := make(valueMap, len(vm))
	for name, v := range vm {
		c[name] = v
	}

	return c
}

// names returns the names bound in the map in sorted order so that phi nodes
// are always emitted in the same order.
func (vm valueMap) names() []string {
	names := make([]string, 0, len(vm))
	for name := range vm {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// edge is a control flow edge into a join block along with the values of all
// names at the end of the predecessor.
type edge struct {
	block *llir.Block
	vals  valueMap
}

// -----------------------------------------------------------------------------

// Generator is responsible for converting a checked function into an LLVM
// module.  Every function is placed in its own module: calls to other
// functions are emitted against external declarations.
type Generator struct {
	// The checked function being converted.
	fn *ir.FuncDef

	// The symbols used to resolve callees.
	syms Symbols

	// mod is the LLVM module being generated.
	mod *llir.Module

	// enclosingFunc is the LLVM function being generated.
	enclosingFunc *llir.Func

	// decls stores the external declarations already added to the module,
	// keyed by symbol name.
	decls map[string]*llir.Func

	// vals stores the current SSA value of every local name.
	vals valueMap

	// block stores the current block being generated.
	block *llir.Block
}

// Generate converts the checked function fn into an LLVM module in which it is
// defined under the given symbol name.  This should always succeed for a
// checked function: any error here is a backend error.
func Generate(fn *ir.FuncDef, symbol string, syms Symbols) (mod *llir.Module, err error) {
	defer report.CatchErrors(&err)

	if !fn.Checked() {
		return nil, report.Raise(report.BackendError, "", "function `%s` has not been checked", fn.Name)
	}

	g := &Generator{
		fn:    fn,
		syms:  syms,
		mod:   llir.NewModule(),
		decls: make(map[string]*llir.Func),
		vals:  make(valueMap),
	}

	g.genFunc(symbol)
	return g.mod, nil
}

// genFunc generates the body of the function.
func (g *Generator) genFunc(symbol string) {
	sig := g.fn.Signature

	params := make([]*llir.Param, len(g.fn.Params))
	for i, param := range g.fn.Params {
		params[i] = llir.NewParam("arg."+param.Name, convType(sig.ParamTypes[i]))
	}

	g.enclosingFunc = g.mod.NewFunc(symbol, convType(sig.ReturnType), params...)
	g.enclosingFunc.Linkage = enum.LinkageExternal
	g.enclosingFunc.FuncAttrs = append(g.enclosingFunc.FuncAttrs, enum.FuncAttrNoUnwind)
	g.decls[symbol] = g.enclosingFunc

	g.block = g.enclosingFunc.NewBlock("entry")
	for i, param := range g.fn.Params {
		g.vals[param.Name] = params[i]
	}

	g.genBlock(g.fn.Body)

	// The checker guarantees every path returns, so whatever block generation
	// ends in is unreachable.
	g.block.NewUnreachable()
}

// declare returns the LLVM function for a callee, adding an external
// declaration to the module the first time it is referenced.
func (g *Generator) declare(call *ir.FuncCall) (*llir.Func, *types.FuncType) {
	sig, symbol, ok := g.syms.Resolve(call.Name)
	if !ok {
		g.error(call, "no native signature for `%s`", call.Name)
	}

	if decl, ok := g.decls[symbol]; ok {
		return decl, sig
	}

	params := make([]*llir.Param, len(sig.ParamTypes))
	for i, pt := range sig.ParamTypes {
		params[i] = llir.NewParam("", convType(pt))
	}

	decl := g.mod.NewFunc(symbol, convType(sig.ReturnType), params...)
	decl.Linkage = enum.LinkageExternal
	g.decls[symbol] = decl

	return decl, sig
}

// -----------------------------------------------------------------------------

// appendBlock adds a new basic block to the current function.  It does *not*
// set the current block to this new block.
func (g *Generator) appendBlock() *llir.Block {
	return g.enclosingFunc.NewBlock(fmt.Sprintf("bb%d", len(g.enclosingFunc.Blocks)))
}

// lookup returns the current value of a local name.
func (g *Generator) lookup(node ir.Node, name string) value.Value {
	if v, ok := g.vals[name]; ok {
		return v
	}

	g.error(node, "no value bound to `%s`", name)
	return nil
}

// error raises a backend error.  These should be unreachable for checked
// functions.
func (g *Generator) error(node ir.Node, msg string, args ...interface{}) {
	construct := ""
	if node != nil {
		construct = ir.Print(node)
	}

	cerr := report.Raise(report.BackendError, construct, msg, args...)
	cerr.Unit = g.fn.Name
	panic(cerr)
}
