package build

import (
	"github.com/es1024/python-staged-programming/generate"
	"github.com/es1024/python-staged-programming/interp"
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/marshal"
	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/types"
	"github.com/es1024/python-staged-programming/walk"
)

// State is the lifecycle state of a compile unit.
type State int

// Enumeration of unit states.  A unit only ever moves forward through these
// states except when compilation fails, in which case it returns to Defined.
const (
	Declared State = iota
	Defined
	Compiling
	Compiled
)

func (s State) String() string {
	switch s {
	case Declared:
		return "declared"
	case Defined:
		return "defined"
	case Compiling:
		return "compiling"
	default:
		return "compiled"
	}
}

// Unit is a single function known to the compiler.
type Unit struct {
	c *Compiler

	// The name of the function.
	Name string

	// The native symbol of the function.
	Symbol string

	// The signature of the function.
	Signature *types.FuncType

	// The lifecycle state of the unit.
	State State

	// Whether the function is provided by the native runtime.
	Native bool

	// The definition of the function.  It is checked in place the first time
	// the unit is compiled or interpreted.
	Def *ir.FuncDef

	// The LLVM IR text of the compiled module.
	LLVM string

	// The address of the loaded native function.
	addr uintptr
}

// Compile compiles the unit and loads it into the process.  Every function it
// calls is compiled first.  Compiling a unit which is already being compiled
// does nothing: this happens for recursive calls.
func (u *Unit) Compile() error {
	switch {
	case u.Native:
		return u.c.lifecycleError(u.Name, "native function `%s` cannot be compiled", u.Name)
	case u.State == Declared:
		return u.c.lifecycleError(u.Name, "function only declared, not defined")
	case u.State == Compiled:
		return u.c.lifecycleError(u.Name, "already compiled")
	case u.State == Compiling:
		return nil
	}

	if err := u.compile(); err != nil {
		return err
	}

	// Symbols deferred for recursive calls are bound now that every unit
	// reachable from this one is loaded.
	return u.c.engine.Resolve()
}

// compile runs the full compilation of a defined unit.
func (u *Unit) compile() (err error) {
	u.State = Compiling
	defer func() {
		if err != nil {
			u.State = Defined
		}
	}()

	for _, name := range ir.Callees(u.Def) {
		callee, ok := u.c.units[name]
		if !ok || callee == u || callee.Native {
			// unregistered callees are reported by the checker
			continue
		}

		switch callee.State {
		case Declared:
			return u.c.lifecycleError(u.Name, "callee `%s` is only declared, not defined", name)
		case Defined:
			if err := callee.compile(); err != nil {
				return err
			}
		}
	}

	// Callees still being compiled further up the call chain are loaded after
	// this unit.
	var deferred []string
	for _, name := range ir.Callees(u.Def) {
		if callee, ok := u.c.units[name]; ok && callee != u && callee.State == Compiling {
			deferred = append(deferred, callee.Symbol)
		}
	}

	if err := u.check(); err != nil {
		return err
	}

	report.BeginPhase("Generating")
	mod, err := generate.Generate(u.Def, u.Symbol, u.c)
	report.EndPhase(err == nil)
	if err != nil {
		return report.InUnit(err, u.Name)
	}

	u.LLVM = mod.String()
	if u.c.conf.Log.DumpLLVM {
		report.ReportDump("LLVM: "+u.Name, u.LLVM)
	}

	engine, err := u.c.getEngine()
	if err != nil {
		return report.InUnit(err, u.Name)
	}

	report.BeginPhase("Loading")
	addr, err := engine.Load(mod, u.Name, u.Symbol, deferred...)
	report.EndPhase(err == nil)
	if err != nil {
		return err
	}

	u.addr = addr
	u.State = Compiled
	return nil
}

// check type checks the definition of the unit if it has not been checked.
func (u *Unit) check() error {
	if u.Def.Checked() {
		return nil
	}

	report.BeginPhase("Checking")
	err := walk.Check(u.Def, u.c)
	report.EndPhase(err == nil)
	if err != nil {
		return report.InUnit(err, u.Name)
	}

	if u.c.conf.Log.DumpIR {
		report.ReportDump("IR: "+u.Name, ir.PrintTyped(u.Def))
	}

	return nil
}

// interpretable returns an error if the unit has no definition to run.
func (u *Unit) interpretable() error {
	if u.Native {
		return u.c.lifecycleError(u.Name, "native function `%s` cannot be called from the host", u.Name)
	}

	if u.Def == nil {
		return u.c.lifecycleError(u.Name, "function only declared, not defined")
	}

	return nil
}

// Call calls the native code of the unit, compiling it first if necessary.
func (u *Unit) Call(args ...interface{}) (interface{}, error) {
	if err := u.interpretable(); err != nil {
		return nil, err
	}

	if u.State != Compiled {
		if err := u.Compile(); err != nil {
			return nil, err
		}
	} else if u.c.engine == nil {
		return nil, u.c.lifecycleError(u.Name, "compiler is closed")
	} else if err := u.c.engine.Resolve(); err != nil {
		// a failed compile may have left a loaded callee referring to a
		// unit that was never loaded
		return nil, err
	}

	result, err := marshal.Call(u.addr, u.Signature, args...)
	if err != nil {
		return nil, report.InUnit(err, u.Name)
	}

	return result, nil
}

// Interpret runs the unit using the interpreter.  Calls to other functions are
// interpreted as well.
func (u *Unit) Interpret(args ...interface{}) (interface{}, error) {
	if err := u.interpretable(); err != nil {
		return nil, err
	}

	if err := u.check(); err != nil {
		return nil, err
	}

	return interp.New(u.c).Call(u.Def, args...)
}

// Checked returns the checked definition of the unit.
func (u *Unit) Checked() (*ir.FuncDef, error) {
	if err := u.interpretable(); err != nil {
		return nil, err
	}

	if err := u.check(); err != nil {
		return nil, err
	}

	return u.Def, nil
}
