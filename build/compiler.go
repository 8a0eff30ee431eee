package build

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/es1024/python-staged-programming/config"
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/llc"
	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/types"
	"github.com/es1024/python-staged-programming/walk"
)

// contextCounter numbers compiler contexts so that the symbols of different
// contexts never collide in the process-wide symbol scope.
var contextCounter int64

// Compiler represents the global state of the compiler: the function registry,
// the compile units and the JIT engine.
type Compiler struct {
	// conf is the configuration the compiler was created with.
	conf *config.Config

	// id is the context number used to mangle symbol names.
	id int64

	// units is the function registry: a table of all declared and defined
	// functions organized by name.  Entries are never removed.
	units map[string]*Unit

	// anonymous lists the anonymous units.  These are never registered and so
	// cannot be called by other functions.
	anonymous []*Unit

	// engine is the JIT engine.  It is created the first time a unit is
	// compiled.
	engine *llc.Engine
}

// NewCompiler creates a new compiler context.  If conf is nil, the default
// configuration is used.
func NewCompiler(conf *config.Config) *Compiler {
	if conf == nil {
		conf = config.Default()
	}

	return &Compiler{
		conf:  conf,
		id:    atomic.AddInt64(&contextCounter, 1),
		units: make(map[string]*Unit),
	}
}

// Config returns the configuration of the compiler.
func (c *Compiler) Config() *config.Config {
	return c.conf
}

// Close releases the JIT engine and all loaded modules.  Compiled units must
// not be called after the compiler is closed.
func (c *Compiler) Close() error {
	if c.engine == nil {
		return nil
	}

	err := c.engine.Close()
	c.engine = nil
	return err
}

// -----------------------------------------------------------------------------

// Declare declares a function with the given signature without defining it.
// Redeclaring a function with the same signature returns the existing unit.
func (c *Compiler) Declare(name string, sig *types.FuncType) (*Unit, error) {
	if u, ok := c.units[name]; ok {
		if !types.Equals(u.Signature, sig) {
			return nil, c.lifecycleError(name, "conflicting declaration: `%s` was declared as %s but is now %s", name, u.Signature.Repr(), sig.Repr())
		}

		return u, nil
	}

	u := c.newUnit(name, sig)
	c.units[name] = u
	return u, nil
}

// DeclareNative declares a function provided by the native runtime such as
// `malloc`.  Native functions are never mangled or compiled and can only be
// called from compiled code.
func (c *Compiler) DeclareNative(name string, sig *types.FuncType) (*Unit, error) {
	if u, ok := c.units[name]; ok {
		if !u.Native || !types.Equals(u.Signature, sig) {
			return nil, c.lifecycleError(name, "conflicting native declaration of `%s`", name)
		}

		return u, nil
	}

	u := c.newUnit(name, sig)
	u.Native = true
	u.Symbol = name
	c.units[name] = u
	return u, nil
}

// Define defines a function.  If the function was declared, the signature of
// the definition must match the declaration.  The body is checked when the
// unit is first compiled or interpreted.
func (c *Compiler) Define(fn *ir.FuncDef) (*Unit, error) {
	sig, err := walk.Signature(fn)
	if err != nil {
		return nil, report.InUnit(err, fn.Name)
	}

	u, ok := c.units[fn.Name]
	if ok {
		switch {
		case u.Native:
			return nil, c.lifecycleError(fn.Name, "cannot define native function `%s`", fn.Name)
		case u.Def != nil:
			return nil, c.lifecycleError(fn.Name, "function `%s` is already defined", fn.Name)
		case !types.Equals(u.Signature, sig):
			return nil, c.lifecycleError(fn.Name, "definition of `%s` as %s does not match its declaration as %s", fn.Name, sig.Repr(), u.Signature.Repr())
		}
	} else {
		u = c.newUnit(fn.Name, sig)
		c.units[fn.Name] = u
	}

	u.Def = fn
	u.State = Defined
	return u, nil
}

// DefineAnonymous defines a function which is not added to the registry.  The
// unit is named `<anonymous_N>` regardless of the name of fn.
func (c *Compiler) DefineAnonymous(fn *ir.FuncDef) (*Unit, error) {
	name := fmt.Sprintf("<anonymous_%d>", len(c.anonymous))

	sig, err := walk.Signature(fn)
	if err != nil {
		return nil, report.InUnit(err, name)
	}

	fn.Name = name
	u := c.newUnit(name, sig)
	u.Def = fn
	u.State = Defined
	c.anonymous = append(c.anonymous, u)

	return u, nil
}

// Unit returns the registered unit with the given name.
func (c *Compiler) Unit(name string) (*Unit, bool) {
	u, ok := c.units[name]
	return u, ok
}

// Units returns all registered units sorted by name.
func (c *Compiler) Units() []*Unit {
	units := make([]*Unit, 0, len(c.units))
	for _, u := range c.units {
		units = append(units, u)
	}

	sort.Slice(units, func(i, j int) bool {
		return units[i].Name < units[j].Name
	})

	return units
}

// -----------------------------------------------------------------------------

// Lookup returns the signature of a registered function.
func (c *Compiler) Lookup(name string) (*types.FuncType, bool) {
	if u, ok := c.units[name]; ok {
		return u.Signature, true
	}

	return nil, false
}

// Resolve returns the signature and native symbol of a registered function.
func (c *Compiler) Resolve(name string) (*types.FuncType, string, bool) {
	if u, ok := c.units[name]; ok {
		return u.Signature, u.Symbol, true
	}

	return nil, "", false
}

// Function returns the checked definition of a registered function so that it
// can be interpreted.
func (c *Compiler) Function(name string) (*ir.FuncDef, error) {
	u, ok := c.units[name]
	if !ok {
		return nil, c.lifecycleError(name, "call to unregistered function `%s`", name)
	}

	if err := u.interpretable(); err != nil {
		return nil, err
	}

	if err := u.check(); err != nil {
		return nil, err
	}

	return u.Def, nil
}

// -----------------------------------------------------------------------------

// newUnit creates a new declared unit.
func (c *Compiler) newUnit(name string, sig *types.FuncType) *Unit {
	return &Unit{
		c:         c,
		Name:      name,
		Symbol:    c.mangle(name),
		Signature: sig,
		State:     Declared,
	}
}

// mangle returns the native symbol of a function defined in this context.
func (c *Compiler) mangle(name string) string {
	return fmt.Sprintf("c%d.%s", c.id, strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return '_'
		}

		return r
	}, name))
}

// getEngine returns the JIT engine, creating it if necessary.
func (c *Compiler) getEngine() (*llc.Engine, error) {
	if c.engine == nil {
		engine, err := llc.NewEngine(c.conf.Toolchain)
		if err != nil {
			return nil, err
		}

		c.engine = engine
	}

	return c.engine, nil
}

// lifecycleError creates a new lifecycle error for a unit.
func (c *Compiler) lifecycleError(unit, msg string, args ...interface{}) error {
	cerr := report.Raise(report.LifecycleError, "", msg, args...)
	cerr.Unit = unit
	return cerr
}
