package llc

import (
	"debug/elf"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/es1024/python-staged-programming/config"
	"github.com/es1024/python-staged-programming/generate"
	"github.com/es1024/python-staged-programming/report"
	"github.com/pkg/errors"

	llir "github.com/llir/llvm/ir"
)

// Engine is the JIT module manager.  It turns generated LLVM modules into
// shared objects using the native toolchain and loads them into the process.
// Every module is loaded into the global symbol scope with lazy binding so
// that modules can call functions defined in modules loaded after them.
type Engine struct {
	// The toolchain configuration.
	tc config.ToolchainConfig

	// The directory in which all intermediate files are placed.
	workDir string

	// The handles of all the loaded shared objects.
	handles []uintptr

	// Symbols referenced by loaded modules which were allowed to remain
	// unresolved at load time, mapped to the unit referencing them.
	pending map[string]string

	// The mutex guarding the engine state.
	m sync.Mutex
}

// NewEngine creates a new engine with its own work directory.
func NewEngine(tc config.ToolchainConfig) (*Engine, error) {
	if tc.WorkDir != "" {
		if err := os.MkdirAll(tc.WorkDir, 0755); err != nil {
			return nil, report.Wrap(report.JITError, err, "failed to create work directory")
		}
	}

	workDir, err := os.MkdirTemp(tc.WorkDir, "stencilc-")
	if err != nil {
		return nil, report.Wrap(report.JITError, err, "failed to create work directory")
	}

	return &Engine{tc: tc, workDir: workDir, pending: make(map[string]string)}, nil
}

// WorkDir returns the directory holding the engine's intermediate files.
func (e *Engine) WorkDir() string {
	return e.workDir
}

// Loaded returns the number of modules loaded by the engine.
func (e *Engine) Loaded() int {
	e.m.Lock()
	defer e.m.Unlock()

	return len(e.handles)
}

// Load compiles mod into a shared object, loads it and returns the address of
// symbol within it.  unit is the name used for the intermediate files.  Every
// symbol the shared object leaves undefined must already be resolvable except
// for those listed in deferred: these belong to units which are still being
// compiled and are checked by Resolve.  If any stage fails, the modules
// already loaded are not affected.
func (e *Engine) Load(mod *llir.Module, unit, symbol string, deferred ...string) (uintptr, error) {
	if err := generate.Verify(mod); err != nil {
		return 0, report.InUnit(err, unit)
	}

	e.m.Lock()
	defer e.m.Unlock()

	base := filepath.Join(e.workDir, fmt.Sprintf("m%d_%s", len(e.handles), fileName(unit)))
	paths := []string{base + ".ll", base + ".opt.ll", base + ".o", base + ".so"}

	if err := os.WriteFile(paths[0], []byte(mod.String()), 0644); err != nil {
		return 0, report.InUnit(report.Wrap(report.JITError, err, "failed to write module"), unit)
	}

	for i, s := range e.pipeline() {
		if err := s.run(paths[i], paths[i+1]); err != nil {
			return 0, report.InUnit(err, unit)
		}
	}

	undefined, err := undefinedSymbols(paths[3])
	if err != nil {
		return 0, report.InUnit(err, unit)
	}

	handle, err := purego.Dlopen(paths[3], purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, report.InUnit(report.Wrap(report.JITError, err, "failed to load shared object"), unit)
	}

	addr, err := purego.Dlsym(handle, symbol)
	if err != nil {
		purego.Dlclose(handle)
		return 0, report.InUnit(report.Wrap(report.JITError, err, "symbol `%s` not found", symbol), unit)
	}

	// A symbol that cannot be bound would abort the process on the first
	// call that reaches it, so every undefined symbol is resolved up front.
	var later []string
	for _, name := range undefined {
		if contains(deferred, name) {
			later = append(later, name)
		} else if !e.resolvable(handle, name) {
			purego.Dlclose(handle)
			return 0, report.InUnit(report.Raise(report.JITError, "", "undefined symbol `%s`", name), unit)
		}
	}

	e.handles = append(e.handles, handle)
	for _, name := range later {
		e.pending[name] = unit
	}

	// The loaded object no longer needs its files.
	if !e.tc.KeepTemps {
		for _, path := range paths {
			os.Remove(path)
		}
	}

	return addr, nil
}

// Resolve checks that every symbol deferred by Load can now be bound.  The
// symbols which remain unresolved stay pending and are reported in the error.
func (e *Engine) Resolve() error {
	e.m.Lock()
	defer e.m.Unlock()

	var missing []string
	for name := range e.pending {
		if e.resolvable(0, name) {
			delete(e.pending, name)
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	cerr := report.Raise(report.JITError, "", "undefined symbol `%s`", missing[0])
	cerr.Unit = e.pending[missing[0]]
	return cerr
}

// resolvable reports whether name can be bound from the dependencies of
// handle or from the global symbol scope.
func (e *Engine) resolvable(handle uintptr, name string) bool {
	if handle != 0 {
		if _, err := purego.Dlsym(handle, name); err == nil {
			return true
		}
	}

	// the global scope includes every module loaded with RTLD_GLOBAL
	_, err := purego.Dlsym(purego.RTLD_DEFAULT, name)
	return err == nil
}

// undefinedSymbols returns the strong undefined dynamic symbols of the shared
// object at path.  Weak references may legitimately stay unbound.
func undefinedSymbols(path string) ([]string, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, report.Wrap(report.JITError, err, "failed to read shared object")
	}
	defer f.Close()

	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil, report.Wrap(report.JITError, err, "failed to read dynamic symbols")
	}

	var names []string
	for _, sym := range syms {
		if sym.Section == elf.SHN_UNDEF && elf.ST_BIND(sym.Info) != elf.STB_WEAK && sym.Name != "" {
			names = append(names, sym.Name)
		}
	}

	return names, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}

// Close unloads every module and removes the work directory unless temporary
// files are to be kept.
func (e *Engine) Close() error {
	e.m.Lock()
	defer e.m.Unlock()

	var firstErr error
	for _, handle := range e.handles {
		if err := purego.Dlclose(handle); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "failed to unload module")
		}
	}
	e.handles = nil
	e.pending = make(map[string]string)

	if !e.tc.KeepTemps {
		if err := os.RemoveAll(e.workDir); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "failed to remove work directory")
		}
	}

	return firstErr
}

// fileName converts a unit name into a string usable in a file name.
func fileName(unit string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}

		return '_'
	}, unit)
}
