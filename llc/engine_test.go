package llc

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/ebitengine/purego"
	"github.com/es1024/python-staged-programming/config"
	"github.com/es1024/python-staged-programming/report"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
)

func testToolchain(t *testing.T) config.ToolchainConfig {
	t.Helper()

	tc := config.Default().Toolchain
	tc.WorkDir = t.TempDir()
	return tc
}

// answerModule returns a module defining `symbol() -> i32` which returns 42.
func answerModule(symbol string) *llir.Module {
	mod := llir.NewModule()
	fn := mod.NewFunc(symbol, lltypes.I32)
	fn.NewBlock("entry").NewRet(constant.NewInt(lltypes.I32, 42))
	return mod
}

func TestWorkDir(t *testing.T) {
	tc := testToolchain(t)

	e, err := NewEngine(tc)
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Dir(e.WorkDir()) != tc.WorkDir {
		t.Errorf("work directory %s is not under %s", e.WorkDir(), tc.WorkDir)
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(e.WorkDir()); !os.IsNotExist(err) {
		t.Errorf("work directory was not removed: %v", err)
	}
}

func TestKeepTemps(t *testing.T) {
	tc := testToolchain(t)
	tc.KeepTemps = true

	e, err := NewEngine(tc)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(e.WorkDir()); err != nil {
		t.Errorf("work directory was removed: %v", err)
	}
}

func TestLoadUnverified(t *testing.T) {
	e, err := NewEngine(testToolchain(t))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	mod := llir.NewModule()
	mod.NewFunc("broken", lltypes.I32).NewBlock("entry")

	if _, err := e.Load(mod, "broken", "broken"); !report.IsKind(err, report.BackendError) {
		t.Errorf("loading an unterminated module: got %v", err)
	}
}

func TestLoadToolFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("`false` is not installed")
	}

	tc := testToolchain(t)
	tc.Opt = "false"

	e, err := NewEngine(tc)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if _, err := e.Load(answerModule("answer"), "answer", "answer"); !report.IsKind(err, report.JITError) {
		t.Errorf("failing optimizer: got %v", err)
	}

	if e.Loaded() != 0 {
		t.Errorf("%d modules loaded after a failure", e.Loaded())
	}
}

func TestLoadMissingTool(t *testing.T) {
	tc := testToolchain(t)
	tc.Llc = "stencilc-no-such-tool"

	e, err := NewEngine(tc)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if e.Available() {
		t.Error("engine with a missing tool reports itself available")
	}
}

func TestLoad(t *testing.T) {
	tc := testToolchain(t)

	e, err := NewEngine(tc)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if !e.Available() {
		t.Skip("native toolchain is not installed")
	}

	addr, err := e.Load(answerModule("llctest.answer"), "<answer>", "llctest.answer")
	if err != nil {
		t.Fatal(err)
	}

	var answer func() int32
	purego.RegisterFunc(&answer, addr)

	if got := answer(); got != 42 {
		t.Errorf("answer() = %d, want 42", got)
	}

	if e.Loaded() != 1 {
		t.Errorf("Loaded() = %d, want 1", e.Loaded())
	}

	// intermediate files are removed once the module is loaded
	entries, err := os.ReadDir(e.WorkDir())
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 0 {
		t.Errorf("%d files left in the work directory", len(entries))
	}
}

// callerModule returns a module defining `symbol() -> i32` which returns the
// result of calling the external function callee.
func callerModule(symbol, callee string) *llir.Module {
	mod := llir.NewModule()
	ext := mod.NewFunc(callee, lltypes.I32)
	fn := mod.NewFunc(symbol, lltypes.I32)

	entry := fn.NewBlock("entry")
	entry.NewRet(entry.NewCall(ext))
	return mod
}

func TestLoadUndefinedSymbol(t *testing.T) {
	e, err := NewEngine(testToolchain(t))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if !e.Available() {
		t.Skip("native toolchain is not installed")
	}

	_, err = e.Load(callerModule("llctest.caller", "llctest_no_such_function"), "caller", "llctest.caller")
	if !report.IsKind(err, report.JITError) {
		t.Errorf("loading a module with an undefined callee: got %v", err)
	}

	if e.Loaded() != 0 {
		t.Errorf("%d modules loaded after an undefined symbol", e.Loaded())
	}
}

func TestLoadDeferredSymbol(t *testing.T) {
	e, err := NewEngine(testToolchain(t))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if !e.Available() {
		t.Skip("native toolchain is not installed")
	}

	addr, err := e.Load(callerModule("llctest.late_caller", "llctest.late"), "caller", "llctest.late_caller", "llctest.late")
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Resolve(); !report.IsKind(err, report.JITError) {
		t.Errorf("resolving before the callee is loaded: got %v", err)
	}

	if _, err := e.Load(answerModule("llctest.late"), "late", "llctest.late"); err != nil {
		t.Fatal(err)
	}

	if err := e.Resolve(); err != nil {
		t.Fatalf("resolving after the callee is loaded: %s", err)
	}

	var caller func() int32
	purego.RegisterFunc(&caller, addr)

	if got := caller(); got != 42 {
		t.Errorf("caller() = %d, want 42", got)
	}
}

func TestLoadFloatRemainder(t *testing.T) {
	e, err := NewEngine(testToolchain(t))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if !e.Available() {
		t.Skip("native toolchain is not installed")
	}

	// frem on variables is lowered to a call to fmod
	mod := llir.NewModule()
	x, y := llir.NewParam("x", lltypes.Double), llir.NewParam("y", lltypes.Double)
	fn := mod.NewFunc("llctest.rem", lltypes.Double, x, y)
	entry := fn.NewBlock("entry")
	entry.NewRet(entry.NewFRem(x, y))

	addr, err := e.Load(mod, "rem", "llctest.rem")
	if err != nil {
		t.Fatal(err)
	}

	var rem func(float64, float64) float64
	purego.RegisterFunc(&rem, addr)

	if got := rem(-7.5, 2); got != -1.5 {
		t.Errorf("rem(-7.5, 2) = %v, want -1.5", got)
	}
}

func TestFileName(t *testing.T) {
	if got := fileName("<anonymous_3>"); got != "_anonymous_3_" {
		t.Errorf("fileName() = %q", got)
	}
}
