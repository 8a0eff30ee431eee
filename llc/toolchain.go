package llc

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/es1024/python-staged-programming/report"
)

// stage is a single native toolchain invocation which turns one file into
// another.
type stage struct {
	// The name of the stage used in error messages.
	name string

	// The tool to run.
	tool string

	// The arguments of the tool.  The output and input paths are appended.
	args []string

	// Arguments placed after the input path.  Linkers only pull in libraries
	// named after the objects that need them.
	libs []string
}

// pipeline returns the stages that turn an LLVM IR file into a shared object.
func (e *Engine) pipeline() []stage {
	optLevel := fmt.Sprintf("-O%d", e.tc.OptLevel)

	return []stage{
		{name: "optimize", tool: e.tc.Opt, args: []string{optLevel, "-S"}},
		{name: "compile", tool: e.tc.Llc, args: []string{optLevel, "-filetype=obj", "-relocation-model=pic"}},

		// Symbols from other units are left undefined: they are bound lazily
		// against the modules already loaded into the global scope.
		// Float remainder lowers to a call to fmod from libm.
		{name: "link", tool: e.tc.CC, args: []string{"-shared", "-Wl,-z,lazy"}, libs: []string{"-lm"}},
	}
}

// run runs the stage on the input file, producing the output file.
func (s stage) run(inPath, outPath string) error {
	args := append(append([]string{}, s.args...), "-o", outPath, inPath)
	args = append(args, s.libs...)
	cmd := exec.Command(s.tool, args...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Exit error => we were able to find the tool, but it rejected
			// its input.  We can just pass its output along.
			return report.Wrap(report.JITError, err, "%s failed:\n%s", s.name, strings.TrimSpace(string(out)))
		}

		// Some other error: probably couldn't find the tool.
		return report.Wrap(report.JITError, err, "failed to run `%s`", s.tool)
	}

	return nil
}

// Available reports whether every tool of the configured toolchain can be
// found on the PATH.
func (e *Engine) Available() bool {
	for _, s := range e.pipeline() {
		if _, err := exec.LookPath(s.tool); err != nil {
			return false
		}
	}

	return true
}
