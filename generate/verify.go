package generate

import (
	"github.com/es1024/python-staged-programming/report"

	llir "github.com/llir/llvm/ir"
)

// Verify checks the structural well-formedness of a generated module before it
// is handed to the optimizer: every defined function must have an entry block
// and every block must end in a terminator.
func Verify(mod *llir.Module) error {
	for _, fn := range mod.Funcs {
		// declarations have no body
		if len(fn.Blocks) == 0 {
			continue
		}

		for _, block := range fn.Blocks {
			if block.Term == nil {
				return report.Raise(report.BackendError, "", "block `%s` in `%s` has no terminator", block.Ident(), fn.Name())
			}
		}
	}

	return nil
}
