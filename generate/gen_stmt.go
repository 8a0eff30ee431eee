package generate

import (
	"github.com/es1024/python-staged-programming/ir"
)

// genBlock generates a block of statements.
func (g *Generator) genBlock(block *ir.Block) {
	for _, stmt := range block.Stmts {
		g.genStmt(stmt)
	}
}

// genStmt generates a single statement.
func (g *Generator) genStmt(stmt ir.Stmt) {
	switch v := stmt.(type) {
	case *ir.Block:
		g.genBlock(v)
	case *ir.Assign:
		g.genAssign(v)
	case *ir.If:
		g.genIf(v)
	case *ir.For:
		g.genFor(v)
	case *ir.Return:
		g.block.NewRet(g.genExpr(v.Value))

		// Anything after a return is still generated but into a block which
		// has no predecessors.
		g.block = g.appendBlock()
	default:
		g.error(stmt, "unsupported statement")
	}
}

// genAssign generates an assignment.  Plain names are simply rebound to their
// new SSA value: only indexed targets touch memory.
func (g *Generator) genAssign(as *ir.Assign) {
	val := g.genExpr(as.Value)

	if !as.Target.Indexed() {
		g.vals[as.Target.Name] = val
		return
	}

	g.block.NewStore(val, g.genAddress(as.Target))
}

// bindFresh binds every name first assigned inside a control flow statement
// to its zero value.  Names which are already bound keep their value.
func (g *Generator) bindFresh(fresh []ir.Binding) {
	for _, b := range fresh {
		if _, ok := g.vals[b.Name]; !ok {
			g.vals[b.Name] = zeroValue(convType(b.Type))
		}
	}
}
