package walk

import (
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/types"
)

// walkBlock walks a block of statements.  It returns whether every control
// path through the block ends in a return.
func (w *Walker) walkBlock(block *ir.Block) bool {
	returns := false

	for _, stmt := range block.Stmts {
		if returns {
			w.warn("unreachable statement `%s`", ir.Print(stmt))
		}

		if w.walkStmt(stmt) {
			returns = true
		}
	}

	return returns
}

// walkStmt walks a statement and returns whether it always returns.
func (w *Walker) walkStmt(stmt ir.Stmt) bool {
	switch v := stmt.(type) {
	case *ir.Block:
		return w.walkBlock(v)
	case *ir.Assign:
		w.walkAssign(v)
	case *ir.If:
		return w.walkIf(v)
	case *ir.For:
		w.walkFor(v)
	case *ir.Return:
		w.walkReturn(v)
		return true
	default:
		w.error(stmt, "unsupported statement")
	}

	return false
}

// walkAssign walks an assignment.  Assigning to a fresh name binds it with the
// type of the value.  Assigning to an existing name or array slot requires the
// types to be equal: there is no implicit widening on the left.
func (w *Walker) walkAssign(as *ir.Assign) {
	valType := w.walkExpr(as.Value)

	if !as.Target.Indexed() {
		if typ, ok := w.symbols[as.Target.Name]; ok {
			if !types.Equals(typ, valType) {
				w.error(as, "cannot assign value of type %s to `%s` of type %s", valType.Repr(), as.Target.Name, typ.Repr())
			}
		} else {
			w.define(as.Target.Name, valType)
		}

		as.Target.SetType(valType)
		return
	}

	slotType := w.walkRef(as.Target)
	if !types.Equals(slotType, valType) {
		w.error(as, "cannot store value of type %s into element of type %s", valType.Repr(), slotType.Repr())
	}
}

// walkIf walks an if statement.  The statement returns only if both of its
// arms return.
func (w *Walker) walkIf(ifStmt *ir.If) bool {
	condType := w.walkExpr(ifStmt.Cond)
	if _, ok := condType.(*types.ArrayType); ok {
		w.error(ifStmt.Cond, "condition must be a scalar, not %s", condType.Repr())
	}

	fresh := w.pushFresh()
	defer w.popFresh()

	thenReturns := w.walkBlock(ifStmt.Then)

	elseReturns := false
	if ifStmt.Else != nil {
		elseReturns = w.walkBlock(ifStmt.Else)
	}

	ifStmt.Fresh = *fresh
	return thenReturns && elseReturns
}

// walkFor walks a for loop.  A loop never counts as returning since its body
// may run zero times.
func (w *Walker) walkFor(forStmt *ir.For) {
	minType := w.walkExpr(forStmt.Min)
	maxType := w.walkExpr(forStmt.Max)

	if !types.Equals(minType, types.PrimTypeInt) || !types.Equals(maxType, types.PrimTypeInt) {
		w.error(forStmt, "range bounds must be int, not %s and %s", minType.Repr(), maxType.Repr())
	}

	fresh := w.pushFresh()
	defer w.popFresh()

	if typ, ok := w.symbols[forStmt.Var]; ok {
		if !types.Equals(typ, types.PrimTypeInt) {
			w.error(forStmt, "loop variable `%s` already has type %s", forStmt.Var, typ.Repr())
		}
	} else {
		w.define(forStmt.Var, types.PrimTypeInt)
	}

	w.walkBlock(forStmt.Body)

	forStmt.Fresh = *fresh
}

// walkReturn walks a return statement.
func (w *Walker) walkReturn(ret *ir.Return) {
	typ := w.walkExpr(ret.Value)

	if !types.Equals(typ, w.returnType) {
		w.error(ret, "cannot return %s from function returning %s", typ.Repr(), w.returnType.Repr())
	}
}
