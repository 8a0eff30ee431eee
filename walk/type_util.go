package walk

import (
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/types"
)

// promote wraps an int expression in an implicit cast to float.  Float
// expressions are returned unchanged.
func (w *Walker) promote(expr ir.Expr) ir.Expr {
	if types.Equals(expr.Type(), types.PrimTypeFloat) {
		return expr
	}

	cast := &ir.CastToFloat{Src: expr}
	cast.SetType(types.PrimTypeFloat)
	return cast
}

// unify applies numeric promotion to a pair of numeric operands: if either is a
// float, the other is promoted.  It returns the common type.
func (w *Walker) unify(lhs, rhs *ir.Expr) types.Type {
	if types.Equals((*lhs).Type(), types.PrimTypeInt) && types.Equals((*rhs).Type(), types.PrimTypeInt) {
		return types.PrimTypeInt
	}

	*lhs = w.promote(*lhs)
	*rhs = w.promote(*rhs)
	return types.PrimTypeFloat
}
