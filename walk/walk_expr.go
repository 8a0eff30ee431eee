package walk

import (
	"github.com/es1024/python-staged-programming/common"
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/types"
)

// walkExpr walks an expression, sets its type and returns that type.
func (w *Walker) walkExpr(expr ir.Expr) types.Type {
	var typ types.Type

	switch v := expr.(type) {
	case *ir.IntConst:
		typ = types.PrimTypeInt
	case *ir.FloatConst:
		typ = types.PrimTypeFloat
	case *ir.BoolConst:
		typ = types.PrimTypeBool
	case *ir.Ref:
		typ = w.walkRef(v)
	case *ir.UnOp:
		typ = w.walkUnOp(v)
	case *ir.BinOp:
		typ = w.walkBinOp(v)
	case *ir.CmpOp:
		typ = w.walkCmpOp(v)
	case *ir.CastToInt:
		if srcType := w.walkExpr(v.Src); !types.Equals(srcType, types.PrimTypeFloat) {
			w.error(v, "can only cast float to int, not %s", srcType.Repr())
		}
		typ = types.PrimTypeInt
	case *ir.CastToFloat:
		srcType := w.walkExpr(v.Src)
		if !types.Equals(srcType, types.PrimTypeInt) && !types.Equals(srcType, types.PrimTypeBool) {
			w.error(v, "can only cast int or bool to float, not %s", srcType.Repr())
		}
		typ = types.PrimTypeFloat
	case *ir.FuncCall:
		typ = w.walkCall(v)
	case *ir.ArrayLiteral:
		typ = w.walkArrayLiteral(v)
	default:
		w.error(expr, "unsupported expression")
	}

	expr.SetType(typ)
	return typ
}

// walkRef walks a plain or indexed reference.
func (w *Walker) walkRef(ref *ir.Ref) types.Type {
	typ := w.lookup(ref, ref.Name)

	if len(ref.Indices) > 2 {
		w.error(ref, "at most two levels of indexing are supported")
	}

	for _, index := range ref.Indices {
		elem, ok := types.ElemOf(typ)
		if !ok {
			w.error(ref, "cannot index `%s` of type %s", ref.Name, typ.Repr())
		}

		if indexType := w.walkExpr(index); !types.Equals(indexType, types.PrimTypeInt) {
			w.error(index, "index must be int, not %s", indexType.Repr())
		}

		typ = elem
	}

	ref.SetType(typ)
	return typ
}

// walkUnOp walks a unary operator application.
func (w *Walker) walkUnOp(unop *ir.UnOp) types.Type {
	operandType := w.walkExpr(unop.Operand)

	if unop.Op == ir.OpNeg {
		if !types.IsNumeric(operandType) {
			w.error(unop, "cannot negate value of type %s", operandType.Repr())
		}

		return operandType
	}

	if _, ok := operandType.(*types.ArrayType); ok {
		w.error(unop, "cannot apply `not` to value of type %s", operandType.Repr())
	}

	return types.PrimTypeBool
}

// walkBinOp walks an arithmetic or logical binary operator application.
func (w *Walker) walkBinOp(binop *ir.BinOp) types.Type {
	lhsType := w.walkExpr(binop.Lhs)
	rhsType := w.walkExpr(binop.Rhs)

	if binop.Op.IsLogical() {
		if !types.Equals(lhsType, types.PrimTypeBool) || !types.Equals(rhsType, types.PrimTypeBool) {
			w.error(binop, "operands of a logical operator must be bool, not %s and %s", lhsType.Repr(), rhsType.Repr())
		}

		return types.PrimTypeBool
	}

	if !types.IsNumeric(lhsType) || !types.IsNumeric(rhsType) {
		w.error(binop, "arithmetic is not supported between %s and %s", lhsType.Repr(), rhsType.Repr())
	}

	// Division has no integer form: both sides are promoted.
	if binop.Op == ir.OpDiv {
		binop.Lhs = w.promote(binop.Lhs)
		binop.Rhs = w.promote(binop.Rhs)
		return types.PrimTypeFloat
	}

	return w.unify(&binop.Lhs, &binop.Rhs)
}

// walkCmpOp walks a comparison.
func (w *Walker) walkCmpOp(cmp *ir.CmpOp) types.Type {
	lhsType := w.walkExpr(cmp.Lhs)
	rhsType := w.walkExpr(cmp.Rhs)

	lhsBool := types.Equals(lhsType, types.PrimTypeBool)
	rhsBool := types.Equals(rhsType, types.PrimTypeBool)

	switch {
	case lhsBool && rhsBool:
	case lhsBool || rhsBool:
		w.error(cmp, "cannot compare %s with %s", lhsType.Repr(), rhsType.Repr())
	case types.IsNumeric(lhsType) && types.IsNumeric(rhsType):
		w.unify(&cmp.Lhs, &cmp.Rhs)
	default:
		w.error(cmp, "cannot compare %s with %s", lhsType.Repr(), rhsType.Repr())
	}

	return types.PrimTypeBool
}

// walkCall walks a function call.  Arguments must match the parameter types
// exactly except that an int argument is promoted to a float parameter.
func (w *Walker) walkCall(call *ir.FuncCall) types.Type {
	if common.IsBuiltin(call.Name) {
		return w.walkBuiltinCall(call)
	}

	sig := w.lookupFunc(call, call.Name)
	if len(sig.ParamTypes) != len(call.Args) {
		w.error(call, "`%s` takes %d arguments but %d were given", call.Name, len(sig.ParamTypes), len(call.Args))
	}

	for i, arg := range call.Args {
		argType := w.walkExpr(arg)
		paramType := sig.ParamTypes[i]

		switch {
		case types.Equals(argType, paramType):
		case types.Equals(argType, types.PrimTypeInt) && types.Equals(paramType, types.PrimTypeFloat):
			call.Args[i] = w.promote(arg)
		default:
			w.error(arg, "argument %d of `%s` must be %s, not %s", i+1, call.Name, paramType.Repr(), argType.Repr())
		}
	}

	return sig.ReturnType
}

// walkBuiltinCall walks a call to one of the builtin array constructors.
func (w *Walker) walkBuiltinCall(call *ir.FuncCall) types.Type {
	if len(call.Args) != 1 {
		w.error(call, "`%s` takes exactly one argument", call.Name)
	}

	if lenType := w.walkExpr(call.Args[0]); !types.Equals(lenType, types.PrimTypeInt) {
		w.error(call, "array length must be int, not %s", lenType.Repr())
	}

	switch call.Name {
	case common.BuiltinIntArray:
		return types.NewArray(types.PrimTypeInt)
	case common.BuiltinFloatArray:
		return types.NewArray(types.PrimTypeFloat)
	default:
		return types.NewArray(types.PrimTypeBool)
	}
}

// walkArrayLiteral walks an array literal.  The literal must be non-empty and
// all of its elements must have the same type.
func (w *Walker) walkArrayLiteral(lit *ir.ArrayLiteral) types.Type {
	if len(lit.Elems) == 0 {
		w.error(lit, "array literal must not be empty")
	}

	elemType := w.walkExpr(lit.Elems[0])
	for _, elem := range lit.Elems[1:] {
		if typ := w.walkExpr(elem); !types.Equals(typ, elemType) {
			w.error(lit, "array literal mixes %s and %s elements", elemType.Repr(), typ.Repr())
		}
	}

	return types.NewArray(elemType)
}
