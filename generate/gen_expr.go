package generate

import (
	"github.com/es1024/python-staged-programming/common"
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/types"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genExpr generates an expression and returns its value.
func (g *Generator) genExpr(expr ir.Expr) value.Value {
	switch v := expr.(type) {
	case *ir.IntConst:
		return constant.NewInt(lltypes.I32, int64(v.Value))
	case *ir.FloatConst:
		return constant.NewFloat(lltypes.Double, v.Value)
	case *ir.BoolConst:
		return constant.NewBool(v.Value)
	case *ir.Ref:
		if !v.Indexed() {
			return g.lookup(v, v.Name)
		}

		return g.block.NewLoad(convType(v.Type()), g.genAddress(v))
	case *ir.UnOp:
		return g.genUnOp(v)
	case *ir.BinOp:
		if v.Op.IsLogical() {
			return g.genLogical(v)
		}

		return g.genBinOp(v)
	case *ir.CmpOp:
		return g.genCmpOp(v)
	case *ir.CastToInt:
		return g.block.NewFPToSI(g.genExpr(v.Src), lltypes.I32)
	case *ir.CastToFloat:
		src := g.genExpr(v.Src)
		if types.Equals(v.Src.Type(), types.PrimTypeBool) {
			return g.block.NewUIToFP(src, lltypes.Double)
		}

		return g.block.NewSIToFP(src, lltypes.Double)
	case *ir.FuncCall:
		if common.IsBuiltin(v.Name) {
			return g.genBuiltinArray(v)
		}

		return g.genCall(v)
	case *ir.ArrayLiteral:
		return g.genArrayLiteral(v)
	}

	g.error(expr, "unsupported expression")
	return nil
}

// genCond generates an expression converted to a bool.  Ints and floats are
// true when they are nonzero.
func (g *Generator) genCond(expr ir.Expr) value.Value {
	val := g.genExpr(expr)

	switch expr.Type() {
	case types.PrimTypeInt:
		return g.block.NewICmp(enum.IPredNE, val, constant.NewInt(lltypes.I32, 0))
	case types.PrimTypeFloat:
		return g.block.NewFCmp(enum.FPredUNE, val, constant.NewFloat(lltypes.Double, 0))
	}

	return val
}

func (g *Generator) genUnOp(unop *ir.UnOp) value.Value {
	if unop.Op == ir.OpNot {
		return g.block.NewXor(g.genCond(unop.Operand), constant.True)
	}

	operand := g.genExpr(unop.Operand)
	if types.Equals(unop.Type(), types.PrimTypeFloat) {
		return g.block.NewFMul(operand, constant.NewFloat(lltypes.Double, -1))
	}

	return g.block.NewSub(constant.NewInt(lltypes.I32, 0), operand)
}

func (g *Generator) genBinOp(binop *ir.BinOp) value.Value {
	lhs := g.genExpr(binop.Lhs)
	rhs := g.genExpr(binop.Rhs)

	if types.Equals(binop.Type(), types.PrimTypeFloat) {
		switch binop.Op {
		case ir.OpAdd:
			return g.block.NewFAdd(lhs, rhs)
		case ir.OpSub:
			return g.block.NewFSub(lhs, rhs)
		case ir.OpMul:
			return g.block.NewFMul(lhs, rhs)
		case ir.OpDiv:
			return g.block.NewFDiv(lhs, rhs)
		case ir.OpMod:
			return g.block.NewFRem(lhs, rhs)
		}
	} else {
		switch binop.Op {
		case ir.OpAdd:
			return g.block.NewAdd(lhs, rhs)
		case ir.OpSub:
			return g.block.NewSub(lhs, rhs)
		case ir.OpMul:
			return g.block.NewMul(lhs, rhs)
		case ir.OpMod:
			return g.block.NewSRem(lhs, rhs)
		}
	}

	g.error(binop, "unsupported operands for binary operator")
	return nil
}

// intPreds maps comparisons to signed integer predicates.
var intPreds = map[ir.CmpOpKind]enum.IPred{
	ir.CmpEQ: enum.IPredEQ,
	ir.CmpNE: enum.IPredNE,
	ir.CmpLT: enum.IPredSLT,
	ir.CmpGT: enum.IPredSGT,
	ir.CmpLE: enum.IPredSLE,
	ir.CmpGE: enum.IPredSGE,
}

// boolPreds maps comparisons to unsigned predicates so that false < true.
var boolPreds = map[ir.CmpOpKind]enum.IPred{
	ir.CmpEQ: enum.IPredEQ,
	ir.CmpNE: enum.IPredNE,
	ir.CmpLT: enum.IPredULT,
	ir.CmpGT: enum.IPredUGT,
	ir.CmpLE: enum.IPredULE,
	ir.CmpGE: enum.IPredUGE,
}

// floatPreds maps comparisons to ordered float predicates except for `!=`
// which must hold whenever either operand is NaN.
var floatPreds = map[ir.CmpOpKind]enum.FPred{
	ir.CmpEQ: enum.FPredOEQ,
	ir.CmpNE: enum.FPredUNE,
	ir.CmpLT: enum.FPredOLT,
	ir.CmpGT: enum.FPredOGT,
	ir.CmpLE: enum.FPredOLE,
	ir.CmpGE: enum.FPredOGE,
}

// genCmpOp generates a comparison.  The raw comparison result is normalized
// through a select between the boolean constants.
func (g *Generator) genCmpOp(cmp *ir.CmpOp) value.Value {
	lhs := g.genExpr(cmp.Lhs)
	rhs := g.genExpr(cmp.Rhs)

	var result value.Value
	switch cmp.Lhs.Type() {
	case types.PrimTypeFloat:
		result = g.block.NewFCmp(floatPreds[cmp.Op], lhs, rhs)
	case types.PrimTypeBool:
		result = g.block.NewICmp(boolPreds[cmp.Op], lhs, rhs)
	default:
		result = g.block.NewICmp(intPreds[cmp.Op], lhs, rhs)
	}

	return g.block.NewSelect(result, constant.True, constant.False)
}

// genCall generates a call to a registered function.  The checker has already
// promoted the arguments to the parameter types.
func (g *Generator) genCall(call *ir.FuncCall) value.Value {
	callee, _ := g.declare(call)

	args := make([]value.Value, len(call.Args))
	for i, arg := range call.Args {
		args[i] = g.genExpr(arg)
	}

	return g.block.NewCall(callee, args...)
}
