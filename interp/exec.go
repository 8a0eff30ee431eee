package interp

import (
	"math"

	"github.com/es1024/python-staged-programming/common"
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/types"
)

// execBlock executes a block.  The boolean is true if a return statement was
// executed, in which case the value is the returned value.
func (in *Interpreter) execBlock(fr *frame, block *ir.Block) (Value, bool) {
	for _, stmt := range block.Stmts {
		if v, ok := in.execStmt(fr, stmt); ok {
			return v, true
		}
	}

	return nil, false
}

func (in *Interpreter) execStmt(fr *frame, stmt ir.Stmt) (Value, bool) {
	switch v := stmt.(type) {
	case *ir.Block:
		return in.execBlock(fr, v)
	case *ir.Assign:
		in.execAssign(fr, v)
	case *ir.If:
		in.bindFresh(fr, v.Fresh)

		if truthy(in.eval(fr, v.Cond)) {
			return in.execBlock(fr, v.Then)
		} else if v.Else != nil {
			return in.execBlock(fr, v.Else)
		}
	case *ir.For:
		lo := in.eval(fr, v.Min).(int32)
		hi := in.eval(fr, v.Max).(int32)

		in.bindFresh(fr, v.Fresh)

		// The induction variable is rebound from the counter on every
		// iteration: assignments to it in the body do not affect the loop.
		for i := lo; i < hi; i++ {
			fr.vars[v.Var] = i

			if rv, ok := in.execBlock(fr, v.Body); ok {
				return rv, true
			}
		}
	case *ir.Return:
		return in.eval(fr, v.Value), true
	}

	return nil, false
}

// bindFresh gives every name first assigned inside a statement its zero value.
// This matches the compiled code, where such names are merged against a zero
// default on the paths that do not assign them.
func (in *Interpreter) bindFresh(fr *frame, fresh []ir.Binding) {
	for _, b := range fresh {
		if _, ok := fr.vars[b.Name]; !ok {
			fr.vars[b.Name] = zeroValue(b.Type)
		}
	}
}

func (in *Interpreter) execAssign(fr *frame, as *ir.Assign) {
	val := in.eval(fr, as.Value)

	if !as.Target.Indexed() {
		fr.vars[as.Target.Name] = val
		return
	}

	arr, i := in.evalSlot(fr, as.Target)
	storeElem(arr, i, val)
}

// evalSlot evaluates an indexed reference down to the innermost array and the
// final index.
func (in *Interpreter) evalSlot(fr *frame, ref *ir.Ref) (Value, int32) {
	arr := fr.vars[ref.Name]
	typ := ref.Type()

	last := len(ref.Indices) - 1
	for _, index := range ref.Indices[:last] {
		arr = loadElem(arr, in.eval(fr, index).(int32), types.NewArray(typ))
	}

	return arr, in.eval(fr, ref.Indices[last]).(int32)
}

// -----------------------------------------------------------------------------

// eval evaluates an expression.
func (in *Interpreter) eval(fr *frame, expr ir.Expr) Value {
	switch v := expr.(type) {
	case *ir.IntConst:
		return v.Value
	case *ir.FloatConst:
		return v.Value
	case *ir.BoolConst:
		return v.Value
	case *ir.Ref:
		if !v.Indexed() {
			return fr.vars[v.Name]
		}

		arr, i := in.evalSlot(fr, v)
		return loadElem(arr, i, v.Type())
	case *ir.UnOp:
		operand := in.eval(fr, v.Operand)
		if v.Op == ir.OpNot {
			return !truthy(operand)
		}

		switch x := operand.(type) {
		case int32:
			return -x
		case float64:
			return -x
		}
	case *ir.BinOp:
		return in.evalBinOp(fr, v)
	case *ir.CmpOp:
		return compare(v.Op, in.eval(fr, v.Lhs), in.eval(fr, v.Rhs))
	case *ir.CastToInt:
		return int32(in.eval(fr, v.Src).(float64))
	case *ir.CastToFloat:
		switch x := in.eval(fr, v.Src).(type) {
		case int32:
			return float64(x)
		case bool:
			if x {
				return 1.0
			}
			return 0.0
		}
	case *ir.FuncCall:
		args := make([]Value, len(v.Args))
		for i, arg := range v.Args {
			args[i] = in.eval(fr, arg)
		}

		if common.IsBuiltin(v.Name) {
			elem, _ := types.ElemOf(v.Type())
			return newArray(elem, args[0].(int32))
		}

		return in.callNamed(v.Name, args)
	case *ir.ArrayLiteral:
		elem, _ := types.ElemOf(v.Type())
		arr := newArray(elem, int32(len(v.Elems)))
		for i, e := range v.Elems {
			storeElem(arr, int32(i), in.eval(fr, e))
		}

		return arr
	}

	panic(runtimeError("cannot evaluate `%s`", ir.Print(expr)))
}

// evalBinOp evaluates a binary operator.  And and Or short-circuit.
func (in *Interpreter) evalBinOp(fr *frame, binop *ir.BinOp) Value {
	switch binop.Op {
	case ir.OpAnd:
		return in.eval(fr, binop.Lhs).(bool) && in.eval(fr, binop.Rhs).(bool)
	case ir.OpOr:
		return in.eval(fr, binop.Lhs).(bool) || in.eval(fr, binop.Rhs).(bool)
	}

	lhs := in.eval(fr, binop.Lhs)
	rhs := in.eval(fr, binop.Rhs)

	// The checker has already unified the operand types.
	if l, ok := lhs.(int32); ok {
		r := rhs.(int32)

		switch binop.Op {
		case ir.OpAdd:
			return l + r
		case ir.OpSub:
			return l - r
		case ir.OpMul:
			return l * r
		case ir.OpMod:
			if r == 0 {
				panic(runtimeError("integer modulo by zero"))
			}
			return l % r
		}
	}

	l, r := lhs.(float64), rhs.(float64)
	switch binop.Op {
	case ir.OpAdd:
		return l + r
	case ir.OpSub:
		return l - r
	case ir.OpMul:
		return l * r
	case ir.OpDiv:
		return l / r
	default:
		return math.Mod(l, r)
	}
}

// compare evaluates a comparison between two values of the same type.
func compare(op ir.CmpOpKind, lhs, rhs Value) bool {
	var c int
	switch l := lhs.(type) {
	case bool:
		c = boolIndex(l) - boolIndex(rhs.(bool))
	case int32:
		r := rhs.(int32)
		c = cmpOrdered(l < r, l > r)
	case float64:
		r := rhs.(float64)
		if math.IsNaN(l) || math.IsNaN(r) {
			// Unordered comparisons are only true for `!=`.
			return op == ir.CmpNE
		}
		c = cmpOrdered(l < r, l > r)
	}

	switch op {
	case ir.CmpEQ:
		return c == 0
	case ir.CmpNE:
		return c != 0
	case ir.CmpLT:
		return c < 0
	case ir.CmpGT:
		return c > 0
	case ir.CmpLE:
		return c <= 0
	default:
		return c >= 0
	}
}

func cmpOrdered(lt, gt bool) int {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	}

	return 0
}

func boolIndex(b bool) int {
	if b {
		return 1
	}

	return 0
}

// truthy implements boolean coercion: nonzero is true.
func truthy(v Value) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int32:
		return x != 0
	case float64:
		return x != 0
	}

	panic(runtimeError("value of type %T has no truth value", v))
}
