package ir

// The functions in this file form the builder API used by host code to build
// function bodies programmatically.  Sub-trees built this way are ordinary Go
// values and can be passed into template functions which splice them into a
// larger body.  A node must not be shared between two places in a tree: the
// checker rewrites expressions in place.

// Int returns an integer literal.
func Int(v int32) *IntConst { return &IntConst{Value: v} }

// Float returns a float literal.
func Float(v float64) *FloatConst { return &FloatConst{Value: v} }

// Bool returns a boolean literal.
func Bool(v bool) *BoolConst { return &BoolConst{Value: v} }

// Var returns a reference to a name.
func Var(name string) *Ref { return &Ref{Name: name} }

// At returns an indexed reference `name[index]`.
func At(name string, index Expr) *Ref {
	return &Ref{Name: name, Indices: []Expr{index}}
}

// At2 returns a two-level indexed reference `name[i, j]`.
func At2(name string, i, j Expr) *Ref {
	return &Ref{Name: name, Indices: []Expr{i, j}}
}

func bin(op BinaryOpKind, l, r Expr) *BinOp { return &BinOp{Op: op, Lhs: l, Rhs: r} }
func cmp(op CmpOpKind, l, r Expr) *CmpOp    { return &CmpOp{Op: op, Lhs: l, Rhs: r} }

// Add returns `l + r`.
func Add(l, r Expr) *BinOp { return bin(OpAdd, l, r) }

// Sub returns `l - r`.
func Sub(l, r Expr) *BinOp { return bin(OpSub, l, r) }

// Mul returns `l * r`.
func Mul(l, r Expr) *BinOp { return bin(OpMul, l, r) }

// Div returns `l / r`, which is always a float.
func Div(l, r Expr) *BinOp { return bin(OpDiv, l, r) }

// Mod returns the truncated remainder `l % r`.
func Mod(l, r Expr) *BinOp { return bin(OpMod, l, r) }

// And returns the short-circuit conjunction of l and r.
func And(l, r Expr) *BinOp { return bin(OpAnd, l, r) }

// Or returns the short-circuit disjunction of l and r.
func Or(l, r Expr) *BinOp { return bin(OpOr, l, r) }

// Eq returns `l == r`.
func Eq(l, r Expr) *CmpOp { return cmp(CmpEQ, l, r) }

// Ne returns `l != r`.
func Ne(l, r Expr) *CmpOp { return cmp(CmpNE, l, r) }

// Lt returns `l < r`.
func Lt(l, r Expr) *CmpOp { return cmp(CmpLT, l, r) }

// Gt returns `l > r`.
func Gt(l, r Expr) *CmpOp { return cmp(CmpGT, l, r) }

// Le returns `l <= r`.
func Le(l, r Expr) *CmpOp { return cmp(CmpLE, l, r) }

// Ge returns `l >= r`.
func Ge(l, r Expr) *CmpOp { return cmp(CmpGE, l, r) }

// Neg returns the arithmetic negation of e.
func Neg(e Expr) *UnOp { return &UnOp{Op: OpNeg, Operand: e} }

// Not returns the logical negation of e.
func Not(e Expr) *UnOp { return &UnOp{Op: OpNot, Operand: e} }

// ToInt returns an explicit float to int cast.
func ToInt(e Expr) *CastToInt { return &CastToInt{Src: e} }

// ToFloat returns an explicit int or bool to float cast.
func ToFloat(e Expr) *CastToFloat { return &CastToFloat{Src: e} }

// Call returns a function call.
func Call(name string, args ...Expr) *FuncCall {
	return &FuncCall{Name: name, Args: args}
}

// Array returns an array literal.
func Array(elems ...Expr) *ArrayLiteral {
	return &ArrayLiteral{Elems: elems}
}

// -----------------------------------------------------------------------------

// Set returns an assignment to a name.
func Set(name string, value Expr) *Assign {
	return &Assign{Target: Var(name), Value: value}
}

// SetAt returns an assignment to `name[index]`.
func SetAt(name string, index, value Expr) *Assign {
	return &Assign{Target: At(name, index), Value: value}
}

// SetAt2 returns an assignment to `name[i, j]`.
func SetAt2(name string, i, j, value Expr) *Assign {
	return &Assign{Target: At2(name, i, j), Value: value}
}

// Body returns a block of statements.
func Body(stmts ...Stmt) *Block {
	return &Block{Stmts: stmts}
}

// IfThen returns an if statement without an else arm.
func IfThen(cond Expr, then ...Stmt) *If {
	return &If{Cond: cond, Then: Body(then...)}
}

// IfElse returns an if statement with both arms.
func IfElse(cond Expr, then, els *Block) *If {
	return &If{Cond: cond, Then: then, Else: els}
}

// Loop returns `for v in range(min, max)` over the given body.
func Loop(v string, min, max Expr, body ...Stmt) *For {
	return &For{Var: v, Min: min, Max: max, Body: Body(body...)}
}

// Ret returns a return statement.
func Ret(value Expr) *Return {
	return &Return{Value: value}
}

// P returns a parameter declaration.
func P(name, typeExpr string) Param {
	return Param{Name: name, TypeExpr: typeExpr}
}

// Func returns a function definition.
func Func(name string, ret string, params []Param, body ...Stmt) *FuncDef {
	return &FuncDef{Name: name, Params: params, ReturnExpr: ret, Body: Body(body...)}
}
