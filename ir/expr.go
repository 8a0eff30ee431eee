package ir

import "github.com/es1024/python-staged-programming/types"

// Node is implemented by every IR node: expressions, statements and function
// definitions.
type Node interface {
	irNode()
}

// Expr represents an expression.  All expression nodes implement the `Expr`
// interface.
type Expr interface {
	Node

	// Type is the resolved type of the expression.  It is nil until the
	// expression has been checked.
	Type() types.Type

	// SetType sets the resolved type of the expression.
	SetType(types.Type)
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	typ types.Type
}

func (eb *ExprBase) Type() types.Type {
	return eb.typ
}

func (eb *ExprBase) SetType(typ types.Type) {
	eb.typ = typ
}

func (eb *ExprBase) irNode() {}

// -----------------------------------------------------------------------------

// IntConst is a 32-bit integer literal.
type IntConst struct {
	ExprBase

	Value int32
}

// FloatConst is a double precision floating point literal.
type FloatConst struct {
	ExprBase

	Value float64
}

// BoolConst is a boolean literal.
type BoolConst struct {
	ExprBase

	Value bool
}

// Ref is a reference to a named value.  If Indices is non-empty, the reference
// is an indexed access into an array: one index for `a[i]` and two for the
// pointer-to-pointer form `a[i, j]`.
type Ref struct {
	ExprBase

	Name    string
	Indices []Expr
}

// Indexed returns whether the reference is an indexed access.
func (r *Ref) Indexed() bool {
	return len(r.Indices) > 0
}

// -----------------------------------------------------------------------------

// UnaryOpKind is the kind of a unary operator.
type UnaryOpKind int

// Enumeration of unary operators.
const (
	OpNeg UnaryOpKind = iota
	OpNot
)

// UnOp is a unary operator application.
type UnOp struct {
	ExprBase

	Op      UnaryOpKind
	Operand Expr
}

// BinaryOpKind is the kind of an arithmetic or logical binary operator.
type BinaryOpKind int

// Enumeration of binary operators.
const (
	OpAdd BinaryOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
)

// IsLogical returns whether the operator is a short-circuit operator.
func (k BinaryOpKind) IsLogical() bool {
	return k == OpAnd || k == OpOr
}

// BinOp is a binary operator application.
type BinOp struct {
	ExprBase

	Op       BinaryOpKind
	Lhs, Rhs Expr
}

// CmpOpKind is the kind of a comparison.
type CmpOpKind int

// Enumeration of comparison operators.
const (
	CmpEQ CmpOpKind = iota
	CmpNE
	CmpLT
	CmpGT
	CmpLE
	CmpGE
)

// CmpOp is a single (non-chained) comparison.
type CmpOp struct {
	ExprBase

	Op       CmpOpKind
	Lhs, Rhs Expr
}

// -----------------------------------------------------------------------------

// CastToInt truncates a float to an int.
type CastToInt struct {
	ExprBase

	Src Expr
}

// CastToFloat promotes an int or a bool to a float.
type CastToFloat struct {
	ExprBase

	Src Expr
}

// FuncCall is a call to a registered function or to one of the builtin array
// constructors.
type FuncCall struct {
	ExprBase

	Name string
	Args []Expr
}

// ArrayLiteral is a fixed list of elements forming a fresh array.
type ArrayLiteral struct {
	ExprBase

	Elems []Expr
}
