package ir

import "github.com/es1024/python-staged-programming/types"

// Stmt represents a statement.
type Stmt interface {
	Node

	stmtNode()
}

// StmtBase is the base struct for all statements.
type StmtBase struct{}

func (StmtBase) irNode()   {}
func (StmtBase) stmtNode() {}

// Binding pairs a local name with its checked type.
type Binding struct {
	Name string
	Type types.Type
}

// -----------------------------------------------------------------------------

// Assign stores a value into a name or an indexed array slot.
type Assign struct {
	StmtBase

	Target *Ref
	Value  Expr
}

// Block is an ordered list of statements.
type Block struct {
	StmtBase

	Stmts []Stmt
}

// If is a conditional with an optional else arm.
type If struct {
	StmtBase

	Cond Expr
	Then *Block
	Else *Block

	// Fresh lists the names first assigned inside either arm.  It is filled
	// in by the checker and used to give those names a zero value on the path
	// that does not assign them.
	Fresh []Binding
}

// For iterates Var over the half-open range [Min, Max) with unit step.
type For struct {
	StmtBase

	Var      string
	Min, Max Expr
	Body     *Block

	// Fresh lists the names first assigned inside the loop, including the
	// induction variable if it was not bound before the loop.
	Fresh []Binding
}

// Return returns a value from the enclosing function.
type Return struct {
	StmtBase

	Value Expr
}

// -----------------------------------------------------------------------------

// Param is a function parameter with its surface type expression.
type Param struct {
	Name     string
	TypeExpr string
}

// FuncDef is a function definition.
type FuncDef struct {
	Name       string
	Params     []Param
	ReturnExpr string
	Body       *Block

	// Signature is set once the function has been checked.
	Signature *types.FuncType
}

func (*FuncDef) irNode() {}

// Checked returns whether the function has been checked.
func (fd *FuncDef) Checked() bool {
	return fd.Signature != nil
}
