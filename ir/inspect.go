package ir

import (
	"sort"

	"github.com/es1024/python-staged-programming/common"
)

// Inspect traverses the tree rooted at node in depth-first order.  If f returns
// false, the children of the current node are skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}

	switch v := node.(type) {
	case *FuncDef:
		Inspect(v.Body, f)
	case *Block:
		for _, stmt := range v.Stmts {
			Inspect(stmt, f)
		}
	case *Assign:
		Inspect(v.Target, f)
		Inspect(v.Value, f)
	case *If:
		Inspect(v.Cond, f)
		Inspect(v.Then, f)
		if v.Else != nil {
			Inspect(v.Else, f)
		}
	case *For:
		Inspect(v.Min, f)
		Inspect(v.Max, f)
		Inspect(v.Body, f)
	case *Return:
		Inspect(v.Value, f)
	case *Ref:
		for _, index := range v.Indices {
			Inspect(index, f)
		}
	case *UnOp:
		Inspect(v.Operand, f)
	case *BinOp:
		Inspect(v.Lhs, f)
		Inspect(v.Rhs, f)
	case *CmpOp:
		Inspect(v.Lhs, f)
		Inspect(v.Rhs, f)
	case *CastToInt:
		Inspect(v.Src, f)
	case *CastToFloat:
		Inspect(v.Src, f)
	case *FuncCall:
		for _, arg := range v.Args {
			Inspect(arg, f)
		}
	case *ArrayLiteral:
		for _, elem := range v.Elems {
			Inspect(elem, f)
		}
	}
}

// Callees returns the sorted names of every function called statically from
// the body of fd.  Builtin array constructors are not included.
func Callees(fd *FuncDef) []string {
	seen := make(map[string]struct{})

	Inspect(fd, func(n Node) bool {
		if call, ok := n.(*FuncCall); ok && !common.IsBuiltin(call.Name) {
			seen[call.Name] = struct{}{}
		}

		return true
	})

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
