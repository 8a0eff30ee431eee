package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a node as indented source text.  Checked expressions are not
// annotated with their types; use PrintTyped for that.
func Print(node Node) string {
	p := printer{}
	p.node(node)
	return strings.TrimRight(p.sb.String(), "\n")
}

// PrintTyped is like Print but annotates assignments with the type of their
// value and checked functions with their signature.
func PrintTyped(node Node) string {
	p := printer{typed: true}
	p.node(node)
	return strings.TrimRight(p.sb.String(), "\n")
}

// printer writes the textual form of IR nodes.
type printer struct {
	sb     strings.Builder
	indent int
	typed  bool
}

func (p *printer) line(format string, args ...interface{}) {
	p.sb.WriteString(strings.Repeat("    ", p.indent))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) node(node Node) {
	switch v := node.(type) {
	case *FuncDef:
		params := make([]string, len(v.Params))
		for i, param := range v.Params {
			params[i] = param.Name + ": " + param.TypeExpr
		}

		p.line("def %s(%s) -> %s:", v.Name, strings.Join(params, ", "), v.ReturnExpr)
		if p.typed && v.Signature != nil {
			p.line("    # %s", v.Signature.Repr())
		}

		p.block(v.Body)
	case *Block:
		for _, stmt := range v.Stmts {
			p.node(stmt)
		}
	case Stmt:
		p.stmt(v)
	case Expr:
		p.sb.WriteString(p.expr(v))
	}
}

func (p *printer) block(b *Block) {
	p.indent++
	if b == nil || len(b.Stmts) == 0 {
		p.line("pass")
	} else {
		for _, stmt := range b.Stmts {
			p.node(stmt)
		}
	}
	p.indent--
}

func (p *printer) stmt(stmt Stmt) {
	switch v := stmt.(type) {
	case *Assign:
		if p.typed && v.Value.Type() != nil {
			p.line("%s = %s  # %s", p.expr(v.Target), p.expr(v.Value), v.Value.Type().Repr())
		} else {
			p.line("%s = %s", p.expr(v.Target), p.expr(v.Value))
		}
	case *If:
		p.line("if %s:", p.expr(v.Cond))
		p.block(v.Then)
		if v.Else != nil {
			p.line("else:")
			p.block(v.Else)
		}
	case *For:
		p.line("for %s in range(%s, %s):", v.Var, p.expr(v.Min), p.expr(v.Max))
		p.block(v.Body)
	case *Return:
		p.line("return %s", p.expr(v.Value))
	}
}

var binOpSymbols = map[BinaryOpKind]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpAnd: "and",
	OpOr:  "or",
}

var cmpOpSymbols = map[CmpOpKind]string{
	CmpEQ: "==",
	CmpNE: "!=",
	CmpLT: "<",
	CmpGT: ">",
	CmpLE: "<=",
	CmpGE: ">=",
}

func (p *printer) expr(expr Expr) string {
	switch v := expr.(type) {
	case *IntConst:
		return strconv.Itoa(int(v.Value))
	case *FloatConst:
		s := strconv.FormatFloat(v.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case *BoolConst:
		if v.Value {
			return "True"
		}
		return "False"
	case *Ref:
		if !v.Indexed() {
			return v.Name
		}
		return v.Name + "[" + p.exprList(v.Indices) + "]"
	case *UnOp:
		if v.Op == OpNeg {
			return "-" + p.operand(v.Operand)
		}
		return "not " + p.operand(v.Operand)
	case *BinOp:
		return p.operand(v.Lhs) + " " + binOpSymbols[v.Op] + " " + p.operand(v.Rhs)
	case *CmpOp:
		return p.operand(v.Lhs) + " " + cmpOpSymbols[v.Op] + " " + p.operand(v.Rhs)
	case *CastToInt:
		return "int(" + p.expr(v.Src) + ")"
	case *CastToFloat:
		return "float(" + p.expr(v.Src) + ")"
	case *FuncCall:
		return v.Name + "(" + p.exprList(v.Args) + ")"
	case *ArrayLiteral:
		return "[" + p.exprList(v.Elems) + "]"
	}

	return "<?>"
}

// operand renders an operand of an operator, parenthesizing compound
// expressions.
func (p *printer) operand(expr Expr) string {
	switch expr.(type) {
	case *BinOp, *CmpOp, *UnOp:
		return "(" + p.expr(expr) + ")"
	}

	return p.expr(expr)
}

func (p *printer) exprList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = p.expr(e)
	}

	return strings.Join(parts, ", ")
}
