package stencil

import (
	"fmt"

	"github.com/es1024/python-staged-programming/common"
	"github.com/es1024/python-staged-programming/ir"
)

// Names of the functions used by lowered stencil bodies.
const (
	LoadDataName = "load_data"
	MallocName   = "malloc"
	FreeName     = "free"
)

// Alloc selects how lowered bodies allocate their temporaries.
type Alloc int

const (
	// AllocNative uses the native `malloc` and `free`.
	AllocNative Alloc = iota

	// AllocBuiltin uses the builtin array constructor.  This is used when the
	// body is interpreted since native functions cannot be interpreted.
	AllocBuiltin
)

// LoadData returns the definition of the helper which reads a pixel of an
// image with toroidal wrapping of the coordinates.
func LoadData() *ir.FuncDef {
	return ir.Func(LoadDataName, "float",
		[]ir.Param{ir.P("W", "int"), ir.P("H", "int"), ir.P("data", "[float]"), ir.P("x", "int"), ir.P("y", "int")},
		ir.Set("x", ir.Mod(ir.Add(ir.Mod(ir.Var("x"), ir.Var("W")), ir.Var("W")), ir.Var("W"))),
		ir.Set("y", ir.Mod(ir.Add(ir.Mod(ir.Var("y"), ir.Var("H")), ir.Var("H")), ir.Var("H"))),
		ir.Ret(ir.At("data", ir.Add(ir.Mul(ir.Var("y"), ir.Var("W")), ir.Var("x")))),
	)
}

// bodyParams are the parameters of every lowered body.
func bodyParams() []ir.Param {
	return []ir.Param{ir.P("W", "int"), ir.P("H", "int"), ir.P("output", "[float]"), ir.P("inputs", "[[float]]")}
}

// coord is a pixel coordinate expression: a loop variable plus a constant
// offset accumulated from shifts.
type coord struct {
	name string
	off  int
}

func (c coord) shift(d int) coord {
	return coord{c.name, c.off + d}
}

// expr returns a fresh expression for the coordinate.
func (c coord) expr() ir.Expr {
	if c.off == 0 {
		return ir.Var(c.name)
	}

	return ir.Add(ir.Var(c.name), ir.Int(int32(c.off)))
}

// emitter generates the expressions of a lowered body.
type emitter struct {
	strategy Strategy
	tileSize int
}

// tempName returns the name of the variable holding a temporary.
func tempName(s *Step) string {
	return fmt.Sprintf("t%d", s.Temp)
}

// stride returns the row length of a blocked temporary.
func (e *emitter) stride(s *Step) int {
	return e.tileSize + 2*s.Halo
}

// start returns the offset of local pixel (0, 0) in a blocked temporary.
func (e *emitter) start(s *Step) int {
	return s.Halo + e.stride(s)*s.Halo
}

// expr generates the value of node at the pixel (x, y).  For the blocked
// strategy, the coordinates are local to the current tile.
func (e *emitter) expr(node *Node, x, y coord) ir.Expr {
	switch node.Kind {
	case KindConst:
		return ir.Float(node.Value)
	case KindInput:
		xe, ye := x.expr(), y.expr()
		if e.strategy == Blocked {
			xe = ir.Add(ir.Var("bx"), xe)
			ye = ir.Add(ir.Var("by"), ye)
		}

		return ir.Call(LoadDataName, ir.Var("W"), ir.Var("H"), ir.At("inputs", ir.Int(int32(node.Index))), xe, ye)
	case KindOperator:
		lhs := e.expr(node.Lhs, x, y)
		rhs := e.expr(node.Rhs, x, y)

		switch node.Op {
		case OpAdd:
			return ir.Add(lhs, rhs)
		case OpSub:
			return ir.Sub(lhs, rhs)
		case OpMul:
			return ir.Mul(lhs, rhs)
		default:
			return ir.Div(lhs, rhs)
		}
	case KindShift:
		return e.expr(node.Operand, x.shift(node.DX), y.shift(node.DY))
	default:
		name := tempName(node.Temp)
		if e.strategy == Blocked {
			// start + stride*y + x
			index := ir.Add(ir.Add(ir.Int(int32(e.start(node.Temp))), ir.Mul(ir.Int(int32(e.stride(node.Temp))), y.expr())), x.expr())
			return ir.At(name, index)
		}

		return ir.Call(LoadDataName, ir.Var("W"), ir.Var("H"), ir.Var(name), x.expr(), y.expr())
	}
}

// pixelLoop returns `for y in range(y0, y1): for x in range(x0, x1): body`.
func pixelLoop(y0, y1, x0, x1 ir.Expr, body ir.Stmt) ir.Stmt {
	return ir.Loop("y", y0, y1, ir.Loop("x", x0, x1, body))
}

// rowMajor returns `y * W + x`.
func rowMajor(y, x ir.Expr) ir.Expr {
	return ir.Add(ir.Mul(y, ir.Var("W")), x)
}

// -----------------------------------------------------------------------------

// LowerBody returns the definition of the body function computing the graph
// rooted at root with the given strategy.  The body has the signature
// `(W: int, H: int, output: [float], inputs: [[float]]) -> int`.
func LowerBody(root *Node, strategy Strategy, tileSize int, alloc Alloc) *ir.FuncDef {
	e := &emitter{strategy: strategy, tileSize: tileSize}

	var stmts []ir.Stmt
	switch strategy {
	case Recompute:
		stmts = e.lowerRecompute(root)
	case ImageWide:
		stmts = e.lowerImageWide(Lower(root, ImageWide), alloc)
	default:
		stmts = e.lowerBlocked(Lower(root, Blocked), alloc)
	}

	stmts = append(stmts, ir.Ret(ir.Int(0)))
	return ir.Func("body", "int", bodyParams(), stmts...)
}

func (e *emitter) lowerRecompute(root *Node) []ir.Stmt {
	x, y := coord{name: "x"}, coord{name: "y"}

	return []ir.Stmt{
		pixelLoop(ir.Int(0), ir.Var("H"), ir.Int(0), ir.Var("W"),
			ir.SetAt("output", rowMajor(ir.Var("y"), ir.Var("x")), e.expr(root, x, y)),
		),
	}
}

func (e *emitter) lowerImageWide(lir *LoopIR, alloc Alloc) []ir.Stmt {
	x, y := coord{name: "x"}, coord{name: "y"}

	var stmts []ir.Stmt
	for _, step := range lir.Steps {
		target := "output"
		if step.Kind == StepStoreTemp {
			target = tempName(step)
			pixels := ir.Mul(ir.Var("W"), ir.Var("H"))
			stmts = append(stmts, ir.Set(target, allocExpr(alloc, pixels)))
		}

		stmts = append(stmts, pixelLoop(ir.Int(0), ir.Var("H"), ir.Int(0), ir.Var("W"),
			ir.SetAt(target, rowMajor(ir.Var("y"), ir.Var("x")), e.expr(step.Value, x, y)),
		))
	}

	return append(stmts, freeTemps(lir, alloc)...)
}

func (e *emitter) lowerBlocked(lir *LoopIR, alloc Alloc) []ir.Stmt {
	x, y := coord{name: "x"}, coord{name: "y"}
	tile := int32(e.tileSize)

	// the temporaries only hold one tile so they are allocated once
	var stmts []ir.Stmt
	for _, temp := range lir.Temps {
		stride := int32(e.stride(temp))
		stmts = append(stmts, ir.Set(tempName(temp), allocExpr(alloc, ir.Int(stride*stride))))
	}

	var tileStmts []ir.Stmt
	for _, step := range lir.Steps {
		if step.Kind == StepStoreTemp {
			halo := int32(step.Halo)
			stride := int32(e.stride(step))
			index := ir.Add(ir.Add(ir.Int(int32(e.start(step))), ir.Mul(ir.Int(stride), ir.Var("y"))), ir.Var("x"))

			tileStmts = append(tileStmts, pixelLoop(ir.Int(-halo), ir.Int(tile+halo), ir.Int(-halo), ir.Int(tile+halo),
				ir.SetAt(tempName(step), index, e.expr(step.Value, x, y)),
			))

			continue
		}

		// the final store only writes the part of the tile inside the image
		index := rowMajor(ir.Add(ir.Var("by"), ir.Var("y")), ir.Add(ir.Var("bx"), ir.Var("x")))
		tileStmts = append(tileStmts,
			ir.Set("ylim", ir.Sub(ir.Var("H"), ir.Var("by"))),
			ir.IfThen(ir.Gt(ir.Var("ylim"), ir.Int(tile)), ir.Set("ylim", ir.Int(tile))),
			ir.Set("xlim", ir.Sub(ir.Var("W"), ir.Var("bx"))),
			ir.IfThen(ir.Gt(ir.Var("xlim"), ir.Int(tile)), ir.Set("xlim", ir.Int(tile))),
			pixelLoop(ir.Int(0), ir.Var("ylim"), ir.Int(0), ir.Var("xlim"),
				ir.SetAt("output", index, e.expr(step.Value, x, y)),
			),
		)
	}

	// the number of tiles along an axis of length n is ceil(n / tile)
	tiles := func(n string) ir.Expr {
		return ir.ToInt(ir.Div(ir.Add(ir.Var(n), ir.Int(tile-1)), ir.Int(tile)))
	}

	inner := append([]ir.Stmt{ir.Set("bx", ir.Mul(ir.Var("tx"), ir.Int(tile)))}, tileStmts...)
	stmts = append(stmts, ir.Loop("ty", ir.Int(0), tiles("H"),
		ir.Set("by", ir.Mul(ir.Var("ty"), ir.Int(tile))),
		ir.Loop("tx", ir.Int(0), tiles("W"), inner...),
	))

	return append(stmts, freeTemps(lir, alloc)...)
}

// allocExpr returns an expression allocating a float buffer of n pixels.
func allocExpr(alloc Alloc, n ir.Expr) ir.Expr {
	if alloc == AllocBuiltin {
		return ir.Call(common.BuiltinFloatArray, n)
	}

	return ir.Call(MallocName, ir.Mul(n, ir.Int(8)))
}

// freeTemps returns the statements releasing the temporaries.
func freeTemps(lir *LoopIR, alloc Alloc) []ir.Stmt {
	if alloc == AllocBuiltin {
		return nil
	}

	stmts := make([]ir.Stmt, len(lir.Temps))
	for i, temp := range lir.Temps {
		stmts[i] = ir.Set("freed", ir.Call(FreeName, ir.Var(tempName(temp))))
	}

	return stmts
}
