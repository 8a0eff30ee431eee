package stencil

import "fmt"

// NodeKind is the kind of a node in a stencil graph.
type NodeKind int

// Enumeration of node kinds.  LoadTemp nodes only appear in lowered graphs.
const (
	KindConst NodeKind = iota
	KindInput
	KindOperator
	KindShift
	KindLoadTemp
)

// Operator is a pointwise binary operator.
type Operator int

// Enumeration of pointwise operators.
const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
)

func (op Operator) String() string {
	return [...]string{"+", "-", "*", "/"}[op]
}

// Node is a node of a stencil graph.  Nodes are compared by identity: a node
// reachable along several paths is a common subexpression.
type Node struct {
	Kind NodeKind

	// The value of a KindConst node.
	Value float64

	// The input index of a KindInput node.
	Index int

	// The operator and operands of a KindOperator node.
	Op       Operator
	Lhs, Rhs *Node

	// The offset and operand of a KindShift node.  The shifted image at
	// (x, y) is the operand at (x + DX, y + DY).
	DX, DY  int
	Operand *Node

	// The temporary read by a KindLoadTemp node.
	Temp *Step
}

func (n *Node) String() string {
	switch n.Kind {
	case KindConst:
		return fmt.Sprintf("%g", n.Value)
	case KindInput:
		return fmt.Sprintf("in%d", n.Index)
	case KindOperator:
		return fmt.Sprintf("(%s %s %s)", n.Lhs, n.Op, n.Rhs)
	case KindShift:
		return fmt.Sprintf("shift(%s, %d, %d)", n.Operand, n.DX, n.DY)
	default:
		return fmt.Sprintf("t%d", n.Temp.Temp)
	}
}

// -----------------------------------------------------------------------------

// Image is an abstract image computation.  Images are immutable: every method
// returns a new image which shares the graph of its operands.
type Image struct {
	node *Node
}

// Const returns an image which is value everywhere.
func Const(value float64) Image {
	return Image{&Node{Kind: KindConst, Value: value}}
}

// Input returns the input image with the given index.
func Input(index int) Image {
	return Image{&Node{Kind: KindInput, Index: index}}
}

// Node returns the root of the image's graph.
func (im Image) Node() *Node {
	return im.node
}

func (im Image) pointwise(op Operator, rhs Image) Image {
	return Image{&Node{Kind: KindOperator, Op: op, Lhs: im.node, Rhs: rhs.node}}
}

// Add returns the pointwise sum of two images.
func (im Image) Add(rhs Image) Image { return im.pointwise(OpAdd, rhs) }

// Sub returns the pointwise difference of two images.
func (im Image) Sub(rhs Image) Image { return im.pointwise(OpSub, rhs) }

// Mul returns the pointwise product of two images.
func (im Image) Mul(rhs Image) Image { return im.pointwise(OpMul, rhs) }

// Div returns the pointwise quotient of two images.
func (im Image) Div(rhs Image) Image { return im.pointwise(OpDiv, rhs) }

// Scale multiplies every pixel by c.
func (im Image) Scale(c float64) Image { return im.Mul(Const(c)) }

// Offset adds c to every pixel.
func (im Image) Offset(c float64) Image { return im.Add(Const(c)) }

// Shift returns the image translated so that its pixel (x, y) is the pixel
// (x + dx, y + dy) of im.  Coordinates wrap around the image edges.
func (im Image) Shift(dx, dy int) Image {
	return Image{&Node{Kind: KindShift, DX: dx, DY: dy, Operand: im.node}}
}

// NumInputs returns the number of input images the graph reads: one more than
// the largest input index.
func (im Image) NumInputs() int {
	n := 0
	visited := make(map[*Node]bool)

	var walk func(*Node)
	walk = func(node *Node) {
		if visited[node] {
			return
		}
		visited[node] = true

		switch node.Kind {
		case KindInput:
			if node.Index+1 > n {
				n = node.Index + 1
			}
		case KindOperator:
			walk(node.Lhs)
			walk(node.Rhs)
		case KindShift:
			walk(node.Operand)
		}
	}

	walk(im.node)
	return n
}

// Blur returns the 3-tap box blur of im along x then along y.
func Blur(im Image) Image {
	third := 1.0 / 3.0
	blurX := im.Shift(-1, 0).Add(im).Add(im.Shift(1, 0)).Scale(third)
	return blurX.Shift(0, -1).Add(blurX).Add(blurX.Shift(0, 1)).Scale(third)
}
