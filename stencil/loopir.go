package stencil

import (
	"fmt"

	"github.com/pkg/errors"
)

// Strategy is a way of lowering a stencil graph into loops.
type Strategy int

// Enumeration of lowering strategies.
const (
	// Recompute inlines the whole graph for every output pixel.
	Recompute Strategy = iota

	// ImageWide materializes every common subexpression as a full image.
	ImageWide

	// Blocked materializes common subexpressions per tile, with a halo large
	// enough for every shifted read of the tile.
	Blocked
)

// Strategies lists every strategy in order.
var Strategies = []Strategy{Recompute, ImageWide, Blocked}

func (s Strategy) String() string {
	switch s {
	case Recompute:
		return "recompute"
	case ImageWide:
		return "image_wide"
	default:
		return "blocked"
	}
}

// ParseStrategy returns the strategy with the given name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if s.String() == name {
			return s, nil
		}
	}

	return Recompute, errors.Errorf("unknown stencil method `%s`", name)
}

// -----------------------------------------------------------------------------

// StepKind is the kind of a loop IR step.
type StepKind int

// Enumeration of step kinds.
const (
	StepStoreTemp StepKind = iota
	StepStoreResult
)

// Step is a single loop nest of the lowered graph: it evaluates Value at every
// pixel and stores it into a temporary or into the output.
type Step struct {
	Kind StepKind

	// The lowered expression computed by the step.
	Value *Node

	// The number of pixels around each tile the step must compute so that all
	// of its shifted reads are available.  Always zero for the result.
	Halo int

	// The index of the temporary stored by the step.
	Temp int
}

func (s *Step) String() string {
	if s.Kind == StepStoreResult {
		return fmt.Sprintf("out = %s", s.Value)
	}

	return fmt.Sprintf("t%d[halo %d] = %s", s.Temp, s.Halo, s.Value)
}

// LoopIR is the lowered form of a stencil graph: a sequence of steps in
// dependency order ending with the result.
type LoopIR struct {
	Steps []*Step

	// The temporaries in the order they are stored.
	Temps []*Step
}

// Lower converts the graph rooted at root into loop IR for a materializing
// strategy.  Every node used more than once becomes a temporary, except for
// constants and, under ImageWide, inputs which can be read directly.  Shifted
// operands always count as used twice so that they are materialized.
func Lower(root *Node, strategy Strategy) *LoopIR {
	uses := countUses(root)
	lir := &LoopIR{}
	lowered := make(map[*Node]*Node)

	var convert func(*Node) *Node
	convert = func(node *Node) *Node {
		if node.Kind == KindConst || (strategy == ImageWide && node.Kind == KindInput) {
			return node
		}

		if l, ok := lowered[node]; ok {
			return l
		}

		var l *Node
		switch node.Kind {
		case KindOperator:
			lhs := convert(node.Lhs)
			rhs := convert(node.Rhs)
			l = &Node{Kind: KindOperator, Op: node.Op, Lhs: lhs, Rhs: rhs}
		case KindShift:
			operand := convert(node.Operand)
			l = &Node{Kind: KindShift, DX: node.DX, DY: node.DY, Operand: operand}
		default:
			l = node
		}

		if uses[node] > 1 {
			store := &Step{Kind: StepStoreTemp, Value: l, Temp: len(lir.Temps)}
			lir.Steps = append(lir.Steps, store)
			lir.Temps = append(lir.Temps, store)
			l = &Node{Kind: KindLoadTemp, Temp: store}
		}

		lowered[node] = l
		return l
	}

	result := convert(root)
	lir.Steps = append(lir.Steps, &Step{Kind: StepStoreResult, Value: result})

	lir.propagateHalos()
	return lir
}

// countUses counts the number of uses of every node reachable from root.  The
// operands of a node are only counted on its first use.
func countUses(root *Node) map[*Node]int {
	uses := make(map[*Node]int)

	var count func(*Node)
	count = func(node *Node) {
		uses[node]++
		if uses[node] > 1 {
			return
		}

		switch node.Kind {
		case KindShift:
			count(node.Operand)
			count(node.Operand)
		case KindOperator:
			count(node.Lhs)
			count(node.Rhs)
		}
	}

	count(root)
	return uses
}

// propagateHalos computes the halo of every temporary.  Steps are visited in
// reverse so that the halo of a step is final before the loads within it are
// visited.  A load nested under shifts must cover the step's own halo plus the
// largest offset of every shift between the load and the step.
func (lir *LoopIR) propagateHalos() {
	var update func(*Node, int)
	update = func(node *Node, expand int) {
		switch node.Kind {
		case KindLoadTemp:
			if expand > node.Temp.Halo {
				node.Temp.Halo = expand
			}
		case KindOperator:
			update(node.Lhs, expand)
			update(node.Rhs, expand)
		case KindShift:
			update(node.Operand, expand+maxAbs(node.DX, node.DY))
		}
	}

	for i := len(lir.Steps) - 1; i >= 0; i-- {
		update(lir.Steps[i].Value, lir.Steps[i].Halo)
	}
}

func maxAbs(a, b int) int {
	if a < 0 {
		a = -a
	}

	if b < 0 {
		b = -b
	}

	if a > b {
		return a
	}

	return b
}
