package stencil

import (
	"github.com/es1024/python-staged-programming/build"
	"github.com/es1024/python-staged-programming/ppm"
	"github.com/es1024/python-staged-programming/types"
	"github.com/pkg/errors"
)

// TileSize is the default edge length of a tile under the Blocked strategy.
const TileSize = 128

// Pipeline compiles and runs a stencil graph.
type Pipeline struct {
	root     *Node
	tileSize int

	// bodies caches the body units per compiler and strategy.
	bodies map[bodyKey]*build.Unit
}

type bodyKey struct {
	c        *build.Compiler
	strategy Strategy
	alloc    Alloc
}

// NewPipeline creates a pipeline computing the image out.
func NewPipeline(out Image) *Pipeline {
	return &Pipeline{
		root:     out.node,
		tileSize: TileSize,
		bodies:   make(map[bodyKey]*build.Unit),
	}
}

// SetTileSize sets the tile size used by the Blocked strategy.
func (p *Pipeline) SetTileSize(n int) {
	if n > 0 && n != p.tileSize {
		p.tileSize = n
		p.bodies = make(map[bodyKey]*build.Unit)
	}
}

// TileSize returns the tile size used by the Blocked strategy.
func (p *Pipeline) TileSize() int {
	return p.tileSize
}

// Root returns the root node of the pipeline's graph.
func (p *Pipeline) Root() *Node {
	return p.root
}

// Body returns the unit of the body function for the given strategy, defining
// it and the functions it calls in c if necessary.
func (p *Pipeline) Body(c *build.Compiler, strategy Strategy, alloc Alloc) (*build.Unit, error) {
	key := bodyKey{c, strategy, alloc}
	if u, ok := p.bodies[key]; ok {
		return u, nil
	}

	if err := defineRuntime(c); err != nil {
		return nil, err
	}

	u, err := c.DefineAnonymous(LowerBody(p.root, strategy, p.tileSize, alloc))
	if err != nil {
		return nil, err
	}

	p.bodies[key] = u
	return u, nil
}

// defineRuntime defines the functions called by lowered bodies.
func defineRuntime(c *build.Compiler) error {
	if _, err := c.DeclareNative(MallocName, types.NewFunc(types.NewArray(types.PrimTypeFloat), types.PrimTypeInt)); err != nil {
		return err
	}

	if _, err := c.DeclareNative(FreeName, types.NewFunc(types.PrimTypeInt, types.NewArray(types.PrimTypeFloat))); err != nil {
		return err
	}

	if u, ok := c.Unit(LoadDataName); ok && u.Def != nil {
		return nil
	}

	_, err := c.Define(LoadData())
	return err
}

// Run compiles the pipeline with the given strategy and runs it natively over
// the input images.
func (p *Pipeline) Run(c *build.Compiler, strategy Strategy, inputs ...*ppm.Image) (*ppm.Image, error) {
	return p.run(c, strategy, AllocNative, inputs)
}

// Interpret runs the pipeline with the given strategy using the interpreter.
func (p *Pipeline) Interpret(c *build.Compiler, strategy Strategy, inputs ...*ppm.Image) (*ppm.Image, error) {
	return p.run(c, strategy, AllocBuiltin, inputs)
}

func (p *Pipeline) run(c *build.Compiler, strategy Strategy, alloc Alloc, inputs []*ppm.Image) (*ppm.Image, error) {
	w, h, err := p.checkInputs(inputs)
	if err != nil {
		return nil, err
	}

	u, err := p.Body(c, strategy, alloc)
	if err != nil {
		return nil, err
	}

	out := ppm.New(w, h)
	data := make([][]float64, len(inputs))
	for i, in := range inputs {
		data[i] = in.Data
	}

	if alloc == AllocNative {
		_, err = u.Call(int32(w), int32(h), out.Data, data)
	} else {
		_, err = u.Interpret(int32(w), int32(h), out.Data, data)
	}

	if err != nil {
		return nil, errors.WithMessagef(err, "running %s pipeline", strategy)
	}

	return out, nil
}

// checkInputs validates the input images and returns their shared size.
func (p *Pipeline) checkInputs(inputs []*ppm.Image) (int, int, error) {
	if len(inputs) == 0 {
		return 0, 0, errors.New("there must be at least one input image")
	}

	if need := (Image{p.root}).NumInputs(); len(inputs) < need {
		return 0, 0, errors.Errorf("pipeline reads %d inputs but %d were given", need, len(inputs))
	}

	w, h := inputs[0].Width, inputs[0].Height
	for _, in := range inputs[1:] {
		if in.Width != w || in.Height != h {
			return 0, 0, errors.Errorf("input size mismatch: %dx%d and %dx%d", w, h, in.Width, in.Height)
		}
	}

	if w == 0 || h == 0 {
		return 0, 0, errors.New("input images must not be empty")
	}

	return w, h, nil
}

// -----------------------------------------------------------------------------

// Reference evaluates the pipeline in Go.  Every pixel is computed with the
// same operations in the same order as the compiled bodies so the results are
// identical.
func (p *Pipeline) Reference(inputs ...*ppm.Image) (*ppm.Image, error) {
	w, h, err := p.checkInputs(inputs)
	if err != nil {
		return nil, err
	}

	out := ppm.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Data[y*w+x] = evalAt(p.root, inputs, x, y)
		}
	}

	return out, nil
}

// evalAt evaluates node at pixel (x, y) with wrapping input reads.
func evalAt(node *Node, inputs []*ppm.Image, x, y int) float64 {
	switch node.Kind {
	case KindConst:
		return node.Value
	case KindInput:
		in := inputs[node.Index]
		return in.Data[wrap(y, in.Height)*in.Width+wrap(x, in.Width)]
	case KindOperator:
		lhs := evalAt(node.Lhs, inputs, x, y)
		rhs := evalAt(node.Rhs, inputs, x, y)

		// explicit conversions keep each operation separately rounded
		switch node.Op {
		case OpAdd:
			return float64(lhs + rhs)
		case OpSub:
			return float64(lhs - rhs)
		case OpMul:
			return float64(lhs * rhs)
		default:
			return float64(lhs / rhs)
		}
	case KindShift:
		return evalAt(node.Operand, inputs, x+node.DX, y+node.DY)
	default:
		return evalAt(node.Temp.Value, inputs, x, y)
	}
}

// wrap maps a coordinate onto [0, n) toroidally.
func wrap(v, n int) int {
	return ((v % n) + n) % n
}
