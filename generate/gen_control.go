package generate

import (
	"github.com/es1024/python-staged-programming/ir"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genIf generates an if statement.  The values of all names are merged at the
// join block using phi nodes.
func (g *Generator) genIf(ifStmt *ir.If) {
	g.bindFresh(ifStmt.Fresh)

	cond := g.genCond(ifStmt.Cond)
	pre := g.vals.clone()

	// endBlock is the block that both arms jump to when they finish.
	endBlock := g.appendBlock()
	thenBlock := g.appendBlock()

	// if there is no else, then the false branch goes straight to the end.
	var elseBlock *llir.Block
	if ifStmt.Else == nil {
		elseBlock = endBlock
	} else {
		elseBlock = g.appendBlock()
	}

	var edges []edge
	if ifStmt.Else == nil {
		edges = append(edges, edge{block: g.block, vals: pre})
	}

	g.block.NewCondBr(cond, thenBlock, elseBlock)

	// then arm
	g.block = thenBlock
	g.vals = pre.clone()
	g.genBlock(ifStmt.Then)
	edges = append(edges, edge{block: g.block, vals: g.vals})
	g.block.NewBr(endBlock)

	// else arm
	if ifStmt.Else != nil {
		g.block = elseBlock
		g.vals = pre.clone()
		g.genBlock(ifStmt.Else)
		edges = append(edges, edge{block: g.block, vals: g.vals})
		g.block.NewBr(endBlock)
	}

	g.block = endBlock
	g.vals = g.mergeValues(edges)
}

// genFor generates a counted loop.  The loop is laid out as a condition block
// which holds a phi node for the counter and for every bound name, a body
// block which branches back to the condition, and an exit block.
func (g *Generator) genFor(forStmt *ir.For) {
	// the bounds are evaluated exactly once, before the first iteration
	lo := g.genExpr(forStmt.Min)
	hi := g.genExpr(forStmt.Max)

	g.bindFresh(forStmt.Fresh)

	preBlock := g.block
	condBlock := g.appendBlock()
	bodyBlock := g.appendBlock()
	exitBlock := g.appendBlock()

	preBlock.NewBr(condBlock)
	g.block = condBlock

	counter := condBlock.NewPhi(llir.NewIncoming(lo, preBlock))

	names := g.vals.names()
	phis := make(map[string]*llir.InstPhi, len(names))
	for _, name := range names {
		phi := condBlock.NewPhi(llir.NewIncoming(g.vals[name], preBlock))
		phis[name] = phi
		g.vals[name] = phi
	}

	cmp := condBlock.NewICmp(enum.IPredSLT, counter, hi)
	condBlock.NewCondBr(cmp, bodyBlock, exitBlock)

	exitVals := g.vals.clone()

	// body
	g.block = bodyBlock
	g.vals[forStmt.Var] = counter
	g.genBlock(forStmt.Body)

	next := g.block.NewAdd(counter, constant.NewInt(lltypes.I32, 1))
	counter.Incs = append(counter.Incs, llir.NewIncoming(next, g.block))

	for _, name := range names {
		v, ok := g.vals[name]
		if !ok {
			v = zeroValue(phis[name].Type())
		}

		phis[name].Incs = append(phis[name].Incs, llir.NewIncoming(v, g.block))
	}

	g.block.NewBr(condBlock)

	g.block = exitBlock
	g.vals = exitVals
}

// genLogical generates a short-circuit `and` or `or`.  The right operand is
// only evaluated if the left does not decide the result.
func (g *Generator) genLogical(binop *ir.BinOp) value.Value {
	lhs := g.genExpr(binop.Lhs)
	lhsEnd := g.block

	rhsBlock := g.appendBlock()
	endBlock := g.appendBlock()

	if binop.Op == ir.OpAnd {
		g.block.NewCondBr(lhs, rhsBlock, endBlock)
	} else {
		g.block.NewCondBr(lhs, endBlock, rhsBlock)
	}

	g.block = rhsBlock
	rhs := g.genExpr(binop.Rhs)
	rhsEnd := g.block
	g.block.NewBr(endBlock)

	g.block = endBlock
	return endBlock.NewPhi(llir.NewIncoming(lhs, lhsEnd), llir.NewIncoming(rhs, rhsEnd))
}

// -----------------------------------------------------------------------------

// mergeValues produces the value map at the start of the current block from
// the value maps of its predecessors.  A phi node is only created for names
// whose value differs between predecessors.  A name missing on some edge takes
// the zero value of its type along that edge.
func (g *Generator) mergeValues(edges []edge) valueMap {
	all := make(valueMap)
	for _, e := range edges {
		for name, v := range e.vals {
			if _, ok := all[name]; !ok {
				all[name] = v
			}
		}
	}

	merged := make(valueMap, len(all))
	for _, name := range all.names() {
		typ := all[name].Type()

		incoming := make([]*llir.Incoming, len(edges))
		same := true
		for i, e := range edges {
			v, ok := e.vals[name]
			if !ok {
				v = zeroValue(typ)
			}

			incoming[i] = llir.NewIncoming(v, e.block)
			if v != incoming[0].X {
				same = false
			}
		}

		if same {
			merged[name] = incoming[0].X
		} else {
			merged[name] = g.block.NewPhi(incoming...)
		}
	}

	return merged
}
