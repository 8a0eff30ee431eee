package generate

import (
	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/types"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// callocSymbol is the C library allocator used for arrays created by native
// code.
const callocSymbol = "calloc"

// genIndex generates an array index widened to 64 bits.
func (g *Generator) genIndex(index ir.Expr) value.Value {
	return g.block.NewSExt(g.genExpr(index), lltypes.I64)
}

// genAddress generates the address of an indexed reference.  The address is
// computed with integer arithmetic on the base pointer: the index is scaled by
// the byte width of the element.  For the two index form, the inner array
// pointer is loaded first.  No bounds checking is performed.
func (g *Generator) genAddress(ref *ir.Ref) value.Value {
	base := g.lookup(ref, ref.Name)

	if len(ref.Indices) == 2 {
		inner := types.NewArray(ref.Type())
		innerPtr := g.offset(base, inner, ref.Indices[0])
		base = g.block.NewLoad(convType(inner), innerPtr)
	}

	return g.offset(base, ref.Type(), ref.Indices[len(ref.Indices)-1])
}

// offset computes `base + index * width(elem)` as a pointer to elem.
func (g *Generator) offset(base value.Value, elem types.Type, index ir.Expr) value.Value {
	scaled := g.block.NewMul(g.genIndex(index), constant.NewInt(lltypes.I64, int64(elem.Size())))
	addr := g.block.NewAdd(g.block.NewPtrToInt(base, lltypes.I64), scaled)

	return g.block.NewIntToPtr(addr, lltypes.NewPointer(convType(elem)))
}

// genBuiltinArray generates one of the `create_*_array` builtins: a fresh
// zeroed array on the heap.  Like every array created by native code it stays
// allocated until it is passed to a declared native `free`.
func (g *Generator) genBuiltinArray(call *ir.FuncCall) value.Value {
	elem, _ := types.ElemOf(call.Type())
	return g.newArray(elem, g.genIndex(call.Args[0]))
}

// genArrayLiteral generates an array literal as a heap array filled with the
// values of its elements.
func (g *Generator) genArrayLiteral(lit *ir.ArrayLiteral) value.Value {
	elem, _ := types.ElemOf(lit.Type())
	elemType := convType(elem)

	arr := g.newArray(elem, constant.NewInt(lltypes.I64, int64(len(lit.Elems))))
	for i, e := range lit.Elems {
		val := g.genExpr(e)
		ptr := g.block.NewGetElementPtr(elemType, arr, constant.NewInt(lltypes.I64, int64(i)))
		g.block.NewStore(val, ptr)
	}

	return arr
}

// newArray allocates n zeroed elements of type elem with calloc.  Arrays are
// never placed in the stack frame: they may be returned, and allocations
// inside loops would grow the frame on every iteration.
func (g *Generator) newArray(elem types.Type, n value.Value) value.Value {
	raw := g.block.NewCall(g.calloc(), n, constant.NewInt(lltypes.I64, int64(elem.Size())))
	return g.block.NewBitCast(raw, lltypes.NewPointer(convType(elem)))
}

// calloc returns the declaration of the C allocator, adding it to the module
// if necessary.
func (g *Generator) calloc() *llir.Func {
	if decl, ok := g.decls[callocSymbol]; ok {
		return decl
	}

	decl := g.mod.NewFunc(
		callocSymbol,
		lltypes.I8Ptr,
		llir.NewParam("count", lltypes.I64),
		llir.NewParam("size", lltypes.I64),
	)
	g.decls[callocSymbol] = decl

	return decl
}
