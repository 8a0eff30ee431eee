package generate

import (
	"github.com/es1024/python-staged-programming/types"

	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
)

// convType converts a language type into its LLVM type.  Bools are 1-bit
// integers and arrays are pointers to their element type.
func convType(typ types.Type) lltypes.Type {
	switch v := typ.(type) {
	case types.PrimitiveType:
		switch v {
		case types.PrimTypeInt:
			return lltypes.I32
		case types.PrimTypeFloat:
			return lltypes.Double
		default:
			return lltypes.I1
		}
	case *types.ArrayType:
		return lltypes.NewPointer(convType(v.ElemType))
	}

	return lltypes.Void
}

// zeroValue returns the zero constant of an LLVM type.  This is the default a
// name takes on a control path that does not assign it.
func zeroValue(typ lltypes.Type) constant.Constant {
	switch v := typ.(type) {
	case *lltypes.IntType:
		return constant.NewInt(v, 0)
	case *lltypes.FloatType:
		return constant.NewFloat(v, 0)
	case *lltypes.PointerType:
		return constant.NewNull(v)
	}

	return constant.NewZeroInitializer(typ)
}
