package types

import (
	"strings"

	"github.com/es1024/python-staged-programming/common"
)

// Type represents a data type of the compiled language.
type Type interface {
	// Returns whether this type is equal to the other type.  This should only
	// be called through Equals which also handles nil types.
	equals(other Type) bool

	// Returns the size of a value of this type in bytes when it is stored in
	// an array slot.
	Size() int

	// Returns the representative string for this type.  This is the same as
	// the surface syntax accepted by Parse.
	Repr() string
}

// Equals returns whether two types are equal.  Two nil types are equal.
func Equals(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.equals(b)
}

// -----------------------------------------------------------------------------

// PrimitiveType represents a scalar type.  This must be one of the enumerated
// primitive type values below.
type PrimitiveType int

// Enumeration of the primitive types.
const (
	PrimTypeInt PrimitiveType = iota
	PrimTypeFloat
	PrimTypeBool
)

func (pt PrimitiveType) equals(other Type) bool {
	if opt, ok := other.(PrimitiveType); ok {
		return pt == opt
	}

	return false
}

func (pt PrimitiveType) Size() int {
	switch pt {
	case PrimTypeBool:
		return 1
	case PrimTypeInt:
		return 4
	default:
		return 8
	}
}

func (pt PrimitiveType) Repr() string {
	switch pt {
	case PrimTypeInt:
		return "int"
	case PrimTypeFloat:
		return "float"
	default:
		return "bool"
	}
}

// IsNumeric returns whether the type is Int or Float.
func IsNumeric(t Type) bool {
	return Equals(t, PrimTypeInt) || Equals(t, PrimTypeFloat)
}

// -----------------------------------------------------------------------------

// ArrayType represents a flat, pointer-backed array.  It is the only pointer
// type in the language: `[[T]]` is an array of arrays which is addressed as a
// pointer to pointers.
type ArrayType struct {
	// The element type of the array.
	ElemType Type
}

// NewArray returns a new array type over elem.
func NewArray(elem Type) *ArrayType {
	return &ArrayType{ElemType: elem}
}

func (at *ArrayType) equals(other Type) bool {
	if oat, ok := other.(*ArrayType); ok {
		return Equals(at.ElemType, oat.ElemType)
	}

	return false
}

func (at *ArrayType) Size() int {
	return common.PointerSize
}

func (at *ArrayType) Repr() string {
	return "[" + at.ElemType.Repr() + "]"
}

// ElemWidth returns the byte width of one array element.
func (at *ArrayType) ElemWidth() int {
	return at.ElemType.Size()
}

// Depth returns the number of array levels: 1 for `[T]`, 2 for `[[T]]`.
func (at *ArrayType) Depth() int {
	if inner, ok := at.ElemType.(*ArrayType); ok {
		return inner.Depth() + 1
	}

	return 1
}

// ElemOf returns the element type of t if t is an array.
func ElemOf(t Type) (Type, bool) {
	if at, ok := t.(*ArrayType); ok {
		return at.ElemType, true
	}

	return nil, false
}

// -----------------------------------------------------------------------------

// FuncType represents a function signature.
type FuncType struct {
	// The parameter types of the function.
	ParamTypes []Type

	// The return type of the function.
	ReturnType Type
}

// NewFunc creates a new function signature.
func NewFunc(ret Type, params ...Type) *FuncType {
	return &FuncType{ParamTypes: params, ReturnType: ret}
}

func (ft *FuncType) equals(other Type) bool {
	if oft, ok := other.(*FuncType); ok {
		if len(ft.ParamTypes) != len(oft.ParamTypes) {
			return false
		}

		for i, paramtyp := range ft.ParamTypes {
			if !Equals(paramtyp, oft.ParamTypes[i]) {
				return false
			}
		}

		return Equals(ft.ReturnType, oft.ReturnType)
	}

	return false
}

func (ft *FuncType) Size() int {
	return common.PointerSize
}

func (ft *FuncType) Repr() string {
	sb := strings.Builder{}

	sb.WriteRune('(')
	for i, paramtyp := range ft.ParamTypes {
		if i != 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(paramtyp.Repr())
	}
	sb.WriteRune(')')

	sb.WriteString(" -> ")
	sb.WriteString(ft.ReturnType.Repr())

	return sb.String()
}
