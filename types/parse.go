package types

import (
	"fmt"
	"strings"
)

// Parse converts a surface type expression into a type.  The accepted grammar
// is `int`, `float`, `bool` and `[T]` where T is itself a type expression.
func Parse(expr string) (Type, error) {
	s := strings.TrimSpace(expr)

	switch s {
	case "int":
		return PrimTypeInt, nil
	case "float":
		return PrimTypeFloat, nil
	case "bool":
		return PrimTypeBool, nil
	case "":
		return nil, fmt.Errorf("empty type expression")
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		elem, err := Parse(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}

		return NewArray(elem), nil
	}

	return nil, fmt.Errorf("type names must be int, float, bool or [T], not `%s`", s)
}

// MustParse is like Parse but panics on malformed input.  It is intended for
// signatures written as literals in Go source.
func MustParse(expr string) Type {
	t, err := Parse(expr)
	if err != nil {
		panic(err)
	}

	return t
}

// ParseSignature builds a function signature from surface type expressions.
func ParseSignature(ret string, params ...string) (*FuncType, error) {
	rt, err := Parse(ret)
	if err != nil {
		return nil, err
	}

	pts := make([]Type, len(params))
	for i, p := range params {
		if pts[i], err = Parse(p); err != nil {
			return nil, err
		}
	}

	return NewFunc(rt, pts...), nil
}
