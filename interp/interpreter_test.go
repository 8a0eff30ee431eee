package interp

import (
	"errors"
	"testing"

	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/types"
	"github.com/es1024/python-staged-programming/walk"
	"github.com/kr/pretty"
)

// program is a set of function definitions checked on demand.
type program map[string]*ir.FuncDef

func (p program) Lookup(name string) (*types.FuncType, bool) {
	fn, ok := p[name]
	if !ok {
		return nil, false
	}

	sig, err := walk.Signature(fn)
	return sig, err == nil
}

func (p program) Function(name string) (*ir.FuncDef, error) {
	fn, ok := p[name]
	if !ok {
		return nil, report.Raise(report.LifecycleError, "", "call to unregistered function `%s`", name)
	}

	if !fn.Checked() {
		if err := walk.Check(fn, p); err != nil {
			return nil, err
		}
	}

	return fn, nil
}

func newProgram(fns ...*ir.FuncDef) program {
	p := make(program)
	for _, fn := range fns {
		p[fn.Name] = fn
	}

	return p
}

// run checks and interprets the named function of p.
func run(t *testing.T, p program, name string, args ...interface{}) Value {
	t.Helper()

	fn, err := p.Function(name)
	if err != nil {
		t.Fatalf("checking %s: %s", name, err)
	}

	v, err := New(p).Call(fn, args...)
	if err != nil {
		t.Fatalf("interpreting %s: %s", name, err)
	}

	return v
}

func TestIfZeroDefault(t *testing.T) {
	p := newProgram(ir.Func("f", "int", []ir.Param{ir.P("c", "bool")},
		ir.IfThen(ir.Var("c"), ir.Set("y", ir.Int(5))),
		ir.Ret(ir.Var("y")),
	))

	if v := run(t, p, "f", false); v != int32(0) {
		t.Errorf("f(false) = %v, want 0", v)
	}

	if v := run(t, p, "f", true); v != int32(5) {
		t.Errorf("f(true) = %v, want 5", v)
	}
}

func TestTruthyCondition(t *testing.T) {
	p := newProgram(ir.Func("f", "int", []ir.Param{ir.P("x", "float")},
		ir.IfElse(ir.Var("x"), ir.Body(ir.Ret(ir.Int(1))), ir.Body(ir.Ret(ir.Int(2)))),
	))

	if v := run(t, p, "f", 0.5); v != int32(1) {
		t.Errorf("f(0.5) = %v, want 1", v)
	}

	if v := run(t, p, "f", 0.0); v != int32(2) {
		t.Errorf("f(0.0) = %v, want 2", v)
	}
}

func TestForSum(t *testing.T) {
	p := newProgram(ir.Func("sum", "int", []ir.Param{ir.P("n", "int")},
		ir.Set("s", ir.Int(0)),
		ir.Loop("i", ir.Int(0), ir.Var("n"), ir.Set("s", ir.Add(ir.Var("s"), ir.Var("i")))),
		ir.Ret(ir.Var("s")),
	))

	for n, want := range map[int32]int32{0: 0, 1: 0, 10: 45} {
		if v := run(t, p, "sum", n); v != want {
			t.Errorf("sum(%d) = %v, want %d", n, v, want)
		}
	}
}

func TestLoopVariableRebound(t *testing.T) {
	// assigning to the induction variable does not change the iteration count
	p := newProgram(ir.Func("count", "int", nil,
		ir.Set("c", ir.Int(0)),
		ir.Loop("i", ir.Int(0), ir.Int(4),
			ir.Set("i", ir.Add(ir.Var("i"), ir.Int(10))),
			ir.Set("c", ir.Add(ir.Var("c"), ir.Int(1))),
		),
		ir.Ret(ir.Var("c")),
	))

	if v := run(t, p, "count"); v != int32(4) {
		t.Errorf("count() = %v, want 4", v)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	p := newProgram(ir.Func("put", "float", []ir.Param{ir.P("a", "[float]"), ir.P("i", "int"), ir.P("v", "float")},
		ir.SetAt("a", ir.Var("i"), ir.Var("v")),
		ir.Ret(ir.At("a", ir.Var("i"))),
	))

	arr := []float64{1, 2, 3}
	if v := run(t, p, "put", arr, 1, 7.5); v != 7.5 {
		t.Errorf("put() = %v, want 7.5", v)
	}

	want := []float64{1, 7.5, 3}
	if diff := pretty.Diff(arr, want); len(diff) > 0 {
		t.Errorf("host array not updated: %v", diff)
	}
}

func TestNestedArrays(t *testing.T) {
	p := newProgram(ir.Func("trace", "int", []ir.Param{ir.P("m", "[[int]]"), ir.P("n", "int")},
		ir.Set("t", ir.Int(0)),
		ir.Loop("i", ir.Int(0), ir.Var("n"),
			ir.Set("t", ir.Add(ir.Var("t"), ir.At2("m", ir.Var("i"), ir.Var("i")))),
			ir.SetAt2("m", ir.Var("i"), ir.Var("i"), ir.Int(0)),
		),
		ir.Ret(ir.Var("t")),
	))

	m := [][]int32{{1, 2}, {3, 4}}
	if v := run(t, p, "trace", m, 2); v != int32(5) {
		t.Errorf("trace() = %v, want 5", v)
	}

	if m[0][0] != 0 || m[1][1] != 0 {
		t.Errorf("diagonal not cleared: %v", m)
	}
}

func TestBuiltinArrays(t *testing.T) {
	p := newProgram(ir.Func("f", "float", []ir.Param{ir.P("n", "int")},
		ir.Set("a", ir.Call("create_float_array", ir.Var("n"))),
		ir.Set("b", ir.Array(ir.Float(0.5), ir.Float(1.5))),
		ir.Set("flags", ir.Call("create_bool_array", ir.Int(2))),
		ir.SetAt("a", ir.Int(0), ir.At("b", ir.Int(1))),
		ir.IfThen(ir.At("flags", ir.Int(1)), ir.Ret(ir.Float(-1))),
		ir.Ret(ir.Add(ir.At("a", ir.Int(0)), ir.At("a", ir.Int(1)))),
	))

	if v := run(t, p, "f", 3); v != 1.5 {
		t.Errorf("f(3) = %v, want 1.5", v)
	}
}

func TestMutualRecursion(t *testing.T) {
	// fact and fact2 call each other; both compute n!
	p := newProgram(
		ir.Func("fact", "int", []ir.Param{ir.P("n", "int")},
			ir.IfThen(ir.Le(ir.Var("n"), ir.Int(1)), ir.Ret(ir.Int(1))),
			ir.Ret(ir.Mul(ir.Var("n"), ir.Call("fact2", ir.Sub(ir.Var("n"), ir.Int(1))))),
		),
		ir.Func("fact2", "int", []ir.Param{ir.P("n", "int")},
			ir.IfThen(ir.Le(ir.Var("n"), ir.Int(1)), ir.Ret(ir.Int(1))),
			ir.Ret(ir.Mul(ir.Var("n"), ir.Call("fact", ir.Sub(ir.Var("n"), ir.Int(1))))),
		),
	)

	want := int32(1)
	for n := int32(1); n <= 9; n++ {
		want *= n
		if v := run(t, p, "fact", n); v != want {
			t.Errorf("fact(%d) = %v, want %d", n, v, want)
		}
	}
}

func TestShortCircuit(t *testing.T) {
	// the right operand would index out of range if it were evaluated
	p := newProgram(ir.Func("f", "bool", []ir.Param{ir.P("a", "[bool]")},
		ir.Ret(ir.Or(ir.Bool(true), ir.At("a", ir.Int(5)))),
	))

	if v := run(t, p, "f", []bool{false}); v != true {
		t.Errorf("f() = %v, want true", v)
	}
}

func TestComparisons(t *testing.T) {
	p := newProgram(ir.Func("f", "int", []ir.Param{ir.P("x", "float"), ir.P("y", "int")},
		ir.Set("r", ir.Int(0)),
		ir.IfThen(ir.Lt(ir.Var("x"), ir.Var("y")), ir.Set("r", ir.Add(ir.Var("r"), ir.Int(1)))),
		ir.IfThen(ir.Ne(ir.Var("x"), ir.Var("x")), ir.Set("r", ir.Add(ir.Var("r"), ir.Int(10)))),
		ir.IfThen(ir.Eq(ir.Bool(true), ir.Gt(ir.Var("y"), ir.Int(0))), ir.Set("r", ir.Add(ir.Var("r"), ir.Int(100)))),
		ir.Ret(ir.Var("r")),
	))

	if v := run(t, p, "f", 0.5, 1); v != int32(101) {
		t.Errorf("f(0.5, 1) = %v, want 101", v)
	}
}

func TestRuntimeErrors(t *testing.T) {
	p := newProgram(
		ir.Func("oob", "int", []ir.Param{ir.P("a", "[int]")}, ir.Ret(ir.At("a", ir.Int(3)))),
		ir.Func("modzero", "int", []ir.Param{ir.P("n", "int")}, ir.Ret(ir.Mod(ir.Int(1), ir.Var("n")))),
	)

	tests := []struct {
		name string
		args []interface{}
	}{
		{"oob", []interface{}{[]int32{1}}},
		{"modzero", []interface{}{0}},
	}

	for _, test := range tests {
		fn, err := p.Function(test.name)
		if err != nil {
			t.Fatal(err)
		}

		_, err = New(p).Call(fn, test.args...)

		var rerr *RuntimeError
		if !errors.As(err, &rerr) {
			t.Errorf("%s: got %v, want a runtime error", test.name, err)
		}
	}
}

func TestCallErrors(t *testing.T) {
	fn := ir.Func("f", "int", []ir.Param{ir.P("n", "int")}, ir.Ret(ir.Var("n")))
	p := newProgram(fn)

	if _, err := New(p).Call(fn, 1); !report.IsKind(err, report.LifecycleError) {
		t.Errorf("calling an unchecked function: got %v", err)
	}

	if _, err := p.Function("f"); err != nil {
		t.Fatal(err)
	}

	if _, err := New(p).Call(fn); !report.IsKind(err, report.MarshalError) {
		t.Errorf("wrong arity: got %v", err)
	}

	if _, err := New(p).Call(fn, int64(1)<<40); !report.IsKind(err, report.MarshalError) {
		t.Errorf("int overflow: got %v", err)
	}

	if _, err := New(p).Call(fn, "one"); !report.IsKind(err, report.MarshalError) {
		t.Errorf("string argument: got %v", err)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   interface{}
		typ  types.Type
		want Value
	}{
		{7, types.PrimTypeInt, int32(7)},
		{int64(-3), types.PrimTypeInt, int32(-3)},
		{uint8(200), types.PrimTypeInt, int32(200)},
		{float32(0.5), types.PrimTypeFloat, 0.5},
		{int32(2), types.PrimTypeFloat, 2.0},
		{true, types.PrimTypeBool, true},
	}

	for _, test := range tests {
		got, err := Coerce(test.in, test.typ)
		if err != nil {
			t.Errorf("Coerce(%v, %s) failed: %s", test.in, test.typ.Repr(), err)
		} else if got != test.want {
			t.Errorf("Coerce(%v, %s) = %#v, want %#v", test.in, test.typ.Repr(), got, test.want)
		}
	}

	if _, err := Coerce(1, types.PrimTypeBool); err == nil {
		t.Error("int coerced to bool")
	}

	if _, err := Coerce(nil, types.NewArray(types.PrimTypeInt)); err == nil {
		t.Error("nil coerced to an array")
	}
}

func TestCoerceArrays(t *testing.T) {
	floats := types.NewArray(types.PrimTypeFloat)
	rows := types.NewArray(floats)

	valid := []struct {
		in  interface{}
		typ types.Type
	}{
		{[]float64{1, 2}, floats},
		{[]interface{}{1, float32(2), 3.5}, floats},
		{[][]float64{{1}, {2, 3}}, rows},
		{[]interface{}{[]float64{1}, []interface{}{2.0}}, rows},
		{[]int32{}, types.NewArray(types.PrimTypeInt)},
	}

	for _, test := range valid {
		if _, err := Coerce(test.in, test.typ); err != nil {
			t.Errorf("Coerce(%#v, %s) failed: %s", test.in, test.typ.Repr(), err)
		}
	}

	// these are rejected by the native call bridge as well
	invalid := map[string]struct {
		in  interface{}
		typ types.Type
	}{
		"strings":     {[]string{"a"}, floats},
		"float32":     {[]float32{1}, floats},
		"int":         {[]int{1}, types.NewArray(types.PrimTypeInt)},
		"nil element": {[]interface{}{1.0, nil}, floats},
		"nil row":     {[]interface{}{[]float64{1}, nil}, rows},
		"flat":        {[]float64{1}, rows},
		"bad element": {[]interface{}{true}, floats},
	}

	for name, test := range invalid {
		if _, err := Coerce(test.in, test.typ); !report.IsKind(err, report.MarshalError) {
			t.Errorf("%s: got %v, want a marshal error", name, err)
		}
	}
}
