package walk

import (
	"testing"

	"github.com/es1024/python-staged-programming/ir"
	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/types"
	"github.com/kr/pretty"
)

// registry is a fixed table of function signatures.
type registry map[string]*types.FuncType

func (r registry) Lookup(name string) (*types.FuncType, bool) {
	sig, ok := r[name]
	return sig, ok
}

func mustCheck(t *testing.T, fn *ir.FuncDef, reg registry) {
	t.Helper()

	if err := Check(fn, reg); err != nil {
		t.Fatalf("checking %s: %s", fn.Name, err)
	}
}

func TestPromotion(t *testing.T) {
	ret := ir.Ret(ir.Add(ir.Var("a"), ir.Var("b")))
	fn := ir.Func("f", "float", []ir.Param{ir.P("a", "int"), ir.P("b", "float")}, ret)
	mustCheck(t, fn, nil)

	sum := ret.Value.(*ir.BinOp)
	if !types.Equals(sum.Type(), types.PrimTypeFloat) {
		t.Errorf("sum has type %s, want float", sum.Type().Repr())
	}

	if _, ok := sum.Lhs.(*ir.CastToFloat); !ok {
		t.Errorf("int operand was not promoted: %s", ir.Print(sum))
	}

	if _, ok := sum.Rhs.(*ir.CastToFloat); ok {
		t.Error("float operand was promoted")
	}

	want := types.NewFunc(types.PrimTypeFloat, types.PrimTypeInt, types.PrimTypeFloat)
	if !types.Equals(fn.Signature, want) {
		t.Errorf("signature is %s, want %s", fn.Signature.Repr(), want.Repr())
	}
}

func TestDivisionIsFloat(t *testing.T) {
	ret := ir.Ret(ir.Div(ir.Var("a"), ir.Int(2)))
	fn := ir.Func("half", "float", []ir.Param{ir.P("a", "int")}, ret)
	mustCheck(t, fn, nil)

	div := ret.Value.(*ir.BinOp)
	_, lcast := div.Lhs.(*ir.CastToFloat)
	_, rcast := div.Rhs.(*ir.CastToFloat)
	if !lcast || !rcast {
		t.Errorf("both sides of an int division must be promoted: %s", ir.Print(div))
	}
}

func TestCallPromotesArguments(t *testing.T) {
	call := ir.Call("sqrt", ir.Int(4))
	fn := ir.Func("f", "float", nil, ir.Ret(call))
	mustCheck(t, fn, registry{"sqrt": types.NewFunc(types.PrimTypeFloat, types.PrimTypeFloat)})

	if _, ok := call.Args[0].(*ir.CastToFloat); !ok {
		t.Errorf("int argument was not promoted: %s", ir.Print(call))
	}
}

func TestFreshNames(t *testing.T) {
	ifStmt := ir.IfThen(ir.Var("c"), ir.Set("y", ir.Int(5)), ir.Set("z", ir.Float(1)))
	loop := ir.Loop("i", ir.Int(0), ir.Var("n"), ir.Set("s", ir.Var("i")))
	fn := ir.Func("f", "int", []ir.Param{ir.P("c", "bool"), ir.P("n", "int")},
		ifStmt,
		loop,
		ir.Ret(ir.Var("y")),
	)
	mustCheck(t, fn, nil)

	wantIf := []ir.Binding{{Name: "y", Type: types.PrimTypeInt}, {Name: "z", Type: types.PrimTypeFloat}}
	if diff := pretty.Diff(ifStmt.Fresh, wantIf); len(diff) > 0 {
		t.Errorf("if fresh names differ: %v", diff)
	}

	wantFor := []ir.Binding{{Name: "i", Type: types.PrimTypeInt}, {Name: "s", Type: types.PrimTypeInt}}
	if diff := pretty.Diff(loop.Fresh, wantFor); len(diff) > 0 {
		t.Errorf("for fresh names differ: %v", diff)
	}
}

func TestRecursiveCall(t *testing.T) {
	fn := ir.Func("fact", "int", []ir.Param{ir.P("n", "int")},
		ir.IfThen(ir.Le(ir.Var("n"), ir.Int(1)), ir.Ret(ir.Int(1))),
		ir.Ret(ir.Mul(ir.Var("n"), ir.Call("fact", ir.Sub(ir.Var("n"), ir.Int(1))))),
	)
	mustCheck(t, fn, nil)
}

func TestCheckErrors(t *testing.T) {
	reg := registry{"g": types.NewFunc(types.PrimTypeInt, types.PrimTypeInt)}

	tests := []struct {
		name string
		fn   *ir.FuncDef
	}{
		{"missing return", ir.Func("f", "int", nil, ir.Set("x", ir.Int(1)))},
		{"if without else", ir.Func("f", "int", []ir.Param{ir.P("c", "bool")}, ir.IfThen(ir.Var("c"), ir.Ret(ir.Int(1))))},
		{"return type", ir.Func("f", "float", nil, ir.Ret(ir.Int(1)))},
		{"undeclared name", ir.Func("f", "int", nil, ir.Ret(ir.Var("x")))},
		{"unregistered call", ir.Func("f", "int", nil, ir.Ret(ir.Call("h")))},
		{"arity", ir.Func("f", "int", nil, ir.Ret(ir.Call("g")))},
		{"argument type", ir.Func("f", "int", nil, ir.Ret(ir.Call("g", ir.Float(1))))},
		{"cast int to int", ir.Func("f", "int", nil, ir.Ret(ir.ToInt(ir.Int(1))))},
		{"cast float to float", ir.Func("f", "float", nil, ir.Ret(ir.ToFloat(ir.Float(1))))},
		{"rebind type", ir.Func("f", "int", nil, ir.Set("x", ir.Int(1)), ir.Set("x", ir.Float(1)), ir.Ret(ir.Int(0)))},
		{"store type", ir.Func("f", "int", []ir.Param{ir.P("a", "[int]")}, ir.SetAt("a", ir.Int(0), ir.Float(1)), ir.Ret(ir.Int(0)))},
		{"index scalar", ir.Func("f", "int", []ir.Param{ir.P("a", "int")}, ir.Ret(ir.At("a", ir.Int(0))))},
		{"float index", ir.Func("f", "int", []ir.Param{ir.P("a", "[int]")}, ir.Ret(ir.At("a", ir.Float(0))))},
		{"logical ints", ir.Func("f", "bool", nil, ir.Ret(ir.And(ir.Int(1), ir.Bool(true))))},
		{"bool arithmetic", ir.Func("f", "int", nil, ir.Ret(ir.Add(ir.Bool(true), ir.Int(1))))},
		{"compare bool and int", ir.Func("f", "bool", nil, ir.Ret(ir.Eq(ir.Bool(true), ir.Int(1))))},
		{"empty literal", ir.Func("f", "[int]", nil, ir.Ret(ir.Array()))},
		{"mixed literal", ir.Func("f", "[int]", nil, ir.Ret(ir.Array(ir.Int(1), ir.Float(2))))},
		{"float bounds", ir.Func("f", "int", nil, ir.Loop("i", ir.Int(0), ir.Float(3)), ir.Ret(ir.Int(0)))},
		{"array condition", ir.Func("f", "int", []ir.Param{ir.P("a", "[int]")}, ir.IfThen(ir.Var("a"), ir.Ret(ir.Int(1))), ir.Ret(ir.Int(0)))},
		{"bad param type", ir.Func("f", "int", []ir.Param{ir.P("a", "string")}, ir.Ret(ir.Int(0)))},
		{"duplicate param", ir.Func("f", "int", []ir.Param{ir.P("a", "int"), ir.P("a", "int")}, ir.Ret(ir.Int(0)))},
	}

	for _, test := range tests {
		err := Check(test.fn, reg)
		if err == nil {
			t.Errorf("%s: expected a check error", test.name)
			continue
		}

		if !report.IsKind(err, report.CheckError) {
			t.Errorf("%s: got %s, want a check error", test.name, err)
		}

		if test.fn.Checked() {
			t.Errorf("%s: failed function was marked as checked", test.name)
		}
	}
}

func TestErrorUnit(t *testing.T) {
	err := Check(ir.Func("broken", "int", nil, ir.Ret(ir.Var("nope"))), nil)

	var unit string
	if ce, ok := err.(*report.CompileError); ok {
		unit = ce.Unit
	}

	if unit != "broken" {
		t.Errorf("error unit is %q, want %q", unit, "broken")
	}
}
