package marshal

import (
	"testing"

	"github.com/es1024/python-staged-programming/report"
	"github.com/es1024/python-staged-programming/types"
	"github.com/kr/pretty"
)

var (
	intArray   = types.NewArray(types.PrimTypeInt)
	floatArray = types.NewArray(types.PrimTypeFloat)
	boolArray  = types.NewArray(types.PrimTypeBool)
)

func TestRegionSize(t *testing.T) {
	tests := map[int]int{0: 8, 1: 8, 8: 8, 9: 16, 24: 24, 25: 32}

	for n, want := range tests {
		if got := regionSize(n); got != want {
			t.Errorf("regionSize(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestArena(t *testing.T) {
	a, err := newArena(64)
	if err != nil {
		t.Fatal(err)
	}
	defer a.free()

	i := a.alloc(4)
	f := a.alloc(8)
	b := a.alloc(1)
	p := a.alloc(8)

	if i%8 != 0 || f%8 != 0 || b%8 != 0 || p%8 != 0 {
		t.Fatalf("unaligned regions: %d %d %d %d", i, f, b, p)
	}

	a.putInt(i, -7)
	a.putFloat(f, 2.5)
	a.putBool(b, true)
	a.putPtr(p, a.addr(f))

	if a.getInt(i) != -7 || a.getFloat(f) != 2.5 || !a.getBool(b) {
		t.Errorf("arena values did not round trip")
	}

	// only exactly 1 reads back as true
	a.mem[b] = 2
	if a.getBool(b) {
		t.Error("byte 2 read as true")
	}

	if err := a.free(); err != nil {
		t.Fatal(err)
	}

	if err := a.free(); err != nil {
		t.Errorf("second free failed: %s", err)
	}
}

// roundTrip stages v as an array of type at, applies edit to the staged
// memory and copies the result back.
func roundTrip(t *testing.T, v interface{}, at *types.ArrayType, edit func(a *arena, ha *hostArray)) {
	t.Helper()

	ha, err := newHostArray(v, at)
	if err != nil {
		t.Fatalf("newHostArray(%T) failed: %s", v, err)
	}

	a, err := newArena(ha.size())
	if err != nil {
		t.Fatal(err)
	}
	defer a.free()

	ha.stage(a)
	edit(a, ha)
	ha.copyBack(a)
}

func TestCopyBackFloat(t *testing.T) {
	data := []float64{1, 2, 3}
	roundTrip(t, data, floatArray, func(a *arena, ha *hostArray) {
		if got := a.getFloat(ha.off + 8); got != 2 {
			t.Errorf("staged element is %v, want 2", got)
		}

		a.putFloat(ha.off+16, 9.5)
	})

	want := []float64{1, 2, 9.5}
	if diff := pretty.Diff(data, want); len(diff) > 0 {
		t.Errorf("copy back differs: %v", diff)
	}
}

func TestCopyBackKeepsHostTypes(t *testing.T) {
	data := []interface{}{float32(1), 2, 3.5}
	roundTrip(t, data, floatArray, func(a *arena, ha *hostArray) {
		a.putFloat(ha.off, 4.75)
	})

	// float32 elements keep their type; int elements come back as floats
	want := []interface{}{float32(4.75), 2.0, 3.5}
	if diff := pretty.Diff(data, want); len(diff) > 0 {
		t.Errorf("copy back differs: %v", diff)
	}
}

func TestCopyBackNested(t *testing.T) {
	data := [][]int32{{1, 2}, {3}}
	roundTrip(t, data, types.NewArray(intArray), func(a *arena, ha *hostArray) {
		row := ha.rows[1]
		if got := a.getInt(row.off); got != 3 {
			t.Errorf("staged element is %d, want 3", got)
		}

		a.putInt(row.off, 30)
	})

	want := [][]int32{{1, 2}, {30}}
	if diff := pretty.Diff(data, want); len(diff) > 0 {
		t.Errorf("copy back differs: %v", diff)
	}
}

func TestCopyBackBool(t *testing.T) {
	data := []bool{true, false}
	roundTrip(t, data, boolArray, func(a *arena, ha *hostArray) {
		a.putBool(ha.off, false)
		a.putBool(ha.off+1, true)
	})

	if data[0] || !data[1] {
		t.Errorf("copy back gave %v", data)
	}
}

func TestHostArrayErrors(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
		at   *types.ArrayType
	}{
		{"float32 elements", []float32{1, 2}, floatArray},
		{"int64 elements", []int64{1}, intArray},
		{"not a slice", 3, intArray},
		{"nil", nil, intArray},
		{"bad element", []interface{}{1, "two"}, intArray},
		{"flat for nested", []float64{1}, types.NewArray(floatArray)},
		{"nil element", []interface{}{1.0, nil}, floatArray},
		{"nil row", []interface{}{[]float64{1}, nil}, types.NewArray(floatArray)},
	}

	for _, test := range tests {
		if _, err := newHostArray(test.v, test.at); !report.IsKind(err, report.MarshalError) {
			t.Errorf("%s: got %v, want a marshal error", test.name, err)
		}
	}
}

func TestCallErrors(t *testing.T) {
	sig := types.NewFunc(types.PrimTypeInt, floatArray, types.PrimTypeInt)

	if _, err := Call(0, sig, []float64{1}, 1); !report.IsKind(err, report.MarshalError) {
		t.Errorf("null pointer: got %v", err)
	}

	// the address is never called since the arguments are rejected first
	if _, err := Call(1, sig, []float64{1}); !report.IsKind(err, report.MarshalError) {
		t.Errorf("wrong arity: got %v", err)
	}

	if _, err := Call(1, sig, []float32{1}, 1); !report.IsKind(err, report.MarshalError) {
		t.Errorf("float32 array: got %v", err)
	}

	if _, err := Call(1, sig, []float64{1}, 1.5); !report.IsKind(err, report.MarshalError) {
		t.Errorf("float for int: got %v", err)
	}
}
