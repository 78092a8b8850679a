package interpreter_test

import (
	"bytes"
	"testing"

	"microobj/pkg/ast"
	"microobj/pkg/interpreter"
)

func TestSnapshotRoundTrip(t *testing.T) {
	it, main := start(t, ast.Seq(
		ast.Create{Target: x, Class: "Counter", Args: []ast.Expr{num(3)}},
		ast.Create{Target: y, Class: "Point", Args: []ast.Expr{ast.Lit(ast.Str("a \"quoted\" label")), x}},
		ast.Assign{Target: ast.OthersVar{Obj: y, Name: "x"}, Value: ast.Lit(ast.Null())},
	))
	if err := it.Run(); err != nil {
		t.Fatal(err)
	}

	data, err := it.Heap().MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	h, err := interpreter.UnmarshalHeap(data)
	if err != nil {
		t.Fatal(err)
	}

	again, err := h.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("re-encoding a decoded heap changed the snapshot")
	}

	point, ok := h.Lookup(main.Locals["y"])
	if !ok {
		t.Fatalf("point %s missing after decoding", main.Locals["y"])
	}
	if point["x"] != ast.Null() || point["y"] != main.Locals["x"] {
		t.Errorf("unexpected point fields %s", point)
	}

	resumed := interpreter.NewInterpreter(it.Static(), interpreter.WithHeap(h), interpreter.WithWriter(&bytes.Buffer{}))
	if _, err := resumed.Push(ast.Call{Callee: ast.LocalVar{Name: "this"}, Method: "inc"}, main.Locals["x"], nil); err != nil {
		t.Fatal(err)
	}
	if err := resumed.Run(); err != nil {
		t.Fatal(err)
	}
	counter, _ := h.Lookup(main.Locals["x"])
	if counter["n"] != ast.Int(4) {
		t.Errorf("expected the restored counter to reach 4, got %s", counter["n"])
	}
	if ref := h.Alloc("Counter"); it.Heap().Contains(ref) {
		t.Errorf("restored heap reused reference %s", ref)
	}
}

func TestUnmarshalHeapRejectsGarbage(t *testing.T) {
	if _, err := interpreter.UnmarshalHeap([]byte{0xff, 0x00}); err == nil {
		t.Error("expected an error")
	}
}
