package interpreter_test

import (
	"errors"
	"testing"

	"microobj/pkg/ast"
	"microobj/pkg/interpreter"
)

func exprEnv(t *testing.T) interpreter.Env {
	t.Helper()
	h := interpreter.NewHeap()
	self := h.Alloc("Point")
	other := h.Alloc("Point")
	if err := h.Insert(self, interpreter.Memory{"x": ast.Int(1), "y": ast.Int(2), "peer": other}); err != nil {
		t.Fatal(err)
	}
	if err := h.Insert(other, interpreter.Memory{"x": ast.Int(10), "y": ast.Int(20), "peer": ast.Null()}); err != nil {
		t.Fatal(err)
	}
	return interpreter.Env{Locals: interpreter.Memory{"this": self, "i": ast.Int(5)}, Heap: h, Obj: self}
}

func num(n int64) ast.Expr { return ast.Lit(ast.Int(n)) }

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		expr        ast.Expr
		expected    ast.Value
		description string
	}{
		{ast.Op(ast.OpPlus), ast.Int(0), "empty plus"},
		{ast.Op(ast.OpPlus, num(3), num(4), num(5)), ast.Int(12), "plus folds left"},
		{ast.Op(ast.OpMinus, num(10), num(3)), ast.Int(7), "minus"},
		{ast.Op(ast.OpMinus, num(3), num(10)), ast.Int(-7), "negative minus"},
		{ast.Op(ast.OpGeq, num(3), num(3)), ast.True, "geq on equal"},
		{ast.Op(ast.OpGeq, num(2), num(3)), ast.False, "geq on smaller"},
		{ast.Op(ast.OpLeq, num(2), num(3)), ast.True, "leq"},
		{ast.Op(ast.OpEq, num(2), num(2)), ast.True, "eq"},
		{ast.Op(ast.OpEq, num(2), ast.Lit(ast.Str("2"))), ast.False, "eq compares tags"},
		{ast.Op(ast.OpNeq, num(2), ast.Lit(ast.Str("2"))), ast.True, "neq compares tags"},
		{ast.Op(ast.OpPlus, ast.OwnVar{Name: "x"}, ast.LocalVar{Name: "i"}), ast.Int(6), "plus over variables"},
		{ast.OthersVar{Obj: ast.OwnVar{Name: "peer"}, Name: "y"}, ast.Int(20), "others var"},
	}

	env := exprEnv(t)
	for _, tt := range tests {
		got, err := interpreter.Eval(tt.expr, env)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.description, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.description, tt.expected, got)
		}
	}
}

func TestEqNeqAreInverses(t *testing.T) {
	env := exprEnv(t)
	values := []ast.Value{
		ast.Int(1), ast.Int(2), ast.Str("1"), ast.True, ast.False, ast.Null(),
		ast.Ref("obj1", "Point"), ast.Ref("obj1", "Other"), env.Obj,
	}

	for _, a := range values {
		for _, b := range values {
			eq, err := interpreter.Eval(ast.Op(ast.OpEq, ast.Lit(a), ast.Lit(b)), env)
			if err != nil {
				t.Fatal(err)
			}
			neq, err := interpreter.Eval(ast.Op(ast.OpNeq, ast.Lit(a), ast.Lit(b)), env)
			if err != nil {
				t.Fatal(err)
			}
			if eq == neq {
				t.Errorf("EQ(%s, %s) = %s and NEQ = %s", a, b, eq, neq)
			}
		}
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		expr        ast.Expr
		expected    error
		description string
	}{
		{ast.Op(ast.OpEq, num(1)), interpreter.ErrParameterCount, "eq with one operand"},
		{ast.Op(ast.OpMinus, num(1), num(2), num(3)), interpreter.ErrParameterCount, "minus with three operands"},
		{ast.Op(ast.OpGeq, num(1), ast.Lit(ast.Str("a"))), interpreter.ErrTypeMismatch, "geq on a string"},
		{ast.Op(ast.OpPlus, num(1), ast.Lit(ast.True)), interpreter.ErrTypeMismatch, "plus on a boolean"},
		{ast.Op("TIMES", num(1), num(2)), interpreter.ErrUnsupportedConstruct, "unknown operator"},
		{ast.OwnVar{Name: "z"}, interpreter.ErrUnknownField, "missing own field"},
		{ast.LocalVar{Name: "nope"}, interpreter.ErrUnknownVariable, "missing local"},
		{ast.OthersVar{Obj: ast.Lit(ast.Ref("obj99", "Point")), Name: "x"}, interpreter.ErrUnknownObject, "missing object"},
		{ast.OthersVar{Obj: ast.OwnVar{Name: "peer"}, Name: "z"}, interpreter.ErrUnknownField, "missing field on other"},
	}

	env := exprEnv(t)
	for _, tt := range tests {
		_, err := interpreter.Eval(tt.expr, env)
		if !errors.Is(err, tt.expected) {
			t.Errorf("%s: expected %v, got %v", tt.description, tt.expected, err)
		}
	}
}

func TestEvalRequiresOwnerOnHeap(t *testing.T) {
	env := exprEnv(t)
	env.Obj = ast.Ref("ghost", "Point")

	_, err := interpreter.Eval(num(1), env)
	if !errors.Is(err, interpreter.ErrUnknownObject) {
		t.Errorf("expected ErrUnknownObject, got %v", err)
	}
}
