package loader_test

import (
	"bytes"
	"strings"
	"testing"

	"microobj/internal/loader"
	"microobj/pkg/ast"
	"microobj/pkg/interpreter"
)

const counterProgram = `
classes:
  - name: Counter
    fields: [n]
    methods:
      inc:
        body:
          - assign: {target: {own: n}, value: {plus: [{own: n}, {int: 1}]}}
          - return: {own: n}
      get:
        body:
          return: {own: n}
main:
  - new: {target: {local: x}, class: Counter, args: [{int: 0}]}
  - call: {callee: {local: x}, method: inc}
  - call: {target: {local: y}, callee: {local: x}, method: get}
  - assign: {target: {local: i}, value: {int: 0}}
  - while:
      guard: {leq: [{local: i}, {int: 2}]}
      body:
        assign: {target: {local: i}, value: {plus: [{local: i}, {int: 1}]}}
  - if:
      guard: {eq: [{local: i}, {field: {of: {local: x}, name: n}}]}
      then: {print: {str: "same"}}
      else:
        - print: {local: i}
        - print: {bool: true}
        - print: {null: ~}
  - breakpoint
`

func TestLoadAndRun(t *testing.T) {
	p, err := loader.Load(strings.NewReader(counterProgram))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Static.Method("Counter", "inc"); err != nil {
		t.Errorf("inc not declared: %v", err)
	}
	if fields, err := p.Static.Fields("Counter"); err != nil || len(fields) != 1 {
		t.Errorf("unexpected Counter fields %v (%v)", fields, err)
	}

	var out bytes.Buffer
	it := interpreter.NewInterpreter(p.Static, interpreter.WithWriter(&out))
	main, err := it.Start(p.Main)
	if err != nil {
		t.Fatal(err)
	}
	if err := it.Run(); err != nil {
		t.Fatalf("%v\n%s", err, it)
	}

	if main.Locals["y"] != ast.Int(1) || main.Locals["i"] != ast.Int(3) {
		t.Errorf("unexpected locals %s", main.Locals)
	}
	if out.String() != "3\nTrue\nnull\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestLoadRendering(t *testing.T) {
	p, err := loader.Load(strings.NewReader(`
classes:
  - name: List
    fields: [content, next]
main:
  - query: {target: {local: r}, query: {str: "SELECT 1 AS obj"}, params: [{int: 1}]}
  - derive: {target: {field: {of: {local: r}, name: next}}, class: {str: "List"}}
  - skip
`))
	if err != nil {
		t.Fatal(err)
	}
	want := `r := query("SELECT 1 AS obj", 1); r.next := derive("List"); skip`
	if got := p.Main.String(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		program     string
		expected    string
		description string
	}{
		{"main: {jump: 1}", "unknown statement", "unknown statement"},
		{"main: {print: {float: 1.5}}", "unknown expression", "unknown expression"},
		{"main: {assign: {target: {int: 1}, value: {int: 2}}}", "cannot be assigned", "literal target"},
		{"main: {assign: {target: {local: x}}}", `missing "value"`, "missing value"},
		{"main: {print: {int: abc}}", "invalid integer", "bad integer"},
		{"main: {new: {target: {local: x}, class: A, colour: red}}", "unknown key", "unknown key"},
		{"classes: [{name: A}, {name: A}]", "declared twice", "duplicate class"},
		{"clases: []", "field clases not found", "misspelled top-level key"},
		{"classes: [{name: A, methods: {m: {body: {return: 1}}}}]", "method A.m", "bad method body"},
	}

	for _, tt := range tests {
		_, err := loader.Load(strings.NewReader(tt.program))
		if err == nil {
			t.Errorf("%s: expected an error", tt.description)
			continue
		}
		if !strings.Contains(err.Error(), tt.expected) {
			t.Errorf("%s: expected %q in %q", tt.description, tt.expected, err)
		}
	}
}

func TestParseExpr(t *testing.T) {
	e, err := loader.ParseExpr("{minus: [{field: {of: {local: x}, name: n}}, {int: 1}]}")
	if err != nil {
		t.Fatal(err)
	}
	if got := e.String(); got != "MINUS(x.n, 1)" {
		t.Errorf("unexpected expression %s", got)
	}

	if _, err := loader.ParseExpr(""); err == nil {
		t.Error("expected an error for empty input")
	}
}
