package driver

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"microobj/internal/config"
	"microobj/pkg/ast"
	"microobj/pkg/color"
	"microobj/pkg/interpreter"
)

const program = `
classes:
  - name: List
    fields: [content, next]
  - name: Cat
    fields: [name]
main:
  - new: {target: {local: tom}, class: Cat, args: [{str: Tom}]}
  - breakpoint
  - derive: {target: {local: cats}, class: {str: Cat}}
  - print: {field: {of: {local: cats}, name: content}}
`

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecute(t *testing.T) {
	color.EnableColor(false)
	var out bytes.Buffer
	d := Driver{ProgramFile: writeProgram(t, program), Config: config.Default(), Out: &out}

	if err := d.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "obj2:Cat\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestExecuteWithoutKnowledgeBase(t *testing.T) {
	cfg := config.Default()
	cfg.KnowledgeBase.Enabled = false
	d := Driver{ProgramFile: writeProgram(t, program), Config: cfg, Out: &bytes.Buffer{}}

	err := d.Execute()
	if err == nil || !strings.Contains(err.Error(), "no knowledge base configured") {
		t.Errorf("expected a missing knowledge base error, got %v", err)
	}
}

func TestExecuteTrace(t *testing.T) {
	color.EnableColor(false)
	var out bytes.Buffer
	d := Driver{
		ProgramFile: writeProgram(t, "main: [{print: {int: 1}}, {print: {int: 2}}]"),
		Config:      config.Default(),
		Trace:       true,
		Out:         &out,
	}
	if err := d.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"=== Step 1 ===", "=== Step 2 ===", "print(2)", "1\n", "2\n"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}
}

func writeSnapshot(t *testing.T, class string) string {
	t.Helper()
	h := interpreter.NewHeap()
	if err := h.Insert(h.Alloc(class), interpreter.Memory{"name": ast.Str("Tom")}); err != nil {
		t.Fatal(err)
	}
	data, err := h.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "heap.cbor")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecuteRestoresSnapshot(t *testing.T) {
	var out bytes.Buffer
	d := Driver{
		ProgramFile: writeProgram(t, program+"  - print: {field: {of: {field: {of: {local: cats}, name: next}}, name: content}}\n"),
		RestoreFile: writeSnapshot(t, "Cat"),
		Config:      config.Default(),
		Out:         &out,
	}
	if err := d.Execute(); err != nil {
		t.Fatal(err)
	}
	// the restored cat is derived too, and new names continue after it
	if out.String() != "obj3:Cat\nobj1:Cat\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestExecuteRejectsSnapshotWithUnknownClass(t *testing.T) {
	d := Driver{
		ProgramFile: writeProgram(t, program),
		RestoreFile: writeSnapshot(t, "Dog"),
		Config:      config.Default(),
		Out:         &bytes.Buffer{},
	}
	if err := d.Execute(); !errors.Is(err, interpreter.ErrUnknownClass) {
		t.Errorf("expected ErrUnknownClass, got %v", err)
	}
}

func TestSessionCommands(t *testing.T) {
	color.EnableColor(false)
	st, err := interpreter.NewStaticTable(interpreter.Class{Name: "Counter", Fields: []string{"n"}})
	if err != nil {
		t.Fatal(err)
	}
	it := interpreter.NewInterpreter(st, interpreter.WithWriter(&bytes.Buffer{}))
	if _, err := it.Start(ast.Seq(
		ast.Create{Target: ast.LocalVar{Name: "x"}, Class: "Counter", Args: []ast.Expr{ast.Lit(ast.Int(5))}},
		ast.Debug{},
	)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := it.Step(); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	sess := &session{it: it, out: &out}

	tests := []struct {
		input       string
		expected    action
		output      string
		description string
	}{
		{"", actPrompt, "", "empty line"},
		{"eval {field: {of: {local: x}, name: n}}", actPrompt, "5\n", "eval"},
		{"trace", actPrompt, "Prc1@obj1:_Entry_:", "trace"},
		{"help", actPrompt, "snapshot <file>", "help"},
		{"step", actStep, "", "step"},
		{"c", actContinue, "", "continue"},
		{"quit", actQuit, "", "quit"},
	}
	for _, tt := range tests {
		out.Reset()
		act, err := sess.handle(tt.input)
		if err != nil {
			t.Errorf("%s: %v", tt.description, err)
			continue
		}
		if act != tt.expected {
			t.Errorf("%s: expected action %d, got %d", tt.description, tt.expected, act)
		}
		if !strings.Contains(out.String(), tt.output) {
			t.Errorf("%s: expected %q in %q", tt.description, tt.output, out.String())
		}
	}
	if sess.stepping {
		t.Error("continue must leave stepping mode")
	}

	for _, bad := range []string{"fly", "eval {own: nope}", "eval not yaml: [", "snapshot"} {
		if _, err := sess.handle(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}

	path := filepath.Join(t.TempDir(), "heap.cbor")
	if _, err := sess.handle("snapshot " + path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	h, err := interpreter.UnmarshalHeap(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.Len() != it.Heap().Len() {
		t.Errorf("snapshot has %d objects, heap has %d", h.Len(), it.Heap().Len())
	}
}
