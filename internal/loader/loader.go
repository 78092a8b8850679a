// Package loader decodes programs stored as YAML statement trees.
//
// A program document has a list of classes and a main block:
//
//	classes:
//	  - name: Counter
//	    fields: [n]
//	    methods:
//	      inc:
//	        body:
//	          - assign: {target: {own: n}, value: {plus: [{own: n}, {int: 1}]}}
//	          - return: {own: n}
//	main:
//	  - new: {target: {local: x}, class: Counter, args: [{int: 0}]}
//	  - call: {callee: {local: x}, method: inc}
//
// A list of statements is a sequence. Every other statement or expression is
// a mapping with a single key naming its kind.
package loader

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"microobj/pkg/ast"
	"microobj/pkg/interpreter"
)

// Program is a decoded program.
type Program struct {
	Static *interpreter.StaticTable
	Main   ast.Stmt
}

type document struct {
	Classes []classDoc `yaml:"classes"`
	Main    yaml.Node  `yaml:"main"`
}

type classDoc struct {
	Name    string               `yaml:"name"`
	Fields  []string             `yaml:"fields"`
	Methods map[string]methodDoc `yaml:"methods"`
}

type methodDoc struct {
	Params []string  `yaml:"params"`
	Body   yaml.Node `yaml:"body"`
}

// LoadFile reads the program at path.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Load decodes a program document from r.
func Load(r io.Reader) (*Program, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}

	classes := make([]interpreter.Class, 0, len(doc.Classes))
	for _, c := range doc.Classes {
		class := interpreter.Class{Name: c.Name, Fields: c.Fields, Methods: make(map[string]interpreter.Method, len(c.Methods))}
		for name, m := range c.Methods {
			body, err := decodeStmt(&m.Body)
			if err != nil {
				return nil, fmt.Errorf("method %s.%s: %w", c.Name, name, err)
			}
			class.Methods[name] = interpreter.Method{Body: body, Params: m.Params}
		}
		classes = append(classes, class)
	}

	static, err := interpreter.NewStaticTable(classes...)
	if err != nil {
		return nil, err
	}

	main, err := decodeStmt(&doc.Main)
	if err != nil {
		return nil, fmt.Errorf("main: %w", err)
	}

	return &Program{Static: static, Main: main}, nil
}

// single returns the key and value of a one-entry mapping.
func single(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, errorAt(n, "expected a mapping with a single key")
	}
	return n.Content[0].Value, n.Content[1], nil
}

// fields returns the entries of a mapping node by key.
func fields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errorAt(n, "expected a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if !slices.Contains(allowed, key) {
			return nil, errorAt(n.Content[i], "unknown key %q", key)
		}
		out[key] = n.Content[i+1]
	}
	return out, nil
}

func required(m map[string]*yaml.Node, parent *yaml.Node, key string) (*yaml.Node, error) {
	n, ok := m[key]
	if !ok {
		return nil, errorAt(parent, "missing %q", key)
	}
	return n, nil
}

func scalar(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", errorAt(n, "expected a scalar")
	}
	return n.Value, nil
}

func errorAt(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

func isNull(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func decodeInt(n *yaml.Node) (ast.Value, error) {
	s, err := scalar(n)
	if err != nil {
		return ast.Value{}, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ast.Value{}, errorAt(n, "invalid integer %q", s)
	}
	return ast.Int(v), nil
}

// ParseExpr decodes a single expression such as `{own: n}`.
func ParseExpr(src string) (ast.Expr, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, fmt.Errorf("decoding expression: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("expected one expression")
	}
	return decodeExpr(doc.Content[0])
}
