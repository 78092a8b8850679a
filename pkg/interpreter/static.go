package interpreter

import (
	"fmt"
	"slices"

	"microobj/pkg/ast"
)

// Method is a method body with its ordered parameter names.
type Method struct {
	Body   ast.Stmt
	Params []string
}

// Class declares the fields (in constructor order) and methods of a class.
type Class struct {
	Name    string
	Fields  []string
	Methods map[string]Method
}

// StaticTable holds class metadata. It is never mutated after
// NewStaticTable returns and may be shared by any number of interpreters.
type StaticTable struct {
	fields  map[string][]string
	methods map[string]map[string]Method
}

// NewStaticTable builds the table for classes.
func NewStaticTable(classes ...Class) (*StaticTable, error) {
	st := &StaticTable{
		fields:  make(map[string][]string, len(classes)),
		methods: make(map[string]map[string]Method, len(classes)),
	}

	for _, c := range classes {
		if c.Name == "" {
			return nil, fmt.Errorf("class without a name")
		}
		if _, dup := st.fields[c.Name]; dup {
			return nil, fmt.Errorf("class %s declared twice", c.Name)
		}
		for i, f := range c.Fields {
			if slices.Contains(c.Fields[:i], f) {
				return nil, fmt.Errorf("field %s declared twice in class %s", f, c.Name)
			}
		}

		st.fields[c.Name] = slices.Clone(c.Fields)
		methods := make(map[string]Method, len(c.Methods))
		for name, m := range c.Methods {
			if m.Body == nil {
				return nil, fmt.Errorf("method %s.%s has no body", c.Name, name)
			}
			methods[name] = Method{Body: m.Body, Params: slices.Clone(m.Params)}
		}
		st.methods[c.Name] = methods
	}

	return st, nil
}

// Fields returns the declared fields of class in constructor order.
func (st *StaticTable) Fields(class string) ([]string, error) {
	fields, ok := st.fields[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	return fields, nil
}

// HasField reports whether field is declared for class.
func (st *StaticTable) HasField(class, field string) bool {
	return slices.Contains(st.fields[class], field)
}

// Method looks up method name of class.
func (st *StaticTable) Method(class, name string) (Method, error) {
	mt, ok := st.methods[class]
	if !ok {
		return Method{}, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	m, ok := mt[name]
	if !ok {
		return Method{}, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, class, name)
	}
	return m, nil
}

// Classes returns the declared class names, sorted.
func (st *StaticTable) Classes() []string {
	names := make([]string, 0, len(st.fields))
	for name := range st.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
