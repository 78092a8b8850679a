package interpreter

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// String renders the whole machine state: the heap ordered by reference and
// the stack from the top down. It does not modify anything.
func (i *Interpreter) String() string {
	var b strings.Builder

	b.WriteString("Global store:\n")
	for _, o := range i.heap.Objects() {
		fmt.Fprintf(&b, "\t%s %s\n", o.Ref, o.Fields)
	}

	b.WriteString("Stack:\n")
	for _, f := range i.Stack() {
		fmt.Fprintf(&b, "Prc%d@%s:\n\t%s\nStatement:\n\t%s\n", f.ID, f.Obj, f.Locals, f.Stmt)
	}

	return b.String()
}

// String renders m with its names sorted.
func (m Memory) String() string {
	names := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(names))
	for idx, name := range names {
		parts[idx] = name + "=" + m[name].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
