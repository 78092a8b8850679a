package interpreter

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"microobj/pkg/ast"
)

// Memory maps variable or field names to values.
type Memory map[string]ast.Value

// Object is one heap entry.
type Object struct {
	Ref    ast.Value
	Fields Memory
}

// Heap is the global memory: object reference -> fields. References are
// allocated by the heap and never reused. A Heap has a single writer.
type Heap struct {
	objects map[ast.Value]Memory
	nextObj int
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{objects: make(map[ast.Value]Memory)}
}

// Lookup returns the fields of ref.
func (h *Heap) Lookup(ref ast.Value) (Memory, bool) {
	m, ok := h.objects[ref]
	return m, ok
}

// Contains reports whether ref is a key of the heap.
func (h *Heap) Contains(ref ast.Value) bool {
	_, ok := h.objects[ref]
	return ok
}

// Len returns the number of objects.
func (h *Heap) Len() int {
	return len(h.objects)
}

// Alloc returns a fresh reference for an object of class. It does not
// insert anything.
func (h *Heap) Alloc(class string) ast.Value {
	h.nextObj++
	return ast.Ref("obj"+strconv.Itoa(h.nextObj), class)
}

// Insert stores fields under ref.
func (h *Heap) Insert(ref ast.Value, fields Memory) error {
	if !ref.IsObject() {
		return fmt.Errorf("%w: %s is not an object reference", ErrTypeMismatch, ref)
	}
	if fields == nil {
		fields = make(Memory)
	}
	h.objects[ref] = fields
	return nil
}

// FindByLiteral returns the reference whose literal is name.
func (h *Heap) FindByLiteral(name string) (ast.Value, bool) {
	for ref := range h.objects {
		if ref.Literal() == name {
			return ref, true
		}
	}
	return ast.Value{}, false
}

// Objects returns all heap entries ordered by reference literal.
func (h *Heap) Objects() []Object {
	refs := slices.Collect(maps.Keys(h.objects))
	slices.SortFunc(refs, compareRefs)
	out := make([]Object, len(refs))
	for i, ref := range refs {
		out[i] = Object{Ref: ref, Fields: h.objects[ref]}
	}
	return out
}

// Clone deep-copies the heap. No field map is shared with h.
func (h *Heap) Clone() *Heap {
	c := &Heap{objects: make(map[ast.Value]Memory, len(h.objects)), nextObj: h.nextObj}
	for ref, fields := range h.objects {
		c.objects[ref] = maps.Clone(fields)
	}
	return c
}

// compareRefs orders obj2 before obj10.
func compareRefs(a, b ast.Value) int {
	if len(a.Literal()) != len(b.Literal()) {
		return len(a.Literal()) - len(b.Literal())
	}
	if a.Literal() < b.Literal() {
		return -1
	}
	if a.Literal() > b.Literal() {
		return 1
	}
	if a.Class() < b.Class() {
		return -1
	}
	if a.Class() > b.Class() {
		return 1
	}
	return 0
}
