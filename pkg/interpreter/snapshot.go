package interpreter

import (
	"fmt"
	"maps"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"microobj/pkg/ast"
)

// Heaps are encoded in canonical CBOR, so equal heaps have equal snapshots.
var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("interpreter: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

type valueRecord struct {
	Kind  uint8  `cbor:"1,keyasint"`
	Lit   string `cbor:"2,keyasint"`
	Class string `cbor:"3,keyasint,omitempty"`
}

type fieldRecord struct {
	Name  string      `cbor:"1,keyasint"`
	Value valueRecord `cbor:"2,keyasint"`
}

type objectRecord struct {
	Ref    valueRecord   `cbor:"1,keyasint"`
	Fields []fieldRecord `cbor:"2,keyasint"`
}

type heapRecord struct {
	NextObj int            `cbor:"1,keyasint"`
	Objects []objectRecord `cbor:"2,keyasint"`
}

// MarshalBinary encodes the heap, including its reference counter.
func (h *Heap) MarshalBinary() ([]byte, error) {
	rec := heapRecord{NextObj: h.nextObj}
	for _, o := range h.Objects() {
		or := objectRecord{Ref: toRecord(o.Ref)}
		for _, name := range slices.Sorted(maps.Keys(o.Fields)) {
			or.Fields = append(or.Fields, fieldRecord{Name: name, Value: toRecord(o.Fields[name])})
		}
		rec.Objects = append(rec.Objects, or)
	}
	return snapshotEncMode.Marshal(rec)
}

// UnmarshalHeap decodes a heap produced by MarshalBinary.
func UnmarshalHeap(data []byte) (*Heap, error) {
	var rec heapRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("interpreter: unmarshal heap: %w", err)
	}

	h := NewHeap()
	h.nextObj = rec.NextObj
	for _, or := range rec.Objects {
		ref, err := fromRecord(or.Ref)
		if err != nil {
			return nil, fmt.Errorf("interpreter: unmarshal heap: %w", err)
		}
		fields := make(Memory, len(or.Fields))
		for _, fr := range or.Fields {
			v, err := fromRecord(fr.Value)
			if err != nil {
				return nil, fmt.Errorf("interpreter: unmarshal heap: field %s of %s: %w", fr.Name, ref, err)
			}
			fields[fr.Name] = v
		}
		if err := h.Insert(ref, fields); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func toRecord(v ast.Value) valueRecord {
	return valueRecord{Kind: uint8(v.Kind()), Lit: v.Literal(), Class: v.Class()}
}

func fromRecord(r valueRecord) (ast.Value, error) {
	return ast.FromParts(ast.ValueKind(r.Kind), r.Lit, r.Class)
}
