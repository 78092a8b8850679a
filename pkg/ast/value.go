package ast

import (
	"fmt"
	"strconv"
)

type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInteger
	KindBoolean
	KindString
	KindObject
)

// Value is a literal value: a primitive, an object reference or null.
// Two values are equal iff their literal and tag are equal, which is plain ==.
type Value struct {
	kind  ValueKind
	lit   string
	class string // only set for KindObject
}

var (
	True  = Value{kind: KindBoolean, lit: "True"}
	False = Value{kind: KindBoolean, lit: "False"}
)

// Int creates an integer value.
func Int(n int64) Value {
	return Value{kind: KindInteger, lit: strconv.FormatInt(n, 10)}
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Str creates a string value. The literal is stored unquoted.
func Str(s string) Value {
	return Value{kind: KindString, lit: s}
}

// Ref creates a reference to the object named name of the given class.
func Ref(name, class string) Value {
	return Value{kind: KindObject, lit: name, class: class}
}

// Null returns the null marker.
func Null() Value {
	return Value{kind: KindNull, lit: "null"}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Literal() string { return v.lit }
func (v Value) IsObject() bool  { return v.kind == KindObject }

// Class is the class name of an object reference, or "" for other kinds.
func (v Value) Class() string { return v.class }

// Tag names the primitive kind, or the class for object references.
func (v Value) Tag() string {
	switch v.kind {
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindObject:
		return v.class
	default:
		return "null"
	}
}

// AsInt parses the literal as a base 10 integer.
func (v Value) AsInt() (int64, error) {
	n, err := strconv.ParseInt(v.lit, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not an integer", v)
	}
	return n, nil
}

// Identifier renders the value the way knowledge bases store and return
// it: strings in double quotes, everything else as its bare literal.
func (v Value) Identifier() string {
	if v.kind == KindString {
		return `"` + v.lit + `"`
	}
	return v.lit
}

// String renders the value the way it appears in traces.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.lit)
	case KindObject:
		return v.lit + ":" + v.class
	default:
		return v.lit
	}
}

// FromParts rebuilds a value from its kind, literal and class, as produced
// by Kind, Literal and Class.
func FromParts(kind ValueKind, lit, class string) (Value, error) {
	switch kind {
	case KindNull:
		return Null(), nil
	case KindInteger:
		if _, err := strconv.ParseInt(lit, 10, 64); err != nil {
			return Value{}, fmt.Errorf("invalid integer literal %q", lit)
		}
		return Value{kind: kind, lit: lit}, nil
	case KindBoolean:
		if lit != True.lit && lit != False.lit {
			return Value{}, fmt.Errorf("invalid boolean literal %q", lit)
		}
		return Value{kind: kind, lit: lit}, nil
	case KindString:
		return Str(lit), nil
	case KindObject:
		if lit == "" || class == "" {
			return Value{}, fmt.Errorf("object reference needs a name and a class")
		}
		return Ref(lit, class), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %d", kind)
	}
}
