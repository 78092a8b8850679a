package ast

import "strings"

type Operator string

const (
	OpEq    Operator = "EQ"
	OpNeq   Operator = "NEQ"
	OpGeq   Operator = "GEQ"
	OpLeq   Operator = "LEQ"
	OpPlus  Operator = "PLUS"
	OpMinus Operator = "MINUS"
)

// Expr is an expression. The set of expressions is closed.
type Expr interface {
	expr()
	String() string
}

// Location is an expression that can be assigned to.
type Location interface {
	Expr
	location()
}

// Literal is a constant value.
type Literal struct {
	Value Value
}

// Arith applies Op to Operands.
type Arith struct {
	Op       Operator
	Operands []Expr
}

// OwnVar is a field of the current object.
type OwnVar struct {
	Name string
}

// OthersVar is a field of the object Obj evaluates to.
type OthersVar struct {
	Obj  Expr
	Name string
}

// LocalVar is a variable of the current frame.
type LocalVar struct {
	Name string
}

func (Literal) expr()   {}
func (Arith) expr()     {}
func (OwnVar) expr()    {}
func (OthersVar) expr() {}
func (LocalVar) expr()  {}

func (OwnVar) location()    {}
func (OthersVar) location() {}
func (LocalVar) location()  {}

func (e Literal) String() string { return e.Value.String() }

func (e Arith) String() string {
	parts := make([]string, len(e.Operands))
	for i, o := range e.Operands {
		parts[i] = o.String()
	}
	return string(e.Op) + "(" + strings.Join(parts, ", ") + ")"
}

func (e OwnVar) String() string    { return "this." + e.Name }
func (e OthersVar) String() string { return e.Obj.String() + "." + e.Name }
func (e LocalVar) String() string  { return e.Name }

// Lit is shorthand for Literal{v}.
func Lit(v Value) Literal { return Literal{Value: v} }

// Op is shorthand for an Arith expression.
func Op(op Operator, operands ...Expr) Arith {
	return Arith{Op: op, Operands: operands}
}
