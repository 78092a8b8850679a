package ast

import (
	"fmt"
	"strings"
)

// Stmt is a statement. The set of statements is closed; StoreReturn only
// ever appears as a continuation marker created by the interpreter.
type Stmt interface {
	stmt()
	String() string
}

// Assign writes Value to Target.
type Assign struct {
	Target Location
	Value  Expr
}

// Call invokes Method on the object Callee evaluates to. A nil Target
// discards the result.
type Call struct {
	Target Location
	Callee Expr
	Method string
	Args   []Expr
}

// Create allocates an object of Class with Args bound to its fields in
// declaration order and assigns the reference to Target.
type Create struct {
	Target Location
	Class  string
	Args   []Expr
}

type Return struct {
	Value Expr
}

type If struct {
	Guard Expr
	Then  Stmt
	Else  Stmt
}

type While struct {
	Guard Expr
	Body  Stmt
}

// Sequence runs First, then Second.
type Sequence struct {
	First  Stmt
	Second Stmt
}

type Skip struct{}

// Debug pauses the driver after the current step.
type Debug struct{}

type Print struct {
	Value Expr
}

// Query sends Query, with %1..%n replaced by the Params, to the knowledge
// base and assigns the resulting list to Target.
type Query struct {
	Target Location
	Query  Expr
	Params []Expr
}

// Derive asks the knowledge base for the members of the class expression
// Class and assigns the resulting list to Target.
type Derive struct {
	Target Location
	Class  Expr
}

// StoreReturn marks where the result of a pending call is written.
type StoreReturn struct {
	Target Location
}

func (Assign) stmt()      {}
func (Call) stmt()        {}
func (Create) stmt()      {}
func (Return) stmt()      {}
func (If) stmt()          {}
func (While) stmt()       {}
func (Sequence) stmt()    {}
func (Skip) stmt()        {}
func (Debug) stmt()       {}
func (Print) stmt()       {}
func (Query) stmt()       {}
func (Derive) stmt()      {}
func (StoreReturn) stmt() {}

func (s Assign) String() string {
	return s.Target.String() + " := " + s.Value.String()
}

func (s Call) String() string {
	call := s.Callee.String() + "." + s.Method + "(" + joinExprs(s.Args) + ")"
	if s.Target == nil {
		return call
	}
	return s.Target.String() + " := " + call
}

func (s Create) String() string {
	return s.Target.String() + " := new " + s.Class + "(" + joinExprs(s.Args) + ")"
}

func (s Return) String() string { return "return " + s.Value.String() }

func (s If) String() string {
	return fmt.Sprintf("if %s then %s else %s end", s.Guard, s.Then, s.Else)
}

func (s While) String() string {
	return fmt.Sprintf("while %s do %s end", s.Guard, s.Body)
}

func (s Sequence) String() string { return s.First.String() + "; " + s.Second.String() }
func (Skip) String() string       { return "skip" }
func (Debug) String() string      { return "breakpoint" }
func (s Print) String() string    { return "print(" + s.Value.String() + ")" }

func (s Query) String() string {
	args := s.Query.String()
	if len(s.Params) > 0 {
		args += ", " + joinExprs(s.Params)
	}
	return s.Target.String() + " := query(" + args + ")"
}

func (s Derive) String() string {
	return s.Target.String() + " := derive(" + s.Class.String() + ")"
}

func (s StoreReturn) String() string {
	if s.Target == nil {
		return "<return>"
	}
	return s.Target.String() + " := <return>"
}

// Seq chains statements into a right-nested Sequence. Seq() is Skip.
func Seq(stmts ...Stmt) Stmt {
	switch len(stmts) {
	case 0:
		return Skip{}
	case 1:
		return stmts[0]
	}
	return Sequence{First: stmts[0], Second: Seq(stmts[1:]...)}
}

// Append returns a statement that runs s and then next. The head of s stays
// the head of the result, so a continuation starting with StoreReturn still
// starts with it after appending.
func Append(s, next Stmt) Stmt {
	if seq, ok := s.(Sequence); ok {
		return Sequence{First: seq.First, Second: Append(seq.Second, next)}
	}
	return Sequence{First: s, Second: next}
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
