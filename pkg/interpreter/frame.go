package interpreter

import "microobj/pkg/ast"

// Frame is a suspended unit of execution: run Stmt with Locals on behalf of
// Obj.
type Frame struct {
	ID     int       // frame id, unique per interpreter lineage
	Stmt   ast.Stmt  // pending statement (the continuation)
	Locals Memory    // local variables, "this" included
	Obj    ast.Value // owning object
	caller *Frame    // suspended caller awaiting this frame's return value
}

// Caller returns the frame waiting for this frame's return value, or nil.
func (f *Frame) Caller() *Frame {
	return f.caller
}

// next rewrites f to run stmt under the same locals, owner, id and caller.
func (f *Frame) next(stmt ast.Stmt) *Frame {
	return &Frame{ID: f.ID, Stmt: stmt, Locals: f.Locals, Obj: f.Obj, caller: f.caller}
}
