package interpreter

import (
	"fmt"

	"github.com/charmbracelet/log"

	"microobj/pkg/ast"
)

// outcome is the result of executing one frame.
type outcome struct {
	next    *Frame   // rewritten frame, nil if the frame terminated
	spawned []*Frame // new frames, pushed above next in order
	resumed *Frame   // caller frame consumed by a return
	debug   bool     // a breakpoint was executed
}

// exec runs one step of f. The frames it returns are always freshly
// allocated, never f itself.
func (i *Interpreter) exec(f *Frame) (outcome, error) {
	if !i.heap.Contains(f.Obj) {
		return outcome{}, fmt.Errorf("%w: %s", ErrUnknownObject, f.Obj)
	}
	env := Env{Locals: f.Locals, Heap: i.heap, Obj: f.Obj}

	switch s := f.Stmt.(type) {
	case ast.Assign:
		v, err := Eval(s.Value, env)
		if err != nil {
			return outcome{}, err
		}
		return outcome{}, i.assign(s.Target, v, env)

	case ast.Call:
		return i.call(f, s, env)

	case ast.Create:
		return i.create(f, s, env)

	case ast.Return:
		return i.ret(f, s, env)

	case ast.If:
		guard, err := Eval(s.Guard, env)
		if err != nil {
			return outcome{}, err
		}
		switch guard {
		case ast.True:
			return outcome{next: f.next(s.Then)}, nil
		case ast.False:
			return outcome{next: f.next(s.Else)}, nil
		default:
			return outcome{}, fmt.Errorf("%w: guard %s evaluated to %s", ErrTypeMismatch, s.Guard, guard)
		}

	case ast.While:
		unrolled := ast.If{Guard: s.Guard, Then: ast.Append(s.Body, s), Else: ast.Skip{}}
		return outcome{next: f.next(unrolled)}, nil

	case ast.Skip:
		return outcome{}, nil

	case ast.Debug:
		return outcome{debug: true}, nil

	case ast.Print:
		v, err := Eval(s.Value, env)
		if err != nil {
			return outcome{}, err
		}
		log.Debug("print", "frame", f.ID, "value", v)
		fmt.Fprintln(i.out, v)
		return outcome{}, nil

	case ast.Sequence:
		// a return discards the rest of the sequence
		if ret, ok := s.First.(ast.Return); ok {
			return i.ret(f, ret, env)
		}
		res, err := i.exec(f.next(s.First))
		if err != nil {
			return outcome{}, err
		}
		switch {
		case res.resumed != nil:
			// a nested return already rewrote the caller
		case res.next != nil:
			// next is fresh, so spawned frames may keep pointing at it
			res.next.Stmt = ast.Append(res.next.Stmt, s.Second)
		default:
			res.next = f.next(s.Second)
		}
		return res, nil

	case ast.Query:
		return i.query(f, s, env)

	case ast.Derive:
		return i.derive(f, s, env)

	case ast.StoreReturn:
		return outcome{}, fmt.Errorf("%w: %s scheduled without a pending call", ErrMalformedContinuation, s)

	default:
		return outcome{}, fmt.Errorf("%w: statement %T", ErrUnsupportedConstruct, s)
	}
}

// assign writes v to target.
func (i *Interpreter) assign(target ast.Location, v ast.Value, env Env) error {
	switch t := target.(type) {
	case ast.LocalVar:
		env.Locals[t.Name] = v
		return nil

	case ast.OwnVar:
		return i.writeField(env.Obj, t.Name, v)

	case ast.OthersVar:
		ref, err := Eval(t.Obj, env)
		if err != nil {
			return err
		}
		return i.writeField(ref, t.Name, v)

	default:
		return fmt.Errorf("%w: assignment to %T", ErrUnsupportedConstruct, target)
	}
}

func (i *Interpreter) writeField(ref ast.Value, field string, v ast.Value) error {
	fields, ok := i.heap.Lookup(ref)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, ref)
	}
	if !i.static.HasField(ref.Class(), field) {
		return fmt.Errorf("%w: %s on %s", ErrUnknownField, field, ref)
	}
	fields[field] = v
	return nil
}

// call suspends f behind a StoreReturn marker and spawns the callee frame.
func (i *Interpreter) call(f *Frame, s ast.Call, env Env) (outcome, error) {
	callee, err := Eval(s.Callee, env)
	if err != nil {
		return outcome{}, err
	}
	if !callee.IsObject() {
		return outcome{}, fmt.Errorf("%w: cannot call %s on %s", ErrUnknownObject, s.Method, callee)
	}
	if !i.heap.Contains(callee) {
		return outcome{}, fmt.Errorf("%w: %s", ErrUnknownObject, callee)
	}

	m, err := i.static.Method(callee.Class(), s.Method)
	if err != nil {
		return outcome{}, err
	}
	if len(m.Params) != len(s.Args) {
		return outcome{}, fmt.Errorf("%w: %s.%s takes %d arguments, got %d",
			ErrParameterCount, callee.Class(), s.Method, len(m.Params), len(s.Args))
	}

	locals := Memory{"this": callee}
	for idx, p := range m.Params {
		v, err := Eval(s.Args[idx], env)
		if err != nil {
			return outcome{}, err
		}
		locals[p] = v
	}

	suspended := f.next(ast.StoreReturn{Target: s.Target})
	body := &Frame{ID: i.newFrameID(), Stmt: m.Body, Locals: locals, Obj: callee, caller: suspended}
	return outcome{next: suspended, spawned: []*Frame{body}}, nil
}

// create allocates the object and continues with the assignment of its
// reference.
func (i *Interpreter) create(f *Frame, s ast.Create, env Env) (outcome, error) {
	fields, err := i.static.Fields(s.Class)
	if err != nil {
		return outcome{}, err
	}
	if len(fields) != len(s.Args) {
		return outcome{}, fmt.Errorf("%w: creation of %s requires %d arguments, got %d",
			ErrParameterCount, s.Class, len(fields), len(s.Args))
	}

	mem := make(Memory, len(fields))
	for idx, name := range fields {
		v, err := Eval(s.Args[idx], env)
		if err != nil {
			return outcome{}, err
		}
		mem[name] = v
	}

	ref := i.heap.Alloc(s.Class)
	if err := i.heap.Insert(ref, mem); err != nil {
		return outcome{}, err
	}
	return outcome{next: f.next(ast.Assign{Target: s.Target, Value: ast.Lit(ref)})}, nil
}

// ret hands the value of s to the caller continuation f was spawned for.
func (i *Interpreter) ret(f *Frame, s ast.Return, env Env) (outcome, error) {
	caller := f.caller
	if caller == nil {
		return outcome{}, fmt.Errorf("%w: return outside of a method call", ErrMalformedContinuation)
	}

	var target ast.Location
	var rest ast.Stmt
	switch pending := caller.Stmt.(type) {
	case ast.StoreReturn:
		target = pending.Target
	case ast.Sequence:
		marker, ok := pending.First.(ast.StoreReturn)
		if !ok {
			return outcome{}, malformed(caller)
		}
		target, rest = marker.Target, pending.Second
	default:
		return outcome{}, malformed(caller)
	}

	v, err := Eval(s.Value, env)
	if err != nil {
		return outcome{}, err
	}

	var stmt ast.Stmt
	switch {
	case target != nil && rest != nil:
		stmt = ast.Sequence{First: ast.Assign{Target: target, Value: ast.Lit(v)}, Second: rest}
	case target != nil:
		stmt = ast.Assign{Target: target, Value: ast.Lit(v)}
	default:
		stmt = rest
	}

	res := outcome{resumed: caller}
	if stmt != nil {
		res.next = caller.next(stmt)
	}
	return res, nil
}

func malformed(caller *Frame) error {
	return fmt.Errorf("%w: caller frame %d is pending %s", ErrMalformedContinuation, caller.ID, caller.Stmt)
}
