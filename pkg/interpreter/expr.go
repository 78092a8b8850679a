package interpreter

import (
	"fmt"

	"microobj/pkg/ast"
)

// Env is the scope an expression is evaluated in. Heap is shared with the
// interpreter; evaluation never writes to it.
type Env struct {
	Locals Memory
	Heap   *Heap
	Obj    ast.Value
}

// Eval evaluates e. It fails as a whole on the first inconsistency.
func Eval(e ast.Expr, env Env) (ast.Value, error) {
	own, ok := env.Heap.Lookup(env.Obj)
	if !ok {
		return ast.Value{}, fmt.Errorf("%w: %s", ErrUnknownObject, env.Obj)
	}

	switch e := e.(type) {
	case ast.Literal:
		return e.Value, nil

	case ast.Arith:
		return evalArith(e, env)

	case ast.OwnVar:
		v, ok := own[e.Name]
		if !ok {
			return ast.Value{}, fmt.Errorf("%w: %s on %s", ErrUnknownField, e.Name, env.Obj)
		}
		return v, nil

	case ast.OthersVar:
		ref, err := Eval(e.Obj, env)
		if err != nil {
			return ast.Value{}, err
		}
		fields, ok := env.Heap.Lookup(ref)
		if !ok {
			return ast.Value{}, fmt.Errorf("%w: %s stored in %s", ErrUnknownObject, ref, e)
		}
		v, ok := fields[e.Name]
		if !ok {
			return ast.Value{}, fmt.Errorf("%w: %s on %s", ErrUnknownField, e.Name, ref)
		}
		return v, nil

	case ast.LocalVar:
		v, ok := env.Locals[e.Name]
		if !ok {
			return ast.Value{}, fmt.Errorf("%w: %s", ErrUnknownVariable, e.Name)
		}
		return v, nil

	default:
		return ast.Value{}, fmt.Errorf("%w: expression %T", ErrUnsupportedConstruct, e)
	}
}

func evalArith(e ast.Arith, env Env) (ast.Value, error) {
	args := make([]ast.Value, len(e.Operands))
	for i, o := range e.Operands {
		v, err := Eval(o, env)
		if err != nil {
			return ast.Value{}, err
		}
		args[i] = v
	}

	switch e.Op {
	case ast.OpEq, ast.OpNeq:
		if len(args) != 2 {
			return ast.Value{}, arityError(e.Op, len(args))
		}
		return ast.Bool((args[0] == args[1]) == (e.Op == ast.OpEq)), nil

	case ast.OpGeq, ast.OpLeq, ast.OpMinus:
		if len(args) != 2 {
			return ast.Value{}, arityError(e.Op, len(args))
		}
		a, err := asInt(args[0], e.Op)
		if err != nil {
			return ast.Value{}, err
		}
		b, err := asInt(args[1], e.Op)
		if err != nil {
			return ast.Value{}, err
		}
		switch e.Op {
		case ast.OpGeq:
			return ast.Bool(a >= b), nil
		case ast.OpLeq:
			return ast.Bool(a <= b), nil
		default:
			return ast.Int(a - b), nil
		}

	case ast.OpPlus:
		var sum int64
		for _, v := range args {
			n, err := asInt(v, e.Op)
			if err != nil {
				return ast.Value{}, err
			}
			sum += n
		}
		return ast.Int(sum), nil

	default:
		return ast.Value{}, fmt.Errorf("%w: operator %q", ErrUnsupportedConstruct, e.Op)
	}
}

func asInt(v ast.Value, op ast.Operator) (int64, error) {
	n, err := v.AsInt()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, op, err)
	}
	return n, nil
}

func arityError(op ast.Operator, got int) error {
	return fmt.Errorf("%w: %s requires two operands, got %d", ErrParameterCount, op, got)
}
