package loader

import (
	"strings"

	"gopkg.in/yaml.v3"

	"microobj/pkg/ast"
)

var operators = map[string]ast.Operator{
	"eq":    ast.OpEq,
	"neq":   ast.OpNeq,
	"geq":   ast.OpGeq,
	"leq":   ast.OpLeq,
	"plus":  ast.OpPlus,
	"minus": ast.OpMinus,
}

func decodeStmt(n *yaml.Node) (ast.Stmt, error) {
	if isNull(n) {
		return ast.Skip{}, nil
	}

	switch n.Kind {
	case yaml.SequenceNode:
		stmts := make([]ast.Stmt, len(n.Content))
		for i, c := range n.Content {
			s, err := decodeStmt(c)
			if err != nil {
				return nil, err
			}
			stmts[i] = s
		}
		return ast.Seq(stmts...), nil

	case yaml.ScalarNode:
		switch n.Value {
		case "skip":
			return ast.Skip{}, nil
		case "breakpoint":
			return ast.Debug{}, nil
		}
		return nil, errorAt(n, "unknown statement %q", n.Value)
	}

	kind, body, err := single(n)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "skip":
		return ast.Skip{}, nil

	case "breakpoint":
		return ast.Debug{}, nil

	case "print":
		v, err := decodeExpr(body)
		if err != nil {
			return nil, err
		}
		return ast.Print{Value: v}, nil

	case "return":
		v, err := decodeExpr(body)
		if err != nil {
			return nil, err
		}
		return ast.Return{Value: v}, nil

	case "assign":
		f, err := fields(body, "target", "value")
		if err != nil {
			return nil, err
		}
		target, err := requiredLocation(f, body, "target")
		if err != nil {
			return nil, err
		}
		value, err := requiredExpr(f, body, "value")
		if err != nil {
			return nil, err
		}
		return ast.Assign{Target: target, Value: value}, nil

	case "call":
		f, err := fields(body, "target", "callee", "method", "args")
		if err != nil {
			return nil, err
		}
		var target ast.Location
		if t, ok := f["target"]; ok {
			if target, err = decodeLocation(t); err != nil {
				return nil, err
			}
		}
		callee, err := requiredExpr(f, body, "callee")
		if err != nil {
			return nil, err
		}
		method, err := requiredScalar(f, body, "method")
		if err != nil {
			return nil, err
		}
		args, err := optionalExprs(f, "args")
		if err != nil {
			return nil, err
		}
		return ast.Call{Target: target, Callee: callee, Method: method, Args: args}, nil

	case "new":
		f, err := fields(body, "target", "class", "args")
		if err != nil {
			return nil, err
		}
		target, err := requiredLocation(f, body, "target")
		if err != nil {
			return nil, err
		}
		class, err := requiredScalar(f, body, "class")
		if err != nil {
			return nil, err
		}
		args, err := optionalExprs(f, "args")
		if err != nil {
			return nil, err
		}
		return ast.Create{Target: target, Class: class, Args: args}, nil

	case "if":
		f, err := fields(body, "guard", "then", "else")
		if err != nil {
			return nil, err
		}
		guard, err := requiredExpr(f, body, "guard")
		if err != nil {
			return nil, err
		}
		then, err := optionalStmt(f, "then")
		if err != nil {
			return nil, err
		}
		els, err := optionalStmt(f, "else")
		if err != nil {
			return nil, err
		}
		return ast.If{Guard: guard, Then: then, Else: els}, nil

	case "while":
		f, err := fields(body, "guard", "body")
		if err != nil {
			return nil, err
		}
		guard, err := requiredExpr(f, body, "guard")
		if err != nil {
			return nil, err
		}
		loop, err := optionalStmt(f, "body")
		if err != nil {
			return nil, err
		}
		return ast.While{Guard: guard, Body: loop}, nil

	case "query":
		f, err := fields(body, "target", "query", "params")
		if err != nil {
			return nil, err
		}
		target, err := requiredLocation(f, body, "target")
		if err != nil {
			return nil, err
		}
		query, err := requiredExpr(f, body, "query")
		if err != nil {
			return nil, err
		}
		params, err := optionalExprs(f, "params")
		if err != nil {
			return nil, err
		}
		return ast.Query{Target: target, Query: query, Params: params}, nil

	case "derive":
		f, err := fields(body, "target", "class")
		if err != nil {
			return nil, err
		}
		target, err := requiredLocation(f, body, "target")
		if err != nil {
			return nil, err
		}
		class, err := requiredExpr(f, body, "class")
		if err != nil {
			return nil, err
		}
		return ast.Derive{Target: target, Class: class}, nil

	default:
		return nil, errorAt(n, "unknown statement %q", kind)
	}
}

func decodeExpr(n *yaml.Node) (ast.Expr, error) {
	kind, body, err := single(n)
	if err != nil {
		return nil, err
	}

	if op, ok := operators[strings.ToLower(kind)]; ok {
		operands, err := decodeExprs(body)
		if err != nil {
			return nil, err
		}
		return ast.Arith{Op: op, Operands: operands}, nil
	}

	switch kind {
	case "int":
		v, err := decodeInt(body)
		if err != nil {
			return nil, err
		}
		return ast.Lit(v), nil

	case "str":
		s, err := scalar(body)
		if err != nil {
			return nil, err
		}
		return ast.Lit(ast.Str(s)), nil

	case "bool":
		var b bool
		if err := body.Decode(&b); err != nil {
			return nil, errorAt(body, "invalid boolean %q", body.Value)
		}
		return ast.Lit(ast.Bool(b)), nil

	case "null":
		return ast.Lit(ast.Null()), nil

	case "local", "own", "field":
		return decodeLocation(n)

	default:
		return nil, errorAt(n, "unknown expression %q", kind)
	}
}

func decodeLocation(n *yaml.Node) (ast.Location, error) {
	kind, body, err := single(n)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "local":
		name, err := scalar(body)
		if err != nil {
			return nil, err
		}
		return ast.LocalVar{Name: name}, nil

	case "own":
		name, err := scalar(body)
		if err != nil {
			return nil, err
		}
		return ast.OwnVar{Name: name}, nil

	case "field":
		f, err := fields(body, "of", "name")
		if err != nil {
			return nil, err
		}
		obj, err := requiredExpr(f, body, "of")
		if err != nil {
			return nil, err
		}
		name, err := requiredScalar(f, body, "name")
		if err != nil {
			return nil, err
		}
		return ast.OthersVar{Obj: obj, Name: name}, nil

	default:
		return nil, errorAt(n, "%q cannot be assigned to", kind)
	}
}

func decodeExprs(n *yaml.Node) ([]ast.Expr, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, errorAt(n, "expected a list of expressions")
	}
	out := make([]ast.Expr, len(n.Content))
	for i, c := range n.Content {
		e, err := decodeExpr(c)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func requiredExpr(f map[string]*yaml.Node, parent *yaml.Node, key string) (ast.Expr, error) {
	n, err := required(f, parent, key)
	if err != nil {
		return nil, err
	}
	return decodeExpr(n)
}

func requiredLocation(f map[string]*yaml.Node, parent *yaml.Node, key string) (ast.Location, error) {
	n, err := required(f, parent, key)
	if err != nil {
		return nil, err
	}
	return decodeLocation(n)
}

func requiredScalar(f map[string]*yaml.Node, parent *yaml.Node, key string) (string, error) {
	n, err := required(f, parent, key)
	if err != nil {
		return "", err
	}
	return scalar(n)
}

func optionalExprs(f map[string]*yaml.Node, key string) ([]ast.Expr, error) {
	n, ok := f[key]
	if !ok {
		return nil, nil
	}
	return decodeExprs(n)
}

func optionalStmt(f map[string]*yaml.Node, key string) (ast.Stmt, error) {
	n, ok := f[key]
	if !ok {
		return ast.Skip{}, nil
	}
	return decodeStmt(n)
}
