package interpreter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"microobj/pkg/ast"
)

// ListClass is the class query and derive results are returned in. It must
// declare the fields content and next.
const ListClass = "List"

// KnowledgeBase is the external query and reasoning service. DumpState is
// always called right before a query or derive request so the service sees
// the current heap.
type KnowledgeBase interface {
	DumpState(h *Heap) error
	RunQuery(query string) ([]string, error)
	DeriveInstances(classExpr string) ([]string, error)
}

var integerLiteral = regexp.MustCompile(`^-?\d+$`)

func (i *Interpreter) query(f *Frame, s ast.Query, env Env) (outcome, error) {
	q, err := i.stringArg(s.Query, env, "query")
	if err != nil {
		return outcome{}, err
	}

	// parameters are substituted in stored form, from the highest index down
	// so %1 does not match inside %10
	for idx := len(s.Params); idx >= 1; idx-- {
		p, err := Eval(s.Params[idx-1], env)
		if err != nil {
			return outcome{}, err
		}
		q = strings.ReplaceAll(q, "%"+strconv.Itoa(idx), p.Identifier())
	}

	return i.ask(f, s.Target, func(kb KnowledgeBase) ([]string, error) {
		log.Debug("query", "frame", f.ID, "query", q)
		return kb.RunQuery(q)
	})
}

func (i *Interpreter) derive(f *Frame, s ast.Derive, env Env) (outcome, error) {
	expr, err := i.stringArg(s.Class, env, "derive")
	if err != nil {
		return outcome{}, err
	}

	return i.ask(f, s.Target, func(kb KnowledgeBase) ([]string, error) {
		log.Debug("derive", "frame", f.ID, "class", expr)
		return kb.DeriveInstances(expr)
	})
}

// ask dumps the heap, runs request and continues f with the assignment of
// the result list to target.
func (i *Interpreter) ask(f *Frame, target ast.Location, request func(KnowledgeBase) ([]string, error)) (outcome, error) {
	if i.kb == nil {
		return outcome{}, fmt.Errorf("%w: no knowledge base configured", ErrUnsupportedConstruct)
	}
	if !i.static.HasField(ListClass, "content") || !i.static.HasField(ListClass, "next") {
		return outcome{}, fmt.Errorf("%w: %s with fields content and next is required for knowledge base results",
			ErrUnknownClass, ListClass)
	}

	if err := i.kb.DumpState(i.heap); err != nil {
		return outcome{}, fmt.Errorf("dumping state: %w", err)
	}
	ids, err := request(i.kb)
	if err != nil {
		return outcome{}, err
	}

	head, err := i.buildList(ids)
	if err != nil {
		return outcome{}, err
	}
	return outcome{next: f.next(ast.Assign{Target: target, Value: ast.Lit(head)})}, nil
}

// buildList turns ids into a linked list of List objects. The last id ends
// up at the head.
func (i *Interpreter) buildList(ids []string) (ast.Value, error) {
	contents := make([]ast.Value, len(ids))
	for idx, id := range ids {
		v, err := i.classify(id)
		if err != nil {
			return ast.Value{}, err
		}
		contents[idx] = v
	}

	list := ast.Null()
	for _, v := range contents {
		node := i.heap.Alloc(ListClass)
		if err := i.heap.Insert(node, Memory{"content": v, "next": list}); err != nil {
			return ast.Value{}, err
		}
		list = node
	}
	return list, nil
}

// classify maps a knowledge base identifier to a heap reference or a fresh
// primitive.
func (i *Interpreter) classify(id string) (ast.Value, error) {
	if ref, ok := i.heap.FindByLiteral(id); ok {
		return ref, nil
	}
	if len(id) >= 2 && strings.HasPrefix(id, `"`) && strings.HasSuffix(id, `"`) {
		return ast.Str(id[1 : len(id)-1]), nil
	}
	if integerLiteral.MatchString(id) {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return ast.Value{}, fmt.Errorf("%w: %v", ErrKnowledgeBaseContract, err)
		}
		return ast.Int(n), nil
	}
	return ast.Value{}, fmt.Errorf("%w: unknown object or literal %q", ErrKnowledgeBaseContract, id)
}

func (i *Interpreter) stringArg(e ast.Expr, env Env, stmt string) (string, error) {
	v, err := Eval(e, env)
	if err != nil {
		return "", err
	}
	if v.Kind() != ast.KindString {
		return "", fmt.Errorf("%w: %s expects a string, got %s", ErrTypeMismatch, stmt, v)
	}
	return v.Literal(), nil
}
