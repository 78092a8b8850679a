// Package kb is a knowledge base backed by SQLite. The heap is stored as
// (subject, predicate, object) triples; queries are SQL over that table and
// class expressions are evaluated against the type triples.
package kb

import (
	"database/sql"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"microobj/pkg/ast"
	"microobj/pkg/interpreter"
)

// TypePredicate relates an object to its class.
const TypePredicate = "a"

var _ interpreter.KnowledgeBase = (*SQLite)(nil)

// SQLite is a knowledge base stored in a SQLite database.
type SQLite struct {
	db  *sql.DB
	dsn string
}

// Open opens (or creates) the database at dsn. ":memory:" keeps everything
// in memory.
func Open(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge base: %w", err)
	}
	// an in-memory database exists once per connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS triples (
		subject   TEXT NOT NULL,
		predicate TEXT NOT NULL,
		object    TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating triples table: %w", err)
	}

	return &SQLite{db: db, dsn: dsn}, nil
}

// Close closes the database connection
func (kb *SQLite) Close() error {
	if kb.db != nil {
		return kb.db.Close()
	}
	return nil
}

// DumpState replaces the stored triples with the contents of h.
func (kb *SQLite) DumpState(h *interpreter.Heap) error {
	tx, err := kb.db.Begin()
	if err != nil {
		return fmt.Errorf("starting dump: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM triples"); err != nil {
		return fmt.Errorf("clearing triples: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO triples (subject, predicate, object) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, o := range h.Objects() {
		subject := o.Ref.Literal()
		if _, err := stmt.Exec(subject, TypePredicate, o.Ref.Class()); err != nil {
			return fmt.Errorf("storing %s: %w", o.Ref, err)
		}
		count++
		for _, name := range slices.Sorted(maps.Keys(o.Fields)) {
			if _, err := stmt.Exec(subject, name, Render(o.Fields[name])); err != nil {
				return fmt.Errorf("storing %s.%s: %w", o.Ref, name, err)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing dump: %w", err)
	}
	log.Debug("dumped heap", "dsn", kb.dsn, "objects", h.Len(), "triples", count)
	return nil
}

// RunQuery runs query and returns its obj column in row order.
func (kb *SQLite) RunQuery(query string) ([]string, error) {
	return kb.selectObjs(query)
}

// DeriveInstances returns the objects belonging to the class expression,
// ordered by name. Expressions are class names joined by "and" or "or",
// applied left to right.
func (kb *SQLite) DeriveInstances(classExpr string) ([]string, error) {
	query, args, err := compileClassExpr(classExpr)
	if err != nil {
		return nil, err
	}
	return kb.selectObjs(query, args...)
}

func (kb *SQLite) selectObjs(query string, args ...any) ([]string, error) {
	rows, err := kb.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	idx := slices.Index(cols, "obj")
	if idx < 0 {
		return nil, fmt.Errorf("%w: query must select an obj column, got %v",
			interpreter.ErrKnowledgeBaseContract, cols)
	}

	out := []string{}
	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(sql.NullString)
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		obj := dest[idx].(*sql.NullString)
		if !obj.Valid {
			return nil, fmt.Errorf("%w: query returned a NULL obj", interpreter.ErrKnowledgeBaseContract)
		}
		out = append(out, obj.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return out, nil
}

// Render is the stored form of a value: references by name, strings
// quoted, everything else as its literal.
func Render(v ast.Value) string {
	return v.Identifier()
}

var className = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const typeSelect = "SELECT subject AS obj FROM triples WHERE predicate = ? AND object = ?"

// compileClassExpr turns "A and B or C" into ((A INTERSECT B) UNION C).
// SQLite evaluates compound selects left to right.
func compileClassExpr(expr string) (string, []any, error) {
	tokens := strings.Fields(expr)
	if len(tokens)%2 == 0 {
		return "", nil, fmt.Errorf("%w: malformed class expression %q", interpreter.ErrKnowledgeBaseContract, expr)
	}

	var b strings.Builder
	var args []any
	for i, tok := range tokens {
		if i%2 == 1 {
			switch strings.ToLower(tok) {
			case "and":
				b.WriteString(" INTERSECT ")
			case "or":
				b.WriteString(" UNION ")
			default:
				return "", nil, fmt.Errorf("%w: unknown connective %q in %q", interpreter.ErrKnowledgeBaseContract, tok, expr)
			}
			continue
		}
		if !className.MatchString(tok) {
			return "", nil, fmt.Errorf("%w: invalid class name %q in %q", interpreter.ErrKnowledgeBaseContract, tok, expr)
		}
		b.WriteString(typeSelect)
		args = append(args, TypePredicate, tok)
	}

	return "SELECT obj FROM (" + b.String() + ") ORDER BY length(obj), obj", args, nil
}
