package interpreter

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"

	"microobj/pkg/ast"
)

// EntryClass is the class of the object the main block runs on behalf of.
const EntryClass = "_Entry_"

// Interpreter is the explicit-state machine: a stack of frames over a heap.
// It is not safe for concurrent use.
type Interpreter struct {
	static *StaticTable // shared, read-only
	heap   *Heap        // objects (ref -> fields)
	stack  []*Frame     // top of stack is the last element

	kb  KnowledgeBase // optional collaborator for query and derive
	out io.Writer     // output writer for print

	nextFrame int // last frame id handed out

	maxSteps int // maximum steps (0 = unlimited)
	steps    int // steps executed
}

type Option func(*Interpreter)

// WithWriter sets the output writer for print statements
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithMaxSteps sets a maximum number of interpreter steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithKnowledgeBase installs the collaborator used by query and derive statements
func WithKnowledgeBase(kb KnowledgeBase) Option {
	return func(i *Interpreter) { i.kb = kb }
}

// WithHeap starts the interpreter on an existing heap, e.g. a decoded snapshot
func WithHeap(h *Heap) Option {
	return func(i *Interpreter) { i.heap = h }
}

// NewInterpreter creates an interpreter with an empty stack
func NewInterpreter(static *StaticTable, opts ...Option) *Interpreter {
	it := &Interpreter{
		static: static,
		heap:   NewHeap(),
		stack:  make([]*Frame, 0, 8),
	}

	for _, o := range opts {
		o(it)
	}

	if it.out == nil {
		it.out = os.Stdout
	}

	return it
}

// Start allocates the entry object and schedules main on its behalf
func (i *Interpreter) Start(main ast.Stmt) (*Frame, error) {
	entry := i.heap.Alloc(EntryClass)
	if err := i.heap.Insert(entry, Memory{}); err != nil {
		return nil, err
	}
	return i.Push(main, entry, Memory{})
}

// Push schedules stmt on behalf of obj with the given locals. "this" is
// bound to obj.
func (i *Interpreter) Push(stmt ast.Stmt, obj ast.Value, locals Memory) (*Frame, error) {
	if !i.heap.Contains(obj) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, obj)
	}
	if locals == nil {
		locals = Memory{}
	}
	locals["this"] = obj

	f := &Frame{ID: i.newFrameID(), Stmt: stmt, Locals: locals, Obj: obj}
	i.push(f)
	return f, nil
}

// Step executes exactly one frame. It returns false if the stack is empty or
// a breakpoint was executed, true otherwise.
func (i *Interpreter) Step() (bool, error) {
	if len(i.stack) == 0 {
		return false, nil
	}

	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return false, ErrMaxStepsExceeded
	}

	current := i.pop()
	i.steps++
	log.Debug("step", "frame", current.ID, "obj", current.Obj, "stmt", current.Stmt)

	res, err := i.exec(current)
	if err != nil {
		return false, fmt.Errorf("frame %d: %w", current.ID, err)
	}

	if res.resumed != nil {
		if !i.remove(res.resumed) {
			return false, fmt.Errorf("frame %d: %w: caller frame %d is not scheduled",
				current.ID, ErrMalformedContinuation, res.resumed.ID)
		}
	}

	// the rewritten frame goes underneath anything it spawned
	if res.next != nil {
		i.push(res.next)
	}
	for _, f := range res.spawned {
		i.push(f)
	}

	if res.debug {
		log.Info("breakpoint", "frame", current.ID, "steps", i.steps)
		return false, nil
	}
	return true, nil
}

// Run steps until the stack is empty. Breakpoints do not stop it.
func (i *Interpreter) Run() error {
	for !i.Done() {
		if _, err := i.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Done reports whether the program has terminated
func (i *Interpreter) Done() bool {
	return len(i.stack) == 0
}

// Steps returns the number of steps executed
func (i *Interpreter) Steps() int {
	return i.steps
}

// Heap returns the heap. Callers must not write to it while stepping.
func (i *Interpreter) Heap() *Heap {
	return i.heap
}

// Static returns the class table
func (i *Interpreter) Static() *StaticTable {
	return i.static
}

// Stack returns the scheduled frames, top of stack first
func (i *Interpreter) Stack() []*Frame {
	frames := slices.Clone(i.stack)
	slices.Reverse(frames)
	return frames
}

// Output returns the output writer used for print
func (i *Interpreter) Output() io.Writer {
	return i.out
}

// EvalTopMost evaluates expr in the scope of the top frame
func (i *Interpreter) EvalTopMost(expr ast.Expr) (ast.Value, error) {
	top := i.currentFrame()
	if top == nil {
		return ast.Value{}, fmt.Errorf("program terminated")
	}
	return Eval(expr, Env{Locals: top.Locals, Heap: i.heap, Obj: top.Obj})
}

// Fork returns an independent interpreter on a deep copy of the heap with an
// empty stack. Only the static table and the collaborators are shared.
func (i *Interpreter) Fork() *Interpreter {
	return &Interpreter{
		static:    i.static,
		heap:      i.heap.Clone(),
		stack:     make([]*Frame, 0, 8),
		kb:        i.kb,
		out:       i.out,
		nextFrame: i.nextFrame,
		maxSteps:  i.maxSteps,
	}
}

func (i *Interpreter) newFrameID() int {
	i.nextFrame++
	return i.nextFrame
}

// currentFrame returns the top of the stack, or nil if none
func (i *Interpreter) currentFrame() *Frame {
	if len(i.stack) == 0 {
		return nil
	}

	return i.stack[len(i.stack)-1]
}

func (i *Interpreter) push(f *Frame) {
	i.stack = append(i.stack, f)
}

func (i *Interpreter) pop() *Frame {
	f := i.stack[len(i.stack)-1]
	i.stack = i.stack[:len(i.stack)-1]
	return f
}

// remove takes f off the stack wherever it is scheduled
func (i *Interpreter) remove(f *Frame) bool {
	for idx := len(i.stack) - 1; idx >= 0; idx-- {
		if i.stack[idx] == f {
			i.stack = slices.Delete(i.stack, idx, idx+1)
			return true
		}
	}
	return false
}
