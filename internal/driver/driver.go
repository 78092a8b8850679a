package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/peterh/liner"

	"microobj/internal/config"
	"microobj/internal/loader"
	"microobj/pkg/color"
	"microobj/pkg/interpreter"
	"microobj/pkg/kb"
)

type Driver struct {
	Help        bool   // Show help message
	Trace       bool   // Print the machine state after every step
	ConfigFile  string // Path to the configuration file
	ProgramFile string // Path to the YAML program
	RestoreFile string // Heap snapshot to resume from, empty for a fresh heap

	Config config.Config // Effective configuration, flags applied

	Out io.Writer // Program output, stdout if nil
}

// Execute loads the program and runs it to completion, pausing at
// breakpoints when the configuration asks for it.
func (d *Driver) Execute() error {
	log.Info("Loading program", "file", d.ProgramFile)

	prog, err := loader.LoadFile(d.ProgramFile)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	out := d.Out
	if out == nil {
		out = os.Stdout
	}

	opts := []interpreter.Option{
		interpreter.WithWriter(out),
		interpreter.WithMaxSteps(d.Config.Interpreter.MaxSteps),
	}
	if d.RestoreFile != "" {
		h, err := restore(d.RestoreFile, prog.Static)
		if err != nil {
			return err
		}
		opts = append(opts, interpreter.WithHeap(h))
	}
	if d.Config.KnowledgeBase.Enabled {
		store, err := kb.Open(d.Config.KnowledgeBase.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, interpreter.WithKnowledgeBase(store))
	}

	it := interpreter.NewInterpreter(prog.Static, opts...)
	if _, err := it.Start(prog.Main); err != nil {
		return err
	}

	var prompt *liner.State
	if d.Config.Interpreter.Interactive {
		prompt = liner.NewLiner()
		defer prompt.Close()
		prompt.SetCtrlCAborts(true)
	}

	sess := &session{it: it, out: out}
	if err := d.run(sess, prompt); err != nil {
		return err
	}

	log.Info("Program finished", "steps", it.Steps(), "objects", it.Heap().Len())
	return nil
}

// restore reads a heap snapshot and checks its objects against the
// program's classes.
func restore(path string, static *interpreter.StaticTable) (*interpreter.Heap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	h, err := interpreter.UnmarshalHeap(data)
	if err != nil {
		return nil, err
	}

	classes := static.Classes()
	for _, o := range h.Objects() {
		if o.Ref.Class() == interpreter.EntryClass {
			continue
		}
		if !slices.Contains(classes, o.Ref.Class()) {
			return nil, fmt.Errorf("snapshot %s: %w: %s", path, interpreter.ErrUnknownClass, o.Ref)
		}
	}
	log.Info("Restored heap", "file", path, "objects", h.Len())
	return h, nil
}

// run steps until the program ends or the user quits.
func (d *Driver) run(sess *session, prompt *liner.State) error {
	it := sess.it
	for !it.Done() {
		cont, err := it.Step()
		if err != nil {
			fmt.Fprintln(sess.out, color.Trace(it.String()))
			return fmt.Errorf("interpretation failed: %w", err)
		}
		if d.Trace {
			fmt.Fprintln(sess.out, color.Title(fmt.Sprintf("Step %d", it.Steps())))
			fmt.Fprint(sess.out, color.Trace(it.String()))
		}

		if it.Done() || prompt == nil || (cont && !sess.stepping) {
			continue
		}

		act, err := d.pause(sess, prompt)
		if err != nil {
			return err
		}
		if act == actQuit {
			log.Warn("Stopped before the program finished", "steps", it.Steps())
			return nil
		}
	}
	return nil
}

// pause reads commands until one of them resumes execution.
func (d *Driver) pause(sess *session, prompt *liner.State) (action, error) {
	for {
		input, err := prompt.Prompt(fmt.Sprintf("[%d] > ", sess.it.Steps()))
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return actQuit, nil
		}
		if err != nil {
			return actQuit, fmt.Errorf("reading command: %w", err)
		}
		prompt.AppendHistory(input)

		act, err := sess.handle(input)
		if err != nil {
			fmt.Fprintln(sess.out, color.Error(err.Error()))
			continue
		}
		if act != actPrompt {
			return act, nil
		}
	}
}
