package driver

import (
	"fmt"
	"io"
	"os"
	"strings"

	"microobj/internal/loader"
	"microobj/pkg/color"
	"microobj/pkg/interpreter"
)

type action int

const (
	actPrompt   action = iota // stay at the prompt
	actStep                   // run one step, then prompt again
	actContinue               // run until the next breakpoint
	actQuit                   // stop the program
)

const helpText = `commands:
  s, step              run one step
  c, continue          run to the next breakpoint
  t, trace             show heap and stack
  e, eval <expr>       evaluate an expression in the top frame, e.g. eval {own: n}
  snapshot <file>      write the heap to file
  q, quit              stop the program`

// session is the state of an interactive stepping session.
type session struct {
	it       *interpreter.Interpreter
	out      io.Writer
	stepping bool
}

func (s *session) handle(input string) (action, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		return actPrompt, nil

	case "s", "step":
		s.stepping = true
		return actStep, nil

	case "c", "continue":
		s.stepping = false
		return actContinue, nil

	case "q", "quit":
		return actQuit, nil

	case "t", "trace":
		fmt.Fprint(s.out, color.Trace(s.it.String()))
		return actPrompt, nil

	case "e", "eval":
		expr, err := loader.ParseExpr(arg)
		if err != nil {
			return actPrompt, err
		}
		v, err := s.it.EvalTopMost(expr)
		if err != nil {
			return actPrompt, err
		}
		fmt.Fprintln(s.out, v)
		return actPrompt, nil

	case "snapshot":
		if arg == "" {
			return actPrompt, fmt.Errorf("snapshot needs a file name")
		}
		data, err := s.it.Heap().MarshalBinary()
		if err != nil {
			return actPrompt, err
		}
		if err := os.WriteFile(arg, data, 0o644); err != nil {
			return actPrompt, err
		}
		fmt.Fprintln(s.out, color.GreenText(fmt.Sprintf("wrote %d objects to %s", s.it.Heap().Len(), arg)))
		return actPrompt, nil

	case "h", "help":
		fmt.Fprintln(s.out, color.GrayText(helpText))
		return actPrompt, nil

	default:
		return actPrompt, fmt.Errorf("unknown command %q, try help", cmd)
	}
}
