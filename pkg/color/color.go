// Package color styles driver output for the terminal.
package color

import (
	"os"
	"regexp"
	"strings"

	"github.com/muesli/termenv"
)

var profile = termenv.EnvColorProfile()

func init() {
	if os.Getenv("NO_COLOR") != "" || !isTerminal() {
		profile = termenv.Ascii
	}
}

func isTerminal() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// EnableColor switches styling on (with the environment's profile) or off.
func EnableColor(enable bool) {
	if enable {
		profile = termenv.EnvColorProfile()
		return
	}
	profile = termenv.Ascii
}

func IsColorEnabled() bool {
	return profile != termenv.Ascii
}

func style(text, color string, bold bool) string {
	s := profile.String(text).Foreground(profile.Color(color))
	if bold {
		s = s.Bold()
	}
	return s.String()
}

func GreenText(text string) string  { return style(text, "2", false) }
func YellowText(text string) string { return style(text, "3", false) }
func CyanText(text string) string   { return style(text, "6", false) }
func GrayText(text string) string   { return style(text, "8", false) }

// Title renders a section title such as "=== Program Output ===".
func Title(text string) string {
	return style("=== "+text+" ===", "2", true)
}

func Error(message string) string {
	if !IsColorEnabled() {
		return "Error: " + message
	}
	return style("Error: ", "9", true) + message
}

var frameHeader = regexp.MustCompile(`(?m)^Prc\d+@\S+:$`)

// Trace highlights the section and frame headers of an interpreter trace.
func Trace(trace string) string {
	if !IsColorEnabled() {
		return trace
	}
	trace = frameHeader.ReplaceAllStringFunc(trace, CyanText)
	for _, section := range []string{"Global store:", "Stack:", "Statement:"} {
		trace = strings.ReplaceAll(trace, section, YellowText(section))
	}
	return trace
}
