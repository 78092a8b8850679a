package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init installs the default logger. Verbose enables the per-step debug log.
func Init(verbose, noColor bool) {
	InitWriter(os.Stderr, verbose, noColor)
}

// InitWriter is Init with a custom destination
func InitWriter(w io.Writer, verbose, noColor bool) {
	log.SetDefault(log.NewWithOptions(w,
		log.Options{
			ReportCaller:    verbose,
			ReportTimestamp: false, // step numbers order the output already
			TimeFormat:      time.RFC3339,
			Prefix:          "MICROOBJ",
		}))

	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	log.SetColorProfile(termenv.ANSI256)
	if noColor {
		log.SetColorProfile(termenv.Ascii)
	}
}
