package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"microobj/internal/config"
	"microobj/internal/driver"
	"microobj/internal/logger"
	"microobj/pkg/color"
)

// Main entry point for the microobj step machine.
func main() {
	options := driver.Driver{}

	var (
		verbose     bool
		noColor     bool
		interactive bool
		noKB        bool
		maxSteps    int
		dsn         string
	)

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Trace, "t", false, "Print the machine state after every step")
	flag.StringVar(&options.ConfigFile, "config", config.FileName, "Configuration file")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&noColor, "n", false, "No color")
	flag.BoolVar(&interactive, "i", false, "Prompt at breakpoints")
	flag.BoolVar(&noKB, "no-kb", false, "Run without a knowledge base")
	flag.IntVar(&maxSteps, "max-steps", 0, "Maximum number of steps (0 = from config, unlimited by default)")
	flag.StringVar(&dsn, "kb", "", "Knowledge base database (overrides config)")
	flag.StringVar(&options.RestoreFile, "restore", "", "Resume on a heap snapshot written by the snapshot command")

	flag.Parse()
	args := flag.Args()

	if options.Help {
		fmt.Printf("Usage: %s [options] <program.yaml>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.LoadOptional(options.ConfigFile)
	if err != nil {
		logger.Init(verbose, noColor)
		log.Fatal("Invalid configuration", "error", err)
	}

	cfg.Log.Verbose = cfg.Log.Verbose || verbose
	cfg.Log.NoColor = cfg.Log.NoColor || noColor
	cfg.Interpreter.Interactive = cfg.Interpreter.Interactive || interactive
	if maxSteps > 0 {
		cfg.Interpreter.MaxSteps = maxSteps
	}
	if noKB {
		cfg.KnowledgeBase.Enabled = false
	}
	if dsn != "" {
		cfg.KnowledgeBase.DSN = dsn
	}

	logger.Init(cfg.Log.Verbose, cfg.Log.NoColor)
	if cfg.Log.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No program file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.ProgramFile = args[0]
	options.Config = cfg

	if err := options.Execute(); err != nil {
		log.Fatal("Execution failed", "error", err)
	}
}
