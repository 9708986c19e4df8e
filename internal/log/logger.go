package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fewx/gfsproc/types"
)

// ConsoleLogger is the operator-facing output of the CLI commands. Structured
// logs go through zerolog; this only prints what a human at the terminal reads.
type ConsoleLogger struct {
	OutputStyle types.OutputStyle
	Spinner     *spinner.Spinner
	out         io.Writer
}

func NewLogger(style types.OutputStyle) *ConsoleLogger {
	return &ConsoleLogger{
		OutputStyle: style,
		Spinner: spinner.New(
			spinner.CharSets[11], // Default ⣾ style spinner, can modify this at the call site
			100*time.Millisecond,
			spinner.WithWriter(os.Stderr),
			spinner.WithHiddenCursor(true)),
		out: os.Stdout,
	}
}

func (l *ConsoleLogger) human() bool {
	return l.OutputStyle == types.StyleHuman || l.OutputStyle == types.StyleHumanVerbose
}

func (l *ConsoleLogger) Info(msg string, args ...any) {
	if l.human() {
		fmt.Fprintf(l.out, msg+"\n", args...)
	}
	// Silent for machine modes
}

func (l *ConsoleLogger) Verbose(msg string, args ...any) {
	if l.OutputStyle == types.StyleHumanVerbose {
		fmt.Fprintf(l.out, msg+"\n", args...)
	}
}

func (l *ConsoleLogger) Error(msg string, args ...any) {
	if l.human() {
		fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	}
}

func (l *ConsoleLogger) Json(data any) {
	if l.OutputStyle == types.StyleMachineJSON {
		encoded, _ := json.MarshalIndent(data, "", "  ")
		fmt.Fprintln(l.out, string(encoded))
	}
}

// Progress prints a progress checkpoint as a 20-cell bar.
func (l *ConsoleLogger) Progress(percent int, stage string) {
	if !l.human() {
		return
	}
	filled := percent / 5
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
	fmt.Fprintf(l.out, "%s %3d%%  %s\n", bar, percent, stage)
}

// StartSpinner starts the logger spinner. you can pass optionalCharset
// to override the default spinner. It is a variadic parameter but only
// the first argument will be used.
func (l *ConsoleLogger) StartSpinner(text string, optionalCharset ...[]string) {
	if l.human() {
		l.Spinner.Suffix = " " + text
		if len(optionalCharset) > 0 {
			l.Spinner.UpdateCharSet(optionalCharset[0])
		}
		l.Spinner.Start()
	}
}

func (l *ConsoleLogger) StopSpinner() {
	if l.human() {
		l.Spinner.Stop()
	}
}
