package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	globallog "github.com/rs/zerolog/log"
)

// Current workflow.log handle. Replaced (and closed) on every reconfigure so
// long-running commands hold at most one per process.
var (
	logFileMu       sync.Mutex
	logFile         *os.File
	logQuiet        bool
	logConsoleLevel zerolog.Level
)

// ConfigureGlobalLogger sets up the zerolog global logger instance.
// Called once at startup and again by every run that opens its own log directory.
// logFilePath should be empty for terminal logging (uses ConsoleWriter to stderr).
// If logFilePath is provided, logs in JSON format to that file and, unless
// quiet is set, keep echoing to the console as well.
func ConfigureGlobalLogger(isVerbose, quiet bool, logFilePath string) error {
	logLevel := zerolog.InfoLevel
	if isVerbose {
		logLevel = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var outputWriter io.Writer
	isLoggingToFile := false

	if logFilePath != "" {
		// --- File logging ---
		isLoggingToFile = true
		dir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %q: %w", dir, err)
		}

		fileHandle, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
		}

		outputWriter = fileHandle
		if !quiet {
			// Console only shows the requested level, the file gets everything
			console := &zerolog.FilteredLevelWriter{
				Writer: zerolog.LevelWriterAdapter{Writer: consoleWriter()},
				Level:  logLevel,
			}
			outputWriter = zerolog.MultiLevelWriter(fileHandle, console)
		}

		// Set level to DEBUG regardless of isVerbose flag.
		// workflow.log file should contain all log levels.
		globallog.Logger = zerolog.New(outputWriter).With().Timestamp().Logger()
		swapLogFile(fileHandle, quiet, logLevel)
		logLevel = zerolog.DebugLevel
	} else {
		// --- Terminal logging ---
		outputWriter = consoleWriter()
		globallog.Logger = zerolog.New(outputWriter).With().Timestamp().Logger()
		swapLogFile(nil, false, logLevel)
	}

	zerolog.SetGlobalLevel(logLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	// --- Log confirmation ---
	if isLoggingToFile {
		globallog.Debug().Msgf("Configured file logging (JSON format) to: %s", logFilePath)
		globallog.Debug().Msgf("File log level set to: %s", logLevel) // Reflects Debug
	} else {
		globallog.Debug().Msg("Configured console logging.")
		globallog.Debug().Msgf("Console log level set to: %s", logLevel) // Reflects Info or Debug
	}
	return nil
}

// swapLogFile installs f as the current log file and closes the previous one.
// The global logger must already point away from the previous file.
func swapLogFile(f *os.File, quiet bool, consoleLevel zerolog.Level) {
	logFileMu.Lock()
	prev := logFile
	logFile = f
	logQuiet = quiet
	logConsoleLevel = consoleLevel
	logFileMu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

// CloseLogFile closes the current run's workflow.log and sends further
// logging back to the console, or nowhere if the file was configured quiet.
// Safe to call when no file is open.
func CloseLogFile() error {
	logFileMu.Lock()
	f, quiet, level := logFile, logQuiet, logConsoleLevel
	logFile = nil
	logFileMu.Unlock()

	if f == nil {
		return nil
	}

	if quiet {
		globallog.Logger = zerolog.Nop()
	} else {
		globallog.Logger = zerolog.New(consoleWriter()).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(level)
	}
	return f.Close()
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    false,
		FormatLevel: func(i any) string {
			if level, ok := i.(string); ok {
				return strings.ToUpper(fmt.Sprintf("[%s]", level))
			}
			return fmt.Sprintf("[%v]", i)
		},
		FormatMessage: func(i any) string {
			// Prevent extra quotes around simple messages in console
			if msg, ok := i.(string); ok {
				return msg
			}
			return fmt.Sprintf("%v", i)
		},
	}
}
