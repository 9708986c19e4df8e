package azcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fewx/gfsproc/internal/models"
	"github.com/rs/zerolog"
)

var (
	ErrResourceGroupNotFound = errors.New("resource group not found")
	ErrResourceNotFound      = errors.New("resource not found")
)

// Runner starts a child process and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*models.CommandResult, error)
}

// ExecRunner runs commands with os/exec, capturing stdout and stderr.
type ExecRunner struct{}

// Run returns a result for every command that started, including ones that
// exited non-zero. The error is only set when the process could not be run.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (*models.CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()

	result := &models.CommandResult{
		Command:   append([]string{name}, args...),
		Succeeded: err == nil,
		Stdout:    outBuf.String(),
		Stderr:    errBuf.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, fmt.Errorf("%s %v failed to run: %w", name, args, err)
	}
	return result, nil
}

// CommandError is the generic failure for a command whose stderr matched no
// known diagnostic.
type CommandError struct {
	Command  []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("command %q exited with status %d", strings.Join(e.Command, " "), e.ExitCode)
	}
	return fmt.Sprintf("command %q exited with status %d: %s", strings.Join(e.Command, " "), e.ExitCode, stderr)
}

// Classify maps a failed result to ErrResourceGroupNotFound,
// ErrResourceNotFound or a *CommandError. A successful result yields nil.
func Classify(result *models.CommandResult) error {
	if result == nil || result.Succeeded {
		return nil
	}

	// "ResourceGroupNotFound" contains "NotFound" but not "ResourceNotFound",
	// still check it first so a combined stderr reports the group.
	switch {
	case strings.Contains(result.Stderr, "ResourceGroupNotFound"):
		return ErrResourceGroupNotFound
	case strings.Contains(result.Stderr, "ResourceNotFound"):
		return ErrResourceNotFound
	}

	return &CommandError{
		Command:  result.Command,
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
	}
}

// IsNotFound reports whether err is one of the two resource-not-found diagnostics.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceGroupNotFound) || errors.Is(err, ErrResourceNotFound)
}

// Execute runs argv once, classifies the outcome and logs any failure.
// When raise is false the classified error is only logged and nil is returned.
func Execute(ctx context.Context, runner Runner, argv []string, raise bool, logger zerolog.Logger) (*models.CommandResult, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	logger.Debug().Strs("argv", argv).Msg("Running command")

	result, err := runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		logger.Error().Err(err).Msg("Command could not be started")
		if raise {
			return result, err
		}
		return result, nil
	}

	classified := Classify(result)
	if classified == nil {
		logger.Debug().Msg("Command succeeded")
		return result, nil
	}

	logCommandError(logger, classified)

	if raise {
		return result, classified
	}
	return result, nil
}

func logCommandError(logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, ErrResourceGroupNotFound), errors.Is(err, ErrResourceNotFound):
		logger.Error().Msg(err.Error())
	default:
		logger.Error().Err(err).Msg("Command failed")
	}
}
