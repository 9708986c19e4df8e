package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/fewx/gfsproc/types"
	"github.com/rs/zerolog"
)

var (
	ErrIPFileNotFound = errors.New("vm_ip.txt file not found")
	ErrEmptyIPFile    = errors.New("vm_ip.txt file is empty")
)

// ReadTargetIP reads the target's current address from the one-line IP file
// written by the provisioning scripts.
func ReadTargetIP(ipFile string) (string, error) {
	data, err := os.ReadFile(ipFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrIPFileNotFound, ipFile)
		}
		return "", fmt.Errorf("failed to read %s: %w", ipFile, err)
	}

	ip := strings.TrimSpace(string(data))
	if ip == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyIPFile, ipFile)
	}
	return ip, nil
}

// Executor runs the processing scripts that live on the remote hosts.
type Executor struct {
	cfg       types.Remote
	transport Transport
	stdout    io.Writer
	stderr    io.Writer
	logger    zerolog.Logger
}

// NewExecutor streams remote output to stdout/stderr as it arrives.
func NewExecutor(cfg types.Remote, transport Transport, stdout, stderr io.Writer, logger zerolog.Logger) *Executor {
	return &Executor{
		cfg:       cfg,
		transport: transport,
		stdout:    stdout,
		stderr:    stderr,
		logger:    logger.With().Str("component", "remote").Logger(),
	}
}

// ScriptCommand is the remote shell text that feeds a script to bash.
func (e *Executor) ScriptCommand(script string) string {
	return fmt.Sprintf("bash -s < %s", path.Join(e.cfg.ScriptDir, script))
}

// RunScript resolves the host from the IP file and runs script on it.
// The remote exit status is logged, not classified: a script that exits
// non-zero still returns nil.
func (e *Executor) RunScript(ctx context.Context, script string) error {
	logger := e.logger.With().Str("script", script).Logger()

	ip, err := ReadTargetIP(e.cfg.IPFile)
	if err != nil {
		logger.Error().Err(err).Msg("Cannot resolve remote host")
		return err
	}

	command := e.ScriptCommand(script)
	logger = logger.With().Str("host", ip).Logger()
	logger.Info().Msgf("Running remote script as %s@%s", e.cfg.User, ip)
	logger.Debug().Str("command", command).Msg("Remote command")

	status, err := e.transport.Run(ctx, ip, command, e.stdout, e.stderr)
	if err != nil {
		logger.Error().Err(err).Msg("Remote execution failed")
		return err
	}

	if status != 0 {
		logger.Warn().Int("exit_status", status).Msg("Remote script exited non-zero")
		return nil
	}

	logger.Info().Msg("✓ Remote script finished")
	return nil
}
