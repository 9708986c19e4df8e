package azcli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fewx/gfsproc/types"
	"github.com/rs/zerolog"
)

// Compute issues start/deallocate requests for the configured targets
// through the Azure CLI.
type Compute struct {
	cfg    types.Azure
	runner Runner
	logger zerolog.Logger
}

func NewCompute(cfg types.Azure, runner Runner, logger zerolog.Logger) *Compute {
	return &Compute{
		cfg:    cfg,
		runner: runner,
		logger: logger.With().Str("component", "compute").Logger(),
	}
}

func (c *Compute) command(target types.InfrastructureTarget, verb string, verbose bool) string {
	cmd := fmt.Sprintf("%s %s %s -g %s -n %s", c.cfg.CLI, target.Kind, verb, target.ResourceGroup, target.Name)
	if verbose {
		cmd += " --verbose"
	}
	return cmd
}

// shellArgv wraps compound CLI text in the configured shell, e.g.
// ["powershell", "-Command", "<text>"].
func (c *Compute) shellArgv(text string) []string {
	argv := append([]string{}, c.cfg.Shell...)
	return append(argv, text)
}

// StopTarget deallocates a VM or scale set. Deallocating an already
// deallocated or missing target is not a hard failure: errors are logged
// and returned so the caller can record them, never raised to the operator.
func (c *Compute) StopTarget(ctx context.Context, target types.InfrastructureTarget) error {
	logger := c.logger.With().Str("target", target.Name).Str("kind", string(target.Kind)).Logger()
	logger.Info().Msg("Deallocating target")

	argv := c.shellArgv(c.command(target, "deallocate", true))
	_, err := Execute(ctx, c.runner, argv, true, logger)
	if err != nil {
		return describe(err, target)
	}

	logger.Info().Msg("✓ Target deallocated")
	return nil
}

// StartTargets starts the scale set, then the jumpbox, as one combined shell
// invocation. The commands are joined with ';' so the jumpbox start is issued
// even when the scale set start fails.
func (c *Compute) StartTargets(ctx context.Context, scaleSet, jumpbox types.InfrastructureTarget) error {
	logger := c.logger.With().Str("scale_set", scaleSet.Name).Str("jumpbox", jumpbox.Name).Logger()
	logger.Info().Msg("Starting compute targets")

	text := strings.Join([]string{
		c.command(scaleSet, "start", c.cfg.VerboseCLI),
		c.command(jumpbox, "start", true),
	}, " ; ")

	_, err := Execute(ctx, c.runner, c.shellArgv(text), true, logger)
	if err != nil {
		return describe(err, scaleSet)
	}

	logger.Info().Msg("✓ Compute targets started")
	return nil
}

// describe attaches the resource names to the not-found diagnostics while
// keeping them matchable with errors.Is.
func describe(err error, target types.InfrastructureTarget) error {
	switch {
	case errors.Is(err, ErrResourceGroupNotFound):
		return fmt.Errorf("resource group %s: %w", target.ResourceGroup, err)
	case errors.Is(err, ErrResourceNotFound):
		return fmt.Errorf("resource %s: %w", target.Name, err)
	}
	return err
}
