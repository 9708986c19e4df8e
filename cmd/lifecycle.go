package cmd

import (
	"context"
	"errors"

	"github.com/fewx/gfsproc/internal/azcli"
	"github.com/fewx/gfsproc/internal/log"
	"github.com/fewx/gfsproc/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
}

func consoleStyle() types.OutputStyle {
	if Verbose {
		return types.StyleHumanVerbose
	}
	return types.StyleHuman
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scale set and the jumpbox",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, configDir, err := loadConfig()
		cobra.CheckErr(err)

		ec, err := newExecutionContext(cfg, configDir, "start", currentInitiator("user"), false)
		cobra.CheckErr(err)

		console := log.NewLogger(consoleStyle())
		compute := newCompute(cfg, runLogger(ec))

		console.StartSpinner("Starting " + cfg.Azure.VMSSName + " and " + cfg.Azure.VMName)
		err = compute.StartTargets(context.Background(), cfg.ScaleSet(), cfg.Jumpbox())
		console.StopSpinner()
		reportLifecycle(console, "started", err)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Deallocate the scale set and the jumpbox",
	Long: `Stop deallocates the scale set first and then the jumpbox. The jumpbox is
deallocated even if the scale set could not be.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, configDir, err := loadConfig()
		cobra.CheckErr(err)

		ec, err := newExecutionContext(cfg, configDir, "stop", currentInitiator("user"), false)
		cobra.CheckErr(err)

		console := log.NewLogger(consoleStyle())
		compute := newCompute(cfg, runLogger(ec))
		ctx := context.Background()

		var errs []error
		for _, target := range []types.InfrastructureTarget{cfg.ScaleSet(), cfg.Jumpbox()} {
			console.StartSpinner("Deallocating " + target.Name)
			err := compute.StopTarget(ctx, target)
			console.StopSpinner()
			if err != nil {
				console.Error("%s: %v", target.Name, err)
				errs = append(errs, err)
				continue
			}
			console.Info("✓ %s deallocated", target.Name)
		}
		reportLifecycle(console, "deallocated", errors.Join(errs...))
	},
}

// reportLifecycle treats missing resources as a warning and anything else as
// a command failure.
func reportLifecycle(console *log.ConsoleLogger, verb string, err error) {
	switch {
	case err == nil:
		console.Info("✓ Targets %s", verb)
	case azcli.IsNotFound(err):
		console.Info("! Targets not %s: %v", verb, err)
	default:
		cobra.CheckErr(err)
	}
}
