package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fewx/gfsproc/internal/log"
	"github.com/fewx/gfsproc/internal/orchestrator"
	"github.com/fewx/gfsproc/types"
	"github.com/spf13/cobra"
)

var (
	runCycle  string
	runDate   string
	runAsJSON bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runCycle, "cycle", "", "GFS cycle to process (0, 6, 12 or 18)")
	runCmd.Flags().StringVar(&runDate, "date", "", "Model run date as YYYYMMDD (default: today, UTC)")
	runCmd.Flags().BoolVar(&runAsJSON, "json", false, "Print the run report as JSON instead of progress output")
	runCmd.MarkFlagRequired("cycle")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full gust window workflow for one cycle",
	Long: `Run starts the scale set and jumpbox, uploads the {date, cycle} parameters,
runs the processing scripts on both targets and deallocates them again.

Stage failures do not abort the run. Every stage is attempted so that no
compute is left running, and the outcome of each stage is written to the
run log directory under '.gfsproc/logs/'.

The cycle is validated before anything touches Azure.`,
	Run: func(cmd *cobra.Command, args []string) {
		date := runDate
		if date == "" {
			date = time.Now().UTC().Format("20060102")
		}

		style := types.StyleHuman
		if Verbose {
			style = types.StyleHumanVerbose
		}
		if runAsJSON {
			style = types.StyleMachineJSON
		}
		console := log.NewLogger(style)

		if err := checkRequest(runCycle, date); err != nil {
			fmt.Fprintf(os.Stderr, "✖ %v\n", err)
			os.Exit(2)
		}

		cfg, configDir, err := loadConfig()
		cobra.CheckErr(err)

		ec, err := newExecutionContext(cfg, configDir, "run", currentInitiator("user"), runAsJSON)
		cobra.CheckErr(err)

		logger := runLogger(ec)
		logger.Info().Msgf("Logs will be stored in: %s", ec.LogDir)

		// Keep stdout clean for the JSON report.
		var remoteOut io.Writer = os.Stdout
		if runAsJSON {
			remoteOut = os.Stderr
		}

		ctx := context.Background()
		wf, recorder, err := buildWorkflow(ctx, ec, remoteOut, os.Stderr, console.Progress)
		cobra.CheckErr(err)

		report, err := wf.Run(ctx, ec, runCycle, date)
		if errors.Is(err, orchestrator.ErrInvalidRequest) {
			console.Error("%v", err)
			os.Exit(2)
		}
		cobra.CheckErr(err)

		finishRun(ec, report, recorder)

		console.Json(report)
		console.Info("")
		printReport(console, report)
		console.Info("Logs saved to: %s", ec.LogDir)

		if report.OverallStatus == "Failed" {
			cobra.CheckErr(fmt.Errorf("%d stage(s) failed", report.StagesFailed))
		}
	},
}
