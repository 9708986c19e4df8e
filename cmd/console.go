package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fewx/gfsproc/internal/logging"
	"github.com/fewx/gfsproc/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(consoleCmd)
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive operator console",
	Long: `Console opens an interactive form to pick a GFS cycle (00, 06, 12, 18) and a
date, then runs the full gust window workflow with a live progress bar.

Logs go to the run log directory only; remote script output is captured in
remote.log next to workflow.log.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, configDir, err := loadConfig()
		cobra.CheckErr(err)

		var program *tea.Program
		start := func(cycle, date string) tea.Cmd {
			return func() tea.Msg {
				return runFromConsole(cfg, configDir, cycle, date, func(percent int, stage string) {
					program.Send(progressMsg{percent: percent, stage: stage})
				})
			}
		}

		today := time.Now().UTC().Format("20060102")
		program = tea.NewProgram(initialConsoleModel(today, start))
		if _, err := program.Run(); err != nil {
			cobra.CheckErr(fmt.Errorf("console failed: %w", err))
		}
	},
}

func runFromConsole(cfg *types.Config, configDir, cycle, date string, progress func(int, string)) runFinishedMsg {
	if err := checkRequest(cycle, date); err != nil {
		return runFinishedMsg{err: err}
	}

	ec, err := newExecutionContext(cfg, configDir, "console", currentInitiator("user"), true)
	if err != nil {
		return runFinishedMsg{err: err}
	}
	defer logging.CloseLogFile()

	remoteLog, err := os.Create(filepath.Join(ec.LogDir, "remote.log"))
	if err != nil {
		return runFinishedMsg{err: fmt.Errorf("failed to create remote.log: %w", err)}
	}
	defer remoteLog.Close()

	ctx := context.Background()
	wf, recorder, err := buildWorkflow(ctx, ec, remoteLog, remoteLog, progress)
	if err != nil {
		return runFinishedMsg{err: err}
	}

	report, err := wf.Run(ctx, ec, cycle, date)
	if err != nil {
		return runFinishedMsg{err: err}
	}

	finishRun(ec, report, recorder)
	return runFinishedMsg{report: report}
}
