package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fewx/gfsproc/internal/config"
	"github.com/fewx/gfsproc/internal/logging"
	"github.com/fewx/gfsproc/internal/models"
	"github.com/fewx/gfsproc/types"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the workflow unattended on the configured cron schedule",
	Long: `Schedule stays in the foreground and runs the workflow each time 'schedule.cron'
fires. The cycle is derived from the current UTC time minus 'schedule.delay_hours',
floored to the previous 00/06/12/18 cycle.

A firing is skipped while the previous run is still going. SIGINT or SIGTERM
stops the scheduler after the current run finishes its teardown.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, configDir, err := loadConfig()
		cobra.CheckErr(err)

		if cfg.Schedule.Cron == "" {
			cobra.CheckErr(fmt.Errorf("%s has no 'schedule.cron' entry", ConfigPath))
		}
		sched, err := config.ParseCron(cfg.Schedule.Cron)
		cobra.CheckErr(err)

		logger := log.With().Str("component", "schedule").Logger()
		cronLogger := cronLogAdapter{logger: logger}

		c := cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cronLogger))
		job := cron.NewChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)).
			Then(cron.FuncJob(func() { scheduledRun(cfg, configDir) }))
		c.Schedule(sched, job)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c.Start()
		logger.Info().Str("cron", cfg.Schedule.Cron).Int("delay_hours", cfg.Schedule.DelayHours).Msg("Scheduler started")

		<-ctx.Done()
		logger.Info().Msg("Stopping scheduler, waiting for the current run to finish")
		<-c.Stop().Done()
		logger.Info().Msg("Scheduler stopped")
	},
}

// scheduledRun processes the latest available cycle. Errors are logged; the
// scheduler keeps going.
func scheduledRun(cfg *types.Config, configDir string) {
	req := models.LatestCycle(time.Now(), time.Duration(cfg.Schedule.DelayHours)*time.Hour)

	ec, err := newExecutionContext(cfg, configDir, "schedule", currentInitiator("schedule"), false)
	if err != nil {
		log.Error().Err(err).Str("request", req.String()).Msg("Scheduled run could not start")
		return
	}
	defer logging.CloseLogFile()

	logger := runLogger(ec)
	logger.Info().Str("request", req.String()).Msg("Scheduled run triggered")

	ctx := context.Background()
	wf, recorder, err := buildWorkflow(ctx, ec, os.Stdout, os.Stderr, func(percent int, stage string) {
		logger.Info().Int("progress", percent).Str("stage", stage).Msg("Progress")
	})
	if err != nil {
		logger.Error().Err(err).Msg("Scheduled run could not start")
		return
	}

	report, err := wf.Run(ctx, ec, strconv.Itoa(req.Cycle()), req.DateString())
	if err != nil {
		logger.Error().Err(err).Msg("Scheduled run rejected")
		return
	}
	finishRun(ec, report, recorder)
}

// cronLogAdapter routes robfig/cron's logging into zerolog.
type cronLogAdapter struct {
	logger zerolog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
