package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fewx/gfsproc/internal/azcli"
	"github.com/fewx/gfsproc/internal/config"
	execctx "github.com/fewx/gfsproc/internal/context"
	"github.com/fewx/gfsproc/internal/logging"
	"github.com/fewx/gfsproc/internal/metrics"
	"github.com/fewx/gfsproc/internal/models"
	"github.com/fewx/gfsproc/internal/orchestrator"
	"github.com/fewx/gfsproc/internal/remote"
	"github.com/fewx/gfsproc/internal/storage"
	"github.com/fewx/gfsproc/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// loadConfig loads and validates the configuration named by --config.
func loadConfig() (*types.Config, string, error) {
	cfg, err := config.LoadConfig(ConfigPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load %q: %w", ConfigPath, err)
	}
	absPath, err := filepath.Abs(ConfigPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path for config %q: %w", ConfigPath, err)
	}
	return cfg, filepath.Dir(absPath), nil
}

// checkRequest rejects a bad cycle or date before any log directory, SSH key
// or storage credential is touched.
func checkRequest(cycle, date string) error {
	if _, err := models.NewProcessingRequest(cycle, date); err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrInvalidRequest, err)
	}
	return nil
}

func currentInitiator(kind string) types.Initiator {
	host, _ := os.Hostname()
	id := os.Getenv("USER")
	if kind == "schedule" {
		id = "gfsproc-schedule"
	}
	return types.Initiator{Type: kind, Id: id, Host: host}
}

// newExecutionContext creates the run id and log directory and points the
// global logger at <logdir>/workflow.log. quiet keeps the console free of
// log lines (used by the TUI).
func newExecutionContext(cfg *types.Config, configDir, cmdName string, initiator types.Initiator, quiet bool) (*execctx.ExecutionContext, error) {
	runId := uuid.New()
	startTime := time.Now()

	logDir, err := logging.CreateLogDir(cfg.Workflow.LogRoot, runId, startTime, cmdName)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory for run %s: %w", runId.String(), err)
	}

	logFilePath := filepath.Join(logDir, "workflow.log")
	if err := logging.ConfigureGlobalLogger(Verbose, quiet, logFilePath); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return &execctx.ExecutionContext{
		RunId:     runId,
		Config:    cfg,
		ConfigDir: configDir,
		LogDir:    logDir,
		Command:   cmdName,
		StartTime: startTime,
		Initiator: initiator,
	}, nil
}

func runLogger(ec *execctx.ExecutionContext) zerolog.Logger {
	return log.With().Str("run_id", ec.RunId.String()).Logger()
}

// newUploader builds the parameter uploader for the configured backend.
func newUploader(ctx context.Context, cfg *types.Config, logger zerolog.Logger) (*storage.Uploader, error) {
	store, container, err := GetDependencies().NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to set up %s storage: %w", cfg.Storage.Backend, err)
	}
	return storage.NewUploader(store, container, cfg.Storage, logger), nil
}

func newCompute(cfg *types.Config, logger zerolog.Logger) *azcli.Compute {
	return azcli.NewCompute(cfg.Azure, GetDependencies().Runner, logger)
}

// buildWorkflow wires every external dependency. It fails before any remote
// call if the SSH key or storage credentials are unusable.
func buildWorkflow(ctx context.Context, ec *execctx.ExecutionContext, remoteOut, remoteErr io.Writer, progress orchestrator.ProgressFunc) (*orchestrator.Workflow, *metrics.Recorder, error) {
	cfg := ec.Config
	logger := runLogger(ec)
	deps := GetDependencies()

	transport, err := deps.NewTransport(cfg.Remote, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up SSH: %w", err)
	}

	uploader, err := newUploader(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	recorder := metrics.NewRecorder()

	wf := orchestrator.NewWorkflow(cfg, orchestrator.Dependencies{
		Compute:  newCompute(cfg, logger),
		Remote:   remote.NewExecutor(cfg.Remote, transport, remoteOut, remoteErr, logger),
		Uploader: uploader,
		Observer: recorder,
		Progress: progress,
	})
	return wf, recorder, nil
}

// finishRun writes summary.json and pushes metrics.
func finishRun(ec *execctx.ExecutionContext, report *models.RunReport, recorder *metrics.Recorder) {
	logger := runLogger(ec)

	if err := logging.WriteReport(ec.LogDir, report); err != nil {
		logger.Error().Err(err).Msg("Failed to write summary.json")
	} else {
		logger.Info().Msgf("Run summary written to %s", filepath.Join(ec.LogDir, "summary.json"))
	}

	recorder.ObserveRun(report, time.Now())
	recorder.Push(ec.Config.Metrics.PushgatewayURL, ec.Config.Metrics.Job, fmt.Sprintf("%02d", report.Cycle))
}
