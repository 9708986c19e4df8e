package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fewx/gfsproc/internal/azcli"
	execctx "github.com/fewx/gfsproc/internal/context"
	"github.com/fewx/gfsproc/internal/logging"
	"github.com/fewx/gfsproc/internal/models"
	"github.com/fewx/gfsproc/internal/remote"
	"github.com/fewx/gfsproc/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrInvalidRequest = errors.New("invalid processing request")

// Stage names, in execution order, with the checkpoint emitted when each finishes.
const (
	StageValidate       = "validate"
	StageStart          = "start"
	StageUpload         = "upload_parameters"
	StageProcessVMSS    = "process_vmss"
	StageStopVMSS       = "stop_vmss"
	StageProcessJumpbox = "process_jumpbox"
	StageStopJumpbox    = "stop_jumpbox"
)

var Checkpoints = []struct {
	Name     string
	Progress int
}{
	{StageValidate, 0},
	{StageStart, 15},
	{StageUpload, 30},
	{StageProcessVMSS, 45},
	{StageStopVMSS, 60},
	{StageProcessJumpbox, 75},
	{StageStopJumpbox, 100},
}

type Dependencies struct {
	Compute  Compute
	Remote   ScriptRunner
	Uploader ParameterUploader
	Observer StageObserver // optional
	Progress ProgressFunc  // optional
}

// Workflow runs the fixed start → upload → process → deallocate sequence.
// Stage failures never abort it: teardown always runs so no paid compute is
// left running, and every outcome lands in the report.
type Workflow struct {
	cfg  *types.Config
	deps Dependencies
}

func NewWorkflow(cfg *types.Config, deps Dependencies) *Workflow {
	if deps.Progress == nil {
		deps.Progress = func(int, string) {}
	}
	return &Workflow{cfg: cfg, deps: deps}
}

type run struct {
	w       *Workflow
	ec      *execctx.ExecutionContext
	report  *models.RunReport
	logger  zerolog.Logger
	emitted int
}

// Run validates (cycle, date) and executes all seven stages. The only error
// returned is ErrInvalidRequest, before any remote call is made; every later
// failure is recorded in the report instead.
func (w *Workflow) Run(ctx context.Context, ec *execctx.ExecutionContext, cycle, date string) (*models.RunReport, error) {
	logger := log.With().
		Str("component", "workflow").
		Str("run_id", ec.RunId.String()).
		Logger()

	startTime := time.Now()

	req, err := models.NewProcessingRequest(cycle, date)
	if err != nil {
		logger.Error().Err(err).Msg("Rejected processing request")
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	logger = logger.With().Str("request", req.String()).Logger()
	logger.Info().Msgf("Starting gust window processing for cycle %02dz on %s", req.Cycle(), req.DateString())

	r := &run{
		w:  w,
		ec: ec,
		report: &models.RunReport{
			RunId:     ec.RunId,
			Command:   ec.Command,
			Cycle:     req.Cycle(),
			Date:      req.DateString(),
			Initiator: ec.Initiator,
			StartTime: startTime.Format(time.RFC3339),
		},
		logger:  logger,
		emitted: -1,
	}

	// The sequence is not cancellable once started: teardown must still run
	// if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	// --- 1. Validate ---
	r.finish(0, startTime, nil)

	// --- 2. Start compute targets ---
	r.stage(1, func() error {
		return w.deps.Compute.StartTargets(ctx, w.cfg.ScaleSet(), w.cfg.Jumpbox())
	})

	// --- 3. Upload parameters ---
	uploadStart := time.Now()
	uploadDone := make(chan error, 1)
	go func() {
		uploadDone <- w.deps.Uploader.UploadParameters(ctx, req)
	}()

	uploadJoined := false
	if w.cfg.ShouldAwaitUpload() {
		r.finish(2, uploadStart, <-uploadDone)
		uploadJoined = true
	} else {
		logger.Warn().Msg("Parameter upload running in the background; remote processing may read stale parameters")
		r.launched(2, uploadStart)
	}

	// --- 4. Process on the scale set ---
	r.stage(3, func() error {
		return w.deps.Remote.RunScript(ctx, w.cfg.Remote.ScaleSetScript)
	})

	// --- 5. Deallocate the scale set ---
	r.stage(4, func() error {
		return w.deps.Compute.StopTarget(ctx, w.cfg.ScaleSet())
	})

	// --- 6. Process on the jumpbox ---
	r.stage(5, func() error {
		return w.deps.Remote.RunScript(ctx, w.cfg.Remote.JumpboxScript)
	})

	// --- 7. Deallocate the jumpbox ---
	stopStart := time.Now()
	stopErr := w.deps.Compute.StopTarget(ctx, w.cfg.Jumpbox())

	// The background upload is still collected so its outcome is reported.
	if !uploadJoined {
		r.complete(2, <-uploadDone)
	}

	r.report.Done = true
	r.finish(6, stopStart, stopErr)

	r.summarize(startTime)
	logger.Info().Str("status", r.report.OverallStatus).Msg("🏁 Process completed")
	return r.report, nil
}

func (r *run) stage(idx int, fn func() error) {
	start := time.Now()
	r.logger.Info().Str("stage", Checkpoints[idx].Name).Msg("Running stage")
	r.finish(idx, start, fn())
}

// finish records the stage outcome and emits its checkpoint.
func (r *run) finish(idx int, start time.Time, err error) {
	record := r.newRecord(idx, start, err)
	r.report.Stages = append(r.report.Stages, record)
	r.persist(record)
	r.emit(idx)
}

// launched records a fire-and-forget stage whose outcome is filled in later.
func (r *run) launched(idx int, start time.Time) {
	record := r.newRecord(idx, start, nil)
	record.Outcome = models.OutcomeSkipped
	record.Error = "running in background"
	r.report.Stages = append(r.report.Stages, record)
	r.emit(idx)
}

// complete fills in a launched stage once its result is known.
func (r *run) complete(idx int, err error) {
	for i := range r.report.Stages {
		if r.report.Stages[i].Stage != idx+1 {
			continue
		}
		start, _ := time.Parse(time.RFC3339Nano, r.report.Stages[i].StartTime)
		record := r.newRecord(idx, start, err)
		r.report.Stages[i] = record
		r.persist(record)
		return
	}
}

func (r *run) newRecord(idx int, start time.Time, err error) models.StageRecord {
	cp := Checkpoints[idx]
	finish := time.Now()

	record := models.StageRecord{
		Stage:      idx + 1,
		Name:       cp.Name,
		Progress:   cp.Progress,
		Outcome:    OutcomeFor(err),
		RunId:      r.ec.RunId,
		StartTime:  start.Format(time.RFC3339Nano),
		FinishTime: finish.Format(time.RFC3339Nano),
		DurationMs: finish.Sub(start).Milliseconds(),
	}

	stageLogger := r.logger.With().Str("stage", cp.Name).Logger()
	switch record.Outcome {
	case models.OutcomeSuccess:
		stageLogger.Info().Msgf("✓ Stage %s complete", cp.Name)
	case models.OutcomeDegraded:
		record.Error = err.Error()
		stageLogger.Warn().Err(err).Msg("Stage degraded, continuing")
	default:
		record.Error = err.Error()
		stageLogger.Error().Err(err).Msg("Stage failed, continuing")
	}
	return record
}

func (r *run) persist(record models.StageRecord) {
	if r.w.deps.Observer != nil {
		r.w.deps.Observer.ObserveStage(record)
	}
	if r.ec.LogDir == "" {
		return
	}
	if err := logging.SaveStageRecord(r.ec.LogDir, record); err != nil {
		r.logger.Error().Err(err).Str("log_dir", r.ec.LogDir).Msg("Failed to save stage record")
	}
}

func (r *run) emit(idx int) {
	cp := Checkpoints[idx]
	if cp.Progress <= r.emitted {
		// Checkpoints are strictly increasing; anything else is a sequencing bug.
		panic(fmt.Sprintf("progress checkpoint %d emitted after %d", cp.Progress, r.emitted))
	}
	r.emitted = cp.Progress
	r.w.deps.Progress(cp.Progress, cp.Name)
}

func (r *run) summarize(startTime time.Time) {
	status := "Success"
	for i := range r.report.Stages {
		st := r.report.Stages[i]
		if st.Outcome == models.OutcomeSuccess {
			continue
		}
		if r.report.FirstFailure == nil {
			r.report.FirstFailure = &r.report.Stages[i]
		}
		switch st.Outcome {
		case models.OutcomeFailed:
			r.report.StagesFailed++
			status = "Failed"
		case models.OutcomeDegraded:
			if status == "Success" {
				status = "Degraded"
			}
		}
	}

	finish := time.Now()
	r.report.OverallStatus = status
	r.report.FinishTime = finish.Format(time.RFC3339)
	r.report.DurationMs = finish.Sub(startTime).Milliseconds()
}

// OutcomeFor maps a stage error to its outcome. Missing resources and a
// missing IP file are known conditions and only degrade the run.
func OutcomeFor(err error) models.StageOutcome {
	switch {
	case err == nil:
		return models.OutcomeSuccess
	case azcli.IsNotFound(err),
		errors.Is(err, remote.ErrIPFileNotFound),
		errors.Is(err, remote.ErrEmptyIPFile):
		return models.OutcomeDegraded
	}
	return models.OutcomeFailed
}
