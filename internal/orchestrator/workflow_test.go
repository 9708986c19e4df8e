package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fewx/gfsproc/internal/azcli"
	execctx "github.com/fewx/gfsproc/internal/context"
	"github.com/fewx/gfsproc/internal/models"
	"github.com/fewx/gfsproc/internal/remote"
	"github.com/fewx/gfsproc/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journal records every side effect in call order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeCompute struct {
	j        *journal
	startErr error
	stopErr  map[string]error
}

func (f *fakeCompute) StartTargets(ctx context.Context, scaleSet, jumpbox types.InfrastructureTarget) error {
	f.j.add(fmt.Sprintf("start %s+%s", scaleSet.Name, jumpbox.Name))
	return f.startErr
}

func (f *fakeCompute) StopTarget(ctx context.Context, target types.InfrastructureTarget) error {
	f.j.add("stop " + target.Name)
	return f.stopErr[target.Name]
}

type fakeRemote struct {
	j    *journal
	errs map[string]error
}

func (f *fakeRemote) RunScript(ctx context.Context, script string) error {
	f.j.add("script " + script)
	return f.errs[script]
}

type fakeUploader struct {
	j       *journal
	err     error
	got     []models.Parameters
	release chan struct{}
}

func (f *fakeUploader) UploadParameters(ctx context.Context, req models.ProcessingRequest) error {
	if f.release != nil {
		<-f.release
	}
	f.j.add("upload " + req.String())
	f.got = append(f.got, req.Parameters())
	return f.err
}

type progressLog struct {
	percents []int
	stages   []string
}

func (p *progressLog) record(percent int, stage string) {
	p.percents = append(p.percents, percent)
	p.stages = append(p.stages, stage)
}

type harness struct {
	j        *journal
	compute  *fakeCompute
	remote   *fakeRemote
	uploader *fakeUploader
	progress *progressLog
	cfg      *types.Config
}

func newHarness() *harness {
	j := &journal{}
	return &harness{
		j:        j,
		compute:  &fakeCompute{j: j, stopErr: map[string]error{}},
		remote:   &fakeRemote{j: j, errs: map[string]error{}},
		uploader: &fakeUploader{j: j},
		progress: &progressLog{},
		cfg: &types.Config{
			Azure: types.Azure{ResourceGroup: "rg", VMName: "jumpbox", VMSSName: "vmscaleset"},
			Remote: types.Remote{
				ScaleSetScript: "vmss_process_gust_instant.sh",
				JumpboxScript:  "jumpbox_process_gust_window.sh",
			},
		},
	}
}

func (h *harness) workflow() *Workflow {
	return NewWorkflow(h.cfg, Dependencies{
		Compute:  h.compute,
		Remote:   h.remote,
		Uploader: h.uploader,
		Progress: h.progress.record,
	})
}

func execContext(logDir string) *execctx.ExecutionContext {
	return &execctx.ExecutionContext{RunId: uuid.New(), Command: "run", LogDir: logDir}
}

var expectedSequence = []string{
	"start vmscaleset+jumpbox",
	"upload %s",
	"script vmss_process_gust_instant.sh",
	"stop vmscaleset",
	"script jumpbox_process_gust_window.sh",
	"stop jumpbox",
}

func sequenceFor(req string) []string {
	seq := append([]string(nil), expectedSequence...)
	seq[1] = fmt.Sprintf(seq[1], req)
	return seq
}

func TestRunAllCyclesInOrder(t *testing.T) {
	for _, cycle := range []string{"0", "6", "12", "18"} {
		t.Run("cycle "+cycle, func(t *testing.T) {
			h := newHarness()

			report, err := h.workflow().Run(context.Background(), execContext(""), cycle, "20240101")
			require.NoError(t, err)

			req, _ := models.NewProcessingRequest(cycle, "20240101")
			assert.Equal(t, sequenceFor(req.String()), h.j.list())
			assert.Equal(t, []int{0, 15, 30, 45, 60, 75, 100}, h.progress.percents)
			assert.True(t, report.Done)
			assert.Equal(t, "Success", report.OverallStatus)
			assert.Len(t, report.Stages, 7)
			assert.Nil(t, report.FirstFailure)
		})
	}
}

func TestRunReachesDoneExactlyOnce(t *testing.T) {
	h := newHarness()
	_, err := h.workflow().Run(context.Background(), execContext(""), "6", "20240101")
	require.NoError(t, err)

	doneCount := 0
	for _, p := range h.progress.percents {
		if p == 100 {
			doneCount++
		}
	}
	assert.Equal(t, 1, doneCount)
	assert.Equal(t, StageStopJumpbox, h.progress.stages[len(h.progress.stages)-1])
}

func TestRunRejectsInvalidCycleWithoutSideEffects(t *testing.T) {
	h := newHarness()

	report, err := h.workflow().Run(context.Background(), execContext(""), "3", "20240101")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, err, models.ErrInvalidCycle)
	assert.Nil(t, report)
	assert.Empty(t, h.j.list())
	assert.Empty(t, h.progress.percents)
	assert.Empty(t, h.uploader.got)
}

func TestRunRejectsInvalidDate(t *testing.T) {
	h := newHarness()

	_, err := h.workflow().Run(context.Background(), execContext(""), "6", "Pick Date")
	assert.ErrorIs(t, err, models.ErrInvalidDate)
	assert.Empty(t, h.j.list())
}

func TestRunContinuesPastMissingIPFile(t *testing.T) {
	h := newHarness()
	h.remote.errs["vmss_process_gust_instant.sh"] = fmt.Errorf("%w: Terraform/vm_ip.txt", remote.ErrIPFileNotFound)

	report, err := h.workflow().Run(context.Background(), execContext(""), "12", "20240101")
	require.NoError(t, err)

	assert.Len(t, h.j.list(), 6, "every stage still runs")
	assert.Equal(t, models.OutcomeDegraded, report.Stages[3].Outcome)
	assert.Contains(t, report.Stages[3].Error, "vm_ip.txt file not found")
	assert.Equal(t, "Degraded", report.OverallStatus)
	require.NotNil(t, report.FirstFailure)
	assert.Equal(t, StageProcessVMSS, report.FirstFailure.Name)
	assert.True(t, report.Done)
}

func TestRunTeardownRunsAfterEveryFailure(t *testing.T) {
	h := newHarness()
	h.compute.startErr = fmt.Errorf("resource group rg: %w", azcli.ErrResourceGroupNotFound)
	h.uploader.err = errors.New("AuthenticationFailed")
	h.remote.errs["vmss_process_gust_instant.sh"] = errors.New("connection refused")
	h.remote.errs["jumpbox_process_gust_window.sh"] = errors.New("connection refused")
	h.compute.stopErr["vmscaleset"] = &azcli.CommandError{Command: []string{"az"}, ExitCode: 1}

	report, err := h.workflow().Run(context.Background(), execContext(""), "18", "20240101")
	require.NoError(t, err)

	assert.Contains(t, h.j.list(), "stop jumpbox")
	assert.Equal(t, []int{0, 15, 30, 45, 60, 75, 100}, h.progress.percents)

	outcomes := make([]models.StageOutcome, len(report.Stages))
	for i, st := range report.Stages {
		outcomes[i] = st.Outcome
	}
	assert.Equal(t, []models.StageOutcome{
		models.OutcomeSuccess,  // validate
		models.OutcomeDegraded, // start: resource group missing
		models.OutcomeFailed,   // upload
		models.OutcomeFailed,   // process vmss
		models.OutcomeFailed,   // stop vmss
		models.OutcomeFailed,   // process jumpbox
		models.OutcomeSuccess,  // stop jumpbox
	}, outcomes)
	assert.Equal(t, "Failed", report.OverallStatus)
	assert.Equal(t, 4, report.StagesFailed)
	assert.Equal(t, StageStart, report.FirstFailure.Name)
}

func TestRunAwaitsUploadBeforeRemoteProcessing(t *testing.T) {
	h := newHarness()
	uploader := &gatedUploader{release: make(chan struct{})}
	checker := &uploadCheckingRemote{uploader: uploader}

	wf := NewWorkflow(h.cfg, Dependencies{
		Compute:  h.compute,
		Remote:   checker,
		Uploader: uploader,
	})

	report, err := wf.Run(context.Background(), execContext(""), "6", "20240101")
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true}, checker.uploadFinished, "remote processing started before the upload finished")
	assert.Equal(t, models.OutcomeSuccess, report.Stages[2].Outcome)
}

// gatedUploader holds the upload until the first remote script runs, or
// until a timeout so a correctly joined upload still completes.
type gatedUploader struct {
	release  chan struct{}
	mu       sync.Mutex
	finished bool
}

func (g *gatedUploader) UploadParameters(ctx context.Context, req models.ProcessingRequest) error {
	select {
	case <-g.release:
	case <-time.After(200 * time.Millisecond):
	}
	g.mu.Lock()
	g.finished = true
	g.mu.Unlock()
	return nil
}

func (g *gatedUploader) isFinished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finished
}

// uploadCheckingRemote records whether the upload had finished when each
// script started, then lets a still-pending upload go.
type uploadCheckingRemote struct {
	uploader       *gatedUploader
	once           sync.Once
	uploadFinished []bool
}

func (r *uploadCheckingRemote) RunScript(ctx context.Context, script string) error {
	r.uploadFinished = append(r.uploadFinished, r.uploader.isFinished())
	r.once.Do(func() { close(r.uploader.release) })
	return nil
}

func TestRunBackgroundUploadStillReported(t *testing.T) {
	h := newHarness()
	off := false
	h.cfg.Workflow.AwaitUpload = &off
	h.uploader.release = make(chan struct{})
	h.uploader.err = errors.New("blob upload failed")

	// Released only once the jumpbox script runs, so the upload finishes late.
	h.remote.errs = map[string]error{}
	wf := NewWorkflow(h.cfg, Dependencies{
		Compute:  h.compute,
		Remote:   &releasingRemote{fakeRemote: h.remote, release: h.uploader.release, on: "jumpbox_process_gust_window.sh"},
		Uploader: h.uploader,
		Progress: h.progress.record,
	})

	report, err := wf.Run(context.Background(), execContext(""), "0", "20240101")
	require.NoError(t, err)

	entries := h.j.list()
	assert.Equal(t, "script vmss_process_gust_instant.sh", entries[1], "processing did not wait for upload")
	assert.Equal(t, []int{0, 15, 30, 45, 60, 75, 100}, h.progress.percents)
	assert.Equal(t, models.OutcomeFailed, report.Stages[2].Outcome)
	assert.Equal(t, StageUpload, report.Stages[2].Name)
}

type releasingRemote struct {
	*fakeRemote
	release chan struct{}
	on      string
}

func (r *releasingRemote) RunScript(ctx context.Context, script string) error {
	err := r.fakeRemote.RunScript(ctx, script)
	if script == r.on {
		close(r.release)
	}
	return err
}

func TestRunPersistsStageRecordsAndObserver(t *testing.T) {
	h := newHarness()
	dir := t.TempDir()
	obs := &countingObserver{}

	wf := NewWorkflow(h.cfg, Dependencies{
		Compute:  h.compute,
		Remote:   h.remote,
		Uploader: h.uploader,
		Observer: obs,
	})
	_, err := wf.Run(context.Background(), execContext(dir), "6", "20240101")
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 7)
	_, err = os.Stat(filepath.Join(dir, "07_STOP_JUMPBOX.json"))
	assert.NoError(t, err)
	assert.Equal(t, 7, obs.count)
}

type countingObserver struct{ count int }

func (c *countingObserver) ObserveStage(models.StageRecord) { c.count++ }

func TestOutcomeFor(t *testing.T) {
	assert.Equal(t, models.OutcomeSuccess, OutcomeFor(nil))
	assert.Equal(t, models.OutcomeDegraded, OutcomeFor(fmt.Errorf("x: %w", azcli.ErrResourceNotFound)))
	assert.Equal(t, models.OutcomeDegraded, OutcomeFor(remote.ErrEmptyIPFile))
	assert.Equal(t, models.OutcomeFailed, OutcomeFor(errors.New("boom")))
}
