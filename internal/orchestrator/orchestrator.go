package orchestrator

import (
	"context"

	execctx "github.com/fewx/gfsproc/internal/context"
	"github.com/fewx/gfsproc/internal/models"
	"github.com/fewx/gfsproc/types"
)

type Orchestrator interface {
	Run(ctx context.Context, ec *execctx.ExecutionContext, cycle, date string) (*models.RunReport, error)
}

// Compute starts and deallocates the compute targets.
type Compute interface {
	StartTargets(ctx context.Context, scaleSet, jumpbox types.InfrastructureTarget) error
	StopTarget(ctx context.Context, target types.InfrastructureTarget) error
}

// ScriptRunner runs a named processing script on the remote host.
type ScriptRunner interface {
	RunScript(ctx context.Context, script string) error
}

// ParameterUploader publishes the {date, cycle} record.
type ParameterUploader interface {
	UploadParameters(ctx context.Context, req models.ProcessingRequest) error
}

// StageObserver receives every finished stage record, e.g. for metrics.
type StageObserver interface {
	ObserveStage(record models.StageRecord)
}

// ProgressFunc is called once per checkpoint, in increasing order.
type ProgressFunc func(percent int, stage string)
