package models

import (
	"github.com/fewx/gfsproc/types"
	"github.com/google/uuid"
)

// CommandResult is the captured outcome of one external command.
type CommandResult struct {
	Command   []string `json:"command"`
	Succeeded bool     `json:"succeeded"`
	ExitCode  int      `json:"exit_code"`
	Stdout    string   `json:"stdout"`
	Stderr    string   `json:"stderr"`
}

// Parameters is the record uploaded for the processing scripts to pick up.
type Parameters struct {
	Date  string `json:"date"`
	Cycle int    `json:"cycle"`
}

type StageOutcome string

const (
	OutcomeSuccess StageOutcome = "success"

	// Degraded: the stage did not do its work but the cause is a known,
	// non-fatal condition (resource not found, missing IP file).
	OutcomeDegraded StageOutcome = "degraded"

	OutcomeFailed StageOutcome = "failed"

	OutcomeSkipped StageOutcome = "skipped"
)

// StageRecord contains everything about a single stage of a run.
// Saved as NN_STAGE.json in the run log directory.
type StageRecord struct {
	Stage    int          `json:"stage"`
	Name     string       `json:"name"`
	Progress int          `json:"progress"`
	Outcome  StageOutcome `json:"outcome"`
	Error    string       `json:"error,omitempty"`
	RunId    uuid.UUID    `json:"run_id"`

	StartTime  string `json:"start_time"`
	FinishTime string `json:"finish_time"`
	DurationMs int64  `json:"duration_ms"`
}

// RunReport holds the overall results of a workflow run.
type RunReport struct {
	RunId         uuid.UUID       `json:"run_id"`
	Command       string          `json:"command"`
	Cycle         int             `json:"cycle"`
	Date          string          `json:"date"`
	Initiator     types.Initiator `json:"initiator"`
	StartTime     string          `json:"start_time"`
	FinishTime    string          `json:"finish_time"`
	DurationMs    int64           `json:"duration_ms"`
	Stages        []StageRecord   `json:"stages"`
	OverallStatus string          `json:"overall_status"` // "Success", "Degraded", "Failed"
	Done          bool            `json:"done"`
	StagesFailed  int             `json:"stages_failed"`
	FirstFailure  *StageRecord    `json:"first_failure,omitempty"`
}
