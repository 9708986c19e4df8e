package context

import (
	"time"

	"github.com/fewx/gfsproc/types"
	"github.com/google/uuid"
)

type ExecutionContext struct {
	RunId     uuid.UUID
	Config    *types.Config
	ConfigDir string // Directory that holds gfsproc.yml
	LogDir    string
	Command   string // "run", "console", "schedule"
	StartTime time.Time
	Initiator types.Initiator
}
