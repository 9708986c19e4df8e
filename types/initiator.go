package types

// Initiator stores information about who started a run - an operator at the
// console or the scheduler
type Initiator struct {
	Type string `json:"type"` // "user", "schedule"
	Id   string `json:"id"`   // "fewxops", "gfsproc-schedule"
	Host string `json:"host"`
}
