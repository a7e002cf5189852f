package model

import "time"

// RunStatus represents the current state of a publish run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusLoading     RunStatus = "loading"
	RunStatusFetching    RunStatus = "fetching"
	RunStatusAggregating RunStatus = "aggregating"
	RunStatusPublishing  RunStatus = "publishing"
	RunStatusComplete    RunStatus = "complete"
	RunStatusDegraded    RunStatus = "degraded"
	RunStatusFailed      RunStatus = "failed"
)

// StatusOutcome classifies one source or sheet within a run.
type StatusOutcome string

const (
	OutcomeSuccess  StatusOutcome = "success"
	OutcomeDegraded StatusOutcome = "degraded"
	OutcomeFailed   StatusOutcome = "failed"
	OutcomeSkipped  StatusOutcome = "skipped"
)

// SourceStatus summarizes one source's load/reconcile outcome for a run.
type SourceStatus struct {
	Source       SourceKind    `json:"source"`
	Region       Region        `json:"region"`
	Outcome      StatusOutcome `json:"outcome"`
	RowsRead     int           `json:"rows_read"`
	RowsSkipped  int           `json:"rows_skipped"`
	Observations int           `json:"observations"`
	Error        string        `json:"error,omitempty"`
}

// SheetStatus summarizes one destination sheet's publish outcome.
type SheetStatus struct {
	SheetID string        `json:"sheet_id"`
	Region  Region        `json:"region"`
	Outcome StatusOutcome `json:"outcome"`
	Ranges  int           `json:"ranges"`
	Error   string        `json:"error,omitempty"`
}

// RunReport is the per-source / per-sheet status summary a run produces
// instead of a single pass/fail result.
type RunReport struct {
	Period      Period         `json:"period"`
	Regions     []Region       `json:"regions"`
	Sources     []SourceStatus `json:"sources"`
	Sheets      []SheetStatus  `json:"sheets"`
	RankQueries int            `json:"rank_queries"`
	RankMissing int            `json:"rank_missing"`
	Records     int            `json:"records"`
	DurationMS  int64          `json:"duration_ms"`
}

// Outcome rolls the report up into a run status: failed when nothing was
// published, degraded when any source or sheet fell short, complete otherwise.
func (r RunReport) Outcome() RunStatus {
	published := 0
	for _, s := range r.Sheets {
		if s.Outcome == OutcomeSuccess {
			published++
		}
	}
	if len(r.Sheets) > 0 && published == 0 {
		return RunStatusFailed
	}
	for _, s := range r.Sources {
		if s.Outcome == OutcomeFailed || s.Outcome == OutcomeDegraded {
			return RunStatusDegraded
		}
	}
	for _, s := range r.Sheets {
		if s.Outcome != OutcomeSuccess {
			return RunStatusDegraded
		}
	}
	if r.RankMissing > 0 {
		return RunStatusDegraded
	}
	return RunStatusComplete
}

// Run represents a single publish run.
type Run struct {
	ID        string     `json:"id"`
	Period    Period     `json:"period"`
	Regions   []Region   `json:"regions,omitempty"`
	Status    RunStatus  `json:"status"`
	Report    *RunReport `json:"report,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
