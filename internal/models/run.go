package models

import (
	"time"

	"github.com/google/uuid"
)

type RunState string

const (
	RunStateRunning RunState = "running"
	RunStateDone    RunState = "done"
	RunStateFailed  RunState = "failed"
)

// Run describes one invocation of parallel dataset creation.
type Run struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt *time.Time
	Jobs       int
	Ordered    bool
	State      RunState
	Total      int
	Failed     int
}

func NewRun(jobs int, ordered bool) Run {
	return Run{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Jobs:      jobs,
		Ordered:   ordered,
		State:     RunStateRunning,
	}
}

// Finish stamps the run with its outcome.
func (r *Run) Finish(total, failed int) {
	now := time.Now().UTC()
	r.FinishedAt = &now
	r.Total = total
	r.Failed = failed
	r.State = RunStateDone
	if failed > 0 {
		r.State = RunStateFailed
	}
}

// RunResult is a Result persisted as part of a run, Seq giving its output position.
type RunResult struct {
	RunID uuid.UUID
	Seq   int
	Result
}
