package v1

import (
	"github.com/ypid/datalad/internal/models"
)

// NewRunFromModel converts a models.Run to an API Run.
func NewRunFromModel(r models.Run) Run {
	return Run{
		Id:         r.ID.String(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Jobs:       r.Jobs,
		Ordered:    r.Ordered,
		State:      string(r.State),
		Total:      r.Total,
		Failed:     r.Failed,
	}
}

// NewResultFromModel converts a models.RunResult to an API Result.
func NewResultFromModel(r models.RunResult) Result {
	return Result{
		Seq:     r.Seq,
		Action:  r.Action,
		Path:    r.Path,
		Type:    r.Type,
		Status:  string(r.Status),
		Message: r.Message,
		Refds:   r.RefDS,
	}
}
