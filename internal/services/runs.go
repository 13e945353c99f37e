package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ypid/datalad/internal/models"
	"github.com/ypid/datalad/internal/store"
)

type RunService struct {
	store *store.Store
}

func NewRunService(st *store.Store) *RunService {
	return &RunService{store: st}
}

type RunListParams struct {
	States []string
	Limit  uint64
	Offset uint64
}

func (s *RunService) List(ctx context.Context, params RunListParams) ([]models.Run, error) {
	var opts []store.ListOption
	if len(params.States) > 0 {
		opts = append(opts, store.ByState(params.States...))
	}
	opts = append(opts, paginate(params.Limit, params.Offset)...)
	return s.store.Runs().List(ctx, opts...)
}

func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	return s.store.Runs().Get(ctx, id)
}

type ResultListParams struct {
	Statuses []string
	Limit    uint64
	Offset   uint64
}

type ResultListResult struct {
	Results []models.RunResult
	Total   int
}

// Results lists the results of a run. It fails with ResourceNotFoundError
// for an unknown run.
func (s *RunService) Results(ctx context.Context, id uuid.UUID, params ResultListParams) (*ResultListResult, error) {
	if _, err := s.store.Runs().Get(ctx, id); err != nil {
		return nil, err
	}

	filters := []store.ListOption{store.ByRun(id.String())}
	if len(params.Statuses) > 0 {
		filters = append(filters, store.ByStatus(params.Statuses...))
	}

	results, err := s.store.Results().List(ctx, append(filters, paginate(params.Limit, params.Offset)...)...)
	if err != nil {
		return nil, err
	}

	// Get total count without pagination
	total, err := s.store.Results().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	return &ResultListResult{Results: results, Total: total}, nil
}

func paginate(limit, offset uint64) []store.ListOption {
	var opts []store.ListOption
	if limit > 0 {
		opts = append(opts, store.WithLimit(limit))
	}
	if offset > 0 {
		opts = append(opts, store.WithOffset(offset))
	}
	return opts
}
