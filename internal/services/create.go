package services

import (
	"context"
	"errors"
	"iter"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/ypid/datalad/internal/config"
	"github.com/ypid/datalad/internal/dataset"
	"github.com/ypid/datalad/internal/models"
	"github.com/ypid/datalad/internal/store"
	srvErrors "github.com/ypid/datalad/pkg/errors"
	"github.com/ypid/datalad/pkg/parallel"
)

const saveMaxTries = 3

// CreateService creates datasets in parallel and records every run.
type CreateService struct {
	cfg     config.Engine
	store   *store.Store
	creator *dataset.Creator
	log     *zap.SugaredLogger
}

func NewCreateService(cfg config.Engine, st *store.Store) *CreateService {
	return &CreateService{
		cfg:     cfg,
		store:   st,
		creator: dataset.NewCreator(dataset.WithForce(cfg.Force)),
		log:     zap.S().Named("create_service"),
	}
}

// Create creates a dataset for every path. Results are handed to emit in
// producer order as they become available; failed items are reported after
// the successful ones, as error results. The returned error is the aggregate
// failure of the run, if any.
func (s *CreateService) Create(ctx context.Context, paths iter.Seq2[string, error], emit func(models.Result)) (models.Run, error) {
	// bookkeeping outlives a cancelled run
	bg := context.WithoutCancel(ctx)

	run := models.NewRun(s.cfg.Jobs, s.cfg.Ordered)
	if err := s.retry(bg, func() error { return s.store.Runs().Create(bg, run) }); err != nil {
		return run, err
	}
	s.log.Infow("run started", "run", run.ID, "config", s.cfg)

	var (
		seq, failed int
		runErr      error
	)
	record := func(res models.Result) {
		if res.Status.Failed() {
			failed++
		}
		rr := models.RunResult{RunID: run.ID, Seq: seq, Result: res}
		seq++
		if err := s.retry(bg, func() error { return s.store.Results().Save(bg, rr) }); err != nil {
			s.log.Warnw("failed to save result", "run", run.ID, "path", res.Path, "error", err)
		}
		if emit != nil {
			emit(res)
		}
	}

	for res, err := range s.engine().Results(ctx, paths) {
		if err != nil {
			runErr = err
			break
		}
		record(res)
	}

	if agg, ok := srvErrors.AsIncompleteResultsError(runErr); ok {
		for _, f := range agg.Failures {
			record(failureResult(f))
		}
	}

	run.Finish(seq, failed)
	if runErr != nil {
		run.State = models.RunStateFailed
	}
	if err := s.retry(bg, func() error { return s.store.Runs().Finish(bg, run) }); err != nil {
		s.log.Warnw("failed to finish run", "run", run.ID, "error", err)
	}
	s.log.Infow("run finished", "run", run.ID, "state", run.State, "total", run.Total, "failed", run.Failed)

	return run, runErr
}

func (s *CreateService) engine() *parallel.ProducerConsumer[string, models.Result] {
	opts := []parallel.Option{
		parallel.WithJobs(s.cfg.Jobs),
		parallel.WithLookahead(s.cfg.Lookahead),
		parallel.WithProgress(func(p parallel.Progress) {
			s.log.Debugw("progress",
				"state", p.State.String(),
				"produced", p.Produced,
				"pending", p.Pending,
				"in_flight", p.InFlight,
				"completed", p.Completed,
				"failed", p.Failed,
			)
		}),
	}
	if s.cfg.Ordered {
		opts = append(opts, parallel.WithAdmission(parallel.Paths()))
	}
	if s.cfg.SkipDependents {
		opts = append(opts, parallel.WithSkipDependents(func(candidate, failed string) bool {
			return parallel.IsSubpath(candidate, failed)
		}))
	}
	if s.cfg.FailFast {
		opts = append(opts, parallel.WithFailFast())
	}
	return parallel.New(s.creator.Create, opts...)
}

func (s *CreateService) retry(ctx context.Context, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(saveMaxTries))
	return err
}

// failureResult renders a failed item the way dataset results are reported.
// Items that were never attempted are impossible, the rest are errors.
func failureResult(f srvErrors.ItemFailure) models.Result {
	status := models.StatusError
	if errors.Is(f.Err, srvErrors.ErrDependencyFailed) ||
		errors.Is(f.Err, srvErrors.ErrNotAdmissible) ||
		errors.Is(f.Err, srvErrors.ErrAbandoned) {
		status = models.StatusImpossible
	}
	return models.Result{
		Action:  models.ActionCreate,
		Path:    f.Name,
		Type:    models.TypeDataset,
		Status:  status,
		Message: f.Err.Error(),
		RefDS:   f.Name,
	}
}
