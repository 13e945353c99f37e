package store

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ypid/datalad/internal/models"
	srvErrors "github.com/ypid/datalad/pkg/errors"
)

type RunStore struct {
	db QueryInterceptor
}

func NewRunStore(db QueryInterceptor) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Create(ctx context.Context, run models.Run) error {
	_, err := s.db.ExecContext(ctx, queryInsertRun,
		run.ID.String(), run.StartedAt, run.Jobs, run.Ordered, string(run.State))
	return err
}

// Finish stores the outcome of a run. It fails with ResourceNotFoundError for
// an unknown run.
func (s *RunStore) Finish(ctx context.Context, run models.Run) error {
	var finishedAt sql.NullTime
	if run.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: *run.FinishedAt, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, queryFinishRun,
		finishedAt, string(run.State), run.Total, run.Failed, run.ID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return srvErrors.NewRunNotFoundError(run.ID.String())
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	query, args, err := sq.Select(runColumns...).
		From("runs").
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewRunNotFoundError(id.String())
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns runs, most recent first.
func (s *RunStore) List(ctx context.Context, opts ...ListOption) ([]models.Run, error) {
	builder := apply(sq.Select(runColumns...).From("runs"), opts).
		OrderBy("started_at DESC", "id")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run        models.Run
		id         string
		state      string
		finishedAt sql.NullTime
	)
	err := row.Scan(
		&id,
		&run.StartedAt,
		&finishedAt,
		&run.Jobs,
		&run.Ordered,
		&state,
		&run.Total,
		&run.Failed,
	)
	if err != nil {
		return nil, err
	}

	run.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	run.State = models.RunState(state)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
