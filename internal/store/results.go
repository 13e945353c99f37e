package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ypid/datalad/internal/models"
)

type ResultStore struct {
	db QueryInterceptor
}

func NewResultStore(db QueryInterceptor) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Save(ctx context.Context, r models.RunResult) error {
	_, err := s.db.ExecContext(ctx, queryInsertResult,
		r.RunID.String(),
		r.Seq,
		r.Path,
		r.Action,
		r.Type,
		string(r.Status),
		r.Message,
		r.RefDS,
	)
	return err
}

// List returns results in output order.
func (s *ResultStore) List(ctx context.Context, opts ...ListOption) ([]models.RunResult, error) {
	builder := apply(sq.Select(resultColumns...).From("results"), opts).
		OrderBy("run_id", "seq")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.RunResult
	for rows.Next() {
		var (
			r      models.RunResult
			runID  string
			status string
		)
		err := rows.Scan(
			&runID,
			&r.Seq,
			&r.Path,
			&r.Action,
			&r.Type,
			&status,
			&r.Message,
			&r.RefDS,
		)
		if err != nil {
			return nil, err
		}
		if r.RunID, err = uuid.Parse(runID); err != nil {
			return nil, err
		}
		r.Status = models.ResultStatus(status)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *ResultStore) Count(ctx context.Context, opts ...ListOption) (int, error) {
	query, args, err := apply(sq.Select("COUNT(*)").From("results"), opts).ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}
