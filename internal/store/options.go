package store

import (
	sq "github.com/Masterminds/squirrel"
)

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByRun(runID string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{"run_id": runID})
	}
}

func ByStatus(statuses ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(statuses) == 0 {
			return b
		}
		return b.Where(sq.Eq{"status": statuses})
	}
}

func ByState(states ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(states) == 0 {
			return b
		}
		return b.Where(sq.Eq{"state": states})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

func apply(b sq.SelectBuilder, opts []ListOption) sq.SelectBuilder {
	for _, opt := range opts {
		b = opt(b)
	}
	return b
}
