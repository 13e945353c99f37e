package parallel

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"
)

// Producer lazily yields the items of a run. An error ends intake and fails
// the run.
type Producer[T any] = iter.Seq2[T, error]

// Consumer processes a single item and yields zero or more result records.
// A non-nil error fails only that item.
type Consumer[T, R any] func(ctx context.Context, item T) iter.Seq2[R, error]

// State of a run.
type State int

const (
	StateRunning State = iota
	StateDraining
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Progress is a snapshot of a run's counters.
type Progress struct {
	State        State
	Produced     int
	Pending      int
	InFlight     int
	Completed    int
	Failed       int
	ProducerDone bool
}

// DefaultLookaheadFactor bounds the pending queue to this many items per job
// unless WithLookahead says otherwise.
const DefaultLookaheadFactor = 2

type options struct {
	jobs      int
	lookahead int
	failFast  bool
	progress  func(Progress)
	logger    *zap.SugaredLogger
	// typed per item, checked in New
	admission any
	dependsOn any
	name      any
}

// Option configures a ProducerConsumer.
type Option func(*options)

// WithJobs sets the number of concurrent workers. Values below 1 are raised to 1.
func WithJobs(n int) Option {
	return func(o *options) {
		o.jobs = max(n, 1)
	}
}

// WithLookahead caps how many produced items may wait in the pending queue.
func WithLookahead(n int) Option {
	return func(o *options) {
		o.lookahead = n
	}
}

// WithAdmission installs the predicate deciding whether an item may be dispatched.
func WithAdmission[T any](a Admission[T]) Option {
	return func(o *options) {
		o.admission = a
	}
}

// WithSkipDependents fails pending and later items depending on a failed item
// with ErrDependencyFailed instead of dispatching them.
func WithSkipDependents[T any](dependsOn func(candidate, failed T) bool) Option {
	return func(o *options) {
		o.dependsOn = dependsOn
	}
}

// WithFailFast stops intake on the first consumer failure, as if the producer had failed.
func WithFailFast() Option {
	return func(o *options) {
		o.failFast = true
	}
}

// WithProgress registers a callback invoked from the driver on every change.
// It must not block.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithLogger replaces the engine's default zap.S().Named("parallel") logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithItemName sets how items are named in logs and failures. Defaults to fmt.Sprint.
func WithItemName[T any](name func(T) string) Option {
	return func(o *options) {
		o.name = name
	}
}
