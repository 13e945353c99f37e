package parallel

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"go.uber.org/zap"

	srvErrors "github.com/ypid/datalad/pkg/errors"
)

// ProducerConsumer runs items through a bounded pool of workers. It is
// stateless between runs and may be used for several runs concurrently.
type ProducerConsumer[T, R any] struct {
	consume   Consumer[T, R]
	jobs      int
	lookahead int
	failFast  bool
	admission Admission[T]
	dependsOn func(candidate, failed T) bool
	name      func(T) string
	progress  func(Progress)
	log       *zap.SugaredLogger
}

// New creates a ProducerConsumer. It panics when an option was built for a
// different item type than T.
func New[T, R any](consume Consumer[T, R], opts ...Option) *ProducerConsumer[T, R] {
	o := options{jobs: 1}
	for _, opt := range opts {
		opt(&o)
	}

	pc := &ProducerConsumer[T, R]{
		consume:   consume,
		jobs:      o.jobs,
		lookahead: o.lookahead,
		failFast:  o.failFast,
		admission: Unconstrained[T](),
		name:      func(item T) string { return fmt.Sprint(item) },
		progress:  o.progress,
		log:       o.logger,
	}
	if pc.lookahead < 1 {
		pc.lookahead = DefaultLookaheadFactor * pc.jobs
	}
	if pc.log == nil {
		pc.log = zap.S().Named("parallel")
	}
	if o.admission != nil {
		pc.admission = mustBe[Admission[T]]("WithAdmission", o.admission)
	}
	if o.dependsOn != nil {
		pc.dependsOn = mustBe[func(T, T) bool]("WithSkipDependents", o.dependsOn)
	}
	if o.name != nil {
		pc.name = mustBe[func(T) string]("WithItemName", o.name)
	}
	return pc
}

func mustBe[V any](option string, v any) V {
	typed, ok := v.(V)
	if !ok {
		panic(fmt.Sprintf("parallel: %s option does not match the item type (got %T)", option, v))
	}
	return typed
}

// Results returns the lazy output of a run over produce. Records are yielded
// in producer order of their items. If any item or the producer failed, the
// last element is a zero record with an *errors.IncompleteResultsError.
//
// Breaking out of the loop stops intake; the iterator returns once the items
// already dispatched have finished.
func (pc *ProducerConsumer[T, R]) Results(ctx context.Context, produce Producer[T]) iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		r := pc.newRun(ctx, produce)
		defer r.shutdown()

		if !r.loop(yield) {
			return
		}
		if err := r.err(); err != nil {
			var zero R
			yield(zero, err)
		}
	}
}

// Run collects every record of a run.
func (pc *ProducerConsumer[T, R]) Run(ctx context.Context, produce Producer[T]) ([]R, error) {
	var out []R
	for r, err := range pc.Results(ctx, produce) {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

type entry[T any] struct {
	idx  int
	item T
}

type slot[R any] struct {
	records []R
	done    bool
}

type event[R any] struct {
	idx    int
	record R
	final  bool
	err    error
}

type produced[T any] struct {
	item T
	err  error
}

type worker[T, R any] struct {
	consume Consumer[T, R]
	events  chan<- event[R]
	wg      *sync.WaitGroup
}

func (w worker[T, R]) Work(ctx context.Context, e entry[T]) {
	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("worker panicked: %v", rec)
		}
		w.events <- event[R]{idx: e.idx, final: true, err: err}
		w.wg.Done()
	}()

	for record, cerr := range w.consume(ctx, e.item) {
		if cerr != nil {
			err = cerr
			return
		}
		w.events <- event[R]{idx: e.idx, record: record}
	}
}

// run is the driver of a single execution. All fields are owned by the
// goroutine iterating Results; workers and the producer only talk to it
// through channels.
type run[T, R any] struct {
	pc  *ProducerConsumer[T, R]
	ctx context.Context

	workers  *queue[worker[T, R]]
	pending  *queue[entry[T]]
	inFlight []entry[T]
	slots    map[int]*slot[R]
	next     int

	intake   <-chan produced[T]
	stop     chan struct{}
	stopOnce sync.Once
	events   chan event[R]
	wg       sync.WaitGroup

	state     State
	produced  int
	completed int
	cause     error
	failures  []srvErrors.ItemFailure
	failed    []T
}

func (pc *ProducerConsumer[T, R]) newRun(ctx context.Context, produce Producer[T]) *run[T, R] {
	r := &run[T, R]{
		pc:      pc,
		ctx:     ctx,
		workers: &queue[worker[T, R]]{},
		pending: &queue[entry[T]]{},
		slots:   make(map[int]*slot[R]),
		stop:    make(chan struct{}),
		events:  make(chan event[R], pc.jobs),
		state:   StateRunning,
	}
	for range pc.jobs {
		r.workers.Push(r.newWorker())
	}
	r.intake = r.startProducer(produce)
	pc.log.Debugw("run started", "jobs", pc.jobs, "lookahead", pc.lookahead)
	return r
}

func (r *run[T, R]) newWorker() worker[T, R] {
	return worker[T, R]{consume: r.pc.consume, events: r.events, wg: &r.wg}
}

func (r *run[T, R]) startProducer(produce Producer[T]) <-chan produced[T] {
	c := make(chan produced[T])
	go func() {
		defer close(c)
		defer func() {
			if rec := recover(); rec != nil {
				select {
				case c <- produced[T]{err: fmt.Errorf("producer panicked: %v", rec)}:
				case <-r.stop:
				}
			}
		}()

		for item, err := range produce {
			select {
			case c <- produced[T]{item: item, err: err}:
			case <-r.stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return c
}

func (r *run[T, R]) loop(yield func(R, error) bool) bool {
	for {
		r.dispatch()
		if !r.release(yield) {
			return false
		}
		if r.intake == nil && r.pending.Len() == 0 && len(r.inFlight) == 0 {
			r.finish()
			return true
		}
		r.wait()
	}
}

// wait blocks until the producer yields or a worker reports. The producer
// is not read while the pending queue is at its look-ahead bound.
func (r *run[T, R]) wait() {
	var intake <-chan produced[T]
	if r.intake != nil && r.pending.Len() < r.pc.lookahead {
		intake = r.intake
	}

	select {
	case p, ok := <-intake:
		switch {
		case !ok:
			r.closeIntake()
		case p.err != nil:
			r.pc.log.Errorw("producer failed", "error", p.err)
			r.halt(srvErrors.NewProducerError(p.err))
		default:
			r.accept(p.item)
		}
	case ev := <-r.events:
		r.handle(ev)
	}
}

func (r *run[T, R]) accept(item T) {
	e := entry[T]{idx: r.produced, item: item}
	r.produced++
	r.slots[e.idx] = &slot[R]{}

	if failed, ok := r.dependencyFailed(item); ok {
		r.complete(e, fmt.Errorf("%w: %s", srvErrors.ErrDependencyFailed, r.pc.name(failed)))
		return
	}
	r.pending.Push(e)
	r.report()
}

// dispatch hands admissible pending items to idle workers. The whole pending
// queue is scanned so a blocked item does not hold back unrelated ones.
func (r *run[T, R]) dispatch() {
	for r.workers.Len() > 0 && r.pending.Len() > 0 {
		i := r.admissible()
		if i < 0 {
			if len(r.inFlight) > 0 || (r.intake != nil && r.pending.Len() < r.pc.lookahead) {
				return
			}
			// nothing in flight can change the predicate's answer
			r.complete(r.pending.Pop(), srvErrors.ErrNotAdmissible)
			continue
		}

		e := r.pending.Remove(i)
		w := r.workers.Pop()
		r.inFlight = append(r.inFlight, e)
		r.wg.Add(1)
		r.pc.log.Debugw("dispatching", "item", r.pc.name(e.item), "in_flight", len(r.inFlight))
		go w.Work(r.ctx, e)
		r.report()
	}
}

func (r *run[T, R]) admissible() int {
	snapshot := make([]T, len(r.inFlight))
	for i, e := range r.inFlight {
		snapshot[i] = e.item
	}
	for i := range r.pending.Len() {
		if r.pc.admission.Admissible(r.pending.At(i).item, snapshot) {
			return i
		}
	}
	return -1
}

func (r *run[T, R]) handle(ev event[R]) {
	if !ev.final {
		s := r.slots[ev.idx]
		s.records = append(s.records, ev.record)
		return
	}

	i := slices.IndexFunc(r.inFlight, func(e entry[T]) bool { return e.idx == ev.idx })
	e := r.inFlight[i]
	r.inFlight = slices.Delete(r.inFlight, i, i+1)
	r.workers.Push(r.newWorker())
	r.complete(e, ev.err)
}

func (r *run[T, R]) complete(e entry[T], err error) {
	r.slots[e.idx].done = true
	r.completed++

	if err == nil {
		r.pc.log.Debugw("completed", "item", r.pc.name(e.item))
		r.report()
		return
	}

	r.pc.log.Warnw("item failed", "item", r.pc.name(e.item), "error", err)
	r.failures = append(r.failures, srvErrors.ItemFailure{
		Index: e.idx,
		Item:  e.item,
		Name:  r.pc.name(e.item),
		Err:   err,
	})
	r.failed = append(r.failed, e.item)

	if r.pc.failFast && r.state != StateFailed {
		r.halt(nil)
	}
	r.skipDependents(e.item)
	r.report()
}

func (r *run[T, R]) dependencyFailed(item T) (T, bool) {
	var zero T
	if r.pc.dependsOn == nil {
		return zero, false
	}
	for _, f := range r.failed {
		if r.pc.dependsOn(item, f) {
			return f, true
		}
	}
	return zero, false
}

func (r *run[T, R]) skipDependents(failed T) {
	if r.pc.dependsOn == nil {
		return
	}
	for i := 0; i < r.pending.Len(); {
		e := r.pending.At(i)
		if !r.pc.dependsOn(e.item, failed) {
			i++
			continue
		}
		r.pending.Remove(i)
		r.complete(e, fmt.Errorf("%w: %s", srvErrors.ErrDependencyFailed, r.pc.name(failed)))
	}
}

// halt stops intake for good. Pending items are not dispatched and fail with
// ErrAbandoned; work in flight is left to finish.
func (r *run[T, R]) halt(cause error) {
	r.state = StateFailed
	if cause != nil && r.cause == nil {
		r.cause = cause
	}
	r.stopIntake()

	abandoned := r.pending.Drain()
	for _, e := range abandoned {
		r.slots[e.idx].done = true
		r.completed++
		r.failures = append(r.failures, srvErrors.ItemFailure{
			Index: e.idx,
			Item:  e.item,
			Name:  r.pc.name(e.item),
			Err:   srvErrors.ErrAbandoned,
		})
	}
	if len(abandoned) > 0 {
		r.pc.log.Infow("abandoned pending items", "count", len(abandoned))
	}
	r.report()
}

func (r *run[T, R]) closeIntake() {
	r.intake = nil
	if r.state == StateRunning {
		r.state = StateDraining
	}
	r.pc.log.Debugw("producer exhausted", "produced", r.produced)
	r.report()
}

func (r *run[T, R]) stopIntake() {
	r.intake = nil
	r.stopOnce.Do(func() { close(r.stop) })
}

// release yields buffered records in producer order. Records of the oldest
// unreleased item are streamed while it is still being consumed.
func (r *run[T, R]) release(yield func(R, error) bool) bool {
	for {
		s, ok := r.slots[r.next]
		if !ok {
			return true
		}
		for _, record := range s.records {
			if !yield(record, nil) {
				return false
			}
		}
		s.records = nil
		if !s.done {
			return true
		}
		delete(r.slots, r.next)
		r.next++
	}
}

func (r *run[T, R]) finish() {
	if r.cause != nil || len(r.failures) > 0 {
		r.state = StateFailed
	} else {
		r.state = StateDone
	}
	r.pc.log.Infow("run finished",
		"state", r.state.String(),
		"produced", r.produced,
		"failed", len(r.failures))
	r.report()
}

func (r *run[T, R]) err() error {
	if r.cause == nil && len(r.failures) == 0 {
		return nil
	}
	failures := slices.Clone(r.failures)
	slices.SortFunc(failures, func(a, b srvErrors.ItemFailure) int { return a.Index - b.Index })
	return srvErrors.NewIncompleteResultsError(r.cause, failures)
}

// shutdown stops intake and waits for dispatched work, discarding its output.
func (r *run[T, R]) shutdown() {
	r.stopIntake()
	for len(r.inFlight) > 0 {
		ev := <-r.events
		if !ev.final {
			continue
		}
		r.inFlight = slices.DeleteFunc(r.inFlight, func(e entry[T]) bool { return e.idx == ev.idx })
	}
	r.wg.Wait()
}

func (r *run[T, R]) report() {
	if r.pc.progress == nil {
		return
	}
	r.pc.progress(Progress{
		State:        r.state,
		Produced:     r.produced,
		Pending:      r.pending.Len(),
		InFlight:     len(r.inFlight),
		Completed:    r.completed,
		Failed:       len(r.failures),
		ProducerDone: r.intake == nil,
	})
}
