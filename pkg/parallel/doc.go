// Package parallel implements a bounded producer/consumer engine that runs a
// lazily produced stream of items through a pool of workers while honoring
// ordering constraints between items.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                        ProducerConsumer run                         │
//	│                                                                     │
//	│  ┌──────────────┐   produced    ┌──────────────────────────────┐    │
//	│  │   producer   │ ────────────► │         driver loop          │    │
//	│  │  goroutine   │  (unbuffered) │  pending ─► admission gate   │    │
//	│  └──────────────┘               │  in-flight registry          │    │
//	│                                 │  result slots (by index)     │    │
//	│                                 └──────┬────────────────▲──────┘    │
//	│                             dispatch() │                │ events    │
//	│                                        ▼                │           │
//	│         ┌──────────────┐      ┌──────────────┐      ┌───┴──────────┐│
//	│         │   Worker 1   │      │   Worker 2   │      │   Worker N   ││
//	│         └──────────────┘      └──────────────┘      └──────────────┘│
//	│                                                                     │
//	│  release() ──► yield(record, nil) ... yield(zero, aggregate error)  │
//	└─────────────────────────────────────────────────────────────────────┘
//
// The driver runs on the goroutine iterating Results. It alone owns the
// pending queue, the in-flight registry and the result slots, so admission
// decisions need no locking. Workers and the producer talk to it through
// channels.
//
// # Contracts
//
//	produce   iter.Seq2[T, error]                       may fail: fatal to the run
//	consume   func(ctx, T) iter.Seq2[R, error]          may fail: only that item fails
//	admission Admissible(candidate T, inFlight []T) bool pure, called often
//
// # Driver Loop
//
//	for {
//	    dispatch()   // fill idle workers with the first admissible pending items
//	    release()    // yield records of finished items in producer order
//	    if intake closed && no pending && nothing in flight {
//	        finish()
//	    }
//	    select {
//	    case item := <-producer:  // only while len(pending) < lookahead
//	    case ev := <-events:      // a record, or completion of an item
//	    }
//	}
//
// dispatch scans the whole pending queue rather than its head, so a child
// waiting for its parent does not hold back an unrelated subtree.
//
// # Run States
//
//	┌─────────┐  producer exhausted  ┌──────────┐  no failures   ┌──────┐
//	│ Running │ ───────────────────► │ Draining │ ─────────────► │ Done │
//	└────┬────┘                      └────┬─────┘                └──────┘
//	     │ producer failure               │ failures recorded
//	     │ (or first failure, fail-fast)  ▼
//	     │                           ┌────────┐
//	     └─────────────────────────► │ Failed │
//	                                 └────────┘
//
// On a producer failure intake stops at once and pending items fail with
// errors.ErrAbandoned. Items already dispatched are never cancelled: they run
// to completion and their records are still released.
//
// # Ordering
//
// Each item gets an index on arrival. Records of item k are released after
// all records of items 0..k-1, whatever order the workers finish in. Records
// of the oldest unreleased item stream out while it is still running. With
// WithJobs(1) a run is equivalent to a sequential loop over the items.
//
// # Look-ahead
//
// The producer is only read while the pending queue holds fewer than
// lookahead items (DefaultLookaheadFactor × jobs unless WithLookahead is
// given). When the queue is full, nothing is in flight and no pending item
// is admissible, the head item fails with errors.ErrNotAdmissible so the run
// cannot stall.
//
// The bound covers items waiting for dispatch, not finished ones. Records of
// completed items stay buffered until every earlier item has released, so a
// single slow head item lets up to one record set per later item accumulate.
// Consumers yielding large records behind a slow item should keep jobs small
// or release large payloads elsewhere.
//
// # Failures
//
// Consumer errors and panics are recorded per item and scheduling goes on.
// With WithSkipDependents, pending and later items that depend on a failed
// item fail with errors.ErrDependencyFailed without being dispatched. The
// last element of the output is an *errors.IncompleteResultsError listing
// every failed item, preceded by the producer error if there was one.
//
// # Usage Example
//
//	pc := parallel.New(creator.Create,
//	    parallel.WithJobs(8),
//	    parallel.WithAdmission(parallel.Paths()),
//	)
//
//	for res, err := range pc.Results(ctx, paths) {
//	    if err != nil {
//	        // aggregate failure, always the last element
//	        return err
//	    }
//	    fmt.Println(res)
//	}
package parallel
