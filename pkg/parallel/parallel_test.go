package parallel_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/ypid/datalad/pkg/errors"
	"github.com/ypid/datalad/pkg/parallel"
	"github.com/ypid/datalad/test"
)

type record struct {
	I      int
	Status string
}

func statusOf(i int) string {
	if i%2 == 1 {
		return "ok"
	}
	return "error"
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

var _ = Describe("ProducerConsumer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Ordering", func() {
		// Given a producer slower than nothing and a consumer sleeping per item
		// When ten items run on ten workers
		// Then all run concurrently but the records come out in index order
		It("should emit records in producer order with all items consumed concurrently", func() {
			consume := func(ctx context.Context, i int) iter.Seq2[record, error] {
				return func(yield func(record, error) bool) {
					time.Sleep(200 * time.Millisecond)
					yield(record{I: i, Status: statusOf(i)}, nil)
				}
			}

			start := time.Now()
			out, err := parallel.New(consume, parallel.WithJobs(10)).Run(ctx, test.Items(seq(10)...))
			elapsed := time.Since(start)

			Expect(err).NotTo(HaveOccurred())
			expected := make([]record, 0, 10)
			for i := range 10 {
				expected = append(expected, record{I: i, Status: statusOf(i)})
			}
			Expect(out).To(Equal(expected))
			Expect(elapsed).To(BeNumerically("<", time.Second))
		})

		It("should keep producer order when later items finish first", func() {
			rec := &test.Recorder[int]{
				DelayOf: func(i int) time.Duration { return time.Duration((40-i)%7) * 10 * time.Millisecond },
			}

			out, err := parallel.New(rec.Consume, parallel.WithJobs(8)).Run(ctx, test.Items(seq(40)...))

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(seq(40)))
		})

		It("should keep all records of an item together and in order", func() {
			consume := func(ctx context.Context, i int) iter.Seq2[string, error] {
				return func(yield func(string, error) bool) {
					for k := range 3 {
						time.Sleep(time.Duration(10-i) * time.Millisecond)
						if !yield(fmt.Sprintf("%d.%d", i, k), nil) {
							return
						}
					}
				}
			}

			out, err := parallel.New(consume, parallel.WithJobs(4)).Run(ctx, test.Items(seq(6)...))

			Expect(err).NotTo(HaveOccurred())
			var expected []string
			for i := range 6 {
				for k := range 3 {
					expected = append(expected, fmt.Sprintf("%d.%d", i, k))
				}
			}
			Expect(out).To(Equal(expected))
		})

		It("should allow items without records", func() {
			consume := func(ctx context.Context, i int) iter.Seq2[int, error] {
				return func(yield func(int, error) bool) {
					if i%3 == 0 {
						return
					}
					yield(i, nil)
				}
			}

			out, err := parallel.New(consume, parallel.WithJobs(3)).Run(ctx, test.Items(seq(7)...))

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{1, 2, 4, 5}))
		})

		It("should match a sequential fold when running on one worker", func() {
			fold := func(items []int) []int {
				var out []int
				for _, i := range items {
					out = append(out, i, i*10)
				}
				return out
			}
			rec := &test.Recorder[int]{Repeat: 2}
			consume := func(ctx context.Context, i int) iter.Seq2[int, error] {
				return func(yield func(int, error) bool) {
					k := 0
					for v := range rec.Consume(ctx, i) {
						if !yield(v*max(k*10, 1), nil) {
							return
						}
						k++
					}
				}
			}

			out, err := parallel.New(consume, parallel.WithJobs(1)).Run(ctx, test.Items(seq(12)...))

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(fold(seq(12))))
			Expect(rec.Started()).To(Equal(seq(12)))
			Expect(rec.MaxActive()).To(Equal(1))
		})

		It("should return nothing for an empty producer", func() {
			rec := &test.Recorder[int]{}

			out, err := parallel.New(rec.Consume, parallel.WithJobs(3)).Run(ctx, test.Items[int]())

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeEmpty())
		})
	})

	Describe("Bounded concurrency", func() {
		DescribeTable("should never run more than jobs items at once",
			func(jobs int) {
				rec := &test.Recorder[int]{Delay: 20 * time.Millisecond}

				out, err := parallel.New(rec.Consume, parallel.WithJobs(jobs)).Run(ctx, test.Items(seq(30)...))

				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(HaveLen(30))
				Expect(rec.MaxActive()).To(BeNumerically("<=", jobs))
				Expect(rec.MaxActive()).To(BeNumerically(">", jobs/2))
			},
			Entry("one job", 1),
			Entry("three jobs", 3),
			Entry("ten jobs", 10),
		)

		It("should treat jobs below one as one", func() {
			rec := &test.Recorder[int]{Delay: 5 * time.Millisecond}

			_, err := parallel.New(rec.Consume, parallel.WithJobs(0)).Run(ctx, test.Items(seq(5)...))

			Expect(err).NotTo(HaveOccurred())
			Expect(rec.MaxActive()).To(Equal(1))
		})
	})

	Describe("Admission", func() {
		// Given a tree of paths listed parents first
		// When consumed with the parent check and plenty of workers
		// Then no child overlaps its parent while siblings run together
		It("should never dispatch a child while its parent is in flight", func() {
			var paths []string
			for i := range 5 {
				top := fmt.Sprintf("ds%d", i)
				paths = append(paths, top)
				for k := range 2 {
					paths = append(paths, fmt.Sprintf("%s/sub%d", top, k))
				}
			}
			rec := &test.Recorder[string]{Delay: 100 * time.Millisecond}

			start := time.Now()
			out, err := parallel.New(rec.Consume,
				parallel.WithJobs(20),
				parallel.WithAdmission(parallel.Paths()),
			).Run(ctx, test.Items(paths...))
			elapsed := time.Since(start)

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(paths))
			for i := range 5 {
				top := fmt.Sprintf("ds%d", i)
				for k := range 2 {
					Expect(rec.Overlapped(top, fmt.Sprintf("%s/sub%d", top, k))).To(BeFalse())
				}
			}
			Expect(rec.Overlapped("ds0", "ds1")).To(BeTrue())
			Expect(rec.Overlapped("ds0/sub0", "ds0/sub1")).To(BeTrue())
			// two levels deep, not fifteen items long
			Expect(elapsed).To(BeNumerically("<", 600*time.Millisecond))
		})

		It("should dispatch later items past a blocked one", func() {
			rec := &test.Recorder[string]{Delay: 100 * time.Millisecond}

			out, err := parallel.New(rec.Consume,
				parallel.WithJobs(2),
				parallel.WithAdmission(parallel.Paths()),
			).Run(ctx, test.Items("a", "a/b", "c"))

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]string{"a", "a/b", "c"}))
			started := rec.Started()
			Expect(started).To(HaveLen(3))
			Expect(started[:2]).To(ConsistOf("a", "c"))
			Expect(started[2]).To(Equal("a/b"))
			Expect(rec.Overlapped("a", "c")).To(BeTrue())
			Expect(rec.Overlapped("a", "a/b")).To(BeFalse())
		})

		It("should run bottom-up with the subpath check", func() {
			rec := &test.Recorder[string]{Delay: 50 * time.Millisecond}

			_, err := parallel.New(rec.Consume,
				parallel.WithJobs(4),
				parallel.WithAdmission(parallel.NoSubpathInFlight(func(p string) string { return p })),
			).Run(ctx, test.Items("a/b/c", "a/b", "a", "x"))

			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Overlapped("a/b/c", "a/b")).To(BeFalse())
			Expect(rec.Overlapped("a/b", "a")).To(BeFalse())
			Expect(rec.Overlapped("a/b/c", "x")).To(BeTrue())
		})

		It("should fail items that can never be admitted", func() {
			rec := &test.Recorder[int]{}
			never := parallel.AdmissionFunc[int](func(int, []int) bool { return false })

			out, err := parallel.New(rec.Consume,
				parallel.WithJobs(2),
				parallel.WithAdmission[int](never),
			).Run(ctx, test.Items(seq(5)...))

			Expect(out).To(BeEmpty())
			Expect(rec.Started()).To(BeEmpty())
			aggr, ok := srvErrors.AsIncompleteResultsError(err)
			Expect(ok).To(BeTrue())
			Expect(aggr.Failures).To(HaveLen(5))
			Expect(errors.Is(err, srvErrors.ErrNotAdmissible)).To(BeTrue())
		})

		It("should panic when the admission is built for another item type", func() {
			rec := &test.Recorder[int]{}
			Expect(func() {
				parallel.New(rec.Consume, parallel.WithAdmission(parallel.Paths()))
			}).To(Panic())
		})
	})

	Describe("Consumer failures", func() {
		// Given one item whose consumer fails
		// When the run completes
		// Then every other item still yields and the aggregate names only that item
		It("should isolate a single failing item", func() {
			boom := errors.New("boom")
			rec := &test.Recorder[int]{Delay: 10 * time.Millisecond, Fail: map[int]error{3: boom}}

			out, err := parallel.New(rec.Consume, parallel.WithJobs(4)).Run(ctx, test.Items(seq(8)...))

			Expect(out).To(Equal([]int{0, 1, 2, 4, 5, 6, 7}))
			Expect(srvErrors.IsIncompleteResultsError(err)).To(BeTrue())
			aggr, _ := srvErrors.AsIncompleteResultsError(err)
			Expect(aggr.Cause).To(BeNil())
			Expect(aggr.Failed()).To(Equal([]string{"3"}))
			Expect(aggr.Failures[0].Index).To(Equal(3))
			Expect(errors.Is(err, boom)).To(BeTrue())
		})

		It("should yield the aggregate failure as the last element", func() {
			rec := &test.Recorder[int]{Fail: map[int]error{0: errors.New("first")}}

			var got []int
			var final error
			for v, err := range parallel.New(rec.Consume, parallel.WithJobs(2)).Results(ctx, test.Items(seq(4)...)) {
				Expect(final).To(BeNil(), "nothing may follow the aggregate failure")
				if err != nil {
					final = err
					continue
				}
				got = append(got, v)
			}

			Expect(got).To(Equal([]int{1, 2, 3}))
			Expect(final).To(HaveOccurred())
		})

		It("should report every failed item in producer order", func() {
			rec := &test.Recorder[int]{
				DelayOf: func(i int) time.Duration { return time.Duration(10-i) * 5 * time.Millisecond },
				Fail:    map[int]error{1: errors.New("one"), 4: errors.New("four"), 7: errors.New("seven")},
			}

			_, err := parallel.New(rec.Consume, parallel.WithJobs(5)).Run(ctx, test.Items(seq(9)...))

			aggr, ok := srvErrors.AsIncompleteResultsError(err)
			Expect(ok).To(BeTrue())
			Expect(aggr.Failed()).To(Equal([]string{"1", "4", "7"}))
			Expect(err.Error()).To(ContainSubstring("3 item(s) failed"))
		})

		It("should turn a consumer panic into a failure", func() {
			rec := &test.Recorder[int]{Panic: map[int]bool{2: true}}

			out, err := parallel.New(rec.Consume, parallel.WithJobs(2)).Run(ctx, test.Items(seq(4)...))

			Expect(out).To(Equal([]int{0, 1, 3}))
			Expect(err).To(MatchError(ContainSubstring("worker panicked")))
		})

		It("should skip dependents of a failed item when asked to", func() {
			rec := &test.Recorder[string]{
				Delay: 20 * time.Millisecond,
				Fail:  map[string]error{"a": errors.New("cannot create")},
			}

			out, err := parallel.New(rec.Consume,
				parallel.WithJobs(4),
				parallel.WithAdmission(parallel.Paths()),
				parallel.WithSkipDependents(func(candidate, failed string) bool {
					return parallel.IsSubpath(candidate, failed)
				}),
			).Run(ctx, test.Items("a", "a/b", "c", "a/b/c"))

			Expect(out).To(Equal([]string{"c"}))
			Expect(rec.Started()).To(ConsistOf("a", "c"))
			aggr, ok := srvErrors.AsIncompleteResultsError(err)
			Expect(ok).To(BeTrue())
			Expect(aggr.Failed()).To(Equal([]string{"a", "a/b", "a/b/c"}))
			Expect(errors.Is(aggr.Failures[1], srvErrors.ErrDependencyFailed)).To(BeTrue())
		})

		It("should attempt dependents of a failed item by default", func() {
			rec := &test.Recorder[string]{Fail: map[string]error{"a": errors.New("cannot create")}}

			out, err := parallel.New(rec.Consume,
				parallel.WithJobs(2),
				parallel.WithAdmission(parallel.Paths()),
			).Run(ctx, test.Items("a", "a/b"))

			Expect(err).To(HaveOccurred())
			Expect(out).To(Equal([]string{"a/b"}))
			Expect(rec.Started()).To(Equal([]string{"a", "a/b"}))
		})

		It("should stop intake on the first failure when failing fast", func() {
			rec := &test.Recorder[int]{Delay: 20 * time.Millisecond, Fail: map[int]error{0: errors.New("first")}}

			out, err := parallel.New(rec.Consume,
				parallel.WithJobs(1),
				parallel.WithLookahead(1),
				parallel.WithFailFast(),
			).Run(ctx, test.SlowProducer(20, 5*time.Millisecond))

			Expect(err).To(HaveOccurred())
			Expect(len(out)).To(BeNumerically("<=", 1))
			Expect(len(rec.Started())).To(BeNumerically("<=", 2))
		})
	})

	Describe("Producer failures", func() {
		// Given a producer failing after three items
		// When the run consumes it
		// Then only those three items are processed and the producer error leads the aggregate
		It("should fail the run after at most the produced items", func() {
			broken := errors.New("listing broke")
			producer := &test.FailingProducer[int]{Items: []int{0, 1, 2}, Err: broken}
			rec := &test.Recorder[int]{Delay: 50 * time.Millisecond}

			out, err := parallel.New(rec.Consume, parallel.WithJobs(2)).Run(ctx, producer.Seq())

			Expect(srvErrors.IsProducerError(err)).To(BeTrue())
			Expect(errors.Is(err, broken)).To(BeTrue())
			Expect(producer.Pulled()).To(Equal(3))
			Expect(len(rec.Started())).To(BeNumerically("<=", 3))
			Expect(rec.Started()).To(ContainElements(out))
		})

		It("should let dispatched items finish and release their records", func() {
			producer := &test.FailingProducer[int]{Items: []int{0, 1}, Err: errors.New("broken")}
			rec := &test.Recorder[int]{Delay: 100 * time.Millisecond}

			out, err := parallel.New(rec.Consume, parallel.WithJobs(4)).Run(ctx, producer.Seq())

			Expect(err).To(HaveOccurred())
			Expect(out).To(Equal([]int{0, 1}))
			Expect(rec.Active()).To(Equal(0))
		})

		It("should report consumer failures gathered before the producer broke", func() {
			producer := &test.FailingProducer[int]{Items: []int{0, 1}, Err: errors.New("broken")}
			rec := &test.Recorder[int]{Fail: map[int]error{0: errors.New("bad item")}}

			_, err := parallel.New(rec.Consume, parallel.WithJobs(2)).Run(ctx, producer.Seq())

			aggr, ok := srvErrors.AsIncompleteResultsError(err)
			Expect(ok).To(BeTrue())
			Expect(srvErrors.IsProducerError(aggr.Cause)).To(BeTrue())
			Expect(aggr.Failed()).To(ContainElement("0"))
		})

		// Given a single worker busy with the first item and four more items queued
		// When the producer breaks
		// Then the queued items are reported as abandoned failures
		It("should report pending items abandoned by a producer failure", func() {
			producer := &test.FailingProducer[int]{Items: seq(5), Err: errors.New("boom")}
			rec := &test.Recorder[int]{Delay: 100 * time.Millisecond}

			out, err := parallel.New(rec.Consume,
				parallel.WithJobs(1),
				parallel.WithLookahead(10),
			).Run(ctx, producer.Seq())

			Expect(out).To(Equal([]int{0}))
			aggr, ok := srvErrors.AsIncompleteResultsError(err)
			Expect(ok).To(BeTrue())
			Expect(srvErrors.IsProducerError(aggr.Cause)).To(BeTrue())
			Expect(aggr.Failed()).To(Equal([]string{"1", "2", "3", "4"}))
			for _, f := range aggr.Failures {
				Expect(errors.Is(f, srvErrors.ErrAbandoned)).To(BeTrue())
			}
			Expect(rec.Started()).To(Equal([]int{0}))
		})

		It("should report pending items abandoned when failing fast", func() {
			rec := &test.Recorder[int]{Delay: 50 * time.Millisecond, Fail: map[int]error{0: errors.New("first")}}

			_, err := parallel.New(rec.Consume,
				parallel.WithJobs(1),
				parallel.WithLookahead(10),
				parallel.WithFailFast(),
			).Run(ctx, test.Items(seq(4)...))

			aggr, ok := srvErrors.AsIncompleteResultsError(err)
			Expect(ok).To(BeTrue())
			Expect(aggr.Failed()).To(Equal([]string{"0", "1", "2", "3"}))
			Expect(errors.Is(aggr.Failures[0], srvErrors.ErrAbandoned)).To(BeFalse())
			for _, f := range aggr.Failures[1:] {
				Expect(errors.Is(f, srvErrors.ErrAbandoned)).To(BeTrue())
			}
		})

		It("should treat a producer panic as a producer failure", func() {
			producer := func(yield func(int, error) bool) {
				yield(0, nil)
				panic("listing exploded")
			}
			rec := &test.Recorder[int]{}

			_, err := parallel.New(rec.Consume, parallel.WithJobs(1)).Run(ctx, producer)

			Expect(srvErrors.IsProducerError(err)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("producer panicked")))
		})
	})

	Describe("Look-ahead", func() {
		It("should not read the producer far ahead of the workers", func() {
			producer := &test.FailingProducer[int]{Items: seq(100)}
			unblock := make(chan struct{})
			consume := func(ctx context.Context, i int) iter.Seq2[int, error] {
				return func(yield func(int, error) bool) {
					<-unblock
					yield(i, nil)
				}
			}
			pc := parallel.New(consume, parallel.WithJobs(2), parallel.WithLookahead(3))

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				_, _ = pc.Run(ctx, producer.Seq())
			}()

			// two in flight, three pending, one blocked in the channel send
			Consistently(producer.Pulled, 200*time.Millisecond).Should(BeNumerically("<=", 6))
			close(unblock)
			Eventually(done, 2*time.Second).Should(BeClosed())
		})
	})

	Describe("Early termination", func() {
		It("should stop intake and wait for dispatched work when the caller stops", func() {
			producer := &test.FailingProducer[int]{Items: seq(50)}
			rec := &test.Recorder[int]{Delay: 50 * time.Millisecond}
			base := runtime.NumGoroutine()

			for v, err := range parallel.New(rec.Consume, parallel.WithJobs(4)).Results(ctx, producer.Seq()) {
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(0))
				break
			}

			Expect(rec.Active()).To(Equal(0))
			Expect(len(rec.Started())).To(BeNumerically("<", 50))
			Eventually(runtime.NumGoroutine, 2*time.Second, 50*time.Millisecond).Should(BeNumerically("<=", base+2))
		})
	})

	Describe("Progress", func() {
		It("should report counters until the run is done", func() {
			rec := &test.Recorder[int]{}
			var last parallel.Progress
			calls := 0

			_, err := parallel.New(rec.Consume,
				parallel.WithJobs(3),
				parallel.WithProgress(func(p parallel.Progress) {
					calls++
					last = p
				}),
			).Run(ctx, test.Items(seq(6)...))

			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(BeNumerically(">", 6))
			Expect(last).To(Equal(parallel.Progress{
				State:        parallel.StateDone,
				Produced:     6,
				Completed:    6,
				ProducerDone: true,
			}))
		})

		It("should end in the failed state when an item failed", func() {
			rec := &test.Recorder[int]{Fail: map[int]error{1: errors.New("x")}}
			var last parallel.Progress

			_, err := parallel.New(rec.Consume,
				parallel.WithProgress(func(p parallel.Progress) { last = p }),
			).Run(ctx, test.Items(seq(3)...))

			Expect(err).To(HaveOccurred())
			Expect(last.State).To(Equal(parallel.StateFailed))
			Expect(last.Failed).To(Equal(1))
			Expect(last.State.String()).To(Equal("failed"))
		})
	})

	Describe("Item names", func() {
		It("should name failures with the configured function", func() {
			rec := &test.Recorder[int]{Fail: map[int]error{2: errors.New("x")}}

			_, err := parallel.New(rec.Consume,
				parallel.WithItemName(func(i int) string { return fmt.Sprintf("item-%02d", i) }),
			).Run(ctx, test.Items(seq(3)...))

			aggr, ok := srvErrors.AsIncompleteResultsError(err)
			Expect(ok).To(BeTrue())
			Expect(aggr.Failed()).To(Equal([]string{"item-02"}))
		})
	})
})

var _ = Describe("IsSubpath", func() {
	DescribeTable("should only match strict descendants",
		func(path, parent string, expected bool) {
			Expect(parallel.IsSubpath(path, parent)).To(Equal(expected))
		},
		Entry("direct child", "a/b", "a", true),
		Entry("grandchild", "a/b/c", "a", true),
		Entry("same path", "a", "a", false),
		Entry("parent of parent", "a", "a/b", false),
		Entry("sibling sharing a prefix", "ab", "a", false),
		Entry("unclean paths", "a/./b/", "a//", true),
		Entry("absolute child", "/data/ds/sub", "/data/ds", true),
		Entry("relative against absolute", "ds/sub", "/ds", false),
		Entry("dotdot-like child name", "a/..b", "a", true),
	)
})
