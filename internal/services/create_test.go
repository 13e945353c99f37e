package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ypid/datalad/internal/config"
	"github.com/ypid/datalad/internal/dataset"
	"github.com/ypid/datalad/internal/models"
	"github.com/ypid/datalad/internal/services"
	"github.com/ypid/datalad/internal/store"
	srvErrors "github.com/ypid/datalad/pkg/errors"
	"github.com/ypid/datalad/test"
)

func newTestStore(ctx context.Context) *store.Store {
	db, err := store.NewDB(store.MemoryDB)
	Expect(err).NotTo(HaveOccurred())
	s := store.NewStore(db)
	Expect(s.Migrate(ctx)).To(Succeed())
	DeferCleanup(s.Close)
	return s
}

var _ = Describe("CreateService", func() {
	var (
		ctx  context.Context
		st   *store.Store
		root string
		cfg  config.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		st = newTestStore(ctx)

		var err error
		root, err = os.MkdirTemp("", "datalad-service-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, root)

		cfg = config.NewConfigurationWithDefaults().Engine
	})

	// Given a tree of paths, parents first
	// When the service creates them
	// Then every result should be emitted, saved and the run marked done
	It("should create datasets and record the run", func() {
		paths := []string{
			filepath.Join(root, "a"),
			filepath.Join(root, "a", "b"),
			filepath.Join(root, "c"),
		}
		var emitted []models.Result

		run, err := services.NewCreateService(cfg, st).Create(ctx, dataset.Paths(paths...), func(r models.Result) {
			emitted = append(emitted, r)
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(emitted).To(HaveLen(4))
		Expect(emitted[0].Path).To(Equal(paths[0]))
		Expect(emitted[1].Path).To(Equal(paths[1]))
		Expect(emitted[2].Action).To(Equal(models.ActionRegister))
		Expect(emitted[3].Path).To(Equal(paths[2]))

		stored, err := st.Runs().Get(ctx, run.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.State).To(Equal(models.RunStateDone))
		Expect(stored.Total).To(Equal(4))
		Expect(stored.Failed).To(Equal(0))
		Expect(stored.Ordered).To(BeTrue())

		results, err := st.Results().List(ctx, store.ByRun(run.ID.String()))
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		for i, r := range results {
			Expect(r.Result).To(Equal(emitted[i]))
		}
	})

	// Given a path that is a non-empty directory
	// When the service creates it with other paths
	// Then the others succeed and the failure is recorded as an error result
	It("should record failed paths", func() {
		full := filepath.Join(root, "full")
		Expect(os.MkdirAll(full, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(full, "f"), nil, 0o644)).To(Succeed())

		var emitted []models.Result
		run, err := services.NewCreateService(cfg, st).Create(ctx,
			dataset.Paths(filepath.Join(root, "ok"), full),
			func(r models.Result) { emitted = append(emitted, r) },
		)

		Expect(srvErrors.IsIncompleteResultsError(err)).To(BeTrue())
		Expect(run.State).To(Equal(models.RunStateFailed))
		Expect(run.Failed).To(Equal(1))
		Expect(emitted).To(HaveLen(2))
		Expect(emitted[1].Path).To(Equal(full))
		Expect(emitted[1].Status).To(Equal(models.StatusError))
		Expect(emitted[1].Message).To(ContainSubstring("not empty"))

		failed, err := st.Results().List(ctx, store.ByRun(run.ID.String()), store.ByStatus(string(models.StatusError)))
		Expect(err).NotTo(HaveOccurred())
		Expect(failed).To(HaveLen(1))
	})

	It("should report skipped dependents as impossible", func() {
		full := filepath.Join(root, "full")
		Expect(os.MkdirAll(full, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(full, "f"), nil, 0o644)).To(Succeed())
		cfg.SkipDependents = true

		var emitted []models.Result
		_, err := services.NewCreateService(cfg, st).Create(ctx,
			dataset.Paths(full, filepath.Join(full, "child")),
			func(r models.Result) { emitted = append(emitted, r) },
		)

		Expect(err).To(HaveOccurred())
		Expect(emitted).To(HaveLen(2))
		Expect(emitted[0].Status).To(Equal(models.StatusError))
		Expect(emitted[1].Status).To(Equal(models.StatusImpossible))
		Expect(filepath.Join(full, "child")).NotTo(BeADirectory())
	})

	// Given the default engine configuration and a deep chain of nested paths
	// When the service creates them with more workers than paths
	// Then every dataset is created because no child starts before its parent finished
	It("should order nested paths by default", func() {
		Expect(cfg.Ordered).To(BeTrue())
		cfg.Jobs = 8
		chain := []string{filepath.Join(root, "a")}
		for _, name := range []string{"b", "c", "d", "e"} {
			chain = append(chain, filepath.Join(chain[len(chain)-1], name))
		}

		run, err := services.NewCreateService(cfg, st).Create(ctx, dataset.Paths(chain...), nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(run.Ordered).To(BeTrue())
		Expect(run.Failed).To(Equal(0))
		for _, p := range chain {
			Expect(dataset.IsDataset(p)).To(BeTrue())
		}
	})

	// Given a producer breaking after three paths on a single worker
	// When the service creates them
	// Then every produced path is accounted for and none is reported as an error
	It("should report paths abandoned by a producer failure as impossible", func() {
		cfg.Jobs = 1
		cfg.Lookahead = 10
		producer := &test.FailingProducer[string]{
			Items: []string{filepath.Join(root, "x"), filepath.Join(root, "y"), filepath.Join(root, "z")},
			Err:   errors.New("path list unreadable"),
		}

		var emitted []models.Result
		run, err := services.NewCreateService(cfg, st).Create(ctx, producer.Seq(), func(r models.Result) {
			emitted = append(emitted, r)
		})

		Expect(srvErrors.IsIncompleteResultsError(err)).To(BeTrue())
		Expect(emitted).To(HaveLen(3))
		impossible := 0
		for _, r := range emitted {
			Expect(r.Status).To(BeElementOf(models.StatusOK, models.StatusImpossible))
			if r.Status == models.StatusImpossible {
				impossible++
				Expect(r.Message).To(ContainSubstring("abandoned"))
			}
		}
		Expect(run.Failed).To(Equal(impossible))
	})

	It("should mark the run failed when the producer fails", func() {
		producer := &test.FailingProducer[string]{
			Items: []string{filepath.Join(root, "x")},
			Err:   errors.New("path list unreadable"),
		}

		run, err := services.NewCreateService(cfg, st).Create(ctx, producer.Seq(), nil)

		Expect(err).To(MatchError(ContainSubstring("path list unreadable")))
		Expect(run.State).To(Equal(models.RunStateFailed))
		Expect(run.Failed).To(Equal(0))

		stored, err := st.Runs().Get(ctx, run.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.State).To(Equal(models.RunStateFailed))
	})
})
