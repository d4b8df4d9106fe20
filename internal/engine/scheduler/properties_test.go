package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/engine/resolver"
	"go.trai.ch/mark/internal/engine/scheduler"
)

// randomDAG builds n tasks where each task may depend only on tasks with a
// lower index, so the result is always acyclic.
func randomDAG(seed uint64, n int) *world {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	w := newWorld()
	for i := range n {
		var deps []string
		for j := range i {
			if rng.IntN(4) == 0 {
				deps = append(deps, fmt.Sprintf("t%02d", j))
			}
		}
		w.add(fmt.Sprintf("t%02d", i), deps...)
	}
	return w
}

func resolveAll(w *world) *domain.Graph {
	reg, err := domain.NewRegistry()
	Expect(err).NotTo(HaveOccurred())
	for _, id := range w.order {
		Expect(reg.Register(w.tasks[id])).To(Succeed())
	}
	g, err := resolver.Resolve(reg, domain.AllTasks)
	Expect(err).NotTo(HaveOccurred())
	return g
}

var _ = Describe("Scheduler", func() {
	var s *scheduler.Scheduler

	BeforeEach(func() {
		s = scheduler.NewScheduler(nil)
	})

	DescribeTable("random graphs",
		func(seed uint64, parallelism int) {
			w := randomDAG(seed, 24)

			for _, task := range w.tasks {
				task.body = func(context.Context, io.Writer) error {
					for _, dep := range task.deps {
						if !s.Status(dep).Satisfied() {
							return fmt.Errorf("%s started before %s", task.id, dep)
						}
					}
					return nil
				}
			}

			By("running every task exactly once on the first invocation")
			report, err := s.Run(context.Background(), resolveAll(w), scheduler.Options{Parallelism: parallelism})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Succeeded()).To(BeTrue())
			Expect(report.Ran).To(HaveLen(24))
			for id, task := range w.tasks {
				Expect(task.Runs()).To(Equal(1), id)
			}

			By("running nothing on the second invocation")
			report, err = s.Run(context.Background(), resolveAll(w), scheduler.Options{Parallelism: parallelism})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Skipped).To(HaveLen(24))
			Expect(w.totalRuns()).To(Equal(24))
		},
		Entry("seed 1, one worker", uint64(1), 1),
		Entry("seed 2, four workers", uint64(2), 4),
		Entry("seed 3, sixteen workers", uint64(3), 16),
		Entry("seed 42, two workers", uint64(42), 2),
	)

	It("orders every dependency before its dependents", func() {
		w := randomDAG(7, 30)
		g := resolveAll(w)
		order := g.Order()
		for _, id := range order {
			for _, dep := range g.Dependencies(id) {
				Expect(slices.Index(order, dep)).To(BeNumerically("<", slices.Index(order, id)))
			}
		}
	})

	It("never starts a dependent of a failed task", func() {
		w := randomDAG(11, 20)
		w.tasks["t00"].body = func(context.Context, io.Writer) error { return errors.New("boom") }

		report, err := s.Run(context.Background(), resolveAll(w), scheduler.Options{Parallelism: 1})
		Expect(err).To(MatchError(domain.ErrTaskFailed))
		Expect(report.FailedTask()).To(Equal("t00"))
		Expect(w.targets["t00"].isPresent()).To(BeFalse())

		for id, task := range w.tasks {
			if slices.Contains(task.deps, "t00") {
				Expect(task.Runs()).To(BeZero(), id)
				Expect(report.Status(id)).To(Equal(domain.StatusPending), id)
			}
		}
	})

	It("rejects graphs containing a cycle", func() {
		w := newWorld()
		w.add("a", "c")
		w.add("b", "a")
		w.add("c", "b")
		reg, err := domain.NewRegistry(w.tasks["a"], w.tasks["b"], w.tasks["c"])
		Expect(err).NotTo(HaveOccurred())

		_, err = resolver.Resolve(reg, "a")
		Expect(err).To(MatchError(domain.ErrCycleDetected))

		var cycle *domain.CycleError
		Expect(errors.As(err, &cycle)).To(BeTrue())
		Expect(cycle.Cycle[0]).To(Equal(cycle.Cycle[len(cycle.Cycle)-1]))
		Expect(w.totalRuns()).To(BeZero())
	})
})
