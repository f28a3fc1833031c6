package sat

import (
	"context"
	"errors"
	"math/rand/v2"
)

type portfolioSolver struct {
	workers int
}

// NewPortfolioSolver races `workers` independent searches over
// constraint-order-shuffled copies of the instance; the first definitive
// answer wins and stops the rest. Search behavior depends on constraint
// order, so the copies genuinely diverge.
func NewPortfolioSolver(workers int) Solver {
	if workers < 1 {
		workers = 1
	}
	return &portfolioSolver{workers: workers}
}

func (p *portfolioSolver) Solve(ctx context.Context, instance *Instance) (Solution, error) {
	if p.workers == 1 {
		return NewGophersatSolver().Solve(ctx, instance)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		solution Solution
		err      error
	}
	outcomes := make(chan outcome, p.workers)

	for worker := 0; worker < p.workers; worker++ {
		candidate := instance
		if worker > 0 { // worker 0 keeps the original constraint order
			candidate = instance.shuffled(uint64(worker))
		}
		go func(candidate *Instance) {
			solution, err := NewGophersatSolver().Solve(ctx, candidate)
			outcomes <- outcome{solution: solution, err: err}
		}(candidate)
	}

	for collected := 0; collected < p.workers; collected++ {
		out := <-outcomes
		if out.err == nil { // satisfiable or proven unsatisfiable
			return out.solution, nil
		}
		if !errors.Is(out.err, ErrInterrupted) {
			return nil, out.err
		}
	}
	return nil, ErrInterrupted
}

// shuffled copies the instance with constraints in a seed-determined order.
// The constraints themselves are shared, not copied.
func (instance *Instance) shuffled(seed uint64) *Instance {
	random := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	copied := &Instance{
		Variables: instance.Variables,
		Clauses:   make([][]int, len(instance.Clauses)),
		Linear:    make([]LinearConstr, len(instance.Linear)),
	}
	copy(copied.Clauses, instance.Clauses)
	copy(copied.Linear, instance.Linear)

	random.Shuffle(len(copied.Clauses), func(i, j int) {
		copied.Clauses[i], copied.Clauses[j] = copied.Clauses[j], copied.Clauses[i]
	})
	random.Shuffle(len(copied.Linear), func(i, j int) {
		copied.Linear[i], copied.Linear[j] = copied.Linear[j], copied.Linear[i]
	})
	return copied
}
