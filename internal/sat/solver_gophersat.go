package sat

import (
	"context"

	"github.com/crillab/gophersat/solver"
)

type gophersatSolver struct{}

// NewGophersatSolver returns the in-process backend. Solving runs through
// gophersat's stop channel, so cancellation takes effect mid-search instead
// of only between phases.
func NewGophersatSolver() Solver {
	return &gophersatSolver{}
}

func (s *gophersatSolver) Solve(ctx context.Context, instance *Instance) (Solution, error) {
	problem := solver.ParsePBConstrs(instance.pbConstrs())
	search := solver.New(problem)

	stop := make(chan struct{})
	done := make(chan solver.Result, 1)
	go func() {
		done <- search.Optimal(nil, stop)
	}()

	var result solver.Result
	select {
	case result = <-done:
	case <-ctx.Done():
		close(stop)
		result = <-done // the search may still have finished with an answer
	}

	switch result.Status {
	case solver.Sat:
		return solutionFromModel(result.Model, instance.Variables), nil
	case solver.Unsat:
		return nil, nil
	default:
		return nil, ErrInterrupted
	}
}

func (instance *Instance) pbConstrs() []solver.PBConstr {
	constrs := make([]solver.PBConstr, 0, len(instance.Clauses)+len(instance.Linear))
	for _, clause := range instance.Clauses {
		constrs = append(constrs, solver.PropClause(clause...))
	}
	for _, constr := range instance.Linear {
		constrs = append(constrs, solver.GtEq(constr.Lits, constr.Weights, constr.AtLeast))
	}
	return constrs
}

// solutionFromModel shifts gophersat's 0-indexed model to the 1-indexed
// variable space used by Instance.
func solutionFromModel(model []bool, variables int) Solution {
	solution := make(Solution, variables+1)
	for variable := 1; variable <= variables; variable++ {
		if variable-1 < len(model) && model[variable-1] {
			solution[variable] = true
		}
	}
	return solution
}
