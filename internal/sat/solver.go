package sat

import (
	"context"
	"errors"
)

// ErrInterrupted reports that solving stopped before reaching an answer,
// either through context cancellation or an exhausted time budget.
var ErrInterrupted = errors.New("sat: solving interrupted")

// Solver decides a pseudo-boolean instance. A nil Solution with a nil error
// means the instance is unsatisfiable.
type Solver interface {
	Solve(ctx context.Context, instance *Instance) (Solution, error)
}
