package sat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveSatisfiableClauses(t *testing.T) {
	for range 10 {
		// Arrange
		instance := GenerateInstance(30, 60)
		solver := NewGophersatSolver()

		// Act
		solution, err := solver.Solve(context.Background(), instance)

		// Assert
		require.NoError(t, err)
		if solution != nil {
			assert.True(t, AssertSolution(instance, solution))
		}
	}
}

func TestSolveUnsatisfiable(t *testing.T) {
	// Arrange
	instance := NewInstance(1)
	instance.AddClause(1)
	instance.AddClause(-1)
	solver := NewGophersatSolver()

	// Act
	solution, err := solver.Solve(context.Background(), instance)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, solution)
}

func TestSolutionFromModelShiftsIndexing(t *testing.T) {
	// Arrange: gophersat models are 0-indexed slices, Solution is 1-indexed
	model := []bool{true, false, true}

	// Act
	solution := solutionFromModel(model, 3)

	// Assert
	require.Len(t, solution, 4)
	assert.True(t, solution[1])
	assert.False(t, solution[2])
	assert.True(t, solution[3])
}

func TestSolveLinearConstraints(t *testing.T) {
	t.Run("at least", func(t *testing.T) {
		// Arrange
		instance := NewInstance(4)
		instance.AddLinear(AtLeast([]int{1, 2, 3, 4}, 3))
		solver := NewGophersatSolver()

		// Act
		solution, err := solver.Solve(context.Background(), instance)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, solution)
		assert.True(t, AssertSolution(instance, solution))

		count := 0
		for v := 1; v <= 4; v++ {
			if solution[v] {
				count++
			}
		}
		assert.GreaterOrEqual(t, count, 3)
	})

	t.Run("at most", func(t *testing.T) {
		// Arrange
		instance := NewInstance(4)
		instance.AddClause(1)
		instance.AddClause(2)
		instance.AddLinear(AtMost([]int{1, 2, 3, 4}, 2))
		solver := NewGophersatSolver()

		// Act
		solution, err := solver.Solve(context.Background(), instance)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, solution)
		assert.True(t, solution[1])
		assert.True(t, solution[2])
		assert.False(t, solution[3])
		assert.False(t, solution[4])
	})

	t.Run("weighted equality", func(t *testing.T) {
		// Arrange: 2a + 3b + 4c == 7 forces exactly {b, c}
		instance := NewInstance(3)
		for _, constr := range Eq([]int{1, 2, 3}, []int{2, 3, 4}, 7) {
			instance.AddLinear(constr)
		}
		solver := NewGophersatSolver()

		// Act
		solution, err := solver.Solve(context.Background(), instance)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, solution)
		assert.False(t, solution[1])
		assert.True(t, solution[2])
		assert.True(t, solution[3])
	})

	t.Run("conflicting bounds are unsatisfiable", func(t *testing.T) {
		// Arrange
		instance := NewInstance(3)
		instance.AddLinear(AtLeast([]int{1, 2, 3}, 3))
		instance.AddLinear(AtMost([]int{1, 2, 3}, 1))
		solver := NewGophersatSolver()

		// Act
		solution, err := solver.Solve(context.Background(), instance)

		// Assert
		require.NoError(t, err)
		assert.Nil(t, solution)
	})
}

func TestSolveCancellation(t *testing.T) {
	// Arrange
	instance := GenerateInstance(200, 900)
	solver := NewGophersatSolver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	solution, err := solver.Solve(ctx, instance)

	// Assert: either the search finished before noticing the cancellation or
	// it was interrupted; it must never hand back a broken model
	if err != nil {
		assert.Equal(t, ErrInterrupted, err)
		assert.Nil(t, solution)
	} else if solution != nil {
		assert.True(t, AssertSolution(instance, solution))
	}
}

func TestPortfolioAgreesWithSingleSolver(t *testing.T) {
	for range 5 {
		// Arrange
		instance := GenerateInstance(25, 50)
		single := NewGophersatSolver()
		portfolio := NewPortfolioSolver(4)

		// Act
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		singleSolution, singleErr := single.Solve(ctx, instance)
		portfolioSolution, portfolioErr := portfolio.Solve(ctx, instance)

		// Assert: both must agree on satisfiability
		require.NoError(t, singleErr)
		require.NoError(t, portfolioErr)
		assert.Equal(t, singleSolution == nil, portfolioSolution == nil)
		if portfolioSolution != nil {
			assert.True(t, AssertSolution(instance, portfolioSolution))
		}
	}
}

func TestShuffledPreservesConstraints(t *testing.T) {
	// Arrange
	instance := GenerateInstance(20, 40)
	instance.AddLinear(AtMost([]int{1, 2, 3}, 2))

	// Act
	shuffled := instance.shuffled(42)

	// Assert
	assert.Equal(t, instance.Variables, shuffled.Variables)
	assert.ElementsMatch(t, instance.Clauses, shuffled.Clauses)
	assert.ElementsMatch(t, instance.Linear, shuffled.Linear)
}

func TestToOPB(t *testing.T) {
	// Arrange
	instance := NewInstance(2)
	instance.AddClause(1, -2)
	instance.AddLinear(GtEq([]int{1, 2}, []int{2, 3}, 3))

	// Act
	opb := instance.ToOPB()

	// Assert
	assert.Contains(t, opb, "* #variable= 2 #constraint= 2")
	assert.Contains(t, opb, "+1 x1 +1 ~x2 >= 1 ;")
	assert.Contains(t, opb, "+2 x1 +3 x2 >= 3 ;")
}
