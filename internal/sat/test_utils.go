package sat

import "math/rand/v2"

// GenerateInstance builds a random clause-only instance for solver tests.
func GenerateInstance(variables, clauses int) *Instance {
	instance := &Instance{
		Variables: variables,
		Clauses:   make([][]int, clauses),
	}

	for i := range clauses {
		instance.Clauses[i] = make([]int, 0, variables)
		for j := range variables {
			if rand.Float32() < 0.5 {
				var sign = 1
				if rand.Float32() < 0.5 {
					sign = -1
				}
				instance.Clauses[i] = append(instance.Clauses[i], sign*(1+j))
			}
		}

		if len(instance.Clauses[i]) == 0 {
			var sign = 1
			if rand.Float32() < 0.5 {
				sign = -1
			}
			instance.Clauses[i] = append(instance.Clauses[i], sign*(1+rand.IntN(variables)))
		}
	}

	return instance
}

// AssertSolution checks that the assignment satisfies every clause and every
// linear constraint of the instance.
func AssertSolution(instance *Instance, solution Solution) bool {
	holds := func(lit int) bool {
		if lit > 0 {
			return solution[lit]
		}
		return !solution[-lit]
	}

	for _, clause := range instance.Clauses {
		satisfied := false
		for _, lit := range clause {
			if holds(lit) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}

	for _, constr := range instance.Linear {
		sum := 0
		for i, lit := range constr.Lits {
			if holds(lit) {
				sum += constr.Weights[i]
			}
		}
		if sum < constr.AtLeast {
			return false
		}
	}

	return true
}
