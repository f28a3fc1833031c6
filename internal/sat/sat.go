package sat

import (
	"fmt"
	"strings"
)

// Solution binds every variable of an instance; index 0 is unused so that
// Solution[v] is the assignment of variable v.
type Solution []bool

// LinearConstr is a weighted at-least constraint over literals:
// sum(Weights[i] * Lits[i]) >= AtLeast. Together with plain clauses it is the
// canonical form every banding and budget rule is normalized into.
type LinearConstr struct {
	Lits    []int
	Weights []int
	AtLeast int
}

// Instance is a pseudo-boolean satisfaction problem: propositional clauses
// plus weighted linear constraints over the same variables.
type Instance struct {
	Variables int
	Clauses   [][]int
	Linear    []LinearConstr
}

// NewInstance creates an instance with the given number of pre-allocated
// variables; further variables come from NewVar.
func NewInstance(variables int) *Instance {
	return &Instance{Variables: variables}
}

// NewVar allocates the next variable index (1-based).
func (instance *Instance) NewVar() int {
	instance.Variables++
	return instance.Variables
}

func (instance *Instance) AddClause(lits ...int) {
	clause := make([]int, len(lits))
	copy(clause, lits)
	instance.Clauses = append(instance.Clauses, clause)
}

// AddLinear appends a linear constraint, dropping trivially satisfied ones.
func (instance *Instance) AddLinear(constr LinearConstr) {
	if constr.AtLeast <= 0 {
		return
	}
	instance.Linear = append(instance.Linear, constr)
}

func ones(n int) []int {
	weights := make([]int, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

// GtEq builds sum(weights * lits) >= n. A nil weights slice means all ones.
func GtEq(lits []int, weights []int, n int) LinearConstr {
	if weights == nil {
		weights = ones(len(lits))
	}
	return LinearConstr{Lits: lits, Weights: weights, AtLeast: n}
}

// LtEq builds sum(weights * lits) <= n by negating every literal:
// sum(w*x) <= n is equivalent to sum(w*¬x) >= total - n.
func LtEq(lits []int, weights []int, n int) LinearConstr {
	if weights == nil {
		weights = ones(len(lits))
	}

	negated := make([]int, len(lits))
	total := 0
	for i, lit := range lits {
		negated[i] = -lit
		total += weights[i]
	}
	return LinearConstr{Lits: negated, Weights: weights, AtLeast: total - n}
}

// Eq builds the pair of constraints equivalent to sum(weights * lits) == n.
func Eq(lits []int, weights []int, n int) []LinearConstr {
	return []LinearConstr{GtEq(lits, weights, n), LtEq(lits, weights, n)}
}

// AtMost builds sum(lits) <= n.
func AtMost(lits []int, n int) LinearConstr {
	return LtEq(lits, nil, n)
}

// AtLeast builds sum(lits) >= n.
func AtLeast(lits []int, n int) LinearConstr {
	return GtEq(lits, nil, n)
}

func writeLiteral(builder *strings.Builder, weight, lit int) {
	if lit > 0 {
		fmt.Fprintf(builder, "+%d x%d ", weight, lit)
	} else {
		fmt.Fprintf(builder, "+%d ~x%d ", weight, -lit)
	}
}

// ToOPB serializes the instance in the OPB pseudo-boolean format, mainly for
// verbose-mode dumps and debugging.
func (instance *Instance) ToOPB() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "* #variable= %d #constraint= %d\n", instance.Variables, len(instance.Clauses)+len(instance.Linear))

	for _, clause := range instance.Clauses {
		for _, lit := range clause {
			writeLiteral(&builder, 1, lit)
		}
		builder.WriteString(">= 1 ;\n")
	}

	for _, constr := range instance.Linear {
		for i, lit := range constr.Lits {
			writeLiteral(&builder, constr.Weights[i], lit)
		}
		fmt.Fprintf(&builder, ">= %d ;\n", constr.AtLeast)
	}

	return builder.String()
}
