package zx

import (
	"fmt"

	"github.com/qbitshift/qopt/circuit"
	"github.com/qbitshift/qopt/transform"
)

func graphlike(c *circuit.Circuit) (bool, error) {
	for _, g := range c.Gates {
		if !g.Op.IsUnitary() {
			return false, fmt.Errorf("op %v has no diagram: %w", g.Op, transform.ErrPrecondition)
		}
	}
	d, err := FromCircuit(c)
	if err != nil {
		return false, fmt.Errorf("%v: %w", err, transform.ErrPrecondition)
	}
	d.Simplify()
	out, err := d.Extract()
	if err != nil {
		return false, fmt.Errorf("%v: %w", err, transform.ErrInternal)
	}
	circuit.RemoveRedundancies(out)
	permSame := true
	op, np := c.Permutation(), out.Permutation()
	for i := range op {
		if op[i] != np[i] {
			permSame = false
		}
	}
	if permSame && c.SameGates(out) {
		return false, nil
	}
	*c = *out
	return true, nil
}

// Graphlike returns the ZX resynthesis transform: the circuit is
// turned into a graphlike diagram, interior Clifford spiders are
// removed by local complementation and pivoting, and a circuit is
// extracted back out. The result matches the input up to global
// phase. Circuits containing Measure, Reset or Barrier are rejected
// before any mutation.
func Graphlike() transform.Transform {
	return transform.Transform{Apply: graphlike}
}
