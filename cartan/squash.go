package cartan

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/qbitshift/qopt/circuit"
	"github.com/qbitshift/qopt/transform"
)

// OneQubitTarget selects the single-qubit alphabet a squash emits.
type OneQubitTarget int

const (
	_                        = 0
	TargetTK1 OneQubitTarget = iota
	// TargetRzSX emits Rz and SX only.
	TargetRzSX
	// TargetRzPhasedX emits Rz and PhasedX only.
	TargetRzPhasedX
)

func isIdentityAngle(t float64) bool {
	t = math.Mod(t, 2*math.Pi)
	return math.Abs(t) < 1e-11 || math.Abs(math.Abs(t)-2*math.Pi) < 1e-11
}

// emit1Q writes the accumulated single-qubit unitary in the requested
// alphabet, returning the gates and the phase contribution.
func emit1Q(target OneQubitTarget, q int, u cmat) ([]circuit.Gate, float64, error) {
	switch target {
	case TargetTK1:
		a, b, g, phase := eulerZXZ(u)
		if math.Abs(b) < 1e-11 && isIdentityAngle(a+g) {
			return nil, phase, nil
		}
		return []circuit.Gate{
			{Op: circuit.TK1, Qubits: []int{q}, Params: []float64{a, b, g}},
		}, phase, nil
	case TargetRzSX:
		// u = e^{i phase} Rz(a) Ry(-b) Rz(-c) Rx(pi), so the ZYZ
		// angles of u Rx(-pi) give the Rz-V-Rz-V-Rz form, and each V
		// is SX up to a phase of pi/4.
		if cmplx.Abs(u[0][1]) < 1e-11 && cmplx.Abs(u[1][0]) < 1e-11 {
			a, _, g, phase := eulerZXZ(u)
			if isIdentityAngle(a + g) {
				return nil, phase, nil
			}
			return []circuit.Gate{
				{Op: circuit.Rz, Qubits: []int{q}, Params: []float64{a + g}},
			}, phase, nil
		}
		up := mul(u, rx2(-math.Pi))
		p, qq, r, phase := eulerZYZ(up)
		a, b, c := p, -qq, -r
		return []circuit.Gate{
			{Op: circuit.Rz, Qubits: []int{q}, Params: []float64{c}},
			{Op: circuit.SX, Qubits: []int{q}},
			{Op: circuit.Rz, Qubits: []int{q}, Params: []float64{b}},
			{Op: circuit.SX, Qubits: []int{q}},
			{Op: circuit.Rz, Qubits: []int{q}, Params: []float64{a}},
		}, phase - math.Pi/2, nil
	case TargetRzPhasedX:
		a, b, g, phase := eulerZXZ(u)
		var out []circuit.Gate
		if math.Abs(b) >= 1e-11 {
			out = append(out, circuit.Gate{
				Op: circuit.PhasedX, Qubits: []int{q}, Params: []float64{b, -g},
			})
		}
		if !isIdentityAngle(a + g) {
			out = append(out, circuit.Gate{
				Op: circuit.Rz, Qubits: []int{q}, Params: []float64{a + g},
			})
		}
		return out, phase, nil
	}
	return nil, 0, fmt.Errorf("unknown single-qubit target %d", target)
}

func gateListsEqual(a, b []circuit.Gate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Op != b[i].Op || len(a[i].Params) != len(b[i].Params) {
			return false
		}
		for j := range a[i].Params {
			if math.Abs(a[i].Params[j]-b[i].Params[j]) > 1e-12 {
				return false
			}
		}
	}
	return true
}

// Squash1Q merges runs of adjacent single-qubit gates into the chosen
// alphabet, at most a few gates per run. Deterministic, so repeated
// application reaches a fixpoint.
func Squash1Q(target OneQubitTarget) transform.Transform {
	return transform.Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		type run struct {
			acc      cmat
			consumed []circuit.Gate
		}
		runs := make([]*run, c.NQubits)
		var out []circuit.Gate
		changed := false
		var flushErr error

		flush := func(q int) {
			r := runs[q]
			if r == nil {
				return
			}
			runs[q] = nil
			gates, phase, err := emit1Q(target, q, r.acc)
			if err != nil {
				flushErr = err
				return
			}
			if gateListsEqual(gates, r.consumed) {
				out = append(out, r.consumed...)
				return
			}
			c.Phase += phase
			out = append(out, gates...)
			changed = true
		}

		for _, g := range c.Gates {
			oneQ := len(g.Qubits) == 1 && g.Op.IsUnitary()
			if oneQ {
				m, err := g.Matrix()
				if err != nil {
					return false, err
				}
				q := g.Qubits[0]
				if runs[q] == nil {
					runs[q] = &run{acc: eye(2)}
				}
				runs[q].acc = mul(cmat(m), runs[q].acc)
				runs[q].consumed = append(runs[q].consumed, g)
				continue
			}
			for _, q := range g.Qubits {
				flush(q)
				if flushErr != nil {
					return false, flushErr
				}
			}
			out = append(out, g)
		}
		for q := 0; q < c.NQubits; q++ {
			flush(q)
			if flushErr != nil {
				return false, flushErr
			}
		}
		c.Gates = out
		return changed, nil
	}}
}
