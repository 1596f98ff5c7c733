package tableau

import (
	"fmt"
	"math"

	"github.com/qbitshift/qopt/circuit"
	"github.com/qbitshift/qopt/transform"
)

// snapTol bounds how far an angle may sit from a quarter turn and
// still be treated as Clifford.
const snapTol = 1e-11

// quarterTurns reports whether theta is a multiple of pi/2 and if so
// returns that multiple mod 4.
func quarterTurns(theta float64) (int, bool) {
	k := math.Round(theta / (math.Pi / 2))
	if math.Abs(theta-k*math.Pi/2) > snapTol {
		return 0, false
	}
	return ((int(k) % 4) + 4) % 4, true
}

// foldRz folds Rz(k pi/2) into the tableau.
func foldRz(t *Tableau, q, k int) {
	switch k {
	case 1:
		t.AppendS(q)
	case 2:
		t.AppendZ(q)
	case 3:
		t.AppendSdg(q)
	}
}

// emitGadget appends exp(-i theta/2 P) to out, where P is the signed
// Pauli string produced by Tableau.Conjugate. X and Y factors are
// rotated onto Z by local Cliffords around a phase gadget.
func emitGadget(out *circuit.Circuit, t *Tableau, q int, axis Axis, theta float64) error {
	xb, zb, sign, err := t.Conjugate([]int{q}, []Axis{axis})
	if err != nil {
		return err
	}
	angle := float64(sign) * theta
	var support []int
	var post []circuit.Gate
	for k := 0; k < out.NQubits; k++ {
		x, z := xb.Test(uint(k)), zb.Test(uint(k))
		if !x && !z {
			continue
		}
		support = append(support, k)
		switch {
		case x && z:
			out.Add1(circuit.V, k)
			post = append(post, circuit.Gate{Op: circuit.Vdg, Qubits: []int{k}})
		case x:
			out.Add1(circuit.H, k)
			post = append(post, circuit.Gate{Op: circuit.H, Qubits: []int{k}})
		}
	}
	if len(support) == 0 {
		return fmt.Errorf("conjugated rotation has empty support")
	}
	if len(support) == 1 {
		out.Add1(circuit.Rz, support[0], angle)
	} else {
		out.Add(circuit.PhaseGadget, support, angle)
	}
	out.Gates = append(out.Gates, post...)
	return nil
}

func resynthesize(c *circuit.Circuit) (bool, error) {
	flat, err := circuit.RebaseToCXRzRxH(c)
	if err != nil {
		return false, fmt.Errorf("%v: %w", err, transform.ErrPrecondition)
	}
	out := circuit.New(c.NQubits)
	out.Phase = flat.Phase
	if flat.Perm != nil {
		out.Perm = append([]int(nil), flat.Perm...)
	}
	t := New(c.NQubits)
	flush := func() error {
		syn, err := t.Synthesize()
		if err != nil {
			return fmt.Errorf("%v: %w", err, transform.ErrInternal)
		}
		out.Gates = append(out.Gates, syn.Gates...)
		t = New(c.NQubits)
		return nil
	}
	for _, g := range flat.Gates {
		switch g.Op {
		case circuit.CX:
			t.AppendCX(g.Qubits[0], g.Qubits[1])
		case circuit.H:
			t.AppendH(g.Qubits[0])
		case circuit.Rz:
			if k, ok := quarterTurns(g.Params[0]); ok {
				foldRz(t, g.Qubits[0], k)
			} else if err := emitGadget(out, t, g.Qubits[0], AxisZ, g.Params[0]); err != nil {
				return false, fmt.Errorf("%v: %w", err, transform.ErrInternal)
			}
		case circuit.Rx:
			if k, ok := quarterTurns(g.Params[0]); ok {
				t.AppendH(g.Qubits[0])
				foldRz(t, g.Qubits[0], k)
				t.AppendH(g.Qubits[0])
			} else if err := emitGadget(out, t, g.Qubits[0], AxisX, g.Params[0]); err != nil {
				return false, fmt.Errorf("%v: %w", err, transform.ErrInternal)
			}
		case circuit.Measure, circuit.Reset, circuit.Barrier:
			// Rotations must not move across these, so the
			// pending Clifford is materialised first.
			if err := flush(); err != nil {
				return false, err
			}
			out.Add(g.Op, append([]int(nil), g.Qubits...))
		default:
			return false, fmt.Errorf("unexpected op %v after rebase: %w", g.Op, transform.ErrInternal)
		}
	}
	if err := flush(); err != nil {
		return false, err
	}
	circuit.RemoveRedundancies(out)
	if c.SameGates(out) {
		return false, nil
	}
	*c = *out
	return true, nil
}

// Resynthesis returns the Clifford resquashing transform: Clifford
// gates are folded into a stabilizer tableau, non-Clifford rotations
// are conjugated through it into phase gadgets, and the residual
// Clifford is synthesised at the end boundary. The result matches the
// input up to global phase. It is a canonicalisation, not a
// guaranteed reduction; callers wanting monotone behaviour should
// gate it behind an acceptance criterion.
func Resynthesis() transform.Transform {
	return transform.Transform{Apply: resynthesize}
}
