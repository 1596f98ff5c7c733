package circuit

import (
	"fmt"
	"math"
)

// emitZZPhase writes the CX realisation of exp(-i t ZZ / 2) on (a, b).
func emitZZPhase(out *Circuit, a, b int, t float64) {
	out.Add2(CX, a, b)
	out.Add1(Rz, b, t)
	out.Add2(CX, a, b)
}

// appendCXRzRxH rewrites one gate over {CX, Rz, Rx, H}, accumulating
// global phase on out. Measure, Reset and Barrier pass through.
func appendCXRzRxH(out *Circuit, g Gate) error {
	q := g.Qubits
	p := g.Params
	switch g.Op {
	case CX:
		out.Add2(CX, q[0], q[1])
	case Rz:
		out.Add1(Rz, q[0], p[0])
	case Rx:
		out.Add1(Rx, q[0], p[0])
	case H:
		out.Add1(H, q[0])
	case TK1:
		out.Add1(Rz, q[0], p[2])
		out.Add1(Rx, q[0], p[1])
		out.Add1(Rz, q[0], p[0])
	case Ry:
		out.Add1(Rz, q[0], -math.Pi/2)
		out.Add1(Rx, q[0], p[0])
		out.Add1(Rz, q[0], math.Pi/2)
	case PhasedX:
		out.Add1(Rz, q[0], -p[1])
		out.Add1(Rx, q[0], p[0])
		out.Add1(Rz, q[0], p[1])
	case X:
		out.Add1(Rx, q[0], math.Pi)
		out.Phase += math.Pi / 2
	case Y:
		out.Add1(Rz, q[0], -math.Pi/2)
		out.Add1(Rx, q[0], math.Pi)
		out.Add1(Rz, q[0], math.Pi/2)
		out.Phase += math.Pi / 2
	case Z:
		out.Add1(Rz, q[0], math.Pi)
		out.Phase += math.Pi / 2
	case S:
		out.Add1(Rz, q[0], math.Pi/2)
		out.Phase += math.Pi / 4
	case Sdg:
		out.Add1(Rz, q[0], -math.Pi/2)
		out.Phase -= math.Pi / 4
	case SX:
		out.Add1(Rx, q[0], math.Pi/2)
		out.Phase += math.Pi / 4
	case SXdg:
		out.Add1(Rx, q[0], -math.Pi/2)
		out.Phase -= math.Pi / 4
	case V:
		out.Add1(Rx, q[0], math.Pi/2)
	case Vdg:
		out.Add1(Rx, q[0], -math.Pi/2)
	case CZ:
		out.Add1(H, q[1])
		out.Add2(CX, q[0], q[1])
		out.Add1(H, q[1])
	case SWAP:
		out.Add2(CX, q[0], q[1])
		out.Add2(CX, q[1], q[0])
		out.Add2(CX, q[0], q[1])
	case ZZPhase:
		emitZZPhase(out, q[0], q[1], p[0])
	case ZZMax:
		emitZZPhase(out, q[0], q[1], math.Pi/2)
	case XXPhase:
		out.Add1(H, q[0])
		out.Add1(H, q[1])
		emitZZPhase(out, q[0], q[1], p[0])
		out.Add1(H, q[0])
		out.Add1(H, q[1])
	case YYPhase:
		// V Z Vdg = -Y on both wires, the signs cancel in ZZ.
		out.Add1(Rx, q[0], -math.Pi/2)
		out.Add1(Rx, q[1], -math.Pi/2)
		emitZZPhase(out, q[0], q[1], p[0])
		out.Add1(Rx, q[0], math.Pi/2)
		out.Add1(Rx, q[1], math.Pi/2)
	case TK2:
		if err := appendCXRzRxH(out, Gate{Op: XXPhase, Qubits: q, Params: p[:1]}); err != nil {
			return err
		}
		if err := appendCXRzRxH(out, Gate{Op: YYPhase, Qubits: q, Params: p[1:2]}); err != nil {
			return err
		}
		emitZZPhase(out, q[0], q[1], p[2])
	case ECR:
		// ECR = (X ox I) exp(-i pi/4 Z ox X).
		out.Add1(H, q[1])
		emitZZPhase(out, q[0], q[1], math.Pi/2)
		out.Add1(H, q[1])
		out.Add1(Rx, q[0], math.Pi)
		out.Phase += math.Pi / 2
	case PhaseGadget:
		for i := 0; i+1 < len(q); i++ {
			out.Add2(CX, q[i], q[i+1])
		}
		out.Add1(Rz, q[len(q)-1], p[0])
		for i := len(q) - 2; i >= 0; i-- {
			out.Add2(CX, q[i], q[i+1])
		}
	case Measure, Reset, Barrier:
		out.Add(g.Op, append([]int(nil), q...))
	default:
		return fmt.Errorf("cannot rebase op %v", g.Op)
	}
	return nil
}

// RebaseToCXRzRxH rewrites the circuit over {CX, Rz, Rx, H}, plus any
// non-unitary ops carried through unchanged. The result is
// unitarily equal to the input.
func RebaseToCXRzRxH(c *Circuit) (*Circuit, error) {
	out := New(c.NQubits)
	out.Phase = c.Phase
	if c.Perm != nil {
		out.Perm = append([]int(nil), c.Perm...)
	}
	for i, g := range c.Gates {
		if err := appendCXRzRxH(out, g); err != nil {
			return nil, fmt.Errorf("gate %d: %v", i, err)
		}
	}
	return out, nil
}
