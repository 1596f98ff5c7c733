package cartan

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/qbitshift/qopt/circuit"
)

// snapTol decides when an interaction coordinate counts as sitting on
// a special class (zero, pi/4).
const snapTol = 1e-8

// lift4 expands a gate matrix on local wires {0}, {1}, {0,1} or
// {1,0) to a full two-qubit matrix.
func lift4(m cmat, qubits []int) cmat {
	if len(qubits) == 1 {
		if qubits[0] == 0 {
			return kron(m, eye(2))
		}
		return kron(eye(2), m)
	}
	if qubits[0] == 0 {
		return m
	}
	return mulAll(swapMat, m, swapMat)
}

// windowUnitary multiplies out a two-qubit gate list on local wires.
func windowUnitary(gates []circuit.Gate) (cmat, error) {
	u := eye(4)
	for i, g := range gates {
		m, err := g.Matrix()
		if err != nil {
			return nil, fmt.Errorf("gate %d: %v", i, err)
		}
		u = mul(lift4(cmat(m), g.Qubits), u)
	}
	return u, nil
}

// circuitUnitary is windowUnitary plus phase and permutation, for the
// two-qubit circuits this package emits.
func circuitUnitary(c *circuit.Circuit) (cmat, error) {
	u, err := windowUnitary(c.Gates)
	if err != nil {
		return nil, err
	}
	if c.Perm != nil && c.Perm[0] == 1 {
		u = mul(swapMat, u)
	}
	return scale(cmplx.Exp(complex(0, c.Phase)), u), nil
}

// appendLocal appends a single-qubit unitary as at most one TK1 (or
// bare Rz) gate, folding its determinant phase into the circuit.
func appendLocal(c *circuit.Circuit, q int, u cmat) {
	a, b, g, phase := eulerZXZ(u)
	c.Phase += phase
	if math.Abs(b) < 1e-11 {
		// Rz has period 4pi: reduce into [0, 4pi) and split the two
		// identity-like classes, since Rz(2pi) is -I rather than I.
		t := math.Mod(a+g, 4*math.Pi)
		if t < 0 {
			t += 4 * math.Pi
		}
		switch {
		case t < 1e-11 || 4*math.Pi-t < 1e-11:
			return
		case math.Abs(t-2*math.Pi) < 1e-11:
			c.Phase += math.Pi
			return
		}
		c.Add1(circuit.Rz, q, a+g)
		return
	}
	c.Add1(circuit.TK1, q, a, b, g)
}

// skeleton2CX is the bare frame CX (Rx(-2x) ox Rz(-2y)) CX, which
// carries interaction class (x, y, 0).
func skeleton2CX(x, y float64) []circuit.Gate {
	return []circuit.Gate{
		{Op: circuit.CX, Qubits: []int{0, 1}},
		{Op: circuit.Rx, Qubits: []int{0}, Params: []float64{-2 * x}},
		{Op: circuit.Rz, Qubits: []int{1}, Params: []float64{-2 * y}},
		{Op: circuit.CX, Qubits: []int{0, 1}},
	}
}

// skeleton3CX is the five-parameter frame
// CX (Rx(a) ox Rz(b)) CX ((Rz(h)Rx(f)) ox Rz(g)) CX.
func skeleton3CX(p [5]float64) []circuit.Gate {
	a, b, f, g, h := p[0], p[1], p[2], p[3], p[4]
	return []circuit.Gate{
		{Op: circuit.CX, Qubits: []int{0, 1}},
		{Op: circuit.Rx, Qubits: []int{0}, Params: []float64{f}},
		{Op: circuit.Rz, Qubits: []int{0}, Params: []float64{h}},
		{Op: circuit.Rz, Qubits: []int{1}, Params: []float64{g}},
		{Op: circuit.CX, Qubits: []int{0, 1}},
		{Op: circuit.Rx, Qubits: []int{0}, Params: []float64{a}},
		{Op: circuit.Rz, Qubits: []int{1}, Params: []float64{b}},
		{Op: circuit.CX, Qubits: []int{0, 1}},
	}
}

// skeleton4CX realizes exp(i(x XX + y YY + z ZZ)) exactly: a ZZ block
// and the V-dressed two-CX block for the XX and YY parts.
func skeleton4CX(x, y, z float64) []circuit.Gate {
	gates := []circuit.Gate{
		{Op: circuit.CX, Qubits: []int{0, 1}},
		{Op: circuit.Rz, Qubits: []int{1}, Params: []float64{-2 * z}},
		{Op: circuit.CX, Qubits: []int{0, 1}},
		{Op: circuit.Vdg, Qubits: []int{0}},
		{Op: circuit.Vdg, Qubits: []int{1}},
	}
	gates = append(gates, skeleton2CX(x, y)...)
	gates = append(gates,
		circuit.Gate{Op: circuit.V, Qubits: []int{0}},
		circuit.Gate{Op: circuit.V, Qubits: []int{1}},
	)
	return gates
}

var skeletonSWAP = []circuit.Gate{
	{Op: circuit.CX, Qubits: []int{0, 1}},
	{Op: circuit.CX, Qubits: []int{1, 0}},
	{Op: circuit.CX, Qubits: []int{0, 1}},
}

var skeleton1CX = []circuit.Gate{
	{Op: circuit.CX, Qubits: []int{0, 1}},
}

// matchSkeleton writes u as outer locals around a skeleton sharing
// its interaction class. Both sides are decomposed against the same
// canonical interaction, so the quotient of the local factors is
// exact.
func matchSkeleton(u cmat, du *Decomposition, sk []circuit.Gate) (*circuit.Circuit, error) {
	su, err := windowUnitary(sk)
	if err != nil {
		return nil, err
	}
	ds, err := Decompose(su)
	if err != nil {
		return nil, fmt.Errorf("skeleton decomposition: %v", err)
	}
	for i := 0; i < 3; i++ {
		if math.Abs(du.Coords()[i]-ds.Coords()[i]) > 1e-7 {
			return nil, fmt.Errorf("skeleton class (%v) does not match target (%v)", ds.Coords(), du.Coords())
		}
	}
	out := circuit.New(2)
	out.Phase = du.Phase - ds.Phase
	appendLocal(out, 0, mul(dag(ds.R0), du.R0))
	appendLocal(out, 1, mul(dag(ds.R1), du.R1))
	for _, g := range sk {
		out.Gates = append(out.Gates, circuit.Gate{
			Op:     g.Op,
			Qubits: append([]int(nil), g.Qubits...),
			Params: append([]float64(nil), g.Params...),
		})
	}
	appendLocal(out, 0, mul(du.L0, dag(ds.L0)))
	appendLocal(out, 1, mul(du.L1, dag(ds.L1)))
	return out, nil
}

// localOnly emits u = e^{i phase} (L0 R0 ox L1 R1) without any
// two-qubit gate.
func localOnly(d *Decomposition) *circuit.Circuit {
	out := circuit.New(2)
	out.Phase = d.Phase
	appendLocal(out, 0, mul(d.L0, d.R0))
	appendLocal(out, 1, mul(d.L1, d.R1))
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < snapTol }

// synthCXFixed builds a CX realisation of u without permuting wires.
func synthCXFixed(u cmat) (*circuit.Circuit, error) {
	d, err := Decompose(u)
	if err != nil {
		return nil, err
	}
	x, y, z := d.X, d.Y, d.Z
	var out *circuit.Circuit
	switch {
	case near(x, 0) && near(y, 0) && near(z, 0):
		out = localOnly(d)
	case near(x, math.Pi/4) && near(y, 0) && near(z, 0):
		out, err = matchSkeleton(u, d, skeleton1CX)
	case near(z, 0):
		out, err = matchSkeleton(u, d, skeleton2CX(x, y))
	case near(x, math.Pi/4) && near(y, math.Pi/4) && near(z, math.Pi/4):
		out, err = matchSkeleton(u, d, skeletonSWAP)
	default:
		if p, ok := search3CX(x, y, z); ok {
			out, err = matchSkeleton(u, d, skeleton3CX(p))
			if err != nil {
				out, err = matchSkeleton(u, d, skeleton4CX(x, y, z))
			}
		} else {
			out, err = matchSkeleton(u, d, skeleton4CX(x, y, z))
		}
	}
	if err != nil {
		return nil, err
	}
	got, err := circuitUnitary(out)
	if err != nil {
		return nil, err
	}
	if diff := maxDiff(got, u); diff > 1e-7 {
		return nil, fmt.Errorf("synthesis residual %g at class (%g, %g, %g)", diff, x, y, z)
	}
	return out, nil
}

// SynthesiseCX rewrites a two-qubit unitary over {CX, TK1, Rz}. With
// allowSwaps the mirrored unitary is also tried and the wire swap is
// recorded in the output permutation instead of gates.
func SynthesiseCX(u cmat, allowSwaps bool) (*circuit.Circuit, error) {
	direct, err := synthCXFixed(u)
	if err != nil {
		return nil, err
	}
	if !allowSwaps {
		return direct, nil
	}
	mirror, merr := synthCXFixed(mul(swapMat, u))
	if merr == nil && mirror.NTwoQubitGates() < direct.NTwoQubitGates() {
		mirror.Perm = []int{1, 0}
		return mirror, nil
	}
	return direct, nil
}

// SynthesiseTK2 rewrites a two-qubit unitary as locals around at most
// one TK2 gate.
func SynthesiseTK2(u cmat) (*circuit.Circuit, error) {
	d, err := Decompose(u)
	if err != nil {
		return nil, err
	}
	var out *circuit.Circuit
	if near(d.X, 0) && near(d.Y, 0) && near(d.Z, 0) {
		out = localOnly(d)
	} else {
		out = circuit.New(2)
		out.Phase = d.Phase
		appendLocal(out, 0, d.R0)
		appendLocal(out, 1, d.R1)
		out.Add2(circuit.TK2, 0, 1, -2*d.X, -2*d.Y, -2*d.Z)
		appendLocal(out, 0, d.L0)
		appendLocal(out, 1, d.L1)
	}
	got, err := circuitUnitary(out)
	if err != nil {
		return nil, err
	}
	if diff := maxDiff(got, u); diff > 1e-7 {
		return nil, fmt.Errorf("synthesis residual %g", diff)
	}
	return out, nil
}
