package cartan

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbitshift/qopt/circuit"
)

func asCircuit2(gates []circuit.Gate) *circuit.Circuit {
	c := circuit.New(2)
	c.Gates = append(c.Gates, gates...)
	return c
}

func requireEquivalent(t *testing.T, a, b *circuit.Circuit) {
	t.Helper()
	ok, err := circuit.Equivalent(a, b, 1e-6)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSynthesiseCXClasses(t *testing.T) {
	// Local class: no entangler at all.
	u := kron(mulAll(rz2(0.4), rx2(1.2)), mulAll(rx2(0.7), rz2(2.1)))
	syn, err := SynthesiseCX(u, false)
	require.NoError(t, err)
	assert.Equal(t, 0, syn.NTwoQubitGates())

	// CX class dressed in locals: one CX.
	dressed := mulAll(kron(rz2(1.1), rx2(0.3)), cxMat, kron(rx2(2.2), rz2(0.5)))
	syn, err = SynthesiseCX(dressed, false)
	require.NoError(t, err)
	assert.Equal(t, 1, syn.CountOps(circuit.CX))

	// z = 0 face: two CX.
	face, err := windowUnitary([]circuit.Gate{
		{Op: circuit.ZZPhase, Qubits: []int{0, 1}, Params: []float64{0.7}},
		{Op: circuit.H, Qubits: []int{0}},
		{Op: circuit.XXPhase, Qubits: []int{0, 1}, Params: []float64{0.4}},
	})
	require.NoError(t, err)
	syn, err = SynthesiseCX(face, false)
	require.NoError(t, err)
	assert.LessOrEqual(t, syn.CountOps(circuit.CX), 2)
}

func TestSynthesiseCXWeylWalls(t *testing.T) {
	// Dressed SWAP class, interaction point (pi/4, pi/4, pi/4).
	u := mulAll(kron(rz2(0.8), rx2(1.7)), swapMat, kron(rx2(0.2), rz2(2.9)))
	syn, err := SynthesiseCX(u, false)
	require.NoError(t, err)
	assert.Equal(t, 3, syn.CountOps(circuit.CX))
	got, err := circuitUnitary(syn)
	require.NoError(t, err)
	assert.Less(t, maxDiff(got, u), 1e-6)

	// CX class with a -1 overall factor. The negated local comes back
	// from the Euler split as Rz(2pi), which must land in the phase.
	u = scale(-1, mulAll(kron(rz2(1.1), rx2(0.3)), cxMat, kron(rx2(2.2), rz2(0.5))))
	syn, err = SynthesiseCX(u, false)
	require.NoError(t, err)
	assert.Equal(t, 1, syn.CountOps(circuit.CX))
	got, err = circuitUnitary(syn)
	require.NoError(t, err)
	assert.Less(t, maxDiff(got, u), 1e-6)
}

func TestAppendLocalPhaseClasses(t *testing.T) {
	for i, m := range []cmat{
		scale(-1, eye(2)),
		scale(complex(0, 1), eye(2)),
		scale(complex(0, -1), eye(2)),
		scale(-1, rz2(0.6)),
		scale(-1, rx2(1.3)),
	} {
		c := circuit.New(2)
		appendLocal(c, 0, m)
		got, err := circuitUnitary(c)
		require.NoError(t, err, "case %d", i)
		assert.Less(t, maxDiff(got, kron(m, eye(2))), 1e-9, "case %d", i)
	}
}

func TestSynthesiseCXGeneric(t *testing.T) {
	rnd := rand.New(rand.NewSource(21))
	for i := 0; i < 8; i++ {
		u := randUnitary2(rnd)
		syn, err := SynthesiseCX(u, false)
		require.NoError(t, err, "case %d", i)
		assert.LessOrEqual(t, syn.CountOps(circuit.CX), 4)
		got, err := circuitUnitary(syn)
		require.NoError(t, err)
		assert.Less(t, maxDiff(got, u), 1e-6, "case %d", i)
	}
}

func TestSynthesiseCXSwapAbsorption(t *testing.T) {
	syn, err := SynthesiseCX(swapMat, true)
	require.NoError(t, err)
	assert.Equal(t, 0, syn.NTwoQubitGates())
	assert.Equal(t, []int{1, 0}, syn.Perm)
	got, err := circuitUnitary(syn)
	require.NoError(t, err)
	assert.Less(t, maxDiff(got, swapMat), 1e-7)

	syn, err = SynthesiseCX(swapMat, false)
	require.NoError(t, err)
	assert.Equal(t, 3, syn.CountOps(circuit.CX))
}

func TestSynthesiseTK2(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	for i := 0; i < 10; i++ {
		u := randUnitary2(rnd)
		syn, err := SynthesiseTK2(u)
		require.NoError(t, err)
		assert.LessOrEqual(t, syn.CountOps(circuit.TK2), 1)
		got, err := circuitUnitary(syn)
		require.NoError(t, err)
		assert.Less(t, maxDiff(got, u), 1e-6)
	}
}

func TestTwoQubitSquashCancelsLadder(t *testing.T) {
	c := circuit.New(3)
	c.Add1(circuit.H, 2)
	c.Add2(circuit.CX, 0, 1)
	c.Add2(circuit.CX, 0, 1)
	c.Add1(circuit.Rz, 2, 0.4)
	orig := c.Clone()
	ch, err := TwoQubitSquash(TargetCX, false).Apply(c)
	require.NoError(t, err)
	assert.True(t, ch)
	assert.Equal(t, 0, c.NTwoQubitGates())
	requireEquivalent(t, orig, c)
}

func TestTwoQubitSquashMonotone(t *testing.T) {
	rnd := rand.New(rand.NewSource(13))
	for i := 0; i < 6; i++ {
		c := circuit.New(3)
		for j := 0; j < 10; j++ {
			for _, g := range randGates2(rnd, 1) {
				qs := make([]int, len(g.Qubits))
				base := rnd.Intn(2)
				for k, x := range g.Qubits {
					qs[k] = x + base
				}
				c.Gates = append(c.Gates, circuit.Gate{Op: g.Op, Qubits: qs, Params: g.Params})
			}
		}
		orig := c.Clone()
		before := c.NTwoQubitGates()
		_, err := TwoQubitSquash(TargetCX, true).Apply(c)
		require.NoError(t, err, "case %d", i)
		assert.LessOrEqual(t, c.NTwoQubitGates(), before)
		requireEquivalent(t, orig, c)
	}
}

func TestTwoQubitSquashSwapPropagates(t *testing.T) {
	// A bare SWAP window turns into a relabelling that downstream
	// gates must follow.
	c := circuit.New(3)
	c.Add2(circuit.SWAP, 0, 1)
	c.Add1(circuit.Rz, 0, 0.9)
	c.Add2(circuit.CX, 1, 2)
	orig := c.Clone()
	_, err := TwoQubitSquash(TargetCX, true).Apply(c)
	require.NoError(t, err)
	assert.NotNil(t, c.Perm)
	requireEquivalent(t, orig, c)
}

func TestReplaceCX(t *testing.T) {
	for _, native := range []circuit.OpType{circuit.ZZMax, circuit.XXPhase, circuit.ECR} {
		c := circuit.New(2)
		c.Add1(circuit.Ry, 0, 0.3)
		c.Add2(circuit.CX, 0, 1)
		orig := c.Clone()
		ch, err := ReplaceCX(native).Apply(c)
		require.NoError(t, err, "%v", native)
		assert.True(t, ch)
		assert.Equal(t, 0, c.CountOps(circuit.CX))
		assert.Equal(t, 1, c.CountOps(native))
		requireEquivalent(t, orig, c)
	}
}

func TestSquash1QTargets(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	mk := func() *circuit.Circuit {
		c := circuit.New(2)
		for i := 0; i < 6; i++ {
			q := rnd.Intn(2)
			switch rnd.Intn(4) {
			case 0:
				c.Add1(circuit.Rz, q, rnd.Float64()*6)
			case 1:
				c.Add1(circuit.Rx, q, rnd.Float64()*6)
			case 2:
				c.Add1(circuit.H, q)
			default:
				c.Add1(circuit.S, q)
			}
		}
		c.Add2(circuit.CX, 0, 1)
		c.Add1(circuit.Ry, 1, rnd.Float64()*6)
		return c
	}

	for _, tc := range []struct {
		target OneQubitTarget
		set    []circuit.OpType
	}{
		{TargetTK1, []circuit.OpType{circuit.TK1, circuit.CX}},
		{TargetRzSX, []circuit.OpType{circuit.Rz, circuit.SX, circuit.CX}},
		{TargetRzPhasedX, []circuit.OpType{circuit.Rz, circuit.PhasedX, circuit.CX}},
	} {
		c := mk()
		orig := c.Clone()
		_, err := Squash1Q(tc.target).Apply(c)
		require.NoError(t, err)
		assert.True(t, c.InGateSet(tc.set...), "target %d: %v", tc.target, c)
		requireEquivalent(t, orig, c)
	}
}

func TestSquash1QFixpoint(t *testing.T) {
	c := circuit.New(1)
	c.Add1(circuit.H, 0)
	c.Add1(circuit.H, 0)
	ch, err := Squash1Q(TargetTK1).Apply(c)
	require.NoError(t, err)
	assert.True(t, ch)
	assert.Equal(t, 0, len(c.Gates))

	ch, err = Squash1Q(TargetTK1).Apply(c)
	require.NoError(t, err)
	assert.False(t, ch)
}

func TestCanonicalCoordsAgree(t *testing.T) {
	rnd := rand.New(rand.NewSource(29))
	for i := 0; i < 30; i++ {
		u := randUnitary2(rnd)
		d, err := Decompose(u)
		require.NoError(t, err)
		c, err := coordsOf(u)
		require.NoError(t, err)
		assert.InDelta(t, d.X, c[0], 1e-7)
		assert.InDelta(t, d.Y, c[1], 1e-7)
		assert.InDelta(t, math.Abs(d.Z), math.Abs(c[2]), 1e-7)
	}
}
