package cartan

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbitshift/qopt/circuit"
)

// randGates2 draws a random two-qubit gate window.
func randGates2(rnd *rand.Rand, n int) []circuit.Gate {
	ops := []circuit.OpType{
		circuit.CX, circuit.CZ, circuit.SWAP, circuit.ZZPhase, circuit.XXPhase,
		circuit.H, circuit.S, circuit.V, circuit.TK1, circuit.Rz, circuit.Ry,
	}
	var out []circuit.Gate
	for i := 0; i < n; i++ {
		op := ops[rnd.Intn(len(ops))]
		var qs []int
		if op.NQubits() == 2 {
			if rnd.Intn(2) == 0 {
				qs = []int{0, 1}
			} else {
				qs = []int{1, 0}
			}
		} else {
			qs = []int{rnd.Intn(2)}
		}
		ps := make([]float64, op.NParams())
		for j := range ps {
			ps[j] = (rnd.Float64()*2 - 1) * 2 * math.Pi
		}
		out = append(out, circuit.Gate{Op: op, Qubits: qs, Params: ps})
	}
	return out
}

func randUnitary2(rnd *rand.Rand) cmat {
	u, err := windowUnitary(randGates2(rnd, 14))
	if err != nil {
		panic(err)
	}
	return u
}

func TestDecomposeKnownClasses(t *testing.T) {
	d, err := Decompose(eye(4))
	require.NoError(t, err)
	assert.InDelta(t, 0, d.X, 1e-9)
	assert.InDelta(t, 0, d.Y, 1e-9)
	assert.InDelta(t, 0, d.Z, 1e-9)

	d, err = Decompose(cxMat)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, d.X, 1e-9)
	assert.InDelta(t, 0, d.Y, 1e-9)
	assert.InDelta(t, 0, d.Z, 1e-9)

	d, err = Decompose(swapMat)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, d.X, 1e-9)
	assert.InDelta(t, math.Pi/4, d.Y, 1e-9)
	assert.InDelta(t, math.Pi/4, d.Z, 1e-9)

	// CZ is locally equivalent to CX.
	cz, err := windowUnitary([]circuit.Gate{{Op: circuit.CZ, Qubits: []int{0, 1}}})
	require.NoError(t, err)
	d, err = Decompose(cz)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, d.X, 1e-9)
	assert.InDelta(t, 0, d.Y, 1e-9)
}

func TestDecomposeLocalProducts(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		a := mulAll(rz2(rnd.Float64()*6), rx2(rnd.Float64()*6), rz2(rnd.Float64()*6))
		b := mulAll(rz2(rnd.Float64()*6), rx2(rnd.Float64()*6), rz2(rnd.Float64()*6))
		d, err := Decompose(kron(a, b))
		require.NoError(t, err)
		assert.InDelta(t, 0, d.X, 1e-8)
		assert.InDelta(t, 0, d.Y, 1e-8)
		assert.InDelta(t, 0, d.Z, 1e-8)
	}
}

func TestDecomposeReconstructsRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for i := 0; i < 40; i++ {
		u := randUnitary2(rnd)
		d, err := Decompose(u)
		require.NoError(t, err, "case %d", i)
		assert.LessOrEqual(t, d.Y, d.X+1e-9)
		assert.LessOrEqual(t, math.Abs(d.Z), d.Y+1e-9)
		assert.LessOrEqual(t, d.X, math.Pi/4+1e-9)
		assert.Less(t, maxDiff(u, d.Reconstruct()), 1e-7, "case %d", i)
	}
}

func TestDecomposeRejectsNonUnitary(t *testing.T) {
	m := eye(4)
	m[0][0] = 2
	_, err := Decompose(m)
	assert.ErrorContains(t, err, "not unitary")
}

func TestInteractionMirror(t *testing.T) {
	// Multiplying by SWAP exchanges the x = pi/4 wall and the z = 0
	// face.
	n := interaction(0.3, 0.2, 0.1)
	d, err := Decompose(mul(swapMat, n))
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4-0.1, d.X, 1e-9)
	assert.InDelta(t, math.Pi/4-0.2, d.Y, 1e-9)
	assert.InDelta(t, math.Pi/4-0.3, math.Abs(d.Z), 1e-9)
}

func TestEulerRoundTrips(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		u := mulAll(rz2(rnd.Float64()*7), rx2(rnd.Float64()*7), rz2(rnd.Float64()*7))
		a, b, c, ph := eulerZXZ(u)
		re := scale(complexExp(ph), mulAll(rz2(a), rx2(b), rz2(c)))
		assert.Less(t, maxDiff(u, re), 1e-10)

		a, b, c, ph = eulerZYZ(u)
		re = scale(complexExp(ph), mulAll(rz2(a), ry2(b), rz2(c)))
		assert.Less(t, maxDiff(u, re), 1e-10)
	}
}

func TestFactorKron(t *testing.T) {
	a := mulAll(rz2(0.3), rx2(1.1))
	b := mulAll(rx2(2.2), rz2(0.9))
	fa, fb, ph, err := factorKron(kron(a, b))
	require.NoError(t, err)
	re := scale(complexExp(ph), kron(fa, fb))
	assert.Less(t, maxDiff(kron(a, b), re), 1e-10)

	_, _, _, err = factorKron(cxMat)
	assert.Error(t, err)
}
