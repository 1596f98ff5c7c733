package gadget

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qbitshift/qopt/circuit"
)

func requireEquivalent(t *testing.T, a, b *circuit.Circuit) {
	t.Helper()
	ok, err := circuit.Equivalent(a, b, 1e-6)
	require.NoError(t, err)
	require.True(t, ok, "circuits differ:\n%v\nvs\n%v", a, b)
}

func randDiagonalRun(r *rand.Rand, n, m int) *circuit.Circuit {
	c := circuit.New(n)
	for i := 0; i < m; i++ {
		q := r.Intn(n)
		p := r.Intn(n - 1)
		if p >= q {
			p++
		}
		switch r.Intn(7) {
		case 0:
			c.Add2(circuit.CX, q, p)
		case 1:
			c.Add1(circuit.Rz, q, r.Float64()*4-2)
		case 2:
			c.Add1(circuit.X, q)
		case 3:
			c.Add2(circuit.CZ, q, p)
		case 4:
			c.Add2(circuit.ZZPhase, q, p, r.Float64()*4-2)
		case 5:
			c.Add1(circuit.S, q)
		default:
			c.Add(circuit.PhaseGadget, []int{0, 1, 2}, r.Float64()*4-2)
		}
	}
	return c
}

func TestResynthesisPreservesUnitary(t *testing.T) {
	for _, cfg := range []CXConfig{Snake, Star, Tree} {
		for seed := int64(0); seed < 12; seed++ {
			r := rand.New(rand.NewSource(seed))
			c := randDiagonalRun(r, 3, 15)
			orig := c.Clone()
			_, err := Resynthesis(cfg).Apply(c)
			require.NoError(t, err, "cfg %v seed %d", cfg, seed)
			requireEquivalent(t, orig, c)
		}
	}
}

func TestMergesEqualSupports(t *testing.T) {
	// Two ZZ rotations on the same pair must fuse into one gadget.
	c := circuit.New(2)
	c.Add2(circuit.CX, 0, 1)
	c.Add1(circuit.Rz, 1, 0.3)
	c.Add2(circuit.CX, 0, 1)
	c.Add2(circuit.ZZPhase, 0, 1, 0.4)
	orig := c.Clone()

	changed, err := Resynthesis(Snake).Apply(c)
	require.NoError(t, err)
	require.True(t, changed)
	requireEquivalent(t, orig, c)
	rz := 0
	for _, g := range c.Gates {
		if g.Op == circuit.Rz {
			rz++
			require.InDelta(t, 0.7, g.Params[0], 1e-12)
		}
	}
	require.Equal(t, 1, rz)
	require.Equal(t, 2, c.CountOps(circuit.CX))
}

func TestCancelsOppositeRotations(t *testing.T) {
	c := circuit.New(2)
	c.Add2(circuit.ZZPhase, 0, 1, 0.9)
	c.Add2(circuit.CX, 0, 1)
	c.Add1(circuit.Rz, 1, -0.9)
	c.Add2(circuit.CX, 0, 1)
	orig := c.Clone()

	changed, err := Resynthesis(Snake).Apply(c)
	require.NoError(t, err)
	require.True(t, changed)
	requireEquivalent(t, orig, c)
	require.Equal(t, 0, c.NGates())
}

func TestAffineFlipsRotationSense(t *testing.T) {
	c := circuit.New(1)
	c.Add1(circuit.X, 0)
	c.Add1(circuit.Rz, 0, 0.4)
	c.Add1(circuit.X, 0)
	orig := c.Clone()

	_, err := Resynthesis(Snake).Apply(c)
	require.NoError(t, err)
	requireEquivalent(t, orig, c)
	for _, g := range c.Gates {
		require.NotEqual(t, circuit.X, g.Op, "X conjugation should be absorbed")
	}
}

func TestLadderShapes(t *testing.T) {
	for _, cfg := range []CXConfig{Snake, Star, Tree} {
		c := circuit.New(4)
		c.Add(circuit.PhaseGadget, []int{0, 1, 2, 3}, 0.7)
		orig := c.Clone()
		_, err := Resynthesis(cfg).Apply(c)
		require.NoError(t, err)
		requireEquivalent(t, orig, c)
		require.Equal(t, 6, c.CountOps(circuit.CX), "cfg %v", cfg)
		require.Equal(t, 1, c.CountOps(circuit.Rz))
	}
}

func TestSharedPrefixCancellation(t *testing.T) {
	// Nested gadgets share ladder structure that cancels pairwise.
	c := circuit.New(3)
	c.Add(circuit.PhaseGadget, []int{0, 1}, 0.3)
	c.Add(circuit.PhaseGadget, []int{0, 1, 2}, 0.5)
	orig := c.Clone()
	_, err := Resynthesis(Snake).Apply(c)
	require.NoError(t, err)
	requireEquivalent(t, orig, c)
	require.Less(t, c.NGates(), 9)
}

func TestPassesThroughForeignGates(t *testing.T) {
	c := circuit.New(2)
	c.Add2(circuit.CX, 0, 1)
	c.Add1(circuit.H, 0)
	c.Add2(circuit.CX, 0, 1)
	orig := c.Clone()
	_, err := Resynthesis(Snake).Apply(c)
	require.NoError(t, err)
	requireEquivalent(t, orig, c)
	require.Equal(t, 1, c.CountOps(circuit.H))
}

func TestIdempotent(t *testing.T) {
	for _, cfg := range []CXConfig{Snake, Star, Tree} {
		for seed := int64(0); seed < 8; seed++ {
			r := rand.New(rand.NewSource(seed))
			c := randDiagonalRun(r, 3, 12)
			_, err := Resynthesis(cfg).Apply(c)
			require.NoError(t, err)
			changed, err := Resynthesis(cfg).Apply(c)
			require.NoError(t, err)
			require.False(t, changed, "cfg %v seed %d", cfg, seed)
		}
	}
}
