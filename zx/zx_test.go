package zx

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qbitshift/qopt/circuit"
	"github.com/qbitshift/qopt/transform"
)

func requireEquivalent(t *testing.T, a, b *circuit.Circuit) {
	t.Helper()
	ok, err := circuit.Equivalent(a, b, 1e-6)
	require.NoError(t, err)
	require.True(t, ok, "circuits differ:\n%v\nvs\n%v", a, b)
}

func randZXCircuit(r *rand.Rand, n, m int) *circuit.Circuit {
	c := circuit.New(n)
	for i := 0; i < m; i++ {
		q := r.Intn(n)
		switch r.Intn(6) {
		case 0:
			c.Add1(circuit.H, q)
		case 1:
			c.Add1(circuit.S, q)
		case 2:
			c.Add1(circuit.Rz, q, r.Float64()*4-2)
		case 3:
			c.Add1(circuit.Rx, q, math.Pi/2)
		default:
			p := r.Intn(n - 1)
			if p >= q {
				p++
			}
			if r.Intn(2) == 0 {
				c.Add2(circuit.CX, q, p)
			} else {
				c.Add2(circuit.CZ, q, p)
			}
		}
	}
	return c
}

func TestDiagramFromCZ(t *testing.T) {
	c := circuit.New(2)
	c.Add2(circuit.CZ, 0, 1)
	d, err := FromCircuit(c)
	require.NoError(t, err)
	require.Equal(t, 2, d.NSpiders())
	require.True(t, d.connected(d.outputs[0].spider, d.outputs[1].spider))
}

func TestExtractEmptyCircuit(t *testing.T) {
	d, err := FromCircuit(circuit.New(3))
	require.NoError(t, err)
	out, err := d.Extract()
	require.NoError(t, err)
	require.Equal(t, 0, out.NGates())
	require.Nil(t, out.Perm)
}

func TestRoundTripWithoutSimplify(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		r := rand.New(rand.NewSource(seed))
		c := randZXCircuit(r, 3, 16)
		d, err := FromCircuit(c)
		require.NoError(t, err)
		out, err := d.Extract()
		require.NoError(t, err)
		requireEquivalent(t, c, out)
	}
}

func TestRoundTripWithSimplify(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		r := rand.New(rand.NewSource(seed))
		c := randZXCircuit(r, 3, 16)
		d, err := FromCircuit(c)
		require.NoError(t, err)
		d.Simplify()
		out, err := d.Extract()
		require.NoError(t, err)
		requireEquivalent(t, c, out)
	}
}

func TestSimplifyRemovesInteriorCliffords(t *testing.T) {
	// A sandwich of Hadamards and an S leaves interior Clifford
	// spiders that local complementation should consume.
	c := circuit.New(2)
	c.Add1(circuit.H, 0)
	c.Add1(circuit.S, 0)
	c.Add1(circuit.H, 0)
	c.Add2(circuit.CX, 0, 1)
	c.Add1(circuit.H, 1)
	c.Add1(circuit.Sdg, 1)
	c.Add1(circuit.H, 1)
	d, err := FromCircuit(c)
	require.NoError(t, err)
	before := d.NSpiders()
	require.True(t, d.Simplify())
	require.Less(t, d.NSpiders(), before)
	out, err := d.Extract()
	require.NoError(t, err)
	requireEquivalent(t, c, out)
}

func TestGraphlikeTransform(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	c := randZXCircuit(r, 3, 14)
	orig := c.Clone()
	_, err := Graphlike().Apply(c)
	require.NoError(t, err)
	requireEquivalent(t, orig, c)
}

func TestGraphlikeWiderCircuits(t *testing.T) {
	// Wider circuits leave frontier spiders still wired to inputs
	// after simplification; extraction has to route through them.
	for seed := int64(0); seed < 10; seed++ {
		r := rand.New(rand.NewSource(seed))
		c := randZXCircuit(r, 4, 24)
		orig := c.Clone()
		_, err := Graphlike().Apply(c)
		require.NoError(t, err, "seed %d", seed)
		requireEquivalent(t, orig, c)
	}
}

func TestGraphlikeSwapBecomesPermutation(t *testing.T) {
	c := circuit.New(2)
	c.Add2(circuit.CX, 0, 1)
	c.Add2(circuit.CX, 1, 0)
	c.Add2(circuit.CX, 0, 1)
	orig := c.Clone()
	changed, err := Graphlike().Apply(c)
	require.NoError(t, err)
	require.True(t, changed)
	requireEquivalent(t, orig, c)
	require.Equal(t, 0, c.NGates())
	require.Equal(t, []int{1, 0}, c.Perm)
}

func TestGraphlikeRejectsNonUnitary(t *testing.T) {
	c := circuit.New(2)
	c.Add1(circuit.H, 0)
	c.Add(circuit.Measure, []int{0})
	orig := c.Clone()
	changed, err := Graphlike().Apply(c)
	require.ErrorIs(t, err, transform.ErrPrecondition)
	require.False(t, changed)
	require.True(t, orig.SameGates(c), "circuit must not be mutated on precondition failure")
}
