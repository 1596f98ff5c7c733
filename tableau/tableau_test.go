package tableau

import (
	"math"
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

// randClifford draws gates from the tableau primitive set.
func randClifford(r *rand.Rand, n, m int) *circuit.Circuit {
	c := circuit.New(n)
	for i := 0; i < m; i++ {
		q := r.Intn(n)
		switch r.Intn(6) {
		case 0:
			c.Add1(circuit.H, q)
		case 1:
			c.Add1(circuit.S, q)
		case 2:
			c.Add1(circuit.Sdg, q)
		case 3:
			c.Add1(circuit.X, q)
		case 4:
			c.Add1(circuit.Z, q)
		default:
			p := r.Intn(n - 1)
			if p >= q {
				p++
			}
			c.Add2(circuit.CX, q, p)
		}
	}
	return c
}

func foldPrimitives(t *Tableau, c *circuit.Circuit) {
	for _, g := range c.Gates {
		switch g.Op {
		case circuit.H:
			t.AppendH(g.Qubits[0])
		case circuit.S:
			t.AppendS(g.Qubits[0])
		case circuit.Sdg:
			t.AppendSdg(g.Qubits[0])
		case circuit.X:
			t.AppendX(g.Qubits[0])
		case circuit.Z:
			t.AppendZ(g.Qubits[0])
		case circuit.CX:
			t.AppendCX(g.Qubits[0], g.Qubits[1])
		}
	}
}

func TestSynthesizeIdentity(t *testing.T) {
	syn, err := New(3).Synthesize()
	require.NoError(t, err)
	require.Equal(t, 0, syn.NGates())
}

func TestSynthesizeRoundTrip(t *testing.T) {
	for seed := int64(0); seed < 25; seed++ {
		r := rand.New(rand.NewSource(seed))
		c := randClifford(r, 3, 20)
		tab := New(3)
		foldPrimitives(tab, c)
		syn, err := tab.Synthesize()
		require.NoError(t, err)
		requireEquivalent(t, c, syn)
	}
}

func TestConjugateKnown(t *testing.T) {
	tab := New(2)
	tab.AppendH(0)
	x, z, sign, err := tab.Conjugate([]int{0}, []Axis{AxisZ})
	require.NoError(t, err)
	require.Equal(t, 1, sign)
	require.True(t, x.Test(0))
	require.False(t, z.Test(0))

	tab = New(2)
	tab.AppendS(0)
	x, z, sign, err = tab.Conjugate([]int{0}, []Axis{AxisX})
	require.NoError(t, err)
	require.Equal(t, -1, sign)
	require.True(t, x.Test(0))
	require.True(t, z.Test(0))

	tab = New(2)
	tab.AppendCX(0, 1)
	x, z, sign, err = tab.Conjugate([]int{1}, []Axis{AxisZ})
	require.NoError(t, err)
	require.Equal(t, 1, sign)
	require.Equal(t, uint(0), x.Count())
	require.True(t, z.Test(0))
	require.True(t, z.Test(1))
}

func TestQuarterTurns(t *testing.T) {
	k, ok := quarterTurns(math.Pi / 2)
	require.True(t, ok)
	require.Equal(t, 1, k)
	k, ok = quarterTurns(-math.Pi / 2)
	require.True(t, ok)
	require.Equal(t, 3, k)
	k, ok = quarterTurns(2 * math.Pi)
	require.True(t, ok)
	require.Equal(t, 0, k)
	_, ok = quarterTurns(0.3)
	require.False(t, ok)
}

func TestResynthesisCliffordOnly(t *testing.T) {
	c := circuit.New(3)
	c.Add1(circuit.SX, 0)
	c.Add2(circuit.CZ, 0, 1)
	c.Add2(circuit.SWAP, 1, 2)
	c.Add1(circuit.Vdg, 2)
	c.Add2(circuit.ZZMax, 0, 2)
	c.Add1(circuit.Y, 1)
	orig := c.Clone()

	_, err := Resynthesis().Apply(c)
	require.NoError(t, err)
	requireEquivalent(t, orig, c)
	require.True(t, c.InGateSet(circuit.CX, circuit.H, circuit.S, circuit.Sdg, circuit.X, circuit.Z))

	again := c.Clone()
	changed, err := Resynthesis().Apply(again)
	require.NoError(t, err)
	require.False(t, changed)
}

func TestResynthesisPushesRotationThroughH(t *testing.T) {
	c := circuit.New(1)
	c.Add1(circuit.H, 0)
	c.Add1(circuit.Rz, 0, 0.3)
	c.Add1(circuit.H, 0)
	orig := c.Clone()

	changed, err := Resynthesis().Apply(c)
	require.NoError(t, err)
	require.True(t, changed)
	requireEquivalent(t, orig, c)
	require.Equal(t, 0, c.NTwoQubitGates())
}

func TestResynthesisBuildsPhaseGadget(t *testing.T) {
	c := circuit.New(2)
	c.Add2(circuit.CX, 0, 1)
	c.Add1(circuit.Rz, 1, 0.5)
	c.Add2(circuit.CX, 0, 1)
	orig := c.Clone()

	changed, err := Resynthesis().Apply(c)
	require.NoError(t, err)
	require.True(t, changed)
	requireEquivalent(t, orig, c)
	require.Equal(t, 0, c.CountOps(circuit.CX))
	require.Equal(t, 1, c.CountOps(circuit.PhaseGadget))
}

func TestResynthesisRandomMixed(t *testing.T) {
	for seed := int64(0); seed < 15; seed++ {
		r := rand.New(rand.NewSource(seed))
		c := circuit.New(3)
		for i := 0; i < 18; i++ {
			q := r.Intn(3)
			switch r.Intn(4) {
			case 0:
				c.Add1(circuit.H, q)
			case 1:
				c.Add1(circuit.Rz, q, r.Float64()*4-2)
			case 2:
				c.Add1(circuit.Rx, q, float64(r.Intn(4))*math.Pi/2)
			default:
				p := r.Intn(2)
				if p >= q {
					p++
				}
				c.Add2(circuit.CX, q, p)
			}
		}
		orig := c.Clone()
		_, err := Resynthesis().Apply(c)
		require.NoError(t, err)
		requireEquivalent(t, orig, c)
	}
}

func TestResynthesisFlushesAtMeasure(t *testing.T) {
	c := circuit.New(2)
	c.Add1(circuit.S, 0)
	c.Add(circuit.Measure, []int{0})
	c.Add1(circuit.Rz, 0, 0.3)

	changed, err := Resynthesis().Apply(c)
	require.NoError(t, err)
	require.True(t, changed)

	mi := -1
	for i, g := range c.Gates {
		if g.Op == circuit.Measure {
			mi = i
		}
	}
	require.GreaterOrEqual(t, mi, 0)
	require.Equal(t, len(c.Gates)-2, mi, "one rotation should remain after the measure")
	last := c.Gates[len(c.Gates)-1]
	require.Equal(t, circuit.Rz, last.Op)
	require.InDelta(t, 0.3, last.Params[0], 1e-12)
}
