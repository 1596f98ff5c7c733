// Package tableau implements binary symplectic stabilizer tableaus
// and Clifford circuit resynthesis through them.
package tableau

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// pauliRow is a signed Pauli string: i^r prod_q X_q^{x[q]} Z_q^{z[q]}
// with the X factors written to the left of the Z factors on each
// qubit. Rows held by a Tableau are Hermitian, so r is 0 or 2.
type pauliRow struct {
	x, z *bitset.BitSet
	r    int
}

func newRow(n int) pauliRow {
	return pauliRow{x: bitset.New(uint(n)), z: bitset.New(uint(n))}
}

func (p pauliRow) clone() pauliRow {
	return pauliRow{x: p.x.Clone(), z: p.z.Clone(), r: p.r}
}

// mulPhase is the i exponent of the single-qubit product sigma_a
// sigma_b, with sigma encoded as (x, z) bits.
func mulPhase(xa, za, xb, zb bool) int {
	if (!xa && !za) || (!xb && !zb) {
		return 0
	}
	if xa == xb && za == zb {
		return 0
	}
	// Cyclic products X Y = iZ, Y Z = iX, Z X = iY gain i, the
	// reversed orders gain -i.
	type p struct{ x, z bool }
	a := p{xa, za}
	b := p{xb, zb}
	switch {
	case a == p{true, false} && b == p{true, true},
		a == p{true, true} && b == p{false, true},
		a == p{false, true} && b == p{true, false}:
		return 1
	}
	return 3
}

// mul returns the Pauli product a.b.
func (a pauliRow) mul(b pauliRow, n int) pauliRow {
	out := pauliRow{r: a.r + b.r}
	for q := 0; q < n; q++ {
		out.r += mulPhase(a.x.Test(uint(q)), a.z.Test(uint(q)), b.x.Test(uint(q)), b.z.Test(uint(q)))
	}
	out.r %= 4
	// BitSet.Copy writes the receiver into its argument, so build the
	// product supports from clones instead.
	out.x = a.x.Clone()
	out.x.InPlaceSymmetricDifference(b.x)
	out.z = a.z.Clone()
	out.z.InPlaceSymmetricDifference(b.z)
	return out
}

// Tableau tracks the inverse of a growing Clifford circuit C: row
// xr[q] is C^dag X_q C and row zr[q] is C^dag Z_q C. Appending a gate
// multiplies the inverse on the right by the gate's dagger, which
// rewrites rows as products of rows.
type Tableau struct {
	n      int
	xr, zr []pauliRow
}

func New(n int) *Tableau {
	t := &Tableau{n: n, xr: make([]pauliRow, n), zr: make([]pauliRow, n)}
	for q := 0; q < n; q++ {
		t.xr[q] = newRow(n)
		t.xr[q].x.Set(uint(q))
		t.zr[q] = newRow(n)
		t.zr[q].z.Set(uint(q))
	}
	return t
}

func (t *Tableau) Clone() *Tableau {
	out := &Tableau{n: t.n, xr: make([]pauliRow, t.n), zr: make([]pauliRow, t.n)}
	for q := 0; q < t.n; q++ {
		out.xr[q] = t.xr[q].clone()
		out.zr[q] = t.zr[q].clone()
	}
	return out
}

// IsIdentity reports whether the tableau is the identity Clifford.
func (t *Tableau) IsIdentity() bool {
	for q := 0; q < t.n; q++ {
		xq, zq := t.xr[q], t.zr[q]
		if xq.r != 0 || zq.r != 0 {
			return false
		}
		if xq.x.Count() != 1 || !xq.x.Test(uint(q)) || xq.z.Count() != 0 {
			return false
		}
		if zq.z.Count() != 1 || !zq.z.Test(uint(q)) || zq.x.Count() != 0 {
			return false
		}
	}
	return true
}

// AppendH extends the tracked circuit by H(q).
func (t *Tableau) AppendH(q int) {
	// H^dag = H swaps the X and Z images.
	t.xr[q], t.zr[q] = t.zr[q], t.xr[q]
}

// AppendS extends the tracked circuit by S(q).
func (t *Tableau) AppendS(q int) {
	// Sdg X S = -Y = -i X Z.
	row := t.xr[q].mul(t.zr[q], t.n)
	row.r = (row.r + 3) % 4
	t.xr[q] = row
}

// AppendSdg extends the tracked circuit by Sdg(q).
func (t *Tableau) AppendSdg(q int) {
	// S X Sdg = Y = i X Z.
	row := t.xr[q].mul(t.zr[q], t.n)
	row.r = (row.r + 1) % 4
	t.xr[q] = row
}

// AppendX extends the tracked circuit by X(q).
func (t *Tableau) AppendX(q int) {
	t.zr[q].r = (t.zr[q].r + 2) % 4
}

// AppendZ extends the tracked circuit by Z(q).
func (t *Tableau) AppendZ(q int) {
	t.xr[q].r = (t.xr[q].r + 2) % 4
}

// AppendCX extends the tracked circuit by CX(a, b).
func (t *Tableau) AppendCX(a, b int) {
	// CX X_a CX = X_a X_b and CX Z_b CX = Z_a Z_b; CX is its own
	// dagger.
	t.xr[a] = t.xr[a].mul(t.xr[b], t.n)
	t.zr[b] = t.zr[a].mul(t.zr[b], t.n)
}

// Axis labels a Pauli factor.
type Axis int

const (
	AxisX Axis = iota + 1
	AxisY
	AxisZ
)

// Conjugate pushes the Pauli string prod (axis_i on qubit_i) through
// the tracked Clifford: it returns C^dag P C as support bit rows and
// a sign. The string must be non-empty.
func (t *Tableau) Conjugate(qubits []int, axes []Axis) (x, z *bitset.BitSet, sign int, err error) {
	if len(qubits) == 0 || len(qubits) != len(axes) {
		return nil, nil, 0, fmt.Errorf("malformed pauli string")
	}
	acc := newRow(t.n)
	for i, q := range qubits {
		var factor pauliRow
		switch axes[i] {
		case AxisX:
			factor = t.xr[q]
		case AxisZ:
			factor = t.zr[q]
		case AxisY:
			factor = t.xr[q].mul(t.zr[q], t.n)
			factor.r = (factor.r + 1) % 4
		default:
			return nil, nil, 0, fmt.Errorf("bad axis %d", axes[i])
		}
		acc = acc.mul(factor, t.n)
	}
	switch acc.r {
	case 0:
		sign = 1
	case 2:
		sign = -1
	default:
		return nil, nil, 0, fmt.Errorf("conjugated string is not hermitian (phase i^%d)", acc.r)
	}
	return acc.x, acc.z, sign, nil
}
