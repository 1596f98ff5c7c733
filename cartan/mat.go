// Package cartan implements two-qubit unitary decomposition into
// interaction coordinates plus single-qubit factors, and resynthesis
// of two-qubit windows over hardware gate alphabets.
package cartan

import (
	"fmt"
	"math"
	"math/cmplx"
)

// cmat is a dense square complex matrix, row major.
type cmat [][]complex128

func newMat(n int) cmat {
	m := make(cmat, n)
	for i := range m {
		m[i] = make([]complex128, n)
	}
	return m
}

func eye(n int) cmat {
	m := newMat(n)
	for i := range m {
		m[i][i] = 1
	}
	return m
}

func mul(a, b cmat) cmat {
	n := len(a)
	out := newMat(n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			if a[i][k] == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

func mulAll(ms ...cmat) cmat {
	out := ms[0]
	for _, m := range ms[1:] {
		out = mul(out, m)
	}
	return out
}

func dag(a cmat) cmat {
	n := len(a)
	out := newMat(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = cmplx.Conj(a[j][i])
		}
	}
	return out
}

func transpose(a cmat) cmat {
	n := len(a)
	out := newMat(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = a[j][i]
		}
	}
	return out
}

func scale(s complex128, a cmat) cmat {
	n := len(a)
	out := newMat(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = s * a[i][j]
		}
	}
	return out
}

func kron(a, b cmat) cmat {
	na, nb := len(a), len(b)
	out := newMat(na * nb)
	for i := 0; i < na; i++ {
		for j := 0; j < na; j++ {
			for k := 0; k < nb; k++ {
				for l := 0; l < nb; l++ {
					out[i*nb+k][j*nb+l] = a[i][j] * b[k][l]
				}
			}
		}
	}
	return out
}

// maxDiff is the max entrywise distance between a and b.
func maxDiff(a, b cmat) float64 {
	d := 0.0
	for i := range a {
		for j := range a[i] {
			if v := cmplx.Abs(a[i][j] - b[i][j]); v > d {
				d = v
			}
		}
	}
	return d
}

func complexExp(t float64) complex128 {
	return cmplx.Exp(complex(0, t))
}

func det2(a cmat) complex128 {
	return a[0][0]*a[1][1] - a[0][1]*a[1][0]
}

func clone(a cmat) cmat {
	out := make(cmat, len(a))
	for i := range a {
		out[i] = append([]complex128(nil), a[i]...)
	}
	return out
}

func rz2(t float64) cmat {
	return cmat{
		{cmplx.Exp(complex(0, -t/2)), 0},
		{0, cmplx.Exp(complex(0, t/2))},
	}
}

func rx2(t float64) cmat {
	c := complex(math.Cos(t/2), 0)
	s := complex(0, -math.Sin(t/2))
	return cmat{{c, s}, {s, c}}
}

func ry2(t float64) cmat {
	c := complex(math.Cos(t/2), 0)
	s := complex(math.Sin(t/2), 0)
	return cmat{{c, -s}, {s, c}}
}

var (
	pauliX = cmat{{0, 1}, {1, 0}}
	pauliY = cmat{{0, -1i}, {1i, 0}}
	pauliZ = cmat{{1, 0}, {0, -1}}

	cxMat = cmat{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
	}
	swapMat = cmat{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
)

// interaction builds exp(i (x XX + y YY + z ZZ)).
func interaction(x, y, z float64) cmat {
	xx := kron(pauliX, pauliX)
	yy := kron(pauliY, pauliY)
	zz := kron(pauliZ, pauliZ)
	// The three terms commute and square to identity, so the
	// exponential is the product of the three factor exponentials.
	expTerm := func(t float64, p cmat) cmat {
		out := scale(complex(math.Cos(t), 0), eye(4))
		s := scale(complex(0, math.Sin(t)), p)
		for i := range out {
			for j := range out[i] {
				out[i][j] += s[i][j]
			}
		}
		return out
	}
	return mulAll(expTerm(x, xx), expTerm(y, yy), expTerm(z, zz))
}

// factorKron splits a 4x4 unitary of product form into e^{i phase}
// (a ox b) with both factors special unitary.
func factorKron(k cmat) (a, b cmat, phase float64, err error) {
	// Pick the 2x2 block with the largest norm as a scaled copy of b.
	bi, bj, best := 0, 0, 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			n := 0.0
			for r := 0; r < 2; r++ {
				for c := 0; c < 2; c++ {
					n += cmplx.Abs(k[2*i+r][2*j+c]) * cmplx.Abs(k[2*i+r][2*j+c])
				}
			}
			if n > best {
				bi, bj, best = i, j, n
			}
		}
	}
	if best < 1e-12 {
		return nil, nil, 0, fmt.Errorf("matrix has no dominant block")
	}
	braw := cmat{
		{k[2*bi][2*bj], k[2*bi][2*bj+1]},
		{k[2*bi+1][2*bj], k[2*bi+1][2*bj+1]},
	}
	db := det2(braw)
	if cmplx.Abs(db) < 1e-12 {
		return nil, nil, 0, fmt.Errorf("block is singular, not a product state")
	}
	sq := cmplx.Sqrt(db)
	b = scale(1/sq, braw)
	// a[i][j] = tr(block(i,j) b^dag) / 2 since b is special unitary.
	bd := dag(b)
	a = newMat(2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			blk := cmat{
				{k[2*i][2*j], k[2*i][2*j+1]},
				{k[2*i+1][2*j], k[2*i+1][2*j+1]},
			}
			p := mul(blk, bd)
			a[i][j] = (p[0][0] + p[1][1]) / 2
		}
	}
	da := det2(a)
	if math.Abs(cmplx.Abs(da)-1) > 1e-6 {
		return nil, nil, 0, fmt.Errorf("factor determinant %v is not unimodular", da)
	}
	alpha := cmplx.Phase(da) / 2
	a = scale(cmplx.Exp(complex(0, -alpha)), a)
	phase = alpha
	if d := maxDiff(k, scale(cmplx.Exp(complex(0, alpha)), kron(a, b))); d > 1e-7 {
		return nil, nil, 0, fmt.Errorf("matrix is not a tensor product, residual %g", d)
	}
	return a, b, phase, nil
}

// eulerZXZ factors a 2x2 unitary as e^{i phase} Rz(a) Rx(b) Rz(c)
// with b in [0, pi].
func eulerZXZ(u cmat) (a, b, c, phase float64) {
	d := det2(u)
	phase = cmplx.Phase(d) / 2
	v := scale(cmplx.Exp(complex(0, -phase)), u)
	b = 2 * math.Atan2(cmplx.Abs(v[0][1]), cmplx.Abs(v[0][0]))
	switch {
	case cmplx.Abs(v[0][0]) < 1e-12:
		// Pure off-diagonal: v01 = -i e^{-i(a-c)/2} sin(b/2).
		a = -2*cmplx.Phase(v[0][1]) - math.Pi
		c = 0
	case cmplx.Abs(v[0][1]) < 1e-12:
		a = -2 * cmplx.Phase(v[0][0])
		c = 0
	default:
		sum := -2 * cmplx.Phase(v[0][0])
		diff := -2*cmplx.Phase(v[0][1]) - math.Pi
		a = (sum + diff) / 2
		c = (sum - diff) / 2
	}
	return a, b, c, phase
}

// eulerZYZ factors a 2x2 unitary as e^{i phase} Rz(a) Ry(b) Rz(c)
// with b in [0, pi].
func eulerZYZ(u cmat) (a, b, c, phase float64) {
	d := det2(u)
	phase = cmplx.Phase(d) / 2
	v := scale(cmplx.Exp(complex(0, -phase)), u)
	b = 2 * math.Atan2(cmplx.Abs(v[1][0]), cmplx.Abs(v[0][0]))
	switch {
	case cmplx.Abs(v[0][0]) < 1e-12:
		// v10 = e^{i(a-c)/2} sin(b/2).
		a = 2 * cmplx.Phase(v[1][0])
		c = 0
	case cmplx.Abs(v[1][0]) < 1e-12:
		a = -2 * cmplx.Phase(v[0][0])
		c = 0
	default:
		sum := -2 * cmplx.Phase(v[0][0])
		diff := 2 * cmplx.Phase(v[1][0])
		a = (sum + diff) / 2
		c = (sum - diff) / 2
	}
	return a, b, c, phase
}
