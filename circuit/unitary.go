package circuit

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Basis convention: qubit 0 is the most significant bit of the state
// index, so a basis state is |q0 q1 ... q_{n-1}>. Rotation gates use
// the physics sign, Rz(t) = exp(-i t Z / 2) and so on.

func rxMat(t float64) [][]complex128 {
	c := complex(math.Cos(t/2), 0)
	s := complex(0, -math.Sin(t/2))
	return [][]complex128{{c, s}, {s, c}}
}

func ryMat(t float64) [][]complex128 {
	c := complex(math.Cos(t/2), 0)
	s := complex(math.Sin(t/2), 0)
	return [][]complex128{{c, -s}, {s, c}}
}

func rzMat(t float64) [][]complex128 {
	return [][]complex128{
		{cmplx.Exp(complex(0, -t/2)), 0},
		{0, cmplx.Exp(complex(0, t/2))},
	}
}

func mul2(a, b [][]complex128) [][]complex128 {
	n := len(a)
	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			var acc complex128
			for k := 0; k < n; k++ {
				acc += a[i][k] * b[k][j]
			}
			out[i][j] = acc
		}
	}
	return out
}

func zzPhaseMat(t float64) [][]complex128 {
	p := cmplx.Exp(complex(0, t/2))
	m := cmplx.Exp(complex(0, -t/2))
	return [][]complex128{
		{m, 0, 0, 0},
		{0, p, 0, 0},
		{0, 0, p, 0},
		{0, 0, 0, m},
	}
}

func xxPhaseMat(t float64) [][]complex128 {
	c := complex(math.Cos(t/2), 0)
	s := complex(0, -math.Sin(t/2))
	return [][]complex128{
		{c, 0, 0, s},
		{0, c, s, 0},
		{0, s, c, 0},
		{s, 0, 0, c},
	}
}

func yyPhaseMat(t float64) [][]complex128 {
	c := complex(math.Cos(t/2), 0)
	s := complex(0, -math.Sin(t/2))
	return [][]complex128{
		{c, 0, 0, -s},
		{0, c, s, 0},
		{0, s, c, 0},
		{-s, 0, 0, c},
	}
}

// Matrix returns the unitary of the gate on its own qubits, ordered as
// listed in g.Qubits. Measure, Reset and Barrier have none.
func (g Gate) Matrix() ([][]complex128, error) {
	p := g.Params
	switch g.Op {
	case TK1:
		return mul2(mul2(rzMat(p[0]), rxMat(p[1])), rzMat(p[2])), nil
	case TK2:
		return mul2(mul2(xxPhaseMat(p[0]), yyPhaseMat(p[1])), zzPhaseMat(p[2])), nil
	case CX:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 0, 1},
			{0, 0, 1, 0},
		}, nil
	case CZ:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, -1},
		}, nil
	case SWAP:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 0, 1, 0},
			{0, 1, 0, 0},
			{0, 0, 0, 1},
		}, nil
	case ZZMax:
		return zzPhaseMat(math.Pi / 2), nil
	case ZZPhase:
		return zzPhaseMat(p[0]), nil
	case XXPhase:
		return xxPhaseMat(p[0]), nil
	case YYPhase:
		return yyPhaseMat(p[0]), nil
	case ECR:
		r := complex(1/math.Sqrt2, 0)
		i := complex(0, 1/math.Sqrt2)
		return [][]complex128{
			{0, 0, r, i},
			{0, 0, i, r},
			{r, -i, 0, 0},
			{-i, r, 0, 0},
		}, nil
	case H:
		r := complex(1/math.Sqrt2, 0)
		return [][]complex128{{r, r}, {r, -r}}, nil
	case X:
		return [][]complex128{{0, 1}, {1, 0}}, nil
	case Y:
		return [][]complex128{{0, -1i}, {1i, 0}}, nil
	case Z:
		return [][]complex128{{1, 0}, {0, -1}}, nil
	case S:
		return [][]complex128{{1, 0}, {0, 1i}}, nil
	case Sdg:
		return [][]complex128{{1, 0}, {0, -1i}}, nil
	case SX:
		a := complex(0.5, 0.5)
		b := complex(0.5, -0.5)
		return [][]complex128{{a, b}, {b, a}}, nil
	case SXdg:
		a := complex(0.5, -0.5)
		b := complex(0.5, 0.5)
		return [][]complex128{{a, b}, {b, a}}, nil
	case V:
		return rxMat(math.Pi / 2), nil
	case Vdg:
		return rxMat(-math.Pi / 2), nil
	case Rx:
		return rxMat(p[0]), nil
	case Ry:
		return ryMat(p[0]), nil
	case Rz:
		return rzMat(p[0]), nil
	case PhasedX:
		return mul2(mul2(rzMat(p[1]), rxMat(p[0])), rzMat(-p[1])), nil
	case PhaseGadget:
		k := len(g.Qubits)
		d := 1 << k
		out := make([][]complex128, d)
		plus := cmplx.Exp(complex(0, p[0]/2))
		minus := cmplx.Exp(complex(0, -p[0]/2))
		for i := 0; i < d; i++ {
			out[i] = make([]complex128, d)
			if popcount(i)%2 == 0 {
				out[i][i] = minus
			} else {
				out[i][i] = plus
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("op %v has no unitary", g.Op)
}

func popcount(x int) int {
	n := 0
	for ; x != 0; x &= x - 1 {
		n++
	}
	return n
}

// applyGate left-multiplies u by the gate lifted to n qubits.
func applyGate(u *mat.CDense, n int, g [][]complex128, qubits []int) {
	d := 1 << n
	k := len(qubits)
	dk := 1 << k
	shifts := make([]int, k)
	var qmask int
	for i, q := range qubits {
		shifts[i] = n - 1 - q
		qmask |= 1 << shifts[i]
	}
	idx := make([]int, dk)
	old := make([]complex128, dk)
	for col := 0; col < d; col++ {
		for base := 0; base < d; base++ {
			if base&qmask != 0 {
				continue
			}
			for s := 0; s < dk; s++ {
				pos := base
				for i := 0; i < k; i++ {
					if s&(1<<(k-1-i)) != 0 {
						pos |= 1 << shifts[i]
					}
				}
				idx[s] = pos
				old[s] = u.At(pos, col)
			}
			for s := 0; s < dk; s++ {
				var acc complex128
				for t := 0; t < dk; t++ {
					acc += g[s][t] * old[t]
				}
				u.Set(idx[s], col, acc)
			}
		}
	}
}

// Unitary evaluates the circuit to a dense 2^n x 2^n matrix, output
// permutation and global phase included. It errors on non-unitary ops
// and refuses circuits wider than 12 qubits.
func (c *Circuit) Unitary() (*mat.CDense, error) {
	if c.NQubits > 12 {
		return nil, fmt.Errorf("circuit too wide for dense evaluation: %d qubits", c.NQubits)
	}
	d := 1 << c.NQubits
	u := mat.NewCDense(d, d, nil)
	for i := 0; i < d; i++ {
		u.Set(i, i, 1)
	}
	for i, g := range c.Gates {
		if g.Op == Barrier {
			continue
		}
		m, err := g.Matrix()
		if err != nil {
			return nil, fmt.Errorf("gate %d: %v", i, err)
		}
		applyGate(u, c.NQubits, m, g.Qubits)
	}
	if c.Perm != nil {
		permuteRows(u, c.NQubits, c.Perm)
	}
	if c.Phase != 0 {
		ph := cmplx.Exp(complex(0, c.Phase))
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				u.Set(i, j, ph*u.At(i, j))
			}
		}
	}
	return u, nil
}

// permuteRows applies the wire permutation as a final relabelling: the
// bit of input wire i moves to position perm[i].
func permuteRows(u *mat.CDense, n int, perm []int) {
	d := 1 << n
	tmp := mat.NewCDense(d, d, nil)
	for row := 0; row < d; row++ {
		dst := 0
		for i := 0; i < n; i++ {
			if row&(1<<(n-1-i)) != 0 {
				dst |= 1 << (n - 1 - perm[i])
			}
		}
		for col := 0; col < d; col++ {
			tmp.Set(dst, col, u.At(row, col))
		}
	}
	u.Copy(tmp)
}

// Equivalent reports whether the two circuits implement the same
// unitary up to global phase, within tol in max-entry norm.
func Equivalent(a, b *Circuit, tol float64) (bool, error) {
	if a.NQubits != b.NQubits {
		return false, fmt.Errorf("qubit counts differ: %d vs %d", a.NQubits, b.NQubits)
	}
	ua, err := a.Unitary()
	if err != nil {
		return false, err
	}
	ub, err := b.Unitary()
	if err != nil {
		return false, err
	}
	return MatricesEqualUpToPhase(ua, ub, tol), nil
}

// MatricesEqualUpToPhase compares two square complex matrices up to a
// global phase factor.
func MatricesEqualUpToPhase(a, b *mat.CDense, tol float64) bool {
	d, _ := a.Dims()
	bi, bj, best := 0, 0, 0.0
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			if m := cmplx.Abs(a.At(i, j)); m > best {
				bi, bj, best = i, j, m
			}
		}
	}
	if best < tol {
		return false
	}
	ratio := b.At(bi, bj) / a.At(bi, bj)
	if math.Abs(cmplx.Abs(ratio)-1) > tol {
		return false
	}
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			if cmplx.Abs(b.At(i, j)-ratio*a.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}
