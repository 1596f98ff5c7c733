package cartan

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// magicMat maps the computational basis onto the magic basis
// (Phi+, i Psi+, Psi-, i Phi-). In this basis every product of
// single-qubit specials becomes real orthogonal and every interaction
// exponential becomes diagonal.
var magicMat = func() cmat {
	r := complex(1/math.Sqrt2, 0)
	i := complex(0, 1/math.Sqrt2)
	return cmat{
		{r, 0, 0, i},
		{0, i, r, 0},
		{0, i, -r, 0},
		{r, 0, 0, -i},
	}
}()

// Decomposition expresses a two-qubit unitary as
// e^{i Phase} (L0 ox L1) exp(i(X XX + Y YY + Z ZZ)) (R0 ox R1)
// with the interaction coordinates in the Weyl chamber:
// pi/4 >= X >= Y >= |Z|, and Z >= 0 whenever X = pi/4.
type Decomposition struct {
	X, Y, Z        float64
	L0, L1, R0, R1 cmat
	Phase          float64
}

const coordTol = 1e-9

func checkUnitary(u cmat) error {
	if len(u) != 4 {
		return fmt.Errorf("matrix is %dx%d, want 4x4", len(u), len(u))
	}
	if d := maxDiff(mul(u, dag(u)), eye(4)); d > 1e-8 {
		return fmt.Errorf("matrix is not unitary, residual %g", d)
	}
	return nil
}

// symEig diagonalizes a real symmetric matrix given as a flat 4x4 (or
// smaller) slice-of-rows, returning ascending eigenvalues and the
// column eigenvector matrix.
func symEig(a [][]float64) ([]float64, [][]float64, error) {
	n := len(a)
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (a[i][j]+a[j][i])/2)
		}
	}
	var es mat.EigenSym
	if !es.Factorize(s, true) {
		return nil, nil, fmt.Errorf("eigendecomposition failed")
	}
	vals := es.Values(nil)
	var ev mat.Dense
	es.VectorsTo(&ev)
	vecs := make([][]float64, n)
	for i := range vecs {
		vecs[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			vecs[i][j] = ev.At(i, j)
		}
	}
	return vals, vecs, nil
}

func detReal(a [][]float64) float64 {
	n := len(a)
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d.Set(i, j, a[i][j])
		}
	}
	return mat.Det(d)
}

// simulDiag finds a common orthonormal eigenbasis of the commuting
// real symmetric matrices a and b. Degenerate eigenspaces of a are
// split by diagonalizing b within them.
func simulDiag(a, b [][]float64) ([][]float64, error) {
	vals, v, err := symEig(a)
	if err != nil {
		return nil, err
	}
	const degTol = 1e-7
	for lo := 0; lo < 4; {
		hi := lo + 1
		for hi < 4 && vals[hi]-vals[lo] < degTol {
			hi++
		}
		if hi-lo > 1 {
			g := hi - lo
			// Project b into the eigenspace and diagonalize there.
			blk := make([][]float64, g)
			for i := 0; i < g; i++ {
				blk[i] = make([]float64, g)
				for j := 0; j < g; j++ {
					acc := 0.0
					for r := 0; r < 4; r++ {
						for s := 0; s < 4; s++ {
							acc += v[r][lo+i] * b[r][s] * v[s][lo+j]
						}
					}
					blk[i][j] = acc
				}
			}
			_, w, err := symEig(blk)
			if err != nil {
				return nil, err
			}
			rot := make([][]float64, 4)
			for r := range rot {
				rot[r] = make([]float64, g)
				for j := 0; j < g; j++ {
					acc := 0.0
					for i := 0; i < g; i++ {
						acc += v[r][lo+i] * w[i][j]
					}
					rot[r][j] = acc
				}
			}
			for r := 0; r < 4; r++ {
				for j := 0; j < g; j++ {
					v[r][lo+j] = rot[r][j]
				}
			}
		}
		lo = hi
	}
	return v, nil
}

// Decompose computes the Cartan decomposition of a two-qubit unitary.
func Decompose(u cmat) (*Decomposition, error) {
	if err := checkUnitary(u); err != nil {
		return nil, err
	}
	mdag := dag(magicMat)
	ub := mulAll(mdag, u, magicMat)
	m2 := mul(transpose(ub), ub)

	reM := make([][]float64, 4)
	imM := make([][]float64, 4)
	for i := 0; i < 4; i++ {
		reM[i] = make([]float64, 4)
		imM[i] = make([]float64, 4)
		for j := 0; j < 4; j++ {
			reM[i][j] = real(m2[i][j])
			imM[i][j] = imag(m2[i][j])
		}
	}
	p, err := simulDiag(reM, imM)
	if err != nil {
		return nil, err
	}
	if detReal(p) < 0 {
		for r := 0; r < 4; r++ {
			p[r][0] = -p[r][0]
		}
	}
	pc := newMat(4)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			pc[i][j] = complex(p[i][j], 0)
		}
	}
	// Eigenphases of m2 in the common basis.
	diag := mulAll(transpose(pc), m2, pc)
	lam := make([]float64, 4)
	for k := 0; k < 4; k++ {
		d := diag[k][k]
		if math.Abs(cmplx.Abs(d)-1) > 1e-7 {
			return nil, fmt.Errorf("eigenvalue %v is not unimodular", d)
		}
		lam[k] = cmplx.Phase(d) / 2
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i != j && cmplx.Abs(diag[i][j]) > 1e-7 {
				return nil, fmt.Errorf("simultaneous diagonalization failed, offdiag %g", cmplx.Abs(diag[i][j]))
			}
		}
	}

	dinv := newMat(4)
	for k := 0; k < 4; k++ {
		dinv[k][k] = cmplx.Exp(complex(0, -lam[k]))
	}
	o1 := mulAll(ub, pc, dinv)
	reO1 := make([][]float64, 4)
	worstIm := 0.0
	for i := 0; i < 4; i++ {
		reO1[i] = make([]float64, 4)
		for j := 0; j < 4; j++ {
			if v := math.Abs(imag(o1[i][j])); v > worstIm {
				worstIm = v
			}
			reO1[i][j] = real(o1[i][j])
		}
	}
	if worstIm > 1e-7 {
		return nil, fmt.Errorf("left orthogonal factor has imaginary residue %g", worstIm)
	}
	if detReal(reO1) < 0 {
		// Move a half turn into the first eigenphase; this flips the
		// sign of the matching column of the left factor.
		lam[0] += math.Pi
		for i := 0; i < 4; i++ {
			o1[i][0] = -o1[i][0]
		}
	}

	phi := (lam[0] + lam[1] + lam[2] + lam[3]) / 4
	x := (lam[0]+lam[1])/2 - phi
	y := (lam[1]+lam[3])/2 - phi
	z := (lam[0]+lam[3])/2 - phi

	k1 := mulAll(magicMat, o1, mdag)
	k2 := mulAll(magicMat, transpose(pc), mdag)
	l0, l1, ph1, err := factorKron(k1)
	if err != nil {
		return nil, fmt.Errorf("left local factor: %v", err)
	}
	r0, r1, ph2, err := factorKron(k2)
	if err != nil {
		return nil, fmt.Errorf("right local factor: %v", err)
	}

	st := &decompState{
		x: x, y: y, z: z,
		l0: l0, l1: l1, r0: r0, r1: r1,
		phase: phi + ph1 + ph2,
	}
	if err := st.canonicalize(); err != nil {
		return nil, err
	}
	d := &Decomposition{
		X: st.x, Y: st.y, Z: st.z,
		L0: st.l0, L1: st.l1, R0: st.r0, R1: st.r1,
		Phase: st.phase,
	}
	if diff := maxDiff(u, d.Reconstruct()); diff > 1e-7 {
		return nil, fmt.Errorf("reconstruction residual %g", diff)
	}
	return d, nil
}

// Reconstruct rebuilds the unitary from the decomposition.
func (d *Decomposition) Reconstruct() cmat {
	n := interaction(d.X, d.Y, d.Z)
	out := mulAll(kron(d.L0, d.L1), n, kron(d.R0, d.R1))
	return scale(cmplx.Exp(complex(0, d.Phase)), out)
}

// Coords returns the interaction coordinates as a slice.
func (d *Decomposition) Coords() [3]float64 {
	return [3]float64{d.X, d.Y, d.Z}
}

type decompState struct {
	x, y, z        float64
	l0, l1, r0, r1 cmat
	phase          float64
}

func (s *decompState) coord(axis int) float64 {
	switch axis {
	case 0:
		return s.x
	case 1:
		return s.y
	}
	return s.z
}

func (s *decompState) setCoord(axis int, v float64) {
	switch axis {
	case 0:
		s.x = v
	case 1:
		s.y = v
	default:
		s.z = v
	}
}

var axisPauli = [3]cmat{pauliX, pauliY, pauliZ}

// shift moves a coordinate by dir*pi/2, compensating with a Pauli
// pair on the right and a quarter-turn global phase:
// exp(i t PP) = exp(i (t - pi/2) PP) (i P ox P).
func (s *decompState) shift(axis, dir int) {
	p := axisPauli[axis]
	s.setCoord(axis, s.coord(axis)+float64(dir)*math.Pi/2)
	s.r0 = mul(p, s.r0)
	s.r1 = mul(p, s.r1)
	s.phase -= float64(dir) * math.Pi / 2
}

// swapAxes exchanges two coordinates by conjugating the interaction
// with the same single-qubit rotation on both wires.
func (s *decompState) swapAxes(a, b int) {
	var g cmat
	switch {
	case a != 2 && b != 2 && a != b:
		g = rz2(math.Pi / 2) // X <-> Y
	case a != 0 && b != 0 && a != b:
		g = rx2(math.Pi / 2) // Y <-> Z
	default:
		g = ry2(math.Pi / 2) // X <-> Z
	}
	gd := dag(g)
	s.l0 = mul(s.l0, gd)
	s.l1 = mul(s.l1, gd)
	s.r0 = mul(g, s.r0)
	s.r1 = mul(g, s.r1)
	va, vb := s.coord(a), s.coord(b)
	s.setCoord(a, vb)
	s.setCoord(b, va)
}

// flipPair negates two coordinates by conjugating with the Pauli of
// the remaining axis on wire 0.
func (s *decompState) flipPair(a, b int) {
	other := 3 - a - b
	p := axisPauli[other]
	s.l0 = mul(s.l0, p)
	s.r0 = mul(p, s.r0)
	s.setCoord(a, -s.coord(a))
	s.setCoord(b, -s.coord(b))
}

func (s *decompState) canonicalize() error {
	const tol = 1e-12
	quarter := math.Pi / 4
	for round := 0; round < 64; round++ {
		changed := false
		for axis := 0; axis < 3; axis++ {
			for s.coord(axis) > quarter+tol {
				s.shift(axis, -1)
				changed = true
			}
			for s.coord(axis) < -quarter+tol {
				s.shift(axis, +1)
				changed = true
			}
		}
		if math.Abs(s.y) > math.Abs(s.x)+tol {
			s.swapAxes(0, 1)
			changed = true
		}
		if math.Abs(s.z) > math.Abs(s.y)+tol {
			s.swapAxes(1, 2)
			changed = true
		}
		if math.Abs(s.y) > math.Abs(s.x)+tol {
			s.swapAxes(0, 1)
			changed = true
		}
		// Push any negative signs down to z.
		if s.x < -tol && s.y < -tol {
			s.flipPair(0, 1)
			changed = true
		}
		if s.x < -tol {
			s.flipPair(0, 2)
			changed = true
		}
		if s.y < -tol {
			s.flipPair(1, 2)
			changed = true
		}
		// At the x = pi/4 wall, z and -z are equivalent; prefer the
		// non-negative representative.
		if s.z < -tol && s.x > quarter-coordTol {
			s.shift(0, -1)
			s.flipPair(0, 2)
			changed = true
		}
		if !changed {
			break
		}
	}
	if s.x < s.y-coordTol || s.y < math.Abs(s.z)-coordTol || s.x > quarter+coordTol || s.y < -coordTol {
		return fmt.Errorf("coordinates (%g, %g, %g) did not canonicalize", s.x, s.y, s.z)
	}
	return nil
}
