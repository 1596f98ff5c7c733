package cartan

import (
	"math"
	"sort"
)

// canonicalCoords folds raw interaction coordinates into the Weyl
// chamber without tracking the compensating local factors. The moves
// mirror decompState.canonicalize step for step, so searches optimise
// against the same representative Decompose reports.
func canonicalCoords(x, y, z float64) [3]float64 {
	const tol = 1e-12
	quarter := math.Pi / 4
	c := [3]float64{x, y, z}
	swap := func(a, b int) { c[a], c[b] = c[b], c[a] }
	flip := func(a, b int) { c[a], c[b] = -c[a], -c[b] }
	for round := 0; round < 64; round++ {
		changed := false
		for axis := 0; axis < 3; axis++ {
			for c[axis] > quarter+tol {
				c[axis] -= math.Pi / 2
				changed = true
			}
			for c[axis] < -quarter+tol {
				c[axis] += math.Pi / 2
				changed = true
			}
		}
		if math.Abs(c[1]) > math.Abs(c[0])+tol {
			swap(0, 1)
			changed = true
		}
		if math.Abs(c[2]) > math.Abs(c[1])+tol {
			swap(1, 2)
			changed = true
		}
		if math.Abs(c[1]) > math.Abs(c[0])+tol {
			swap(0, 1)
			changed = true
		}
		if c[0] < -tol && c[1] < -tol {
			flip(0, 1)
			changed = true
		}
		if c[0] < -tol {
			flip(0, 2)
			changed = true
		}
		if c[1] < -tol {
			flip(1, 2)
			changed = true
		}
		if c[2] < -tol && c[0] > quarter-coordTol {
			c[0] -= math.Pi / 2
			flip(0, 2)
			changed = true
		}
		if !changed {
			break
		}
	}
	return c
}

// coordsOf computes only the canonical interaction coordinates of a
// two-qubit unitary, skipping the local factor extraction.
func coordsOf(u cmat) ([3]float64, error) {
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
		return [3]float64{}, err
	}
	lam := make([]float64, 4)
	for k := 0; k < 4; k++ {
		var re, im float64
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				v := complex(p[i][k], 0) * m2[i][j] * complex(p[j][k], 0)
				re += real(v)
				im += imag(v)
			}
		}
		lam[k] = math.Atan2(im, re) / 2
	}
	phi := (lam[0] + lam[1] + lam[2] + lam[3]) / 4
	return canonicalCoords(
		(lam[0]+lam[1])/2-phi,
		(lam[1]+lam[3])/2-phi,
		(lam[0]+lam[3])/2-phi,
	), nil
}

// search3CX looks for parameters of the three-CX frame whose
// interaction class matches the target coordinates. Deterministic:
// a coarse grid followed by shrinking coordinate descent, with a hard
// evaluation budget per window. A miss is not an error; the caller
// falls back to the exact four-CX form.
func search3CX(x, y, z float64) ([5]float64, bool) {
	target := [3]float64{x, y, z}
	eval := func(p [5]float64) float64 {
		w, err := windowUnitary(skeleton3CX(p))
		if err != nil {
			return math.Inf(1)
		}
		c, err := coordsOf(w)
		if err != nil {
			return math.Inf(1)
		}
		d := 0.0
		for i := 0; i < 3; i++ {
			d += (c[i] - target[i]) * (c[i] - target[i])
		}
		return d
	}

	type cand struct {
		p [5]float64
		v float64
	}
	var cands []cand
	for ia := 0; ia < 6; ia++ {
		for ib := 0; ib < 6; ib++ {
			for ig := 0; ig < 6; ig++ {
				for ih := 0; ih < 6; ih++ {
					p := [5]float64{
						float64(ia)*math.Pi/3 + math.Pi/7,
						float64(ib)*math.Pi/3 + math.Pi/7,
						math.Pi / 2,
						float64(ig)*math.Pi/3 + math.Pi/7,
						float64(ih)*math.Pi/3 + math.Pi/7,
					}
					cands = append(cands, cand{p, eval(p)})
				}
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].v < cands[j].v })

	best := cands[0]
	for _, start := range cands[:3] {
		p, v := start.p, start.v
		step := math.Pi / 6
		evals := 0
		for step > 1e-13 && evals < 6000 {
			improved := false
			for i := 0; i < 5; i++ {
				for _, dir := range [2]float64{1, -1} {
					q := p
					q[i] += dir * step
					if w := eval(q); w < v {
						p, v = q, w
						improved = true
					}
					evals++
				}
			}
			if !improved {
				step /= 2
			}
		}
		if v < best.v {
			best = cand{p, v}
		}
		if best.v < 1e-22 {
			break
		}
	}
	if best.v < 1e-18 {
		return best.p, true
	}
	return [5]float64{}, false
}
