package tableau

import (
	"fmt"

	"github.com/qbitshift/qopt/circuit"
)

// Left application: prepending gate g to the inverse rewrites every
// stored row P as g P g^dag. These act column-wise on the qubit bits.

func (t *Tableau) forEachRow(f func(p *pauliRow)) {
	for q := 0; q < t.n; q++ {
		f(&t.xr[q])
		f(&t.zr[q])
	}
}

func (t *Tableau) leftH(q int) {
	t.forEachRow(func(p *pauliRow) {
		xb, zb := p.x.Test(uint(q)), p.z.Test(uint(q))
		if xb && zb {
			p.r = (p.r + 2) % 4
		}
		p.x.SetTo(uint(q), zb)
		p.z.SetTo(uint(q), xb)
	})
}

func (t *Tableau) leftS(q int) {
	t.forEachRow(func(p *pauliRow) {
		xb, zb := p.x.Test(uint(q)), p.z.Test(uint(q))
		if xb && zb {
			p.r = (p.r + 2) % 4
		}
		p.z.SetTo(uint(q), xb != zb)
	})
}

func (t *Tableau) leftSdg(q int) {
	t.forEachRow(func(p *pauliRow) {
		xb, zb := p.x.Test(uint(q)), p.z.Test(uint(q))
		if xb && !zb {
			p.r = (p.r + 2) % 4
		}
		p.z.SetTo(uint(q), xb != zb)
	})
}

func (t *Tableau) leftX(q int) {
	t.forEachRow(func(p *pauliRow) {
		if p.z.Test(uint(q)) {
			p.r = (p.r + 2) % 4
		}
	})
}

func (t *Tableau) leftZ(q int) {
	t.forEachRow(func(p *pauliRow) {
		if p.x.Test(uint(q)) {
			p.r = (p.r + 2) % 4
		}
	})
}

func (t *Tableau) leftCX(a, b int) {
	t.forEachRow(func(p *pauliRow) {
		xa, za := p.x.Test(uint(a)), p.z.Test(uint(a))
		xb, zb := p.x.Test(uint(b)), p.z.Test(uint(b))
		if xa && zb && xb == za {
			p.r = (p.r + 2) % 4
		}
		p.x.SetTo(uint(b), xb != xa)
		p.z.SetTo(uint(a), za != zb)
	})
}

// emitter pairs a left application with its gate record. Reduction
// prepends gates to the inverse, so the recorded order is the circuit
// order of the tracked Clifford itself.
type emitter struct {
	t *Tableau
	c *circuit.Circuit
}

func (e *emitter) h(q int)     { e.t.leftH(q); e.c.Add1(circuit.H, q) }
func (e *emitter) sdg(q int)   { e.t.leftSdg(q); e.c.Add1(circuit.Sdg, q) }
func (e *emitter) x(q int)     { e.t.leftX(q); e.c.Add1(circuit.X, q) }
func (e *emitter) z(q int)     { e.t.leftZ(q); e.c.Add1(circuit.Z, q) }
func (e *emitter) cx(a, b int) { e.t.leftCX(a, b); e.c.Add2(circuit.CX, a, b) }

// Synthesize produces a circuit realising the tracked Clifford, up to
// global phase, using H, S, Sdg, X, Z and CX gates. The tableau is
// not modified. Gate count is O(n^2) in the qubit count.
func (t *Tableau) Synthesize() (*circuit.Circuit, error) {
	w := t.Clone()
	e := &emitter{t: w, c: circuit.New(t.n)}
	for q := 0; q < t.n; q++ {
		if err := e.fixStabilizer(q); err != nil {
			return nil, err
		}
		if err := e.fixDestabilizer(q); err != nil {
			return nil, err
		}
	}
	if !w.IsIdentity() {
		return nil, fmt.Errorf("tableau reduction left a non-identity residue")
	}
	return e.c, nil
}

// fixStabilizer reduces row zr[q] to +Z_q.
func (e *emitter) fixStabilizer(q int) error {
	t := e.t
	n := t.n
	// Turn Y components into X, then fold the X support onto a
	// single column and rotate it into Z.
	for k := 0; k < n; k++ {
		if t.zr[q].x.Test(uint(k)) && t.zr[q].z.Test(uint(k)) {
			e.sdg(k)
		}
	}
	first := -1
	for k := 0; k < n; k++ {
		if t.zr[q].x.Test(uint(k)) {
			if first < 0 {
				first = k
			} else {
				e.cx(first, k)
			}
		}
	}
	if first >= 0 {
		e.h(first)
	}
	if t.zr[q].z.Count() == 0 {
		return fmt.Errorf("stabilizer row %d vanished", q)
	}
	// Fold the Z support onto column q.
	if !t.zr[q].z.Test(uint(q)) {
		k := 0
		for ; k < n; k++ {
			if t.zr[q].z.Test(uint(k)) {
				break
			}
		}
		e.cx(q, k)
	}
	for k := 0; k < n; k++ {
		if k != q && t.zr[q].z.Test(uint(k)) {
			e.cx(k, q)
		}
	}
	if t.zr[q].r == 2 {
		e.x(q)
	}
	if t.zr[q].r != 0 {
		return fmt.Errorf("stabilizer row %d has non-real phase", q)
	}
	return nil
}

// fixDestabilizer reduces row xr[q] to +X_q while leaving the already
// fixed zr[q] = Z_q untouched. Every gate used here commutes with Z_q
// or acts on other qubits only.
func (e *emitter) fixDestabilizer(q int) error {
	t := e.t
	n := t.n
	if !t.xr[q].x.Test(uint(q)) {
		return fmt.Errorf("destabilizer row %d does not anticommute with Z_%d", q, q)
	}
	if t.xr[q].z.Test(uint(q)) {
		e.sdg(q)
	}
	for k := 0; k < n; k++ {
		if k == q {
			continue
		}
		if t.xr[q].x.Test(uint(k)) && t.xr[q].z.Test(uint(k)) {
			e.sdg(k)
		}
		if t.xr[q].z.Test(uint(k)) {
			e.h(k)
		}
		if t.xr[q].x.Test(uint(k)) {
			e.cx(q, k)
		}
	}
	if t.xr[q].r == 2 {
		e.z(q)
	}
	if t.xr[q].r != 0 {
		return fmt.Errorf("destabilizer row %d has non-real phase", q)
	}
	return nil
}
