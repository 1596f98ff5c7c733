// Package gadget rewrites runs of CX and diagonal phase operations as
// phase gadgets over input parities and resynthesises them with a
// configurable CX ladder shape.
package gadget

import (
	"math"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/qbitshift/qopt/circuit"
)

// CXConfig selects the ladder shape used to collect a gadget's parity
// onto a single carrier qubit.
type CXConfig int

const (
	_ CXConfig = iota
	Snake
	Star
	Tree
)

func (c CXConfig) valid() bool {
	return c == Snake || c == Star || c == Tree
}

func (c CXConfig) String() string {
	switch c {
	case Snake:
		return "snake"
	case Star:
		return "star"
	case Tree:
		return "tree"
	}
	return "unknown"
}

// angleClass reduces t modulo 4*pi: 0 for the identity rotation, 1
// for minus identity, -1 otherwise.
func angleClass(t float64) int {
	t = math.Mod(t, 4*math.Pi)
	if t < 0 {
		t += 4 * math.Pi
	}
	const tol = 1e-10
	if t < tol || 4*math.Pi-t < tol {
		return 0
	}
	if math.Abs(t-2*math.Pi) < tol {
		return 1
	}
	return -1
}

// segment accumulates a maximal run of CX, X and diagonal gates as a
// phase polynomial: parity rows track each wire as a GF(2) combination
// of segment inputs, affine marks wires flipped by X, and gadgets
// collect rotation angles keyed by input parity.
type segment struct {
	n      int
	parity []*bitset.BitSet
	affine *bitset.BitSet
	order  []string
	sup    map[string]*bitset.BitSet
	angle  map[string]float64
	phase  float64
	active bool
}

func newSegment(n int) *segment {
	s := &segment{
		n:      n,
		parity: make([]*bitset.BitSet, n),
		affine: bitset.New(uint(n)),
		sup:    map[string]*bitset.BitSet{},
		angle:  map[string]float64{},
	}
	for q := 0; q < n; q++ {
		s.parity[q] = bitset.New(uint(n))
		s.parity[q].Set(uint(q))
	}
	return s
}

func (s *segment) add(support *bitset.BitSet, flipped bool, theta float64) {
	// An X in front of the rotation flips its sense.
	if flipped {
		theta = -theta
	}
	if support.Count() == 0 {
		s.phase -= theta / 2
		return
	}
	key := support.String()
	if _, ok := s.sup[key]; !ok {
		s.sup[key] = support
		s.order = append(s.order, key)
	}
	s.angle[key] += theta
}

// wireParity resolves the wires a diagonal gate touches into their
// XOR as a function of segment inputs, plus the affine flip bit.
func (s *segment) wireParity(qubits []int) (*bitset.BitSet, bool) {
	p := bitset.New(uint(s.n))
	flipped := false
	for _, q := range qubits {
		p.InPlaceSymmetricDifference(s.parity[q])
		if s.affine.Test(uint(q)) {
			flipped = !flipped
		}
	}
	return p, flipped
}

// absorb folds one gate into the segment, reporting whether it could.
func (s *segment) absorb(g circuit.Gate) bool {
	switch g.Op {
	case circuit.CX:
		c, t := g.Qubits[0], g.Qubits[1]
		s.parity[t].InPlaceSymmetricDifference(s.parity[c])
		if s.affine.Test(uint(c)) {
			s.affine.Flip(uint(t))
		}
	case circuit.X:
		s.affine.Flip(uint(g.Qubits[0]))
	case circuit.Rz:
		p, f := s.wireParity(g.Qubits)
		s.add(p, f, g.Params[0])
	case circuit.Z:
		p, f := s.wireParity(g.Qubits)
		s.add(p, f, math.Pi)
		s.phase += math.Pi / 2
	case circuit.S:
		p, f := s.wireParity(g.Qubits)
		s.add(p, f, math.Pi/2)
		s.phase += math.Pi / 4
	case circuit.Sdg:
		p, f := s.wireParity(g.Qubits)
		s.add(p, f, -math.Pi/2)
		s.phase -= math.Pi / 4
	case circuit.CZ:
		a, b := g.Qubits[0], g.Qubits[1]
		pa, fa := s.wireParity([]int{a})
		s.add(pa, fa, math.Pi/2)
		pb, fb := s.wireParity([]int{b})
		s.add(pb, fb, math.Pi/2)
		pab, fab := s.wireParity(g.Qubits)
		s.add(pab, fab, -math.Pi/2)
		s.phase += math.Pi / 4
	case circuit.ZZPhase:
		p, f := s.wireParity(g.Qubits)
		s.add(p, f, g.Params[0])
	case circuit.ZZMax:
		p, f := s.wireParity(g.Qubits)
		s.add(p, f, math.Pi/2)
	case circuit.PhaseGadget:
		p, f := s.wireParity(g.Qubits)
		s.add(p, f, g.Params[0])
	default:
		return false
	}
	s.active = true
	return true
}

func lessBits(a, b *bitset.BitSet) bool {
	wa, wb := a.Bytes(), b.Bytes()
	for i := 0; i < len(wa) || i < len(wb); i++ {
		var x, y uint64
		if i < len(wa) {
			x = wa[i]
		}
		if i < len(wb) {
			y = wb[i]
		}
		if x != y {
			return x < y
		}
	}
	return false
}

// orderedGadgets returns the gadgets chained greedily by symmetric
// difference of supports, so consecutive ladders share CX structure
// that adjacent-gate cancellation can then remove. Gadgets whose angle
// is a full or half turn emit no ladder, and a resynthesis of the
// emitted circuit never sees them again, so they are excluded here to
// keep the chaining a function of the emitted gadget set alone.
func (s *segment) orderedGadgets() []*bitset.BitSet {
	pending := make([]*bitset.BitSet, 0, len(s.order))
	for _, k := range s.order {
		if angleClass(s.angle[k]) != -1 {
			continue
		}
		pending = append(pending, s.sup[k])
	}
	sort.Slice(pending, func(i, j int) bool {
		ci, cj := pending[i].Count(), pending[j].Count()
		if ci != cj {
			return ci < cj
		}
		return lessBits(pending[i], pending[j])
	})
	var out []*bitset.BitSet
	for len(pending) > 0 {
		best := 0
		if len(out) > 0 {
			cur := out[len(out)-1]
			bestD := uint(math.MaxInt32)
			for i, p := range pending {
				d := cur.SymmetricDifferenceCardinality(p)
				if d < bestD || (d == bestD && lessBits(p, pending[best])) {
					best, bestD = i, d
				}
			}
		}
		out = append(out, pending[best])
		pending = append(pending[:best], pending[best+1:]...)
	}
	return out
}

// appendLadder writes exp(-i theta/2 Z...Z) over qs in the chosen
// ladder shape.
func appendLadder(out *circuit.Circuit, cfg CXConfig, qs []int, theta float64) {
	if len(qs) == 1 {
		out.Add1(circuit.Rz, qs[0], theta)
		return
	}
	var down []circuit.Gate
	cx := func(a, b int) {
		down = append(down, circuit.Gate{Op: circuit.CX, Qubits: []int{a, b}})
	}
	carrier := qs[len(qs)-1]
	switch cfg {
	case Star:
		for _, q := range qs[:len(qs)-1] {
			cx(q, carrier)
		}
	case Tree:
		level := append([]int(nil), qs...)
		for len(level) > 1 {
			var next []int
			for i := 0; i+1 < len(level); i += 2 {
				cx(level[i], level[i+1])
				next = append(next, level[i+1])
			}
			if len(level)%2 == 1 {
				next = append(next, level[len(level)-1])
			}
			level = next
		}
		carrier = level[0]
	default: // Snake
		for i := 0; i+1 < len(qs); i++ {
			cx(qs[i], qs[i+1])
		}
	}
	out.Gates = append(out.Gates, down...)
	out.Add1(circuit.Rz, carrier, theta)
	for i := len(down) - 1; i >= 0; i-- {
		out.Gates = append(out.Gates, down[i])
	}
}

// flush emits the accumulated segment: gadget ladders in the input
// basis, then a CX network realising the linear wire map, then X
// gates for the affine flips.
func (s *segment) flush(out *circuit.Circuit, cfg CXConfig) {
	if !s.active {
		return
	}
	out.Phase += s.phase
	for _, k := range s.order {
		if angleClass(s.angle[k]) == 1 {
			out.Phase += math.Pi
		}
	}
	for _, sup := range s.orderedGadgets() {
		theta := s.angle[sup.String()]
		qs := make([]int, 0, sup.Count())
		for q, ok := sup.NextSet(0); ok; q, ok = sup.NextSet(q + 1) {
			qs = append(qs, int(q))
		}
		appendLadder(out, cfg, qs, theta)
	}
	s.emitLinear(out)
	for q, ok := s.affine.NextSet(0); ok; q, ok = s.affine.NextSet(q + 1) {
		out.Add1(circuit.X, int(q))
	}
	*s = *newSegment(s.n)
}

// emitLinear synthesises the parity matrix as CX gates by Gaussian
// elimination over GF(2).
func (s *segment) emitLinear(out *circuit.Circuit) {
	m := make([]*bitset.BitSet, s.n)
	identity := true
	for q := 0; q < s.n; q++ {
		m[q] = s.parity[q].Clone()
		if m[q].Count() != 1 || !m[q].Test(uint(q)) {
			identity = false
		}
	}
	if identity {
		return
	}
	type rowOp struct{ c, t int }
	var ops []rowOp
	addRow := func(c, t int) {
		m[t].InPlaceSymmetricDifference(m[c])
		ops = append(ops, rowOp{c, t})
	}
	for col := 0; col < s.n; col++ {
		if !m[col].Test(uint(col)) {
			for r := 0; r < s.n; r++ {
				if r != col && m[r].Test(uint(col)) {
					addRow(r, col)
					break
				}
			}
		}
		for r := 0; r < s.n; r++ {
			if r != col && m[r].Test(uint(col)) {
				addRow(col, r)
			}
		}
	}
	for i := len(ops) - 1; i >= 0; i-- {
		out.Add2(circuit.CX, ops[i].c, ops[i].t)
	}
}
