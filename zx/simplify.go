package zx

import (
	"math"

	"github.com/bits-and-blooms/bitset"
)

func bits(b *bitset.BitSet) []int {
	var out []int
	for w, ok := b.NextSet(0); ok; w, ok = b.NextSet(w + 1) {
		out = append(out, int(w))
	}
	return out
}

// neighborList snapshots the live neighbors of v.
func (d *Diagram) neighborList(v int) []int {
	return bits(d.adj[v])
}

// complement toggles every edge within the vertex set.
func (d *Diagram) complement(vs []int) {
	for i := 0; i < len(vs); i++ {
		for j := i + 1; j < len(vs); j++ {
			d.toggleEdge(vs[i], vs[j])
		}
	}
}

// complementBetween toggles every edge with one end in each set. The
// sets must be disjoint.
func (d *Diagram) complementBetween(a, b []int) {
	for _, u := range a {
		for _, v := range b {
			d.toggleEdge(u, v)
		}
	}
}

// localComplement removes an internal proper Clifford spider v with
// phase +-pi/2: its neighborhood is complemented and each neighbor
// phase shifts by the opposite quarter turn.
func (d *Diagram) localComplement(v int, sign int) {
	ns := d.neighborList(v)
	d.complement(ns)
	for _, u := range ns {
		d.addPhase(u, -float64(sign)*math.Pi/2)
	}
	d.removeSpider(v)
}

// pivot removes an adjacent pair of internal spiders u, v whose
// phases are both 0 or pi.
func (d *Diagram) pivot(u, v int) {
	nu := d.adj[u].Clone()
	nu.Clear(uint(v))
	nv := d.adj[v].Clone()
	nv.Clear(uint(u))
	shared := nu.Intersection(nv)
	onlyU := nu.Difference(shared)
	onlyV := nv.Difference(shared)

	a, b, c := bits(onlyU), bits(onlyV), bits(shared)

	d.complementBetween(a, b)
	d.complementBetween(a, c)
	d.complementBetween(b, c)

	pu, pv := d.phase[u], d.phase[v]
	for _, w := range a {
		d.addPhase(w, pv)
	}
	for _, w := range b {
		d.addPhase(w, pu)
	}
	for _, w := range c {
		d.addPhase(w, pu+pv+math.Pi)
	}
	d.removeSpider(u)
	d.removeSpider(v)
}

// fuseIdentity drops a phaseless internal spider with exactly two
// neighbors. Its two Hadamard edges compose to a plain wire, so the
// neighbors fuse. It declines when the fused spider would have to
// carry two inputs or two outputs.
func (d *Diagram) fuseIdentity(v int) bool {
	ns := d.neighborList(v)
	a, b := ns[0], ns[1]
	if d.inputOf[a] >= 0 && d.inputOf[b] >= 0 {
		return false
	}
	if d.outputOf[a] >= 0 && d.outputOf[b] >= 0 {
		return false
	}
	d.removeSpider(v)
	d.fuse(a, b)
	return true
}

// fuse merges b into a across a plain connection.
func (d *Diagram) fuse(a, b int) {
	d.addPhase(a, d.phase[b])
	if d.connected(a, b) {
		// A direct Hadamard edge closes into a self loop, which
		// costs a pi phase.
		d.toggleEdge(a, b)
		d.addPhase(a, math.Pi)
	}
	for _, w := range d.neighborList(b) {
		if w == a {
			continue
		}
		d.toggleEdge(a, w)
	}
	if d.inputOf[b] >= 0 {
		q := d.inputOf[b]
		d.inputOf[a] = q
		d.inputs[q] = boundary{spider: a, etype: d.inputs[q].etype}
	}
	if d.outputOf[b] >= 0 {
		q := d.outputOf[b]
		d.outputOf[a] = q
		d.outputs[q] = boundary{spider: a, etype: d.outputs[q].etype}
	}
	d.removeSpider(b)
}

func (d *Diagram) simplifyOnce() bool {
	for v, ok := d.alive.NextSet(0); ok; v, ok = d.alive.NextSet(v + 1) {
		i := int(v)
		if !d.internal(i) {
			continue
		}
		k, clifford := isClifford(d.phase[i])
		if !clifford {
			continue
		}
		switch k {
		case 1:
			d.localComplement(i, 1)
			return true
		case 3:
			d.localComplement(i, -1)
			return true
		case 0:
			if d.degree(i) == 2 && d.fuseIdentity(i) {
				return true
			}
			fallthrough
		case 2:
			// Pivot needs an internal partner that is also 0 or pi.
			for _, u := range d.neighborList(i) {
				if !d.internal(u) {
					continue
				}
				if ku, ok := isClifford(d.phase[u]); ok && ku%2 == 0 {
					d.pivot(i, u)
					return true
				}
			}
		}
	}
	return false
}

// Simplify runs local complementation, pivoting and identity fusion
// to a fixpoint, removing every internal proper Clifford spider that
// the rules reach. It reports whether the diagram changed.
func (d *Diagram) Simplify() bool {
	any := false
	for d.simplifyOnce() {
		any = true
	}
	// Disconnected scalar spiders can be left behind by pivots.
	for v, ok := d.alive.NextSet(0); ok; v, ok = d.alive.NextSet(v + 1) {
		if d.degree(int(v)) == 0 && d.internal(int(v)) {
			d.removeSpider(int(v))
			any = true
		}
	}
	return any
}
