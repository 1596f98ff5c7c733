package zx

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/qbitshift/qopt/circuit"
)

const extractTol = 1e-12

// Extract synthesises a circuit realising the diagram, up to global
// phase, over {H, Rz, CZ, CX}. It peels gates off the output side:
// Hadamard output edges and frontier phases become H and Rz gates,
// frontier edges become CZs, and Gaussian elimination over the
// frontier biadjacency becomes CXs until every output is routed to an
// input. The diagram is consumed.
func (d *Diagram) Extract() (*circuit.Circuit, error) {
	n := d.NQubits
	// Push each input attachment onto a fresh terminal spider behind a
	// phaseless midpoint. Two Hadamard edges around a phaseless spider
	// compose to a plain wire, so the diagram is unchanged, and the
	// detached holders become ordinary spiders the frontier can advance
	// through. Row additions may then rewire input connections like any
	// other column.
	for q := 0; q < n; q++ {
		v := d.inputs[q].spider
		mid := d.addSpider(0)
		term := d.addSpider(0)
		d.toggleEdge(v, mid)
		d.toggleEdge(mid, term)
		d.inputOf[v] = -1
		d.inputOf[term] = q
		d.inputs[q] = boundary{spider: term, etype: d.inputs[q].etype}
	}
	var tail []circuit.Gate
	emit := func(op circuit.OpType, qubits []int, params ...float64) {
		tail = append(tail, circuit.Gate{Op: op, Qubits: qubits, Params: params})
	}
	routed := make([]int, n)
	for q := range routed {
		routed[q] = -1
	}
	active := func() []int {
		var out []int
		for q := 0; q < n; q++ {
			if routed[q] < 0 {
				out = append(out, q)
			}
		}
		return out
	}

	for iter := 0; ; iter++ {
		if iter > 4*(len(d.phase)+n)+16 {
			return nil, fmt.Errorf("extraction failed to converge")
		}
		// Peel Hadamards and phases off the outputs.
		for _, q := range active() {
			b := &d.outputs[q]
			if b.etype == Had {
				emit(circuit.H, []int{q})
				b.etype = Plain
			}
			if p := d.phase[b.spider]; math.Abs(p) > extractTol {
				emit(circuit.Rz, []int{q}, p)
				d.phase[b.spider] = 0
			}
		}
		// Frontier to frontier edges peel off as CZs.
		act := active()
		for i := 0; i < len(act); i++ {
			for j := i + 1; j < len(act); j++ {
				u, v := d.outputs[act[i]].spider, d.outputs[act[j]].spider
				if d.connected(u, v) {
					emit(circuit.CZ, []int{act[i], act[j]})
					d.toggleEdge(u, v)
				}
			}
		}
		// Route wires whose frontier spider has emptied out.
		progress := false
		for _, q := range act {
			v := d.outputs[q].spider
			if d.adj[v].Count() != 0 {
				continue
			}
			in := d.inputOf[v]
			if in < 0 {
				return nil, fmt.Errorf("dangling frontier spider on wire %d", q)
			}
			routed[q] = in
			d.inputOf[v] = -1
			d.outputOf[v] = -1
			d.removeSpider(v)
			progress = true
		}
		act = active()
		if len(act) == 0 {
			break
		}

		// Biadjacency between frontier spiders and their interior
		// neighbors, reduced by row additions. Adding row j into
		// row i realises a CX with control i, so peeling it means
		// the same edges toggle in the diagram.
		frontier := bitset.New(uint(len(d.phase)))
		for _, q := range act {
			frontier.Set(uint(d.outputs[q].spider))
		}
		colOf := map[int]int{}
		var cols []int
		for _, q := range act {
			for _, w := range d.neighborList(d.outputs[q].spider) {
				if !frontier.Test(uint(w)) {
					if _, ok := colOf[w]; !ok {
						colOf[w] = len(cols)
						cols = append(cols, w)
					}
				}
			}
		}
		rows := make([]*bitset.BitSet, len(act))
		for i, q := range act {
			rows[i] = bitset.New(uint(len(cols)))
			for _, w := range d.neighborList(d.outputs[q].spider) {
				if c, ok := colOf[w]; ok {
					rows[i].Set(uint(c))
				}
			}
		}
		rowAdd := func(dst, src int) {
			// dst row changes, so dst is the control.
			for _, c := range bits(rows[src]) {
				d.toggleEdge(d.outputs[act[dst]].spider, cols[c])
			}
			rows[dst].InPlaceSymmetricDifference(rows[src])
			emit(circuit.CX, []int{act[dst], act[src]})
		}
		pivotOf := make([]int, len(cols))
		for c := range pivotOf {
			pivotOf[c] = -1
		}
		used := make([]bool, len(act))
		for c := range cols {
			p := -1
			for i := range rows {
				if !used[i] && rows[i].Test(uint(c)) {
					p = i
					break
				}
			}
			if p < 0 {
				continue
			}
			used[p] = true
			pivotOf[c] = p
			for i := range rows {
				if i != p && rows[i].Test(uint(c)) {
					rowAdd(i, p)
				}
			}
		}
		// Frontier spiders left with a single interior neighbor
		// advance onto it, unless they still hold an input.
		for i, q := range act {
			v := d.outputs[q].spider
			if rows[i].Count() != 1 || d.inputOf[v] >= 0 {
				continue
			}
			w := cols[bits(rows[i])[0]]
			d.toggleEdge(v, w)
			d.outputOf[v] = -1
			d.removeSpider(v)
			d.outputs[q] = boundary{spider: w, etype: Had}
			d.outputOf[w] = q
			progress = true
		}
		if !progress {
			return nil, fmt.Errorf("no extractable frontier vertex")
		}
	}

	out := circuit.New(n)
	out.Phase = d.Phase
	for i := len(tail) - 1; i >= 0; i-- {
		g := tail[i]
		qs := make([]int, len(g.Qubits))
		for k, q := range g.Qubits {
			qs[k] = routed[q]
		}
		out.Add(g.Op, qs, g.Params...)
	}
	perm := make([]int, n)
	identity := true
	for q := 0; q < n; q++ {
		perm[routed[q]] = q
		if routed[q] != q {
			identity = false
		}
	}
	if !identity {
		out.Perm = perm
	}
	if d.perm != nil {
		out.ComposePerm(d.perm)
	}
	// Routing through the input terminals leaves cancelling Hadamard
	// pairs on otherwise trivial wires.
	circuit.RemoveRedundancies(out)
	return out, nil
}
