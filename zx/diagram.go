// Package zx implements graphlike ZX diagrams: phased Z spiders
// joined by Hadamard edges, simplified by local complementation and
// pivoting, with circuit extraction back out of the diagram.
package zx

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/qbitshift/qopt/circuit"
)

// EdgeType distinguishes boundary wires from Hadamard wires. Spider
// to spider edges are always Hadamard in graphlike form; only the
// edges touching inputs and outputs vary.
type EdgeType uint8

const (
	Plain EdgeType = iota
	Had
)

// boundary records which spider a circuit input or output attaches
// to, and through which kind of edge.
type boundary struct {
	spider int
	etype  EdgeType
}

// Diagram is a graphlike ZX diagram with one input and one output per
// qubit. Spider adjacency rows hold the Hadamard edges.
type Diagram struct {
	NQubits int
	Phase   float64

	phase []float64
	adj   []*bitset.BitSet
	alive *bitset.BitSet

	inputs  []boundary
	outputs []boundary
	// inputOf[v] is the input wire attached to spider v, or -1.
	inputOf  []int
	outputOf []int

	// perm carried over from the source circuit, applied after it.
	perm []int
}

func (d *Diagram) addSpider(phase float64) int {
	v := len(d.phase)
	d.phase = append(d.phase, phase)
	d.adj = append(d.adj, bitset.New(uint(v+1)))
	d.alive.Set(uint(v))
	d.inputOf = append(d.inputOf, -1)
	d.outputOf = append(d.outputOf, -1)
	return v
}

func (d *Diagram) connected(a, b int) bool {
	return d.adj[a].Test(uint(b))
}

// toggleEdge flips the Hadamard edge between two distinct spiders.
// Parallel Hadamard edges cancel, which is exactly this toggle.
func (d *Diagram) toggleEdge(a, b int) {
	d.adj[a].Flip(uint(b))
	d.adj[b].Flip(uint(a))
}

func (d *Diagram) removeSpider(v int) {
	for u, ok := d.adj[v].NextSet(0); ok; u, ok = d.adj[v].NextSet(u + 1) {
		d.adj[u].Clear(uint(v))
	}
	d.adj[v].ClearAll()
	d.alive.Clear(uint(v))
	d.phase[v] = 0
}

func (d *Diagram) degree(v int) int {
	n := int(d.adj[v].Count())
	if d.inputOf[v] >= 0 {
		n++
	}
	if d.outputOf[v] >= 0 {
		n++
	}
	return n
}

// internal reports whether v touches no boundary.
func (d *Diagram) internal(v int) bool {
	return d.inputOf[v] < 0 && d.outputOf[v] < 0
}

func (d *Diagram) addPhase(v int, t float64) {
	d.phase[v] = circuit.NormalizeAngle(d.phase[v] + t)
}

// NSpiders counts the live spiders.
func (d *Diagram) NSpiders() int {
	return int(d.alive.Count())
}

// FromCircuit converts a unitary circuit into a graphlike diagram.
// The circuit is first rewritten over {CX, Rz, Rx, H}; Hadamards
// become pending edge flips, rotations become spider phases, and CX
// splits into a CZ between fresh landing spiders.
func FromCircuit(c *circuit.Circuit) (*Diagram, error) {
	if c.HasNonUnitary() {
		return nil, fmt.Errorf("diagram needs a unitary circuit")
	}
	flat, err := circuit.RebaseToCXRzRxH(c)
	if err != nil {
		return nil, err
	}
	n := c.NQubits
	d := &Diagram{
		NQubits: n,
		Phase:   flat.Phase,
		alive:   bitset.New(uint(n)),
		inputs:  make([]boundary, n),
		outputs: make([]boundary, n),
	}
	frontier := make([]int, n)
	pending := make([]bool, n)
	for q := 0; q < n; q++ {
		v := d.addSpider(0)
		d.inputOf[v] = q
		d.inputs[q] = boundary{spider: v, etype: Plain}
		frontier[q] = v
	}
	// land gives a spider whose phase may still absorb rotations on
	// wire q, materialising any pending Hadamard.
	land := func(q int) int {
		if pending[q] {
			v := d.addSpider(0)
			d.toggleEdge(frontier[q], v)
			frontier[q] = v
			pending[q] = false
		}
		return frontier[q]
	}
	for _, g := range flat.Gates {
		switch g.Op {
		case circuit.H:
			pending[g.Qubits[0]] = !pending[g.Qubits[0]]
		case circuit.Rz:
			d.addPhase(land(g.Qubits[0]), g.Params[0])
		case circuit.Rx:
			q := g.Qubits[0]
			pending[q] = !pending[q]
			d.addPhase(land(q), g.Params[0])
			pending[q] = true
		case circuit.CX:
			c0, t0 := g.Qubits[0], g.Qubits[1]
			pending[t0] = !pending[t0]
			d.toggleEdge(land(c0), land(t0))
			pending[t0] = !pending[t0]
		default:
			return nil, fmt.Errorf("cannot convert op %v", g.Op)
		}
	}
	for q := 0; q < n; q++ {
		v := frontier[q]
		et := Plain
		if pending[q] {
			et = Had
		}
		d.outputs[q] = boundary{spider: v, etype: et}
		d.outputOf[v] = q
	}
	if flat.Perm != nil {
		d.perm = append([]int(nil), flat.Perm...)
	}
	return d, nil
}

// isClifford reports whether t is a multiple of pi/2, returning the
// multiple mod 4.
func isClifford(t float64) (int, bool) {
	k := math.Round(t / (math.Pi / 2))
	if math.Abs(t-k*math.Pi/2) > 1e-9 {
		return 0, false
	}
	return ((int(k) % 4) + 4) % 4, true
}
