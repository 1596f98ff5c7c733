package circuit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Gate is one operation applied to an ordered list of qubits. For
// controlled ops the control comes first. Params are angles in
// radians.
type Gate struct {
	Op     OpType
	Qubits []int
	Params []float64
}

// Circuit is a straight-line sequence of gates on NQubits qubits,
// together with a global phase (radians) and an implicit output
// permutation. Perm[i] = j means the logical wire entering at qubit i
// exits at qubit j; a nil Perm is the identity.
type Circuit struct {
	NQubits int
	Gates   []Gate
	Phase   float64
	Perm    []int
}

func New(nQubits int) *Circuit {
	return &Circuit{NQubits: nQubits}
}

// Add appends a gate. The caller is expected to pass well-formed
// arguments; Validate catches the rest.
func (c *Circuit) Add(op OpType, qubits []int, params ...float64) {
	c.Gates = append(c.Gates, Gate{Op: op, Qubits: qubits, Params: params})
}

// Add1 appends a single-qubit gate.
func (c *Circuit) Add1(op OpType, q int, params ...float64) {
	c.Add(op, []int{q}, params...)
}

// Add2 appends a two-qubit gate.
func (c *Circuit) Add2(op OpType, q0, q1 int, params ...float64) {
	c.Add(op, []int{q0, q1}, params...)
}

func (c *Circuit) Clone() *Circuit {
	out := &Circuit{NQubits: c.NQubits, Phase: c.Phase}
	out.Gates = make([]Gate, len(c.Gates))
	for i, g := range c.Gates {
		out.Gates[i] = Gate{
			Op:     g.Op,
			Qubits: append([]int(nil), g.Qubits...),
			Params: append([]float64(nil), g.Params...),
		}
	}
	if c.Perm != nil {
		out.Perm = append([]int(nil), c.Perm...)
	}
	return out
}

// Permutation returns the output permutation with the identity made
// explicit.
func (c *Circuit) Permutation() []int {
	p := make([]int, c.NQubits)
	for i := range p {
		p[i] = i
	}
	if c.Perm != nil {
		copy(p, c.Perm)
	}
	return p
}

// ComposePerm records that wire i additionally exits at p[i], applied
// after the permutation already stored on the circuit.
func (c *Circuit) ComposePerm(p []int) {
	cur := c.Permutation()
	out := make([]int, c.NQubits)
	for i := range cur {
		out[i] = p[cur[i]]
	}
	c.Perm = out
}

func checkGate(g Gate, nQubits int) error {
	if !g.Op.valid() {
		return fmt.Errorf("invalid op type %d", int(g.Op))
	}
	want := g.Op.NQubits()
	if want == 0 {
		if len(g.Qubits) == 0 {
			return fmt.Errorf("%v needs at least one qubit", g.Op)
		}
	} else if len(g.Qubits) != want {
		return fmt.Errorf("%v needs %d qubits, got %d", g.Op, want, len(g.Qubits))
	}
	if len(g.Params) != g.Op.NParams() {
		return fmt.Errorf("%v needs %d params, got %d", g.Op, g.Op.NParams(), len(g.Params))
	}
	seen := make(map[int]bool, len(g.Qubits))
	for _, q := range g.Qubits {
		if q < 0 || q >= nQubits {
			return fmt.Errorf("qubit %d is out of bound", q)
		}
		if seen[q] {
			return fmt.Errorf("qubit %d is repeated", q)
		}
		seen[q] = true
	}
	for _, p := range g.Params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%v param %v is not finite", g.Op, p)
		}
	}
	return nil
}

// Validate checks if the circuit is well formed.
func (c *Circuit) Validate() error {
	if c.NQubits <= 0 {
		return fmt.Errorf("circuit has no qubits")
	}
	for i, g := range c.Gates {
		if err := checkGate(g, c.NQubits); err != nil {
			return fmt.Errorf("gate %d: %v", i, err)
		}
	}
	if c.Perm != nil {
		if len(c.Perm) != c.NQubits {
			return fmt.Errorf("perm has %d entries, want %d", len(c.Perm), c.NQubits)
		}
		seen := make([]bool, c.NQubits)
		for i, p := range c.Perm {
			if p < 0 || p >= c.NQubits {
				return fmt.Errorf("perm entry %d is out of bound", i)
			}
			if seen[p] {
				return fmt.Errorf("perm entry %d is repeated", p)
			}
			seen[p] = true
		}
	}
	return nil
}

// NGates returns the total gate count, Barrier excluded.
func (c *Circuit) NGates() int {
	n := 0
	for _, g := range c.Gates {
		if g.Op != Barrier {
			n++
		}
	}
	return n
}

// NTwoQubitGates counts gates acting on exactly two qubits, including
// PhaseGadget instances with two-qubit support.
func (c *Circuit) NTwoQubitGates() int {
	n := 0
	for _, g := range c.Gates {
		if g.Op == Barrier {
			continue
		}
		if len(g.Qubits) == 2 {
			n++
		}
	}
	return n
}

// CountOps returns the number of gates of the given type.
func (c *Circuit) CountOps(t OpType) int {
	n := 0
	for _, g := range c.Gates {
		if g.Op == t {
			n++
		}
	}
	return n
}

// SameGates reports whether two circuits carry identical gate lists:
// same ops, qubits and exact parameter values.
func (c *Circuit) SameGates(o *Circuit) bool {
	if len(c.Gates) != len(o.Gates) {
		return false
	}
	for i, g := range c.Gates {
		h := o.Gates[i]
		if g.Op != h.Op || len(g.Qubits) != len(h.Qubits) || len(g.Params) != len(h.Params) {
			return false
		}
		for j := range g.Qubits {
			if g.Qubits[j] != h.Qubits[j] {
				return false
			}
		}
		for j := range g.Params {
			if g.Params[j] != h.Params[j] {
				return false
			}
		}
	}
	return true
}

// Depth returns the number of layers when gates are packed greedily,
// Barrier forcing a layer boundary on its qubits.
func (c *Circuit) Depth() int {
	front := make([]int, c.NQubits)
	depth := 0
	for _, g := range c.Gates {
		layer := 0
		for _, q := range g.Qubits {
			if front[q] > layer {
				layer = front[q]
			}
		}
		layer++
		for _, q := range g.Qubits {
			front[q] = layer
		}
		if layer > depth {
			depth = layer
		}
	}
	return depth
}

// InGateSet reports whether every gate of the circuit (Barrier aside)
// draws from the given set of op types.
func (c *Circuit) InGateSet(set ...OpType) bool {
	allowed := make(map[OpType]bool, len(set))
	for _, t := range set {
		allowed[t] = true
	}
	for _, g := range c.Gates {
		if g.Op == Barrier {
			continue
		}
		if !allowed[g.Op] {
			return false
		}
	}
	return true
}

// HasNonUnitary reports whether the circuit contains Measure or Reset.
func (c *Circuit) HasNonUnitary() bool {
	for _, g := range c.Gates {
		if !g.Op.IsUnitary() && g.Op != Barrier {
			return true
		}
	}
	return false
}

func (g Gate) String() string {
	var sb strings.Builder
	sb.WriteString(g.Op.String())
	if len(g.Params) > 0 {
		sb.WriteByte('(')
		for i, p := range g.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatFloat(p, 'g', -1, 64))
		}
		sb.WriteByte(')')
	}
	for _, q := range g.Qubits {
		sb.WriteString(" q")
		sb.WriteString(strconv.Itoa(q))
	}
	return sb.String()
}

func (c *Circuit) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "circuit nbQubits=%d nbGates=%d\n", c.NQubits, len(c.Gates))
	for _, g := range c.Gates {
		sb.WriteString(g.String())
		sb.WriteByte('\n')
	}
	if c.Phase != 0 {
		fmt.Fprintf(&sb, "phase %v\n", c.Phase)
	}
	if c.Perm != nil {
		fmt.Fprintf(&sb, "perm %v\n", c.Perm)
	}
	return sb.String()
}
