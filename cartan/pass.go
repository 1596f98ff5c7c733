package cartan

import (
	"fmt"
	"math"

	"github.com/qbitshift/qopt/circuit"
	"github.com/qbitshift/qopt/transform"
)

// TwoQubitTarget selects the entangling alphabet window resynthesis
// emits.
type TwoQubitTarget int

const (
	_                       = 0
	TargetCX TwoQubitTarget = iota
	TargetTK2
)

// window is a maximal run of gates confined to one qubit pair.
type window struct {
	pair    [2]int
	members []int
}

// planWindows greedily assigns gates to maximal pair windows. A
// window opens at the first unassigned two-qubit unitary, absorbs
// single- and two-qubit unitaries on the same pair in both
// directions, and closes at the first gate that touches the pair
// without staying inside it.
func planWindows(gates []circuit.Gate) []window {
	assigned := make([]int, len(gates))
	for i := range assigned {
		assigned[i] = -1
	}
	var wins []window
	for i, g := range gates {
		if assigned[i] >= 0 || len(g.Qubits) != 2 || !g.Op.IsUnitary() {
			continue
		}
		p, q := g.Qubits[0], g.Qubits[1]
		inPair := func(x int) bool { return x == p || x == q }
		subset := func(qs []int) bool {
			for _, x := range qs {
				if !inPair(x) {
					return false
				}
			}
			return true
		}
		intersects := func(qs []int) bool {
			for _, x := range qs {
				if inPair(x) {
					return true
				}
			}
			return false
		}
		id := len(wins)
		assigned[i] = id
		var back []int
		for j := i - 1; j >= 0; j-- {
			if !intersects(gates[j].Qubits) {
				continue
			}
			if assigned[j] < 0 && gates[j].Op.IsUnitary() && subset(gates[j].Qubits) {
				back = append(back, j)
				assigned[j] = id
			} else {
				break
			}
		}
		members := make([]int, 0, len(back)+1)
		for k := len(back) - 1; k >= 0; k-- {
			members = append(members, back[k])
		}
		members = append(members, i)
		for j := i + 1; j < len(gates); j++ {
			if !intersects(gates[j].Qubits) {
				continue
			}
			if assigned[j] < 0 && gates[j].Op.IsUnitary() && subset(gates[j].Qubits) {
				members = append(members, j)
				assigned[j] = id
			} else {
				break
			}
		}
		wins = append(wins, window{pair: [2]int{p, q}, members: members})
	}
	return wins
}

func mapQubits(g circuit.Gate, f func(int) int) circuit.Gate {
	qs := make([]int, len(g.Qubits))
	for i, x := range g.Qubits {
		qs[i] = f(x)
	}
	return circuit.Gate{Op: g.Op, Qubits: qs, Params: append([]float64(nil), g.Params...)}
}

func isIdentityPerm(p []int) bool {
	for i, v := range p {
		if i != v {
			return false
		}
	}
	return true
}

func squashWindows(c *circuit.Circuit, target TwoQubitTarget, allowSwaps bool) (bool, error) {
	gates := c.Gates
	wins := planWindows(gates)
	if len(wins) == 0 {
		return false, nil
	}
	startOf := make(map[int]int, len(wins))
	memberOf := make([]int, len(gates))
	for i := range memberOf {
		memberOf[i] = -1
	}
	for wi, w := range wins {
		for _, m := range w.members {
			memberOf[m] = wi
		}
		startOf[w.members[0]] = wi
	}
	relabel := make([]int, c.NQubits)
	for i := range relabel {
		relabel[i] = i
	}
	permSlice := c.Permutation()
	out := make([]circuit.Gate, 0, len(gates))
	changed := false

	for idx, g := range gates {
		wi, isStart := startOf[idx]
		if !isStart {
			if memberOf[idx] >= 0 {
				continue
			}
			out = append(out, mapQubits(g, func(x int) int { return relabel[x] }))
			continue
		}
		w := wins[wi]
		p, q := relabel[w.pair[0]], relabel[w.pair[1]]
		toLocal := func(x int) int {
			if relabel[x] == p {
				return 0
			}
			return 1
		}
		orig := make([]circuit.Gate, len(w.members))
		local := make([]circuit.Gate, len(w.members))
		old2q, oldTot := 0, len(w.members)
		for k, m := range w.members {
			orig[k] = mapQubits(gates[m], func(x int) int { return relabel[x] })
			local[k] = mapQubits(gates[m], toLocal)
			if len(gates[m].Qubits) == 2 {
				old2q++
			}
		}
		u, err := windowUnitary(local)
		if err != nil {
			return changed, fmt.Errorf("window at gate %d: %v: %w", idx, err, transform.ErrInternal)
		}
		var syn *circuit.Circuit
		if target == TargetTK2 {
			syn, err = SynthesiseTK2(u)
		} else {
			syn, err = SynthesiseCX(u, allowSwaps)
		}
		if err != nil {
			return changed, fmt.Errorf("window at gate %d: %v: %w", idx, err, transform.ErrInternal)
		}
		new2q, newTot := syn.NTwoQubitGates(), len(syn.Gates)
		if new2q < old2q || (new2q == old2q && newTot < oldTot) {
			c.Phase += syn.Phase
			fromLocal := func(x int) int {
				if x == 0 {
					return p
				}
				return q
			}
			for _, sg := range syn.Gates {
				out = append(out, mapQubits(sg, fromLocal))
			}
			if syn.Perm != nil && syn.Perm[0] == 1 {
				permSlice[p], permSlice[q] = permSlice[q], permSlice[p]
				for i, v := range relabel {
					switch v {
					case p:
						relabel[i] = q
					case q:
						relabel[i] = p
					}
				}
			}
			changed = true
		} else {
			out = append(out, orig...)
		}
	}
	c.Gates = out
	if isIdentityPerm(permSlice) {
		c.Perm = nil
	} else {
		c.Perm = permSlice
	}
	return changed, nil
}

// TwoQubitSquash resynthesises every maximal two-qubit window over
// the target alphabet, keeping a rewrite only when it lowers the
// two-qubit gate count (or matches it with fewer gates overall).
func TwoQubitSquash(target TwoQubitTarget, allowSwaps bool) transform.Transform {
	return transform.Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		return squashWindows(c, target, allowSwaps)
	}}
}

// cxDressing expresses CX through the given native entangler with
// single-qubit dressing, computed by matching decompositions. All
// supported natives sit in the CX interaction class.
func cxDressing(native circuit.OpType) (*circuit.Circuit, error) {
	var sk []circuit.Gate
	switch native {
	case circuit.ZZMax:
		sk = []circuit.Gate{{Op: circuit.ZZMax, Qubits: []int{0, 1}}}
	case circuit.XXPhase:
		sk = []circuit.Gate{{Op: circuit.XXPhase, Qubits: []int{0, 1}, Params: []float64{math.Pi / 2}}}
	case circuit.ECR:
		sk = []circuit.Gate{{Op: circuit.ECR, Qubits: []int{0, 1}}}
	case circuit.TK2:
		sk = []circuit.Gate{{Op: circuit.TK2, Qubits: []int{0, 1}, Params: []float64{math.Pi / 2, 0, 0}}}
	default:
		return nil, fmt.Errorf("unsupported native entangler %v", native)
	}
	d, err := Decompose(cxMat)
	if err != nil {
		return nil, err
	}
	return matchSkeleton(cxMat, d, sk)
}

// ReplaceCX rewrites every CX into the native entangler plus locals.
func ReplaceCX(native circuit.OpType) transform.Transform {
	return transform.Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		if c.CountOps(circuit.CX) == 0 {
			return false, nil
		}
		dressing, err := cxDressing(native)
		if err != nil {
			return false, fmt.Errorf("%v: %w", err, transform.ErrInternal)
		}
		var out []circuit.Gate
		for _, g := range c.Gates {
			if g.Op != circuit.CX {
				out = append(out, g)
				continue
			}
			a, b := g.Qubits[0], g.Qubits[1]
			for _, dg := range dressing.Gates {
				out = append(out, mapQubits(dg, func(x int) int {
					if x == 0 {
						return a
					}
					return b
				}))
			}
			c.Phase += dressing.Phase
		}
		c.Gates = out
		return true, nil
	}}
}
