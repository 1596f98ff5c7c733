package circuit

import "math"

const angleTol = 1e-10

// NormalizeAngle reduces t into [0, 2*pi).
func NormalizeAngle(t float64) float64 {
	t = math.Mod(t, 2*math.Pi)
	if t < 0 {
		t += 2 * math.Pi
	}
	return t
}

// angleClass reduces t modulo 4*pi and classifies it against the
// identity: 0 means exp(-i t P / 2) is the identity, 1 means it is
// minus the identity, -1 means neither.
func angleClass(t float64) int {
	t = math.Mod(t, 4*math.Pi)
	if t < 0 {
		t += 4 * math.Pi
	}
	if t < angleTol || 4*math.Pi-t < angleTol {
		return 0
	}
	if math.Abs(t-2*math.Pi) < angleTol {
		return 1
	}
	return -1
}

// selfInverse ops cancel against an identical neighbour on the same
// qubit list.
func selfInverse(t OpType) bool {
	switch t {
	case CX, CZ, SWAP, ECR, H, X, Y, Z:
		return true
	}
	return false
}

// inversePairs maps an op to the op that undoes it on the same qubits.
var inversePairs = map[OpType]OpType{
	S: Sdg, Sdg: S,
	SX: SXdg, SXdg: SX,
	V: Vdg, Vdg: V,
}

func rotationAxis(t OpType) bool {
	switch t {
	case Rx, Ry, Rz, ZZPhase, XXPhase, YYPhase, PhaseGadget:
		return true
	}
	return false
}

func sameQubits(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// removeRedundanciesOnce makes one sweep of adjacent-pair rewrites:
// identical self-inverse gates cancel, inverse pairs cancel, same-axis
// rotations merge, and rotations by full turns drop out (half the
// time leaving a global phase of pi). Reports whether anything fired.
func removeRedundanciesOnce(c *Circuit) bool {
	changed := false
	// last[q] is the index in kept of the most recent gate touching q.
	last := make([]int, c.NQubits)
	for i := range last {
		last[i] = -1
	}
	kept := make([]Gate, 0, len(c.Gates))
	dead := func(g Gate) bool { return g.Op == 0 }
	push := func(g Gate, idx int) {
		for _, q := range g.Qubits {
			last[q] = idx
		}
	}
	for _, g := range c.Gates {
		if g.Op == Barrier {
			kept = append(kept, g)
			push(g, len(kept)-1)
			continue
		}
		// Drop identity rotations outright.
		if rotationAxis(g.Op) {
			switch angleClass(g.Params[0]) {
			case 0:
				changed = true
				continue
			case 1:
				c.Phase += math.Pi
				changed = true
				continue
			}
		}
		// Find the unique previous gate covering all our qubits.
		prev := -1
		blocked := false
		for _, q := range g.Qubits {
			if last[q] == -1 {
				blocked = true
				break
			}
			if prev == -1 {
				prev = last[q]
			} else if last[q] != prev {
				blocked = true
				break
			}
		}
		if !blocked && prev >= 0 && !dead(kept[prev]) {
			pg := kept[prev]
			if sameQubits(pg.Qubits, g.Qubits) {
				switch {
				case selfInverse(g.Op) && pg.Op == g.Op:
					kept[prev] = Gate{}
					changed = true
					continue
				case inversePairs[g.Op] == pg.Op && pg.Op != 0:
					kept[prev] = Gate{}
					changed = true
					continue
				case rotationAxis(g.Op) && pg.Op == g.Op:
					sum := pg.Params[0] + g.Params[0]
					switch angleClass(sum) {
					case 0:
						kept[prev] = Gate{}
					case 1:
						kept[prev] = Gate{}
						c.Phase += math.Pi
					default:
						kept[prev].Params = []float64{sum}
					}
					changed = true
					continue
				}
			}
		}
		kept = append(kept, g)
		push(g, len(kept)-1)
	}
	out := kept[:0]
	for _, g := range kept {
		if !dead(g) {
			out = append(out, g)
		}
	}
	c.Gates = append(c.Gates[:0], out...)
	return changed
}

// RemoveRedundancies cancels and merges adjacent gates to a fixpoint.
// Reports whether the circuit changed.
func RemoveRedundancies(c *Circuit) bool {
	any := false
	for removeRedundanciesOnce(c) {
		any = true
	}
	return any
}
