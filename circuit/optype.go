package circuit

import "fmt"

// OpType enumerates the gate types that can appear in a Circuit.
type OpType int

const (
	_          = 0
	TK1 OpType = iota
	TK2
	CX
	CZ
	SWAP
	ZZMax
	ZZPhase
	XXPhase
	YYPhase
	ECR
	H
	X
	Y
	Z
	S
	Sdg
	SX
	SXdg
	V
	Vdg
	Rx
	Ry
	Rz
	PhasedX
	PhaseGadget
	Measure
	Reset
	Barrier
	maxOpType
)

// opInfo describes the static shape of an op: its printed name, the
// number of qubits it acts on (0 means any number, at least one), and
// the number of float parameters it carries.
type opInfo struct {
	name    string
	nQubits int
	nParams int
}

var opInfos = [maxOpType]opInfo{
	TK1:         {"TK1", 1, 3},
	TK2:         {"TK2", 2, 3},
	CX:          {"CX", 2, 0},
	CZ:          {"CZ", 2, 0},
	SWAP:        {"SWAP", 2, 0},
	ZZMax:       {"ZZMax", 2, 0},
	ZZPhase:     {"ZZPhase", 2, 1},
	XXPhase:     {"XXPhase", 2, 1},
	YYPhase:     {"YYPhase", 2, 1},
	ECR:         {"ECR", 2, 0},
	H:           {"H", 1, 0},
	X:           {"X", 1, 0},
	Y:           {"Y", 1, 0},
	Z:           {"Z", 1, 0},
	S:           {"S", 1, 0},
	Sdg:         {"Sdg", 1, 0},
	SX:          {"SX", 1, 0},
	SXdg:        {"SXdg", 1, 0},
	V:           {"V", 1, 0},
	Vdg:         {"Vdg", 1, 0},
	Rx:          {"Rx", 1, 1},
	Ry:          {"Ry", 1, 1},
	Rz:          {"Rz", 1, 1},
	PhasedX:     {"PhasedX", 1, 2},
	PhaseGadget: {"PhaseGadget", 0, 1},
	Measure:     {"Measure", 1, 0},
	Reset:       {"Reset", 1, 0},
	Barrier:     {"Barrier", 0, 0},
}

func (t OpType) valid() bool {
	return t > 0 && t < maxOpType
}

func (t OpType) String() string {
	if !t.valid() {
		return fmt.Sprintf("OpType(%d)", int(t))
	}
	return opInfos[t].name
}

// NQubits returns the qubit arity of the op type, or 0 when the op
// accepts any number of qubits.
func (t OpType) NQubits() int {
	return opInfos[t].nQubits
}

// NParams returns the number of angle parameters the op type carries.
func (t OpType) NParams() int {
	return opInfos[t].nParams
}

// IsTwoQubit reports whether the op type acts on exactly two qubits.
func (t OpType) IsTwoQubit() bool {
	return opInfos[t].nQubits == 2
}

// IsFixedClifford reports whether the op type is Clifford for every
// parameter value. Parametrised ops are never fixed Clifford even when
// the angle happens to be a multiple of a half turn.
func (t OpType) IsFixedClifford() bool {
	switch t {
	case CX, CZ, SWAP, ZZMax, ECR, H, X, Y, Z, S, Sdg, SX, SXdg, V, Vdg:
		return true
	}
	return false
}

// IsUnitary reports whether the op type has a unitary action. Measure,
// Reset and Barrier do not.
func (t OpType) IsUnitary() bool {
	switch t {
	case Measure, Reset, Barrier:
		return false
	}
	return t.valid()
}

// OpTypeByName resolves a printed op name back to its type. Matching
// is exact and case sensitive.
func OpTypeByName(name string) (OpType, bool) {
	for t := OpType(1); t < maxOpType; t++ {
		if opInfos[t].name == name {
			return t, true
		}
	}
	return 0, false
}

// OpTypes lists every valid op type in declaration order.
func OpTypes() []OpType {
	out := make([]OpType, 0, maxOpType-1)
	for t := OpType(1); t < maxOpType; t++ {
		out = append(out, t)
	}
	return out
}
