// Package qopt assembles the engine packages into the named
// optimisation and retargeting passes. Each factory returns a
// transform.Transform composed from the two-qubit synthesis,
// tableau, ZX and phase-gadget engines, and logs a gate-count
// summary at debug level when applied.
package qopt

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/qbitshift/qopt/cartan"
	"github.com/qbitshift/qopt/circuit"
	"github.com/qbitshift/qopt/gadget"
	"github.com/qbitshift/qopt/tableau"
	"github.com/qbitshift/qopt/transform"
	"github.com/qbitshift/qopt/zx"
)

func logged(name string, t transform.Transform) transform.Transform {
	return transform.Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		nbGates, nb2q := c.NGates(), c.NTwoQubitGates()
		changed, err := t.Apply(c)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", name, err)
		}
		log.Debug().
			Str("pass", name).
			Bool("changed", changed).
			Int("nbGatesIn", nbGates).
			Int("nbGatesOut", c.NGates()).
			Int("nb2qIn", nb2q).
			Int("nb2qOut", c.NTwoQubitGates()).
			Msg("applied")
		return changed, nil
	}}
}

// rebasePass rewrites the circuit over {CX, Rz, Rx, H} so every
// downstream engine sees a gate set it understands. A gate outside
// the rebasable alphabet is a precondition failure.
func rebasePass() transform.Transform {
	return transform.Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		r, err := circuit.RebaseToCXRzRxH(c)
		if err != nil {
			return false, fmt.Errorf("rebase: %v: %w", err, transform.ErrPrecondition)
		}
		if c.SameGates(r) {
			return false, nil
		}
		*c = *r
		return true, nil
	}}
}

func notWorse2Q(before, after *circuit.Circuit) bool {
	return after.NTwoQubitGates() <= before.NTwoQubitGates()
}

// PeepholeOptimise2Q resynthesises every maximal two-qubit window
// over {CX, TK1}. With allowSwaps a window may absorb a wire swap
// into the circuit permutation to save a CX.
func PeepholeOptimise2Q(allowSwaps bool) transform.Transform {
	return logged("peephole_optimise_2q", transform.Sequence(
		rebasePass(),
		transform.Repeat(cartan.TwoQubitSquash(cartan.TargetCX, allowSwaps)),
		cartan.Squash1Q(cartan.TargetTK1),
	))
}

// FullPeepholeOptimise iterates tableau resynthesis and two-qubit
// window squashing while the two-qubit gate count keeps dropping,
// then retargets to {target, TK1}. The tableau step is accepted per
// round only when it does not raise the two-qubit count.
func FullPeepholeOptimise(allowSwaps bool, target cartan.TwoQubitTarget) transform.Transform {
	round := transform.Sequence(
		rebasePass(),
		// The tableau step emits PhaseGadget frames, so flatten them
		// before judging the two-qubit count.
		transform.TryAccept(transform.Sequence(tableau.Resynthesis(), rebasePass()), notWorse2Q),
		transform.Repeat(cartan.TwoQubitSquash(target, allowSwaps)),
	)
	steps := []transform.Transform{
		transform.RepeatWithMetric(round, transform.TwoQubitGateCount),
	}
	if target == cartan.TargetTK2 {
		steps = append(steps, cartan.ReplaceCX(circuit.TK2))
	}
	steps = append(steps, cartan.Squash1Q(cartan.TargetTK1))
	return logged("full_peephole_optimise", transform.Sequence(steps...))
}

// ZXGraphlikeOptimisation simplifies the circuit through the
// graphlike ZX normal form. Circuits containing measurement or reset
// are rejected with ErrPrecondition before any mutation; the result
// is not guaranteed to be cheaper than the input.
func ZXGraphlikeOptimisation() transform.Transform {
	return logged("zx_graphlike_optimisation", zx.Graphlike())
}

// TryZXGraphlikeOptimisation runs the ZX pass on a rebased copy and
// keeps the result only when crit accepts it. Precondition failures
// report an unchanged circuit; internal extraction errors still
// surface.
func TryZXGraphlikeOptimisation(crit transform.AcceptanceCriterion) transform.Transform {
	body := transform.Sequence(rebasePass(), zx.Graphlike())
	return logged("try_zx_graphlike_optimisation", transform.TryAccept(body, crit))
}

// CanonicalHyperCliffordSquash runs phase-gadget resynthesis, then
// tableau resynthesis, then two-qubit window squashing with swap
// absorption. Produces {CX, TK1}.
func CanonicalHyperCliffordSquash() transform.Transform {
	return logged("canonical_hyper_clifford_squash", transform.Sequence(
		rebasePass(),
		gadget.Resynthesis(gadget.Snake),
		tableau.Resynthesis(),
		rebasePass(),
		transform.Repeat(cartan.TwoQubitSquash(cartan.TargetCX, true)),
		cartan.Squash1Q(cartan.TargetTK1),
	))
}

// HyperCliffordSquash folds Clifford structure through the stabilizer
// tableau and squashes the surviving two-qubit windows. Produces
// {CX, TK1}.
func HyperCliffordSquash(allowSwaps bool) transform.Transform {
	return logged("hyper_clifford_squash", hyperCliffordBody(allowSwaps))
}

func hyperCliffordBody(allowSwaps bool) transform.Transform {
	return transform.Sequence(
		rebasePass(),
		tableau.Resynthesis(),
		// Resynthesis emits PhaseGadget frames outside the produced
		// gate set; flatten them before windowing.
		rebasePass(),
		transform.Repeat(cartan.TwoQubitSquash(cartan.TargetCX, allowSwaps)),
		cartan.Squash1Q(cartan.TargetTK1),
	)
}

// CliffordSimp is the guarded form of HyperCliffordSquash: the
// rewrite is kept only when it does not raise the two-qubit gate
// count, otherwise the input is returned unchanged.
func CliffordSimp(allowSwaps bool) transform.Transform {
	return logged("clifford_simp", transform.TryAccept(hyperCliffordBody(allowSwaps), notWorse2Q))
}

// SynthesiseTK retargets to {TK2, TK1}.
func SynthesiseTK() transform.Transform {
	return logged("synthesise_tk", transform.Sequence(
		rebasePass(),
		transform.Repeat(cartan.TwoQubitSquash(cartan.TargetTK2, false)),
		cartan.ReplaceCX(circuit.TK2),
		cartan.Squash1Q(cartan.TargetTK1),
	))
}

// SynthesiseTket retargets to {CX, TK1}.
func SynthesiseTket() transform.Transform {
	return logged("synthesise_tket", transform.Sequence(
		rebasePass(),
		transform.Repeat(cartan.TwoQubitSquash(cartan.TargetCX, false)),
		cartan.Squash1Q(cartan.TargetTK1),
	))
}

// SynthesiseOQC retargets to {ECR, Rz, SX}.
func SynthesiseOQC() transform.Transform {
	return logged("synthesise_OQC", transform.Sequence(
		rebasePass(),
		transform.Repeat(cartan.TwoQubitSquash(cartan.TargetCX, false)),
		cartan.ReplaceCX(circuit.ECR),
		cartan.Squash1Q(cartan.TargetRzSX),
	))
}

// SynthesiseHQS retargets to {ZZMax, PhasedX, Rz}.
func SynthesiseHQS() transform.Transform {
	return logged("synthesise_HQS", transform.Sequence(
		rebasePass(),
		transform.Repeat(cartan.TwoQubitSquash(cartan.TargetCX, false)),
		cartan.ReplaceCX(circuit.ZZMax),
		cartan.Squash1Q(cartan.TargetRzPhasedX),
	))
}

// SynthesiseUMD retargets to {XXPhase, PhasedX, Rz}.
func SynthesiseUMD() transform.Transform {
	return logged("synthesise_UMD", transform.Sequence(
		rebasePass(),
		transform.Repeat(cartan.TwoQubitSquash(cartan.TargetCX, false)),
		cartan.ReplaceCX(circuit.XXPhase),
		cartan.Squash1Q(cartan.TargetRzPhasedX),
	))
}

// OptimiseViaPhaseGadget regroups commuting diagonal rotations into
// phase gadgets, resynthesises their ladders in the given shape
// (Snake is the conventional choice) and squashes the single-qubit
// remainder. Produces {CX, TK1}.
func OptimiseViaPhaseGadget(cfg gadget.CXConfig) transform.Transform {
	return logged("optimise_via_PhaseGadget", transform.Sequence(
		rebasePass(),
		gadget.Resynthesis(cfg),
		cartan.Squash1Q(cartan.TargetTK1),
	))
}
