// Package transform defines the rewrite-pass abstraction shared by
// every optimisation in this module, plus the combinators used to
// assemble them into pipelines.
package transform

import (
	"errors"
	"fmt"

	"github.com/qbitshift/qopt/circuit"
)

// ErrPrecondition marks a pass applied to a circuit it cannot accept,
// reported before any mutation.
var ErrPrecondition = errors.New("precondition violation")

// ErrInternal marks a broken internal invariant of a pass. These are
// bugs, not user errors.
var ErrInternal = errors.New("internal invariant violation")

// repeatCap bounds fixpoint iteration; hitting it means a pass
// oscillates instead of converging.
const repeatCap = 1000

// Transform is a rewrite pass. Apply mutates the circuit in place and
// reports whether anything changed. A false report with a nil error
// means the circuit was left untouched.
type Transform struct {
	Apply func(c *circuit.Circuit) (bool, error)
}

// AcceptanceCriterion judges a candidate rewrite against the circuit
// it came from.
type AcceptanceCriterion func(before, after *circuit.Circuit) bool

// Metric scores a circuit; RepeatWithMetric loops while it strictly
// decreases.
type Metric func(c *circuit.Circuit) int

// Sequence applies the transforms in order; changed is the OR of the
// parts.
func Sequence(ts ...Transform) Transform {
	return Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		any := false
		for i, t := range ts {
			ch, err := t.Apply(c)
			if err != nil {
				return any, fmt.Errorf("sequence step %d: %w", i, err)
			}
			any = any || ch
		}
		return any, nil
	}}
}

// Repeat applies t until it reports no change.
func Repeat(t Transform) Transform {
	return Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		any := false
		for i := 0; ; i++ {
			if i >= repeatCap {
				return any, fmt.Errorf("repeat did not converge after %d rounds: %w", repeatCap, ErrInternal)
			}
			ch, err := t.Apply(c)
			if err != nil {
				return any, err
			}
			if !ch {
				return any, nil
			}
			any = true
		}
	}}
}

// RepeatWithMetric applies t while the metric strictly decreases. A
// round that changes the circuit without lowering the metric still
// counts as changed, but stops the loop.
func RepeatWithMetric(t Transform, m Metric) Transform {
	return Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		any := false
		cur := m(c)
		for i := 0; ; i++ {
			if i >= repeatCap {
				return any, fmt.Errorf("metric repeat did not converge after %d rounds: %w", repeatCap, ErrInternal)
			}
			ch, err := t.Apply(c)
			if err != nil {
				return any, err
			}
			any = any || ch
			next := m(c)
			if !ch || next >= cur {
				return any, nil
			}
			cur = next
		}
	}}
}

// TryAccept runs t on a copy and keeps the result only when crit
// accepts it. Precondition violations inside t are swallowed into an
// unchanged report; internal errors still surface.
func TryAccept(t Transform, crit AcceptanceCriterion) Transform {
	return Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		trial := c.Clone()
		ch, err := t.Apply(trial)
		if err != nil {
			if errors.Is(err, ErrPrecondition) {
				return false, nil
			}
			return false, err
		}
		if !ch || !crit(c, trial) {
			return false, nil
		}
		*c = *trial
		return true, nil
	}}
}

// FewerTwoQubitGates accepts a rewrite that strictly lowers the
// two-qubit gate count.
func FewerTwoQubitGates(before, after *circuit.Circuit) bool {
	return after.NTwoQubitGates() < before.NTwoQubitGates()
}

// FewerGates accepts a rewrite that strictly lowers the total gate
// count.
func FewerGates(before, after *circuit.Circuit) bool {
	return after.NGates() < before.NGates()
}

// NonIncreasingDepth accepts a rewrite that does not deepen the
// circuit.
func NonIncreasingDepth(before, after *circuit.Circuit) bool {
	return after.Depth() <= before.Depth()
}

// TwoQubitGateCount is the metric form of NTwoQubitGates.
func TwoQubitGateCount(c *circuit.Circuit) int {
	return c.NTwoQubitGates()
}
