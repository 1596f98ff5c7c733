package gadget

import (
	"fmt"

	"github.com/qbitshift/qopt/circuit"
	"github.com/qbitshift/qopt/transform"
)

// Resynthesis returns a transform that collects maximal runs of CX, X
// and diagonal gates into phase gadgets, merges gadgets over equal
// parities, and rewrites each run as gadget ladders in the chosen
// shape followed by a CX network for the leftover linear map. Gates
// outside the run alphabet pass through untouched.
func Resynthesis(cfg CXConfig) transform.Transform {
	return transform.Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		if !cfg.valid() {
			return false, fmt.Errorf("bad cx config %d: %w", int(cfg), transform.ErrPrecondition)
		}
		out := circuit.New(c.NQubits)
		out.Phase = c.Phase
		if c.Perm != nil {
			out.Perm = append([]int(nil), c.Perm...)
		}
		seg := newSegment(c.NQubits)
		for _, g := range c.Gates {
			if seg.absorb(g) {
				continue
			}
			seg.flush(out, cfg)
			out.Add(g.Op, append([]int(nil), g.Qubits...), g.Params...)
		}
		seg.flush(out, cfg)
		circuit.RemoveRedundancies(out)
		if c.SameGates(out) {
			return false, nil
		}
		*c = *out
		return true, nil
	}}
}
