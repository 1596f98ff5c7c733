package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbitshift/qopt/circuit"
)

// dropOne removes the last gate, reporting unchanged on an empty
// circuit.
var dropOne = Transform{Apply: func(c *circuit.Circuit) (bool, error) {
	if len(c.Gates) == 0 {
		return false, nil
	}
	c.Gates = c.Gates[:len(c.Gates)-1]
	return true, nil
}}

func ladder(n int) *circuit.Circuit {
	c := circuit.New(2)
	for i := 0; i < n; i++ {
		c.Add2(circuit.CX, 0, 1)
	}
	return c
}

func TestSequence(t *testing.T) {
	c := ladder(3)
	ch, err := Sequence(dropOne, dropOne).Apply(c)
	require.NoError(t, err)
	assert.True(t, ch)
	assert.Equal(t, 1, len(c.Gates))

	ch, err = Sequence().Apply(c)
	require.NoError(t, err)
	assert.False(t, ch)
}

func TestRepeat(t *testing.T) {
	c := ladder(5)
	ch, err := Repeat(dropOne).Apply(c)
	require.NoError(t, err)
	assert.True(t, ch)
	assert.Equal(t, 0, len(c.Gates))

	ch, err = Repeat(dropOne).Apply(c)
	require.NoError(t, err)
	assert.False(t, ch)
}

func TestRepeatDiverges(t *testing.T) {
	churn := Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		return true, nil
	}}
	_, err := Repeat(churn).Apply(ladder(1))
	assert.ErrorIs(t, err, ErrInternal)
}

func TestRepeatWithMetric(t *testing.T) {
	// Each round drops one gate, so the metric strictly decreases
	// until empty.
	c := ladder(4)
	ch, err := RepeatWithMetric(dropOne, TwoQubitGateCount).Apply(c)
	require.NoError(t, err)
	assert.True(t, ch)
	assert.Equal(t, 0, len(c.Gates))

	// A pass that changes the circuit without improving the metric
	// runs exactly once.
	calls := 0
	churn := Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		calls++
		c.Add1(circuit.H, 0)
		return true, nil
	}}
	_, err = RepeatWithMetric(churn, TwoQubitGateCount).Apply(circuit.New(1))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestTryAcceptReverts(t *testing.T) {
	// dropOne lowers the gate count, so FewerGates accepts.
	c := ladder(2)
	ch, err := TryAccept(dropOne, FewerGates).Apply(c)
	require.NoError(t, err)
	assert.True(t, ch)
	assert.Equal(t, 1, len(c.Gates))

	// A rejecting criterion leaves the circuit untouched.
	never := func(before, after *circuit.Circuit) bool { return false }
	before := c.Clone()
	ch, err = TryAccept(dropOne, never).Apply(c)
	require.NoError(t, err)
	assert.False(t, ch)
	assert.Equal(t, before.String(), c.String())
}

func TestTryAcceptSwallowsPrecondition(t *testing.T) {
	refuse := Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		return false, ErrPrecondition
	}}
	c := ladder(1)
	ch, err := TryAccept(refuse, FewerGates).Apply(c)
	require.NoError(t, err)
	assert.False(t, ch)

	boom := Transform{Apply: func(c *circuit.Circuit) (bool, error) {
		return false, ErrInternal
	}}
	_, err = TryAccept(boom, FewerGates).Apply(c)
	assert.True(t, errors.Is(err, ErrInternal))
}
