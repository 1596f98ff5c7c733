package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbitshift/qopt/circuit"
)

func TestReadCircuit(t *testing.T) {
	in := strings.NewReader(`
# bell pair plus a rotation
qubits 3
h 0
cx 0 1
rz 1.5708 2
phasegadget 0.25 0 1 2
`)
	c, err := readCircuit(in)
	require.NoError(t, err)
	assert.Equal(t, 3, c.NQubits)
	require.Len(t, c.Gates, 4)
	assert.Equal(t, circuit.H, c.Gates[0].Op)
	assert.Equal(t, circuit.CX, c.Gates[1].Op)
	assert.Equal(t, []int{0, 1}, c.Gates[1].Qubits)
	assert.InDelta(t, 1.5708, c.Gates[2].Params[0], 1e-12)
	assert.Equal(t, circuit.PhaseGadget, c.Gates[3].Op)
	assert.Equal(t, []int{0, 1, 2}, c.Gates[3].Qubits)
}

func TestReadCircuitErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
	}{
		{"missing header", "h 0\n"},
		{"unknown gate", "qubits 2\nfoo 0\n"},
		{"missing angle", "qubits 2\nrz 0\n"},
		{"qubit out of range", "qubits 2\ncx 0 2\n"},
		{"wrong arity", "qubits 2\ncx 0\n"},
		{"empty", "\n# nothing\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readCircuit(strings.NewReader(tc.in))
			assert.Error(t, err)
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	c := circuit.New(2)
	c.Add1(circuit.H, 0)
	c.Add2(circuit.CX, 0, 1)
	c.Add1(circuit.Rz, 1, 0.25)
	c.Add1(circuit.TK1, 0, 0.1, 0.2, 0.3)

	var buf bytes.Buffer
	require.NoError(t, writeCircuit(&buf, c))
	back, err := readCircuit(&buf)
	require.NoError(t, err)
	assert.True(t, c.SameGates(back))
}

func TestBuildPipelineNames(t *testing.T) {
	cfg := defaultConfig()
	for _, name := range []string{
		"peephole_optimise_2q",
		"full_peephole_optimise",
		"zx_graphlike_optimisation",
		"try_zx_graphlike_optimisation",
		"canonical_hyper_clifford_squash",
		"hyper_clifford_squash",
		"clifford_simp",
		"synthesise_tk",
		"synthesise_tket",
		"synthesise_OQC",
		"synthesise_HQS",
		"synthesise_UMD",
		"optimise_via_PhaseGadget",
	} {
		cfg.Pipeline = name
		_, err := buildPipeline(cfg)
		assert.NoError(t, err, name)
	}

	cfg.Pipeline = "nope"
	_, err := buildPipeline(cfg)
	assert.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "full_peephole_optimise", cfg.Pipeline)
	assert.True(t, cfg.AllowSwaps)
	assert.Equal(t, "snake", cfg.CXConfig)
}
