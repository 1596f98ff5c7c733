package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qbitshift/qopt/circuit"
)

var (
	optimiseConfigPath string
	optimisePipeline   string
	optimiseAllowSwaps bool
	optimiseCXConfig   string
	optimiseTarget2Q   string
	optimiseOutPath    string
)

func init() {
	optimiseCmd.Flags().StringVarP(&optimiseConfigPath, "config", "c", "", "TOML config file")
	optimiseCmd.Flags().StringVarP(&optimisePipeline, "pipeline", "p", "", "pipeline to run (overrides config)")
	optimiseCmd.Flags().BoolVar(&optimiseAllowSwaps, "allow-swaps", true, "absorb wire swaps into the output permutation")
	optimiseCmd.Flags().StringVar(&optimiseCXConfig, "cx-config", "", "phase-gadget ladder shape (snake|star|tree)")
	optimiseCmd.Flags().StringVar(&optimiseTarget2Q, "target", "", "two-qubit target for full_peephole_optimise (cx|tk2)")
	optimiseCmd.Flags().StringVarP(&optimiseOutPath, "out", "o", "", "output file (default stdout)")
}

var optimiseCmd = &cobra.Command{
	Use:   "optimise <circuit-file>",
	Short: "Run an optimisation pipeline over a circuit file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(optimiseConfigPath)
		if err != nil {
			return err
		}
		if optimisePipeline != "" {
			cfg.Pipeline = optimisePipeline
		}
		if cmd.Flags().Changed("allow-swaps") {
			cfg.AllowSwaps = optimiseAllowSwaps
		}
		if optimiseCXConfig != "" {
			cfg.CXConfig = optimiseCXConfig
		}
		if optimiseTarget2Q != "" {
			cfg.Target2Q = optimiseTarget2Q
		}

		pass, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		c, err := readCircuitFile(args[0])
		if err != nil {
			return err
		}
		before := counts(c)

		changed, err := pass.Apply(c)
		if err != nil {
			return fmt.Errorf("%s: %w", cfg.Pipeline, err)
		}

		out := os.Stdout
		if optimiseOutPath != "" {
			f, err := os.Create(optimiseOutPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := writeCircuit(out, c); err != nil {
			return err
		}
		reportCounts(cfg.Pipeline, changed, before, counts(c))
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count <circuit-file>",
	Short: "Print gate counts for a circuit file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := readCircuitFile(args[0])
		if err != nil {
			return err
		}
		n := counts(c)
		fmt.Printf("qubits %d  gates %d  2q %d  depth %d\n",
			c.NQubits, n.gates, n.twoQubit, n.depth)
		return nil
	},
}

func readCircuitFile(path string) (*circuit.Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCircuit(f)
}

type gateCounts struct {
	gates    int
	twoQubit int
	depth    int
}

func counts(c *circuit.Circuit) gateCounts {
	return gateCounts{gates: c.NGates(), twoQubit: c.NTwoQubitGates(), depth: c.Depth()}
}

var (
	betterColor = color.New(color.FgGreen, color.Bold)
	worseColor  = color.New(color.FgRed, color.Bold)
	sameColor   = color.New(color.FgYellow)
)

func delta(before, after int) string {
	switch {
	case after < before:
		return betterColor.Sprintf("%d -> %d", before, after)
	case after > before:
		return worseColor.Sprintf("%d -> %d", before, after)
	}
	return sameColor.Sprintf("%d", after)
}

func reportCounts(pipeline string, changed bool, before, after gateCounts) {
	fmt.Fprintf(os.Stderr, "%s: changed=%v  gates %s  2q %s  depth %s\n",
		pipeline, changed,
		delta(before.gates, after.gates),
		delta(before.twoQubit, after.twoQubit),
		delta(before.depth, after.depth))
}
