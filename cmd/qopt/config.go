package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/qbitshift/qopt"
	"github.com/qbitshift/qopt/cartan"
	"github.com/qbitshift/qopt/gadget"
	"github.com/qbitshift/qopt/transform"
)

type optimiseConfig struct {
	Pipeline   string `toml:"pipeline"`
	AllowSwaps bool   `toml:"allow_swaps"`
	CXConfig   string `toml:"cx_config"`
	Target2Q   string `toml:"target_2q"`
}

func defaultConfig() optimiseConfig {
	return optimiseConfig{
		Pipeline:   "full_peephole_optimise",
		AllowSwaps: true,
		CXConfig:   "snake",
		Target2Q:   "cx",
	}
}

func loadConfig(path string) (optimiseConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	return cfg, nil
}

func (cfg optimiseConfig) cxConfig() (gadget.CXConfig, error) {
	switch strings.ToLower(cfg.CXConfig) {
	case "snake":
		return gadget.Snake, nil
	case "star":
		return gadget.Star, nil
	case "tree":
		return gadget.Tree, nil
	}
	return 0, fmt.Errorf("unknown cx_config %q (snake|star|tree)", cfg.CXConfig)
}

func (cfg optimiseConfig) target2Q() (cartan.TwoQubitTarget, error) {
	switch strings.ToLower(cfg.Target2Q) {
	case "cx":
		return cartan.TargetCX, nil
	case "tk2":
		return cartan.TargetTK2, nil
	}
	return 0, fmt.Errorf("unknown target_2q %q (cx|tk2)", cfg.Target2Q)
}

// buildPipeline resolves the configured pipeline name to its pass.
func buildPipeline(cfg optimiseConfig) (transform.Transform, error) {
	ladder, err := cfg.cxConfig()
	if err != nil {
		return transform.Transform{}, err
	}
	target, err := cfg.target2Q()
	if err != nil {
		return transform.Transform{}, err
	}
	switch strings.ToLower(cfg.Pipeline) {
	case "peephole_optimise_2q":
		return qopt.PeepholeOptimise2Q(cfg.AllowSwaps), nil
	case "full_peephole_optimise":
		return qopt.FullPeepholeOptimise(cfg.AllowSwaps, target), nil
	case "zx_graphlike_optimisation":
		return qopt.ZXGraphlikeOptimisation(), nil
	case "try_zx_graphlike_optimisation":
		return qopt.TryZXGraphlikeOptimisation(transform.FewerTwoQubitGates), nil
	case "canonical_hyper_clifford_squash":
		return qopt.CanonicalHyperCliffordSquash(), nil
	case "hyper_clifford_squash":
		return qopt.HyperCliffordSquash(cfg.AllowSwaps), nil
	case "clifford_simp":
		return qopt.CliffordSimp(cfg.AllowSwaps), nil
	case "synthesise_tk":
		return qopt.SynthesiseTK(), nil
	case "synthesise_tket":
		return qopt.SynthesiseTket(), nil
	case "synthesise_oqc":
		return qopt.SynthesiseOQC(), nil
	case "synthesise_hqs":
		return qopt.SynthesiseHQS(), nil
	case "synthesise_umd":
		return qopt.SynthesiseUMD(), nil
	case "optimise_via_phasegadget":
		return qopt.OptimiseViaPhaseGadget(ladder), nil
	}
	return transform.Transform{}, fmt.Errorf("unknown pipeline %q", cfg.Pipeline)
}
