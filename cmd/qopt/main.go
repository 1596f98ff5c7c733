package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qopt",
	Short: "Quantum circuit optimiser",
	Long:  `qopt rewrites quantum circuits through peephole, tableau, ZX and phase-gadget passes`,
}

func main() {
	rootCmd.AddCommand(optimiseCmd)
	rootCmd.AddCommand(countCmd)

	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log per-pass gate counts")

	cobra.OnInitialize(func() {
		level := zerolog.InfoLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var flagVerbose bool
