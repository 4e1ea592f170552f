// Package main provides the mipsim command line.
//
// mipsim runs program images on the cycle-level pipeline model, assembles
// source into program images and steps programs interactively.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mipsim/log"
)

var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var (
		logLevel   string
		logModules string
	)

	rootCmd := &cobra.Command{
		Use:   "mipsim",
		Short: "Cycle-level 5-stage MIPS pipeline simulator",
		Long: `mipsim models a five-stage in-order pipeline for a MIPS subset with
hazard detection, forwarding, branch and jump resolution and an optional
load-latency model. It reports cycles, retired instructions and the final
register file and memory.`,
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetOutput(stderr, lvl)
			log.EnableModules(logModules)
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logModules, "log-modules", "",
		"Comma-separated modules for trace and debug output (pipeline,latency,core,loader,asm)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAsmCmd())
	rootCmd.AddCommand(newDebugCmd())
	rootCmd.AddCommand(newBenchCmd())

	return rootCmd
}
