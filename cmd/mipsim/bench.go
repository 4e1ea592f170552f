package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mipsim/benchmarks"
)

func newBenchCmd() *cobra.Command {
	var (
		format string
		quick  bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the microbenchmarks under every pipeline variant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := benchmarks.DefaultConfig()
			config.Output = cmd.OutOrStdout()
			harness := benchmarks.NewHarness(config)

			if quick {
				harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
			} else {
				harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			}

			results := harness.RunAll()

			switch format {
			case "table":
				harness.PrintResults(results)
			case "csv":
				harness.PrintCSV(results)
			case "json":
				if err := harness.PrintJSON(results); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			for _, r := range results {
				if !r.Verified {
					return fmt.Errorf("%s (%s) failed verification", r.Name, r.Variant)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, csv, json")
	cmd.Flags().BoolVar(&quick, "quick", false, "Run only the core benchmarks")

	return cmd
}
