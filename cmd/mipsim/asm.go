package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mipsim/asm"
	"github.com/sarchlab/mipsim/loader"
)

func newAsmCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "asm <source>",
		Short: "Assemble source into a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open source file: %w", err)
			}
			defer func() { _ = src.Close() }()

			words, err := asm.Assemble(src)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if output == "" {
				return loader.WriteProgram(cmd.OutOrStdout(), words)
			}

			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create program image: %w", err)
			}
			if err := loader.WriteProgram(out, words); err != nil {
				_ = out.Close()
				return fmt.Errorf("failed to write program image: %w", err)
			}
			return out.Close()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the image to this file instead of stdout")

	return cmd
}
