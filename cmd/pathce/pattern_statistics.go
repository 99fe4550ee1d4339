package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pathce/internal/decompose"
	"pathce/internal/pattern"
)

func newPatternStatisticsCmd() *cobra.Command {
	var patternPath string

	cmd := &cobra.Command{
		Use:   "pattern-statistics",
		Short: "Print the longest candidate path length of a pattern.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(patternPath)
			if err != nil {
				return fmt.Errorf("pattern-statistics: read pattern: %w", err)
			}
			raw, err := pattern.DecodeRawPattern(data)
			if err != nil {
				return fmt.Errorf("pattern-statistics: decode pattern: %w", err)
			}
			p, err := raw.ToGeneral()
			if err != nil {
				return fmt.Errorf("pattern-statistics: %w", err)
			}
			fmt.Println(decompose.LongestCandidatePath(p))
			return nil
		},
	}
	cmd.Flags().StringVarP(&patternPath, "pattern", "p", "", "pattern path")
	_ = cmd.MarkFlagRequired("pattern")
	return cmd
}
