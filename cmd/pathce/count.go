package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pathce/internal/counter"
	"pathce/internal/graph"
	"pathce/internal/pattern"
)

func newCountCmd() *cobra.Command {
	var graphPath, patternPath, shape string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the given path or star pattern by brute force.",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.Import(graphPath)
			if err != nil {
				return fmt.Errorf("count: import graph: %w", err)
			}
			data, err := os.ReadFile(patternPath)
			if err != nil {
				return fmt.Errorf("count: read pattern: %w", err)
			}
			raw, err := pattern.DecodeRawPattern(data)
			if err != nil {
				return fmt.Errorf("count: decode pattern: %w", err)
			}

			var count float64
			switch shape {
			case "path":
				p, perr := raw.ToPath()
				if perr != nil {
					return fmt.Errorf("count: not a path pattern: %w", perr)
				}
				count, err = counter.NewPathCounter(g, pool()).Count(p)
			case "star":
				p, perr := raw.ToGeneral()
				if perr != nil {
					return fmt.Errorf("count: not a valid pattern: %w", perr)
				}
				count, err = counter.NewStarCounter(g, pool()).Count(p)
			default:
				return fmt.Errorf("count: invalid pattern type %q (want path or star)", shape)
			}
			if err != nil {
				return fmt.Errorf("count: %w", err)
			}
			fmt.Println(count)
			return nil
		},
	}
	cmd.Flags().StringVarP(&graphPath, "graph", "g", "", "graph path")
	cmd.Flags().StringVarP(&patternPath, "pattern", "p", "", "pattern path")
	cmd.Flags().StringVarP(&shape, "shape", "s", "path", "pattern type (path or star)")
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.MarkFlagRequired("pattern")
	return cmd
}
