package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pathce/internal/pattern"
)

func newCheckCmd() *cobra.Command {
	var patternPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the type of the input pattern.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(patternPath)
			if err != nil {
				fmt.Println("invalid")
				return nil
			}
			raw, err := pattern.DecodeRawPattern(data)
			if err != nil {
				fmt.Println("invalid")
				return nil
			}
			p, err := raw.ToGeneral()
			if err != nil {
				fmt.Println("invalid")
				return nil
			}
			switch {
			case len(p.Vertices()) == 1 && len(p.Edges()) == 0:
				fmt.Println("vertex")
			case len(p.Vertices()) == 2 && len(p.Edges()) == 1:
				fmt.Println("edge")
			case pattern.IsCyclic(p):
				fmt.Println("cyclic")
			default:
				fmt.Println("acyclic")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&patternPath, "pattern", "p", "", "pattern file")
	_ = cmd.MarkFlagRequired("pattern")
	return cmd
}
