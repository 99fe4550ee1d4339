package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pathce/internal/graph"
	"pathce/internal/schema"
)

func newSerializeCmd() *cobra.Command {
	var input, schemaPath, output string
	var delimiter string

	cmd := &cobra.Command{
		Use:   "serialize",
		Short: "Load the CSV graph dataset and serialize it into a graph file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(delimiter) != 1 {
				return fmt.Errorf("serialize: --delimiter must be a single character, got %q", delimiter)
			}
			s, err := schema.Load(schemaPath)
			if err != nil {
				return fmt.Errorf("serialize: load schema: %w", err)
			}

			start := time.Now()
			g, err := graph.FromCSV(input, s, rune(delimiter[0]), pool())
			if err != nil {
				return fmt.Errorf("serialize: build graph: %w", err)
			}
			fmt.Printf("graph building time: %s s\n", formatSeconds(time.Since(start)))

			start = time.Now()
			if err := g.Export(output); err != nil {
				return fmt.Errorf("serialize: export graph: %w", err)
			}
			fmt.Printf("serializing time: %s s\n", formatSeconds(time.Since(start)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "dataset directory")
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV delimiter")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
