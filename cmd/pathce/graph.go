package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	datagraph "pathce/internal/graph"
	"pathce/internal/schema"
)

func newGraphCmd() *cobra.Command {
	var graphPath, schemaPath string
	var maxLength int

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the statistics of a graph.",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := datagraph.Import(graphPath)
			if err != nil {
				return fmt.Errorf("graph: import graph: %w", err)
			}
			s, err := schema.Load(schemaPath)
			if err != nil {
				return fmt.Errorf("graph: load schema: %w", err)
			}

			var totalV, totalE int
			fmt.Printf("vlabels: %d\n", len(s.Vertices()))
			for _, v := range s.Vertices() {
				vertices, ok := g.Vertices(v.Label)
				if !ok {
					continue
				}
				name, _ := s.VertexLabelName(v.Label)
				fmt.Printf("%s: %d\n", name, len(vertices))
				totalV += len(vertices)
			}

			fmt.Printf("elabels: %d\n", len(s.Edges()))
			for _, e := range s.Edges() {
				vertices, ok := g.Vertices(e.From)
				if !ok {
					continue
				}
				count := 0
				for _, v := range vertices {
					d, ok := g.OutgoingDegree(datagraph.LabeledVertex{ID: v, LabelID: e.From}, e.Label)
					if ok {
						count += d
					}
				}
				name, _ := s.EdgeLabelName(e.Label)
				fmt.Printf("%s: %d\n", name, count)
				totalE += count
			}
			fmt.Printf("total_v: %s, total_e: %s\n", humanize.Comma(int64(totalV)), humanize.Comma(int64(totalE)))

			for i := 1; i <= maxLength; i++ {
				paths := s.GeneratePaths(i)
				fmt.Printf("%d-path: %s\n", i, humanize.Comma(int64(len(paths))))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&graphPath, "graph", "g", "", "serialized graph path")
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema path")
	cmd.Flags().IntVar(&maxLength, "max-length", 4, "maximum path length")
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
