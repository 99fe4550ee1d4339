package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pathce/internal/catalog"
	"pathce/internal/config"
	"pathce/internal/graph"
	"pathce/internal/schema"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		buckets, maxPathLength, maxStarLength, maxStarDegree int
		schemaPath, graphPath, output                        string
		greedy, skipPath, saveBucketMap                      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze statistics from edges and paths.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.Load(schemaPath)
			if err != nil {
				return fmt.Errorf("analyze: load schema: %w", err)
			}
			g, err := graph.Import(graphPath)
			if err != nil {
				return fmt.Errorf("analyze: import graph: %w", err)
			}

			cfg := config.NewBuildConfig(
				config.WithBuildMaxPathLength(maxPathLength),
				config.WithBuildMaxStarLength(maxStarLength),
				config.WithBuildMaxStarDegree(maxStarDegree),
				config.WithBuckets(buckets),
				config.WithEnableGreedyBucket(greedy),
				config.WithSaveBucketMap(saveBucketMap),
				config.WithThreads(flagThreads),
			)
			cfg.ApplyThresholds()

			builder := catalog.NewBuilder(s, g, pool()).
				MaxPathLength(cfg.MaxPathLength).
				MaxStarLength(cfg.MaxStarLength).
				MaxStarDegree(cfg.MaxStarDegree).
				Buckets(cfg.Buckets).
				EnableGreedyBucket(cfg.EnableGreedyBucket).
				SaveBucketMap(cfg.SaveBucketMap).
				SkipPath(skipPath)

			start := time.Now()
			store, err := builder.Build(output)
			if err != nil {
				return fmt.Errorf("analyze: build catalog: %w", err)
			}
			defer store.Close()
			fmt.Printf("total building time: %s s\n", formatSeconds(time.Since(start)))

			start = time.Now()
			if err := store.Export(output); err != nil {
				return fmt.Errorf("analyze: export catalog: %w", err)
			}
			fmt.Printf("export time: %s s\n", formatSeconds(time.Since(start)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&buckets, "buckets", "b", 200, "number of buckets")
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema path")
	cmd.Flags().StringVarP(&graphPath, "graph", "g", "", "serialized graph path")
	cmd.Flags().IntVar(&maxPathLength, "max-path-length", 3, "maximum path length")
	cmd.Flags().IntVar(&maxStarLength, "max-star-length", 1, "maximum star length")
	cmd.Flags().IntVar(&maxStarDegree, "max-star-degree", 5, "maximum degree of star")
	cmd.Flags().BoolVar(&greedy, "greedy", false, "use greedy binning")
	cmd.Flags().BoolVar(&skipPath, "skip-path", false, "skip path statistics")
	cmd.Flags().BoolVar(&saveBucketMap, "save-bucket-map", false, "save bucket maps (debugging)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
