package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pathce/internal/pattern"
	"pathce/internal/schema"
)

func newGeneratePatternsCmd() *cobra.Command {
	var (
		schemaPath, ty, output string
		length                 int
		seed                   uint64
		limit                  int
		noManyToOne            bool
		singleDirection        bool
	)

	cmd := &cobra.Command{
		Use:   "generate-patterns",
		Short: "Generate patterns from the schema.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.Load(schemaPath)
			if err != nil {
				return fmt.Errorf("generate-patterns: load schema: %w", err)
			}

			var patterns []pattern.GraphPattern
			switch ty {
			case "path":
				var paths []*pattern.PathPattern
				if noManyToOne {
					paths = s.GeneratePathsWithoutManyToOne(length)
				} else {
					paths = s.GeneratePaths(length)
				}
				if singleDirection {
					filtered := paths[:0]
					for _, p := range paths {
						if p.IsSingleDirection() {
							filtered = append(filtered, p)
						}
					}
					paths = filtered
				}
				fmt.Printf("generate %d paths of length %d\n", len(paths), length)
				for _, p := range paths {
					patterns = append(patterns, p)
				}
			case "cycle":
				cycles := s.GenerateCycles(length)
				fmt.Printf("generate %d cycles of length %d\n", len(cycles), length)
				for _, c := range cycles {
					patterns = append(patterns, c)
				}
			case "star":
				stars := s.GenerateStars(length)
				fmt.Printf("generate %d stars of degree %d\n", len(stars), length)
				for _, st := range stars {
					patterns = append(patterns, st)
				}
			default:
				return fmt.Errorf("generate-patterns: invalid pattern type %q (want path, cycle or star)", ty)
			}

			if limit > 0 && limit < len(patterns) {
				rng := rand.New(rand.NewPCG(seed, seed))
				rng.Shuffle(len(patterns), func(i, j int) { patterns[i], patterns[j] = patterns[j], patterns[i] })
				patterns = patterns[:limit]
				fmt.Printf("sample %d patterns\n", len(patterns))
			}

			if err := os.MkdirAll(output, 0o755); err != nil {
				return fmt.Errorf("generate-patterns: mkdir: %w", err)
			}
			for i, p := range patterns {
				data, err := pattern.MarshalGraphPattern(p)
				if err != nil {
					return fmt.Errorf("generate-patterns: marshal pattern %d: %w", i, err)
				}
				path := filepath.Join(output, fmt.Sprintf("%d.json", i))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("generate-patterns: write %s: %w", path, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema path")
	cmd.Flags().IntVarP(&length, "length", "l", 0, "pattern size")
	cmd.Flags().StringVarP(&ty, "ty", "t", "", "pattern type (path, cycle or star)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory")
	cmd.Flags().Uint64Var(&seed, "seed", 12345, "random seed")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of patterns (0 = no limit)")
	cmd.Flags().BoolVar(&noManyToOne, "no-many-to-one", false, "avoid N:1 edges")
	cmd.Flags().BoolVar(&singleDirection, "single-direction", false, "generate only single direction paths")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("length")
	_ = cmd.MarkFlagRequired("ty")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
