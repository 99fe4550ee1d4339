package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pathce/internal/catalog"
	"pathce/internal/common"
	"pathce/internal/config"
	"pathce/internal/estimate"
	"pathce/internal/pattern"
)

func parseOrder(s string) ([]common.TagId, error) {
	parts := strings.Split(s, ",")
	order := make([]common.TagId, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid tag id %q: %w", part, err)
		}
		order = append(order, common.TagId(v))
	}
	return order, nil
}

func readGeneralPattern(path string) (*pattern.GeneralPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := pattern.DecodeRawPattern(data)
	if err != nil {
		return nil, err
	}
	return raw.ToGeneral()
}

func newEstimateCmd() *cobra.Command {
	var (
		catalogDir                                 string
		patternPaths                               []string
		maxPathLength, maxStarLength, maxStarDegree int
		limit                                       int
		disableStar, disablePrune, disableCyclic    bool
		order                                       string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the cardinality of one or more query patterns.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Import(catalogDir)
			if err != nil {
				return fmt.Errorf("estimate: import catalog: %w", err)
			}
			defer store.Close()

			cfg := config.NewEstimateConfig(
				config.WithEstimateMaxPathLength(maxPathLength),
				config.WithEstimateMaxStarLength(maxStarLength),
				config.WithEstimateMaxStarDegree(maxStarDegree),
				config.WithLimit(limit),
				config.WithDisableStar(disableStar),
				config.WithDisablePrune(disablePrune),
				config.WithDisableCyclic(disableCyclic),
			)

			estimator := estimate.NewEstimator(store).
				MaxPathLength(cfg.MaxPathLength).
				MaxStarLength(cfg.MaxStarLength).
				MaxStarDegree(cfg.MaxStarDegree).
				Limit(cfg.Limit).
				DisableStar(cfg.DisableStar).
				DisablePrune(cfg.DisablePrune).
				DisableCyclic(cfg.DisableCyclic)

			if order != "" {
				if len(patternPaths) != 1 {
					return fmt.Errorf("estimate: only one pattern can be estimated using a predefined order")
				}
				tagOrder, err := parseOrder(order)
				if err != nil {
					return fmt.Errorf("estimate: %w", err)
				}
				p, err := readGeneralPattern(patternPaths[0])
				if err != nil {
					return fmt.Errorf("estimate: read pattern: %w", err)
				}
				start := time.Now()
				card, err := estimator.EstimateWithOrder(p, tagOrder)
				if err != nil {
					return fmt.Errorf("estimate: %w", err)
				}
				fmt.Printf("%v,%s\n", card, formatSeconds(time.Since(start)))
				return nil
			}

			for _, path := range patternPaths {
				p, err := readGeneralPattern(path)
				if err != nil {
					return fmt.Errorf("estimate: read pattern %s: %w", path, err)
				}
				start := time.Now()
				card, err := estimator.Estimate(p)
				if err != nil {
					return fmt.Errorf("estimate: %w", err)
				}
				fmt.Printf("%v,%s\n", card, formatSeconds(time.Since(start)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&catalogDir, "catalog", "c", "", "catalog directory")
	cmd.Flags().StringArrayVarP(&patternPaths, "patterns", "p", nil, "pattern file(s)")
	cmd.Flags().IntVar(&maxPathLength, "max-path-length", 3, "maximum path length")
	cmd.Flags().IntVar(&maxStarLength, "max-star-length", 1, "maximum star length")
	cmd.Flags().IntVar(&maxStarDegree, "max-star-degree", 5, "maximum degree of star")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "number of spanning trees for cyclic decomposition")
	cmd.Flags().BoolVar(&disableStar, "disable-star", false, "disable star statistics in decomposition")
	cmd.Flags().BoolVar(&disablePrune, "disable-prune", false, "disable query pruning")
	cmd.Flags().BoolVar(&disableCyclic, "disable-cyclic", false, "estimate cyclic patterns using spanning trees only")
	cmd.Flags().StringVar(&order, "order", "", "predefined elimination order, comma-separated tag ids")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("patterns")
	return cmd
}
