package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pathce/internal/catalog"
	"pathce/internal/decompose"
	"pathce/internal/estimate"
)

func newEstimateManualCmd() *cobra.Command {
	var catalogDir string
	var patternPaths []string

	cmd := &cobra.Command{
		Use:   "estimate-manual",
		Short: "Estimate the cardinality by manually specifying a decomposed catalog pattern.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Import(catalogDir)
			if err != nil {
				return fmt.Errorf("estimate-manual: import catalog: %w", err)
			}
			defer store.Close()

			manual := estimate.NewEstimateManual(store)
			for _, path := range patternPaths {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("estimate-manual: read %s: %w", path, err)
				}
				cp := decompose.NewCatalogPattern()
				if err := json.Unmarshal(data, cp); err != nil {
					return fmt.Errorf("estimate-manual: decode %s: %w", path, err)
				}
				start := time.Now()
				card, err := manual.Estimate(cp)
				if err != nil {
					return fmt.Errorf("estimate-manual: %w", err)
				}
				fmt.Printf("%v,%s\n", card, formatSeconds(time.Since(start)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&catalogDir, "catalog", "c", "", "catalog directory")
	cmd.Flags().StringArrayVarP(&patternPaths, "patterns", "p", nil, "manual catalog pattern file(s)")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("patterns")
	return cmd
}
