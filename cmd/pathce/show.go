package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pathce/internal/catalog"
)

func newShowCmd() *cobra.Command {
	var catalogDir string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the contents of the catalog.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := catalog.Import(catalogDir)
			if err != nil {
				return fmt.Errorf("show: import catalog: %w", err)
			}
			defer store.Close()
			fmt.Print(store.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&catalogDir, "catalog", "c", "", "catalog directory")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}
