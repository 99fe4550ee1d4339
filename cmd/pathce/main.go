// Command pathce is the cardinality-estimation pipeline's CLI: build a
// data graph from CSV, analyze it into a catalog of path/star
// statistics, and estimate (or brute-force count) query patterns
// against that catalog.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pathce/internal/logging"
	"pathce/internal/workerpool"
)

var (
	flagThreads int
	flagVerbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pathce",
		Short:         "An integrated framework for cardinality estimation of subgraph queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(flagVerbose)
		},
	}
	root.PersistentFlags().IntVarP(&flagThreads, "threads", "t", 8, "number of worker threads")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print detailed progress")

	root.AddCommand(
		newSerializeCmd(),
		newAnalyzeCmd(),
		newCountCmd(),
		newCheckCmd(),
		newEstimateCmd(),
		newEstimateManualCmd(),
		newShowCmd(),
		newGraphCmd(),
		newGeneratePatternsCmd(),
		newPatternStatisticsCmd(),
	)
	return root
}

func pool() *workerpool.Pool { return workerpool.New(flagThreads) }
