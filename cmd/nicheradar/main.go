package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nicheradar",
		Short:         "Rank trending product niches from Google Trends, TikTok and sales feedback",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(runCmd())
	root.AddCommand(trendsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(classifyCmd())

	return root
}

func runCmd() *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect all sources, merge and write the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), every)
		},
	}

	cmd.Flags().DurationVar(&every, "every", 0, "keep running and repeat at this interval (e.g. 6h)")
	return cmd
}

func trendsCmd() *cobra.Command {
	var (
		jsonOutput bool
		nicheName  string
		minScore   float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show the latest ranked niches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrends(cmd.Context(), cmd.OutOrStdout(), jsonOutput, nicheName, minScore, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&nicheName, "niche", "", "only show this niche")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum score")
	cmd.Flags().IntVar(&limit, "limit", 20, "max items to show (0 for all)")
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		port  int
		every time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, optionally with the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, every)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	cmd.Flags().DurationVar(&every, "every", 0, "also run the pipeline at this interval")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <title>",
		Short: "Show the niche and keyword hits for a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.OutOrStdout(), args[0])
		},
	}
}
