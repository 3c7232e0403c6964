package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/search"
)

func newSearchCmd() *cobra.Command {
	var (
		limit     int
		threshold float64
		hybrid    bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search ingested documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			for _, a := range args[1:] {
				query += " " + a
			}

			client := buildClient(config.DefaultChunkSize, config.DefaultChunkOverlap)
			opts := search.Options{Limit: limit, SimilarityThreshold: threshold}

			ctx := context.Background()
			if hybrid {
				result, err := client.HybridSearch(ctx, query, opts)
				if err != nil {
					return err
				}
				printHits(result.TotalResults, result.Results)
				return nil
			}

			result, err := client.Search(ctx, query, opts)
			if err != nil {
				return err
			}
			printHits(result.TotalResults, result.Results)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "similarity threshold (0 uses the configured default)")
	cmd.Flags().BoolVar(&hybrid, "hybrid", false, "fuse semantic and lexical search")

	return cmd
}

func printHits(total int, hits []search.Hit) {
	fmt.Printf("%d result(s)\n", total)
	for i, h := range hits {
		fmt.Printf("%d. [%.3f] %s (%s)\n   %s\n", i+1, h.CombinedScore, h.DocumentTitle, h.DocumentLocation, truncate(h.Content, 160))
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
