package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MadBomber/ragdoll-core"
	"github.com/MadBomber/ragdoll-core/config"
)

func newIngestCmd() *cobra.Command {
	var (
		recursive    bool
		chunkSize    int
		chunkOverlap int
	)

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Parse, chunk, and embed one or more files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := buildClient(chunkSize, chunkOverlap)
			ctx := context.Background()

			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				if info.IsDir() {
					results, err := client.AddDirectory(ctx, path, recursive)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					for _, r := range results {
						printIngestResult(r.Path, r.Result, r.Err)
					}
					continue
				}

				res, err := client.AddDocument(ctx, path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				printIngestResult(path, res, nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subdirectories")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", config.DefaultChunkSize, "text chunk size")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", config.DefaultChunkOverlap, "text chunk overlap")

	return cmd
}

func printIngestResult(path string, res ragdoll.AddDocumentResult, err error) {
	if err != nil {
		fmt.Printf("%s: error: %v\n", path, err)
		return
	}
	if !res.Success {
		fmt.Printf("%s: failed: %s\n", path, res.Error)
		return
	}
	fmt.Printf("%s: ingested as %s (%d bytes, type=%s, embeddings_queued=%v)\n",
		path, res.DocumentID, res.ContentLength, res.DocumentType, res.EmbeddingsQueued)
}
