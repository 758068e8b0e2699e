package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noteseek/noteseek/internal/store"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index status",
		Long: `Status reports what is indexed, the state of the last scan, and
whether the embedding backend is reachable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, rootFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()

			docCount, chunkCount, err := a.docs.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Notes folder:  %s\n", a.root)
			fmt.Fprintf(out, "Documents:     %d\n", docCount)
			fmt.Fprintf(out, "Chunks:        %d (%d with vectors in memory)\n", chunkCount, a.vectors.Size())

			if n, err := a.lexical.DocCount(); err == nil {
				fmt.Fprintf(out, "Keyword index: %d documents\n", n)
			}

			cp, err := a.docs.GetCheckpoint(ctx)
			if err != nil {
				return err
			}
			switch {
			case cp == nil:
				fmt.Fprintln(out, "Last scan:     never")
			case cp.Status == store.ScanInProgress:
				fmt.Fprintf(out, "Last scan:     interrupted at %d/%d files (run 'noteseek resume')\n",
					cp.ProcessedCount, cp.TotalCount)
			case cp.Status == store.ScanFailed:
				fmt.Fprintf(out, "Last scan:     failed at %s (%s)\n",
					cp.UpdatedAt.Format(time.RFC3339), cp.ErrorMessage)
			default:
				fmt.Fprintf(out, "Last scan:     completed %s, %d files\n",
					cp.UpdatedAt.Format(time.RFC3339), cp.ProcessedCount)
			}

			if a.embedder == nil {
				fmt.Fprintln(out, "Embeddings:    not configured (keyword search only)")
				return nil
			}
			probe, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if a.embedder.Available(probe) {
				fmt.Fprintf(out, "Embeddings:    %s (%dd), available\n",
					a.embedder.ModelName(), a.embedder.Dimensions())
			} else {
				fmt.Fprintf(out, "Embeddings:    %s, unreachable (keyword search only)\n",
					a.embedder.ModelName())
			}
			return nil
		},
	}
}
