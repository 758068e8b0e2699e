package cmd

import (
	"github.com/spf13/cobra"

	"github.com/noteseek/noteseek/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the notes folder",
		Long: `Index scans the notes folder and builds the search index. By default
only files changed since the last scan are reprocessed; --full clears
the index and reprocesses everything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, rootFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			r := ui.NewRenderer(cmd.OutOrStdout())
			a.mgr.SetProgressFunc(r.Progress)

			if full {
				s, err := a.mgr.FullScan(ctx)
				if err != nil {
					return err
				}
				r.Summary(s)
				return nil
			}

			s, err := a.mgr.IncrementalScan(ctx)
			if err != nil {
				return err
			}
			r.Summary(s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "clear the index and reprocess every file")

	return cmd
}
