package cmd

import (
	"github.com/spf13/cobra"

	"github.com/noteseek/noteseek/internal/ui"
)

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume an interrupted indexing run",
		Long: `Resume continues an indexing run that was interrupted, picking up
after the last checkpointed file. If no interrupted run exists it falls
back to an incremental scan.`,
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

			s, err := a.mgr.Resume(ctx)
			if err != nil {
				return err
			}
			r.Summary(s)
			return nil
		},
	}
}
