package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/noteseek/noteseek/internal/ui"
	"github.com/noteseek/noteseek/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the notes folder and keep the index current",
		Long: `Watch runs an incremental scan, then monitors the notes folder for
changes and re-indexes modified files after a short quiet window. If
filesystem notifications are unavailable, it falls back to periodic
incremental re-scans. Runs until interrupted.`,
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

			// Catch up before watching so events only carry deltas.
			s, err := a.mgr.IncrementalScan(ctx)
			if err != nil {
				return err
			}
			r.Summary(s)

			dispatch := func(path string, action watcher.Action) {
				var err error
				switch action {
				case watcher.ActionRemove:
					err = a.mgr.RemoveFile(ctx, path)
				default:
					err = a.mgr.ProcessFile(ctx, path)
				}
				if err != nil && ctx.Err() == nil {
					a.logger.Warn("watch_dispatch_failed",
						"path", path,
						"error", err.Error())
				}
			}

			w, err := watcher.New(a.root, a.cfg.Paths, a.cfg.Watch.Debounce, dispatch, a.logger)
			if err != nil {
				a.logger.Warn("watcher_unavailable_falling_back_to_rescan",
					"interval", a.cfg.Scan.RescanInterval.String(),
					"error", err.Error())
				r.Errorf("file watching unavailable, re-scanning every %s", a.cfg.Scan.RescanInterval)
				return ignoreCanceled(a.mgr.RunPeriodic(ctx, a.cfg.Scan.RescanInterval))
			}
			defer w.Close()

			w.Start()
			<-ctx.Done()
			return nil
		},
	}
}

// ignoreCanceled maps context cancellation (ctrl-c) to a clean exit.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
