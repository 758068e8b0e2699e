// Package cmd provides the CLI commands for noteseek.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noteseek/noteseek/pkg/version"
)

// rootFlag is the notes folder; all commands operate under it.
var rootFlag string

// NewRootCmd creates the root command for the noteseek CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "noteseek",
		Short: "Hybrid keyword and semantic search over a folder of notes",
		Long: `noteseek indexes a folder of markdown and plain-text notes and
serves hybrid search: exact keyword matching fused with semantic
similarity. Everything runs locally; the index lives in a .noteseek
directory inside the notes folder.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("noteseek version {{.Version}}\n")
	cmd.PersistentFlags().StringVarP(&rootFlag, "root", "r", ".", "notes folder to operate on")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command with signal-aware cancellation, so an
// interrupted scan leaves a resumable checkpoint.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
	}
	return err
}
