package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/noteseek/noteseek/internal/ui"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed notes",
		Long: `Search runs a hybrid query over the index: exact keyword matches are
fused with semantically similar passages. When no embedding backend is
available, results are keyword-only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args, " ")

			a, err := openApp(ctx, rootFlag)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.searcher().Search(ctx, query, limit)
			if err != nil {
				return err
			}

			ui.NewRenderer(cmd.OutOrStdout()).Results(results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (0 uses the configured default)")

	return cmd
}
