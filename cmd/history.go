package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profitscope/internal/utils"
)

var (
	histLimit int
	histJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded predictions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		entries, err := app.History(ctx, histLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if histJSON {
			b, err := utils.PrettyJSON(entries)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No predictions recorded")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %s  %d %s, %s, %s  expenses=%g inventory=%g sales=%g  → %s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04"), shortID(e.ID),
				e.AreaCode, e.State, e.MarketSize, e.Product,
				e.TotalExpenses, e.Inventory, e.Sales, app.Currency(e.Prediction))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&histLimit, "limit", 20, "number of entries to show")
	historyCmd.Flags().BoolVar(&histJSON, "json", false, "print JSON instead of text")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
