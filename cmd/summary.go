package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profitscope/internal/dashboard"
	"github.com/KaramelBytes/profitscope/internal/sales"
	"github.com/KaramelBytes/profitscope/internal/utils"
)

var (
	sumFilters filterFlags
	sumGroupBy string
	sumMeasure string
	sumJSON    bool
	sumOutput  string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Grouped totals with the highest and lowest group",
	Example: `  profitscope summary --group-by Date --measure Profit
  profitscope summary --group-by State --measure Sales --market West -o west.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		groupBy, err := sales.ParseField(sumGroupBy)
		if err != nil {
			return err
		}
		measure, err := sales.ParseMeasure(sumMeasure)
		if err != nil {
			return err
		}
		crit, err := sumFilters.criteria()
		if err != nil {
			return err
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		s, err := app.Summary(crit, groupBy, measure)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if sumJSON {
			b, err := utils.PrettyJSON(s)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		md := sales.MarkdownSummary(groupBy, measure, s.Groups, app.Currency)
		if sumOutput == "" {
			fmt.Fprint(out, md)
			return nil
		}
		var buf bytes.Buffer
		switch ext := strings.ToLower(filepath.Ext(sumOutput)); ext {
		case ".md", ".markdown", ".txt":
			buf.WriteString(md)
		case ".xlsx":
			if err := app.Export(&buf, dashboard.Query{Criteria: crit}, s); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported output format %q (use .md or .xlsx)", ext)
		}
		if err := utils.SafeWriteFile(sumOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(out, "✓ Wrote summary to %s\n", sumOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumFilters.bind(summaryCmd, true)
	summaryCmd.Flags().StringVar(&sumGroupBy, "group-by", string(sales.FieldDate), "grouping key: Date, Market, Product Type, State, Product, Area Code, Market Size")
	summaryCmd.Flags().StringVar(&sumMeasure, "measure", string(sales.MeasureProfit), "measure to total: Profit, Sales, Total Expenses, Inventory")
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "print JSON instead of text")
	summaryCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "write to a file (.md or .xlsx)")
}
