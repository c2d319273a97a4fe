package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profitscope/internal/dashboard"
	"github.com/KaramelBytes/profitscope/internal/sales"
)

// filterFlags are the criteria flags shared by table, chart and summary.
type filterFlags struct {
	market      string
	productType string
	start       string
	end         string
}

func (f *filterFlags) bind(cmd *cobra.Command, withDates bool) {
	cmd.Flags().StringVar(&f.market, "market", "", "only rows in this market (e.g. East)")
	cmd.Flags().StringVar(&f.productType, "product-type", "", "only rows of this product type (e.g. Coffee)")
	if withDates {
		cmd.Flags().StringVar(&f.start, "start", "", "first date to include, YYYY-MM-DD (default: dataset start)")
		cmd.Flags().StringVar(&f.end, "end", "", "last date to include, YYYY-MM-DD (default: dataset end)")
	}
}

func (f *filterFlags) criteria() (sales.Criteria, error) {
	return dashboard.ParseCriteria(f.market, f.productType, f.start, f.end)
}

func (f *filterFlags) reset() { *f = filterFlags{} }
