package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profitscope/internal/predict"
	"github.com/KaramelBytes/profitscope/internal/sales"
	"github.com/KaramelBytes/profitscope/internal/utils"
)

var (
	prdAreaCode      int
	prdState         string
	prdMarketSize    string
	prdProduct       string
	prdTotalExpenses float64
	prdInventory     float64
	prdSales         float64
	prdJSON          bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict profit for one store",
	Example: `  profitscope predict --area-code 203 --state Connecticut --market-size "Small Market" \
    --product Columbian --total-expenses 50 --inventory 500 --sales 300`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := predictInput(cmd)
		if err != nil {
			return err
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		p, err := app.Predict(ctx, in)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if prdJSON {
			b, err := utils.PrettyJSON(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "Profit Prediction: %s\n", p.Display)
		if p.ID != "" {
			fmt.Fprintf(out, "✓ Recorded as %s\n", p.ID)
		}
		return nil
	},
}

// predictInput sets only the fields given on the command line so that
// omissions surface as a schema mismatch.
func predictInput(cmd *cobra.Command) (predict.Input, error) {
	var in predict.Input
	f := cmd.Flags()
	if f.Changed("area-code") {
		v := prdAreaCode
		in.AreaCode = &v
	}
	if f.Changed("state") {
		v := prdState
		in.State = &v
	}
	if f.Changed("market-size") {
		v, err := sales.ParseMarketSize(prdMarketSize)
		if err != nil {
			return in, err
		}
		in.MarketSize = &v
	}
	if f.Changed("product") {
		v := prdProduct
		in.Product = &v
	}
	if f.Changed("total-expenses") {
		v := prdTotalExpenses
		in.TotalExpenses = &v
	}
	if f.Changed("inventory") {
		v := prdInventory
		in.Inventory = &v
	}
	if f.Changed("sales") {
		v := prdSales
		in.Sales = &v
	}
	return in, nil
}

func init() {
	rootCmd.AddCommand(predictCmd)
	f := predictCmd.Flags()
	f.IntVar(&prdAreaCode, "area-code", 0, "telephone area code of the store")
	f.StringVar(&prdState, "state", "", "US state")
	f.StringVar(&prdMarketSize, "market-size", "", `"Small Market" or "Major Market"`)
	f.StringVar(&prdProduct, "product", "", "product name")
	f.Float64Var(&prdTotalExpenses, "total-expenses", 0, "total expenses in dollars [0, 1000]")
	f.Float64Var(&prdInventory, "inventory", 0, "inventory in dollars [0, 10000]")
	f.Float64Var(&prdSales, "sales", 0, "sales in dollars [0, 1000]")
	f.BoolVar(&prdJSON, "json", false, "print the full result as JSON")
}
