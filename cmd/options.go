package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profitscope/internal/utils"
)

var optJSON bool

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List selector values and the dataset date range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		s := app.Selectors()
		out := cmd.OutOrStdout()
		if optJSON {
			b, err := utils.PrettyJSON(s)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		codes := make([]string, len(s.AreaCodes))
		for i, c := range s.AreaCodes {
			codes[i] = strconv.Itoa(c)
		}
		fmt.Fprintf(out, "Dataset: %s (%d entries)\n", app.Dataset().Name, app.Dataset().Len())
		fmt.Fprintf(out, "Dates: %s to %s\n", s.Start, s.End)
		fmt.Fprintf(out, "Market: %s\n", strings.Join(s.Markets, ", "))
		fmt.Fprintf(out, "Product Type: %s\n", strings.Join(s.ProductTypes, ", "))
		fmt.Fprintf(out, "Market Size: %s\n", strings.Join(s.MarketSizes, ", "))
		fmt.Fprintf(out, "State: %s\n", strings.Join(s.States, ", "))
		fmt.Fprintf(out, "Product: %s\n", strings.Join(s.Products, ", "))
		fmt.Fprintf(out, "Area Code: %s\n", strings.Join(codes, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.Flags().BoolVar(&optJSON, "json", false, "print JSON instead of text")
}
