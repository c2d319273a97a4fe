package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profitscope/internal/predict"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect the predictor artifact",
}

var modelInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the loaded model and check it against the selected features",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		info := app.Model()
		fmt.Fprintf(out, "name: %s\n", info.Name)
		fmt.Fprintf(out, "kind: %s\n", info.Kind)
		fmt.Fprintf(out, "path: %s\n", info.Path)
		if info.Endpoint != "" {
			fmt.Fprintf(out, "endpoint: %s\n", info.Endpoint)
		}
		if info.Trees > 0 {
			fmt.Fprintf(out, "trees: %d\n", info.Trees)
		}
		fmt.Fprintf(out, "inputs: %s\n", strings.Join(info.Inputs, ", "))
		if len(info.Features) > 0 {
			fmt.Fprintf(out, "encoded features: %d\n", len(info.Features))
		}
		fmt.Fprintf(out, "backends: %s\n", strings.Join(predict.Backends(), ", "))

		sel := app.SelectedFeatures()
		if len(sel) == 0 {
			fmt.Fprintln(out, "selected features: (not configured)")
			return nil
		}
		warnings := predict.CheckFeatures(info, sel)
		if len(warnings) == 0 {
			fmt.Fprintf(out, "✓ %d selected features match the model\n", len(sel))
			return nil
		}
		fmt.Fprintf(out, "selected features: %d, %d mismatches\n", len(sel), len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelInfoCmd)
}
