package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profitscope/internal/dashboard"
	"github.com/KaramelBytes/profitscope/internal/utils"
)

var (
	descFilters filterFlags
	descRaw     bool
	descJSON    bool
	descOutput  string
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Descriptive statistics, top categories and correlations for the filtered rows",
	Example: `  profitscope describe --market East
  profitscope describe --raw -o report.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		crit, err := descFilters.criteria()
		if err != nil {
			return err
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		rep, err := app.Describe(dashboard.Query{Criteria: crit, Raw: descRaw})
		if err != nil {
			return err
		}
		var body []byte
		if descJSON {
			if body, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
			body = append(body, '\n')
		} else {
			body = []byte(rep.Markdown())
		}
		if descOutput == "" {
			_, err = cmd.OutOrStdout().Write(body)
			return err
		}
		if err := utils.SafeWriteFile(descOutput, body); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", descOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descFilters.bind(describeCmd, true)
	describeCmd.Flags().BoolVar(&descRaw, "raw", false, "describe the whole dataset, ignoring filters")
	describeCmd.Flags().BoolVar(&descJSON, "json", false, "print JSON instead of markdown")
	describeCmd.Flags().StringVarP(&descOutput, "output", "o", "", "write the report to a file")
}
