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
	tblFilters filterFlags
	tblRaw     bool
	tblLimit   int
	tblOutput  string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Show the filtered sales table with its entry count",
	Example: `  profitscope table --market East --product-type Coffee
  profitscope table --raw --limit 0 -o all.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		crit, err := tblFilters.criteria()
		if err != nil {
			return err
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		q := dashboard.Query{Criteria: crit, Raw: tblRaw}
		res := app.Table(q)
		if !res.RangeValid {
			return crit.Range.Validate()
		}
		if tblOutput == "" {
			fmt.Fprint(cmd.OutOrStdout(), sales.MarkdownTable(res.Records, tblLimit))
			return nil
		}

		var buf bytes.Buffer
		switch ext := strings.ToLower(filepath.Ext(tblOutput)); ext {
		case ".md", ".markdown":
			buf.WriteString(sales.MarkdownTable(res.Records, 0))
		case ".csv":
			err = sales.WriteCSV(&buf, res.Records)
		case ".xlsx":
			err = app.Export(&buf, q)
		case ".json":
			var b []byte
			b, err = utils.PrettyJSON(map[string]any{"count": len(res.Records), "records": res.Records})
			buf.Write(b)
		default:
			return fmt.Errorf("unsupported output format %q (use .md, .csv, .xlsx or .json)", ext)
		}
		if err != nil {
			return err
		}
		if err := utils.SafeWriteFile(tblOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d entries to %s\n", len(res.Records), tblOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tblFilters.bind(tableCmd, true)
	tableCmd.Flags().BoolVar(&tblRaw, "raw", false, "show the whole dataset, ignoring filters")
	tableCmd.Flags().IntVar(&tblLimit, "limit", 20, "rows to print (0 = all); the count always covers every match")
	tableCmd.Flags().StringVarP(&tblOutput, "output", "o", "", "write the table to a file (.md, .csv, .xlsx or .json)")
}
