// Package export writes filtered tables and group summaries as .xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/profitscope/internal/sales"
)

// RecordsSheet is the name of the sheet holding the table rows.
const RecordsSheet = "Records"

// Summary is one grouped aggregation written to its own sheet.
type Summary struct {
	GroupBy sales.Field
	Measure sales.Measure
	Groups  []sales.Group
}

// SheetName is "<Measure> by <Field>", trimmed to the 31-character sheet limit.
func (s Summary) SheetName() string {
	name := fmt.Sprintf("%s by %s", s.Measure, s.GroupBy)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// Workbook builds a workbook with the records sheet followed by one sheet per summary.
// The caller must Close the returned file.
func Workbook(records []sales.Record, summaries ...Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDE5F0"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	dateFmt := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeRecords(f, records, header, dateStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, s := range summaries {
		if err := writeSummary(f, s, header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, records []sales.Record, summaries ...Summary) error {
	f, err := Workbook(records, summaries...)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRecords(f *excelize.File, records []sales.Record, headerStyle, dateStyle int) error {
	cols := sales.Header()
	head := make([]any, len(cols))
	for i, c := range cols {
		head[i] = c
	}
	if err := f.SetSheetRow(RecordsSheet, "A1", &head); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(RecordsSheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, r := range records {
		row := []any{
			r.AreaCode, r.State, r.MarketSize.String(), r.Product,
			r.TotalExpenses, r.Inventory, r.Sales, r.Profit,
			r.Market, r.ProductType, r.Date,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(RecordsSheet, cell, &row); err != nil {
			return err
		}
	}
	if len(records) > 0 {
		top, _ := excelize.CoordinatesToCellName(len(cols), 2)
		bottom, _ := excelize.CoordinatesToCellName(len(cols), len(records)+1)
		if err := f.SetCellStyle(RecordsSheet, top, bottom, dateStyle); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(RecordsSheet, "A", "K", 15)
	return f.SetPanes(RecordsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, s Summary, headerStyle int) error {
	name := s.SheetName()
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	head := []any{string(s.GroupBy), "Total " + string(s.Measure), "Rows", ""}
	if err := f.SetSheetRow(name, "A1", &head); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", "D1", headerStyle); err != nil {
		return err
	}
	ext, err := sales.Extrema(s.Groups)
	for i, g := range s.Groups {
		mark := ""
		if err == nil {
			mark = ext.Marker(i)
		}
		row := []any{g.Key, g.Sum, g.Count, mark}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(name, "A", "D", 18)
}
