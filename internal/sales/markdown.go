package sales

import (
	"fmt"
	"strconv"
	"strings"
)

var tableHeader = []string{
	ColAreaCode, ColState, ColMarketSize, ColProduct, ColTotalExpenses, ColInventory,
	ColSales, ColProfit, ColMarket, ColProductType, ColDate,
}

// Row returns the record's cells in file column order.
func (r Record) Row() []string {
	return []string{
		fmt.Sprint(r.AreaCode), r.State, r.MarketSize.String(), r.Product,
		formatNum(r.TotalExpenses), formatNum(r.Inventory), formatNum(r.Sales), formatNum(r.Profit),
		r.Market, r.ProductType, r.Date.Format(DateFormat),
	}
}

// Header returns the column names in file order.
func Header() []string { return append([]string(nil), tableHeader...) }

// MarkdownTable renders records as a pipe table preceded by the entry count.
// limit > 0 caps the rendered rows; the count always reflects len(records).
func MarkdownTable(records []Record, limit int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Number of entries: %d\n\n", len(records)))
	if len(records) == 0 {
		return b.String()
	}
	b.WriteString("| " + strings.Join(tableHeader, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(tableHeader)) + "\n")
	n := len(records)
	if limit > 0 && limit < n {
		n = limit
	}
	for _, r := range records[:n] {
		cells := r.Row()
		for i := range cells {
			cells[i] = safeVal(cells[i])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if n < len(records) {
		b.WriteString(fmt.Sprintf("\n(%d more rows not shown)\n", len(records)-n))
	}
	return b.String()
}

// MarkdownSummary renders grouped sums with the highest and lowest group marked.
func MarkdownSummary(groupBy Field, measure Measure, groups []Group, format func(float64) string) string {
	if format == nil {
		format = formatNum
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[TOTAL %s BY %s]\n", strings.ToUpper(string(measure)), strings.ToUpper(string(groupBy))))
	ext, err := Extrema(groups)
	if err != nil {
		b.WriteString("No data for the selected filters.\n")
		return b.String()
	}
	for i, g := range groups {
		mark := ""
		if m := ext.Marker(i); m != "" {
			mark = "  ← " + m
		}
		b.WriteString(fmt.Sprintf("- %s: %s (n=%d)%s\n", safeVal(g.Key), format(g.Sum), g.Count, mark))
	}
	b.WriteString(fmt.Sprintf("\nHighest: %s (%s)\nLowest: %s (%s)\n", ext.Max.Key, format(ext.Max.Sum), ext.Min.Key, format(ext.Min.Sum)))
	return b.String()
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
