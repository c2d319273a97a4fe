package sales

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Options controls how a dataset file is read.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used (or '\t' for .tsv files).
	Delimiter rune
	// Sheet selects the worksheet of an .xlsx file; empty means the first sheet.
	Sheet string
	// DateLayout forces a time layout for the Date column. If empty, common layouts are tried.
	DateLayout string
}

// Column names as they appear in the source file. Matching is case and
// separator insensitive.
const (
	ColAreaCode      = "Area Code"
	ColState         = "State"
	ColMarketSize    = "Market Size"
	ColProduct       = "Product"
	ColTotalExpenses = "Total Expenses"
	ColInventory     = "Inventory"
	ColSales         = "Sales"
	ColProfit        = "Profit"
	ColMarket        = "Market"
	ColProductType   = "Product Type"
	ColDate          = "Date"
)

var requiredColumns = []string{
	ColAreaCode, ColState, ColMarketSize, ColProduct, ColTotalExpenses, ColInventory,
	ColSales, ColProfit, ColMarket, ColProductType, ColDate,
}

// MissingColumnsError reports required columns absent from the header row.
type MissingColumnsError struct {
	File    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.File, strings.Join(e.Columns, ", "))
}

// RowError reports an unparseable cell. Row is 1-based and excludes the header.
type RowError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: invalid value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Load reads a .csv, .tsv or .xlsx file into a Dataset.
func Load(path string, opt Options) (*Dataset, error) {
	var df dataframe.DataFrame
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err := readSheet(path, opt.Sheet)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("%s: sheet has no header row", filepath.Base(path))
		}
		if len(rows) == 1 {
			return headerOnly(rows[0], filepath.Base(path))
		}
		df = dataframe.LoadRecords(rows, stringOptions()...)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()
		delim := opt.Delimiter
		if delim == 0 {
			delim = sniffDelimiter(path)
		}
		return readDelimited(f, filepath.Base(path), delim, opt)
	}
	if df.Err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", filepath.Base(path), df.Err)
	}
	return fromFrame(df, filepath.Base(path), opt)
}

// Read parses CSV content from r. name is used in messages only.
func Read(r io.Reader, name string, opt Options) (*Dataset, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	return readDelimited(r, name, delim, opt)
}

func readDelimited(r io.Reader, name string, delim rune, opt Options) (*Dataset, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", name, err)
	}
	df := dataframe.ReadCSV(bytes.NewReader(b), append(stringOptions(), dataframe.WithDelimiter(delim))...)
	if df.Err != nil {
		// gota refuses a frame without rows; a lone header row is an empty dataset.
		cr := csv.NewReader(bytes.NewReader(b))
		cr.Comma = delim
		if rows, cerr := cr.ReadAll(); cerr == nil && len(rows) == 1 {
			return headerOnly(rows[0], name)
		}
		return nil, fmt.Errorf("read dataset %s: %w", name, df.Err)
	}
	return fromFrame(df, name, opt)
}

// headerOnly checks the required columns of a file without data rows.
func headerOnly(header []string, name string) (*Dataset, error) {
	if _, err := resolveColumns(header, name); err != nil {
		return nil, err
	}
	return &Dataset{Name: name, Records: []Record{}}, nil
}

// resolveColumns maps each required column to its header as written in the file.
func resolveColumns(names []string, file string) (map[string]string, error) {
	index := make(map[string]string, len(names))
	for _, header := range names {
		key := normalizeKey(header)
		if _, dup := index[key]; !dup {
			index[key] = header
		}
	}
	out := make(map[string]string, len(requiredColumns))
	var missing []string
	for _, want := range requiredColumns {
		header, ok := index[normalizeKey(want)]
		if !ok {
			missing = append(missing, want)
			continue
		}
		out[want] = header
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{File: file, Columns: missing}
	}
	return out, nil
}

// stringOptions keeps every cell as its raw text; typing happens in fromFrame.
func stringOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	}
}

func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", filepath.Base(path))
	}
	target := sheets[0]
	if sheet != "" {
		target = ""
		for _, s := range sheets {
			if strings.EqualFold(s, sheet) {
				target = s
				break
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				sheet, filepath.Base(path), strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	// Trailing empty cells are trimmed by excelize; pad to the header width.
	if len(rows) > 0 {
		width := len(rows[0])
		out := rows[:0]
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			if len(row) < width {
				tmp := make([]string, width)
				copy(tmp, row)
				row = tmp
			} else if len(row) > width {
				row = row[:width]
			}
			out = append(out, row)
		}
		rows = out
	}
	return rows, nil
}

func fromFrame(df dataframe.DataFrame, name string, opt Options) (*Dataset, error) {
	headers, err := resolveColumns(df.Names(), name)
	if err != nil {
		return nil, err
	}
	cols := make(map[string][]string, len(headers))
	for want, header := range headers {
		cols[want] = df.Col(header).Records()
	}

	n := df.Nrow()
	ds := &Dataset{Name: name, Records: make([]Record, 0, n)}
	outside := map[string]map[string]int{}
	note := func(col, val string) {
		m := outside[col]
		if m == nil {
			m = map[string]int{}
			outside[col] = m
		}
		m[val]++
	}
	for i := 0; i < n; i++ {
		row := i + 1
		cell := func(col string) string { return strings.TrimSpace(cols[col][i]) }
		var rec Record
		var err error

		if rec.AreaCode, err = parseAreaCode(cell(ColAreaCode)); err != nil {
			return nil, &RowError{Row: row, Column: ColAreaCode, Value: cell(ColAreaCode), Err: err}
		}
		if rec.MarketSize, err = ParseMarketSize(cell(ColMarketSize)); err != nil {
			return nil, &RowError{Row: row, Column: ColMarketSize, Value: cell(ColMarketSize), Err: err}
		}
		for _, nf := range []struct {
			col string
			dst *float64
		}{
			{ColTotalExpenses, &rec.TotalExpenses},
			{ColInventory, &rec.Inventory},
			{ColSales, &rec.Sales},
			{ColProfit, &rec.Profit},
		} {
			v, ok := parseNumeric(cell(nf.col))
			if !ok {
				return nil, &RowError{Row: row, Column: nf.col, Value: cell(nf.col), Err: errors.New("not a number")}
			}
			*nf.dst = v
		}
		if rec.Date, err = parseDate(cell(ColDate), opt.DateLayout); err != nil {
			return nil, &RowError{Row: row, Column: ColDate, Value: cell(ColDate), Err: err}
		}
		rec.State = cell(ColState)
		rec.Product = cell(ColProduct)
		rec.Market = cell(ColMarket)
		rec.ProductType = cell(ColProductType)

		if !KnownAreaCode(rec.AreaCode) {
			note(ColAreaCode, strconv.Itoa(rec.AreaCode))
		}
		if !KnownState(rec.State) {
			note(ColState, rec.State)
		}
		if !KnownProduct(rec.Product) {
			note(ColProduct, rec.Product)
		}
		ds.Records = append(ds.Records, rec)
	}
	for _, col := range []string{ColAreaCode, ColState, ColProduct} {
		m := outside[col]
		if len(m) == 0 {
			continue
		}
		vals := make([]string, 0, len(m))
		total := 0
		for v, c := range m {
			vals = append(vals, v)
			total += c
		}
		sort.Strings(vals)
		if len(vals) > 3 {
			vals = vals[:3]
		}
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%s: %d rows outside the known domain (e.g. %s)", col, total, strings.Join(vals, ", ")))
	}
	return ds, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func parseAreaCode(s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	// spreadsheets may render integers as "203.0"
	f, ok := parseNumeric(s)
	if !ok || f != float64(int(f)) {
		return 0, errors.New("not an integer")
	}
	return int(f), nil
}

var dateLayouts = []string{
	"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04",
	"1/2/2006", "01/02/2006", "1/2/06", "1/2/2006 15:04", "1/2/2006 15:04:05", "01/02/06 15:04",
	"2006/01/02",
}

// parseDate returns the calendar date (UTC midnight) of s.
func parseDate(s, layout string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	layouts := dateLayouts
	if layout != "" {
		layouts = []string{layout}
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseNumeric accepts plain numbers plus currency prefixes, thousands
// separators and accounting-style negatives "(12.5)".
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.ReplaceAll(raw, " ", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
