// Package analysis computes descriptive statistics over a set of sales records.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/profitscope/internal/sales"
)

// Options controls Describe.
type Options struct {
	// OutlierThreshold is the robust |z| above which a value counts as an outlier.
	// Zero disables outlier detection.
	OutlierThreshold float64
	// TopN caps the values listed per categorical column.
	TopN int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{OutlierThreshold: 3.5, TopN: 5}
}

// Report is a markdown-friendly description of a record subset.
type Report struct {
	Name       string            `json:"name,omitempty"`
	Rows       int               `json:"rows"`
	First      time.Time         `json:"first,omitempty"`
	Last       time.Time         `json:"last,omitempty"`
	Measures   []MeasureSummary  `json:"measures"`
	Categories []CategorySummary `json:"categories"`
	Corr       *CorrMatrix       `json:"correlations,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// MeasureSummary captures statistics for one numeric column.
type MeasureSummary struct {
	Measure  sales.Measure `json:"measure"`
	Count    int           `json:"count"`
	Sum      float64       `json:"sum"`
	Min      float64       `json:"min"`
	Max      float64       `json:"max"`
	Mean     float64       `json:"mean"`
	Std      float64       `json:"std"`
	Median   float64       `json:"median"`
	Negative int           `json:"negative"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
}

// CategorySummary lists the most frequent values of a categorical column.
type CategorySummary struct {
	Field     sales.Field     `json:"field"`
	Unique    int             `json:"unique"`
	TopValues []CategoryCount `json:"top"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across measures.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

var (
	describedMeasures   = []sales.Measure{sales.MeasureProfit, sales.MeasureSales, sales.MeasureTotalExpenses, sales.MeasureInventory}
	describedCategories = []sales.Field{sales.FieldMarket, sales.FieldProductType, sales.FieldMarketSize, sales.FieldState, sales.FieldProduct}
)

// Describe summarizes records. An empty input yields a report with Rows=0
// and no statistics.
func Describe(name string, records []sales.Record, opt Options) *Report {
	rep := &Report{Name: name, Rows: len(records), Measures: []MeasureSummary{}, Categories: []CategorySummary{}}
	if len(records) == 0 {
		rep.Warnings = append(rep.Warnings, "no rows match the selected filters")
		return rep
	}
	rep.First, rep.Last = records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(rep.First) {
			rep.First = r.Date
		}
		if r.Date.After(rep.Last) {
			rep.Last = r.Date
		}
	}

	cols := make([][]float64, len(describedMeasures))
	for i, m := range describedMeasures {
		cols[i] = values(records, m)
		rep.Measures = append(rep.Measures, summarize(m, cols[i], opt.OutlierThreshold))
	}

	for _, f := range describedCategories {
		groups, err := sales.Aggregate(records, f, sales.MeasureSales)
		if err != nil {
			continue
		}
		rep.Categories = append(rep.Categories, topValues(f, groups, opt.TopN))
	}

	if len(records) < 3 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("only %d rows; correlations skipped", len(records)))
		return rep
	}
	n := len(describedMeasures)
	mat := make([][]float64, n)
	names := make([]string, n)
	for i := range mat {
		names[i] = string(describedMeasures[i])
		mat[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		mat[a][a] = 1
		for b := a + 1; b < n; b++ {
			r := stat.Correlation(cols[a], cols[b], nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			mat[a][b], mat[b][a] = r, r
		}
	}
	rep.Corr = &CorrMatrix{Columns: names, Values: mat}
	return rep
}

func values(records []sales.Record, m sales.Measure) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		switch m {
		case sales.MeasureProfit:
			out[i] = r.Profit
		case sales.MeasureSales:
			out[i] = r.Sales
		case sales.MeasureTotalExpenses:
			out[i] = r.TotalExpenses
		case sales.MeasureInventory:
			out[i] = r.Inventory
		}
	}
	return out
}

func summarize(m sales.Measure, vals []float64, threshold float64) MeasureSummary {
	s := MeasureSummary{Measure: m, Count: len(vals), Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range vals {
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		if v < 0 {
			s.Negative++
		}
	}
	s.Mean = stat.Mean(vals, nil)
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	median, mad := medianMAD(vals)
	s.Median = median
	if threshold > 0 && mad > 0 {
		s.OutlierThreshold = threshold
		for _, v := range vals {
			z := math.Abs(0.6745 * (v - median) / mad)
			if z > threshold {
				s.OutliersCount++
				if z > s.OutliersMaxAbsZ {
					s.OutliersMaxAbsZ = z
				}
			}
		}
	}
	return s
}

func topValues(f sales.Field, groups []sales.Group, n int) CategorySummary {
	sorted := append([]sales.Group(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	cs := CategorySummary{Field: f, Unique: len(groups), TopValues: make([]CategoryCount, len(sorted))}
	for i, g := range sorted {
		cs.TopValues[i] = CategoryCount{Value: g.Key, Count: g.Count}
	}
	return cs
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Markdown renders the report as plain sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	if r.Rows > 0 {
		b.WriteString(fmt.Sprintf("Dates: %s to %s\n", r.First.Format(sales.DateFormat), r.Last.Format(sales.DateFormat)))
	}

	if len(r.Measures) > 0 {
		b.WriteString("\n[MEASURES]\n")
		for _, m := range r.Measures {
			b.WriteString(fmt.Sprintf("- %s: total %.2f, mean %.4g, median %.4g, std %.4g, min %.4g, max %.4g",
				m.Measure, m.Sum, m.Mean, m.Median, m.Std, m.Min, m.Max))
			if m.Negative > 0 {
				b.WriteString(fmt.Sprintf("; %d negative", m.Negative))
			}
			if m.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", m.OutliersCount, m.OutlierThreshold))
				if m.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", m.OutliersMaxAbsZ))
				}
			}
			b.WriteString("\n")
		}
	}

	if len(r.Categories) > 0 {
		b.WriteString("\n[CATEGORIES]\n")
		for _, c := range r.Categories {
			b.WriteString(fmt.Sprintf("- %s: ", c.Field))
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", kv.Value, kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
			b.WriteString("\n")
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		// strongest first
		sort.SliceStable(pairs, func(i, j int) bool { return math.Abs(pairs[i].R) > math.Abs(pairs[j].R) })
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
