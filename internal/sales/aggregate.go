package sales

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ErrNoData is returned when an operation needs at least one group or record.
var ErrNoData = errors.New("no data")

// Field is a grouping key.
type Field string

const (
	FieldDate        Field = "Date"
	FieldMarket      Field = "Market"
	FieldProductType Field = "Product Type"
	FieldState       Field = "State"
	FieldProduct     Field = "Product"
	FieldAreaCode    Field = "Area Code"
	FieldMarketSize  Field = "Market Size"
)

var fields = []Field{FieldDate, FieldMarket, FieldProductType, FieldState, FieldProduct, FieldAreaCode, FieldMarketSize}

// Fields lists the supported grouping keys.
func Fields() []Field { return append([]Field(nil), fields...) }

// ParseField resolves a grouping key name, case and separator insensitive.
func ParseField(s string) (Field, error) {
	for _, f := range fields {
		if normalizeKey(string(f)) == normalizeKey(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown group-by field %q", s)
}

// Measure is a summable numeric column.
type Measure string

const (
	MeasureProfit        Measure = "Profit"
	MeasureSales         Measure = "Sales"
	MeasureTotalExpenses Measure = "Total Expenses"
	MeasureInventory     Measure = "Inventory"
)

var measures = []Measure{MeasureProfit, MeasureSales, MeasureTotalExpenses, MeasureInventory}

func Measures() []Measure { return append([]Measure(nil), measures...) }

// ParseMeasure resolves a measure name, case and separator insensitive.
func ParseMeasure(s string) (Measure, error) {
	for _, m := range measures {
		if normalizeKey(string(m)) == normalizeKey(s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown measure %q", s)
}

func (m Measure) value(r Record) float64 {
	switch m {
	case MeasureProfit:
		return r.Profit
	case MeasureSales:
		return r.Sales
	case MeasureTotalExpenses:
		return r.TotalExpenses
	case MeasureInventory:
		return r.Inventory
	}
	return 0
}

// Group is the sum of one measure over records sharing a key.
type Group struct {
	Key string `json:"key"`
	// Date is set when grouping by FieldDate.
	Date  time.Time `json:"date,omitempty"`
	Sum   float64   `json:"sum"`
	Count int       `json:"count"`

	rank int
}

type groupKey struct {
	s    string
	date time.Time
	code int
}

func (f Field) key(r Record) groupKey {
	switch f {
	case FieldDate:
		d := Day(r.Date)
		return groupKey{s: d.Format(DateFormat), date: d}
	case FieldMarket:
		return groupKey{s: r.Market}
	case FieldProductType:
		return groupKey{s: r.ProductType}
	case FieldState:
		return groupKey{s: r.State}
	case FieldProduct:
		return groupKey{s: r.Product}
	case FieldAreaCode:
		return groupKey{s: strconv.Itoa(r.AreaCode), code: r.AreaCode}
	case FieldMarketSize:
		return groupKey{s: r.MarketSize.String(), code: int(r.MarketSize)}
	}
	return groupKey{}
}

// Aggregate sums measure per distinct groupBy value, ordered by the key's
// natural order: dates chronologically, area codes numerically, strings lexically.
// Empty input yields an empty, non-nil slice.
func Aggregate(records []Record, groupBy Field, measure Measure) ([]Group, error) {
	if _, err := ParseField(string(groupBy)); err != nil {
		return nil, err
	}
	if _, err := ParseMeasure(string(measure)); err != nil {
		return nil, err
	}
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, r := range records {
		k := groupBy.key(r)
		i, ok := index[k.s]
		if !ok {
			i = len(groups)
			index[k.s] = i
			groups = append(groups, Group{Key: k.s, Date: k.date, rank: k.code})
		}
		groups[i].Sum += measure.value(r)
		groups[i].Count++
	}
	sort.SliceStable(groups, func(i, j int) bool {
		switch groupBy {
		case FieldDate:
			return groups[i].Date.Before(groups[j].Date)
		case FieldAreaCode, FieldMarketSize:
			return groups[i].rank < groups[j].rank
		}
		return groups[i].Key < groups[j].Key
	})
	return groups, nil
}

// AggregateMeasures runs Aggregate once per measure.
func AggregateMeasures(records []Record, groupBy Field, ms ...Measure) (map[Measure][]Group, error) {
	out := make(map[Measure][]Group, len(ms))
	for _, m := range ms {
		g, err := Aggregate(records, groupBy, m)
		if err != nil {
			return nil, err
		}
		out[m] = g
	}
	return out, nil
}

// Extremum identifies the largest and smallest group by Sum.
type Extremum struct {
	Max      Group `json:"max"`
	Min      Group `json:"min"`
	MaxIndex int   `json:"max_index"`
	MinIndex int   `json:"min_index"`
}

// Extrema scans groups once. Ties resolve to the earliest group.
func Extrema(groups []Group) (Extremum, error) {
	if len(groups) == 0 {
		return Extremum{}, ErrNoData
	}
	var e Extremum
	for i, g := range groups {
		if g.Sum > groups[e.MaxIndex].Sum {
			e.MaxIndex = i
		}
		if g.Sum < groups[e.MinIndex].Sum {
			e.MinIndex = i
		}
	}
	e.Max, e.Min = groups[e.MaxIndex], groups[e.MinIndex]
	return e, nil
}

// Marker labels group i: "Highest", "Lowest", both when one group is the max
// and the min, or "" otherwise.
func (e Extremum) Marker(i int) string {
	switch {
	case i == e.MaxIndex && i == e.MinIndex:
		return "Highest / Lowest"
	case i == e.MaxIndex:
		return "Highest"
	case i == e.MinIndex:
		return "Lowest"
	}
	return ""
}
