package analysis

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/profitscope/internal/sales"
)

func sample() []sales.Record {
	profits := []float64{10, 20, 30, 40, 1000}
	markets := []string{"East", "West", "East", "West", "East"}
	recs := make([]sales.Record, len(profits))
	for i, p := range profits {
		recs[i] = sales.Record{
			AreaCode:      203,
			State:         "Connecticut",
			MarketSize:    sales.SmallMarket,
			Product:       "Columbian",
			Market:        markets[i],
			ProductType:   "Coffee",
			Profit:        p,
			Sales:         2 * p,
			TotalExpenses: 50,
			Inventory:     -p,
			Date:          time.Date(2013, time.Month(5-i), 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return recs
}

func measure(t *testing.T, rep *Report, m sales.Measure) MeasureSummary {
	t.Helper()
	for _, s := range rep.Measures {
		if s.Measure == m {
			return s
		}
	}
	t.Fatalf("measure %s missing", m)
	return MeasureSummary{}
}

func TestDescribe_Measures(t *testing.T) {
	rep := Describe("sales.csv", sample(), DefaultOptions())
	if rep.Rows != 5 {
		t.Fatalf("rows=%d", rep.Rows)
	}
	if !rep.First.Equal(time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)) || !rep.Last.Equal(time.Date(2013, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bounds %v..%v", rep.First, rep.Last)
	}
	p := measure(t, rep, sales.MeasureProfit)
	if p.Sum != 1100 || p.Mean != 220 || p.Median != 30 || p.Min != 10 || p.Max != 1000 {
		t.Errorf("profit stats: %+v", p)
	}
	if p.OutliersCount != 1 || p.OutliersMaxAbsZ < 60 {
		t.Errorf("profit outliers: %+v", p)
	}
	inv := measure(t, rep, sales.MeasureInventory)
	if inv.Negative != 5 {
		t.Errorf("inventory negatives=%d", inv.Negative)
	}
	exp := measure(t, rep, sales.MeasureTotalExpenses)
	if exp.Std != 0 || exp.OutlierThreshold != 0 {
		t.Errorf("constant column: %+v", exp)
	}
}

func TestDescribe_Correlations(t *testing.T) {
	rep := Describe("", sample(), DefaultOptions())
	if rep.Corr == nil {
		t.Fatal("missing correlations")
	}
	idx := map[string]int{}
	for i, c := range rep.Corr.Columns {
		idx[c] = i
	}
	at := func(a, b sales.Measure) float64 { return rep.Corr.Values[idx[string(a)]][idx[string(b)]] }
	cases := []struct {
		a, b sales.Measure
		want float64
	}{
		{sales.MeasureProfit, sales.MeasureSales, 1},
		{sales.MeasureProfit, sales.MeasureInventory, -1},
		{sales.MeasureProfit, sales.MeasureTotalExpenses, 0},
		{sales.MeasureSales, sales.MeasureSales, 1},
	}
	for _, c := range cases {
		if got := at(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("r(%s,%s)=%v want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestDescribe_Categories(t *testing.T) {
	opt := DefaultOptions()
	opt.TopN = 1
	rep := Describe("", sample(), opt)
	var market *CategorySummary
	for i := range rep.Categories {
		if rep.Categories[i].Field == sales.FieldMarket {
			market = &rep.Categories[i]
		}
	}
	if market == nil {
		t.Fatal("market category missing")
	}
	if market.Unique != 2 || len(market.TopValues) != 1 || market.TopValues[0] != (CategoryCount{Value: "East", Count: 3}) {
		t.Errorf("market: %+v", market)
	}
}

func TestDescribe_SmallInputs(t *testing.T) {
	empty := Describe("", nil, DefaultOptions())
	if empty.Rows != 0 || len(empty.Measures) != 0 || len(empty.Warnings) != 1 {
		t.Errorf("empty: %+v", empty)
	}
	two := Describe("", sample()[:2], DefaultOptions())
	if two.Corr != nil {
		t.Error("correlations computed for two rows")
	}
	if !strings.Contains(two.Markdown(), "correlations skipped") {
		t.Errorf("markdown notes:\n%s", two.Markdown())
	}
}

func TestReport_Markdown(t *testing.T) {
	md := Describe("sales.csv", sample(), DefaultOptions()).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: sales.csv",
		"Rows: 5",
		"Dates: 2013-01-01 to 2013-05-01",
		"- Profit: total 1100.00",
		"outliers: 1 above |z|>3.5",
		"- Market: East(3), West(2)",
		"[CORRELATIONS]",
		"r=1.000",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMedianMAD(t *testing.T) {
	cases := []struct {
		in          []float64
		median, mad float64
	}{
		{nil, 0, 0},
		{[]float64{4}, 4, 0},
		{[]float64{1, 3}, 2, 1},
		{[]float64{10, 20, 30, 40, 1000}, 30, 10},
	}
	for _, c := range cases {
		m, d := medianMAD(c.in)
		if m != c.median || d != c.mad {
			t.Errorf("medianMAD(%v)=%v,%v want %v,%v", c.in, m, d, c.median, c.mad)
		}
	}
}
