package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/profitscope/internal/chart"
	"github.com/KaramelBytes/profitscope/internal/config"
	"github.com/KaramelBytes/profitscope/internal/predict"
	"github.com/KaramelBytes/profitscope/internal/sales"
)

const salesCSV = `Area Code,State,Market Size,Product,Total Expenses,Inventory,Sales,Profit,Market,Product Type,Date
203,Connecticut,Small Market,Columbian,50,500,300,100,East,Coffee,2013-01-01
206,Washington,Major Market,Green Tea,40,400,200,-20,West,Tea,2013-01-01
203,Connecticut,Small Market,Columbian,55,520,320,110,East,Coffee,2013-02-01
206,Washington,Major Market,Green Tea,45,410,210,30,West,Tea,2013-02-01
203,Connecticut,Small Market,Columbian,60,530,330,90,East,Coffee,2013-03-01
206,Washington,Major Market,Green Tea,42,405,190,-40,West,Tea,2013-03-01
`

const modelJSON = `{
  "kind": "tree_ensemble",
  "name": "gbr",
  "base_score": 100,
  "categorical": {
    "State": ["Connecticut", "Washington"],
    "Market Size": ["Small Market", "Major Market"],
    "Product": ["Columbian", "Green Tea"]
  },
  "trees": [
    {"nodes": [
      {"feature": "Sales", "threshold": 250, "yes": 1, "no": 2},
      {"leaf": 10},
      {"leaf": 50}
    ]},
    {"nodes": [
      {"feature": "Market Size_Small Market", "threshold": 0.5, "yes": 1, "no": 2},
      {"leaf": -5},
      {"leaf": 20}
    ]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		DatasetPath: writeFile(t, dir, "sales.csv", salesCSV),
		ModelPath:   writeFile(t, dir, "model.json", modelJSON),
		Chart:       chart.Options{Width: 300, Height: 200},
		Logger:      log.New(io.Discard, "", 0),
	}
}

func openApp(t *testing.T, opt Options) *App {
	t.Helper()
	a, err := Open(opt)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func scenario() predict.Input {
	return predict.NewInput(203, "Connecticut", sales.SmallMarket, "Columbian", 50, 500, 300)
}

func TestOpenStartupErrors(t *testing.T) {
	good := testOptions(t)
	tests := []struct {
		name      string
		mutate    func(*Options)
		component string
	}{
		{"missing dataset", func(o *Options) { o.DatasetPath = filepath.Join(t.TempDir(), "none.csv") }, "dataset"},
		{"missing model", func(o *Options) { o.ModelPath = filepath.Join(t.TempDir(), "none.json") }, "model"},
		{"missing features", func(o *Options) { o.FeaturesPath = filepath.Join(t.TempDir(), "none.txt") }, "features"},
		{"bad history driver", func(o *Options) { o.HistoryDriver = "mysql" }, "history"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := good
			tt.mutate(&opt)
			_, err := Open(opt)
			var se *StartupError
			if !errors.As(err, &se) {
				t.Fatalf("want StartupError, got %v", err)
			}
			if se.Component != tt.component {
				t.Errorf("component=%q want %q", se.Component, tt.component)
			}
		})
	}
}

func TestSelectorsAndDefaultRange(t *testing.T) {
	a := openApp(t, testOptions(t))
	s := a.Selectors()
	if strings.Join(s.Markets, ",") != "East,West" || strings.Join(s.ProductTypes, ",") != "Coffee,Tea" {
		t.Errorf("selectors: %+v", s)
	}
	if s.Start != "2013-01-01" || s.End != "2013-03-01" {
		t.Errorf("bounds: %s..%s", s.Start, s.End)
	}
	if len(s.States) != 20 || len(s.Products) != 13 || len(s.MarketSizes) != 2 {
		t.Errorf("fixed domains: %d states, %d products, %v", len(s.States), len(s.Products), s.MarketSizes)
	}
	dr := a.DefaultRange()
	if got := RangeMessage(dr); got != "Start date: 2013-01-01 End date: 2013-03-01" {
		t.Errorf("RangeMessage=%q", got)
	}
}

func TestTable(t *testing.T) {
	a := openApp(t, testOptions(t))
	c, err := ParseCriteria("East", "Coffee", "2013-02-01", "")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		q     Query
		count int
		valid bool
	}{
		{"raw ignores criteria", Query{Criteria: c, Raw: true}, 6, true},
		{"categories only", Query{Criteria: sales.Criteria{Categories: c.Categories}}, 3, true},
		{"categories and start", Query{Criteria: c}, 2, true},
		{"no match", Query{Criteria: sales.Criteria{Categories: sales.Categories{Market: "South"}}}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Table(tt.q)
			if len(res.Records) != tt.count || res.RangeValid != tt.valid {
				t.Errorf("count=%d valid=%v want %d %v", len(res.Records), res.RangeValid, tt.count, tt.valid)
			}
		})
	}

	inv, _ := ParseCriteria("", "", "2013-03-01", "2013-01-01")
	res := a.Table(Query{Criteria: inv})
	if res.RangeValid || len(res.Records) != 0 {
		t.Errorf("inverted range: %+v", res)
	}
}

func TestParseCriteriaBadDate(t *testing.T) {
	if _, err := ParseCriteria("", "", "01/02/2013", ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestCharts(t *testing.T) {
	a := openApp(t, testOptions(t))
	var buf bytes.Buffer
	if err := a.TimeSeries(&buf, sales.Criteria{}); err != nil {
		t.Fatalf("TimeSeries: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("timeseries is not a PNG")
	}

	inv, _ := ParseCriteria("", "", "2013-03-01", "2013-01-01")
	buf.Reset()
	var ire *sales.InvalidRangeError
	if err := a.TimeSeries(&buf, inv); !errors.As(err, &ire) || buf.Len() != 0 {
		t.Errorf("inverted range: err=%v wrote=%d", err, buf.Len())
	}

	none, _ := ParseCriteria("South", "", "", "")
	if err := a.TimeSeries(io.Discard, none); !errors.Is(err, chart.ErrNoData) {
		t.Errorf("empty subset: %v", err)
	}

	// comparison defaults to the full dataset
	buf.Reset()
	if err := a.Comparison(&buf, none, false); err != nil {
		t.Fatalf("Comparison: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("comparison is not a PNG")
	}
	if err := a.Comparison(io.Discard, none, true); !errors.Is(err, chart.ErrNoData) {
		t.Errorf("filtered comparison on empty subset: %v", err)
	}
}

func TestSummary(t *testing.T) {
	a := openApp(t, testOptions(t))
	s, err := a.Summary(sales.Criteria{}, sales.FieldDate, sales.MeasureProfit)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Groups) != 3 || s.NoData || s.Extrema == nil {
		t.Fatalf("summary=%+v", s)
	}
	if s.Extrema.Max.Sum != 140 || s.Extrema.Min.Sum != 50 {
		t.Errorf("extrema max=%v min=%v", s.Extrema.Max.Sum, s.Extrema.Min.Sum)
	}

	none, _ := ParseCriteria("South", "", "", "")
	s, err = a.Summary(none, sales.FieldDate, sales.MeasureProfit)
	if err != nil || !s.NoData || s.Extrema != nil {
		t.Errorf("empty summary: %+v err=%v", s, err)
	}
}

func TestDescribe(t *testing.T) {
	a := openApp(t, testOptions(t))
	rep, err := a.Describe(Query{})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Rows != 6 || rep.Measures[0].Measure != sales.MeasureProfit || rep.Measures[0].Sum != 270 || rep.Measures[0].Negative != 2 {
		t.Errorf("full report: rows=%d profit=%+v", rep.Rows, rep.Measures[0])
	}

	east, _ := ParseCriteria("East", "", "", "")
	rep, err = a.Describe(Query{Criteria: east})
	if err != nil || rep.Rows != 3 || rep.Measures[0].Sum != 300 {
		t.Errorf("east report: %+v err=%v", rep, err)
	}

	bad, _ := ParseCriteria("", "", "2013-03-01", "2013-01-01")
	var ire *sales.InvalidRangeError
	if _, err := a.Describe(Query{Criteria: bad}); !errors.As(err, &ire) {
		t.Errorf("want InvalidRangeError, got %v", err)
	}
	if rep, err := a.Describe(Query{Criteria: bad, Raw: true}); err != nil || rep.Rows != 6 {
		t.Errorf("raw report ignores criteria: %+v err=%v", rep, err)
	}
}

func TestExport(t *testing.T) {
	a := openApp(t, testOptions(t))
	c, _ := ParseCriteria("West", "", "", "")
	s, _ := a.Summary(c, sales.FieldDate, sales.MeasureSales)
	var buf bytes.Buffer
	if err := a.Export(&buf, Query{Criteria: c}, s); err != nil {
		t.Fatalf("Export: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Records")
	if len(rows) != 4 {
		t.Errorf("records sheet has %d rows, want header + 3", len(rows))
	}
	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[1] != "Sales by Date" {
		t.Errorf("sheets=%v", sheets)
	}
}

func TestPredict(t *testing.T) {
	opt := testOptions(t)
	opt.Currency = "$"
	opt.HistoryDriver = "sqlite3"
	opt.HistoryDSN = filepath.Join(t.TempDir(), "history.db")
	a := openApp(t, opt)
	ctx := context.Background()

	p, err := a.Predict(ctx, scenario())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.Value != 170 || p.Display != "$170.00" || p.Model != "gbr" {
		t.Errorf("prediction=%+v", p)
	}
	if p.ID == "" || p.Warning != "" {
		t.Errorf("history not recorded: id=%q warning=%q", p.ID, p.Warning)
	}
	entries, err := a.History(ctx, 10)
	if err != nil || len(entries) != 1 || entries[0].ID != p.ID {
		t.Fatalf("history=%+v err=%v", entries, err)
	}

	bad := scenario()
	code := 999
	bad.AreaCode = &code
	var ve *predict.ValidationError
	if _, err := a.Predict(ctx, bad); !errors.As(err, &ve) {
		t.Errorf("want ValidationError, got %v", err)
	}

	missing := scenario()
	missing.Sales = nil
	var sm *predict.SchemaMismatchError
	if _, err := a.Predict(ctx, missing); !errors.As(err, &sm) {
		t.Errorf("want SchemaMismatchError, got %v", err)
	}

	unknown := scenario()
	mint := "Mint"
	unknown.Product = &mint
	var pe *predict.PredictionError
	if _, err := a.Predict(ctx, unknown); !errors.As(err, &pe) {
		t.Errorf("want PredictionError, got %v", err)
	}

	entries, _ = a.History(ctx, 10)
	if len(entries) != 1 {
		t.Errorf("failed predictions were recorded: %d entries", len(entries))
	}
}

func TestHistoryDisabled(t *testing.T) {
	a := openApp(t, testOptions(t))
	if _, err := a.History(context.Background(), 5); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("want ErrHistoryDisabled, got %v", err)
	}
	p, err := a.Predict(context.Background(), scenario())
	if err != nil || p.ID != "" {
		t.Errorf("prediction without history: %+v err=%v", p, err)
	}
}

func TestFeatureWarnings(t *testing.T) {
	opt := testOptions(t)
	opt.FeaturesPath = writeFile(t, t.TempDir(), "features.txt", "# selected\nSales\nInventory\nWeather\n")
	var logs bytes.Buffer
	opt.Logger = log.New(&logs, "", 0)
	a := openApp(t, opt)
	if len(a.SelectedFeatures()) != 3 {
		t.Errorf("features=%v", a.SelectedFeatures())
	}
	joined := strings.Join(a.Warnings(), "\n")
	if !strings.Contains(joined, `"Weather"`) || !strings.Contains(joined, `"State"`) {
		t.Errorf("warnings=%q", joined)
	}
	if !strings.Contains(logs.String(), "⚠ Warning:") {
		t.Errorf("warnings not logged: %q", logs.String())
	}
}

func TestSelectedFeaturesBesideModel(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Global{
		DatasetPath:   writeFile(t, dir, "sales.csv", salesCSV),
		ModelPath:     writeFile(t, dir, "model.json", modelJSON),
		Currency:      "$",
		ChartWidthIn:  4,
		ChartHeightIn: 3,
	}
	opt := OptionsFromConfig(cfg)
	opt.Logger = log.New(io.Discard, "", 0)
	if opt.FeaturesPath != filepath.Join(dir, SelectedFeaturesFile) || !opt.FeaturesOptional {
		t.Fatalf("features path=%q optional=%v", opt.FeaturesPath, opt.FeaturesOptional)
	}

	a := openApp(t, opt)
	if a.SelectedFeatures() != nil || !strings.Contains(strings.Join(a.Warnings(), "\n"), "feature check skipped") {
		t.Errorf("absent default file: features=%v warnings=%v", a.SelectedFeatures(), a.Warnings())
	}

	writeFile(t, dir, SelectedFeaturesFile, "Sales\nInventory\n")
	a = openApp(t, opt)
	if len(a.SelectedFeatures()) != 2 {
		t.Errorf("default file not loaded: %v", a.SelectedFeatures())
	}

	cfg.FeaturesPath = filepath.Join(dir, "none.txt")
	_, err := Open(OptionsFromConfig(cfg))
	var se *StartupError
	if !errors.As(err, &se) || se.Component != "features" {
		t.Errorf("configured file missing: want features StartupError, got %v", err)
	}
}
