// Package dashboard wires the dataset, the predictor and the optional history
// store into the operations behind the CLI and the HTTP server.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/profitscope/internal/analysis"
	"github.com/KaramelBytes/profitscope/internal/chart"
	"github.com/KaramelBytes/profitscope/internal/config"
	"github.com/KaramelBytes/profitscope/internal/export"
	"github.com/KaramelBytes/profitscope/internal/history"
	"github.com/KaramelBytes/profitscope/internal/predict"
	"github.com/KaramelBytes/profitscope/internal/sales"
	"github.com/KaramelBytes/profitscope/internal/utils"
)

// ErrHistoryDisabled is returned by History when no store is configured.
var ErrHistoryDisabled = errors.New("prediction history is not configured")

// StartupError is a fatal failure while building the App.
type StartupError struct {
	Component string // "dataset", "model", "features" or "history"
	Path      string
	Err       error
}

func (e *StartupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("startup: %s: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("startup: %s %s: %v", e.Component, e.Path, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// Options configures Open.
type Options struct {
	DatasetPath  string
	Dataset      sales.Options
	ModelPath    string
	FeaturesPath string
	// FeaturesOptional downgrades a missing features file to a warning.
	FeaturesOptional bool
	Predict          predict.Options

	HistoryDriver string
	HistoryDSN    string

	Currency string
	Chart    chart.Options

	// Logger receives warnings. Defaults to stderr.
	Logger *log.Logger
}

// SelectedFeaturesFile is looked up next to the model when no features path
// is configured.
const SelectedFeaturesFile = "Selected_features.txt"

// OptionsFromConfig maps the global configuration onto Options.
func OptionsFromConfig(c *config.Global) Options {
	model := utils.ExpandHome(c.ModelPath)
	features, optional := utils.ExpandHome(c.FeaturesPath), false
	if features == "" {
		features, optional = filepath.Join(filepath.Dir(model), SelectedFeaturesFile), true
	}
	return Options{
		DatasetPath:      utils.ExpandHome(c.DatasetPath),
		Dataset:          sales.Options{Sheet: c.DatasetSheet, DateLayout: c.DateLayout},
		ModelPath:        model,
		FeaturesPath:     features,
		FeaturesOptional: optional,
		Predict: predict.Options{
			HTTPTimeout: c.HTTPTimeout(),
			RetryMax:    c.RetryMaxAttempts,
			BaseDelay:   c.RetryBaseDelay(),
			MaxDelay:    c.RetryMaxDelay(),
		},
		HistoryDriver: c.HistoryDriver,
		HistoryDSN:    utils.ExpandHome(c.HistoryDSN),
		Currency:      c.Currency,
		Chart: chart.Options{
			Width:  vg.Length(c.ChartWidthIn) * vg.Inch,
			Height: vg.Length(c.ChartHeightIn) * vg.Inch,
		},
	}
}

// App holds the process-wide dataset and predictor. Both are built once by
// Open and only read afterwards, so an App is safe for concurrent use.
type App struct {
	opt      Options
	logger   *log.Logger
	data     *sales.Dataset
	model    predict.Predictor
	features []string
	warnings []string
	history  *history.Recorder
}

// Open loads the dataset, the predictor artifact, the selected-features list
// and, when configured, the history store. Any failure is a *StartupError.
func Open(opt Options) (*App, error) {
	if opt.Logger == nil {
		opt.Logger = log.New(os.Stderr, "", 0)
	}
	if opt.Currency == "" {
		opt.Currency = "$"
	}
	ds, err := sales.Load(opt.DatasetPath, opt.Dataset)
	if err != nil {
		return nil, &StartupError{Component: "dataset", Path: opt.DatasetPath, Err: err}
	}
	model, err := predict.Load(opt.ModelPath, opt.Predict)
	if err != nil {
		return nil, &StartupError{Component: "model", Path: opt.ModelPath, Err: err}
	}
	return build(opt, ds, model)
}

// New builds an App from an already loaded dataset and predictor.
func New(opt Options, ds *sales.Dataset, model predict.Predictor) (*App, error) {
	if opt.Logger == nil {
		opt.Logger = log.New(os.Stderr, "", 0)
	}
	if opt.Currency == "" {
		opt.Currency = "$"
	}
	return build(opt, ds, model)
}

func build(opt Options, ds *sales.Dataset, model predict.Predictor) (*App, error) {
	a := &App{opt: opt, logger: opt.Logger, data: ds, model: model}
	a.warnings = append(a.warnings, ds.Warnings...)
	if opt.FeaturesPath != "" {
		feats, err := predict.LoadFeatures(opt.FeaturesPath)
		switch {
		case err != nil && opt.FeaturesOptional && errors.Is(err, fs.ErrNotExist):
			a.warnings = append(a.warnings, fmt.Sprintf("selected-features file %s not found; feature check skipped", opt.FeaturesPath))
		case err != nil:
			return nil, &StartupError{Component: "features", Path: opt.FeaturesPath, Err: err}
		default:
			a.features = feats
			a.warnings = append(a.warnings, predict.CheckFeatures(model.Info(), feats)...)
		}
	}
	if opt.HistoryDriver != "" {
		rec, err := history.Open(opt.HistoryDriver, opt.HistoryDSN)
		if err != nil {
			return nil, &StartupError{Component: "history", Err: err}
		}
		a.history = rec
	}
	for _, w := range a.warnings {
		a.warnf("%s", w)
	}
	return a, nil
}

// Close releases the history store.
func (a *App) Close() error {
	return a.history.Close()
}

func (a *App) warnf(format string, args ...any) {
	a.logger.Printf("⚠ Warning: "+format, args...)
}

// Dataset returns the loaded dataset.
func (a *App) Dataset() *sales.Dataset { return a.data }

// Model describes the loaded predictor.
func (a *App) Model() predict.ModelInfo { return a.model.Info() }

// SelectedFeatures returns the configured feature list, if any.
func (a *App) SelectedFeatures() []string { return a.features }

// Warnings returns the load-time warnings (dataset domain and feature checks).
func (a *App) Warnings() []string { return a.warnings }

// HistoryEnabled reports whether predictions are recorded.
func (a *App) HistoryEnabled() bool { return a.history != nil }

// Currency formats v with the configured symbol.
func (a *App) Currency(v float64) string { return utils.FormatCurrency(a.opt.Currency, v) }

// Selectors lists the values offered by the dashboard controls.
type Selectors struct {
	Markets      []string `json:"markets"`
	ProductTypes []string `json:"product_types"`
	AreaCodes    []int    `json:"area_codes"`
	States       []string `json:"states"`
	MarketSizes  []string `json:"market_sizes"`
	Products     []string `json:"products"`
	Fields       []string `json:"fields"`
	Measures     []string `json:"measures"`
	Start        string   `json:"start,omitempty"`
	End          string   `json:"end,omitempty"`
}

// Selectors returns the control domains and the dataset date bounds, which are
// the default date range.
func (a *App) Selectors() Selectors {
	s := Selectors{
		Markets:      a.data.Markets(),
		ProductTypes: a.data.ProductTypes(),
		AreaCodes:    sales.AreaCodes,
		States:       sales.States,
		Products:     sales.Products,
		Fields:       []string{},
		Measures:     []string{},
	}
	for _, m := range sales.MarketSizes {
		s.MarketSizes = append(s.MarketSizes, m.String())
	}
	for _, f := range sales.Fields() {
		s.Fields = append(s.Fields, string(f))
	}
	for _, m := range sales.Measures() {
		s.Measures = append(s.Measures, string(m))
	}
	if first, last, ok := a.data.DateBounds(); ok {
		s.Start = first.Format(sales.DateFormat)
		s.End = last.Format(sales.DateFormat)
	}
	return s
}

// DefaultRange is the full dataset date span.
func (a *App) DefaultRange() sales.DateRange {
	first, last, _ := a.data.DateBounds()
	return sales.DateRange{Start: first, End: last}
}

// RangeMessage is the confirmation shown for a well-formed range.
func RangeMessage(dr sales.DateRange) string {
	return fmt.Sprintf("Start date: %s End date: %s", dr.Start.Format(sales.DateFormat), dr.End.Format(sales.DateFormat))
}

// Query is one table or chart interaction.
type Query struct {
	sales.Criteria
	// Raw ignores the criteria and returns the whole dataset.
	Raw bool
}

// Table returns the rows for q. An inverted date range yields an empty
// result with RangeValid=false.
func (a *App) Table(q Query) sales.Result {
	if q.Raw {
		return sales.Result{Records: a.data.Records, RangeValid: true}
	}
	return sales.Filter(a.data, q.Criteria)
}

// TimeSeries writes the Profit/Sales chart for the filtered subset. It returns
// *sales.InvalidRangeError without plotting when the range is inverted and
// chart.ErrNoData when nothing matches.
func (a *App) TimeSeries(w io.Writer, c sales.Criteria) error {
	if err := c.Range.Validate(); err != nil {
		return err
	}
	res := sales.Filter(a.data, c)
	return chart.TimeSeries(w, res.Records, a.opt.Chart)
}

// Comparison writes the side-by-side Profit and Sales chart. The full dataset
// is used unless filtered is set.
func (a *App) Comparison(w io.Writer, c sales.Criteria, filtered bool) error {
	recs := a.data.Records
	if filtered {
		if err := c.Range.Validate(); err != nil {
			return err
		}
		recs = sales.Filter(a.data, c).Records
	}
	groups, err := sales.AggregateMeasures(recs, sales.FieldDate, sales.MeasureProfit, sales.MeasureSales)
	if err != nil {
		return err
	}
	return chart.Comparison(w, groups, a.opt.Chart, sales.MeasureProfit, sales.MeasureSales)
}

// Summary is a grouped aggregation with its extrema.
type Summary struct {
	GroupBy sales.Field     `json:"group_by"`
	Measure sales.Measure   `json:"measure"`
	Groups  []sales.Group   `json:"groups"`
	Extrema *sales.Extremum `json:"extrema,omitempty"`
	NoData  bool            `json:"no_data"`
}

// Summary aggregates the filtered subset. An empty subset is reported through
// NoData rather than an error.
func (a *App) Summary(c sales.Criteria, groupBy sales.Field, measure sales.Measure) (Summary, error) {
	if err := c.Range.Validate(); err != nil {
		return Summary{}, err
	}
	groups, err := sales.Aggregate(sales.Filter(a.data, c).Records, groupBy, measure)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{GroupBy: groupBy, Measure: measure, Groups: groups}
	ext, err := sales.Extrema(groups)
	switch {
	case errors.Is(err, sales.ErrNoData):
		s.NoData = true
	case err != nil:
		return Summary{}, err
	default:
		s.Extrema = &ext
	}
	return s, nil
}

// Describe returns descriptive statistics for q's rows.
func (a *App) Describe(q Query) (*analysis.Report, error) {
	if !q.Raw {
		if err := q.Range.Validate(); err != nil {
			return nil, err
		}
	}
	return analysis.Describe(a.data.Name, a.Table(q).Records, analysis.DefaultOptions()), nil
}

// Export writes q's rows plus one sheet per summary as an .xlsx workbook.
func (a *App) Export(w io.Writer, q Query, summaries ...Summary) error {
	if !q.Raw {
		if err := q.Range.Validate(); err != nil {
			return err
		}
	}
	sheets := make([]export.Summary, 0, len(summaries))
	for _, s := range summaries {
		sheets = append(sheets, export.Summary{GroupBy: s.GroupBy, Measure: s.Measure, Groups: s.Groups})
	}
	return export.Write(w, a.Table(q).Records, sheets...)
}

// Prediction is the outcome of one predict interaction.
type Prediction struct {
	ID      string          `json:"id,omitempty"`
	Model   string          `json:"model"`
	Request predict.Request `json:"request"`
	Value   float64         `json:"prediction"`
	Display string          `json:"display"`
	Warning string          `json:"warning,omitempty"`
}

// Predict validates in, builds the schema-ordered request and runs the model.
// Validation failures are *predict.ValidationError, missing fields
// *predict.SchemaMismatchError, model failures *predict.PredictionError or a
// classified transport error. A failure to record history only adds a warning.
func (a *App) Predict(ctx context.Context, in predict.Input) (Prediction, error) {
	if err := in.Validate(); err != nil {
		return Prediction{}, err
	}
	req, err := predict.BuildRequest(in)
	if err != nil {
		return Prediction{}, err
	}
	v, err := a.model.Predict(ctx, req)
	if err != nil {
		return Prediction{}, err
	}
	p := Prediction{
		Model:   a.model.Info().Name,
		Request: req,
		Value:   v,
		Display: a.Currency(v),
	}
	if a.history != nil {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		e, err := a.history.Record(rctx, history.NewEntry(p.Model, req, v))
		if err != nil {
			p.Warning = fmt.Sprintf("prediction not recorded: %v", err)
			a.warnf("%s", p.Warning)
		} else {
			p.ID = e.ID
		}
	}
	return p, nil
}

// History lists recorded predictions, newest first.
func (a *App) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.List(ctx, limit)
}

// ParseCriteria builds criteria from the textual form used by flags and query
// strings. Empty dates leave the bound open.
func ParseCriteria(market, productType, start, end string) (sales.Criteria, error) {
	c := sales.Criteria{Categories: sales.Categories{
		Market:      strings.TrimSpace(market),
		ProductType: strings.TrimSpace(productType),
	}}
	var err error
	if c.Range.Start, err = parseDay(start); err != nil {
		return c, fmt.Errorf("invalid start date: %w", err)
	}
	if c.Range.End, err = parseDay(end); err != nil {
		return c, fmt.Errorf("invalid end date: %w", err)
	}
	return c, nil
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(sales.DateFormat, s, time.UTC)
}
