package sales

import (
	"fmt"
	"time"
)

// Categories holds the categorical equality constraints. An empty field
// means "no constraint".
type Categories struct {
	Market      string `json:"market,omitempty"`
	ProductType string `json:"product_type,omitempty"`
}

// DateRange is an inclusive [Start, End] window over record dates. A zero
// bound is open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// Valid reports whether the range is well formed (Start not after End).
func (r DateRange) Valid() bool {
	if r.Start.IsZero() || r.End.IsZero() {
		return true
	}
	return !Day(r.Start).After(Day(r.End))
}

// Validate returns an *InvalidRangeError when Start is after End.
func (r DateRange) Validate() error {
	if r.Valid() {
		return nil
	}
	return &InvalidRangeError{Start: Day(r.Start), End: Day(r.End)}
}

// InvalidRangeError is the recoverable warning for a start date after the end date.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("End date must fall after start date (start %s, end %s)",
		e.Start.Format(DateFormat), e.End.Format(DateFormat))
}

// DateFormat is the display and query layout for calendar dates.
const DateFormat = "2006-01-02"

// Criteria is the per-interaction filter state.
type Criteria struct {
	Categories
	Range DateRange
}

// Result is the outcome of Filter.
type Result struct {
	Records []Record
	// RangeValid is false when the date range was inverted; Records is then empty.
	RangeValid bool
}

// FilterCategories keeps records matching every non-empty constraint.
// Input order is preserved and the input slice is not modified.
func FilterCategories(records []Record, c Categories) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if c.Market != "" && r.Market != c.Market {
			continue
		}
		if c.ProductType != "" && r.ProductType != c.ProductType {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterDates keeps records whose date falls in the inclusive range.
// An inverted range yields no records and valid=false; bounds are never swapped.
func FilterDates(records []Record, dr DateRange) (out []Record, valid bool) {
	if !dr.Valid() {
		return []Record{}, false
	}
	start, end := dr.Start, dr.End
	if !start.IsZero() {
		start = Day(start)
	}
	if !end.IsZero() {
		end = Day(end)
	}
	out = make([]Record, 0, len(records))
	for _, r := range records {
		d := Day(r.Date)
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, true
}

// Filter applies the categorical stage then the date stage.
func Filter(ds *Dataset, c Criteria) Result {
	if ds == nil {
		return Result{Records: []Record{}, RangeValid: c.Range.Valid()}
	}
	recs, ok := FilterDates(FilterCategories(ds.Records, c.Categories), c.Range)
	return Result{Records: recs, RangeValid: ok}
}
