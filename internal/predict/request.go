package predict

import (
	"fmt"
	"strconv"

	"github.com/KaramelBytes/profitscope/internal/sales"
)

// Input is the raw seven-field prediction form. A nil field is missing.
type Input struct {
	AreaCode      *int              `json:"area_code"`
	State         *string           `json:"state"`
	MarketSize    *sales.MarketSize `json:"market_size"`
	Product       *string           `json:"product"`
	TotalExpenses *float64          `json:"total_expenses"`
	Inventory     *float64          `json:"inventory"`
	Sales         *float64          `json:"sales"`
}

// NewInput returns an Input with every field set.
func NewInput(areaCode int, state string, size sales.MarketSize, product string, totalExpenses, inventory, salesValue float64) Input {
	return Input{
		AreaCode:      &areaCode,
		State:         &state,
		MarketSize:    &size,
		Product:       &product,
		TotalExpenses: &totalExpenses,
		Inventory:     &inventory,
		Sales:         &salesValue,
	}
}

// Validate checks each present field against its closed domain or numeric range.
// Missing fields are left to BuildRequest.
func (in Input) Validate() error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	if in.AreaCode != nil && !sales.KnownAreaCode(*in.AreaCode) {
		add(sales.ColAreaCode, "%d is not a known area code", *in.AreaCode)
	}
	if in.State != nil && !sales.KnownState(*in.State) {
		add(sales.ColState, "%q is not a known state", *in.State)
	}
	if in.MarketSize != nil && in.MarketSize.String() == "" {
		add(sales.ColMarketSize, "must be %q or %q", sales.SmallMarket, sales.MajorMarket)
	}
	if in.Product != nil && !sales.KnownProduct(*in.Product) {
		add(sales.ColProduct, "%q is not a known product", *in.Product)
	}
	checkRange := func(field string, v *float64, hi float64) {
		if v != nil && (*v < 0 || *v > hi) {
			add(field, "%g is outside [0, %g]", *v, hi)
		}
	}
	checkRange(sales.ColTotalExpenses, in.TotalExpenses, sales.MaxTotalExpenses)
	checkRange(sales.ColInventory, in.Inventory, sales.MaxInventory)
	checkRange(sales.ColSales, in.Sales, sales.MaxSales)
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Request is one record in the predictor's input schema. Field order matches Columns.
// It has no Profit field.
type Request struct {
	AreaCode      int     `json:"Area Code"`
	State         string  `json:"State"`
	MarketSize    string  `json:"Market Size"`
	Product       string  `json:"Product"`
	TotalExpenses float64 `json:"Total Expenses"`
	Inventory     float64 `json:"Inventory"`
	Sales         float64 `json:"Sales"`
}

var columns = []string{
	sales.ColAreaCode, sales.ColState, sales.ColMarketSize, sales.ColProduct,
	sales.ColTotalExpenses, sales.ColInventory, sales.ColSales,
}

// Columns returns the predictor input column names in schema order.
func Columns() []string { return append([]string(nil), columns...) }

// BuildRequest assembles the schema-ordered Request. It performs no domain
// validation; a missing field yields *SchemaMismatchError.
func BuildRequest(in Input) (Request, error) {
	var missing []string
	if in.AreaCode == nil {
		missing = append(missing, sales.ColAreaCode)
	}
	if in.State == nil {
		missing = append(missing, sales.ColState)
	}
	if in.MarketSize == nil {
		missing = append(missing, sales.ColMarketSize)
	}
	if in.Product == nil {
		missing = append(missing, sales.ColProduct)
	}
	if in.TotalExpenses == nil {
		missing = append(missing, sales.ColTotalExpenses)
	}
	if in.Inventory == nil {
		missing = append(missing, sales.ColInventory)
	}
	if in.Sales == nil {
		missing = append(missing, sales.ColSales)
	}
	if len(missing) > 0 {
		return Request{}, &SchemaMismatchError{Missing: missing}
	}
	return Request{
		AreaCode:      *in.AreaCode,
		State:         *in.State,
		MarketSize:    in.MarketSize.String(),
		Product:       *in.Product,
		TotalExpenses: *in.TotalExpenses,
		Inventory:     *in.Inventory,
		Sales:         *in.Sales,
	}, nil
}

// Value returns the field for a schema column name.
func (r Request) Value(column string) (any, bool) {
	switch column {
	case sales.ColAreaCode:
		return r.AreaCode, true
	case sales.ColState:
		return r.State, true
	case sales.ColMarketSize:
		return r.MarketSize, true
	case sales.ColProduct:
		return r.Product, true
	case sales.ColTotalExpenses:
		return r.TotalExpenses, true
	case sales.ColInventory:
		return r.Inventory, true
	case sales.ColSales:
		return r.Sales, true
	}
	return nil, false
}

// Map returns the request keyed by column name.
func (r Request) Map() map[string]any {
	m := make(map[string]any, len(columns))
	for _, c := range columns {
		m[c], _ = r.Value(c)
	}
	return m
}

// text renders a field value for categorical matching.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// number renders a field value for numeric splits.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
