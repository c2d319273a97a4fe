package sales

import (
	"fmt"
	"strings"
	"time"
)

// MarketSize is the closed set of store market sizes.
type MarketSize int

const (
	SmallMarket MarketSize = iota + 1
	MajorMarket
)

func (m MarketSize) String() string {
	switch m {
	case SmallMarket:
		return "Small Market"
	case MajorMarket:
		return "Major Market"
	default:
		return ""
	}
}

// ParseMarketSize accepts the display form and common spellings
// ("Small Market", "Small_Market", "smallmarket").
func ParseMarketSize(s string) (MarketSize, error) {
	switch normalizeKey(s) {
	case "smallmarket", "small":
		return SmallMarket, nil
	case "majormarket", "major":
		return MajorMarket, nil
	}
	return 0, fmt.Errorf("unknown market size %q (use %q or %q)", s, SmallMarket, MajorMarket)
}

func (m MarketSize) MarshalText() ([]byte, error) {
	if m.String() == "" {
		return nil, fmt.Errorf("invalid market size %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *MarketSize) UnmarshalText(b []byte) error {
	v, err := ParseMarketSize(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Record is one historical row of the dataset.
type Record struct {
	AreaCode      int        `json:"area_code"`
	State         string     `json:"state"`
	MarketSize    MarketSize `json:"market_size"`
	Product       string     `json:"product"`
	TotalExpenses float64    `json:"total_expenses"`
	Inventory     float64    `json:"inventory"`
	Sales         float64    `json:"sales"`
	Profit        float64    `json:"profit"`
	Market        string     `json:"market"`
	ProductType   string     `json:"product_type"`
	Date          time.Time  `json:"date"`
}

// Dataset is the ordered set of records loaded once at startup.
// It is read-only after Load returns.
type Dataset struct {
	Name     string
	Records  []Record
	Warnings []string
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// DateBounds returns the earliest and latest record dates.
// ok is false for an empty dataset.
func (d *Dataset) DateBounds() (first, last time.Time, ok bool) {
	if d.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = d.Records[0].Date, d.Records[0].Date
	for _, r := range d.Records[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, true
}

// Markets returns the distinct Market values in first-occurrence order.
func (d *Dataset) Markets() []string {
	return d.unique(func(r Record) string { return r.Market })
}

// ProductTypes returns the distinct Product Type values in first-occurrence order.
func (d *Dataset) ProductTypes() []string {
	return d.unique(func(r Record) string { return r.ProductType })
}

func (d *Dataset) unique(get func(Record) string) []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		v := get(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// normalizeKey lowercases and drops spaces, underscores, dashes and a byte
// order mark so that "Market Size", "Market_size" and "market-size" compare equal.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-', '\t', '\ufeff':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
