package predict

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/profitscope/internal/sales"
)

func scenarioInput() Input {
	return NewInput(203, "Connecticut", sales.SmallMarket, "Columbian", 50, 500, 300)
}

func TestBuildRequestScenario(t *testing.T) {
	req, err := BuildRequest(scenarioInput())
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	want := Request{
		AreaCode: 203, State: "Connecticut", MarketSize: "Small Market", Product: "Columbian",
		TotalExpenses: 50, Inventory: 500, Sales: 300,
	}
	if req != want {
		t.Fatalf("got %+v want %+v", req, want)
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != 7 {
		t.Errorf("request has %d fields: %s", len(m), b)
	}
	if _, ok := m["Profit"]; ok {
		t.Error("request must not contain Profit")
	}
	for _, c := range Columns() {
		if _, ok := m[c]; !ok {
			t.Errorf("missing column %q in %s", c, b)
		}
	}
	// keys are emitted in schema order
	if !strings.HasPrefix(string(b), `{"Area Code":203,"State":"Connecticut","Market Size":"Small Market","Product":"Columbian"`) {
		t.Errorf("unexpected field order: %s", b)
	}
}

func TestBuildRequestDeterministic(t *testing.T) {
	a, _ := BuildRequest(scenarioInput())
	b, _ := BuildRequest(scenarioInput())
	if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(a.Map(), b.Map()) {
		t.Fatalf("not deterministic: %+v vs %+v", a, b)
	}
}

func TestBuildRequestMissingFields(t *testing.T) {
	in := scenarioInput()
	in.State = nil
	in.Sales = nil
	_, err := BuildRequest(in)
	var sm *SchemaMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("want SchemaMismatchError, got %v", err)
	}
	if !reflect.DeepEqual(sm.Missing, []string{"State", "Sales"}) {
		t.Errorf("missing=%v", sm.Missing)
	}
}

func TestInputValidate(t *testing.T) {
	if err := scenarioInput().Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	cases := []struct {
		name  string
		mut   func(*Input)
		field string
	}{
		{"area code", func(in *Input) { v := 100; in.AreaCode = &v }, sales.ColAreaCode},
		{"state", func(in *Input) { v := "Atlantis"; in.State = &v }, sales.ColState},
		{"product", func(in *Input) { v := "Cocoa"; in.Product = &v }, sales.ColProduct},
		{"market size", func(in *Input) { v := sales.MarketSize(9); in.MarketSize = &v }, sales.ColMarketSize},
		{"expenses high", func(in *Input) { v := 1000.01; in.TotalExpenses = &v }, sales.ColTotalExpenses},
		{"inventory negative", func(in *Input) { v := -1.0; in.Inventory = &v }, sales.ColInventory},
		{"sales high", func(in *Input) { v := 1001.0; in.Sales = &v }, sales.ColSales},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := scenarioInput()
			c.mut(&in)
			var ve *ValidationError
			if err := in.Validate(); !errors.As(err, &ve) {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if len(ve.Fields) != 1 || ve.Fields[0].Field != c.field {
				t.Errorf("fields=%+v", ve.Fields)
			}
		})
	}
	edge := NewInput(985, "Nevada", sales.MajorMarket, "Regular Espresso", 1000, 10000, 0)
	if err := edge.Validate(); err != nil {
		t.Errorf("range bounds are inclusive: %v", err)
	}
}

func TestInputJSON(t *testing.T) {
	var in Input
	body := `{"area_code":203,"state":"Connecticut","market_size":"Small Market","product":"Columbian","total_expenses":50,"inventory":500}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatal(err)
	}
	if in.MarketSize == nil || *in.MarketSize != sales.SmallMarket {
		t.Fatalf("market size=%v", in.MarketSize)
	}
	if _, err := BuildRequest(in); err == nil {
		t.Fatal("missing sales should fail")
	}
}
