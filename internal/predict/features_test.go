package predict

import (
	"reflect"
	"strings"
	"testing"
)

func TestLoadFeaturesFormats(t *testing.T) {
	want := []string{"Area Code", "State", "Sales"}
	cases := map[string]string{
		"features.txt":  "# selected\nArea Code\n\nState\nSales\nState\n",
		"features.json": `["Area Code", "State", "Sales"]`,
		"features.yaml": "- Area Code\n- State\n- Sales\n",
	}
	for name, content := range cases {
		got, err := LoadFeatures(writeArtifact(t, name, content))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: got %v want %v", name, got, want)
		}
	}
	if _, err := LoadFeatures(writeArtifact(t, "bad.json", "{")); err == nil {
		t.Error("expected decode error")
	}
}

func TestCheckFeatures(t *testing.T) {
	info := ModelInfo{
		Name:     "gbr",
		Inputs:   []string{"State", "Sales", "Inventory"},
		Features: []string{"State_Texas", "State_Ohio", "Sales", "Inventory"},
	}
	if w := CheckFeatures(info, []string{"State_Texas", "Sales", "Inventory"}); len(w) != 0 {
		t.Errorf("consistent list produced warnings: %v", w)
	}
	w := CheckFeatures(info, []string{"Sales", "Profit"})
	if len(w) != 3 {
		t.Fatalf("warnings=%v", w)
	}
	joined := strings.Join(w, "\n")
	for _, s := range []string{`"Profit" is not used`, `input "State"`, `input "Inventory"`} {
		if !strings.Contains(joined, s) {
			t.Errorf("missing %q in %s", s, joined)
		}
	}
	if CheckFeatures(info, nil) != nil {
		t.Error("empty selection should not warn")
	}
}
