package predict

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/profitscope/internal/sales"
)

const ensembleJSON = `{
  "kind": "tree_ensemble",
  "name": "gbr",
  "base_score": 100,
  "inputs": ["Area Code", "State", "Market Size", "Product", "Total Expenses", "Inventory", "Sales"],
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

const ensembleYAML = `kind: tree_ensemble
name: gbr
base_score: 100
inputs: [Area Code, State, Market Size, Product, Total Expenses, Inventory, Sales]
categorical:
  State: [Connecticut, Washington]
  Market Size: [Small Market, Major Market]
  Product: [Columbian, Green Tea]
trees:
  - nodes:
      - {feature: Sales, threshold: 250, yes: 1, no: 2}
      - {leaf: 10}
      - {leaf: 50}
  - nodes:
      - {feature: Market Size_Small Market, threshold: 0.5, yes: 1, no: 2}
      - {leaf: -5}
      - {leaf: 20}
`

const ensembleTOML = `kind = "tree_ensemble"
name = "gbr"
base_score = 100.0
inputs = ["Area Code", "State", "Market Size", "Product", "Total Expenses", "Inventory", "Sales"]

[categorical]
State = ["Connecticut", "Washington"]
"Market Size" = ["Small Market", "Major Market"]
Product = ["Columbian", "Green Tea"]

[[trees]]
[[trees.nodes]]
feature = "Sales"
threshold = 250.0
yes = 1
no = 2
[[trees.nodes]]
leaf = 10.0
[[trees.nodes]]
leaf = 50.0

[[trees]]
[[trees.nodes]]
feature = "Market Size_Small Market"
threshold = 0.5
yes = 1
no = 2
[[trees.nodes]]
leaf = -5.0
[[trees.nodes]]
leaf = 20.0
`

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestEnsembleFormats(t *testing.T) {
	for _, tc := range []struct{ name, content string }{
		{"model.json", ensembleJSON},
		{"model.yaml", ensembleYAML},
		{"model.toml", ensembleTOML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Load(writeArtifact(t, tc.name, tc.content), Options{})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			req, _ := BuildRequest(scenarioInput())
			got, err := p.Predict(context.Background(), req)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if got != 170 {
				t.Errorf("prediction=%v want 170", got)
			}
			info := p.Info()
			if info.Kind != KindTreeEnsemble || info.Trees != 2 || info.Name != "gbr" {
				t.Errorf("info=%+v", info)
			}
			if len(info.Features) != 10 {
				t.Errorf("encoded features=%v", info.Features)
			}
		})
	}
}

func TestEnsembleBranches(t *testing.T) {
	p, err := Load(writeArtifact(t, "m.json", ensembleJSON), Options{})
	if err != nil {
		t.Fatal(err)
	}
	in := scenarioInput()
	low := 100.0
	in.Sales = &low
	req, _ := BuildRequest(in)
	a, _ := p.Predict(context.Background(), req)
	if a != 130 {
		t.Errorf("low sales small market=%v want 130", a)
	}
	in = scenarioInput()
	major := sales.MajorMarket
	in.MarketSize = &major
	req, _ = BuildRequest(in)
	b, _ := p.Predict(context.Background(), req)
	if b != 145 {
		t.Errorf("major market=%v want 145", b)
	}
}

func TestEnsembleUnknownLevel(t *testing.T) {
	p, err := Load(writeArtifact(t, "m.json", ensembleJSON), Options{})
	if err != nil {
		t.Fatal(err)
	}
	in := scenarioInput()
	mint := "Mint"
	in.Product = &mint
	req, _ := BuildRequest(in)
	_, err = p.Predict(context.Background(), req)
	var pe *PredictionError
	if !errors.As(err, &pe) || !strings.Contains(pe.Error(), `unknown Product level "Mint"`) {
		t.Fatalf("want PredictionError for unknown level, got %v", err)
	}
}

func TestEnsembleInputMismatch(t *testing.T) {
	content := strings.Replace(ensembleJSON, `"Sales"]`, `"Sales", "Weather"]`, 1)
	p, err := Load(writeArtifact(t, "m.json", content), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	req, _ := BuildRequest(scenarioInput())
	_, err = p.Predict(context.Background(), req)
	var pe *PredictionError
	var sm *SchemaMismatchError
	if !errors.As(err, &pe) || !errors.As(err, &sm) || sm.Missing[0] != "Weather" {
		t.Fatalf("want PredictionError wrapping SchemaMismatchError, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing":       filepath.Join(dir, "absent.json"),
		"bad json":      writeArtifact(t, "bad.json", "{"),
		"no kind":       writeArtifact(t, "nokind.json", `{"name":"x"}`),
		"unknown kind":  writeArtifact(t, "pickle.json", `{"kind":"pickle"}`),
		"unknown field": writeArtifact(t, "extra.json", `{"kind":"tree_ensemble","depth":3}`),
		"extension":     writeArtifact(t, "model.pkl", "x"),
		"no trees":      writeArtifact(t, "empty.json", `{"kind":"tree_ensemble"}`),
		"bad child":     writeArtifact(t, "child.json", strings.Replace(ensembleJSON, `"yes": 1, "no": 2}`, `"yes": 0, "no": 2}`, 1)),
		"bad feature":   writeArtifact(t, "feat.json", strings.Replace(ensembleJSON, `"feature": "Sales"`, `"feature": "Weather"`, 1)),
		"remote no url": writeArtifact(t, "remote.yaml", "kind: remote\n"),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(path, Options{})
			var le *ArtifactLoadError
			if !errors.As(err, &le) {
				t.Fatalf("want ArtifactLoadError, got %v", err)
			}
		})
	}
}
