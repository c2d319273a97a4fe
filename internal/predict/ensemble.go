package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Tree is one regression tree stored as a flat node array; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes" yaml:"nodes" toml:"nodes"`
}

// Node is a split or a leaf. A node with Leaf set is terminal. Split nodes send
// values below Threshold to Yes, others to No, and missing values to Missing
// (Yes when unset). Children always have a larger index than their parent.
type Node struct {
	Feature   string   `json:"feature,omitempty" yaml:"feature,omitempty" toml:"feature,omitempty"`
	Threshold float64  `json:"threshold,omitempty" yaml:"threshold,omitempty" toml:"threshold,omitempty"`
	Yes       int      `json:"yes,omitempty" yaml:"yes,omitempty" toml:"yes,omitempty"`
	No        int      `json:"no,omitempty" yaml:"no,omitempty" toml:"no,omitempty"`
	Missing   *int     `json:"missing,omitempty" yaml:"missing,omitempty" toml:"missing,omitempty"`
	Leaf      *float64 `json:"leaf,omitempty" yaml:"leaf,omitempty" toml:"leaf,omitempty"`
}

type ensemble struct {
	info        ModelInfo
	baseScore   float64
	inputs      []string
	categorical map[string]map[string]bool
	levels      map[string][]string
	trees       []Tree
}

func newEnsemble(a *Artifact, path string) (*ensemble, error) {
	if len(a.Trees) == 0 {
		return nil, errors.New("tree ensemble has no trees")
	}
	e := &ensemble{
		baseScore:   a.BaseScore,
		inputs:      append([]string(nil), a.Inputs...),
		categorical: make(map[string]map[string]bool, len(a.Categorical)),
		levels:      make(map[string][]string, len(a.Categorical)),
		trees:       a.Trees,
	}
	inputSet := make(map[string]bool, len(a.Inputs))
	for _, in := range a.Inputs {
		inputSet[in] = true
	}
	for col, lv := range a.Categorical {
		if !inputSet[col] {
			return nil, fmt.Errorf("categorical column %q is not an input", col)
		}
		if len(lv) == 0 {
			return nil, fmt.Errorf("categorical column %q has no levels", col)
		}
		set := make(map[string]bool, len(lv))
		for _, l := range lv {
			set[l] = true
		}
		e.categorical[col] = set
		e.levels[col] = append([]string(nil), lv...)
	}
	encoded := e.encodedFeatures()
	known := make(map[string]bool, len(encoded))
	for _, f := range encoded {
		known[f] = true
	}
	for _, f := range a.Features {
		if !known[f] {
			return nil, fmt.Errorf("feature %q is not produced by the inputs", f)
		}
	}
	for ti, t := range a.Trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf != nil {
				continue
			}
			if !known[n.Feature] {
				return nil, fmt.Errorf("tree %d node %d: unknown feature %q", ti, ni, n.Feature)
			}
			children := []int{n.Yes, n.No}
			if n.Missing != nil {
				children = append(children, *n.Missing)
			}
			for _, c := range children {
				if c <= ni || c >= len(t.Nodes) {
					return nil, fmt.Errorf("tree %d node %d: child index %d out of order", ti, ni, c)
				}
			}
		}
	}
	features := a.Features
	if len(features) == 0 {
		features = encoded
	}
	e.info = ModelInfo{
		Name:     a.Name,
		Kind:     KindTreeEnsemble,
		Path:     path,
		Inputs:   e.inputs,
		Features: features,
		Trees:    len(a.Trees),
	}
	return e, nil
}

// encodedFeatures lists numeric inputs by name and categorical inputs as
// one-hot "Column_Level" features, in input order.
func (e *ensemble) encodedFeatures() []string {
	var out []string
	for _, in := range e.inputs {
		if lv, ok := e.levels[in]; ok {
			for _, l := range lv {
				out = append(out, in+"_"+l)
			}
			continue
		}
		out = append(out, in)
	}
	return out
}

func (e *ensemble) Info() ModelInfo { return e.info }

func (e *ensemble) Predict(ctx context.Context, req Request) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkInputs(e.info.Name, e.inputs); err != nil {
		return 0, err
	}
	x, err := e.encode(req)
	if err != nil {
		return 0, err
	}
	sum := e.baseScore
	for _, t := range e.trees {
		sum += t.eval(x)
	}
	return sum, nil
}

func (e *ensemble) encode(req Request) (map[string]float64, error) {
	x := make(map[string]float64)
	for _, in := range e.inputs {
		v, _ := req.Value(in)
		if set, ok := e.categorical[in]; ok {
			level := text(v)
			if !set[level] {
				return nil, &PredictionError{Model: e.info.Name, Reason: fmt.Sprintf("unknown %s level %q", in, level)}
			}
			for _, l := range e.levels[in] {
				x[in+"_"+l] = 0
			}
			x[in+"_"+level] = 1
			continue
		}
		f, ok := number(v)
		if !ok {
			return nil, &PredictionError{Model: e.info.Name, Reason: fmt.Sprintf("%s value %q is not numeric", in, text(v))}
		}
		x[in] = f
	}
	return x, nil
}

func (t Tree) eval(x map[string]float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf != nil {
			return *n.Leaf
		}
		v, ok := x[n.Feature]
		switch {
		case !ok || math.IsNaN(v):
			if n.Missing != nil {
				i = *n.Missing
			} else {
				i = n.Yes
			}
		case v < n.Threshold:
			i = n.Yes
		default:
			i = n.No
		}
	}
}
