package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Predictor is a loaded model. Implementations are immutable after Load and
// safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, req Request) (float64, error)
	Info() ModelInfo
}

// ModelInfo describes a loaded artifact.
type ModelInfo struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Path     string   `json:"path"`
	Inputs   []string `json:"inputs"`
	Features []string `json:"features,omitempty"`
	Trees    int      `json:"trees,omitempty"`
	Endpoint string   `json:"endpoint,omitempty"`
}

// Options carries knobs for backends that talk to a model server.
type Options struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Artifact is the serialized predictor as stored on disk.
type Artifact struct {
	Kind   string   `json:"kind" yaml:"kind" toml:"kind"`
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Inputs []string `json:"inputs" yaml:"inputs" toml:"inputs"`

	// tree_ensemble
	BaseScore   float64             `json:"base_score" yaml:"base_score" toml:"base_score"`
	Categorical map[string][]string `json:"categorical,omitempty" yaml:"categorical,omitempty" toml:"categorical,omitempty"`
	Features    []string            `json:"features,omitempty" yaml:"features,omitempty" toml:"features,omitempty"`
	Trees       []Tree              `json:"trees,omitempty" yaml:"trees,omitempty" toml:"trees,omitempty"`

	// remote
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
}

// Load reads the artifact at path once and builds its Predictor.
func Load(path string, opt Options) (Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	a, err := decodeArtifact(data, filepath.Ext(path))
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	f, ok := lookupBackend(a.Kind)
	if !ok {
		return nil, &ArtifactLoadError{Path: path, Err: fmt.Errorf("unknown artifact kind %q (known: %s)", a.Kind, strings.Join(Backends(), ", "))}
	}
	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(a.Inputs) == 0 {
		a.Inputs = Columns()
	}
	p, err := f(a, path, opt)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return p, nil
}

func decodeArtifact(data []byte, ext string) (*Artifact, error) {
	var a Artifact
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&a); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported artifact format %q (use .json, .yaml or .toml)", ext)
	}
	if a.Kind == "" {
		return nil, errors.New("artifact has no kind")
	}
	return &a, nil
}

// checkInputs reports a PredictionError when the artifact expects columns
// the request schema does not carry.
func checkInputs(model string, inputs []string) error {
	var unknown []string
	for _, in := range inputs {
		if _, ok := (Request{}).Value(in); !ok {
			unknown = append(unknown, in)
		}
	}
	if len(unknown) > 0 {
		return &PredictionError{Model: model, Err: &SchemaMismatchError{Missing: unknown}}
	}
	return nil
}
