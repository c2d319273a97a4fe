package predict

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFeatures reads the selected-features list. .json, .yaml and .yml files
// hold a list of strings; anything else is one name per line with '#' comments.
func LoadFeatures(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read features file: %w", err)
	}
	var names []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("decode features %s: %w", filepath.Base(path), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("decode features %s: %w", filepath.Base(path), err)
		}
	default:
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			names = append(names, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("scan features: %w", err)
		}
	}
	out := names[:0]
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// CheckFeatures compares the selected feature names against what the model
// consumes. A name matches when it is an input column or an encoded feature.
// The result is informational.
func CheckFeatures(info ModelInfo, selected []string) []string {
	if len(selected) == 0 {
		return nil
	}
	known := make(map[string]bool, len(info.Inputs)+len(info.Features))
	for _, n := range info.Inputs {
		known[n] = true
	}
	for _, n := range info.Features {
		known[n] = true
	}
	sel := make(map[string]bool, len(selected))
	var warnings []string
	for _, n := range selected {
		sel[n] = true
		if !known[n] {
			warnings = append(warnings, fmt.Sprintf("selected feature %q is not used by model %s", n, info.Name))
		}
	}
	for _, in := range info.Inputs {
		if sel[in] {
			continue
		}
		covered := false
		prefix := in + "_"
		for n := range sel {
			if strings.HasPrefix(n, prefix) {
				covered = true
				break
			}
		}
		if !covered {
			warnings = append(warnings, fmt.Sprintf("model input %q is not in the selected features", in))
		}
	}
	return warnings
}
