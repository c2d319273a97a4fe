package predict

import (
	"sort"
	"time"
)

// Artifact kinds.
const (
	KindTreeEnsemble = "tree_ensemble"
	KindRemote       = "remote"
)

// BackendFactory builds a Predictor from a decoded artifact.
type BackendFactory func(a *Artifact, path string, opt Options) (Predictor, error)

var registry = map[string]BackendFactory{}

// RegisterBackend registers an artifact kind with its factory.
func RegisterBackend(kind string, f BackendFactory) { registry[kind] = f }

func lookupBackend(kind string) (BackendFactory, bool) {
	f, ok := registry[kind]
	return f, ok
}

// Backends lists the registered artifact kinds.
func Backends() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// init registers built-in backends.
func init() {
	RegisterBackend(KindTreeEnsemble, func(a *Artifact, path string, _ Options) (Predictor, error) {
		return newEnsemble(a, path)
	})
	RegisterBackend(KindRemote, func(a *Artifact, path string, o Options) (Predictor, error) {
		if o.HTTPTimeout <= 0 {
			o.HTTPTimeout = 30 * time.Second
		}
		if o.RetryMax <= 0 {
			o.RetryMax = 3
		}
		if o.BaseDelay <= 0 {
			o.BaseDelay = 500 * time.Millisecond
		}
		if o.MaxDelay <= 0 {
			o.MaxDelay = 4 * time.Second
		}
		return newRemote(a, path, o)
	})
}
