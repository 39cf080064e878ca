package resolve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Namespace Loading
// =============================================================================

// Namespace is the flat variable space applications are resolved from.
// Keys are "{app}_{suffix}" strings, e.g. "web_image".
type Namespace map[string]any

// LoadNamespace reads a YAML document of flat "{app}_{suffix}" keys.
func LoadNamespace(path string) (Namespace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read namespace %s: %w", path, err)
	}
	return ParseNamespace(data)
}

// ParseNamespace parses a YAML mapping into a Namespace.
func ParseNamespace(data []byte) (Namespace, error) {
	ns := Namespace{}
	if err := yaml.Unmarshal(data, &ns); err != nil {
		return nil, fmt.Errorf("parse namespace: %w", err)
	}
	return ns, nil
}

// Merge overlays other on top of the namespace, returning a new Namespace.
// Later values win, matching inventory precedence.
func (ns Namespace) Merge(other Namespace) Namespace {
	merged := make(Namespace, len(ns)+len(other))
	for k, v := range ns {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
