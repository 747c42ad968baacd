// Package catalog loads and queries the static endpoint catalog: the
// ordered list of categories and endpoint descriptors the harness tests.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema maps payload field names to semantic type tags
// (string/number/boolean/array/object/file).
type Schema map[string]string

// Endpoint describes one remote operation to test. Descriptors are
// immutable once loaded.
type Endpoint struct {
	Name        string `yaml:"name"`
	Path        string `yaml:"path"`
	Method      string `yaml:"method"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`

	RequiresAuth  bool              `yaml:"requiresAuth"`
	PayloadSchema Schema            `yaml:"payloadSchema"`
	QuerySchema   Schema            `yaml:"querySchema"`
	Headers       map[string]string `yaml:"headers"`

	// Expected response shape, compared structurally against the actual
	// response body
	Expected any `yaml:"expectedResponse"`
}

// Category groups endpoints under a name, preserving catalog order
type Category struct {
	Name      string     `yaml:"name"`
	Endpoints []Endpoint `yaml:"endpoints"`
}

// Catalog is the full endpoint catalog
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

// Load reads and validates a catalog from a YAML file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog from YAML bytes
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for ci := range c.Categories {
		cat := &c.Categories[ci]
		for ei := range cat.Endpoints {
			ep := &cat.Endpoints[ei]
			if ep.Name == "" {
				return nil, fmt.Errorf("category %q: endpoint %d has no name", cat.Name, ei)
			}
			if ep.Path == "" {
				return nil, fmt.Errorf("endpoint %q has no path", ep.Name)
			}
			if ep.Method == "" {
				ep.Method = "GET"
			}
			ep.Method = strings.ToUpper(ep.Method)
			if ep.Category == "" {
				ep.Category = cat.Name
			}
		}
	}

	return &c, nil
}

// Endpoints returns all endpoints flattened in catalog order
func (c *Catalog) Endpoints() []Endpoint {
	var all []Endpoint
	for _, cat := range c.Categories {
		all = append(all, cat.Endpoints...)
	}
	return all
}

// Filter narrows endpoints by a name/path substring and by category names
func Filter(endpoints []Endpoint, filterStr string, categories []string) []Endpoint {
	var filtered []Endpoint

	for _, ep := range endpoints {
		if filterStr != "" {
			if !strings.Contains(ep.Path, filterStr) && !strings.Contains(ep.Name, filterStr) {
				continue
			}
		}

		if len(categories) > 0 {
			found := false
			for _, cat := range categories {
				if strings.EqualFold(ep.Category, cat) {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}

		filtered = append(filtered, ep)
	}

	return filtered
}
