package species

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultCatalogue []byte

type catalogueFile struct {
	Species []struct {
		Name     string `yaml:"name"`
		ImageURL string `yaml:"imageUrl"`
	} `yaml:"species"`
}

// ParseCatalogue decodes a YAML species list. Names must be unique and non-empty.
func ParseCatalogue(data []byte) ([]*Species, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse species catalogue: %w", err)
	}

	seen := make(map[string]bool, len(file.Species))
	entries := make([]*Species, 0, len(file.Species))
	for i, raw := range file.Species {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			return nil, fmt.Errorf("species catalogue entry %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("species catalogue lists %q twice", name)
		}
		seen[name] = true

		sp := &Species{Name: name}
		if raw.ImageURL != "" {
			url := raw.ImageURL
			sp.ImageURL = &url
		}
		entries = append(entries, sp)
	}
	return entries, nil
}

// DefaultCatalogue returns the embedded default species
func DefaultCatalogue() ([]*Species, error) {
	return ParseCatalogue(defaultCatalogue)
}

// Seed inserts the entries when the store is empty and reports how many
// were inserted. A non-empty store is left untouched.
func Seed(ctx context.Context, store Store, entries []*Species) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 || len(entries) == 0 {
		return 0, nil
	}

	if err := store.Insert(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
