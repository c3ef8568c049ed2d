package pkgmap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capsentry/capsentry/fsio"
)

// manifest is the subset of package.json the mapper reads.
type manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func readManifest(ctx context.Context, reader fsio.Reader, path string) (*manifest, error) {
	data, err := reader.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("pkgmap: read manifest %s: %w", path, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("pkgmap: parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// topLevelDependencyNames returns the root manifest's declared dependency
// names (production and dev), per spec.md §4.7's root-edge rule.
func (m *manifest) topLevelDependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies)+len(m.DevDependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	for name := range m.DevDependencies {
		names = append(names, name)
	}
	return names
}
