// Package collection resolves named collections to their root paths.
// The registry is a read-only lookup table loaded from a YAML file and
// injected at call time; it is never ambient global state.
package collection

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	oberrors "github.com/obsidx/obsidx/internal/errors"
)

// RegistryFileName is the collections file under the user's obsidx dir.
const RegistryFileName = "collections.yaml"

// Registry maps collection names to vault root paths.
type Registry struct {
	roots map[string]string
}

// registryFile is the on-disk YAML shape.
type registryFile struct {
	Collections map[string]string `yaml:"collections"`
}

// DefaultRegistryPath returns the user-level registry location.
func DefaultRegistryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "obsidx", RegistryFileName)
	}
	return filepath.Join(home, ".obsidx", RegistryFileName)
}

// LoadRegistry reads the registry file. A missing file yields an empty
// registry so unnamed-vault workflows need no setup.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Registry{roots: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if file.Collections == nil {
		file.Collections = map[string]string{}
	}
	return &Registry{roots: file.Collections}, nil
}

// Resolve returns the root path for a named collection. The empty name
// means "use the literal vault argument, unscoped", signalled by
// returning fallback with collection name "default".
func (r *Registry) Resolve(name, fallback string) (root, collection string, err error) {
	if name == "" {
		return fallback, "default", nil
	}
	path, ok := r.roots[name]
	if !ok {
		return "", "", oberrors.UnknownCollection(name)
	}
	return path, name, nil
}

// Names lists registered collection names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.roots))
	for name := range r.roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Root returns the registered root for name, or empty when absent.
func (r *Registry) Root(name string) string {
	return r.roots[name]
}

// SaveRegistry writes a registry file with the given mapping. Used by
// the init command; the core only ever reads.
func SaveRegistry(path string, roots map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	data, err := yaml.Marshal(registryFile{Collections: roots})
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", path, err)
	}
	return nil
}

// All returns a copy of the name->root mapping.
func (r *Registry) All() map[string]string {
	out := make(map[string]string, len(r.roots))
	for k, v := range r.roots {
		out[k] = v
	}
	return out
}
