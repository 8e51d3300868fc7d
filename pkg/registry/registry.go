// pkg/registry/registry.go
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/arc-language/bpkg/pkg/core"
)

// ErrDuplicate is returned when adding a package whose name is taken
var ErrDuplicate = errors.New("registry: package already present")

// document is the on-disk layout, shared by the yaml and toml encodings
type document struct {
	Packages []*core.Package `yaml:"packages" toml:"packages"`
}

// Registry is the set of installed packages keyed by name, kept in
// insertion order.
type Registry struct {
	path     string
	order    []string
	packages map[string]*core.Package
}

// New creates an empty registry persisted at path
func New(path string) *Registry {
	return &Registry{
		path:     path,
		packages: make(map[string]*core.Package),
	}
}

// Load reads the registry at path. A missing file is an empty registry.
// Paths ending in .toml are TOML, everything else YAML.
func Load(path string) (*Registry, error) {
	r := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("registry: reading %s: %w", path, err)
	}

	var doc document
	if r.isTOML() {
		_, err = toml.Decode(string(data), &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: failed to parse %s: %w", path, err)
	}

	for _, p := range doc.Packages {
		if p == nil {
			continue
		}
		if err := r.Put(p); err != nil {
			return nil, fmt.Errorf("registry: %s: %w", path, err)
		}
	}

	return r, nil
}

// Save writes the registry back to its path through a temporary file
func (r *Registry) Save() error {
	doc := document{Packages: r.List()}

	var data []byte
	if r.isTOML() {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return fmt.Errorf("registry: encoding: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(doc); err != nil {
			return fmt.Errorf("registry: encoding: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("registry: creating directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("registry: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("registry: replacing %s: %w", r.path, err)
	}
	return nil
}

// Path returns the file the registry is persisted to
func (r *Registry) Path() string {
	return r.path
}

// Get returns the package called name
func (r *Registry) Get(name string) (*core.Package, bool) {
	p, ok := r.packages[name]
	return p, ok
}

// Put appends a new package
func (r *Registry) Put(p *core.Package) error {
	if _, ok := r.packages[p.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, p.Name)
	}
	r.packages[p.Name] = p
	r.order = append(r.order, p.Name)
	return nil
}

// Replace swaps the entry with the same name in place. It reports false
// when no such entry exists.
func (r *Registry) Replace(p *core.Package) bool {
	if _, ok := r.packages[p.Name]; !ok {
		return false
	}
	r.packages[p.Name] = p
	return true
}

// Remove deletes the package called name and returns it
func (r *Registry) Remove(name string) (*core.Package, bool) {
	p, ok := r.packages[name]
	if !ok {
		return nil, false
	}
	delete(r.packages, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Merge replaces every entry whose name matches one of pkgs and returns
// how many were replaced. Unknown names are ignored.
func (r *Registry) Merge(pkgs []*core.Package) int {
	n := 0
	for _, p := range pkgs {
		if r.Replace(p) {
			n++
		}
	}
	return n
}

// List returns the packages in insertion order
func (r *Registry) List() []*core.Package {
	out := make([]*core.Package, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.packages[name])
	}
	return out
}

// Names returns the package names in insertion order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of packages
func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) isTOML() bool {
	return strings.EqualFold(filepath.Ext(r.path), ".toml")
}
