package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dyemelianov/rapsflow/pkg/logging"
)

// Discovery walks a directory tree of workflow definition files, parses
// each independently, and builds the dependency edge set over the
// discovered set. A parse failure on one file does not abort discovery of
// the rest (spec.md §4.C).
type Discovery struct {
	mu          sync.RWMutex
	definitions map[string]Definition
	edges       map[string][]string
}

// NewDiscovery returns an empty Discovery; call Discover to populate it.
func NewDiscovery() *Discovery {
	return &Discovery{definitions: map[string]Definition{}, edges: map[string][]string{}}
}

// Discover walks root recursively, considering only ".yaml"/".yml" files.
// Symlinks to files are followed; symlinks to directories are skipped, so
// the tree behind them is not searched. Returns every DiscoveryError
// encountered; those files are simply absent from the discovered set.
func (d *Discovery) Discover(root string) ([]DiscoveryError, error) {
	var errs []DiscoveryError

	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			errs = append(errs, DiscoveryError{Path: path, Err: err})
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			resolved, linkErr := filepath.EvalSymlinks(path)
			if linkErr != nil {
				errs = append(errs, DiscoveryError{Path: path, Err: linkErr})
				return nil
			}
			resolvedInfo, statErr := os.Stat(resolved)
			if statErr != nil {
				errs = append(errs, DiscoveryError{Path: path, Err: statErr})
				return nil
			}
			if resolvedInfo.IsDir() {
				return nil
			}
			path = resolved
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		def, parseErr := d.parseFile(path)
		if parseErr != nil {
			errs = append(errs, DiscoveryError{Path: path, Err: parseErr})
			logging.Warn("discovery", "failed to parse %s: %v", path, parseErr)
			return nil
		}

		d.mu.Lock()
		d.definitions[def.Metadata.ID] = def
		d.mu.Unlock()
		return nil
	})
	if walkErr != nil {
		return errs, walkErr
	}

	d.buildDependencyGraph()
	return errs, nil
}

func (d *Discovery) parseFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, err
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return Definition{}, err
	}
	def.Metadata.ScriptPath = path
	return def, nil
}

func (d *Discovery) buildDependencyGraph() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.edges = map[string][]string{}
	for id, def := range d.definitions {
		d.edges[id] = append([]string(nil), def.Dependencies...)
	}
}

// Get returns a previously discovered workflow definition by id.
func (d *Discovery) Get(id string) (Definition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	def, ok := d.definitions[id]
	return def, ok
}

// All returns every discovered workflow's metadata.
func (d *Discovery) All() []Metadata {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Metadata, 0, len(d.definitions))
	for _, def := range d.definitions {
		out = append(out, def.Metadata)
	}
	return out
}

// DependenciesOf returns id's dependency closure in execution order: each
// dependency precedes its dependants (spec.md §4.C).
func (d *Discovery) DependenciesOf(id string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.definitions[id]; !ok {
		return nil, ErrNotFound
	}
	return topoOrder(d.edges, id)
}
