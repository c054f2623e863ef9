package metadata

import (
	"slices"
	"strings"
	"sync"
)

// Registry records discovered distributions.
type Registry interface {
	// Add records dist. A distribution with the same name is replaced.
	Add(dist Distribution)
}

// Lookup returns the registry of the running process, or false when the
// process has none. Absence is not an error.
type Lookup func() (Registry, bool)

// MemoryRegistry is an in-process Registry.
type MemoryRegistry struct {
	mu    sync.Mutex
	dists []Distribution
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

// Add implements Registry.
func (r *MemoryRegistry) Add(dist Distribution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.dists {
		if strings.EqualFold(existing.Name, dist.Name) {
			r.dists[i] = dist
			return
		}
	}

	r.dists = append(r.dists, dist)
}

// Distributions returns the recorded distributions in insertion order.
func (r *MemoryRegistry) Distributions() []Distribution {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.dists)
}

// Find returns the distribution matching name and, when not empty, version.
func (r *MemoryRegistry) Find(name, version string) (Distribution, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dist := range r.dists {
		if strings.EqualFold(dist.Name, name) && (version == "" || dist.Version == version) {
			return dist, true
		}
	}

	return Distribution{}, false
}

// Export renders one "name==version=location" line per distribution,
// the format handed to child processes.
func Export(dists []Distribution) string {
	lines := make([]string, 0, len(dists))
	for _, dist := range dists {
		lines = append(lines, dist.String()+"="+dist.Location)
	}

	return strings.Join(lines, "\n")
}
