package resource

import (
	"fmt"
	"slices"
)

// Set maps stored paths to resources. Later puts replace earlier ones.
type Set struct {
	items map[string]Resource
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{items: make(map[string]Resource)}
}

// Put adds r, replacing any resource with the same stored path.
func (s *Set) Put(r Resource) {
	s.items[r.StoredPath()] = r
}

// Get returns the resource stored under storedPath.
func (s *Set) Get(storedPath string) (Resource, bool) {
	r, ok := s.items[storedPath]
	return r, ok
}

// Has reports whether storedPath is taken.
func (s *Set) Has(storedPath string) bool {
	_, ok := s.items[storedPath]
	return ok
}

// Len returns the number of resources.
func (s *Set) Len() int {
	return len(s.items)
}

// SortedPaths returns every stored path in lexicographic order.
func (s *Set) SortedPaths() []string {
	paths := make([]string, 0, len(s.items))
	for p := range s.items {
		paths = append(paths, p)
	}

	slices.Sort(paths)

	return paths
}

// WriteAll writes every resource into dst in lexicographic stored-path order.
// It stops at the first failure.
func (s *Set) WriteAll(dst Container) error {
	for _, p := range s.SortedPaths() {
		if err := s.items[p].WriteInto(dst); err != nil {
			return fmt.Errorf("write member %s: %w", p, err)
		}
	}

	return nil
}
