package bootstrap

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/oshokin/par-builder/internal/metadata"
)

const (
	// LauncherVariable is set to "1" in the child so the entry point skips
	// its own search path setup.
	LauncherVariable = "PAR_LAUNCHER"
	// DistributionsVariable carries the exported metadata registry. It is
	// informational; the child finds .dist-info directories on the search path.
	DistributionsVariable = "PAR_DISTRIBUTIONS"
)

// ProcessEnv is the Environment of a child interpreter started by the launcher.
// Entry 0 of the search path is the script handed to the interpreter, the
// rest is serialized into a single environment variable.
type ProcessEnv struct {
	mu       sync.Mutex
	archive  string
	variable string
	roots    []string
	hooks    []func()
	registry *metadata.MemoryRegistry
}

// NewProcessEnv creates the environment for archivePath. inherited is the
// current value of variable, appended after the archive's roots.
func NewProcessEnv(archivePath, variable, inherited string) *ProcessEnv {
	roots := []string{archivePath}

	for _, entry := range filepath.SplitList(inherited) {
		if entry != "" {
			roots = append(roots, entry)
		}
	}

	return &ProcessEnv{
		archive:  archivePath,
		variable: variable,
		roots:    roots,
		registry: metadata.NewMemoryRegistry(),
	}
}

// EntryLocation implements Environment.
func (e *ProcessEnv) EntryLocation() (Location, bool) {
	return Location{ArchivePath: e.archive}, e.archive != ""
}

// SearchRoots implements Environment.
func (e *ProcessEnv) SearchRoots() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.roots)
}

// InsertSearchRoots implements Environment.
func (e *ProcessEnv) InsertSearchRoots(index int, roots ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	index = min(max(index, 0), len(e.roots))
	e.roots = slices.Insert(e.roots, index, roots...)
}

// SetSearchRoot implements Environment.
func (e *ProcessEnv) SetSearchRoot(index int, root string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index >= 0 && index < len(e.roots) {
		e.roots[index] = root
	}
}

// RegisterShutdown implements Environment.
func (e *ProcessEnv) RegisterShutdown(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.hooks = append(e.hooks, fn)
}

// Registry returns the metadata registry exported to the child.
func (e *ProcessEnv) Registry() *metadata.MemoryRegistry {
	return e.registry
}

// Lookup is the metadata.Lookup of this environment.
func (e *ProcessEnv) Lookup() (metadata.Registry, bool) {
	return e.registry, true
}

// Entry returns the script the interpreter is started with.
func (e *ProcessEnv) Entry() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.roots[0]
}

// Environ returns base with the search path, launcher marker and
// distributions applied. Existing values of those variables are replaced.
func (e *ProcessEnv) Environ(base []string) []string {
	roots := e.SearchRoots()
	dists := e.registry.Distributions()

	overrides := map[string]string{
		e.variable:       strings.Join(roots[1:], string(os.PathListSeparator)),
		LauncherVariable: "1",
	}

	if len(dists) > 0 {
		overrides[DistributionsVariable] = metadata.Export(dists)
	}

	env := make([]string, 0, len(base)+len(overrides))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overrides[key]; replaced {
			continue
		}

		env = append(env, kv)
	}

	for _, key := range []string{e.variable, LauncherVariable, DistributionsVariable} {
		if value, ok := overrides[key]; ok {
			env = append(env, key+"="+value)
		}
	}

	return env
}

// Close runs the shutdown hooks in reverse registration order. Later calls do nothing.
func (e *ProcessEnv) Close() {
	e.mu.Lock()
	hooks := e.hooks
	e.hooks = nil
	e.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}
