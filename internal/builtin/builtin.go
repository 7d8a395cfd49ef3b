// Package builtin holds the commands the shell runs in its own process
// rather than in a spawned child, and the process state they may change.
package builtin

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Builtin is a command executed by the orchestrating process itself.
type Builtin interface {
	// Name returns the program name that selects this builtin.
	Name() string

	// Run executes the builtin with the full argument list (name first).
	// A returned error is a diagnostic for the user, never fatal.
	Run(st *State, args []string) error
}

// State is the orchestrator-owned process state. Only builtins change it;
// spawned children get a copy at spawn time and can never write it back.
type State struct {
	mu  sync.RWMutex
	dir string
}

// NewState returns a State rooted at the process working directory.
func NewState() (*State, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return NewStateAt(wd), nil
}

// NewStateAt returns a State rooted at dir.
func NewStateAt(dir string) *State {
	return &State{dir: filepath.Clean(dir)}
}

// Dir returns the current working directory.
func (s *State) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Resolve interprets path relative to the working directory.
func (s *State) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.Dir(), path)
}

// Environ returns the environment for a child: the process environment
// with PWD pointing at the working directory.
func (s *State) Environ() []string {
	env := os.Environ()
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, "PWD=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "PWD="+s.Dir())
}

func (s *State) setDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
}

// Registry maps program names to builtins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds a builtin to the registry.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Lookup returns the builtin for name, if there is one.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// All returns all registered builtins sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}

// RegisterAll adds every builtin to r.
func RegisterAll(r *Registry) {
	r.Register(&Cd{})
}
