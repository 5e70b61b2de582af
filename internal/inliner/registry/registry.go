// Package registry stores the expansion templates known to a weld run, keyed
// by callee. Templates arrive from weld.toml and from //weld:template
// directives during scanning; both land here so duplicate declarations are
// caught no matter where they came from.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"weld/internal/inliner/template"
	"weld/welderr"
)

// Template is one template declaration as authored.
type Template struct {
	Key  string // callee key, "Name" for functions and "Recv.Name" for methods
	Text string
	File string // declaration site, "" when it came from configuration
	Line int
}

// Site returns a printable declaration site.
func (t Template) Site() string {
	if t.File == "" {
		return "configuration"
	}
	return fmt.Sprintf("%s:%d", t.File, t.Line)
}

// Entry is a registered template together with its parsed form.
type Entry struct {
	Template
	Compiled *template.Template
}

// Registry is a thread-safe template store.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register parses and stores a template. Registering a key twice is a
// conflict: expansion must never silently pick one of two declarations.
func (r *Registry) Register(t Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[t.Key]; ok {
		return welderr.Newf(welderr.KindDuplicateTemplate,
			"template for %q already declared at %s", t.Key, prev.Site()).
			At(t.File, t.Line, 1)
	}

	r.entries[t.Key] = Entry{
		Template: t,
		Compiled: template.Parse(t.Text),
	}
	return nil
}

// Lookup returns the template registered for key. Absence is an error, not a
// silent no-op.
func (r *Registry) Lookup(key string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key]
	if !ok {
		return Entry{}, welderr.Newf(welderr.KindMissingTemplate,
			"no template declared for %q", key)
	}
	return e, nil
}

// Has reports whether a template is registered for key.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[key]
	return ok
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Keys returns all registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns all registered entries sorted by key.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
