// Package registry implements the named-command lookup table: operator
// tooling and config-driven routines refer to commands by name instead of by
// Go value, and the registry is what turns a name back into a
// command.Command.
//
// It's modeled on the teacher's engine.RegisterResource /
// engine.NewNamedResource pair (package-level map keyed by kind, a
// constructor function stored rather than a value, panics on duplicate
// registration) generalized from "register a constructor, build a fresh
// instance per use" down to this spec's simpler "register a ready-to-run
// Command, hand back the same instance every time" shape, since routines
// reuse command instances rather than building a fresh one per lookup.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fieldctl/core/adapter"
	"github.com/fieldctl/core/command"
	"github.com/fieldctl/core/errsink"
)

// Registry is a name -> command.Command lookup table. The zero value is not
// ready to use; call New.
type Registry struct {
	mu sync.RWMutex

	entries     map[string]command.Command
	description map[string]string

	// Sink receives a Warn report whenever Get is asked for a name it
	// doesn't hold.
	Sink errsink.Sink
}

// New returns an empty, ready-to-use Registry.
func New() *Registry {
	return &Registry{
		entries:     map[string]command.Command{},
		description: map[string]string{},
	}
}

// def is the process-wide registry fieldctl's package-level helpers act on,
// mirroring the teacher's package-level registeredResources map.
var def = New()

// Default returns the process-wide Registry.
func Default() *Registry { return def }

// Register adds v, adapted through package adapter, under name. It panics if
// name is empty or v is nil — an empty name or a nil object is a programmer
// error caught at registration time (spec.md §4.5/§7's InvalidArgument).
// Registering under a name that's already bound replaces the prior binding
// with this one, per spec.md §8's round-trip law: the most recent
// registration under a name always wins, it never panics.
func Register(name string, v interface{}, description string) {
	def.Register(name, v, description)
}

// Register adapts v and stores it under name on this Registry, replacing
// any prior binding for name. See the package-level Register for the panic
// conditions.
func (r *Registry) Register(name string, v interface{}, description string) {
	if name == "" {
		panic("registry: can't register a command with an empty name")
	}
	c, err := adapter.Adapt(v, name)
	if err != nil {
		panic(fmt.Sprintf("registry: adapting %q: %v", name, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = c
	r.description[name] = description
}

// Get returns the command registered under name. If name is unknown, it
// reports a Warn to the Sink (if any) and returns a no-op Instant so callers
// don't need a second error-handling path for an unknown-name lookup inside
// a routine build.
func Get(name string) command.Command { return def.Get(name) }

// Get looks up name on this Registry. See the package-level Get.
func (r *Registry) Get(name string) command.Command {
	r.mu.RLock()
	c, ok := r.entries[name]
	r.mu.RUnlock()
	if ok {
		return c
	}
	if r.Sink != nil {
		r.Sink.Report(errsink.Warn, nil, fmt.Sprintf("registry: unknown command %q", name))
	}
	return command.NewInstant(func() {})
}

// Has reports whether name is registered.
func Has(name string) bool { return def.Has(name) }

// Has reports whether name is registered on this Registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Remove drops name from the registry, per spec.md §4.5's remove(name) ->
// bool. It reports whether an entry was actually removed.
func Remove(name string) bool { return def.Remove(name) }

// Remove drops name from this Registry, reporting whether it was present.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[name]
	if !ok {
		return false
	}
	delete(r.entries, name)
	delete(r.description, name)
	return true
}

// Clear empties the registry. Mostly useful for tests that don't want to
// share process-wide state with the Default registry.
func Clear() { def.Clear() }

// Clear empties this Registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = map[string]command.Command{}
	r.description = map[string]string{}
}

// Names returns every registered name, sorted.
func Names() []string { return def.Names() }

// Names returns every name registered on this Registry, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Description returns the human-readable description passed at Register
// time, or "" if name isn't registered or had none.
func Description(name string) string { return def.Description(name) }

// Description returns the description for name on this Registry.
func (r *Registry) Description(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.description[name]
}

// Count returns the number of registered commands.
func Count() int { return def.Count() }

// Count returns the number of commands registered on this Registry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
