package core

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"lazycloud/internal/keys"
)

// Env carries process-wide dependencies into service factories.
type Env struct {
	Keys *keys.Map
	// Demo selects in-memory backends instead of real provider clients.
	Demo bool
}

// Factory builds a service for a context. An error is fatal for the
// selection: the controller stays in service selection and shows it.
type Factory func(ctx Context, env Env) (Service, error)

// Descriptor is a registry entry.
type Descriptor struct {
	ID          ServiceID
	Name        string
	Description string
	Icon        string
	New         Factory
}

// Registry maps service ids to factories. It is built once at startup and
// read-only afterwards.
type Registry struct {
	byID  map[ServiceID]Descriptor
	order []ServiceID
}

// NewRegistry validates descs and builds the registry.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[ServiceID]Descriptor, len(descs))}
	for _, d := range descs {
		if d.ID.Provider == "" || d.ID.Service == "" {
			return nil, fmt.Errorf("service %q: incomplete id", d.Name)
		}
		if d.New == nil {
			return nil, fmt.Errorf("service %s: missing factory", d.ID)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("service %s registered twice", d.ID)
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

func (r *Registry) Lookup(id ServiceID) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// All returns every descriptor in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Available returns the services of ctx's provider.
func (r *Registry) Available(ctx Context) []Descriptor {
	var out []Descriptor
	for _, id := range r.order {
		if id.Provider == ctx.Provider {
			out = append(out, r.byID[id])
		}
	}
	return out
}

// Resolve parses name against ctx and looks it up, suggesting the closest
// registered id on failure.
func (r *Registry) Resolve(ctx Context, name string) (Descriptor, error) {
	id, err := ParseServiceID(name, ctx.Provider)
	if err != nil {
		return Descriptor{}, err
	}
	if d, ok := r.Lookup(id); ok {
		return d, nil
	}
	if s := r.Suggest(id.String()); s != "" {
		return Descriptor{}, fmt.Errorf("%w %q (did you mean %s?)", ErrUnknownService, name, s)
	}
	return Descriptor{}, fmt.Errorf("%w %q", ErrUnknownService, name)
}

// Suggest returns the registered id closest to name, or "" when nothing
// is reasonably close.
func (r *Registry) Suggest(name string) string {
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		ids = append(ids, id.String())
	}
	return Closest(name, ids)
}

// Closest returns the candidate within edit distance 3 of name (or a third
// of its length, whichever is larger) with the smallest distance.
func Closest(name string, candidates []string) string {
	limit := max(3, len(name)/3)
	best, bestDist := "", limit+1
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	for _, c := range sorted {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
