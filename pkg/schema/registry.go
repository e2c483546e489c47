package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Ramsey-B/fern/pkg/models"
)

// EntityType is a named ordered collection of predicates, optionally
// inheriting from a single base type. Subtype redeclarations override base
// predicates by name but may only change metadata, never storage type or
// relationship constraints.
type EntityType struct {
	Name        string
	Aliases     []string
	Base        string
	Private     bool
	CreateLevel models.PermissionLevel

	// SlugContext names the predicates whose submitted value disambiguates
	// the unique-name slug (country, channel, ...), in priority order.
	SlugContext []string

	// ExternalID names the predicate carrying an external identifier
	// (DOI, handle, package name) checked during duplicate detection.
	ExternalID string

	Declared []*Predicate

	merged []*Predicate
	index  map[string]*Predicate
	labels []string
}

// Labels returns the type labels a stored entry of this type carries: its
// own type plus its supertype, if any.
func (t *EntityType) Labels() []string {
	return t.labels
}

// Predicates returns the merged, ordered predicate collection: base fields
// first, subtype overrides replacing by name.
func (t *EntityType) Predicates() []*Predicate {
	return t.merged
}

// Predicate looks up a merged predicate by name, nil when unknown
func (t *EntityType) Predicate(name string) *Predicate {
	return t.index[strings.ToLower(name)]
}

// Registry maps entity-type names to their merged predicate catalogues. It
// is built once at process start and immutable afterwards, except for the
// autoload choice cache which is append-only for the process lifetime.
type Registry struct {
	types map[string]*EntityType
	order []string

	// choiceCache is populated at most once per predicate. Concurrent
	// first-access races are tolerated: the underlying query is idempotent
	// and values are immutable once computed, so last writer wins.
	choiceCache sync.Map
}

// NewRegistry builds the registry, merging inheritance and asserting that
// overrides keep storage types and relationship constraints intact. Any
// violation is a ConfigurationError: a startup failure, never a runtime one.
func NewRegistry(types ...*EntityType) (*Registry, error) {
	r := &Registry{types: make(map[string]*EntityType)}

	for _, t := range types {
		key := strings.ToLower(t.Name)
		if _, exists := r.types[key]; exists {
			return nil, &models.ConfigurationError{Message: fmt.Sprintf("type %q declared twice", t.Name)}
		}
		r.types[key] = t
		r.order = append(r.order, t.Name)
		for _, alias := range t.Aliases {
			r.types[strings.ToLower(alias)] = t
		}
	}

	for _, name := range r.order {
		t := r.types[strings.ToLower(name)]
		if err := r.link(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// link resolves inheritance for one type and builds its merged catalogue
func (r *Registry) link(t *EntityType) error {
	t.labels = []string{t.Name}
	var base *EntityType
	if t.Base != "" {
		base = r.types[strings.ToLower(t.Base)]
		if base == nil {
			return &models.ConfigurationError{Message: fmt.Sprintf("type %q inherits unknown base %q", t.Name, t.Base)}
		}
		if base.Base != "" {
			return &models.ConfigurationError{Message: fmt.Sprintf("type %q inherits %q which itself inherits %q; only single-level inheritance is supported", t.Name, t.Base, base.Base)}
		}
		t.labels = append(t.labels, base.Name)
	}

	overrides := make(map[string]*Predicate, len(t.Declared))
	for _, p := range t.Declared {
		overrides[strings.ToLower(p.Name)] = p
	}

	t.merged = nil
	t.index = make(map[string]*Predicate)
	if base != nil {
		for _, bp := range base.Declared {
			key := strings.ToLower(bp.Name)
			p := bp
			if ov, ok := overrides[key]; ok {
				if err := checkOverride(t.Name, bp, ov); err != nil {
					return err
				}
				p = ov
				delete(overrides, key)
			}
			t.merged = append(t.merged, p)
			t.index[key] = p
		}
	}
	for _, p := range t.Declared {
		key := strings.ToLower(p.Name)
		if _, taken := t.index[key]; taken {
			continue // base slot already replaced by this override
		}
		t.merged = append(t.merged, p)
		t.index[key] = p
	}
	return nil
}

// checkOverride enforces the override invariant: metadata may change,
// storage type and relationship constraints may not.
func checkOverride(typeName string, base, override *Predicate) error {
	if base.Type != override.Type || base.List != override.List {
		return &models.ConfigurationError{
			Message: fmt.Sprintf("type %q overrides %q with storage type %s(list=%t), base declares %s(list=%t)",
				typeName, base.Name, override.Type, override.List, base.Type, base.List),
		}
	}
	if !sameStringSet(base.RelTypes, override.RelTypes) {
		return &models.ConfigurationError{
			Message: fmt.Sprintf("type %q overrides %q with relationship targets %v, base declares %v",
				typeName, base.Name, override.RelTypes, base.RelTypes),
		}
	}
	return nil
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Get resolves a type name or alias, case insensitively. Nil when unknown.
func (r *Registry) Get(name string) *EntityType {
	return r.types[strings.ToLower(strings.TrimSpace(name))]
}

// Types returns the registered types in registration order
func (r *Registry) Types() []*EntityType {
	out := make([]*EntityType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[strings.ToLower(name)])
	}
	return out
}

// IsPrivate reports whether a type must never be reachable from untrusted
// filter input. Unknown types count as private.
func (r *Registry) IsPrivate(name string) bool {
	t := r.Get(name)
	return t == nil || t.Private
}

// ChoiceSet returns a predicate's choice set, lazily loading autoload sets
// through the given loader and caching them for the process lifetime.
func (r *Registry) ChoiceSet(ctx context.Context, p *Predicate, loader ChoiceLoader) ([]string, error) {
	if !p.AutoloadChoices || p.ChoicesFrom == "" {
		return p.Choices, nil
	}
	if cached, ok := r.choiceCache.Load(p.Name); ok {
		return cached.([]string), nil
	}
	if loader == nil {
		return nil, fmt.Errorf("no choice loader available for %s", p.Name)
	}
	values, err := loader.ChoiceValues(ctx, p.ChoicesFrom)
	if err != nil {
		return nil, fmt.Errorf("failed to load choices for %s: %w", p.Name, err)
	}
	r.choiceCache.Store(p.Name, values)
	return values, nil
}

// choiceSet resolves a predicate's effective choice set through the env
func (e *Env) choiceSet(ctx context.Context, p *Predicate) ([]string, error) {
	if e.Registry == nil {
		return p.Choices, nil
	}
	return e.Registry.ChoiceSet(ctx, p, e.Choices)
}
