// Package schema holds the typed predicate model and the entity-type
// registry. Predicates declare every field's storage type, validation rules,
// relationship constraints and permission metadata; the registry merges them
// into immutable entity-type catalogues built once at process start.
package schema

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Type is a predicate's storage type
type Type string

const (
	String       Type = "string"
	Int          Type = "int"
	Float        Type = "float"
	Bool         Type = "bool"
	DateTime     Type = "datetime"
	Geo          Type = "geo"
	Choice       Type = "choice"
	Relationship Type = "uid"
)

// Predicate describes one field of one entity type. Storage type and
// relationship constraints are fixed for the lifetime of the schema; only
// metadata may vary between identically named predicates on different types.
type Predicate struct {
	Name        string
	Type        Type
	List        bool
	Required    bool
	ReadOnly    bool
	Hidden      bool
	NewOnly     bool
	Permission  models.PermissionLevel
	Default     any
	DefaultFunc func() any
	Description string

	// ProfileLookup verifies string values as contributor handles through
	// the injected profile resolver, storing the canonical handle.
	ProfileLookup bool

	// Choice predicates
	Choices         []string
	AutoloadChoices bool
	ChoicesFrom     string // entity type whose name values form the lazily loaded set

	// Relationship predicates
	RelTypes []string
	AllowNew bool

	// Edge behavior
	Ordered bool // elements get an integer sequence facet at write time
	Facets  bool

	// Overwrite forces replace semantics on edit for list predicates.
	// Scalars always replace.
	Overwrite bool

	// Directives rendered into the Dgraph schema DDL (@index(...), @upsert, ...)
	Directives []string
}

// Replaces reports whether an edit to this predicate replaces the stored
// value instead of merging additively. Ordered lists always replace: their
// sequence facets restart at 0 on every write, so merging would hand out
// sequence numbers the stored elements already carry.
func (p *Predicate) Replaces() bool {
	return !p.List || p.Ordered || p.Overwrite
}

// DefaultValue resolves the predicate's declared default, if any
func (p *Predicate) DefaultValue() any {
	if p.DefaultFunc != nil {
		return p.DefaultFunc()
	}
	return p.Default
}

// Value is one normalized value together with any facets attached to its
// edge. Stub is non-nil when Data is a blank-node label for a related entry
// that must be created inline.
type Value struct {
	Data   any
	Facets map[string]any
	Stub   map[string]any
}

// TypeResolver looks up the type labels of an existing node
type TypeResolver interface {
	TypesOf(ctx context.Context, uid string) ([]string, error)
}

// ChoiceLoader fetches the name values of an auxiliary entity type, used to
// lazily populate autoload choice sets.
type ChoiceLoader interface {
	ChoiceValues(ctx context.Context, entityType string) ([]string, error)
}

// Geocoder resolves a postal address to a coordinate
type Geocoder interface {
	Locate(ctx context.Context, address string) (*models.GeoPoint, error)
}

// ProfileResolver verifies a contributor handle against an external profile
// registry and returns its canonical form
type ProfileResolver interface {
	Resolve(ctx context.Context, handle string) (*models.Profile, error)
}

// Env supplies the collaborators predicate validation may consult. All of
// them are fallible lookups injected by the caller; validation itself stays
// pure apart from these.
type Env struct {
	Registry *Registry
	Resolver TypeResolver
	Choices  ChoiceLoader
	Geocoder Geocoder
	Profiles ProfileResolver
}

var uidPattern = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

// IsUID reports whether s looks like an existing-node reference
func IsUID(s string) bool {
	return uidPattern.MatchString(s)
}

// Validate coerces and validates a raw input against the predicate,
// returning the normalized values with their edge facets. Coercion order:
// list shaping, type coercion, relationship resolution, choice membership.
// Ordered predicates get their sequence facet assigned here.
func (p *Predicate) Validate(ctx context.Context, raw any, facets map[string]any, env *Env) ([]Value, error) {
	items := p.coerceList(raw)
	if !p.List && len(items) > 1 {
		return nil, fmt.Errorf("expects a single value, got %d", len(items))
	}

	out := make([]Value, 0, len(items))
	for _, item := range items {
		v, err := p.validateOne(ctx, item, env)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		out = append(out, *v)
	}

	for i := range out {
		if len(facets) > 0 {
			if out[i].Facets == nil {
				out[i].Facets = make(map[string]any, len(facets))
			}
			for k, fv := range facets {
				out[i].Facets[k] = fv
			}
		}
		if p.Ordered {
			if out[i].Facets == nil {
				out[i].Facets = make(map[string]any, 1)
			}
			out[i].Facets["sequence"] = i
		}
	}
	return out, nil
}

// coerceList shapes raw input into a value slice: singletons wrap, comma
// separated strings split for list predicates, empties drop.
func (p *Predicate) coerceList(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case string:
		if p.List && strings.Contains(v, ",") {
			parts := strings.Split(v, ",")
			out := make([]any, 0, len(parts))
			for _, part := range parts {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		}
		return []any{v}
	default:
		return []any{v}
	}
}

func (p *Predicate) validateOne(ctx context.Context, raw any, env *Env) (*Value, error) {
	switch p.Type {
	case String:
		s, ok := raw.(string)
		if !ok {
			s = fmt.Sprintf("%v", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		if p.ProfileLookup {
			return p.validateProfile(ctx, s, env)
		}
		return &Value{Data: s}, nil

	case Int:
		n, err := coerceInt(raw)
		if err != nil {
			return nil, err
		}
		return &Value{Data: n}, nil

	case Float:
		f, err := coerceFloat(raw)
		if err != nil {
			return nil, err
		}
		return &Value{Data: f}, nil

	case Bool:
		b, err := coerceBool(raw)
		if err != nil {
			return nil, err
		}
		return &Value{Data: b}, nil

	case DateTime:
		ts, err := coerceDateTime(raw)
		if err != nil {
			return nil, err
		}
		return &Value{Data: ts}, nil

	case Choice:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expects a string choice, got %T", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		set, err := env.choiceSet(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, c := range set {
			if strings.EqualFold(c, s) {
				return &Value{Data: c}, nil
			}
		}
		return nil, fmt.Errorf("%q is not a valid choice", s)

	case Relationship:
		return p.validateRelationship(ctx, raw, env)

	case Geo:
		return p.validateGeo(ctx, raw, env)
	}
	return nil, fmt.Errorf("unhandled predicate type %q", p.Type)
}

// validateRelationship resolves an input to an existing node or, when the
// predicate allows it, a pending new-entry stub.
func (p *Predicate) validateRelationship(ctx context.Context, raw any, env *Env) (*Value, error) {
	var s string
	switch v := raw.(type) {
	case string:
		s = strings.TrimSpace(v)
	case map[string]any:
		if uid, ok := v["uid"].(string); ok && uid != "" {
			s = uid
		} else if name, ok := v["name"].(string); ok {
			s = strings.TrimSpace(name)
		}
	default:
		return nil, fmt.Errorf("expects a uid or a name, got %T", raw)
	}
	if s == "" {
		return nil, nil
	}

	if IsUID(s) {
		labels, err := env.Resolver.TypesOf(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", s, err)
		}
		if !typeAllowed(labels, p.RelTypes) {
			return nil, &models.ConstraintViolation{
				Field:     p.Name,
				TargetUID: s,
				Allowed:   p.RelTypes,
				Got:       labels,
			}
		}
		return &Value{Data: s}, nil
	}

	if !p.AllowNew {
		return nil, fmt.Errorf("%q is not an existing %s", s, strings.Join(p.RelTypes, "/"))
	}

	// Autoload relationships constrain inline-created names to the known
	// pick list; the @upsert slug dedups the stub against existing nodes.
	if p.AutoloadChoices {
		set, err := env.choiceSet(ctx, p)
		if err != nil {
			return nil, err
		}
		matched := ""
		for _, c := range set {
			if strings.EqualFold(c, s) {
				matched = c
				break
			}
		}
		if matched == "" {
			return nil, fmt.Errorf("%q is not a known %s", s, strings.Join(p.RelTypes, "/"))
		}
		s = matched
	}

	slug := normalizers.UniqueName(s)
	return &Value{
		Data: "_:" + slug,
		Stub: map[string]any{
			"name":                  s,
			"dgraph.type":           p.RelTypes[0],
			models.PredUniqueName:   slug,
			models.PredReviewStatus: string(models.ReviewPending),
		},
	}, nil
}

// validateProfile verifies a handle through the injected profile resolver
// and stores the canonical handle it reports.
func (p *Predicate) validateProfile(ctx context.Context, handle string, env *Env) (*Value, error) {
	if env.Profiles == nil {
		return nil, &models.EnrichmentError{Field: p.Name, Source: "profiles", Err: fmt.Errorf("no profile resolver configured")}
	}
	profile, err := env.Profiles.Resolve(ctx, handle)
	if err != nil {
		return nil, &models.EnrichmentError{Field: p.Name, Source: "profiles", Err: err}
	}
	return &Value{Data: profile.Handle}, nil
}

// validateGeo accepts a coordinate map, a GeoPoint, or an address string
// resolved through the injected geocoder.
func (p *Predicate) validateGeo(ctx context.Context, raw any, env *Env) (*Value, error) {
	switch v := raw.(type) {
	case models.GeoPoint:
		return &Value{Data: v}, nil
	case map[string]any:
		lat, latOK := coerceFloatOK(v["lat"])
		lon, lonOK := coerceFloatOK(v["lon"])
		if latOK && lonOK {
			return &Value{Data: models.NewGeoPoint(lon, lat)}, nil
		}
		return nil, fmt.Errorf("expects lat and lon coordinates")
	case string:
		addr := strings.TrimSpace(v)
		if addr == "" {
			return nil, nil
		}
		if env.Geocoder == nil {
			return nil, &models.EnrichmentError{Field: p.Name, Source: "geocoder", Err: fmt.Errorf("no geocoder configured")}
		}
		point, err := env.Geocoder.Locate(ctx, addr)
		if err != nil {
			return nil, &models.EnrichmentError{Field: p.Name, Source: "geocoder", Err: err}
		}
		return &Value{Data: *point}, nil
	}
	return nil, fmt.Errorf("expects an address or coordinates, got %T", raw)
}

func typeAllowed(labels, allowed []string) bool {
	for _, l := range labels {
		for _, a := range allowed {
			if l == a {
				return true
			}
		}
	}
	return false
}

func coerceInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("expects a whole number, got %v", v)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expects an integer, got %T", raw)
}

func coerceFloat(raw any) (float64, error) {
	f, ok := coerceFloatOK(raw)
	if !ok {
		return 0, fmt.Errorf("expects a number, got %v", raw)
	}
	return f, nil
}

func coerceFloatOK(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("expects a boolean, got %v", raw)
}

// coerceDateTime normalizes date input to RFC 3339. Bare dates and years
// are accepted and anchored at midnight UTC.
func coerceDateTime(raw any) (string, error) {
	switch v := raw.(type) {
	case time.Time:
		return models.Timestamp(v), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01", "2006"} {
			if t, err := time.Parse(layout, s); err == nil {
				return models.Timestamp(t), nil
			}
		}
		return "", fmt.Errorf("%q is not a recognized date", v)
	}
	return "", fmt.Errorf("expects a date, got %T", raw)
}
