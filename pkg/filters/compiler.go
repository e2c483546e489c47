// Package filters compiles flat HTTP-style filter parameters into rendered
// graph queries. Keys name predicates; well-known suffixes modify semantics
// instead of naming new predicates, and a handful of reserved keys control
// pagination, type restriction and free-text search.
package filters

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/dql"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
)

const (
	keyFirst  = "first"
	keyOffset = "offset"
	keySearch = "search"
	keyType   = "dgraph.type"

	suffixConnector = "*connector"
	suffixOperator  = "*operator"

	defaultFirst = 25
	maxFirst     = 200

	// matchDistance is the levenshtein budget for fuzzy name search
	matchDistance = 8
)

// Compiler turns filter maps into queries. Predicate semantics (storage
// type, list-ness, relationship-ness) come from the registry; values travel
// through declared variables, never through the query body.
type Compiler struct {
	registry *schema.Registry
}

func NewCompiler(registry *schema.Registry) *Compiler {
	return &Compiler{registry: registry}
}

// Compile builds the fetch query for a filter map. An empty map compiles to
// nil, not an error: no filters means no query to run, not match-everything.
func (c *Compiler) Compile(params map[string][]string) (*dql.Query, error) {
	return c.compile(params, false)
}

// CompileCount builds the counting variant: the fetch list is replaced by a
// count aggregate and pagination is dropped. An empty map counts every
// entry.
func (c *Compiler) CompileCount(params map[string][]string) (*dql.Query, error) {
	return c.compile(params, true)
}

// spec is one logical predicate's accumulated filter input after suffix
// stripping: its values plus any connector/operator overrides.
type spec struct {
	key    string
	pred   string
	facet  string
	values []string
	conn   dql.Connector
	op     string
}

type page struct {
	first  int
	offset int
}

func (c *Compiler) compile(params map[string][]string, countOnly bool) (*dql.Query, error) {
	specs, pg, search, types, err := c.parse(params)
	if err != nil {
		return nil, err
	}
	if !countOnly && len(specs) == 0 && len(types) == 0 && search == "" {
		return nil, nil
	}

	b := varAllocator{}
	var rootFilters []dql.Primitive
	var facetFields []dql.Field

	if len(types) > 0 {
		parts := make([]dql.Primitive, len(types))
		for i, t := range types {
			parts[i] = dql.Type(t)
		}
		rootFilters = append(rootFilters, dql.Group(dql.Or, parts...))
	}

	for _, s := range specs {
		p := c.predicate(s.pred)
		if p == nil {
			// unknown predicates are dropped, mirroring the sanitizer's
			// unknown-key policy
			continue
		}
		if s.facet != "" {
			facetFields = append(facetFields, facetField(s, &b))
			continue
		}
		prim, err := clause(s, p, &b)
		if err != nil {
			return nil, err
		}
		if prim != nil {
			rootFilters = append(rootFilters, prim)
		}
	}

	name := "data"
	if countOnly {
		name = "total"
	}
	fetch := fetchFields(facetFields)

	if search != "" {
		terms := b.next(dql.VarString, search)
		fuzzy := b.next(dql.VarString, search)
		collect := &dql.Block{
			Alias:   "f",
			IsVar:   true,
			Func:    dql.Has(models.PredUniqueName),
			Filters: rootFilters,
		}
		matched := &dql.Block{
			Alias: "s",
			IsVar: true,
			Func:  dql.Has("name"),
			Filters: []dql.Primitive{dql.Group(dql.Or,
				dql.AnyOfTerms("name", terms),
				dql.Match("name", fuzzy, matchDistance),
			)},
		}
		data := &dql.Block{
			Name:      name,
			Func:      dql.UID("f", "s"),
			Fields:    fetch,
			First:     pg.first,
			Offset:    pg.offset,
			CountOnly: countOnly,
		}
		return dql.NewQuery("Entries", collect, matched, data), nil
	}

	data := &dql.Block{
		Name:      name,
		Func:      dql.Has(models.PredUniqueName),
		Filters:   rootFilters,
		Fields:    fetch,
		First:     pg.first,
		Offset:    pg.offset,
		CountOnly: countOnly,
	}
	return dql.NewQuery("Entries", data), nil
}

// parse splits the raw map into predicate specs, pagination, search terms
// and the requested type restriction. Specs come back sorted by key so the
// same map always renders byte-identical text with the same variable order.
func (c *Compiler) parse(params map[string][]string) ([]*spec, page, string, []string, error) {
	specs := make(map[string]*spec)
	pg := page{first: defaultFirst}
	var search string
	var types []string

	get := func(key string) *spec {
		s, ok := specs[key]
		if !ok {
			pred, facet := key, ""
			if i := strings.IndexByte(key, '|'); i >= 0 {
				pred, facet = key[:i], key[i+1:]
			}
			s = &spec{key: key, pred: pred, facet: facet}
			specs[key] = s
		}
		return s
	}

	for key, values := range params {
		if len(values) == 0 {
			continue
		}
		switch {
		case key == keyFirst:
			if n, err := strconv.Atoi(values[0]); err == nil && n > 0 {
				pg.first = min(n, maxFirst)
			}
		case key == keyOffset:
			if n, err := strconv.Atoi(values[0]); err == nil && n > 0 {
				pg.offset = n
			}
		case key == keySearch:
			search = strings.TrimSpace(strings.Join(values, " "))
		case key == keyType:
			for _, v := range values {
				if c.registry.IsPrivate(v) {
					return nil, pg, "", nil, &models.ForbiddenTypeError{Type: v}
				}
				types = append(types, c.registry.Get(v).Name)
			}
		case strings.HasSuffix(key, suffixConnector):
			s := get(strings.TrimSuffix(key, suffixConnector))
			if strings.EqualFold(values[0], string(dql.Or)) {
				s.conn = dql.Or
			} else {
				s.conn = dql.And
			}
		case strings.HasSuffix(key, suffixOperator):
			s := get(strings.TrimSuffix(key, suffixOperator))
			s.op = strings.ToLower(strings.TrimSpace(values[0]))
		default:
			s := get(key)
			s.values = append(s.values, values...)
		}
	}

	out := make([]*spec, 0, len(specs))
	for _, s := range specs {
		if len(s.values) > 0 {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out, pg, search, types, nil
}

// predicate resolves a filter key against the catalogue: the first public
// type declaring the name wins. Storage type and relationship constraints
// are invariant across types, so any declaration is authoritative here.
func (c *Compiler) predicate(name string) *schema.Predicate {
	for _, t := range c.registry.Types() {
		if t.Private {
			continue
		}
		if p := t.Predicate(name); p != nil {
			return p
		}
	}
	return nil
}

// clause builds the single root-filter clause for one predicate. Multi-value
// input collapses into one clause carrying its own connector, so the block
// level stays a plain cross-predicate AND.
func clause(s *spec, p *schema.Predicate, b *varAllocator) (dql.Primitive, error) {
	if p.Type == schema.Relationship {
		return relationshipClause(s, b), nil
	}
	if op := s.op; op != "" && op != "eq" {
		return operatorClause(s, p, b)
	}
	if rangeType(p.Type) && !p.List && len(s.values) == 2 && s.op == "" {
		lo := b.next(varType(p.Type), s.values[0])
		hi := b.next(varType(p.Type), s.values[1])
		return dql.Between(s.pred, lo, hi), nil
	}
	if p.List && len(s.values) > 1 {
		joined := b.next(dql.VarString, strings.Join(s.values, " "))
		if s.connector(dql.And) == dql.Or {
			return dql.AnyOfTerms(s.pred, joined), nil
		}
		return dql.AllOfTerms(s.pred, joined), nil
	}
	return scalarEq(s, p, b), nil
}

// relationshipClause filters a uid edge. Identifier values use the
// reverse-edge membership test; plain values fall back to equality against
// the edge. Relationship multi-value defaults to AND: two edges are two
// facts about one entry.
func relationshipClause(s *spec, b *varAllocator) dql.Primitive {
	conn := s.connector(dql.And)
	parts := make([]dql.Primitive, 0, len(s.values))
	for _, v := range s.values {
		if schema.IsUID(v) {
			parts = append(parts, dql.UIDIn(s.pred, v))
		} else {
			parts = append(parts, dql.Eq(s.pred, b.next(dql.VarString, v)))
		}
	}
	return dql.Group(conn, parts...)
}

func operatorClause(s *spec, p *schema.Predicate, b *varAllocator) (dql.Primitive, error) {
	vt := varType(p.Type)
	switch s.op {
	case "between":
		if len(s.values) != 2 {
			return nil, &models.ValidationError{Fields: []models.FieldError{{
				Field:   s.pred,
				Message: "between requires exactly two values",
			}}}
		}
		return dql.Between(s.pred, b.next(vt, s.values[0]), b.next(vt, s.values[1])), nil
	case "ge":
		return dql.Ge(s.pred, b.next(vt, s.values[0])), nil
	case "gt":
		return dql.Gt(s.pred, b.next(vt, s.values[0])), nil
	case "le":
		return dql.Le(s.pred, b.next(vt, s.values[0])), nil
	case "lt":
		return dql.Lt(s.pred, b.next(vt, s.values[0])), nil
	default:
		return nil, &models.ValidationError{Fields: []models.FieldError{{
			Field:   s.pred,
			Message: "unknown operator " + s.op,
		}}}
	}
}

// scalarEq handles equality over scalar predicates. Multiple candidate
// values default to OR: a disjunction over one field's possible values.
func scalarEq(s *spec, p *schema.Predicate, b *varAllocator) dql.Primitive {
	vt := varType(p.Type)
	if s.connector(dql.Or) == dql.Or {
		vars := make([]dql.Var, len(s.values))
		for i, v := range s.values {
			vars[i] = b.next(vt, v)
		}
		return dql.Eq(s.pred, vars...)
	}
	parts := make([]dql.Primitive, len(s.values))
	for i, v := range s.values {
		parts[i] = dql.Eq(s.pred, b.next(vt, v))
	}
	return dql.Group(dql.And, parts...)
}

// facetField compiles a facet-qualified key into an edge fetch restricted
// by the facet value. Facet comparisons live on the edge, not the node, so
// they cannot participate in the root filter.
func facetField(s *spec, b *varAllocator) dql.Field {
	vars := make([]dql.Var, len(s.values))
	for i, v := range s.values {
		vars[i] = b.next(dql.VarString, v)
	}
	return dql.Field{
		Name:        s.pred,
		FacetFilter: dql.Eq(s.facet, vars...),
		Facets:      true,
		Children:    []dql.Field{{Name: "uid"}, {Name: dql.Expand}},
	}
}

func fetchFields(extra []dql.Field) []dql.Field {
	fields := []dql.Field{
		{Name: "uid"},
		{Name: "dgraph.type"},
		{Name: dql.Expand, Facets: true, Children: []dql.Field{
			{Name: "uid"},
			{Name: "dgraph.type"},
			{Name: dql.Expand, Facets: true},
		}},
	}
	return append(fields, extra...)
}

func (s *spec) connector(dflt dql.Connector) dql.Connector {
	if s.conn != "" {
		return s.conn
	}
	return dflt
}

type varAllocator struct {
	n int
}

func (a *varAllocator) next(t dql.VarType, value string) dql.Var {
	v := dql.NewVar(a.n, t, value)
	a.n++
	return v
}

func varType(t schema.Type) dql.VarType {
	switch t {
	case schema.Int:
		return dql.VarInt
	case schema.Float:
		return dql.VarFloat
	case schema.Bool:
		return dql.VarBool
	default:
		return dql.VarString
	}
}

func rangeType(t schema.Type) bool {
	return t == schema.Int || t == schema.Float || t == schema.DateTime
}
