package dql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimitives_Render(t *testing.T) {
	t.Run("eq with single value", func(t *testing.T) {
		p := Eq("channel", NewVar(0, VarString, "print"))
		assert.Equal(t, "eq(channel, $v0)", p.Render())
		assert.Len(t, p.Vars(), 1)
	})

	t.Run("eq with multiple values is native OR", func(t *testing.T) {
		p := Eq("payment_model", NewVar(0, VarString, "free"), NewVar(1, VarString, "partly free"))
		assert.Equal(t, "eq(payment_model, $v0, $v1)", p.Render())
	})

	t.Run("between", func(t *testing.T) {
		p := Between("founded", NewVar(0, VarInt, "1900"), NewVar(1, VarInt, "1950"))
		assert.Equal(t, "between(founded, $v0, $v1)", p.Render())
	})

	t.Run("anyofterms", func(t *testing.T) {
		p := AnyOfTerms("languages", NewVar(3, VarString, "de en"))
		assert.Equal(t, "anyofterms(languages, $v3)", p.Render())
	})

	t.Run("match carries distance", func(t *testing.T) {
		p := Match("name", NewVar(0, VarString, "standrad"), 8)
		assert.Equal(t, "match(name, $v0, 8)", p.Render())
	})

	t.Run("regexp escapes slashes", func(t *testing.T) {
		p := Regexp("name", "stand/ard")
		assert.Equal(t, `regexp(name, /stand\/ard/i)`, p.Render())
		assert.Empty(t, p.Vars())
	})

	t.Run("uid_in drops malformed uids", func(t *testing.T) {
		p := UIDIn("country", "0x12", "0x99; drop all")
		assert.Equal(t, "uid_in(country, 0x12, 0x99dropall)", p.Render())
	})

	t.Run("structural predicates", func(t *testing.T) {
		assert.Equal(t, "has(name)", Has("name").Render())
		assert.Equal(t, "type(Source)", Type("Source").Render())
		assert.Equal(t, "uid(u, 0x1)", UID("u", "0x1").Render())
	})

	t.Run("predicate names are cleaned", func(t *testing.T) {
		p := Eq(`name) @filter(`, NewVar(0, VarString, "x"))
		assert.Equal(t, "eq(namefilter, $v0)", p.Render())
	})
}

func TestBlock_Render(t *testing.T) {
	t.Run("function then filter then fetch", func(t *testing.T) {
		b := &Block{
			Name: "data",
			Func: Has("_unique_name"),
			Filters: []Primitive{
				Eq("channel", NewVar(0, VarString, "print")),
				AnyOfTerms("languages", NewVar(1, VarString, "de en")),
			},
			Fields: []Field{{Name: "uid"}, {Name: "name"}},
			First:  25,
		}
		want := "  data(func: has(_unique_name), first: 25) @filter((eq(channel, $v0)) AND (anyofterms(languages, $v1))) {\n" +
			"    uid\n" +
			"    name\n" +
			"  }\n"
		assert.Equal(t, want, b.render())
	})

	t.Run("empty filter list renders no filter clause", func(t *testing.T) {
		b := &Block{Name: "data", Func: Type("Source")}
		assert.Equal(t, "  data(func: type(Source)) {\n    uid\n  }\n", b.render())
	})

	t.Run("or connector", func(t *testing.T) {
		b := &Block{
			Name:      "data",
			Func:      Has("name"),
			Connector: Or,
			Filters: []Primitive{
				Eq("channel", NewVar(0, VarString, "print")),
				Eq("channel", NewVar(1, VarString, "online")),
			},
		}
		assert.Contains(t, b.render(), "@filter((eq(channel, $v0)) OR (eq(channel, $v1)))")
	})

	t.Run("count only replaces fetch and drops pagination", func(t *testing.T) {
		b := &Block{Name: "total", Func: Type("Source"), CountOnly: true, First: 25, Offset: 50}
		got := b.render()
		assert.Contains(t, got, "count(uid)")
		assert.NotContains(t, got, "first")
		assert.NotContains(t, got, "offset")
	})

	t.Run("facet fetch and facet filter on fields", func(t *testing.T) {
		b := &Block{
			Name: "data",
			Func: Type("Source"),
			Fields: []Field{
				{Name: "channels", Facets: true},
				{Name: "related", FacetFilter: Eq("kind", NewVar(0, VarString, "official"))},
			},
		}
		got := b.render()
		assert.Contains(t, got, "channels @facets\n")
		assert.Contains(t, got, "related @facets(eq(kind, $v0))\n")
	})
}

func TestQuery_Render(t *testing.T) {
	t.Run("variable preamble collects vars once", func(t *testing.T) {
		v := NewVar(0, VarString, "print")
		q := NewQuery("entries",
			&Block{Name: "data", Func: Has("name"), Filters: []Primitive{Eq("channel", v)}},
			&Block{Name: "total", Func: Has("name"), Filters: []Primitive{Eq("channel", v)}, CountOnly: true},
		)
		got := q.Render()
		assert.True(t, len(got) > 0)
		assert.Contains(t, got, "query entries($v0: string) {")
		assert.Equal(t, map[string]string{"$v0": "print"}, q.Bindings())
	})

	t.Run("no vars renders bare braces", func(t *testing.T) {
		q := NewQuery("entries", &Block{Name: "data", Func: Type("Source")})
		got := q.Render()
		assert.Equal(t, "{\n  data(func: type(Source)) {\n    uid\n  }\n}", got)
	})

	t.Run("cooperating blocks express traversal", func(t *testing.T) {
		q := NewQuery("owned",
			&Block{
				Alias:   "o",
				IsVar:   true,
				Func:    UID("0x1"),
				Recurse: &Recurse{Depth: 10},
				Fields:  []Field{{Name: "owns"}, {Name: "publishes"}},
			},
			&Block{
				Name:    "data",
				Func:    UID("o"),
				Filters: []Primitive{Type("Source")},
				Fields:  []Field{{Name: "uid"}, {Name: "name"}},
			},
		)
		got := q.Render()
		assert.Contains(t, got, "o as var(func: uid(0x1)) @recurse(depth: 10, loop: false) {")
		assert.Contains(t, got, "data(func: uid(o)) @filter((type(Source))) {")
	})

	t.Run("rendering is deterministic", func(t *testing.T) {
		build := func() *Query {
			return NewQuery("entries", &Block{
				Name: "data",
				Func: Has("_unique_name"),
				Filters: []Primitive{
					Eq("channel", NewVar(0, VarString, "print")),
					AnyOfTerms("languages", NewVar(1, VarString, "de en")),
				},
			})
		}
		a, b := build(), build()
		assert.Equal(t, a.Render(), b.Render())
		assert.Equal(t, a.Bindings(), b.Bindings())
	})
}
