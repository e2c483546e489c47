package filters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
)

func newCompiler(t *testing.T) *Compiler {
	t.Helper()
	reg, err := schema.DefaultRegistry()
	require.NoError(t, err)
	return NewCompiler(reg)
}

func TestCompileEmpty(t *testing.T) {
	c := newCompiler(t)

	q, err := c.Compile(map[string][]string{})
	require.NoError(t, err)
	assert.Nil(t, q, "no filters means no query to run")
}

func TestCompileCountEmpty(t *testing.T) {
	c := newCompiler(t)

	q, err := c.CompileCount(map[string][]string{})
	require.NoError(t, err)
	require.NotNil(t, q)

	text := q.Render()
	assert.Contains(t, text, "total(func: has(_unique_name)) {")
	assert.Contains(t, text, "count(uid)")
	assert.NotContains(t, text, "first:")
}

func TestCompileCountConnectors(t *testing.T) {
	c := newCompiler(t)

	q, err := c.CompileCount(map[string][]string{
		"languages":           {"de", "en"},
		"languages*connector": {"OR"},
		"channel":             {"print"},
	})
	require.NoError(t, err)
	require.NotNil(t, q)

	text := q.Render()
	assert.Contains(t, text,
		"total(func: has(_unique_name)) @filter((eq(channel, $v0)) AND (anyofterms(languages, $v1))) {")
	assert.Contains(t, text, "count(uid)")
	assert.Equal(t, map[string]string{"$v0": "print", "$v1": "de en"}, q.Bindings())
}

func TestCompileDeterministic(t *testing.T) {
	c := newCompiler(t)
	params := map[string][]string{
		"languages":     {"de", "en"},
		"payment_model": {"free", "partly free"},
		"channel":       {"print", "online"},
		"founded":       {"1990", "2005"},
	}

	first, err := c.Compile(params)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		next, err := c.Compile(params)
		require.NoError(t, err)
		assert.Equal(t, first.Render(), next.Render())
		assert.Equal(t, first.Bindings(), next.Bindings())
	}
}

func TestCompileTypeRestriction(t *testing.T) {
	c := newCompiler(t)

	t.Run("public type", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"dgraph.type": {"Source"}})
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Contains(t, q.Render(), "@filter((type(Source)))")
	})

	t.Run("alias resolves to canonical name", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"dgraph.type": {"NewsSource"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "type(Source)")
	})

	t.Run("several types union", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"dgraph.type": {"Source", "Archive"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "@filter((type(Source)) OR (type(Archive)))")
	})

	t.Run("private type", func(t *testing.T) {
		_, err := c.Compile(map[string][]string{"dgraph.type": {"User"}})
		var forbidden *models.ForbiddenTypeError
		require.ErrorAs(t, err, &forbidden)
		assert.Equal(t, "User", forbidden.Type)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := c.Compile(map[string][]string{"dgraph.type": {"Nonsense"}})
		var forbidden *models.ForbiddenTypeError
		require.ErrorAs(t, err, &forbidden)
	})

	t.Run("auxiliary pick-list types are not queryable", func(t *testing.T) {
		for _, name := range []string{"Country", "Channel", "Language", "Subunit"} {
			_, err := c.Compile(map[string][]string{"dgraph.type": {name}})
			var forbidden *models.ForbiddenTypeError
			require.ErrorAs(t, err, &forbidden, name)
			assert.Equal(t, name, forbidden.Type)
		}
	})
}

func TestCompileScalars(t *testing.T) {
	c := newCompiler(t)

	t.Run("multi-value scalar defaults to OR", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"payment_model": {"free", "partly free"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "@filter((eq(payment_model, $v0, $v1)))")
		assert.Equal(t, "partly free", q.Bindings()["$v1"])
	})

	t.Run("explicit AND on scalar", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{
			"payment_model":           {"free", "partly free"},
			"payment_model*connector": {"AND"},
		})
		require.NoError(t, err)
		assert.Contains(t, q.Render(),
			"@filter((eq(payment_model, $v0)) AND (eq(payment_model, $v1)))")
	})

	t.Run("two values on a range field infer between", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"founded": {"1990", "2005"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "between(founded, $v0, $v1)")
		assert.Contains(t, q.Render(), "$v0: int, $v1: int")
	})

	t.Run("explicit operator", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{
			"founded":          {"1990"},
			"founded*operator": {"ge"},
		})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "ge(founded, $v0)")
	})

	t.Run("unknown operator", func(t *testing.T) {
		_, err := c.Compile(map[string][]string{
			"founded":          {"1990"},
			"founded*operator": {"similar"},
		})
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("between needs two values", func(t *testing.T) {
		_, err := c.Compile(map[string][]string{
			"founded":          {"1990"},
			"founded*operator": {"between"},
		})
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestCompileLists(t *testing.T) {
	c := newCompiler(t)

	t.Run("list defaults to AND via allofterms", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"languages": {"de", "en"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "allofterms(languages, $v0)")
		assert.Equal(t, "de en", q.Bindings()["$v0"])
	})

	t.Run("single value collapses to equality", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"languages": {"de"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "eq(languages, $v0)")
		assert.NotContains(t, q.Render(), "allofterms")
	})
}

func TestCompileRelationships(t *testing.T) {
	c := newCompiler(t)

	t.Run("uid value uses membership test", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"country": {"0x12"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "uid_in(country, 0x12)")
		assert.Empty(t, q.Bindings())
	})

	t.Run("plain value compares the edge", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"channel": {"print"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "eq(channel, $v0)")
	})

	t.Run("mixed values join with AND", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{"country": {"0x12", "0x13"}})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), "(uid_in(country, 0x12)) AND (uid_in(country, 0x13))")
	})
}

func TestCompileFacetKey(t *testing.T) {
	c := newCompiler(t)

	q, err := c.Compile(map[string][]string{"subunits|kind": {"local edition"}})
	require.NoError(t, err)
	require.NotNil(t, q)

	text := q.Render()
	assert.Contains(t, text, "subunits @facets(eq(kind, $v0)) @facets {")
	assert.NotContains(t, text, "@filter", "facet keys never reach the root filter")
	assert.Equal(t, "local edition", q.Bindings()["$v0"])
}

func TestCompileSearch(t *testing.T) {
	c := newCompiler(t)

	q, err := c.Compile(map[string][]string{
		"search":  {"standard"},
		"channel": {"print"},
	})
	require.NoError(t, err)
	require.NotNil(t, q)

	text := q.Render()
	assert.Contains(t, text, "f as var(func: has(_unique_name)) @filter((eq(channel, $v0)))")
	assert.Contains(t, text, "s as var(func: has(name)) @filter((anyofterms(name, $v1)) OR (match(name, $v2, 8)))")
	assert.Contains(t, text, "data(func: uid(f, s), first: 25)")
	assert.Equal(t, "standard", q.Bindings()["$v1"])
	assert.Equal(t, "standard", q.Bindings()["$v2"])
}

func TestCompilePagination(t *testing.T) {
	c := newCompiler(t)

	t.Run("explicit first and offset", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{
			"channel": {"print"},
			"first":   {"5"},
			"offset":  {"10"},
		})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), ", first: 5, offset: 10)")
	})

	t.Run("first is capped", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{
			"channel": {"print"},
			"first":   {"9999"},
		})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), ", first: 200)")
	})

	t.Run("garbage pagination falls back to default", func(t *testing.T) {
		q, err := c.Compile(map[string][]string{
			"channel": {"print"},
			"first":   {"lots"},
		})
		require.NoError(t, err)
		assert.Contains(t, q.Render(), ", first: 25)")
	})
}

func TestCompileUnknownKeysDropped(t *testing.T) {
	c := newCompiler(t)

	q, err := c.Compile(map[string][]string{"no_such_predicate": {"x"}})
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.False(t, strings.Contains(q.Render(), "@filter"))
}
