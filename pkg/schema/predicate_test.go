package schema

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeResolver struct {
	types map[string][]string
	err   error
}

func (f *fakeResolver) TypesOf(_ context.Context, uid string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.types[uid], nil
}

type fakeChoices struct {
	values map[string][]string
	calls  atomic.Int32
	err    error
}

func (f *fakeChoices) ChoiceValues(_ context.Context, entityType string) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.values[entityType], nil
}

type fakeGeocoder struct {
	point *models.GeoPoint
	err   error
}

func (f *fakeGeocoder) Locate(_ context.Context, _ string) (*models.GeoPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.point, nil
}

func testEnv(t *testing.T) *Env {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	return &Env{Registry: reg, Resolver: &fakeResolver{}}
}

func TestPredicate_Validate_Scalars(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)

	t.Run("string trims and drops empties", func(t *testing.T) {
		p := &Predicate{Name: "name", Type: String}
		vals, err := p.Validate(ctx, "  Der Standard  ", nil, env)
		require.NoError(t, err)
		require.Len(t, vals, 1)
		assert.Equal(t, "Der Standard", vals[0].Data)

		vals, err = p.Validate(ctx, "   ", nil, env)
		require.NoError(t, err)
		assert.Empty(t, vals)
	})

	t.Run("int parses strings and whole floats", func(t *testing.T) {
		p := &Predicate{Name: "founded", Type: Int}

		vals, err := p.Validate(ctx, "1988", nil, env)
		require.NoError(t, err)
		assert.Equal(t, int64(1988), vals[0].Data)

		vals, err = p.Validate(ctx, float64(1988), nil, env)
		require.NoError(t, err)
		assert.Equal(t, int64(1988), vals[0].Data)

		_, err = p.Validate(ctx, 19.88, nil, env)
		assert.Error(t, err)
	})

	t.Run("bool accepts common spellings", func(t *testing.T) {
		p := &Predicate{Name: "open_source", Type: Bool}
		for _, raw := range []any{true, "true", "yes", "1"} {
			vals, err := p.Validate(ctx, raw, nil, env)
			require.NoError(t, err, "raw %v", raw)
			assert.Equal(t, true, vals[0].Data)
		}
		_, err := p.Validate(ctx, "maybe", nil, env)
		assert.Error(t, err)
	})

	t.Run("datetime normalizes bare dates and years", func(t *testing.T) {
		p := &Predicate{Name: "publication_date", Type: DateTime}

		vals, err := p.Validate(ctx, "2021-05-04", nil, env)
		require.NoError(t, err)
		assert.Equal(t, "2021-05-04T00:00:00Z", vals[0].Data)

		vals, err = p.Validate(ctx, "1995", nil, env)
		require.NoError(t, err)
		assert.Equal(t, "1995-01-01T00:00:00Z", vals[0].Data)

		_, err = p.Validate(ctx, "not a date", nil, env)
		assert.Error(t, err)
	})

	t.Run("single value predicate rejects multiple values", func(t *testing.T) {
		p := &Predicate{Name: "founded", Type: Int}
		_, err := p.Validate(ctx, []any{1, 2}, nil, env)
		assert.Error(t, err)
	})
}

func TestPredicate_Validate_ListCoercion(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)
	p := &Predicate{Name: "other_names", Type: String, List: true}

	t.Run("comma separated string splits", func(t *testing.T) {
		vals, err := p.Validate(ctx, "STANDARD, der Standard ,", nil, env)
		require.NoError(t, err)
		require.Len(t, vals, 2)
		assert.Equal(t, "STANDARD", vals[0].Data)
		assert.Equal(t, "der Standard", vals[1].Data)
	})

	t.Run("singleton wraps", func(t *testing.T) {
		vals, err := p.Validate(ctx, "Standard", nil, env)
		require.NoError(t, err)
		require.Len(t, vals, 1)
	})

	t.Run("string slice passes through", func(t *testing.T) {
		vals, err := p.Validate(ctx, []string{"a", "b"}, nil, env)
		require.NoError(t, err)
		assert.Len(t, vals, 2)
	})
}

func TestPredicate_Validate_Choice(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)

	p := &Predicate{Name: "payment_model", Type: Choice, Choices: []string{"free", "partly free", "not free"}}

	t.Run("accepts declared choice case insensitively", func(t *testing.T) {
		vals, err := p.Validate(ctx, "Partly Free", nil, env)
		require.NoError(t, err)
		assert.Equal(t, "partly free", vals[0].Data)
	})

	t.Run("rejects values outside the set", func(t *testing.T) {
		_, err := p.Validate(ctx, "donation", nil, env)
		assert.Error(t, err)
	})
}

func TestPredicate_Validate_AutoloadChoices(t *testing.T) {
	ctx := context.Background()
	reg, err := NewRegistry()
	require.NoError(t, err)
	loader := &fakeChoices{values: map[string][]string{"Language": {"de", "en", "fr"}}}
	env := &Env{Registry: reg, Choices: loader}

	p := &Predicate{Name: "languages", Type: Choice, List: true, AutoloadChoices: true, ChoicesFrom: "Language"}

	vals, err := p.Validate(ctx, []any{"de", "en"}, nil, env)
	require.NoError(t, err)
	assert.Len(t, vals, 2)

	_, err = p.Validate(ctx, "tlh", nil, env)
	assert.Error(t, err)

	// The set is fetched once and cached for the process lifetime.
	_, _ = p.Validate(ctx, "fr", nil, env)
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestPredicate_Validate_Relationship(t *testing.T) {
	ctx := context.Background()
	reg, err := NewRegistry()
	require.NoError(t, err)

	p := &Predicate{Name: "country", Type: Relationship, RelTypes: []string{"Country"}, AllowNew: true}

	t.Run("existing uid with matching type", func(t *testing.T) {
		env := &Env{Registry: reg, Resolver: &fakeResolver{types: map[string][]string{"0x12": {"Country"}}}}
		vals, err := p.Validate(ctx, "0x12", nil, env)
		require.NoError(t, err)
		assert.Equal(t, "0x12", vals[0].Data)
		assert.Nil(t, vals[0].Stub)
	})

	t.Run("uid with wrong type is a constraint violation", func(t *testing.T) {
		env := &Env{Registry: reg, Resolver: &fakeResolver{types: map[string][]string{"0x12": {"Source", "Entry"}}}}
		_, err := p.Validate(ctx, "0x12", nil, env)
		var cv *models.ConstraintViolation
		require.ErrorAs(t, err, &cv)
		assert.Equal(t, "country", cv.Field)
		assert.Equal(t, "0x12", cv.TargetUID)
	})

	t.Run("non uid becomes a pending stub when new entries are allowed", func(t *testing.T) {
		env := &Env{Registry: reg, Resolver: &fakeResolver{}}
		vals, err := p.Validate(ctx, "Austria", nil, env)
		require.NoError(t, err)
		require.Len(t, vals, 1)
		assert.Equal(t, "_:austria", vals[0].Data)
		require.NotNil(t, vals[0].Stub)
		assert.Equal(t, "Austria", vals[0].Stub["name"])
		assert.Equal(t, "Country", vals[0].Stub["dgraph.type"])
		assert.Equal(t, "austria", vals[0].Stub[models.PredUniqueName])
	})

	t.Run("non uid fails when new entries are not allowed", func(t *testing.T) {
		strict := &Predicate{Name: "country", Type: Relationship, RelTypes: []string{"Country"}}
		env := &Env{Registry: reg, Resolver: &fakeResolver{}}
		_, err := strict.Validate(ctx, "Austria", nil, env)
		assert.Error(t, err)
	})

	t.Run("map input with uid key", func(t *testing.T) {
		env := &Env{Registry: reg, Resolver: &fakeResolver{types: map[string][]string{"0x9": {"Country"}}}}
		vals, err := p.Validate(ctx, map[string]any{"uid": "0x9"}, nil, env)
		require.NoError(t, err)
		assert.Equal(t, "0x9", vals[0].Data)
	})

	t.Run("autoload constrains inline names to the pick list", func(t *testing.T) {
		auto := &Predicate{
			Name: "channel", Type: Relationship, RelTypes: []string{"Channel"},
			AllowNew: true, AutoloadChoices: true, ChoicesFrom: "Channel",
		}
		loader := &fakeChoices{values: map[string][]string{"Channel": {"print", "online"}}}
		env := &Env{Registry: reg, Resolver: &fakeResolver{}, Choices: loader}

		vals, err := auto.Validate(ctx, "Print", nil, env)
		require.NoError(t, err)
		assert.Equal(t, "_:print", vals[0].Data)
		assert.Equal(t, "print", vals[0].Stub["name"])

		_, err = auto.Validate(ctx, "carrier pigeon", nil, env)
		assert.Error(t, err)
	})
}

func TestPredicate_Validate_Geo(t *testing.T) {
	ctx := context.Background()
	reg, err := NewRegistry()
	require.NoError(t, err)
	p := &Predicate{Name: "address", Type: Geo, Required: true}

	t.Run("coordinate map", func(t *testing.T) {
		env := &Env{Registry: reg}
		vals, err := p.Validate(ctx, map[string]any{"lat": 48.2, "lon": 16.37}, nil, env)
		require.NoError(t, err)
		point := vals[0].Data.(models.GeoPoint)
		assert.Equal(t, [2]float64{16.37, 48.2}, point.Coordinates)
	})

	t.Run("address string goes through the geocoder", func(t *testing.T) {
		point := models.NewGeoPoint(16.37, 48.2)
		env := &Env{Registry: reg, Geocoder: &fakeGeocoder{point: &point}}
		vals, err := p.Validate(ctx, "Vordere Zollamtsstraße 13, Wien", nil, env)
		require.NoError(t, err)
		assert.Equal(t, point, vals[0].Data)
	})

	t.Run("geocoder failure is an enrichment error", func(t *testing.T) {
		env := &Env{Registry: reg, Geocoder: &fakeGeocoder{err: errors.New("timeout")}}
		_, err := p.Validate(ctx, "somewhere", nil, env)
		var ee *models.EnrichmentError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "address", ee.Field)
	})
}

func TestPredicate_Validate_Facets(t *testing.T) {
	ctx := context.Background()
	env := testEnv(t)

	t.Run("ordered list assigns sequence facets", func(t *testing.T) {
		p := &Predicate{Name: "authors", Type: String, List: true, Ordered: true}
		vals, err := p.Validate(ctx, []any{"Alice", "Bob", "Carol"}, nil, env)
		require.NoError(t, err)
		require.Len(t, vals, 3)
		for i, v := range vals {
			assert.Equal(t, i, v.Facets["sequence"], fmt.Sprintf("element %d", i))
		}
	})

	t.Run("caller facets attach to every value", func(t *testing.T) {
		p := &Predicate{Name: "other_names", Type: String, List: true, Facets: true}
		vals, err := p.Validate(ctx, []any{"A", "B"}, map[string]any{"kind": "abbreviation"}, env)
		require.NoError(t, err)
		for _, v := range vals {
			assert.Equal(t, "abbreviation", v.Facets["kind"])
		}
	})
}

func TestPredicate_Replaces(t *testing.T) {
	assert.True(t, (&Predicate{Type: String}).Replaces())
	assert.True(t, (&Predicate{Type: Relationship}).Replaces())
	assert.False(t, (&Predicate{Type: String, List: true}).Replaces())
	assert.True(t, (&Predicate{Type: String, List: true, Overwrite: true}).Replaces())
	assert.True(t, (&Predicate{Type: String, List: true, Ordered: true}).Replaces())
}
