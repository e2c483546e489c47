package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestore_ReordersBySequenceFacet(t *testing.T) {
	record := map[string]any{
		"name":             "Some Paper",
		"authors":          []any{"Carol", "Alice", "Bob"},
		"authors|sequence": map[string]any{"0": float64(2), "1": float64(0), "2": float64(1)},
	}

	Restore(record)

	assert.Equal(t, []any{"Alice", "Bob", "Carol"}, record["authors"])
	_, facetRemains := record["authors|sequence"]
	assert.False(t, facetRemains)
}

func TestRestore_RoundTrip(t *testing.T) {
	// Writing N elements assigns sequence 0..N-1; whatever order the
	// transport returns them in, restoration recovers the write order.
	written := []any{"a", "b", "c", "d"}
	shuffled := []any{"d", "b", "a", "c"}
	facets := map[string]any{"0": 3, "1": 1, "2": 0, "3": 2}

	record := map[string]any{"items": shuffled, "items|sequence": facets}
	Restore(record)
	assert.Equal(t, written, record["items"])
}

func TestRestore_Idempotent(t *testing.T) {
	record := map[string]any{
		"authors":          []any{"B", "A"},
		"authors|sequence": map[string]any{"0": 1, "1": 0},
	}

	Restore(record)
	first := append([]any(nil), record["authors"].([]any)...)
	Restore(record)

	assert.Equal(t, first, record["authors"])
}

func TestRestore_NoFacetsIsNoop(t *testing.T) {
	record := map[string]any{
		"name":  "Der Standard",
		"langs": []any{"de", "en"},
	}
	Restore(record)
	assert.Equal(t, []any{"de", "en"}, record["langs"])
}

func TestRestore_PartialFacetMapKeepsTailInFetchOrder(t *testing.T) {
	record := map[string]any{
		"items":          []any{"x", "y", "z"},
		"items|sequence": map[string]any{"1": 0, "2": 1},
	}
	Restore(record)
	// y and z carry order info, x does not and stays at the tail.
	assert.Equal(t, []any{"y", "z", "x"}, record["items"])
}

func TestRestore_RecursesThroughNestedEntries(t *testing.T) {
	record := map[string]any{
		"name": "Org",
		"publishes": []any{
			map[string]any{
				"name":             "Paper",
				"authors":          []any{"B", "A"},
				"authors|sequence": map[string]any{"0": 1, "1": 0},
			},
		},
		"country": map[string]any{
			"name":            "Austria",
			"cities":          []any{"Graz", "Wien"},
			"cities|sequence": map[string]any{"0": 1, "1": 0},
		},
	}

	Restore(record)

	paper := record["publishes"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"A", "B"}, paper["authors"])
	country := record["country"].(map[string]any)
	assert.Equal(t, []any{"Wien", "Graz"}, country["cities"])
}

func TestRestore_StringFacetValues(t *testing.T) {
	record := map[string]any{
		"items":          []any{"b", "a"},
		"items|sequence": map[string]any{"0": "1", "1": "0"},
	}
	Restore(record)
	assert.Equal(t, []any{"a", "b"}, record["items"])
}
