// Package sequence recovers list ordering from edge facets. The graph store
// does not guarantee that edge order survives a round trip, so ordered list
// predicates are written with an integer sequence facet per element; Restore
// is the read-side inverse of that write-side step.
package sequence

import (
	"sort"
	"strconv"
	"strings"
)

const facetSuffix = "|sequence"

// Restore reorders every list-valued predicate in the record that carries a
// sibling `pred|sequence` facet map, recursing through nested related
// entries. The facet map is consumed, which makes the transform idempotent:
// a second call finds nothing left to do. Elements the facet map does not
// cover keep their fetched order at the tail.
func Restore(record map[string]any) {
	for key, val := range record {
		if strings.Contains(key, "|") {
			continue
		}
		switch v := val.(type) {
		case []any:
			facetKey := key + facetSuffix
			if facets, ok := record[facetKey].(map[string]any); ok {
				v = reorder(v, facets)
				record[key] = v
				delete(record, facetKey)
			}
			for _, el := range v {
				if nested, ok := el.(map[string]any); ok {
					Restore(nested)
				}
			}
		case map[string]any:
			Restore(v)
		}
	}
}

// reorder sorts the annotated elements by their sequence value and appends
// the unannotated remainder in fetch order.
func reorder(list []any, facets map[string]any) []any {
	type ranked struct {
		seq int
		el  any
	}
	head := make([]ranked, 0, len(list))
	var tail []any

	for i, el := range list {
		if seq, ok := facetInt(facets[strconv.Itoa(i)]); ok {
			head = append(head, ranked{seq: seq, el: el})
		} else {
			tail = append(tail, el)
		}
	}

	sort.SliceStable(head, func(a, b int) bool { return head[a].seq < head[b].seq })

	out := make([]any, 0, len(list))
	for _, r := range head {
		out = append(out, r.el)
	}
	return append(out, tail...)
}

// facetInt parses a facet value; the store returns JSON numbers as float64
// but string and int forms show up in older exports.
func facetInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		return parsed, err == nil
	}
	return 0, false
}
