package sanitize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/dql"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// quadWriter accumulates one side of a mutation set. Quads are written in
// catalogue order so the same input always serializes to the same bytes.
type quadWriter struct {
	buf bytes.Buffer
}

func (w *quadWriter) quad(subject, pred, object string, facets map[string]any) {
	w.buf.WriteString(subject)
	w.buf.WriteString(" <")
	w.buf.WriteString(dql.CleanPredicate(pred))
	w.buf.WriteString("> ")
	w.buf.WriteString(object)
	if len(facets) > 0 {
		keys := make([]string, 0, len(facets))
		for k := range facets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = dql.CleanPredicate(k) + "=" + facetValue(facets[k])
		}
		w.buf.WriteString(" (")
		w.buf.WriteString(strings.Join(parts, ", "))
		w.buf.WriteString(")")
	}
	w.buf.WriteString(" .\n")
}

func (w *quadWriter) bytes() []byte {
	if w.buf.Len() == 0 {
		return nil
	}
	return w.buf.Bytes()
}

// facetValue renders a facet literal: numbers bare, everything else quoted
func facetValue(v any) string {
	switch t := v.(type) {
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return literal(fmt.Sprint(v))
	}
}

func literal(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

func uidRef(uid string) string {
	return "<" + dql.CleanPredicate(uid) + ">"
}

// object renders a validated value as an N-Quad object term
func object(p *schema.Predicate, v schema.Value) string {
	switch d := v.Data.(type) {
	case models.GeoPoint:
		b, _ := json.Marshal(d)
		return `"` + literalEscaper.Replace(string(b)) + `"^^<geo:geojson>`
	case bool:
		return literal(strconv.FormatBool(d))
	case int64:
		return literal(strconv.FormatInt(d, 10))
	case float64:
		return literal(strconv.FormatFloat(d, 'f', -1, 64))
	case string:
		if p.Type == schema.Relationship {
			if strings.HasPrefix(d, "_:") {
				return d
			}
			return uidRef(d)
		}
		return literal(d)
	default:
		return literal(fmt.Sprint(d))
	}
}
