package dql

import (
	"strings"
)

// Query is an ordered sequence of named blocks sharing one variable
// preamble. Later blocks may reference earlier blocks' alias bindings, which
// is how traversal patterns (recursive collection + filtered
// materialization) are expressed.
type Query struct {
	Name   string
	Blocks []*Block
}

// NewQuery builds a query from blocks in render order
func NewQuery(name string, blocks ...*Block) *Query {
	return &Query{Name: name, Blocks: blocks}
}

// Vars returns the query's declared variables in declaration order, first
// occurrence wins on duplicate names.
func (q *Query) Vars() []Var {
	seen := make(map[string]bool)
	var out []Var
	for _, b := range q.Blocks {
		for _, v := range b.vars() {
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Bindings returns the variable-name to value map the transport sends
// alongside the rendered text.
func (q *Query) Bindings() map[string]string {
	vars := q.Vars()
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		out[v.Name] = v.Value
	}
	return out
}

// Render produces the query text. Queries with declared variables get the
// `query Name($v: type, ...)` preamble; queries without render bare.
func (q *Query) Render() string {
	var sb strings.Builder
	vars := q.Vars()
	if len(vars) > 0 {
		sb.WriteString("query ")
		sb.WriteString(CleanPredicate(q.Name))
		sb.WriteString("(")
		decls := make([]string, len(vars))
		for i, v := range vars {
			decls[i] = v.Name + ": " + string(v.Type)
		}
		sb.WriteString(strings.Join(decls, ", "))
		sb.WriteString(") {\n")
	} else {
		sb.WriteString("{\n")
	}
	for _, b := range q.Blocks {
		sb.WriteString(b.render())
	}
	sb.WriteString("}")
	return sb.String()
}
