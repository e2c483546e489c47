package dql

import (
	"fmt"
	"strings"
)

// Connector joins the filter predicates of one block. A block never mixes
// connectors, so there is no precedence to reason about.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

// Field is one entry in a block's fetch list. Facets fetches the edge's
// facet values alongside the edge; FacetFilter restricts the edge by a facet
// comparison instead of a node predicate.
type Field struct {
	Name        string
	Facets      bool
	FacetFilter Primitive
	Children    []Field
}

// Expand is the fetch-everything field name
const Expand = "expand(_all_)"

func (f Field) render(indent string) string {
	var b strings.Builder
	b.WriteString(indent)
	if f.Name == Expand {
		b.WriteString(Expand)
	} else {
		b.WriteString(CleanPredicate(f.Name))
	}
	if f.FacetFilter != nil {
		b.WriteString(" @facets(")
		b.WriteString(f.FacetFilter.Render())
		b.WriteString(")")
	}
	if f.Facets {
		b.WriteString(" @facets")
	}
	if len(f.Children) > 0 {
		b.WriteString(" {\n")
		for _, c := range f.Children {
			b.WriteString(c.render(indent + "  "))
		}
		b.WriteString(indent)
		b.WriteString("}")
	}
	b.WriteString("\n")
	return b.String()
}

func (f Field) vars() []Var {
	var out []Var
	if f.FacetFilter != nil {
		out = append(out, f.FacetFilter.Vars()...)
	}
	for _, c := range f.Children {
		out = append(out, c.vars()...)
	}
	return out
}

// Recurse makes a block collect nodes transitively along its fetched edges
type Recurse struct {
	Depth int
	Loop  bool
}

// Block is one named sub-query: a root function, filters joined by a single
// connector, an ordered fetch list and optional pagination. Blocks with an
// Alias bind their uid set for later blocks to reference with uid(alias).
type Block struct {
	Name      string
	Alias     string
	IsVar     bool
	Func      Primitive
	Connector Connector
	Filters   []Primitive
	Fields    []Field
	First     int
	Offset    int
	CountOnly bool
	Recurse   *Recurse
}

// render writes the block with the fixed clause order: function, filter,
// fetch. An empty filter list renders no @filter clause at all.
func (b *Block) render() string {
	var sb strings.Builder
	sb.WriteString("  ")
	if b.Alias != "" {
		sb.WriteString(b.Alias)
		sb.WriteString(" as ")
	}
	if b.IsVar {
		sb.WriteString("var")
	} else {
		sb.WriteString(CleanPredicate(b.Name))
	}
	sb.WriteString("(func: ")
	sb.WriteString(b.Func.Render())
	if !b.CountOnly {
		if b.First > 0 {
			fmt.Fprintf(&sb, ", first: %d", b.First)
		}
		if b.Offset > 0 {
			fmt.Fprintf(&sb, ", offset: %d", b.Offset)
		}
	}
	sb.WriteString(")")

	if len(b.Filters) > 0 {
		conn := b.Connector
		if conn == "" {
			conn = And
		}
		clauses := make([]string, len(b.Filters))
		for i, f := range b.Filters {
			clauses[i] = "(" + f.Render() + ")"
		}
		sb.WriteString(" @filter(")
		sb.WriteString(strings.Join(clauses, " "+string(conn)+" "))
		sb.WriteString(")")
	}

	if b.Recurse != nil {
		fmt.Fprintf(&sb, " @recurse(depth: %d, loop: %t)", b.Recurse.Depth, b.Recurse.Loop)
	}

	sb.WriteString(" {\n")
	switch {
	case b.CountOnly:
		sb.WriteString("    count(uid)\n")
	case len(b.Fields) == 0:
		sb.WriteString("    uid\n")
	default:
		for _, f := range b.Fields {
			sb.WriteString(f.render("    "))
		}
	}
	sb.WriteString("  }\n")
	return sb.String()
}

// vars collects the block's variables in clause order
func (b *Block) vars() []Var {
	var out []Var
	if b.Func != nil {
		out = append(out, b.Func.Vars()...)
	}
	for _, f := range b.Filters {
		out = append(out, f.Vars()...)
	}
	for _, f := range b.Fields {
		out = append(out, f.vars()...)
	}
	return out
}
