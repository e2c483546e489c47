package schema

import (
	"sort"
	"strings"
)

// DDL renders the Dgraph schema alteration covering every registered
// predicate and type. Identically named predicates across types share one
// declaration; the registry guarantees their storage types agree.
func (r *Registry) DDL() string {
	seen := make(map[string]string)
	var names []string

	for _, t := range r.Types() {
		for _, p := range t.Predicates() {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = predicateDDL(p)
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(seen[name])
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, t := range r.Types() {
		sb.WriteString("type ")
		sb.WriteString(t.Name)
		sb.WriteString(" {\n")
		for _, p := range t.Predicates() {
			sb.WriteString("  ")
			sb.WriteString(p.Name)
			sb.WriteString("\n")
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

func predicateDDL(p *Predicate) string {
	var sb strings.Builder
	sb.WriteString(p.Name)
	sb.WriteString(": ")

	storage := storageType(p)
	if p.List {
		sb.WriteString("[")
		sb.WriteString(storage)
		sb.WriteString("]")
	} else {
		sb.WriteString(storage)
	}
	for _, d := range p.Directives {
		sb.WriteString(" ")
		sb.WriteString(d)
	}
	sb.WriteString(" .")
	return sb.String()
}

func storageType(p *Predicate) string {
	switch p.Type {
	case Choice:
		return "string"
	case Relationship:
		return "uid"
	case DateTime:
		return "datetime"
	case Geo:
		return "geo"
	default:
		return string(p.Type)
	}
}
