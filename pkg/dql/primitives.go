// Package dql renders parameterized Dgraph queries from composable
// primitives. Every primitive renders to one fragment of the query body and
// reports the variables it binds; user-supplied text is never interpolated
// into the body, it travels through declared GraphQL-style variables that
// surface in the query preamble.
package dql

import (
	"fmt"
	"strings"
)

// VarType is the declared scalar type of a query variable
type VarType string

const (
	VarString VarType = "string"
	VarInt    VarType = "int"
	VarFloat  VarType = "float"
	VarBool   VarType = "bool"
)

// Var is a named placeholder bound to a value. Vars are collected once per
// query and rendered as the `query Name($var: type, ...)` preamble, which is
// what keeps untrusted text out of the query body.
type Var struct {
	Name  string
	Type  VarType
	Value string
}

// NewVar builds a variable with the conventional $v<n> naming
func NewVar(n int, t VarType, value string) Var {
	return Var{Name: fmt.Sprintf("$v%d", n), Type: t, Value: value}
}

// Primitive renders one fragment of DQL and reports the vars it binds
type Primitive interface {
	Render() string
	Vars() []Var
}

// funcCall is the common shape of DQL function primitives
type funcCall struct {
	name string
	pred string
	args []string
	vars []Var
}

func (f *funcCall) Render() string {
	parts := make([]string, 0, len(f.args)+1)
	if f.pred != "" {
		parts = append(parts, f.pred)
	}
	parts = append(parts, f.args...)
	return fmt.Sprintf("%s(%s)", f.name, strings.Join(parts, ", "))
}

func (f *funcCall) Vars() []Var {
	return f.vars
}

func varCall(name, pred string, vars ...Var) *funcCall {
	args := make([]string, len(vars))
	for i, v := range vars {
		args[i] = v.Name
	}
	return &funcCall{name: name, pred: CleanPredicate(pred), args: args, vars: vars}
}

// Eq matches any of the given values (multiple values are native OR)
func Eq(pred string, vals ...Var) Primitive { return varCall("eq", pred, vals...) }

// Ge matches values greater than or equal to v
func Ge(pred string, v Var) Primitive { return varCall("ge", pred, v) }

// Gt matches values strictly greater than v
func Gt(pred string, v Var) Primitive { return varCall("gt", pred, v) }

// Le matches values less than or equal to v
func Le(pred string, v Var) Primitive { return varCall("le", pred, v) }

// Lt matches values strictly less than v
func Lt(pred string, v Var) Primitive { return varCall("lt", pred, v) }

// Between matches values in the inclusive [lo, hi] range
func Between(pred string, lo, hi Var) Primitive { return varCall("between", pred, lo, hi) }

// AllOfTerms matches entries containing every term in v
func AllOfTerms(pred string, v Var) Primitive { return varCall("allofterms", pred, v) }

// AnyOfTerms matches entries containing at least one term in v
func AnyOfTerms(pred string, v Var) Primitive { return varCall("anyofterms", pred, v) }

// Match fuzzy-matches v against a trigram-indexed predicate
func Match(pred string, v Var, distance int) Primitive {
	c := varCall("match", pred, v)
	c.args = append(c.args, fmt.Sprintf("%d", distance))
	return c
}

// Regexp matches a regular expression. Patterns cannot travel through
// variables, so the pattern is embedded with slashes escaped.
func Regexp(pred, pattern string) Primitive {
	escaped := strings.ReplaceAll(pattern, "/", `\/`)
	return &funcCall{name: "regexp", pred: CleanPredicate(pred), args: []string{"/" + escaped + "/i"}}
}

// UIDIn is the reverse-edge membership test: entries whose pred edge points
// at one of the given uids. UIDs are structural and validated, not bound.
func UIDIn(pred string, uids ...string) Primitive {
	return &funcCall{name: "uid_in", pred: CleanPredicate(pred), args: cleanUIDs(uids)}
}

// UID restricts to an explicit uid set. Accepts hex uids or names of var
// bindings declared by earlier blocks.
func UID(refs ...string) Primitive {
	return &funcCall{name: "uid", args: cleanUIDs(refs)}
}

// Has matches entries that carry the predicate at all
func Has(pred string) Primitive {
	return &funcCall{name: "has", pred: CleanPredicate(pred)}
}

// Type restricts to nodes carrying the given type label
func Type(name string) Primitive {
	return &funcCall{name: "type", pred: CleanPredicate(name)}
}

// group joins several primitives into one clause with a single connector, so
// a multi-value comparison can carry its own connector independently of the
// connector joining the block's filter clauses.
type group struct {
	conn  Connector
	parts []Primitive
}

func (g *group) Render() string {
	if len(g.parts) == 1 {
		return g.parts[0].Render()
	}
	clauses := make([]string, len(g.parts))
	for i, p := range g.parts {
		clauses[i] = "(" + p.Render() + ")"
	}
	return strings.Join(clauses, " "+string(g.conn)+" ")
}

func (g *group) Vars() []Var {
	var out []Var
	for _, p := range g.parts {
		out = append(out, p.Vars()...)
	}
	return out
}

// Group joins primitives into a single clause. A one-element group renders
// as the element itself.
func Group(conn Connector, parts ...Primitive) Primitive {
	return &group{conn: conn, parts: parts}
}

// CleanPredicate strips every character that is not legal in a predicate or
// type identifier. This is the structural guard for the few places where an
// identifier has to appear in the query body itself.
func CleanPredicate(pred string) string {
	var b strings.Builder
	for _, c := range pred {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
			c == '_' || c == '.' || c == '|' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func cleanUIDs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r = CleanPredicate(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
