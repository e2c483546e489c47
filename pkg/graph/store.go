package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/dql"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/sequence"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// choiceSetLimit bounds pick-list loads; the auxiliary types these come
// from stay far below it.
const choiceSetLimit = 1000

// Store is the typed read surface over the raw client. It satisfies the
// sanitizer's Store contract and serves the query routes. Fetched entries
// pass through sequence restoration before being returned.
type Store struct {
	client *Client
	logger ectologger.Logger
}

func NewStore(client *Client, logger ectologger.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// TypesOf returns the type labels of an existing node, nil when the uid is
// unknown.
func (s *Store) TypesOf(ctx context.Context, uid string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Store.TypesOf")
	defer span.End()

	q := dql.NewQuery("TypesOf", &dql.Block{
		Name:   "data",
		Func:   dql.UID(uid),
		Fields: []dql.Field{{Name: "dgraph.type"}},
	})
	entries, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return stringList(entries[0]["dgraph.type"]), nil
}

// ChoiceValues loads the name values of an auxiliary entity type, feeding
// the registry's lazily populated pick lists.
func (s *Store) ChoiceValues(ctx context.Context, entityType string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Store.ChoiceValues")
	defer span.End()

	q := dql.NewQuery("ChoiceValues", &dql.Block{
		Name:   "data",
		Func:   dql.Type(entityType),
		Fields: []dql.Field{{Name: "name"}},
		First:  choiceSetLimit,
	})
	entries, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	metrics.ChoiceSetLoads.Inc()
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := e["name"].(string); ok && name != "" {
			values = append(values, name)
		}
	}
	return values, nil
}

// ByUniqueName fetches the entry carrying the given slug, nil when none does
func (s *Store) ByUniqueName(ctx context.Context, slug string) (models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Store.ByUniqueName")
	defer span.End()

	v := dql.NewVar(0, dql.VarString, slug)
	return s.first(ctx, dql.NewQuery("ByUniqueName", &dql.Block{
		Name: "data",
		Func: dql.Eq(models.PredUniqueName, v),
		Fields: []dql.Field{
			{Name: "uid"},
			{Name: models.PredUniqueName},
			{Name: "name"},
		},
	}))
}

// ByExternalID fetches the entry whose external identifier predicate (doi,
// handle) carries the given value.
func (s *Store) ByExternalID(ctx context.Context, pred, value string) (models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Store.ByExternalID")
	defer span.End()

	v := dql.NewVar(0, dql.VarString, value)
	return s.first(ctx, dql.NewQuery("ByExternalID", &dql.Block{
		Name: "data",
		Func: dql.Eq(pred, v),
		Fields: []dql.Field{
			{Name: "uid"},
			{Name: models.PredUniqueName},
		},
	}))
}

// Current fetches the stored values of the named predicates for one entry,
// nil when the uid does not exist.
func (s *Store) Current(ctx context.Context, uid string, preds []string) (models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Store.Current")
	defer span.End()

	fields := make([]dql.Field, 0, len(preds)+1)
	fields = append(fields, dql.Field{Name: "uid"})
	for _, p := range preds {
		fields = append(fields, dql.Field{Name: p, Facets: true, Children: []dql.Field{
			{Name: "uid"},
			{Name: "name"},
		}})
	}
	return s.first(ctx, dql.NewQuery("Current", &dql.Block{
		Name:   "data",
		Func:   dql.UID(uid),
		Fields: fields,
	}))
}

// ByUID fetches a full entry including nested relationships, restored to
// write order.
func (s *Store) ByUID(ctx context.Context, uid string) (models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Store.ByUID")
	defer span.End()

	return s.first(ctx, dql.NewQuery("ByUID", &dql.Block{
		Name: "data",
		Func: dql.UID(uid),
		Fields: []dql.Field{
			{Name: "uid"},
			{Name: "dgraph.type"},
			{Name: dql.Expand, Facets: true, Children: []dql.Field{
				{Name: "uid"},
				{Name: "dgraph.type"},
				{Name: dql.Expand, Facets: true},
			}},
		},
	}))
}

// Entries runs a compiled filter query and returns the restored result set
func (s *Store) Entries(ctx context.Context, q *dql.Query) ([]models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Store.Entries")
	defer span.End()

	return s.run(ctx, q)
}

// Count runs a compiled counting query
func (s *Store) Count(ctx context.Context, q *dql.Query) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Store.Count")
	defer span.End()

	raw, err := s.client.Query(ctx, q.Render(), q.Bindings())
	if err != nil {
		return 0, err
	}
	var body struct {
		Total []struct {
			Count int `json:"count"`
		} `json:"total"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	if len(body.Total) == 0 {
		return 0, nil
	}
	return body.Total[0].Count, nil
}

func (s *Store) first(ctx context.Context, q *dql.Query) (models.Entry, error) {
	entries, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

func (s *Store) run(ctx context.Context, q *dql.Query) ([]models.Entry, error) {
	raw, err := s.client.Query(ctx, q.Render(), q.Bindings())
	if err != nil {
		return nil, err
	}
	var body map[string][]models.Entry
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	entries := body["data"]
	for _, e := range entries {
		sequence.Restore(e)
	}
	return entries, nil
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	case string:
		return []string{t}
	}
	return nil
}
