// Package service orchestrates the engine's pipelines: sanitize then
// commit then emit for writes, compile then run then restore for reads.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/filters"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/sanitize"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// EntryService runs the create/edit/query operations end to end. Mutation
// sets are built fully in memory before they touch the transport, so a
// caller that gives up mid-request leaves no partial writes behind.
type EntryService struct {
	sanitizer *sanitize.Sanitizer
	compiler  *filters.Compiler
	store     *graph.Store
	client    *graph.Client
	emitter   *events.Emitter
	logger    ectologger.Logger
}

func NewEntryService(
	sanitizer *sanitize.Sanitizer,
	compiler *filters.Compiler,
	store *graph.Store,
	client *graph.Client,
	emitter *events.Emitter,
	logger ectologger.Logger,
) *EntryService {
	return &EntryService{
		sanitizer: sanitizer,
		compiler:  compiler,
		store:     store,
		client:    client,
		emitter:   emitter,
		logger:    logger,
	}
}

// Create sanitizes and commits a new entry, returning the allocated uid
func (s *EntryService) Create(ctx context.Context, typeName string, req *models.CreateEntryRequest, actor models.Actor) (*models.CreateEntryResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "service.EntryService.Create")
	defer span.End()
	start := time.Now()

	res, err := s.sanitizer.Create(ctx, typeName, req.Data, actor, req.ForceCreate)
	if err != nil {
		var dup *models.DuplicateError
		if errors.As(err, &dup) {
			metrics.DuplicatesDetected.WithLabelValues(typeName).Inc()
		}
		metrics.MutationsTotal.WithLabelValues("create", typeName, "rejected").Inc()
		return nil, err
	}

	uids, err := s.client.Mutate(ctx, res.Mutation)
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("create", typeName, "failed").Inc()
		return nil, err
	}
	uid, ok := uids[res.TempID]
	if !ok {
		return nil, fmt.Errorf("transport did not allocate a uid for %s", res.TempID)
	}

	metrics.MutationsTotal.WithLabelValues("create", typeName, "committed").Inc()
	metrics.MutationDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())

	if s.emitter != nil {
		if err := s.emitter.EmitEntryCreated(ctx, typeName, uid, res.TempID, actor, req.Data); err != nil {
			metrics.EventsPublished.WithLabelValues(string(events.EventTypeEntryCreated), "failed").Inc()
		} else {
			metrics.EventsPublished.WithLabelValues(string(events.EventTypeEntryCreated), "published").Inc()
		}
	}

	return &models.CreateEntryResponse{UID: uid, UniqueName: res.TempID}, nil
}

// Edit sanitizes and commits a partial update to an existing entry
func (s *EntryService) Edit(ctx context.Context, typeName string, req *models.EditEntryRequest, actor models.Actor) (*models.EditEntryResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "service.EntryService.Edit")
	defer span.End()
	start := time.Now()

	res, err := s.sanitizer.Edit(ctx, typeName, req.UID, req.Data, actor)
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("edit", typeName, "rejected").Inc()
		return nil, err
	}

	if _, err := s.client.Mutate(ctx, res.Mutation); err != nil {
		metrics.MutationsTotal.WithLabelValues("edit", typeName, "failed").Inc()
		return nil, err
	}

	metrics.MutationsTotal.WithLabelValues("edit", typeName, "committed").Inc()
	metrics.MutationDuration.WithLabelValues("edit").Observe(time.Since(start).Seconds())

	if s.emitter != nil {
		if err := s.emitter.EmitEntryUpdated(ctx, typeName, res.UID, actor, req.Data); err != nil {
			metrics.EventsPublished.WithLabelValues(string(events.EventTypeEntryUpdated), "failed").Inc()
		} else {
			metrics.EventsPublished.WithLabelValues(string(events.EventTypeEntryUpdated), "published").Inc()
		}
	}

	overwritten := make([]string, 0, len(res.Overwritten))
	for pred := range res.Overwritten {
		overwritten = append(overwritten, pred)
	}
	sort.Strings(overwritten)

	return &models.EditEntryResponse{UID: res.UID, Overwritten: overwritten}, nil
}

// Get fetches one entry by uid, restored to write order
func (s *EntryService) Get(ctx context.Context, uid string) (models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "service.EntryService.Get")
	defer span.End()

	return s.store.ByUID(ctx, uid)
}

// Query compiles the filter map and runs it. An empty filter map is an
// empty result set, not a match-everything scan.
func (s *EntryService) Query(ctx context.Context, params map[string][]string) ([]models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "service.EntryService.Query")
	defer span.End()

	q, err := s.compiler.Compile(params)
	if err != nil {
		metrics.QueriesCompiledTotal.WithLabelValues("query", "rejected").Inc()
		return nil, err
	}
	if q == nil {
		metrics.QueriesCompiledTotal.WithLabelValues("query", "empty").Inc()
		return []models.Entry{}, nil
	}
	metrics.QueriesCompiledTotal.WithLabelValues("query", "compiled").Inc()

	start := time.Now()
	entries, err := s.store.Entries(ctx, q)
	metrics.GraphQueryDuration.WithLabelValues("query").Observe(time.Since(start).Seconds())
	return entries, err
}

// Count compiles the counting variant and runs it
func (s *EntryService) Count(ctx context.Context, params map[string][]string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "service.EntryService.Count")
	defer span.End()

	q, err := s.compiler.CompileCount(params)
	if err != nil {
		metrics.QueriesCompiledTotal.WithLabelValues("count", "rejected").Inc()
		return 0, err
	}
	metrics.QueriesCompiledTotal.WithLabelValues("count", "compiled").Inc()

	start := time.Now()
	n, err := s.store.Count(ctx, q)
	metrics.GraphQueryDuration.WithLabelValues("count").Observe(time.Since(start).Seconds())
	return n, err
}
