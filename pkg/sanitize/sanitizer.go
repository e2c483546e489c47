// Package sanitize is the write-side pipeline: it validates raw input
// against the schema catalogue, resolves relationships, computes the
// unique-name slug, diffs edits against stored state and emits the N-Quad
// mutation set the graph transport applies as one atomic batch.
package sanitize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// suffixOverwrite marks an input key requesting replace semantics for an
// otherwise additive list predicate on this specific update.
const suffixOverwrite = "*overwrite"

// Store is the read surface the pipeline needs from the graph: type labels
// for relationship targets, pick lists for autoload choices, and current
// state for duplicate detection and edit diffing. Lookups return a nil
// entry, not an error, when nothing matches.
type Store interface {
	schema.TypeResolver
	schema.ChoiceLoader
	ByUniqueName(ctx context.Context, slug string) (models.Entry, error)
	ByExternalID(ctx context.Context, pred, value string) (models.Entry, error)
	Current(ctx context.Context, uid string, preds []string) (models.Entry, error)
}

type Sanitizer struct {
	registry *schema.Registry
	store    Store
	geocoder schema.Geocoder
	profiles schema.ProfileResolver
	logger   ectologger.Logger
}

func New(registry *schema.Registry, store Store, geocoder schema.Geocoder, profiles schema.ProfileResolver, logger ectologger.Logger) *Sanitizer {
	return &Sanitizer{
		registry: registry,
		store:    store,
		geocoder: geocoder,
		profiles: profiles,
		logger:   logger,
	}
}

// Create validates input for a new entry and emits the set-quads creating
// it under a blank-node label. force skips duplicate detection after the
// caller has decided to create anyway.
func (s *Sanitizer) Create(ctx context.Context, typeName string, input models.Entry, actor models.Actor, force bool) (*models.CreateResult, error) {
	t := s.registry.Get(typeName)
	if t == nil {
		return nil, &models.ForbiddenTypeError{Type: typeName}
	}
	if actor.Permission < t.CreateLevel {
		return nil, &models.PermissionError{
			Message:  fmt.Sprintf("creating %s entries requires permission level %d", t.Name, t.CreateLevel),
			Required: t.CreateLevel,
			Actual:   actor.Permission,
		}
	}

	fields, err := s.validateFields(ctx, t, input, actor, true)
	if err != nil {
		return nil, err
	}
	if _, ok := fields[models.PredReviewStatus]; !ok {
		fields[models.PredReviewStatus] = []schema.Value{{Data: string(models.ReviewPending)}}
	}

	slug := s.slug(t, input)
	if slug == "" {
		verr := &models.ValidationError{}
		verr.Add("name", "is required to derive a unique name")
		return nil, verr
	}
	if !force {
		if err := s.checkDuplicate(ctx, t, input, slug); err != nil {
			return nil, err
		}
	}

	subject := "_:" + slug
	now := models.Timestamp(time.Now())
	w := &quadWriter{}
	for _, label := range t.Labels() {
		w.quad(subject, "dgraph.type", literal(label), nil)
	}
	w.quad(subject, models.PredUniqueName, literal(slug), nil)
	w.quad(subject, models.PredDateCreated, literal(now), nil)
	w.quad(subject, models.PredDateModified, literal(now), nil)
	if actor.UID != "" {
		w.quad(subject, models.PredAddedBy, uidRef(actor.UID), nil)
	}
	s.emitFields(w, t, subject, fields)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"type":        t.Name,
		"unique_name": slug,
	}).Info("Sanitized create mutation")

	return &models.CreateResult{
		Mutation: models.MutationSet{SetNquads: w.bytes()},
		TempID:   slug,
	}, nil
}

// Edit validates a partial update against an existing entry and emits the
// minimal set/delete quad pair. Predicates with replace semantics, and list
// predicates the caller flagged with *overwrite, get a delete-old quad and
// are reported in the result's Overwritten map; additive list predicates
// merge without deleting.
func (s *Sanitizer) Edit(ctx context.Context, typeName, uid string, input models.Entry, actor models.Actor) (*models.EditResult, error) {
	t := s.registry.Get(typeName)
	if t == nil {
		return nil, &models.ForbiddenTypeError{Type: typeName}
	}
	if !schema.IsUID(uid) {
		verr := &models.ValidationError{}
		verr.Add("uid", fmt.Sprintf("%q is not a valid identifier", uid))
		return nil, verr
	}

	input, overwrite := splitOverwriteKeys(input)

	current, err := s.store.Current(ctx, uid, s.currentPreds(t, input))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current state of %s: %w", uid, err)
	}
	if current == nil {
		return nil, fmt.Errorf("entry %s does not exist", uid)
	}

	if err := checkOwnership(current, actor); err != nil {
		return nil, err
	}

	fields, err := s.validateFields(ctx, t, input, actor, false)
	if err != nil {
		return nil, err
	}

	subject := uidRef(uid)
	now := models.Timestamp(time.Now())
	setW, delW := &quadWriter{}, &quadWriter{}
	overwritten := make(map[string]bool)

	for _, p := range t.Predicates() {
		vals, ok := fields[p.Name]
		if !ok {
			continue
		}
		if (p.Replaces() || overwrite[p.Name]) && hasValue(current, p.Name) {
			delW.quad(subject, p.Name, "*", nil)
			overwritten[p.Name] = true
		}
		s.emitValues(setW, subject, p, vals)
	}

	delW.quad(subject, models.PredDateModified, "*", nil)
	setW.quad(subject, models.PredDateModified, literal(now), nil)
	if actor.UID != "" {
		delW.quad(subject, models.PredEditedBy, "*", nil)
		setW.quad(subject, models.PredEditedBy, uidRef(actor.UID), nil)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"type":        t.Name,
		"uid":         uid,
		"overwritten": len(overwritten),
	}).Info("Sanitized edit mutation")

	return &models.EditResult{
		Mutation:    models.MutationSet{SetNquads: setW.bytes(), DelNquads: delW.bytes()},
		UID:         uid,
		Overwritten: overwritten,
	}, nil
}

// validateFields runs the shared validation core: every recognized input
// key is validated through its predicate, failures are aggregated across
// the whole input before anything is raised. Permission failures are the
// exception and short-circuit immediately.
func (s *Sanitizer) validateFields(ctx context.Context, t *schema.EntityType, input models.Entry, actor models.Actor, create bool) (map[string][]schema.Value, error) {
	env := &schema.Env{
		Registry: s.registry,
		Resolver: s.store,
		Choices:  s.store,
		Geocoder: s.geocoder,
		Profiles: s.profiles,
	}
	facets := siblingFacets(input)

	fields := make(map[string][]schema.Value)
	agg := &models.ValidationError{}

	for _, p := range t.Predicates() {
		if p.ReadOnly || p.Hidden {
			continue
		}
		raw, present := input[p.Name]
		if present && empty(raw) {
			present = false
		}
		if !present {
			if !create {
				continue
			}
			if p.Required {
				agg.Add(p.Name, "is required")
			} else if dv := p.DefaultValue(); dv != nil {
				fields[p.Name] = []schema.Value{{Data: dv}}
			}
			continue
		}
		if !create && p.NewOnly {
			agg.Add(p.Name, "can only be set when the entry is created")
			continue
		}
		if actor.Permission < p.Permission {
			return nil, &models.PermissionError{
				Message:  fmt.Sprintf("setting %s requires permission level %d", p.Name, p.Permission),
				Required: p.Permission,
				Actual:   actor.Permission,
			}
		}

		vals, err := p.Validate(ctx, raw, facets[p.Name], env)
		if err != nil {
			var enrich *models.EnrichmentError
			if errors.As(err, &enrich) && !p.Required {
				s.logger.WithContext(ctx).WithError(err).Warn("Dropping optional field after enrichment failure")
				continue
			}
			agg.Add(p.Name, err.Error())
			continue
		}
		if len(vals) > 0 {
			fields[p.Name] = vals
		}
	}

	if agg.HasErrors() {
		return nil, agg
	}
	return fields, nil
}

// slug derives the unique name from the submitted name plus the type's
// disambiguating context predicates, using the raw submitted strings rather
// than resolved references.
func (s *Sanitizer) slug(t *schema.EntityType, input models.Entry) string {
	hints := make([]string, 0, len(t.SlugContext))
	for _, pred := range t.SlugContext {
		hints = append(hints, rawString(input[pred]))
	}
	return normalizers.UniqueName(rawString(input["name"]), hints...)
}

// checkDuplicate surfaces slug and external-identifier collisions as a
// distinct condition the caller resolves: reuse the reported uid, or retry
// with force set.
func (s *Sanitizer) checkDuplicate(ctx context.Context, t *schema.EntityType, input models.Entry, slug string) error {
	if slug != "" {
		existing, err := s.store.ByUniqueName(ctx, slug)
		if err != nil {
			return fmt.Errorf("duplicate check for %q failed: %w", slug, err)
		}
		if existing != nil {
			return &models.DuplicateError{UID: existing.UID(), UniqueName: slug}
		}
	}
	if t.ExternalID == "" {
		return nil
	}
	id := rawString(input[t.ExternalID])
	if id == "" {
		return nil
	}
	existing, err := s.store.ByExternalID(ctx, t.ExternalID, id)
	if err != nil {
		return fmt.Errorf("duplicate check for %s %q failed: %w", t.ExternalID, id, err)
	}
	if existing != nil {
		name, _ := existing[models.PredUniqueName].(string)
		return &models.DuplicateError{UID: existing.UID(), UniqueName: name}
	}
	return nil
}

func (s *Sanitizer) emitFields(w *quadWriter, t *schema.EntityType, subject string, fields map[string][]schema.Value) {
	for _, p := range t.Predicates() {
		if vals, ok := fields[p.Name]; ok {
			s.emitValues(w, subject, p, vals)
		}
	}
}

// emitValues writes one predicate's quads, including the minimal stub quads
// for inline-created related entries.
func (s *Sanitizer) emitValues(w *quadWriter, subject string, p *schema.Predicate, vals []schema.Value) {
	for _, v := range vals {
		w.quad(subject, p.Name, object(p, v), v.Facets)
		if v.Stub == nil {
			continue
		}
		stubSubject, _ := v.Data.(string)
		if stubSubject == "" {
			continue
		}
		stubType, _ := v.Stub["dgraph.type"].(string)
		labels := []string{stubType}
		if st := s.registry.Get(stubType); st != nil {
			labels = st.Labels()
		}
		for _, label := range labels {
			w.quad(stubSubject, "dgraph.type", literal(label), nil)
		}
		for _, key := range []string{"name", models.PredUniqueName, models.PredReviewStatus} {
			if sv, ok := v.Stub[key].(string); ok && sv != "" {
				w.quad(stubSubject, key, literal(sv), nil)
			}
		}
	}
}

// currentPreds lists the stored predicates the edit needs: everything being
// changed plus the provenance fields the ownership gate reads.
func (s *Sanitizer) currentPreds(t *schema.EntityType, input models.Entry) []string {
	preds := []string{models.PredReviewStatus, models.PredAddedBy, models.PredDateModified}
	for _, p := range t.Predicates() {
		if _, ok := input[p.Name]; ok {
			preds = append(preds, p.Name)
		}
	}
	return preds
}

// checkOwnership enforces the draft rule: a draft entry may only be edited
// by its original creator or a reviewer.
func checkOwnership(current models.Entry, actor models.Actor) error {
	status, _ := current[models.PredReviewStatus].(string)
	if models.ReviewStatus(status) != models.ReviewDraft || actor.CanReview() {
		return nil
	}
	if owner := ownerUID(current[models.PredAddedBy]); owner != "" && owner == actor.UID {
		return nil
	}
	return &models.PermissionError{
		Message:  "draft entries may only be edited by their creator or a reviewer",
		Required: models.PermissionReviewer,
		Actual:   actor.Permission,
	}
}

func ownerUID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		uid, _ := t["uid"].(string)
		return uid
	case []any:
		if len(t) > 0 {
			return ownerUID(t[0])
		}
	}
	return ""
}

// splitOverwriteKeys strips *overwrite marker keys from the input and
// returns which predicates the caller wants replaced instead of merged.
func splitOverwriteKeys(input models.Entry) (models.Entry, map[string]bool) {
	overwrite := make(map[string]bool)
	out := make(models.Entry, len(input))
	for key, value := range input {
		if !strings.HasSuffix(key, suffixOverwrite) {
			out[key] = value
			continue
		}
		if truthy(value) {
			overwrite[strings.TrimSuffix(key, suffixOverwrite)] = true
		}
	}
	return out, overwrite
}

// siblingFacets collects facet-qualified input keys (name@kind) into per
// predicate facet maps attached during validation.
func siblingFacets(input models.Entry) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for key, value := range input {
		i := strings.IndexByte(key, '@')
		if i <= 0 || i == len(key)-1 {
			continue
		}
		pred, kind := key[:i], key[i+1:]
		if out[pred] == nil {
			out[pred] = make(map[string]any)
		}
		out[pred][kind] = value
	}
	return out
}

// rawString extracts the raw submitted string for slug and duplicate
// lookups. Resolved references are useless as slug context, so uid-shaped
// values are skipped.
func rawString(v any) string {
	switch t := v.(type) {
	case string:
		if schema.IsUID(t) {
			return ""
		}
		return t
	case map[string]any:
		name, _ := t["name"].(string)
		return name
	case []any:
		if len(t) > 0 {
			return rawString(t[0])
		}
	case []string:
		if len(t) > 0 {
			return rawString(t[0])
		}
	}
	return ""
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true") || t == "1"
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func hasValue(current models.Entry, pred string) bool {
	v, ok := current[pred]
	return ok && !empty(v)
}
