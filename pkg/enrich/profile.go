package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ProfileResolver looks up contributor handles (ORCID iDs, social handles)
// against an external profile registry.
type ProfileResolver struct {
	base
}

func NewProfileResolver(cfg Config, logger ectologger.Logger) *ProfileResolver {
	return &ProfileResolver{base{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   newHTTPClient(cfg.Timeout),
		logger:   logger,
	}}
}

// Resolve fetches the profile behind a handle. An unknown handle is
// ErrNotFound; a profile without a name counts as not found rather than a
// partial result.
func (r *ProfileResolver) Resolve(ctx context.Context, handle string) (*models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "enrich.ProfileResolver.Resolve")
	defer span.End()

	var profile models.Profile
	if err := r.get(ctx, r.endpoint+"/"+url.PathEscape(handle), &profile); err != nil {
		return nil, err
	}
	if profile.Name == "" {
		return nil, ErrNotFound
	}
	profile.Handle = handle
	return &profile, nil
}
