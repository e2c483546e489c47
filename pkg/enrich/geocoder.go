package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Geocoder resolves postal addresses against a Nominatim-compatible
// endpoint. It satisfies the schema package's geocoding contract.
type Geocoder struct {
	base
}

func NewGeocoder(cfg Config, logger ectologger.Logger) *Geocoder {
	return &Geocoder{base{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   newHTTPClient(cfg.Timeout),
		logger:   logger,
	}}
}

// Locate resolves an address to a coordinate. One best match is requested;
// no match is ErrNotFound, never a zero coordinate.
func (g *Geocoder) Locate(ctx context.Context, address string) (*models.GeoPoint, error) {
	ctx, span := tracing.StartSpan(ctx, "enrich.Geocoder.Locate")
	defer span.End()

	query := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := g.get(ctx, g.endpoint+"/search?"+query.Encode(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed longitude %q: %w", results[0].Lon, err)
	}

	pt := models.NewGeoPoint(lon, lat)
	return &pt, nil
}

// Reverse resolves a coordinate back to a display address
func (g *Geocoder) Reverse(ctx context.Context, pt models.GeoPoint) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "enrich.Geocoder.Reverse")
	defer span.End()

	query := url.Values{
		"lat":    {strconv.FormatFloat(pt.Coordinates[1], 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(pt.Coordinates[0], 'f', -1, 64)},
		"format": {"json"},
	}
	var result struct {
		DisplayName string `json:"display_name"`
	}
	if err := g.get(ctx, g.endpoint+"/reverse?"+query.Encode(), &result); err != nil {
		return "", err
	}
	if result.DisplayName == "" {
		return "", ErrNotFound
	}
	return result.DisplayName, nil
}

func (b *base) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.WithContext(ctx).WithError(err).Error("Enrichment request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
