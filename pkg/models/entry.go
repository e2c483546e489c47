package models

import "time"

// ReviewStatus is the editorial state of an entry
type ReviewStatus string

const (
	ReviewDraft    ReviewStatus = "draft"
	ReviewPending  ReviewStatus = "pending"
	ReviewAccepted ReviewStatus = "accepted"
	ReviewRejected ReviewStatus = "rejected"
)

// Valid reports whether s is one of the known review states
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewDraft, ReviewPending, ReviewAccepted, ReviewRejected:
		return true
	}
	return false
}

// PermissionLevel orders actor roles. Higher levels include all lower ones.
type PermissionLevel int

const (
	PermissionAnonymous   PermissionLevel = 0
	PermissionContributor PermissionLevel = 10
	PermissionReviewer    PermissionLevel = 20
	PermissionAdmin       PermissionLevel = 30
)

// Actor is the authenticated user an operation runs on behalf of
type Actor struct {
	UID         string          `json:"uid"`
	DisplayName string          `json:"display_name,omitempty"`
	Permission  PermissionLevel `json:"permission"`
}

// CanReview reports whether the actor may review entries or set review state directly
func (a Actor) CanReview() bool {
	return a.Permission >= PermissionReviewer
}

// Entry is a stored record as fetched from the graph. Keys are predicate
// names; relationship values are nested Entry maps or uid references.
type Entry map[string]any

// UID returns the entry's stable identifier, if present
func (e Entry) UID() string {
	uid, _ := e["uid"].(string)
	return uid
}

// MutationSet is the pair of N-Quad payloads handed to the graph transport
// as one atomic batch. Either side may be empty.
type MutationSet struct {
	SetNquads []byte
	DelNquads []byte
}

// Empty reports whether the mutation would change nothing
func (m MutationSet) Empty() bool {
	return len(m.SetNquads) == 0 && len(m.DelNquads) == 0
}

// CreateResult is the outcome of sanitizing a create request. TempID is the
// blank-node label the transport resolves to a real uid on commit.
type CreateResult struct {
	Mutation MutationSet
	TempID   string
}

// EditResult is the outcome of sanitizing an edit request. Overwritten lists
// the predicates whose stored value was replaced rather than merged.
type EditResult struct {
	Mutation    MutationSet
	UID         string
	Overwritten map[string]bool
}

// GeoPoint is a normalized geographic coordinate, GeoJSON style (lon, lat)
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint builds a GeoPoint from a longitude/latitude pair
func NewGeoPoint(lon, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Profile is a contributor identity resolved from an external profile
// registry (ORCID iDs, social handles)
type Profile struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`
}

// Provenance predicate names shared by every entry
const (
	PredUniqueName   = "_unique_name"
	PredAddedBy      = "_added_by"
	PredEditedBy     = "_edited_by"
	PredDateCreated  = "_date_created"
	PredDateModified = "_date_modified"
	PredReviewStatus = "entry_review_status"
)

// Timestamp formats t the way entry provenance fields store it
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
