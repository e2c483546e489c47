package models

// CreateEntryRequest is the request body for creating an entry
type CreateEntryRequest struct {
	Data        map[string]any `json:"data" validate:"required"`
	ForceCreate bool           `json:"force_create,omitempty"`
}

// EditEntryRequest is the request body for editing an existing entry
type EditEntryRequest struct {
	UID  string         `json:"uid" validate:"required"`
	Data map[string]any `json:"data" validate:"required"`
}

// CreateEntryResponse reports the identifier allocated for a new entry
type CreateEntryResponse struct {
	UID        string `json:"uid"`
	UniqueName string `json:"unique_name,omitempty"`
}

// EditEntryResponse confirms an edit and lists replaced predicates
type EditEntryResponse struct {
	UID         string   `json:"uid"`
	Overwritten []string `json:"overwritten,omitempty"`
}

// QueryEntriesResponse is the response for entry queries
type QueryEntriesResponse struct {
	Items []Entry `json:"items"`
	Total int     `json:"total,omitempty"`
}

// CountResponse is the response for count queries
type CountResponse struct {
	Count int `json:"count"`
}
