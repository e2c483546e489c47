package schema

import (
	"github.com/Ramsey-B/fern/pkg/models"
)

// DefaultRegistry registers the inventory's entity types. The set is
// configuration layered on top of the engine: the engine itself only sees
// the registry.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(
		entryType(),
		sourceType(),
		organizationType(),
		archiveType(),
		datasetType(),
		toolType(),
		publicationType(),
		countryType(),
		channelType(),
		languageType(),
		subunitType(),
		userType(),
	)
}

// entryType is the shared base: naming, review state and provenance
func entryType() *EntityType {
	return &EntityType{
		Name:        "Entry",
		CreateLevel: models.PermissionAdmin,
		Declared: []*Predicate{
			{
				Name:       "name",
				Type:       String,
				Required:   true,
				Directives: []string{"@index(term, trigram)"},
			},
			{
				Name:       "other_names",
				Type:       String,
				List:       true,
				Directives: []string{"@index(term)"},
			},
			{
				Name: "description",
				Type: String,
			},
			{
				Name:       models.PredReviewStatus,
				Type:       Choice,
				Choices:    []string{"draft", "pending", "accepted", "rejected"},
				Permission: models.PermissionReviewer,
				Directives: []string{"@index(hash)"},
			},
			{
				Name:       models.PredUniqueName,
				Type:       String,
				ReadOnly:   true,
				Directives: []string{"@index(hash)", "@upsert"},
			},
			{
				Name:     models.PredDateCreated,
				Type:     DateTime,
				ReadOnly: true,
				Hidden:   true,
			},
			{
				Name:     models.PredDateModified,
				Type:     DateTime,
				ReadOnly: true,
				Hidden:   true,
			},
			{
				Name:       models.PredAddedBy,
				Type:       Relationship,
				RelTypes:   []string{"User"},
				ReadOnly:   true,
				Hidden:     true,
				Directives: []string{"@reverse"},
			},
			{
				Name:     models.PredEditedBy,
				Type:     Relationship,
				List:     true,
				RelTypes: []string{"User"},
				ReadOnly: true,
				Hidden:   true,
			},
		},
	}
}

func sourceType() *EntityType {
	return &EntityType{
		Name:        "Source",
		Aliases:     []string{"NewsSource", "news source"},
		Base:        "Entry",
		CreateLevel: models.PermissionContributor,
		SlugContext: []string{"country", "channel"},
		Declared: []*Predicate{
			{
				Name:            "channel",
				Type:            Relationship,
				Required:        true,
				RelTypes:        []string{"Channel"},
				AllowNew:        true,
				AutoloadChoices: true,
				ChoicesFrom:     "Channel",
				Directives:      []string{"@reverse"},
			},
			{
				Name:            "country",
				Type:            Relationship,
				Required:        true,
				RelTypes:        []string{"Country"},
				AllowNew:        true,
				AutoloadChoices: true,
				ChoicesFrom:     "Country",
				Directives:      []string{"@reverse"},
			},
			{
				Name:            "languages",
				Type:            Choice,
				List:            true,
				AutoloadChoices: true,
				ChoicesFrom:     "Language",
				Directives:      []string{"@index(term)"},
			},
			{
				Name:       "payment_model",
				Type:       Choice,
				Choices:    []string{"free", "partly free", "not free"},
				Directives: []string{"@index(hash)"},
			},
			{
				Name: "publication_cycle",
				Type: Choice,
				Choices: []string{
					"continuous", "daily", "multiple times per week", "weekly",
					"twice monthly", "monthly", "less than monthly",
				},
			},
			{
				Name:       "geographic_scope",
				Type:       Choice,
				Choices:    []string{"multinational", "national", "subnational"},
				Default:    "national",
				Directives: []string{"@index(hash)"},
			},
			{
				Name:       "website",
				Type:       String,
				Directives: []string{"@index(exact)"},
			},
			{
				Name:          "social_profiles",
				Type:          String,
				List:          true,
				ProfileLookup: true,
				Directives:    []string{"@index(exact)"},
			},
			{
				Name:       "founded",
				Type:       Int,
				Directives: []string{"@index(int)"},
			},
			{
				Name: "audience_size",
				Type: Int,
			},
			{
				Name:     "subunits",
				Type:     Relationship,
				List:     true,
				RelTypes: []string{"Subunit"},
				AllowNew: true,
				Facets:   true,
			},
			{
				Name:     "related_sources",
				Type:     Relationship,
				List:     true,
				RelTypes: []string{"Source"},
			},
		},
	}
}

func organizationType() *EntityType {
	return &EntityType{
		Name:        "Organization",
		Aliases:     []string{"Org"},
		Base:        "Entry",
		CreateLevel: models.PermissionContributor,
		SlugContext: []string{"country"},
		Declared: []*Predicate{
			{
				Name:            "country",
				Type:            Relationship,
				RelTypes:        []string{"Country"},
				AllowNew:        true,
				AutoloadChoices: true,
				ChoicesFrom:     "Country",
				Directives:      []string{"@reverse"},
			},
			{
				Name: "is_ngo",
				Type: Bool,
			},
			{
				Name:       "address",
				Type:       Geo,
				Directives: []string{"@index(geo)"},
			},
			{
				Name:       "founded",
				Type:       Int,
				Directives: []string{"@index(int)"},
			},
			{
				Name:       "owns",
				Type:       Relationship,
				List:       true,
				RelTypes:   []string{"Source", "Archive", "Dataset", "Tool", "Organization"},
				Directives: []string{"@reverse"},
			},
			{
				Name:       "publishes",
				Type:       Relationship,
				List:       true,
				RelTypes:   []string{"Source", "ScientificPublication"},
				Directives: []string{"@reverse"},
			},
		},
	}
}

func archiveType() *EntityType {
	return &EntityType{
		Name:        "Archive",
		Base:        "Entry",
		CreateLevel: models.PermissionContributor,
		Declared: []*Predicate{
			{
				Name:       "url",
				Type:       String,
				Required:   true,
				Directives: []string{"@index(exact)"},
			},
			{
				Name:    "conditions_of_access",
				Type:    Choice,
				Choices: []string{"free", "registration", "purchase"},
			},
			{
				Name: "fulltext_available",
				Type: Bool,
			},
			{
				Name:     "sources_included",
				Type:     Relationship,
				List:     true,
				RelTypes: []string{"Source"},
			},
		},
	}
}

func datasetType() *EntityType {
	return &EntityType{
		Name:        "Dataset",
		Base:        "Entry",
		CreateLevel: models.PermissionContributor,
		ExternalID:  "doi",
		Declared: []*Predicate{
			{
				Name:       "doi",
				Type:       String,
				Directives: []string{"@index(hash)", "@upsert"},
			},
			{
				Name: "url",
				Type: String,
			},
			{
				Name:    "file_formats",
				Type:    Choice,
				List:    true,
				Choices: []string{"csv", "json", "xml", "parquet", "sql", "other"},
			},
			{
				Name: "temporal_coverage_start",
				Type: DateTime,
			},
			{
				Name: "temporal_coverage_end",
				Type: DateTime,
			},
			{
				Name:     "sources_included",
				Type:     Relationship,
				List:     true,
				RelTypes: []string{"Source"},
			},
		},
	}
}

func toolType() *EntityType {
	return &EntityType{
		Name:        "Tool",
		Base:        "Entry",
		CreateLevel: models.PermissionContributor,
		Declared: []*Predicate{
			{
				Name: "url",
				Type: String,
			},
			{
				Name: "open_source",
				Type: Bool,
			},
			{
				Name:    "programming_languages",
				Type:    Choice,
				List:    true,
				Choices: []string{"python", "r", "go", "java", "javascript", "other"},
			},
			{
				Name:    "input_file_formats",
				Type:    Choice,
				List:    true,
				Choices: []string{"csv", "json", "xml", "parquet", "sql", "other"},
			},
		},
	}
}

func publicationType() *EntityType {
	return &EntityType{
		Name:        "ScientificPublication",
		Aliases:     []string{"Publication", "Paper"},
		Base:        "Entry",
		CreateLevel: models.PermissionContributor,
		ExternalID:  "doi",
		Declared: []*Predicate{
			{
				Name:       "doi",
				Type:       String,
				Directives: []string{"@index(hash)", "@upsert"},
			},
			{
				Name:       "authors",
				Type:       String,
				List:       true,
				Ordered:    true,
				Facets:     true,
				Directives: []string{"@index(term)"},
			},
			{
				Name: "venue",
				Type: String,
			},
			{
				Name: "publication_date",
				Type: DateTime,
			},
			{
				Name: "url",
				Type: String,
			},
			{
				Name:     "uses_datasets",
				Type:     Relationship,
				List:     true,
				RelTypes: []string{"Dataset"},
			},
		},
	}
}

// countryType, channelType and languageType are the auxiliary pick-list
// types. Private: they feed choice sets and relationship targets but are
// never queryable from filter input.
func countryType() *EntityType {
	return &EntityType{
		Name:        "Country",
		Private:     true,
		CreateLevel: models.PermissionAdmin,
		Declared: []*Predicate{
			{
				Name:       "name",
				Type:       String,
				Required:   true,
				Directives: []string{"@index(term)"},
			},
			{
				Name:       "iso_code",
				Type:       String,
				Directives: []string{"@index(exact)", "@upsert"},
			},
			{
				Name:    "region",
				Type:    Choice,
				Choices: []string{"africa", "americas", "asia", "europe", "oceania"},
			},
			{
				Name:     models.PredUniqueName,
				Type:     String,
				ReadOnly: true,
				Directives: []string{
					"@index(hash)", "@upsert",
				},
			},
		},
	}
}

func channelType() *EntityType {
	return &EntityType{
		Name:        "Channel",
		Private:     true,
		CreateLevel: models.PermissionAdmin,
		Declared: []*Predicate{
			{
				Name:       "name",
				Type:       String,
				Required:   true,
				Directives: []string{"@index(term)"},
			},
			{
				Name:       models.PredUniqueName,
				Type:       String,
				ReadOnly:   true,
				Directives: []string{"@index(hash)", "@upsert"},
			},
		},
	}
}

func languageType() *EntityType {
	return &EntityType{
		Name:        "Language",
		Private:     true,
		CreateLevel: models.PermissionAdmin,
		Declared: []*Predicate{
			{
				Name:       "name",
				Type:       String,
				Required:   true,
				Directives: []string{"@index(term)"},
			},
			{
				Name:       "iso_code",
				Type:       String,
				Directives: []string{"@index(exact)", "@upsert"},
			},
		},
	}
}

// subunitType covers sub-editions of a source (local desks, supplements).
// Private: reachable only through its parent source, never from filters.
func subunitType() *EntityType {
	return &EntityType{
		Name:        "Subunit",
		Base:        "Entry",
		Private:     true,
		CreateLevel: models.PermissionContributor,
		Declared: []*Predicate{
			{
				Name:            "primary_language",
				Type:            Choice,
				AutoloadChoices: true,
				ChoicesFrom:     "Language",
			},
		},
	}
}

func userType() *EntityType {
	return &EntityType{
		Name:        "User",
		Private:     true,
		CreateLevel: models.PermissionAdmin,
		Declared: []*Predicate{
			{
				Name:       "display_name",
				Type:       String,
				Required:   true,
				Directives: []string{"@index(term)"},
			},
			{
				Name:       "orcid",
				Type:       String,
				Directives: []string{"@index(exact)"},
			},
		},
	}
}
