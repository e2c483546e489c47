package schema

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// Register registers schema introspection routes
func Register(g *echo.Group) {
	g.GET("/types", ListTypes)
	g.GET("/types/:name", DescribeType)
}

// TypeSummary is one public entity type in the type listing
type TypeSummary struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Base        string   `json:"base,omitempty"`
	CreateLevel int      `json:"create_level"`
}

// TypeDescription is the full describe response for one entity type
type TypeDescription struct {
	TypeSummary
	SlugContext []string                  `json:"slug_context,omitempty"`
	ExternalID  string                    `json:"external_id,omitempty"`
	Fields      []schema.FieldDescription `json:"fields"`
}

// ListTypes lists the public entity types
func ListTypes(c echo.Context) error {
	ctx := c.Request().Context()

	_, registry, err := ectoinject.GetContext[*schema.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	summaries := []TypeSummary{}
	for _, t := range registry.Types() {
		if t.Private {
			continue
		}
		summaries = append(summaries, summarize(t))
	}

	return c.JSON(http.StatusOK, summaries)
}

// DescribeType returns the field catalogue of one public type. Private
// types describe as not found, the same as unknown names. Pass new=true to
// include fields only settable at create time.
func DescribeType(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	ctx, registry, err := ectoinject.GetContext[*schema.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	t := registry.Get(name)
	if t == nil || t.Private {
		return httperror.NewHTTPError(http.StatusNotFound, "unknown entity type")
	}

	ctx, store, err := ectoinject.GetContext[*graph.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	fields, err := registry.Describe(ctx, t, c.QueryParam("new") == "true", store)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TypeDescription{
		TypeSummary: summarize(t),
		SlugContext: t.SlugContext,
		ExternalID:  t.ExternalID,
		Fields:      fields,
	})
}

func summarize(t *schema.EntityType) TypeSummary {
	return TypeSummary{
		Name:        t.Name,
		Aliases:     t.Aliases,
		Base:        t.Base,
		CreateLevel: int(t.CreateLevel),
	}
}
