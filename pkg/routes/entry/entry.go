package entry

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
	"github.com/Ramsey-B/fern/pkg/service"
)

var validate = validator.New()

// Register registers entry routes
func Register(g *echo.Group) {
	g.GET("", QueryEntries)
	g.GET("/count", CountEntries)
	g.GET("/:uid", GetEntry)
	g.POST("/:entryType", CreateEntry)
	g.PATCH("/:entryType", EditEntry)
}

// QueryEntries runs a filter-map query over the inventory. Every query
// parameter except the reserved paging and search keys is treated as a
// predicate filter.
func QueryEntries(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, svc, err := ectoinject.GetContext[*service.EntryService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	items, err := svc.Query(ctx, c.QueryParams())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.QueryEntriesResponse{Items: items})
}

// CountEntries counts the entries a filter map matches, without paging
func CountEntries(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, svc, err := ectoinject.GetContext[*service.EntryService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	count, err := svc.Count(ctx, c.QueryParams())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.CountResponse{Count: count})
}

// GetEntry fetches a single entry by uid
func GetEntry(c echo.Context) error {
	ctx := c.Request().Context()

	uid := c.Param("uid")
	if !schema.IsUID(uid) {
		// Dgraph rejects uid() over anything but a hex uid, so a malformed
		// reference is a miss, not a query.
		return httperror.NewHTTPError(http.StatusNotFound, "entry not found")
	}

	ctx, svc, err := ectoinject.GetContext[*service.EntryService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	entry, err := svc.Get(ctx, uid)
	if err != nil {
		return err
	}
	if entry == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "entry not found")
	}

	return c.JSON(http.StatusOK, entry)
}

// CreateEntry creates a new entry of the given type
func CreateEntry(c echo.Context) error {
	ctx := c.Request().Context()
	actor := fernctx.GetActor(ctx)

	var req models.CreateEntryRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*service.EntryService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.Create(ctx, c.Param("entryType"), &req, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

// EditEntry applies a partial update to an existing entry
func EditEntry(c echo.Context) error {
	ctx := c.Request().Context()
	actor := fernctx.GetActor(ctx)

	var req models.EditEntryRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*service.EntryService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.Edit(ctx, c.Param("entryType"), &req, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
