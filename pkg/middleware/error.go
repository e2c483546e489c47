package middleware

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// Error maps the engine's error taxonomy onto HTTP status codes and a
// structured payload. Validation errors carry the per-field breakdown so
// callers can show the user every problem at once.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		logger.WithContext(ctx).WithError(err).Error("api is returning an error")
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal Server Error"
		meta := map[string]any{}

		var (
			verr      *models.ValidationError
			perr      *models.PermissionError
			forbidden *models.ForbiddenTypeError
			dup       *models.DuplicateError
		)
		switch {
		case errors.As(err, &verr):
			code = http.StatusUnprocessableEntity
			message = verr.Error()
			meta["fields"] = verr.Fields
		case errors.As(err, &perr):
			code = http.StatusForbidden
			message = perr.Error()
		case errors.As(err, &forbidden):
			code = http.StatusForbidden
			message = forbidden.Error()
		case errors.As(err, &dup):
			code = http.StatusConflict
			message = dup.Error()
			meta["uid"] = dup.UID
			meta["unique_name"] = dup.UniqueName
		default:
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
				if msg, ok := he.Message.(string); ok {
					message = msg
				}
			}
			if httperror.IsHTTPError(err) {
				httperr := httperror.ToHTTPError(err)
				code = httperror.GetStatusCode(err)
				message = httperr.Error()
				meta = httperr.Meta
			}
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: context.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
