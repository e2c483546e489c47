package middleware

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	// HeaderUserID is the header key for the acting user's uid
	HeaderUserID = "X-User-Id"
	// HeaderPermission is the header key for the acting user's permission
	// level, resolved by the authenticating proxy in front of this service
	HeaderPermission = "X-Permission"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetActor(ctx, actorFrom(req.Header.Get(HeaderUserID), req.Header.Get(HeaderPermission)))

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// actorFrom builds the request actor from the trusted proxy headers. A
// request without a user id stays anonymous regardless of the permission
// header.
func actorFrom(userID, permission string) models.Actor {
	actor := models.Actor{Permission: models.PermissionAnonymous}
	if userID == "" {
		return actor
	}
	actor.UID = userID
	if level, err := strconv.Atoi(permission); err == nil && level > 0 {
		actor.Permission = models.PermissionLevel(level)
	}
	return actor
}
