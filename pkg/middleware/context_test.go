package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
)

func TestContextMiddleware(t *testing.T) {
	run := func(t *testing.T, headers map[string]string) (models.Actor, string) {
		t.Helper()
		e := echo.New()
		e.Use(Context())

		var actor models.Actor
		var requestID string
		e.GET("/test", func(c echo.Context) error {
			ctx := c.Request().Context()
			actor = fernctx.GetActor(ctx)
			requestID = fernctx.GetRequestID(ctx)
			return c.NoContent(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return actor, requestID
	}

	t.Run("authenticated actor", func(t *testing.T) {
		actor, _ := run(t, map[string]string{
			HeaderUserID:     "0x1a",
			HeaderPermission: "20",
		})
		assert.Equal(t, "0x1a", actor.UID)
		assert.Equal(t, models.PermissionReviewer, actor.Permission)
	})

	t.Run("missing user id stays anonymous", func(t *testing.T) {
		actor, _ := run(t, map[string]string{HeaderPermission: "30"})
		assert.Empty(t, actor.UID)
		assert.Equal(t, models.PermissionAnonymous, actor.Permission)
	})

	t.Run("garbage permission header stays anonymous level", func(t *testing.T) {
		actor, _ := run(t, map[string]string{
			HeaderUserID:     "0x1a",
			HeaderPermission: "admin",
		})
		assert.Equal(t, "0x1a", actor.UID)
		assert.Equal(t, models.PermissionAnonymous, actor.Permission)
	})

	t.Run("request id generated when absent", func(t *testing.T) {
		_, requestID := run(t, nil)
		assert.NotEmpty(t, requestID)
	})

	t.Run("request id propagated when present", func(t *testing.T) {
		_, requestID := run(t, map[string]string{echo.HeaderXRequestID: "req-42"})
		assert.Equal(t, "req-42", requestID)
	})
}
