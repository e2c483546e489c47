package entry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/middleware"
)

func newTestServer() *echo.Echo {
	e := echo.New()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e.HTTPErrorHandler = middleware.Error(logger)
	Register(e.Group("/api/v1/entries"))
	return e
}

func TestGetEntryRejectsMalformedUID(t *testing.T) {
	e := newTestServer()

	// A malformed reference never reaches the graph backend, so no service
	// wiring is needed for these.
	for _, uid := range []string{"banana", "0x", "0xzz", "123", "0X1A"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/"+uid, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, uid)
	}
}
