package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/testutils"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := testutils.GetTestConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}
	return New(cfg, nil)
}

func TestNew(t *testing.T) {
	srv := newTestServer(t)
	require.NotNil(t, srv.Echo())
}

func TestServer_CORS(t *testing.T) {
	srv := newTestServer(t)
	srv.Echo().POST("/probe", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/probe", nil)
		req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
		rec := httptest.NewRecorder()

		srv.Echo().ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/probe", nil)
		req.Header.Set(echo.HeaderOrigin, "http://evil.example.com")
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
		rec := httptest.NewRecorder()

		srv.Echo().ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	})
}

func TestServer_Recover(t *testing.T) {
	srv := newTestServer(t)
	srv.Echo().GET("/panic", func(c echo.Context) error {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		srv.Echo().ServeHTTP(rec, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
