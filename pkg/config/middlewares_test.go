package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"client error keeps message", echo.NewHTTPError(http.StatusForbidden, "Not a participant"), http.StatusForbidden, "Not a participant"},
		{"not found route", echo.ErrNotFound, http.StatusNotFound, "Not Found"},
		{"plain error is generic", errors.New("mongo: connection refused"), http.StatusInternalServerError, "Internal server error"},
		{"500 hides message", echo.NewHTTPError(http.StatusInternalServerError, "pq: relation missing"), http.StatusInternalServerError, "Internal server error"},
		{"503 keeps message", echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured"), http.StatusServiceUnavailable, "Firebase login is not configured"},
	}

	handler := HTTPErrorHandler(zap.NewNop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			handler(tc.err, c)

			require.Equal(t, tc.status, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, true, body["error"])
			assert.Equal(t, tc.message, body["message"])
		})
	}
}
