package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/config"
)

func newTestApp(env string) *App {
	return New(&config.Config{Env: env, AllowedOrigins: []string{"http://localhost:8080"}}, nil, nil)
}

func serveError(a *App, err error) *httptest.ResponseRecorder {
	a.Echo.GET("/boom", func(echo.Context) error { return err })
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	return rec
}

func TestErrorHandler_AppErrorMessage(t *testing.T) {
	rec := serveError(newTestApp("production"), apperror.NewNotFound("Blog not found"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"Blog not found"}`, rec.Body.String())
}

func TestErrorHandler_InternalDetailOnlyOutsideProduction(t *testing.T) {
	cause := apperror.NewInternal(errors.New("dial tcp: refused"))

	rec := serveError(newTestApp("production"), cause)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "refused")

	rec = serveError(newTestApp("development"), cause)
	require.Contains(t, rec.Body.String(), `"error":"dial tcp: refused"`)
}

func TestErrorHandler_UnknownErrorIsGeneric(t *testing.T) {
	rec := serveError(newTestApp("production"), errors.New("secret detail"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"message":"An unexpected error occurred"}`, rec.Body.String())
}

func TestErrorHandler_RouterNotFound(t *testing.T) {
	a := newTestApp("production")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"Not Found"}`, rec.Body.String())
}

func serveHealth(t *testing.T, env string) *httptest.ResponseRecorder {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectPing().WillReturnError(errors.New("dial tcp 10.0.0.5:3306: refused"))

	a := New(&config.Config{Env: env}, db, nil)
	a.Echo.GET("/healthz", a.healthz)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	return rec
}

func TestHealthz_HidesCauseInProduction(t *testing.T) {
	rec := serveHealth(t, "production")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestHealthz_ShowsCauseInDevelopment(t *testing.T) {
	rec := serveHealth(t, "development")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "10.0.0.5:3306")
}
