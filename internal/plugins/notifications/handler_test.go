package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/auth"
)

// fakeAuth signs every request in as the user named in X-Test-User.
func fakeAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := c.Request().Header.Get("X-Test-User")
		if user == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
		}
		auth.SetSession(c, &auth.Session{UserID: user, Role: auth.RoleAdmin})
		return next(c)
	}
}

func newTestServer(t *testing.T) (*echo.Echo, *notificationService) {
	t.Helper()
	svc, _, _ := newTestService(t)
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(apperror.SafeCode(err), map[string]string{"message": apperror.SafeMessage(err)})
	}
	RegisterRoutes(e, NewHandler(svc, []string{"https://admin.example.com"}), fakeAuth)
	return e, svc
}

func TestHandler_ListAndUnread(t *testing.T) {
	e, svc := newTestServer(t)
	require.NoError(t, svc.CreateForUsers(t.Context(), []string{"alice"}, "", "hello"))

	req := httptest.NewRequest(http.MethodGet, "/api/notification/unread-count", nil)
	req.Header.Set("X-Test-User", "alice")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count":1}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/notification", nil)
	req.Header.Set("X-Test-User", "alice")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.Equal(t, "hello", items[0].Message)
}

func TestHandler_RequiresAuth(t *testing.T) {
	e, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notification", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_StreamForwardsPublished(t *testing.T) {
	e, svc := newTestServer(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notification/stream"
	header := http.Header{"X-Test-User": []string{"alice"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is established asynchronously; publish until the
	// first message arrives.
	got := make(chan Notification, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var n Notification
		if json.Unmarshal(data, &n) == nil {
			got <- n
		}
	}()

	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case n := <-got:
			require.Equal(t, "alice", n.UserID)
			require.Equal(t, "ping from test", n.Message)
			return
		case <-tick.C:
			require.NoError(t, svc.CreateForUsers(t.Context(), []string{"alice"}, "", "ping from test"))
		case <-deadline:
			t.Fatal("no message forwarded over the stream")
		}
	}
}

func TestHandler_StreamRejectsForeignOrigin(t *testing.T) {
	e, _ := newTestServer(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notification/stream"
	header := http.Header{
		"X-Test-User": []string{"alice"},
		"Origin":      []string{"https://evil.example.com"},
	}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
