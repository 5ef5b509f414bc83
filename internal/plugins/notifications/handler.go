package notifications

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/plugins/auth"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	pongWait     = pingInterval + writeWait
)

// Handler handles HTTP requests for notifications.
type Handler struct {
	service  NotificationService
	upgrader websocket.Upgrader
}

// NewHandler creates a new notification handler. Stream upgrades are only
// accepted from allowedOrigins or from requests with no Origin header.
func NewHandler(service NotificationService, allowedOrigins []string) *Handler {
	return &Handler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// List handles GET /api/notification.
func (h *Handler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// UnreadCount handles GET /api/notification/unread-count.
func (h *Handler) UnreadCount(c echo.Context) error {
	n, err := h.service.UnreadCount(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"count": n})
}

// MarkRead handles PATCH /api/notification/read/:id.
func (h *Handler) MarkRead(c echo.Context) error {
	if err := h.service.MarkRead(c.Request().Context(), c.Param("id"), auth.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// Delete handles DELETE /api/notification/:id.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), auth.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notification deleted"})
}

// Stream handles GET /api/notification/stream, forwarding the user's live
// notifications over a WebSocket until either side goes away.
func (h *Handler) Stream(c echo.Context) error {
	userID := auth.GetUserID(c)
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	sub := h.service.Subscribe(ctx, userID)
	defer sub.Close()

	// The read loop only exists to notice the client leaving and to
	// extend the deadline on pongs.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				slog.Debug("notification stream write failed",
					slog.String("user_id", userID),
					slog.Any("error", err),
				)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}
