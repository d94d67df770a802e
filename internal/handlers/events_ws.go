package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/grow-backend/internal/middleware"
	"github.com/AnshRaj112/grow-backend/internal/models"
)

const (
	wsReadTimeout  = 90 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// EventSubscriber streams a user's journal events.
type EventSubscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan models.JournalEvent, func(), error)
}

type EventsHandler struct {
	sessions middleware.SessionValidator
	events   EventSubscriber
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewEventsHandler accepts browser sockets only from allowedOrigins. Requests without
// an Origin header (non-browser clients) are allowed.
func NewEventsHandler(sessions middleware.SessionValidator, events EventSubscriber, allowedOrigins []string, log *zap.Logger) *EventsHandler {
	return &EventsHandler{
		sessions: sessions,
		events:   events,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

// Stream handles GET /ws/entries. Browsers cannot set headers on WebSocket requests,
// so the token may also be passed as ?token=.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	email, err := h.sessions.Validate(r.Context(), token)
	if err != nil {
		if !errors.Is(err, models.ErrUnauthorized) {
			h.log.Sugar().Errorw("session lookup failed", "err", err)
		}
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, stop, err := h.events.Subscribe(ctx, email)
	if err != nil {
		h.log.Sugar().Errorw("failed to subscribe to journal events", "user", email, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to open event stream")
		return
	}
	defer stop()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}
	defer conn.Close()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	// Reader: clients send nothing meaningful, but reading drives pong and close handling.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
