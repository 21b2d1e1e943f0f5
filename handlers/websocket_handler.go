package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/competition-system/events"
)

type WebSocketHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" or an empty list allows any origin.
func NewWebSocketHandler(hub *events.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeWs godoc
// @Summary Subscribe to competition events
// @Tags events
// @Description Upgrades to a WebSocket joined to the room of the competition.
// @Param competitionID path int true "Competition ID"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Router /ws/competitions/{competitionID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.Int("competition_id", competitionID), slog.Any("error", err))
		return
	}

	room := events.RoomName(competitionID)
	client := events.NewClient(h.hub, conn, room)
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.DebugContext(r.Context(), "websocket client joined", slog.String("room", room))
}
