package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aratrikkk/UrjaBharat/internal/application/usecase"
	wsInfra "github.com/aratrikkk/UrjaBharat/internal/infrastructure/notification/websocket"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
	"github.com/gorilla/websocket"
)

// WebSocketHandler обрабатывает WebSocket connections
type WebSocketHandler struct {
	hub            *wsInfra.Hub
	snapshots      *usecase.GetConsoleSnapshotUseCase
	logger         *logger.Logger
	allowedOrigins map[string]struct{}
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler создает новый handler
func NewWebSocketHandler(
	hub *wsInfra.Hub,
	snapshots *usecase.GetConsoleSnapshotUseCase,
	allowedOrigins []string,
	logger *logger.Logger,
) *WebSocketHandler {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	handler := &WebSocketHandler{
		hub:            hub,
		snapshots:      snapshots,
		logger:         logger,
		allowedOrigins: originMap,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     handler.checkOrigin,
	}

	return handler
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return false
	}

	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	normalized := parsed.Scheme + "://" + parsed.Host
	if _, ok := h.allowedOrigins[normalized]; ok {
		return true
	}
	if _, ok := h.allowedOrigins["*"]; ok {
		return true
	}

	return false
}

// HandleConnection обрабатывает новое WebSocket соединение
// Первым сообщением клиент получает текущий снимок консоли
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err.Error(), "remote_addr", r.RemoteAddr)
		return
	}

	client := wsInfra.NewClient(h.hub, conn, h.logger)
	initial := &wsInfra.Message{
		Type: wsInfra.MessageSnapshot,
		Data: h.snapshots.Execute(r.Context()),
	}
	if !h.hub.Register(client, initial) {
		_ = conn.Close()
		return
	}

	go client.Serve()
}
