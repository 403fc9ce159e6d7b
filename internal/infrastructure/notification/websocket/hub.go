package websocket

import (
	"context"
	"sync"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

// Типы сообщений клиенту
const (
	MessageSnapshot = "snapshot"
	MessageAlert    = "alert"
)

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"` // "snapshot" или "alert"
	Data interface{} `json:"data"`
}

type registration struct {
	client  *Client
	initial *Message
}

// Hub управляет WebSocket клиентами консоли и рассылает снимки и оповещения
// Реализует интерфейс port.NotificationService
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan Message
	register   chan registration
	unregister chan *Client

	// Закрывается после выхода из Run
	done chan struct{}

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan registration),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает hub до отмены ctx, затем отключает всех клиентов
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return

		case reg := <-h.register:
			if reg.initial != nil {
				reg.client.send <- *reg.initial
			}
			h.mu.Lock()
			h.clients[reg.client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// Канал клиента заполнен, отключаем
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn("Client channel full, disconnected", "type", msg.Type)
		}
	}
}

// Register регистрирует клиента; initial уходит ему первым сообщением
// Возвращает false, если hub уже остановлен
func (h *Hub) Register(client *Client, initial *Message) bool {
	select {
	case h.register <- registration{client: client, initial: initial}:
		return true
	case <-h.done:
		return false
	}
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast отправляет снимок консоли всем клиентам (реализация port.NotificationService)
func (h *Hub) Broadcast(snapshot *dto.ConsoleSnapshotDTO) {
	h.enqueue(Message{Type: MessageSnapshot, Data: snapshot})
}

// BroadcastAlert отправляет alert всем клиентам (реализация port.NotificationService)
func (h *Hub) BroadcastAlert(alert *dto.AlertDTO) {
	h.enqueue(Message{Type: MessageAlert, Data: alert})
}

func (h *Hub) enqueue(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Broadcast channel full, dropping message", "type", msg.Type)
	}
}

// ClientCount возвращает количество подключенных клиентов (реализация port.NotificationService)
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
