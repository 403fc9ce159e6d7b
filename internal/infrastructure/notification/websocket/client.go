package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Клиент консоли ничего не присылает, кроме управляющих кадров
	maxMessageSize = 512

	// Размер очереди исходящих сообщений клиента
	sendBuffer = 64
)

// Client представляет подключенного оператора консоли
// Медленный клиент получает только последний снимок из накопившихся, оповещения не теряются
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan Message
	logger *logger.Logger
}

// NewClient создает нового WebSocket клиента
func NewClient(hub *Hub, conn *websocket.Conn, logger *logger.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		send:   make(chan Message, sendBuffer),
		logger: logger,
	}
}

// Serve запускает отправку в отдельной goroutine и блокируется на чтении до разрыва соединения
func (c *Client) Serve() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("WebSocket set read deadline error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", "error", err.Error())
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case first, ok := <-c.send:
			if !ok {
				// Hub закрыл канал
				c.writeControl(websocket.CloseMessage)
				return
			}

			batch, open := c.drain(first)
			for _, msg := range coalesceSnapshots(batch) {
				if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					c.logger.Error("WebSocket set write deadline error", err)
					return
				}
				if err := c.conn.WriteJSON(msg); err != nil {
					c.logger.Error("WebSocket write error", err, "type", msg.Type)
					return
				}
			}
			if !open {
				c.writeControl(websocket.CloseMessage)
				return
			}

		case <-ticker.C:
			if !c.writeControl(websocket.PingMessage) {
				return
			}
		}
	}
}

// drain забирает из очереди все уже накопившиеся сообщения без ожидания
// open == false, если hub закрыл канал во время выборки
func (c *Client) drain(first Message) (batch []Message, open bool) {
	batch = append(batch, first)
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return batch, false
			}
			batch = append(batch, msg)
		default:
			return batch, true
		}
	}
}

func (c *Client) writeControl(messageType int) bool {
	if err := c.conn.WriteControl(messageType, nil, time.Now().Add(writeWait)); err != nil {
		if messageType != websocket.CloseMessage {
			c.logger.Debug("WebSocket control frame failed", "error", err.Error())
		}
		return false
	}
	return true
}

func (c *Client) close() {
	if err := c.conn.Close(); err != nil {
		c.logger.Debug("WebSocket close error", "error", err.Error())
	}
}

// coalesceSnapshots оставляет из пачки только последний снимок консоли
// Снимок несет полное состояние, поэтому промежуточные не нужны; порядок остальных сообщений сохраняется
func coalesceSnapshots(batch []Message) []Message {
	last := -1
	for i, msg := range batch {
		if msg.Type == MessageSnapshot {
			last = i
		}
	}

	out := batch[:0:0]
	for i, msg := range batch {
		if msg.Type == MessageSnapshot && i != last {
			continue
		}
		out = append(out, msg)
	}
	return out
}
