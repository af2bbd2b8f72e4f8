package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения
	maxMessageSize = 64 * 1024

	sendQueue = 256
)

// FrameHandler consumes the frames a browser sends. A view session
// implements it.
type FrameHandler interface {
	Handle(frameType string, data json.RawMessage) error
}

type Client struct {
	ID     uuid.UUID
	UserID string
	Conn   *websocket.Conn
	Hub    *Hub

	send   chan []byte
	mu     sync.RWMutex
	closed bool
	sugar  *zap.SugaredLogger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, sugar *zap.SugaredLogger) *Client {
	id := uuid.New()
	return &Client{
		ID:     id,
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		send:   make(chan []byte, sendQueue),
		sugar:  sugar.With("client", id.String()),
	}
}

// ReadPump читает сообщения от клиента до закрытия соединения
func (c *Client) ReadPump(handler FrameHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.sugar.Warnf("WebSocket error: %v", err)
			}
			return
		}
		if msg.Type == TypePong {
			continue
		}

		if err := handler.Handle(string(msg.Type), msg.Data); err != nil {
			c.sugar.Debugf("Rejected %s frame: %v", msg.Type, err)
			c.SendError(err.Error())
		}
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.sugar.Debug(err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendMessage(msgType MessageType, data interface{}) error {
	msg := Message{
		Type:      msgType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = jsonData
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.enqueue(msgData)
}

// Push satisfies session.Outbox.
func (c *Client) Push(frameType string, data interface{}) error {
	return c.SendMessage(MessageType(frameType), data)
}

func (c *Client) SendError(errorMsg string) {
	if err := c.SendMessage(TypeError, map[string]string{"error": errorMsg}); err != nil {
		c.sugar.Debug(err)
	}
}

func (c *Client) enqueue(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
