package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageType определяет типы кадров
type MessageType string

const (
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// PresenceFunc is called when a user's first connection registers
// (online) and when their last one leaves.
type PresenceFunc func(userID string, online bool)

const pingInterval = 30 * time.Second

type presenceUpdate struct {
	userID string
	online bool
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[string]map[uuid.UUID]*Client

	// Каналы для регистрации/отмены регистрации
	register   chan *Client
	unregister chan *Client

	// Обновления присутствия выполняет отдельный worker, чтобы Run не ждал БД
	presence PresenceFunc
	pmu      sync.Mutex
	pending  []presenceUpdate
	wake     chan struct{}

	sugar *zap.SugaredLogger
	mu    sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(sugar *zap.SugaredLogger, presence PresenceFunc) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		presence:    presence,
		wake:        make(chan struct{}, 1),
		sugar:       sugar,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run обрабатывает регистрацию клиентов до Stop
func (h *Hub) Run() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	if h.presence != nil {
		go h.presenceLoop()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		client.closeSend()
		client.Conn.Close()
		delete(h.clients, id)
	}
	h.userClients = make(map[string]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) error {
	if h.ctx.Err() != nil {
		return ErrHubStopped
	}
	select {
	case h.register <- client:
		return nil
	case <-h.ctx.Done():
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client
	first := len(h.userClients[client.UserID]) == 1
	h.mu.Unlock()

	h.sugar.Debugf("Client registered: %s (User: %s)", client.ID, client.UserID)
	if first {
		h.notifyPresence(client.UserID, true)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)

	last := false
	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
			last = true
		}
	}
	client.closeSend()
	h.mu.Unlock()

	h.sugar.Debugf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
	if last {
		h.notifyPresence(client.UserID, false)
	}
}

// notifyPresence queues an update without blocking. Updates are applied in
// the order they were queued.
func (h *Hub) notifyPresence(userID string, online bool) {
	if h.presence == nil {
		return
	}
	h.pmu.Lock()
	h.pending = append(h.pending, presenceUpdate{userID: userID, online: online})
	h.pmu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) presenceLoop() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.wake:
		}

		h.pmu.Lock()
		batch := h.pending
		h.pending = nil
		h.pmu.Unlock()

		for _, u := range batch {
			h.presence(u.userID, u.online)
		}
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if err := client.SendMessage(TypePing, nil); err != nil {
			h.sugar.Debugf("Ping to %s skipped: %v", client.ID, err)
		}
	}
}

// OnlineUsers возвращает пользователей с хотя бы одним соединением
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID])
}
