package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/middleware"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/session"
	"github.com/thereayou/discord-lite-web/internal/view"
	ws "github.com/thereayou/discord-lite-web/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler управляет WebSocket соединениями. Each connection runs
// one view session.
type WebSocketHandler struct {
	hub       *ws.Hub
	gw        gateway.Gateway
	renderer  *view.Renderer
	admins    *services.AdminList
	statusTTL time.Duration
	sugar     *zap.SugaredLogger
	upgrader  websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, gw gateway.Gateway, renderer *view.Renderer, admins *services.AdminList, statusTTL time.Duration, sugar *zap.SugaredLogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		gw:        gw,
		renderer:  renderer,
		admins:    admins,
		statusTTL: statusTTL,
		sugar:     sugar,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	kind, err := session.ParseKind(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if kind == session.ViewAdmin && !h.admins.IsAdmin(user.Email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.sugar.Debug(err)
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID, h.sugar)
	if err := h.hub.Register(client); err != nil {
		conn.Close()
		return
	}

	sess := session.New(session.Config{
		View:      kind,
		User:      user,
		StatusTTL: h.statusTTL,
	}, h.gw, h.renderer, client, h.sugar)

	// the session outlives the upgrade request
	ctx, cancel := context.WithCancel(context.Background())
	go client.WritePump()
	go sess.Run(ctx)
	go func() {
		defer cancel()
		client.ReadPump(sess)
	}()
}
