package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/discord-lite-web/internal/handlers"
	"github.com/thereayou/discord-lite-web/internal/middleware"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
)

type Handlers struct {
	Pages     *handlers.PageHandler
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Server    *handlers.ServerHandler
	WebSocket *handlers.WebSocketHandler
}

const loginPath = "/login"

func Routes(r *gin.Engine, h *Handlers, admins *services.AdminList) {
	r.StaticFS("/static", http.FS(view.Static()))
	r.GET("/healthz", h.Pages.Healthz)
	r.GET("/", h.Pages.Home)

	// Auth endpoints
	r.GET("/register", h.Auth.RegisterForm)
	r.POST("/register", h.Auth.Register)
	r.GET("/login", h.Auth.LoginForm)
	r.POST("/login", h.Auth.Login)
	r.POST("/logout", h.Auth.Logout)

	signedIn := r.Group("/", middleware.RequireUser(loginPath))
	{
		signedIn.GET("/chat", h.Pages.Chat)
		signedIn.GET("/profile", h.User.Profile)
		signedIn.POST("/profile", h.User.UpdateProfile)
		signedIn.GET("/servers/new", h.Server.NewServerForm)
		signedIn.POST("/servers", h.Server.Create)
		signedIn.GET("/admin", middleware.RequireAdmin(admins, h.Pages.Denied), h.Pages.Admin)
	}

	// the websocket answers 401 itself instead of redirecting
	r.GET("/ws", h.WebSocket.HandleWebSocket)
}
