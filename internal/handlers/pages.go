package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/discord-lite-web/internal/middleware"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
)

// Pages builds page data with the menu of the current visitor.
type Pages struct {
	admins *services.AdminList
}

func NewPages(admins *services.AdminList) *Pages {
	return &Pages{admins: admins}
}

func (p *Pages) New(c *gin.Context, title string) *view.Page {
	user := middleware.CurrentUser(c)
	if user == nil {
		return view.NewPage(title, view.Menu{})
	}
	return view.NewPage(title, view.Menu{
		SignedIn: true,
		IsAdmin:  p.admins.IsAdmin(user.Email),
		Email:    user.Email,
		UserID:   user.ID,
	})
}

// PageHandler serves the pages without form handling.
type PageHandler struct {
	pages *Pages
}

func NewPageHandler(pages *Pages) *PageHandler {
	return &PageHandler{pages: pages}
}

func (h *PageHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", h.pages.New(c, "Home"))
}

func (h *PageHandler) Chat(c *gin.Context) {
	c.HTML(http.StatusOK, "chat.html", h.pages.New(c, "Chat"))
}

func (h *PageHandler) Admin(c *gin.Context) {
	c.HTML(http.StatusOK, "admin.html", h.pages.New(c, "Admin"))
}

func (h *PageHandler) Denied(c *gin.Context) {
	c.HTML(http.StatusForbidden, "denied.html", h.pages.New(c, "Access denied"))
}

func (h *PageHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
