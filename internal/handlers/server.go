package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/discord-lite-web/internal/handlers/dto"
	"github.com/thereayou/discord-lite-web/internal/middleware"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
	"go.uber.org/zap"
)

const redirectAfterCreate = "/chat"

type ServerHandler struct {
	servers *services.Servers
	pages   *Pages
	sugar   *zap.SugaredLogger
}

func NewServerHandler(servers *services.Servers, pages *Pages, sugar *zap.SugaredLogger) *ServerHandler {
	return &ServerHandler{servers: servers, pages: pages, sugar: sugar}
}

func (h *ServerHandler) newPage(c *gin.Context) *view.Page {
	page := h.pages.New(c, "Create server")
	page.Values["channel_name"] = services.DefaultChannelName
	return page
}

func (h *ServerHandler) NewServerForm(c *gin.Context) {
	c.HTML(http.StatusOK, "create.html", h.newPage(c))
}

// Create inserts the server and its first channel. The server survives a
// failed channel insert.
func (h *ServerHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page := h.newPage(c)

	var req dto.CreateServerForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "create.html", page.WithFlash(view.LevelError, "❌ "+err.Error()))
		return
	}
	page.Values["server_name"] = req.ServerName
	page.Values["channel_name"] = req.ChannelName

	created, err := h.servers.Create(c.Request.Context(), user.ID, req.ServerName, req.ChannelName)
	if err != nil {
		var (
			verr *services.ValidationError
			merr *services.MutationError
		)
		switch {
		case errors.As(err, &verr):
			c.HTML(http.StatusBadRequest, "create.html", page.WithFlash(view.LevelError, "❌ "+verr.Message))
		case errors.Is(err, services.ErrIncomplete) && errors.As(err, &merr):
			c.HTML(http.StatusCreated, "create.html", page.WithFlash(view.LevelWarning,
				"⚠️ Server created, but the initial channel failed. "+merr.Err.Error()))
		case errors.As(err, &merr):
			c.HTML(http.StatusInternalServerError, "create.html", page.WithFlash(view.LevelError, "❌ Error creating server: "+merr.Err.Error()))
		default:
			h.sugar.Error(err)
			c.HTML(http.StatusInternalServerError, "create.html", page.WithFlash(view.LevelError, "❌ "+err.Error()))
		}
		return
	}

	page.Values = map[string]string{"channel_name": services.DefaultChannelName}
	page.Redirect = redirectAfterCreate
	c.HTML(http.StatusCreated, "create.html", page.WithFlash(view.LevelSuccess,
		fmt.Sprintf("🎉 Server '%s' and channel '#%s' created!", created.ServerName, created.ChannelName)))
}
