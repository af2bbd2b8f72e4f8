package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/discord-lite-web/internal/handlers/dto"
	"github.com/thereayou/discord-lite-web/internal/middleware"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
)

type UserHandler struct {
	accounts *services.Accounts
	pages    *Pages
}

func NewUserHandler(accounts *services.Accounts, pages *Pages) *UserHandler {
	return &UserHandler{accounts: accounts, pages: pages}
}

// Profile shows the auth email next to the users row.
func (h *UserHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page := h.pages.New(c, "Profile")
	page.Values["email"] = user.Email

	profile, err := h.accounts.Profile(c.Request.Context(), user)
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		c.HTML(http.StatusNotFound, "profile.html", page.WithFlash(view.LevelError, "❌ Error: profile not found in users."))
		return
	case err != nil:
		c.HTML(http.StatusInternalServerError, "profile.html", page.WithFlash(view.LevelError, "❌ "+err.Error()))
		return
	}

	page.Values["username"] = profile.Username
	page.Values["avatar_url"] = profile.AvatarURL
	c.HTML(http.StatusOK, "profile.html", page)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page := h.pages.New(c, "Profile")
	page.Values["email"] = user.Email

	var req dto.ProfileForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "profile.html", page.WithFlash(view.LevelError, "❌ Error updating: "+err.Error()))
		return
	}
	page.Values["username"] = req.Username
	page.Values["avatar_url"] = req.AvatarURL

	if err := h.accounts.UpdateProfile(c.Request.Context(), user.ID, req.Username, req.AvatarURL); err != nil {
		var (
			verr *services.ValidationError
			merr *services.MutationError
		)
		switch {
		case errors.As(err, &verr):
			c.HTML(http.StatusBadRequest, "profile.html", page.WithFlash(view.LevelError, "❌ "+verr.Message))
		case errors.As(err, &merr):
			c.HTML(http.StatusInternalServerError, "profile.html", page.WithFlash(view.LevelError, "❌ Error updating: "+merr.Err.Error()))
		default:
			c.HTML(http.StatusInternalServerError, "profile.html", page.WithFlash(view.LevelError, "❌ Error updating: "+err.Error()))
		}
		return
	}
	c.HTML(http.StatusOK, "profile.html", page.WithFlash(view.LevelSuccess, "✅ Profile updated."))
}
