package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/handlers/dto"
	"github.com/thereayou/discord-lite-web/internal/middleware"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
	"github.com/thereayou/discord-lite-web/pkg/auth"
	"go.uber.org/zap"
)

type AuthHandler struct {
	accounts     *services.Accounts
	authn        gateway.Auth
	pages        *Pages
	tokenTTL     time.Duration
	secureCookie bool
	sugar        *zap.SugaredLogger
}

func NewAuthHandler(accounts *services.Accounts, authn gateway.Auth, pages *Pages, tokenTTL time.Duration, secureCookie bool, sugar *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		authn:        authn,
		pages:        pages,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		sugar:        sugar,
	}
}

func (h *AuthHandler) RegisterForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", h.pages.New(c, "Register"))
}

func (h *AuthHandler) Register(c *gin.Context) {
	page := h.pages.New(c, "Register")

	var req dto.RegisterForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "register.html", page.WithFlash(view.LevelError, err.Error()))
		return
	}
	page.Values["username"] = req.Username
	page.Values["email"] = req.Email

	reg, err := h.accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		var (
			verr *services.ValidationError
			aerr *services.AuthError
			merr *services.MutationError
		)
		switch {
		case errors.As(err, &verr):
			c.HTML(http.StatusBadRequest, "register.html", page.WithFlash(view.LevelError, verr.Message))
		case errors.As(err, &aerr):
			c.HTML(http.StatusBadRequest, "register.html", page.WithFlash(view.LevelError, "Authentication error: "+aerr.Err.Error()))
		case errors.As(err, &merr):
			c.HTML(http.StatusInternalServerError, "register.html", page.WithFlash(view.LevelError, "Error saving user profile: "+merr.Err.Error()))
		default:
			h.sugar.Error(err)
			c.HTML(http.StatusInternalServerError, "register.html", page.WithFlash(view.LevelError, err.Error()))
		}
		return
	}

	page.Values = map[string]string{}
	if reg.NeedsConfirmation {
		c.HTML(http.StatusOK, "register.html", page.WithFlash(view.LevelSuccess, "Registration started. Check your email to confirm your account."))
		return
	}
	h.sugar.Debugf("Registered user [%s]", reg.UserID)
	c.HTML(http.StatusCreated, "register.html", page.WithFlash(view.LevelSuccess, "✅ Registration successful! You can now sign in."))
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", h.pages.New(c, "Login"))
}

// Login stores the token in an HttpOnly cookie and sends the user to chat.
func (h *AuthHandler) Login(c *gin.Context) {
	page := h.pages.New(c, "Login")

	var req dto.LoginForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", page.WithFlash(view.LevelError, err.Error()))
		return
	}
	page.Values["email"] = req.Email

	token, err := h.authn.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", page.WithFlash(view.LevelError, err.Error()))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.tokenTTL.Seconds()), "/", "", h.secureCookie, true)
	c.Redirect(http.StatusSeeOther, "/chat")
}

// Logout revokes the token until it expires and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.Token(c); token != "" {
		if err := h.authn.SignOut(c.Request.Context(), token); err != nil {
			h.sugar.Error(err)
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusSeeOther, "/register")
}
