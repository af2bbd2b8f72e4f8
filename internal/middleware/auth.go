package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/pkg/auth"
	"go.uber.org/zap"
)

const (
	UserKey  = "user"
	TokenKey = "token"
)

// Authenticate resolves the signed-in user from the session cookie, a
// token query parameter or a bearer header. Requests without a valid,
// non-revoked token continue anonymously.
func Authenticate(authn gateway.Auth, sugar *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractToken(c.Request)
		if err != nil {
			c.Next()
			return
		}

		user, err := authn.CurrentUser(c.Request.Context(), token)
		if err != nil {
			sugar.Debugf("Ignoring token on %s: %v", c.Request.URL.Path, err)
			c.Next()
			return
		}

		c.Set(UserKey, user)
		c.Set(TokenKey, token)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *gateway.AuthUser {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*gateway.AuthUser)
	return user
}

func Token(c *gin.Context) string {
	return c.GetString(TokenKey)
}

// RequireUser redirects anonymous requests to the login page.
func RequireUser(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin lets allow-listed users through and hands everyone else to
// denied.
func RequireAdmin(admins *services.AdminList, denied gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !admins.IsAdmin(user.Email) {
			denied(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
