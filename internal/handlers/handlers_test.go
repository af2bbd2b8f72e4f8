package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/discord-lite-web/internal/changefeed"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/keyvalue"
	"github.com/thereayou/discord-lite-web/internal/memdb"
	"github.com/thereayou/discord-lite-web/internal/middleware"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
	"github.com/thereayou/discord-lite-web/pkg/auth"
	"go.uber.org/zap"
)

// failingGateway refuses inserts into one table.
type failingGateway struct {
	gateway.Gateway
	table string
}

func (g *failingGateway) Insert(ctx context.Context, table string, rows ...gateway.Row) ([]gateway.Row, error) {
	if table == g.table {
		return nil, errors.New("insert refused")
	}
	return g.Gateway.Insert(ctx, table, rows...)
}

type fixture struct {
	router *gin.Engine
	client *gateway.Client
	authn  *services.AuthService
}

func newFixture(t *testing.T, failTable string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sugar := zap.NewNop().Sugar()

	store := memdb.New()
	client := gateway.NewClient(store, changefeed.NewLocalFeed(sugar, changefeed.DefaultBuffer), sugar)
	gw := &failingGateway{Gateway: client, table: failTable}
	authn := services.NewAuthService(store, auth.NewJWTManager("test-secret", time.Hour), keyvalue.NewLocal(sugar), sugar)
	accounts := services.NewAccounts(authn, gw, sugar)
	pages := NewPages(services.NewAdminList(nil))

	renderer, err := view.New()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(renderer.Templates())
	r.Use(middleware.Authenticate(authn, sugar))

	authH := NewAuthHandler(accounts, authn, pages, time.Hour, false, sugar)
	serverH := NewServerHandler(services.NewServers(gw, sugar), pages, sugar)
	r.POST("/register", authH.Register)
	r.POST("/servers", middleware.RequireUser("/login"), serverH.Create)

	return &fixture{router: r, client: client, authn: authn}
}

// signIn creates an account directly and returns its session cookie.
func (f *fixture) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	ctx := context.Background()
	uid, err := f.authn.SignUp(ctx, "ana@example.com", "secret123")
	require.NoError(t, err)
	_, err = f.client.Insert(ctx, gateway.TableUsers, gateway.Row{"user_id": uid, "username": "ana", "email": "ana@example.com"})
	require.NoError(t, err)
	token, err := f.authn.SignIn(ctx, "ana@example.com", "secret123")
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (f *fixture) post(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRegisterProfileInsertFails(t *testing.T) {
	f := newFixture(t, gateway.TableUsers)

	w := f.post("/register", url.Values{"username": {"ana"}, "email": {"ana@example.com"}, "password": {"secret123"}}, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error saving user profile: insert refused")
	assert.NotContains(t, w.Body.String(), "Registration successful")
	// entered values are kept
	assert.Contains(t, w.Body.String(), `value="ana@example.com"`)
}

func TestCreateServerFailures(t *testing.T) {
	tests := []struct {
		name        string
		failTable   string
		wantCode    int
		want        string
		wantServers int
	}{
		{"ChannelFails", gateway.TableChannels, http.StatusCreated,
			"⚠️ Server created, but the initial channel failed. insert refused", 1},
		{"ServerFails", gateway.TableServers, http.StatusInternalServerError,
			"❌ Error creating server: insert refused", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.failTable)
			cookie := f.signIn(t)

			w := f.post("/servers", url.Values{"server_name": {"Home"}, "channel_name": {"general"}}, cookie)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
			assert.NotContains(t, w.Body.String(), "data-redirect")

			rows, err := f.client.Select(context.Background(), gateway.Query{Table: gateway.TableServers})
			require.NoError(t, err)
			assert.Len(t, rows, tt.wantServers)
		})
	}
}

func TestCreateServerRequiresUser(t *testing.T) {
	f := newFixture(t, "")
	w := f.post("/servers", url.Values{"server_name": {"Home"}, "channel_name": {"general"}}, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}
