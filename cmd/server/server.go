package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/discord-lite-web/internal/changefeed"
	"github.com/thereayou/discord-lite-web/internal/config"
	"github.com/thereayou/discord-lite-web/internal/database"
	"github.com/thereayou/discord-lite-web/internal/gateway"
	"github.com/thereayou/discord-lite-web/internal/handlers"
	"github.com/thereayou/discord-lite-web/internal/keyvalue"
	"github.com/thereayou/discord-lite-web/internal/memdb"
	"github.com/thereayou/discord-lite-web/internal/middleware"
	"github.com/thereayou/discord-lite-web/internal/models"
	"github.com/thereayou/discord-lite-web/internal/services"
	"github.com/thereayou/discord-lite-web/internal/view"
	ws "github.com/thereayou/discord-lite-web/internal/websocket"
	"github.com/thereayou/discord-lite-web/pkg/auth"
	"go.uber.org/zap"
)

const (
	shutdownTimeout   = 10 * time.Second
	presenceTimeout   = 5 * time.Second
	janitorInterval   = time.Minute
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	Config     *config.Config
	Router     *gin.Engine
	Gateway    gateway.Gateway
	Auth       *services.AuthService
	JWTManager *auth.JWTManager
	Hub        *ws.Hub

	sugar   *zap.SugaredLogger
	closers []func() error
	cancel  context.CancelFunc
}

// backend is the storage side of the gateway: in-memory when
// self-contained, gorm plus redis otherwise.
type backend struct {
	store      gateway.Store
	identities services.IdentityStore
	feed       gateway.Feed
	blacklist  keyvalue.Store
	closers    []func() error
}

func openBackend(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (*backend, error) {
	if cfg.SelfContained {
		store := memdb.New()
		blacklist := keyvalue.NewLocal(sugar)
		go blacklist.Janitor(ctx, janitorInterval)
		sugar.Info("Running self-contained: in-memory store, feed and token blacklist")
		return &backend{
			store:      store,
			identities: store,
			feed:       changefeed.NewLocalFeed(sugar, changefeed.DefaultBuffer),
			blacklist:  blacklist,
		}, nil
	}

	db, err := OpenDatabase(cfg, sugar)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		rdb.Close()
		return nil, fmt.Errorf("redis connect failed: %w", err)
	}

	return &backend{
		store:      db,
		identities: db,
		feed:       changefeed.NewRedisFeed(rdb, sugar, changefeed.DefaultBuffer),
		blacklist:  keyvalue.NewRedis(rdb, sugar),
		closers:    []func() error{rdb.Close, db.Close},
	}, nil
}

// OpenDatabase connects to the configured SQL database.
func OpenDatabase(cfg *config.Config, sugar *zap.SugaredLogger) (*database.Database, error) {
	db := &database.Database{}
	if err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, sugar); err != nil {
		return nil, fmt.Errorf("database connect failed: %w", err)
	}
	return db, nil
}

func NewServer(cfg *config.Config, sugar *zap.SugaredLogger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	b, err := openBackend(ctx, cfg, sugar)
	if err != nil {
		cancel()
		return nil, err
	}

	renderer, err := view.New()
	if err != nil {
		cancel()
		return nil, err
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := services.NewAuthService(b.identities, jwtMgr, b.blacklist, sugar)
	gw := gateway.NewClient(b.store, b.feed, sugar)
	accounts := services.NewAccounts(authSvc, gw, sugar)
	admins := services.NewAdminList(cfg.AdminEmails)
	hub := ws.NewHub(sugar, presenceUpdater(accounts, sugar))

	pages := handlers.NewPages(admins)
	h := &Handlers{
		Pages:     handlers.NewPageHandler(pages),
		Auth:      handlers.NewAuthHandler(accounts, authSvc, pages, cfg.TokenTTL, cfg.CookieSecure, sugar),
		User:      handlers.NewUserHandler(accounts, pages),
		Server:    handlers.NewServerHandler(services.NewServers(gw, sugar), pages, sugar),
		WebSocket: handlers.NewWebSocketHandler(hub, gw, renderer, admins, cfg.StatusTTL, sugar),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(sugar), middleware.Authenticate(authSvc, sugar))
	router.SetHTMLTemplate(renderer.Templates())
	Routes(router, h, admins)

	return &Server{
		Config:     cfg,
		Router:     router,
		Gateway:    gw,
		Auth:       authSvc,
		JWTManager: jwtMgr,
		Hub:        hub,
		sugar:      sugar,
		closers:    b.closers,
		cancel:     cancel,
	}, nil
}

func presenceUpdater(accounts *services.Accounts, sugar *zap.SugaredLogger) ws.PresenceFunc {
	return func(userID string, online bool) {
		status := models.StatusOffline
		if online {
			status = models.StatusOnline
		}
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		if err := accounts.SetStatus(ctx, userID, status); err != nil {
			sugar.Error(err)
		}
	}
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run()

	srv := &http.Server{
		Addr:              s.Config.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.sugar.Infof("Server starting on port %s", s.Config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Hub.Stop()
		return err
	case <-ctx.Done():
	}

	s.sugar.Info("Shutting down")
	s.Hub.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the storage connections.
func (s *Server) Close() error {
	s.cancel()
	var errs []error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
