package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuelroute-admin/internal/analytics"
	"github.com/ukydev/fuelroute-admin/internal/auth"
	"github.com/ukydev/fuelroute-admin/internal/config"
	"github.com/ukydev/fuelroute-admin/internal/db"
	"github.com/ukydev/fuelroute-admin/internal/handlers"
	"github.com/ukydev/fuelroute-admin/internal/live"
	"github.com/ukydev/fuelroute-admin/internal/middleware"
	"github.com/ukydev/fuelroute-admin/internal/models"
)

// server bundles the handlers the router mounts.
type server struct {
	gate      *middleware.Gate
	limiter   *middleware.RateLimiter
	auth      *handlers.AuthHandler
	dashboard *handlers.DashboardHandler
	trips     *handlers.TripsHandler
	users     *handlers.UsersHandler
}

func newRouter(s *server) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.Health)

	mux.Handle("GET /login", s.gate.Guest(http.HandlerFunc(s.auth.LoginPage)))
	mux.Handle("POST /login", s.limiter.Limit(http.HandlerFunc(s.auth.FormLogin)))
	mux.Handle("POST /api/auth/login", s.limiter.Limit(http.HandlerFunc(s.auth.Login)))
	mux.HandleFunc("POST /api/auth/logout", s.auth.Logout)
	mux.Handle("GET /api/auth/session", s.gate.Protect(http.HandlerFunc(s.auth.Session)))

	protected := map[string]http.HandlerFunc{
		"GET /dashboard":              s.dashboard.Page,
		"GET /api/dashboard":          s.dashboard.Overview,
		"GET /api/dashboard/stats":    s.dashboard.Stats,
		"GET /api/dashboard/activity": s.dashboard.Activity,
		"GET /api/dashboard/chart":    s.dashboard.Chart,
		"GET /api/dashboard/live":     s.dashboard.Live,
		"GET /api/trips":              s.trips.List,
		"GET /api/users":              s.users.List,
	}
	for pattern, h := range protected {
		mux.Handle(pattern, s.gate.Protect(h))
	}

	mux.Handle("GET /{$}", http.RedirectHandler(middleware.DashboardPath, http.StatusSeeOther))
	return middleware.RequestLogger(mux)
}

func openStore(cfg *config.Config) (db.Store, func(), error) {
	if cfg.StoreBackend == "memory" {
		log.Warn("Using in-memory store, data is not persisted")
		return db.NewMemoryStore(), func() {}, nil
	}

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB successfully")
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}
	return &db.MongoStore{Database: client.Database(cfg.MongoDB)}, closeFn, nil
}

func openSessionStorage(ctx context.Context, cfg *config.Config) (auth.StorageProvider, func(), error) {
	cookies := auth.CookieOptions{Secure: cfg.CookieSecure, MaxAge: cfg.SessionTTL}
	switch cfg.SessionStore {
	case config.SessionStoreCookie, "":
		return auth.CookieProvider{Options: cookies}, func() {}, nil
	case config.SessionStoreMemory:
		return auth.SharedMemoryProvider{Storage: auth.NewMemoryStorage()}, func() {}, nil
	case config.SessionStoreRedis:
		client, err := auth.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Warn("Failed to close redis client")
			}
		}
		return auth.RedisProvider{Client: client, TTL: cfg.SessionTTL, Options: cookies}, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func newSessionManager(cfg *config.Config) (*auth.Manager, error) {
	hash := cfg.AdminPasswordHash
	if hash == "" {
		var err error
		if hash, err = auth.HashPassword(cfg.AdminPassword); err != nil {
			return nil, err
		}
	}
	authenticator, err := auth.NewStaticAuthenticator(models.AdminIdentity{
		Email: cfg.AdminEmail,
		Role:  models.RoleAdmin,
		Name:  cfg.AdminName,
		ID:    cfg.AdminID,
	}, hash)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	return auth.NewManager(authenticator, tokens, auth.WithTTL(cfg.SessionTTL)), nil
}

func newPublisher(cfg *config.Config) live.Publisher {
	if cfg.MQTTBroker == "" {
		return live.NopPublisher{}
	}
	publisher, err := live.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
	if err != nil {
		log.WithError(err).Warn("Live stats will not be published")
		return live.NopPublisher{}
	}
	return publisher
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	storage, closeStorage, err := openSessionStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	manager, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	changes := analytics.Changes{Revenue: cfg.RevenueChange, Trips: cfg.TripsChange, Users: cfg.UsersChange}
	repo := db.NewRepository(store, cfg.TripsPath, cfg.UsersPath)

	feed := live.NewFeed(repo, newPublisher(cfg), changes)
	if err := feed.Start(ctx); err != nil {
		log.WithError(err).Warn("Live feed unavailable")
	}
	defer feed.Close()

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	router := newRouter(&server{
		gate:      middleware.NewGate(manager, storage),
		limiter:   middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst).TrustProxies(proxies),
		auth:      handlers.NewAuthHandler(manager, storage),
		dashboard: handlers.NewDashboardHandler(repo, changes, feed),
		trips:     handlers.NewTripsHandler(repo),
		users:     handlers.NewUsersHandler(repo),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cfg := config.Load()
	cfg.ConfigureLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
