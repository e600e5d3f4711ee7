package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartview/internal/cart"
	"cartview/internal/config"
	"cartview/internal/currency"
	"cartview/internal/events"
	"cartview/internal/httpclient"
	"cartview/internal/logger"
	"cartview/internal/metrics"
	"cartview/internal/middleware"
	"cartview/internal/session"
	"cartview/internal/transport"
	"cartview/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

var startServerFunc = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

// app holds the long-lived collaborators of one cartview process.
type app struct {
	bus      *events.Bus
	sessions *session.Manager
	limiter  *middleware.RateLimiter
	registry *prometheus.Registry
}

func newApp(cfg *config.Config) *app {
	upstream := httpclient.WithLimiter(rate.NewLimiter(rate.Limit(cfg.BackendRPS), cfg.BackendBurst))
	bus := events.NewBus(0)
	sessions := session.NewManager(session.Deps{
		Identity: user.NewHTTPResolver(cfg.APIBaseURL, cfg.HTTPTimeout, upstream),
		Backend:  cart.NewHTTPBackend(cfg.APIBaseURL, cfg.HTTPTimeout, upstream),
		Rates:    currency.NewHTTPProvider(cfg.ExchangeRateURL, cfg.HTTPTimeout),
		Bus:      bus,
	})

	return &app{
		bus:      bus,
		sessions: sessions,
		limiter:  middleware.NewRateLimiter(cfg.ClientRPS, cfg.ClientBurst),
		registry: metrics.NewRegistry(metrics.Cart, metrics.Gauges{
			OpenSessions:   sessions.Len,
			BusSubscribers: bus.Subscribers,
		}),
	}
}

func setupRouter(cfg *config.Config, a *app, cartRoutes http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", metrics.Handler(a.registry))

	protected := middleware.Auth([]byte(cfg.JWTSecret))(a.limiter.Middleware(cartRoutes))
	mux.Handle("/cart", protected)
	mux.Handle("/cart/", protected)

	return logger.RequestIDMiddleware(
		middleware.LoggingMiddleware(
			middleware.CORS(cfg.AllowedOrigin)(mux),
		),
	)
}

func newServer(cfg *config.Config, a *app) http.Handler {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := transport.NewHandler(a.sessions, a.bus, cfg.AllowedOrigin)
	return setupRouter(cfg, a, transport.NewRouter(h))
}

// startBridge relays cart events through redis so sessions on other
// instances reload too.
func startBridge(ctx context.Context, cfg *config.Config, bus *events.Bus) func() {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	bridge := events.NewRedisBridge(client, cfg.RedisChannel, bus)

	go func() {
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("redis cart bridge stopped", zap.Error(err))
		}
	}()

	logger.L().Info("redis cart bridge started",
		zap.String("addr", cfg.RedisAddr),
		zap.String("channel", cfg.RedisChannel),
		zap.String("instance", bridge.Instance()),
	)
	return func() { _ = client.Close() }
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg)
	go a.limiter.Run(ctx)
	go a.sessions.Run(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTTL)

	if cfg.RedisEnabled() {
		closeRedis := startBridge(ctx, cfg, a.bus)
		defer closeRedis()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("cartview listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	a.sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if err := run(context.Background(), cfg); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
