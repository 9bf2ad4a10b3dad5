package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"epp-gateway/internal/epp/client"
	jwttoken "epp-gateway/internal/jwt_token"
	"epp-gateway/internal/platform/config"
	"epp-gateway/internal/platform/httpserver"
	"epp-gateway/internal/platform/logger"
	"epp-gateway/internal/platform/metrics"
	"epp-gateway/internal/registrar/connect"
	"epp-gateway/internal/registrar/handler"
	"epp-gateway/internal/registrar/service"
	"epp-gateway/pkg/platform/httputil"
	authmw "epp-gateway/pkg/platform/middleware/auth"
	"epp-gateway/pkg/platform/middleware/metadata"
	request "epp-gateway/pkg/platform/middleware/request"
	"epp-gateway/pkg/platform/middleware/requesttime"
)

const requestTimeout = 60 * time.Second

// main wires the registry client, the optional backends and the HTTP router,
// then serves until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("epp-gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	eppClient, err := connect.Client(ctx, cfg.EPP, log, client.WithMetrics(client.NewMetrics()))
	if err != nil {
		return err
	}
	defer eppClient.Close()
	g.Go(func() error {
		eppClient.Pool().KeepAlive(ctx)
		return nil
	})

	be, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer be.close(log)
	for _, task := range be.tasks {
		g.Go(func() error { return task(ctx) })
	}

	exec := service.NewExecutor(eppClient,
		service.WithPublisher(be.publisher),
		service.WithMetrics(service.NewMetrics(nil)),
		service.WithLogger(log),
	)
	h := handler.New(
		service.NewDomainService(exec, be.checkCache, cfg.Redis.CheckTTL),
		service.NewContactService(exec, be.checkCache, cfg.Redis.CheckTTL),
		service.NewHostService(exec, be.checkCache, cfg.Redis.CheckTTL),
		service.NewPollService(exec),
		be.history,
		log,
	)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Latency(metrics.New()))
	r.Get("/healthz", healthz(eppClient.Pool(), be))
	r.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(request.Timeout(requestTimeout))
		r.Use(request.ContentTypeJSON)
		if cfg.AuthDisabled {
			log.Warn("authentication disabled; every request runs as the registrar operator")
			r.Use(authmw.Anonymous(cfg.EPP.ClientID, []string{jwttoken.ScopeRead, jwttoken.ScopeWrite, jwttoken.ScopePoll}))
		} else {
			jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
			r.Use(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(jwt), be.revocations, log))
		}
		h.Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)
	g.Go(func() error {
		return httpserver.Run(ctx, srv, cfg.ShutdownGrace, log)
	})
	log.Info("epp-gateway started",
		"addr", cfg.Addr,
		"registry", cfg.EPP.Address(),
		"env", cfg.Environment,
	)
	return g.Wait()
}

type healthReport struct {
	Status   string `json:"status"`
	Sessions int32  `json:"sessions"`
	Idle     int32  `json:"idle"`
	Redis    string `json:"redis,omitempty"`
	Postgres string `json:"postgres,omitempty"`
}

// healthz reports pool occupancy and backend reachability. A failing backend
// degrades the report; the gateway keeps serving from its fallbacks.
func healthz(pool *client.Pool, be *backends) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		st := pool.Stats()
		rep := healthReport{Status: "ok", Sessions: st.Total, Idle: st.Idle}
		status := http.StatusOK
		if be.redis != nil {
			rep.Redis = "ok"
			if err := be.redis.Health(ctx); err != nil {
				rep.Redis, rep.Status = err.Error(), "degraded"
			}
		}
		if be.db != nil {
			rep.Postgres = "ok"
			if err := be.db.PingContext(ctx); err != nil {
				rep.Postgres, rep.Status = err.Error(), "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, rep)
	}
}
