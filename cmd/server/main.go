package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/ols-profile-service/internal/config"
	"github.com/janisto/ols-profile-service/internal/http/v1/routes"
	"github.com/janisto/ols-profile-service/internal/platform/firebase"
	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
	appmiddleware "github.com/janisto/ols-profile-service/internal/platform/middleware"
	"github.com/janisto/ols-profile-service/internal/platform/respond"
	"github.com/janisto/ols-profile-service/internal/platform/stores"
	profilesvc "github.com/janisto/ols-profile-service/internal/service/profile"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const apiPrefix = "/v1"

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		applog.LogError(context.Background(), "server failed", err)
		stop()
		os.Exit(1)
	}
	applog.LogInfo(context.Background(), "server exited")
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applog.SetLevel(cfg.App.LogLevel); err != nil {
		return err
	}

	st, err := stores.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			applog.LogError(closeCtx, "closing stores", err)
		}
	}()

	verifier, err := firebase.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	var counter appmiddleware.Counter
	if st.Redis != nil {
		counter = appmiddleware.NewRedisCounter(st.Redis)
	}

	handler := newRouter(cfg, routes.Deps{
		Profiles: profilesvc.NewService(st.Backend),
		Verifier: verifier,
		Health:   st,
	}, counter)
	return serve(ctx, newServer(cfg.App.Addr(), handler), cfg.App.ShutdownTimeout)
}

// newRouter builds the middleware stack and mounts the API under /v1.
// counter may be nil, which disables rate limiting.
func newRouter(cfg *config.Config, deps routes.Deps, counter appmiddleware.Counter) http.Handler {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(apiPrefix+"/docs"),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.HTTP),
		appmiddleware.RequestID(),
		// RealIP trusts X-Forwarded-For; only deploy behind a proxy that sets it.
		chimiddleware.RealIP,
		appmiddleware.TrustedHost(cfg.HTTP.TrustedHosts),
		appmiddleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
		appmiddleware.RateLimit(counter, cfg.HTTP.RateLimitTimes, cfg.HTTP.RateLimitWindow),
		appmiddleware.Gzip(cfg.HTTP.GzipLevel),
		appmiddleware.BodylessStatus(),
	)

	v1 := chi.NewRouter()
	v1.NotFound(respond.NotFoundHandler())
	v1.MethodNotAllowed(respond.MethodNotAllowedHandler())

	humaCfg := huma.DefaultConfig(cfg.App.Name, Version)
	humaCfg.Servers = []*huma.Server{{URL: apiPrefix}}
	api := humachi.New(v1, humaCfg)
	addCBORContent(api)

	routes.Register(router, api, deps)
	router.Mount(apiPrefix, v1)
	return router
}

// addCBORContent advertises CBOR next to JSON for every request and response body.
func addCBORContent(api huma.API) {
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
		applog.LogInfo(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-listenErr
}
