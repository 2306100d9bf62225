package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/kubev2v/inventory-advisor/internal/config"
	handlers "github.com/kubev2v/inventory-advisor/internal/handlers/v1alpha1"
	"github.com/kubev2v/inventory-advisor/pkg/metrics"
	"github.com/kubev2v/inventory-advisor/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	apiPrefix               = "/api/v1"
)

type Server struct {
	cfg      *config.Config
	handler  *handlers.ServiceHandler
	listener net.Listener
}

// New returns a new instance of the inventory advisor API server.
func New(
	cfg *config.Config,
	handler *handlers.ServiceHandler,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		handler:  handler,
		listener: listener,
	}
}

// Router builds the API router. Tests serve it with httptest.
func (s *Server) Router(metricMiddleware *metrics.Middleware) http.Handler {
	router := chi.NewRouter()

	middlewares := []func(http.Handler) http.Handler{
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
		render.SetContentType(render.ContentTypeJSON),
	}
	if metricMiddleware != nil {
		middlewares = append([]func(http.Handler) http.Handler{metricMiddleware.Handler}, middlewares...)
	}
	if s.cfg.Service.RequestTimeout > 0 {
		middlewares = append(middlewares, chiMiddleware.Timeout(s.cfg.Service.RequestTimeout))
	}
	router.Use(middlewares...)

	router.Route(apiPrefix, s.handler.Routes)

	return router
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: s.Router(metricMiddleware)}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
