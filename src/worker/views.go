package worker

import (
	"context"
	"net"
	"net/http"
	"time"

	apihandlers "portfolio/src/api/handlers"
	"portfolio/src/app"
	"portfolio/src/config"
	"portfolio/src/utils"
	"portfolio/src/worker/controllers"
	handlers "portfolio/src/worker/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server runs the scheduled jobs and exposes manual triggers for them. It is meant for the internal network only.
type Server struct {
	Router    *chi.Mux
	Handler   *handlers.Handler
	logger    *logrus.Logger
	container *app.Container
}

func NewServer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	controller := controllers.NewController(container.PriceRefresh, container.Performance, logger)
	if err := controller.LoadSchedules(cfg.Scheduler); err != nil {
		container.Close()
		return nil, err
	}
	server := NewServerWithController(controller, logger)
	server.container = container
	return server, nil
}

func NewServerWithController(controller *controllers.Controller, logger *logrus.Logger) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handlers.NewHandler(controller),
		logger:  logger,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(apihandlers.RequestLogger(s.logger))
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/alive", apihandlers.Healthcheck)
	s.Router.Route("/api", func(r chi.Router) {
		r.Post("/prices/refresh", s.Handler.RefreshPrices)
		r.Post("/performance/snapshot", s.Handler.SnapshotPerformance)
		r.Get("/schedules", s.Handler.ListSchedules)
	})
}

// Close stops the schedules and releases the stores.
func (s *Server) Close() {
	s.Handler.Controller.StopSchedules()
	if s.container != nil {
		s.container.Close()
	}
}

func NewHTTPServer(server *Server, cfg *config.Config) *http.Server {
	port := cfg.Service.Port
	if port == "" {
		port = "8000"
	}
	httpServer := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 6 * time.Minute,
		Handler:      server,
		BaseContext: func(_ net.Listener) context.Context {
			return utils.WithLogger(context.Background(), logrus.NewEntry(server.logger))
		},
	}
	return httpServer
}
