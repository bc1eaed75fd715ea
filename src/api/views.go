package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"portfolio/src/api/controllers"
	handlers "portfolio/src/api/handlers"
	"portfolio/src/app"
	"portfolio/src/config"
	"portfolio/src/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router    *chi.Mux
	Handler   *handlers.Handler
	TokenAuth *jwtauth.JWTAuth
	cors      *cors.Cors
	logger    *logrus.Logger
	container *app.Container
}

func NewServer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	controller := controllers.NewController(
		container.PortfolioService,
		container.TransactionService,
		container.PriceCache,
		container.PriceRefresh,
	)
	server := NewServerWithController(controller, cfg, logger)
	server.container = container
	return server, nil
}

// NewServerWithController builds the router around an existing controller.
func NewServerWithController(controller controllers.IController, cfg *config.Config, logger *logrus.Logger) *Server {
	// An empty origin list lets every origin through.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Service.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
	})
	server := &Server{
		Router:    chi.NewRouter(),
		Handler:   handlers.NewHandler(controller),
		TokenAuth: jwtauth.New("HS256", []byte(cfg.Auth.JWTSecret), nil),
		cors:      corsHandler,
		logger:    logger,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(s.cors.Handler)
	s.Router.Use(handlers.RequestLogger(s.logger))
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/alive", handlers.Healthcheck)

	s.Router.Route("/api", func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.TokenAuth))
		r.Use(jwtauth.Authenticator)
		r.Use(handlers.Principal)

		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", s.Handler.ListPortfolios)
			r.Post("/", s.Handler.CreatePortfolio)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.Handler.GetPortfolio)
				r.Delete("/", s.Handler.DeletePortfolio)
				r.Get("/holdings", s.Handler.GetHoldings)
				r.Get("/performance", s.Handler.GetPerformance)
				r.Get("/transactions", s.Handler.ListTransactions)
				r.Post("/transactions", s.Handler.CreateTransaction)
			})
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/", s.Handler.ListPrices)
			r.Post("/refresh", s.Handler.RefreshPrices)
			r.Get("/{symbol}", s.Handler.GetPrice)
		})
	})
}

// Close releases the stores opened by NewServer.
func (s *Server) Close() {
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
		WriteTimeout: 30 * time.Second,
		Handler:      server,
		BaseContext: func(_ net.Listener) context.Context {
			return utils.WithLogger(context.Background(), logrus.NewEntry(server.logger))
		},
	}
	return httpServer
}
