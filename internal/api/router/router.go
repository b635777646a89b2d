package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/herbal-board/internal/board"
	"github.com/wolfman30/herbal-board/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/herbal-board/internal/http/middleware"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Board          *board.Handler
	Session        *handlers.SessionHandler
	Health         http.Handler
	Feed           http.Handler
	MetricsHandler http.Handler

	SessionSecret      string
	OwnerKey           string
	LoginRatePerMin    int
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Method(http.MethodGet, "/health", cfg.Health)
		}
		if cfg.MetricsHandler != nil {
			public.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
		}
		if cfg.Session != nil {
			rate := cfg.LoginRatePerMin
			if rate <= 0 {
				rate = 10
			}
			public.With(httpmiddleware.PerMinute(rate).Middleware).Post("/auth/login", cfg.Session.Login)
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.SessionJWT(cfg.SessionSecret, cfg.OwnerKey))
		if cfg.Session != nil {
			api.Get("/session", cfg.Session.Current)
		}
		if cfg.Board != nil {
			cfg.Board.RegisterRoutes(api)
		}
		if cfg.Feed != nil {
			api.Method(http.MethodGet, "/feed", cfg.Feed)
		}
	})

	return r
}
