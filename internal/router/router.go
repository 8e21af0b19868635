package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/tableside/tableside/internal/config"
	"github.com/tableside/tableside/internal/handler"
	mw "github.com/tableside/tableside/internal/middleware"
	"github.com/tableside/tableside/internal/service"
	"github.com/tableside/tableside/internal/store"
)

// New creates a Chi router with all application routes wired up. menu
// serves and edits the menu; pass the store itself when no cache is
// configured.
func New(cfg *config.Server, st store.Store, menu handler.MenuStore) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", mw.CSRFHeader, "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Login hands out the CSRF token, so it cannot require one.
	authHandler := handler.NewAuthHandler(st, cfg.JWTSecret, cfg.CSRFToken)
	authHandler.RegisterRoutes(r)

	orderHandler := handler.NewOrderHandler(service.NewOrderService(st), st)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireCSRF(cfg.CSRFToken))

		menuHandler := handler.NewMenuHandler(menu)
		menuHandler.RegisterRoutes(r)
		orderHandler.RegisterPublicRoutes(r)

		limiter := mw.NewLimiter(cfg.OrderRateLimit, cfg.OrderBurst)
		r.With(mw.RateLimit(limiter)).Post("/order", orderHandler.Place)

		// Staff routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			orderHandler.RegisterAdminRoutes(r)
			menuHandler.RegisterAdminRoutes(r)
			handler.NewQRHandler(cfg.PublicURL, cfg.QRTables).RegisterAdminRoutes(r)
		})
	})

	log.Info().Msg("router initialized")
	return r
}
