package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rkoshti/cliptube-be/internal/api/handlers"
	"github.com/rkoshti/cliptube-be/internal/auth"
	"github.com/rkoshti/cliptube-be/internal/media"
	"github.com/rkoshti/cliptube-be/internal/services"
)

// RouterConfig carries everything the HTTP boundary needs.
type RouterConfig struct {
	UserService         services.UserServiceProvider
	VideoService        services.VideoServiceProvider
	SubscriptionService services.SubscriptionServiceProvider
	TokenIssuer         *auth.TokenIssuer
	Uploader            media.Uploader
	TempUploadDir       string
	CORSOrigin          string
	SecureCookies       bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	cookiePolicy := handlers.CookiePolicy{ForceSecure: cfg.SecureCookies}

	userHandler := handlers.NewUserHandler(cfg.UserService, cfg.Uploader, cfg.TempUploadDir, cookiePolicy)
	videoHandler := handlers.NewVideoHandler(cfg.VideoService, cfg.TokenIssuer, cfg.Uploader, cfg.TempUploadDir)
	subscriptionHandler := handlers.NewSubscriptionHandler(cfg.SubscriptionService, cfg.TokenIssuer)

	requireAuth := handlers.RequireAuth(cfg.TokenIssuer, cfg.UserService)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/refresh-token", userHandler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", userHandler.Logout)
				r.Get("/current-user", userHandler.CurrentUser)
				r.Post("/change-password", userHandler.ChangePassword)
				r.Patch("/update-account", userHandler.UpdateAccount)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", videoHandler.List)
			r.Get("/{id}", videoHandler.Get)
			r.Post("/{id}/view", videoHandler.RecordView)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", videoHandler.Publish)
				r.Patch("/{id}/publish", videoHandler.SetPublished)
				r.Delete("/{id}", videoHandler.Delete)
			})
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/{channelId}", subscriptionHandler.Get)

			r.With(requireAuth).Post("/{channelId}/toggle", subscriptionHandler.Toggle)
		})
	})

	return r
}
