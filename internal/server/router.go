package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	blogmiddleware "github.com/terraconstructs/blogapi/internal/middleware"
	"github.com/terraconstructs/blogapi/internal/services/blog"
)

// authService is the slice of *auth.Service the HTTP layer depends on.
type authService interface {
	tokenIssuer
	blogmiddleware.RequestAuthenticator
}

// RouterOptions controls the construction of the blog HTTP router.
type RouterOptions struct {
	Auth        authService
	Blog        *blog.Service
	// TokenHeader carries the bearer token; empty means Authorization.
	TokenHeader string
	CORSOptions *cors.Options
	Logger      *slog.Logger
	// Middleware runs after the baseline stack and before authentication.
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
}

// DefaultCORSOptions returns a permissive CORS policy for the given origins that
// lets browsers send the token header.
func DefaultCORSOptions(origins []string, tokenHeader string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	if tokenHeader == "" {
		tokenHeader = blogmiddleware.DefaultTokenHeader
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", tokenHeader},
		MaxAge:         300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, bearer
// authentication and the blog handlers mounted. Reads are public; every mutating
// route is gated by the authorization policy inside the blog service.
func NewRouter(opts RouterOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions(nil, opts.TokenHeader)
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	if opts.Auth != nil {
		r.Use(blogmiddleware.NewAuthnMiddleware(opts.Auth, opts.TokenHeader))
	}

	health := opts.HealthHandler
	if health == nil {
		health = defaultHealthHandler
	}
	r.Get("/health", health)

	r.Route("/api", func(api chi.Router) {
		if opts.Auth != nil {
			api.Post("/auth/login", HandleLogin(opts.Auth, logger))
			api.Get("/auth/me", HandleMe())
		}

		if opts.Blog == nil {
			return
		}
		posts := &postHandlers{svc: opts.Blog, logger: logger}
		comments := &commentHandlers{svc: opts.Blog, logger: logger}

		api.Route("/posts", func(pr chi.Router) {
			pr.Get("/", posts.list)
			pr.Post("/", posts.create)
			pr.Route("/{postID}", func(one chi.Router) {
				one.Get("/", posts.get)
				one.Put("/", posts.update)
				one.Delete("/", posts.delete)
				one.Get("/comments", comments.list)
				one.Post("/comments", comments.create)
			})
		})

		api.Route("/comments/{commentID}", func(cr chi.Router) {
			cr.Put("/", comments.update)
			cr.Delete("/", comments.delete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
