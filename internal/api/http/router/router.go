package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classhub/classhub-server/internal/api/http/handler"
	"github.com/classhub/classhub-server/internal/api/http/middleware"
	"github.com/classhub/classhub-server/internal/logger"
	"github.com/classhub/classhub-server/internal/model"
	"github.com/classhub/classhub-server/internal/provider"
	"github.com/classhub/classhub-server/internal/service"
)

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	authService    *service.Auth
	oauthService   *service.OAuth
	providers      provider.Registry
	sessions       model.SessionStore
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	oauthService *service.OAuth,
	providers provider.Registry,
	sessions model.SessionStore,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		oauthService:   oauthService,
		providers:      providers,
		sessions:       sessions,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register builds the route tree with request logging on everything and
// bearer authentication on the routes that need an identity.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.authService, r.contextManager, r.logger)

	authHandler := handler.NewAuth(r.authService, r.contextManager, r.logger)
	oauthHandler := handler.NewOAuth(r.oauthService, r.providers, r.sessions, r.contextManager, r.logger)

	mux := chi.NewRouter()
	mux.Use(logging.Handle)

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Route("/api/auth", func(api chi.Router) {
		api.Post("/register", authHandler.Register)
		api.Post("/login", authHandler.Login)
		api.Post("/logout", authHandler.Logout)
		api.Post("/refresh", authHandler.Refresh)
		api.Post("/password/forgot", authHandler.ForgotPassword)
		api.Post("/password/reset", authHandler.ResetPassword)

		api.Get("/oauth/{provider}", oauthHandler.Authorize)
		api.Get("/oauth/{provider}/callback", oauthHandler.Callback)

		api.Group(func(protected chi.Router) {
			protected.Use(authenticate.Handle)

			protected.Post("/password/change", authHandler.ChangePassword)
			protected.Get("/sessions", authHandler.Sessions)
			protected.Delete("/sessions", authHandler.RevokeSessions)

			protected.Get("/oauth", oauthHandler.Accounts)
			protected.Post("/oauth/{provider}/link", oauthHandler.Link)
			protected.Delete("/oauth/{provider}", oauthHandler.Unlink)
		})
	})

	return mux
}
