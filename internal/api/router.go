package api

import (
	"net/http"
	"time"

	"deeds_api/internal/api/handler"
	"deeds_api/internal/api/middleware"
	"deeds_api/internal/app/service"
	"deeds_api/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	deedService *service.DeedService,
	boardService *service.LeaderboardService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	// Token verification: checks the bearer header first, then the
	// session cookie, and leaves claims (or the error) in the context
	// for Authenticator to act on.
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader, middleware.TokenFromSessionCookie))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(apiRouter chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		apiRouter.Route("/auth", authHandler.RegisterRoutes)

		// Deed routes (authenticated) and admin verification
		deedHandler := handler.NewDeedHandler(deedService)
		apiRouter.Route("/deeds", deedHandler.RegisterRoutes)
		apiRouter.Route("/verify", deedHandler.RegisterVerifyRoutes)

		// Leaderboard, profile, catalog (public)
		boardHandler := handler.NewBoardHandler(boardService, deedService)
		boardHandler.RegisterRoutes(apiRouter)
	})

	return r
}
