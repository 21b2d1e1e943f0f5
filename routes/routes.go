package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/competition-system/handlers"
	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/models"
)

type Handlers struct {
	Brackets  *handlers.BracketHandler
	Matches   *handlers.MatchHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
	Metrics   http.Handler
}

var (
	organizers = []models.UserRole{models.RoleAdmin, models.RoleOrganizer}
	referees   = []models.UserRole{models.RoleAdmin, models.RoleOrganizer, models.RoleChiefJudge}
)

func SetupRoutes(router chi.Router, auth *middleware.Authenticator, allowedOrigins []string, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.Healthz)
	if h.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", h.Metrics)
	}
	router.Get("/ws/competitions/{competitionID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/competitions/{competitionID}", func(r chi.Router) {
			r.Get("/brackets", h.Brackets.ListHandler)
			r.Get("/categories/{categoryID}/bracket", h.Brackets.GetByCategoryHandler)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Use(middleware.RequireRoles(organizers...))

				r.Post("/bracket", h.Brackets.GenerateTeamHandler)
				r.Post("/categories/{categoryID}/bracket", h.Brackets.GenerateCategoryHandler)
				r.Post("/brackets/regenerate", h.Brackets.RegenerateHandler)
			})
		})

		r.Route("/brackets/{bracketID}", func(r chi.Router) {
			r.Get("/", h.Brackets.GetHandler)
			r.Get("/matches", h.Matches.ListHandler)
			r.Get("/results", h.Matches.ResultsHandler)
			r.Get("/standings", h.Matches.StandingsHandler)

			r.Route("/matches/{matchID}", func(r chi.Router) {
				r.Get("/", h.Matches.GetHandler)
				r.Get("/results", h.Matches.MatchResultsHandler)

				r.Group(func(r chi.Router) {
					r.Use(auth.Authenticate)

					r.Post("/result", h.Matches.SubmitResultHandler)
					r.Post("/confirm", h.Matches.ConfirmHandler)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRoles(referees...))

						r.Post("/approve", h.Matches.ApproveHandler)
						r.Patch("/schedule", h.Matches.ScheduleHandler)
						r.Post("/start", h.Matches.StartHandler)
						r.Post("/cancel", h.Matches.CancelHandler)
					})
				})
			})
		})
	})
}
