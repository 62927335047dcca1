package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes регистрирует HTTP API. При пустом jwtSecret изменяющие маршруты
// доступны без авторизации (локальный режим).
func SetupRoutes(
	router chi.Router,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	historyHandler *handlers.HistoryHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := func(r chi.Router) {
		if jwtSecret != "" {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))
		}
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			authenticate(r)
			r.Use(chiMiddleware.Timeout(15 * time.Second))
			r.Post("/", tournamentHandler.CreateHandler)
			r.Post("/{tournamentID}/start", tournamentHandler.StartHandler)
			r.Post("/{tournamentID}/matches/{matchID}/actions", tournamentHandler.ActionHandler)
			r.Post("/{tournamentID}/matches/{matchID}/forfeit", tournamentHandler.ForfeitHandler)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetTeam)
		r.Group(func(r chi.Router) {
			authenticate(r)
			r.Put("/{teamID}", teamHandler.SaveTeam)
		})
	})

	router.Get("/history", historyHandler.ListHandler)
	router.Route("/stats", func(r chi.Router) {
		r.Get("/{ownerID}", historyHandler.GetStatsHandler)
		r.Group(func(r chi.Router) {
			authenticate(r)
			r.Delete("/", historyHandler.ResetStatsHandler)
			r.Delete("/{ownerID}", historyHandler.ResetStatsHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
