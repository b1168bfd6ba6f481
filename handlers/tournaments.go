package handlers

import (
	"retroarcade-hub/middleware"
	"retroarcade-hub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(api fiber.Router, tournamentService *services.TournamentService, resolver middleware.IdentityResolver) {
	// 🔓 Public routes
	api.Get("/tournaments", tournamentService.ListTournaments)
	api.Get("/tournaments/:id", tournamentService.GetTournamentByID)

	// 🔐 Authenticated routes
	secured := api.Group("/tournaments", middleware.PlayerContextMiddleware(resolver))
	secured.Post("/:id/join", tournamentService.JoinTournament)
}
