package handlers

import (
	"retroarcade-hub/middleware"
	"retroarcade-hub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPowerUpRoutes(api fiber.Router, powerUpService *services.PowerUpService, tournamentService *services.TournamentService, serviceToken string) {
	// 🔓 Public catalog
	api.Get("/power-ups", powerUpService.ListPowerUps)

	// 🔒 Operator-only routes behind the shared service token
	admin := api.Group("/admin", middleware.ServiceAuthMiddleware(serviceToken))
	admin.Post("/players/:id/power-ups", powerUpService.GrantPowerUp)
	admin.Post("/tournaments", tournamentService.CreateTournament)
	admin.Patch("/tournaments/:id/status", tournamentService.UpdateTournamentStatus)
}
