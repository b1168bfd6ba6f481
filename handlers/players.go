package handlers

import (
	"retroarcade-hub/middleware"
	"retroarcade-hub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayerRoutes(api fiber.Router, playerService *services.PlayerService, resolver middleware.IdentityResolver) {
	// 🔓 Public routes
	api.Post("/players", playerService.CreatePlayer)
	api.Get("/players/:id", playerService.GetPlayerByID)

	// 🔐 Authenticated routes — caller identity comes from the resolver
	secured := api.Group("/players", middleware.PlayerContextMiddleware(resolver))
	secured.Post("/:id/apply-power-up", playerService.ApplyPowerUp)
	secured.Get("/:id/inventory", playerService.GetInventory)
	secured.Post("/:id/avatar", playerService.UploadAvatar)
}
