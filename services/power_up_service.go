package services

import (
	"log"

	"retroarcade-hub/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PowerUpService struct {
	DB *gorm.DB
}

func NewPowerUpService(db *gorm.DB) *PowerUpService {
	return &PowerUpService{DB: db}
}

// ListPowerUps returns the whole catalog.
func (s *PowerUpService) ListPowerUps(c *fiber.Ctx) error {
	var powerUps []models.PowerUp
	if err := s.DB.Order("price").Find(&powerUps).Error; err != nil {
		log.Printf("ERROR fetching power-up catalog: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to fetch power-ups"})
	}
	return c.JSON(powerUps)
}

// GrantPowerUp adds units of a catalog power-up to a player's inventory
// (operator only). Granting to an existing entry bumps its quantity; granting
// to a fresh pair creates the row. Acquisition is the only inventory mutation
// path besides the applicator's consume.
func (s *PowerUpService) GrantPowerUp(c *fiber.Ctx) error {
	playerID := c.Params("id")

	var req struct {
		PowerUpID string `json:"power_up_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid JSON body"})
	}
	if req.PowerUpID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "power_up_id is required"})
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	var player models.Player
	if err := s.DB.First(&player, "id = ?", playerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Player not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error fetching player"})
	}
	var powerUp models.PowerUp
	if err := s.DB.First(&powerUp, "id = ?", req.PowerUpID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Power-up not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error fetching power-up"})
	}

	var entry models.PlayerPowerUp
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Increment in place so concurrent grants can't lose an update.
		res := tx.Model(&models.PlayerPowerUp{}).
			Where("player_id = ? AND power_up_id = ?", playerID, req.PowerUpID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			entry = models.PlayerPowerUp{
				ID:        uuid.NewString(),
				PlayerID:  playerID,
				PowerUpID: req.PowerUpID,
				Quantity:  quantity,
			}
			return tx.Create(&entry).Error
		}
		return tx.Where("player_id = ? AND power_up_id = ?", playerID, req.PowerUpID).
			First(&entry).Error
	})
	if err != nil {
		log.Printf("ERROR granting power-up %s to player %s: %v", req.PowerUpID, playerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to grant power-up"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "power-up granted",
		"power_up_id": req.PowerUpID,
		"quantity":    entry.Quantity,
	})
}
