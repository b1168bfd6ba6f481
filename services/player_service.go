package services

import (
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"retroarcade-hub/middleware"
	"retroarcade-hub/models"
	"retroarcade-hub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CreatePlayer registers a new player. New accounts start with 1000 coins,
// level 1 and 0 XP.
func (s *PlayerService) CreatePlayer(c *fiber.Ctx) error {
	type Req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url,omitempty"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": "invalid JSON body",
		})
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if len(req.Username) < 3 || len(req.Username) > 50 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": "username must be between 3 and 50 characters",
		})
	}
	if !emailPattern.MatchString(req.Email) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": "email format is invalid",
		})
	}

	// Uniqueness checks surface which field collided, matching the client
	// contract.
	var count int64
	if err := s.DB.Model(&models.Player{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error checking username"})
	}
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": fmt.Sprintf("Username '%s' already exists", req.Username),
		})
	}
	if err := s.DB.Model(&models.Player{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error checking email"})
	}
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": fmt.Sprintf("Email '%s' already exists", req.Email),
		})
	}

	avatarURL := req.AvatarURL
	if avatarURL == "" {
		avatarURL = models.DefaultAvatarURL
	}

	player := models.Player{
		ID:               uuid.NewString(),
		Username:         req.Username,
		Email:            req.Email,
		AvatarURL:        avatarURL,
		Coins:            models.StartingCoins,
		Level:            models.StartingLevel,
		ExperiencePoints: 0,
		IsActive:         true,
	}

	if err := s.DB.Create(&player).Error; err != nil {
		log.Printf("ERROR creating player %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to create player"})
	}

	return c.Status(fiber.StatusCreated).JSON(player)
}

// GetPlayerByID returns a single player profile.
func (s *PlayerService) GetPlayerByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var player models.Player
	if err := s.DB.First(&player, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Player not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error fetching player"})
	}

	return c.JSON(player)
}

// GetInventory lists the caller's power-up inventory. Players can only read
// their own inventory.
func (s *PlayerService) GetInventory(c *fiber.Ctx) error {
	playerID := c.Params("id")
	if playerID != middleware.CallerID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "Unauthorized"})
	}

	var entries []models.PlayerPowerUp
	err := s.DB.Preload("PowerUp").
		Where("player_id = ? AND quantity > 0", playerID).
		Order("acquired_at").
		Find(&entries).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error fetching inventory"})
	}

	result := make([]fiber.Map, len(entries))
	for i, e := range entries {
		result[i] = fiber.Map{
			"power_up":    e.PowerUp,
			"quantity":    e.Quantity,
			"acquired_at": e.AcquiredAt,
		}
	}

	return c.JSON(result)
}

// UploadAvatar stores a new avatar image (R2 when configured, local uploads/
// otherwise) and updates the player's avatar_url.
func (s *PlayerService) UploadAvatar(c *fiber.Ctx) error {
	playerID := c.Params("id")
	if playerID != middleware.CallerID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "Unauthorized"})
	}

	var player models.Player
	if err := s.DB.First(&player, "id = ?", playerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Player not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error fetching player"})
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "avatar file is required"})
	}
	if avatarFile.Size > 5*1024*1024 { // 5MB
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "avatar too large (max 5MB)"})
	}

	ext := filepath.Ext(avatarFile.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "avatars/" + uuid.NewString() + ext

	var avatarURL string
	if utils.R2Enabled() {
		avatarURL, err = utils.UploadFileToR2(avatarFile, key)
		if err != nil {
			log.Printf("ERROR uploading avatar for %s to R2: %v", playerID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to upload avatar"})
		}
	} else {
		localPath := utils.GetUploadPath(key)
		if err := utils.SaveFile(avatarFile, localPath); err != nil {
			log.Printf("ERROR saving avatar for %s locally: %v", playerID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to save avatar"})
		}
		avatarURL = "/" + localPath
	}

	if err := s.DB.Model(&player).Update("avatar_url", avatarURL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to update avatar"})
	}

	return c.JSON(fiber.Map{
		"message":    "avatar updated",
		"avatar_url": avatarURL,
	})
}
