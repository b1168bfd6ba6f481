package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"retroarcade-hub/middleware"
	"retroarcade-hub/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Eligibility failures for applying a power-up. Each maps to one client-facing
// status; anything else coming out of the transaction is a persistence
// failure and surfaces as a 500 with no partial mutation.
var (
	ErrTournamentNotAvailable = errors.New("active tournament not found")
	ErrInventoryInsufficient  = errors.New("power-up not available in inventory")
	ErrPowerUpNotFound        = errors.New("power-up not found")
	ErrNotRegistered          = errors.New("player not registered in tournament")
)

type ApplyPowerUpRequest struct {
	TournamentID string `json:"tournament_id"`
	PowerUpID    string `json:"power_up_id"`
}

// ApplyPowerUpResult carries what the response formatter needs: the applied
// catalog entry and the post-decrement quantity (0 when the inventory row was
// deleted).
type ApplyPowerUpResult struct {
	PowerUp           models.PowerUp
	Effect            models.AppliedEffect
	RemainingQuantity int
}

// eligibility is the validated tuple handed from the validator to the
// applicator, all read inside the same transaction.
type eligibility struct {
	tournament    models.Tournament
	entry         models.PlayerPowerUp
	powerUp       models.PowerUp
	participation models.TournamentParticipation
}

// validateEligibility runs the four checks in strict order, short-circuiting
// on the first failure. Tournament availability comes first: it is the most
// actionable error and independent of the caller's inventory. Pure reads.
func validateEligibility(tx *gorm.DB, playerID, tournamentID, powerUpID string) (*eligibility, error) {
	var elig eligibility

	err := tx.Where("id = ? AND status = ?", tournamentID, models.TournamentStatusActive).
		First(&elig.tournament).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTournamentNotAvailable
		}
		return nil, err
	}

	err = tx.Where("player_id = ? AND power_up_id = ? AND quantity > 0", playerID, powerUpID).
		First(&elig.entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInventoryInsufficient
		}
		return nil, err
	}

	// Unreachable while inventory integrity holds, but kept as its own
	// failure path.
	err = tx.First(&elig.powerUp, "id = ?", powerUpID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPowerUpNotFound
		}
		return nil, err
	}

	err = tx.Where("tournament_id = ? AND player_id = ?", tournamentID, playerID).
		First(&elig.participation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}

	return &elig, nil
}

// applyEffect consumes one unit of inventory and appends the timed effect to
// the participation's log. Must run inside the caller's transaction.
//
// The decrement is a guarded update (quantity > 0), not a blind write: two
// racing applications of the last unit can both pass validation, but only one
// guarded update takes effect — the loser sees RowsAffected == 0 and fails
// with ErrInventoryInsufficient. Quantity can never go negative.
func applyEffect(tx *gorm.DB, elig *eligibility) (*ApplyPowerUpResult, error) {
	res := tx.Model(&models.PlayerPowerUp{}).
		Where("id = ? AND quantity > 0", elig.entry.ID).
		Update("quantity", gorm.Expr("quantity - 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInventoryInsufficient
	}

	var fresh models.PlayerPowerUp
	if err := tx.First(&fresh, "id = ?", elig.entry.ID).Error; err != nil {
		return nil, err
	}
	if fresh.Quantity == 0 {
		// Zero-quantity rows are not valid persisted state.
		if err := tx.Delete(&models.PlayerPowerUp{}, "id = ?", elig.entry.ID).Error; err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	effect := models.AppliedEffect{
		PowerUpID:   elig.powerUp.ID,
		Name:        elig.powerUp.Name,
		EffectType:  elig.powerUp.EffectType,
		EffectValue: elig.powerUp.EffectValue,
		AppliedAt:   now,
		ExpiresAt:   now.Add(time.Duration(elig.powerUp.DurationMinutes) * time.Minute),
	}

	// Re-read the participation after the guarded decrement, not before it.
	// The decrement serializes concurrent applies on the inventory row; the
	// log read from validateEligibility may predate a racing apply's commit,
	// and appending to that stale copy would erase the committed effect.
	var participation models.TournamentParticipation
	if err := tx.First(&participation, "id = ?", elig.participation.ID).Error; err != nil {
		return nil, err
	}

	effectLog, err := participation.EffectLog()
	if err != nil {
		return nil, fmt.Errorf("failed to decode effect log: %w", err)
	}
	effectLog.Effects = append(effectLog.Effects, effect)
	if err := participation.SetEffectLog(effectLog); err != nil {
		return nil, fmt.Errorf("failed to encode effect log: %w", err)
	}

	err = tx.Model(&models.TournamentParticipation{}).
		Where("id = ?", participation.ID).
		Update("active_effects", participation.ActiveEffects).Error
	if err != nil {
		return nil, err
	}

	return &ApplyPowerUpResult{
		PowerUp:           elig.powerUp,
		Effect:            effect,
		RemainingQuantity: fresh.Quantity,
	}, nil
}

// applyPowerUp is the single implementation of the apply transaction:
// validate, then mutate, all inside one transaction. Either everything
// commits or nothing does.
func (s *PlayerService) applyPowerUp(playerID string, req ApplyPowerUpRequest) (*ApplyPowerUpResult, error) {
	var result *ApplyPowerUpResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		elig, err := validateEligibility(tx, playerID, req.TournamentID, req.PowerUpID)
		if err != nil {
			return err
		}
		result, err = applyEffect(tx, elig)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyPowerUp consumes one inventory unit and applies its timed effect to
// the caller's participation in the given tournament.
func (s *PlayerService) ApplyPowerUp(c *fiber.Ctx) error {
	playerID := c.Params("id")

	// A player can only apply effects on their own behalf.
	var player models.Player
	if err := s.DB.First(&player, "id = ?", playerID).Error; err != nil && err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error fetching player"})
	}
	if player.ID == "" || player.ID != middleware.CallerID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "Unauthorized"})
	}

	var req ApplyPowerUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid JSON body"})
	}
	if req.TournamentID == "" || req.PowerUpID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "tournament_id and power_up_id are required"})
	}

	result, err := s.applyPowerUp(playerID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTournamentNotAvailable):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Active tournament not found"})
		case errors.Is(err, ErrInventoryInsufficient):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Power-up not available in inventory"})
		case errors.Is(err, ErrPowerUpNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Power-up not found"})
		case errors.Is(err, ErrNotRegistered):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Player not registered in tournament"})
		default:
			log.Printf("ERROR: apply power-up transaction failed for player %s: %v", playerID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to apply power-up"})
		}
	}

	return c.JSON(fiber.Map{
		"message":            fmt.Sprintf("Power-up '%s' applied successfully", result.PowerUp.Name),
		"effect":             fmt.Sprintf("%s: +%s", result.PowerUp.EffectType, formatEffectValue(result.PowerUp.EffectValue)),
		"duration_minutes":   result.PowerUp.DurationMinutes,
		"remaining_quantity": result.RemainingQuantity,
	})
}

// formatEffectValue renders whole values with one decimal place (2 → "2.0"),
// fractional ones exactly (1.5 → "1.5").
func formatEffectValue(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
