package services

import (
	"log"
	"time"

	"retroarcade-hub/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// SeedSampleData inserts the starter power-up catalog and a few tournaments.
// Idempotent: does nothing once any tournament exists.
func SeedSampleData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Tournament{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()

	powerUps := []models.PowerUp{
		{
			ID:              uuid.NewString(),
			Name:            "Speed Boost",
			Description:     "Increases player speed for 30 minutes",
			EffectType:      models.EffectSpeedBoost,
			EffectValue:     1.5,
			DurationMinutes: 30,
			Rarity:          "common",
			Price:           100,
		},
		{
			ID:              uuid.NewString(),
			Name:            "Super Shield",
			Description:     "Full protection against attacks for 15 minutes",
			EffectType:      models.EffectShield,
			EffectValue:     1.0,
			DurationMinutes: 15,
			Rarity:          "rare",
			Price:           250,
		},
		{
			ID:              uuid.NewString(),
			Name:            "Damage Multiplier",
			Description:     "Doubles the damage of every attack",
			EffectType:      models.EffectDamageUp,
			EffectValue:     2.0,
			DurationMinutes: 20,
			Rarity:          "epic",
			Price:           500,
		},
	}

	tournaments := []models.Tournament{
		{
			ID:              uuid.NewString(),
			Name:            "Pac-Man Championship 2025",
			GameTitle:       "Pac-Man",
			Description:     "The classic dot-muncher's flagship tournament",
			EntryFee:        50,
			PrizePool:       5000,
			MaxParticipants: 32,
			StartDate:       now.Add(24 * time.Hour),
			EndDate:         now.Add(72 * time.Hour),
			Status:          models.TournamentStatusUpcoming,
		},
		{
			ID:              uuid.NewString(),
			Name:            "Street Fighter II Legends",
			GameTitle:       "Street Fighter II",
			Description:     "Epic battles with the legendary fighters",
			EntryFee:        100,
			PrizePool:       10000,
			MaxParticipants: 16,
			StartDate:       now.Add(-2 * time.Hour),
			EndDate:         now.Add(48 * time.Hour),
			Status:          models.TournamentStatusActive,
		},
		{
			ID:              uuid.NewString(),
			Name:            "Tetris Speed Masters",
			GameTitle:       "Tetris",
			Description:     "Who clears lines the fastest?",
			EntryFee:        25,
			PrizePool:       2500,
			MaxParticipants: 64,
			StartDate:       now.Add(6 * time.Hour),
			EndDate:         now.Add(24 * time.Hour),
			Status:          models.TournamentStatusUpcoming,
		},
	}
	for i := range tournaments {
		tournaments[i].Slug = slug.Make(tournaments[i].Name)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&powerUps).Error; err != nil {
			return err
		}
		return tx.Create(&tournaments).Error
	})
	if err != nil {
		return err
	}

	log.Println("✅ Sample data seeded")
	return nil
}
