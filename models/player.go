package models

import (
	"time"
)

const DefaultAvatarURL = "https://retro.com/avatars/default.png"

// Starting balances applied at registration.
const (
	StartingCoins = 1000
	StartingLevel = 1
)

// Player is a registered account. Coins, level and XP are mutated by gameplay
// systems; registration only sets the defaults.
type Player struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	Username         string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email            string    `json:"email" gorm:"uniqueIndex;size:100;not null"`
	AvatarURL        string    `json:"avatar_url" gorm:"size:200"`
	Coins            int64     `json:"coins" gorm:"default:1000"`
	Level            int       `json:"level" gorm:"default:1"`
	ExperiencePoints int64     `json:"experience_points" gorm:"default:0"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	IsActive         bool      `json:"is_active" gorm:"default:true"`
}
