package models

import (
	"time"
)

// Known effect types. The catalog may grow beyond these; the core treats the
// value as opaque.
const (
	EffectSpeedBoost = "speed_boost"
	EffectShield     = "shield"
	EffectDamageUp   = "damage_up"
)

// PowerUp is an immutable catalog entry. EffectValue is the multiplier or flat
// value applied while the effect is live; DurationMinutes bounds its lifetime.
type PowerUp struct {
	ID              string  `json:"id" gorm:"primaryKey"`
	Name            string  `json:"name" gorm:"size:50;not null"`
	Description     string  `json:"description" gorm:"size:200"`
	EffectType      string  `json:"effect_type" gorm:"size:30"`
	EffectValue     float64 `json:"effect_value"`
	DurationMinutes int     `json:"duration_minutes" gorm:"default:30"`
	Rarity          string  `json:"rarity" gorm:"size:20;default:'common'"` // common, rare, epic, legendary
	Price           int64   `json:"price" gorm:"default:100"`
}

// PlayerPowerUp is one inventory entry: how many units of a power-up a player
// owns. A row with quantity 0 must never persist — the applicator deletes the
// row when the last unit is consumed.
type PlayerPowerUp struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	PlayerID   string    `json:"player_id" gorm:"not null;uniqueIndex:idx_player_power_up"`
	PowerUpID  string    `json:"power_up_id" gorm:"not null;uniqueIndex:idx_player_power_up"`
	Quantity   int       `json:"quantity" gorm:"not null;default:1"`
	AcquiredAt time.Time `json:"acquired_at" gorm:"autoCreateTime"`

	PowerUp PowerUp `json:"power_up,omitempty" gorm:"foreignKey:PowerUpID"`
}
