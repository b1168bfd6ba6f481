package models

import (
	"time"
)

// Tournament lifecycle statuses. Transitions are driven by the status
// scheduler (upcoming → active at StartDate, active → completed at EndDate).
const (
	TournamentStatusUpcoming  = "upcoming"
	TournamentStatusActive    = "active"
	TournamentStatusCompleted = "completed"
)

// Tournament is operator-owned and read-only from the power-up core's
// perspective.
type Tournament struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	Name            string    `json:"name" gorm:"size:100;not null"`
	Slug            string    `json:"slug" gorm:"index;size:120"`
	GameTitle       string    `json:"game_title" gorm:"size:100;not null"`
	Description     string    `json:"description" gorm:"size:500"`
	EntryFee        int64     `json:"entry_fee" gorm:"default:0"`
	PrizePool       int64     `json:"prize_pool" gorm:"default:0"`
	MaxParticipants int       `json:"max_participants" gorm:"default:32"`
	StartDate       time.Time `json:"start_date" gorm:"not null"`
	EndDate         time.Time `json:"end_date" gorm:"not null"`
	Status          string    `json:"status" gorm:"size:20;default:'upcoming'"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Calculated field (not stored in DB)
	CurrentParticipants int64 `json:"current_participants" gorm:"-"`
}
