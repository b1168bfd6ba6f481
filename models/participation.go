package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EffectLogVersion is the current schema version of the serialized effect log.
const EffectLogVersion = 1

// AppliedEffect is one entry of a participation's effect log. Expiry is
// advisory: entries are never removed, consumers filter by ExpiresAt.
type AppliedEffect struct {
	PowerUpID   string    `json:"power_up_id"`
	Name        string    `json:"name"`
	EffectType  string    `json:"effect_type"`
	EffectValue float64   `json:"effect_value"`
	AppliedAt   time.Time `json:"applied_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// EffectLog is the versioned envelope stored in the participation's
// active_effects column.
type EffectLog struct {
	Version int             `json:"v"`
	Effects []AppliedEffect `json:"effects"`
}

// Active returns the entries whose expiry is still in the future. The stored
// log itself is append-only.
func (l *EffectLog) Active(now time.Time) []AppliedEffect {
	var out []AppliedEffect
	for _, e := range l.Effects {
		if e.ExpiresAt.After(now) {
			out = append(out, e)
		}
	}
	return out
}

// TournamentParticipation is a player's enrollment in one tournament. The
// effect log has no identity of its own: it lives inside ActiveEffects and is
// rewritten whole on every append.
type TournamentParticipation struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	TournamentID  string    `json:"tournament_id" gorm:"not null;uniqueIndex:idx_tournament_player"`
	PlayerID      string    `json:"player_id" gorm:"not null;uniqueIndex:idx_tournament_player"`
	Score         int64     `json:"score" gorm:"default:0"`
	Position      int       `json:"position" gorm:"default:0"` // 0 = not ranked
	ActiveEffects string    `json:"-" gorm:"type:text"`
	JoinedAt      time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// EffectLog decodes the stored log. An empty column yields an empty log.
// Rows written before the versioned envelope hold a bare JSON array and are
// still accepted.
func (p *TournamentParticipation) EffectLog() (*EffectLog, error) {
	raw := strings.TrimSpace(p.ActiveEffects)
	if raw == "" {
		return &EffectLog{Version: EffectLogVersion}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var effects []AppliedEffect
		if err := json.Unmarshal([]byte(raw), &effects); err != nil {
			return nil, err
		}
		return &EffectLog{Version: EffectLogVersion, Effects: effects}, nil
	}
	var log EffectLog
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		return nil, err
	}
	if log.Version == 0 {
		log.Version = EffectLogVersion
	}
	return &log, nil
}

// SetEffectLog re-encodes the log into the stored column.
func (p *TournamentParticipation) SetEffectLog(log *EffectLog) error {
	log.Version = EffectLogVersion
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}
	p.ActiveEffects = string(data)
	return nil
}
