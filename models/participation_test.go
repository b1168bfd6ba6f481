package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectLogRoundTrip(t *testing.T) {
	p := TournamentParticipation{ID: "p1"}

	log, err := p.EffectLog()
	require.NoError(t, err)
	assert.Equal(t, EffectLogVersion, log.Version)
	assert.Empty(t, log.Effects)

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	log.Effects = append(log.Effects, AppliedEffect{
		PowerUpID:   "pu1",
		Name:        "Speed Boost",
		EffectType:  EffectSpeedBoost,
		EffectValue: 1.5,
		AppliedAt:   now,
		ExpiresAt:   now.Add(30 * time.Minute),
	})
	require.NoError(t, p.SetEffectLog(log))
	assert.True(t, strings.HasPrefix(p.ActiveEffects, `{"v":1`), "stored log carries the schema version")

	decoded, err := p.EffectLog()
	require.NoError(t, err)
	require.Len(t, decoded.Effects, 1)
	assert.Equal(t, "Speed Boost", decoded.Effects[0].Name)
	assert.Equal(t, 30*time.Minute, decoded.Effects[0].ExpiresAt.Sub(decoded.Effects[0].AppliedAt))
}

func TestEffectLogAcceptsLegacyArray(t *testing.T) {
	legacy := []AppliedEffect{{
		PowerUpID:  "pu1",
		Name:       "Super Shield",
		EffectType: EffectShield,
	}}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)

	p := TournamentParticipation{ActiveEffects: string(raw)}
	log, err := p.EffectLog()
	require.NoError(t, err)
	assert.Equal(t, EffectLogVersion, log.Version)
	require.Len(t, log.Effects, 1)
	assert.Equal(t, "Super Shield", log.Effects[0].Name)
}

func TestEffectLogRejectsGarbage(t *testing.T) {
	p := TournamentParticipation{ActiveEffects: "{not json"}
	_, err := p.EffectLog()
	assert.Error(t, err)
}

func TestEffectLogActiveFiltersExpired(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	log := EffectLog{Effects: []AppliedEffect{
		{Name: "expired", ExpiresAt: now.Add(-time.Minute)},
		{Name: "live", ExpiresAt: now.Add(time.Minute)},
	}}

	active := log.Active(now)
	require.Len(t, active, 1)
	assert.Equal(t, "live", active[0].Name)
	// The log itself keeps both entries.
	assert.Len(t, log.Effects, 2)
}
