package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"retroarcade-hub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlayerAppliesDefaults(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db)

	resp, body := doRequest(t, app, "POST", "/api/v1/players",
		`{"username":"retromaster","email":"retromaster@retro.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var player models.Player
	require.NoError(t, json.Unmarshal([]byte(body), &player))
	assert.Equal(t, "retromaster", player.Username)
	assert.EqualValues(t, 1000, player.Coins)
	assert.Equal(t, 1, player.Level)
	assert.EqualValues(t, 0, player.ExperiencePoints)
	assert.True(t, player.IsActive)
	assert.Equal(t, models.DefaultAvatarURL, player.AvatarURL)
	assert.NotEmpty(t, player.ID)
}

func TestCreatePlayerDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db)

	payload := `{"username":"retromaster","email":"first@retro.com"}`
	resp, _ := doRequest(t, app, "POST", "/api/v1/players", payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doRequest(t, app, "POST", "/api/v1/players",
		`{"username":"retromaster","email":"second@retro.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Username 'retromaster' already exists")
}

func TestCreatePlayerDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db)

	resp, _ := doRequest(t, app, "POST", "/api/v1/players",
		`{"username":"player_one","email":"shared@retro.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doRequest(t, app, "POST", "/api/v1/players",
		`{"username":"player_two","email":"shared@retro.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Email 'shared@retro.com' already exists")
}

func TestCreatePlayerSchemaValidation(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db)

	cases := []struct {
		name string
		body string
	}{
		{"malformed email", `{"username":"testuser","email":"invalid-email"}`},
		{"short username", `{"username":"ab","email":"ok@retro.com"}`},
		{"missing fields", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doRequest(t, app, "POST", "/api/v1/players", tc.body, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestGetPlayer(t *testing.T) {
	db := newTestDB(t)
	player := createTestPlayer(t, db, "retromaster")
	app := newTestApp(t, db)

	resp, body := doRequest(t, app, "GET", "/api/v1/players/"+player.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, player.Username)

	resp, _ = doRequest(t, app, "GET", "/api/v1/players/no-such-id", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetInventory(t *testing.T) {
	db := newTestDB(t)
	player := createTestPlayer(t, db, "retromaster")
	other := createTestPlayer(t, db, "otherplayer")
	powerUp := createTestPowerUp(t, db, "Speed Boost", models.EffectSpeedBoost, 1.5, 30)
	grantTestInventory(t, db, player.ID, powerUp.ID, 2)
	app := newTestApp(t, db)

	resp, body := doRequest(t, app, "GET", "/api/v1/players/"+player.ID+"/inventory", "",
		bearer(playerToken(player)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var inventory []struct {
		PowerUp  models.PowerUp `json:"power_up"`
		Quantity int            `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &inventory))
	require.Len(t, inventory, 1)
	assert.Equal(t, "Speed Boost", inventory[0].PowerUp.Name)
	assert.Equal(t, 2, inventory[0].Quantity)

	// Reading someone else's inventory is forbidden.
	resp, _ = doRequest(t, app, "GET", "/api/v1/players/"+player.ID+"/inventory", "",
		bearer(playerToken(other)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unresolvable credential never reaches the handler.
	resp, _ = doRequest(t, app, "GET", "/api/v1/players/"+player.ID+"/inventory", "",
		bearer("bogus-token"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestApplyPowerUpEndToEnd walks the whole flow over HTTP: a registered
// player who owns one Speed Boost and joined an active tournament applies it,
// then fails to apply it again.
func TestApplyPowerUpEndToEnd(t *testing.T) {
	db := newTestDB(t)
	player := createTestPlayer(t, db, "scenario_player")
	tournament := createTestTournament(t, db, "Street Fighter II Legends", "Street Fighter II", models.TournamentStatusActive)
	powerUp := createTestPowerUp(t, db, "Speed Boost", models.EffectSpeedBoost, 1.5, 30)
	grantTestInventory(t, db, player.ID, powerUp.ID, 1)
	joinTestTournament(t, db, tournament.ID, player.ID)
	app := newTestApp(t, db)

	payload := fmt.Sprintf(`{"tournament_id":%q,"power_up_id":%q}`, tournament.ID, powerUp.ID)

	resp, body := doRequest(t, app, "POST", "/api/v1/players/"+player.ID+"/apply-power-up",
		payload, bearer(playerToken(player)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Message           string `json:"message"`
		Effect            string `json:"effect"`
		DurationMinutes   int    `json:"duration_minutes"`
		RemainingQuantity int    `json:"remaining_quantity"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, "Power-up 'Speed Boost' applied successfully", result.Message)
	assert.Equal(t, "speed_boost: +1.5", result.Effect)
	assert.Equal(t, 30, result.DurationMinutes)
	assert.Equal(t, 0, result.RemainingQuantity)

	// Inventory entry is gone, the effect log holds exactly one entry.
	var count int64
	require.NoError(t, db.Model(&models.PlayerPowerUp{}).Where("player_id = ?", player.ID).Count(&count).Error)
	assert.Zero(t, count)

	var participation models.TournamentParticipation
	require.NoError(t, db.Where("tournament_id = ? AND player_id = ?", tournament.ID, player.ID).First(&participation).Error)
	log, err := participation.EffectLog()
	require.NoError(t, err)
	require.Len(t, log.Effects, 1)
	assert.Equal(t, models.EffectSpeedBoost, log.Effects[0].EffectType)
	assert.Equal(t, 1.5, log.Effects[0].EffectValue)

	// Second application: inventory is empty now.
	resp, body = doRequest(t, app, "POST", "/api/v1/players/"+player.ID+"/apply-power-up",
		payload, bearer(playerToken(player)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Power-up not available in inventory")
}

func TestApplyPowerUpStatusMapping(t *testing.T) {
	db := newTestDB(t)
	player := createTestPlayer(t, db, "retromaster")
	other := createTestPlayer(t, db, "otherplayer")
	upcoming := createTestTournament(t, db, "Pac-Man Championship", "Pac-Man", models.TournamentStatusUpcoming)
	active := createTestTournament(t, db, "Street Fighter II Legends", "Street Fighter II", models.TournamentStatusActive)
	powerUp := createTestPowerUp(t, db, "Speed Boost", models.EffectSpeedBoost, 1.5, 30)
	app := newTestApp(t, db)

	// Applying on behalf of another player is forbidden.
	payload := fmt.Sprintf(`{"tournament_id":%q,"power_up_id":%q}`, active.ID, powerUp.ID)
	resp, _ := doRequest(t, app, "POST", "/api/v1/players/"+player.ID+"/apply-power-up",
		payload, bearer(playerToken(other)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Non-active tournament → 404, regardless of inventory state.
	payload = fmt.Sprintf(`{"tournament_id":%q,"power_up_id":%q}`, upcoming.ID, powerUp.ID)
	resp, body := doRequest(t, app, "POST", "/api/v1/players/"+player.ID+"/apply-power-up",
		payload, bearer(playerToken(player)))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Active tournament not found")

	// No inventory → 400.
	payload = fmt.Sprintf(`{"tournament_id":%q,"power_up_id":%q}`, active.ID, powerUp.ID)
	resp, body = doRequest(t, app, "POST", "/api/v1/players/"+player.ID+"/apply-power-up",
		payload, bearer(playerToken(player)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Power-up not available in inventory")
}
