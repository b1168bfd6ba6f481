package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"retroarcade-hub/middleware"
	"retroarcade-hub/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testServiceToken = "test-service-token"

// newTestDB opens a throwaway SQLite database. _txlock=immediate makes every
// transaction take the write lock up front, so concurrent apply transactions
// serialize the same way the production row-level locking contract does.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "retroarcade.db") + "?_txlock=immediate&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Player{},
		&models.Tournament{},
		&models.PowerUp{},
		&models.PlayerPowerUp{},
		&models.TournamentParticipation{},
	))
	return db
}

// tokenResolver resolves fixed tokens to fixed identities, standing in for
// the upstream credential verifier.
type tokenResolver map[string]middleware.Identity

func (r tokenResolver) Resolve(_ context.Context, token string) (*middleware.Identity, error) {
	identity, ok := r[token]
	if !ok {
		return nil, middleware.ErrUnknownIdentity
	}
	return &identity, nil
}

// playerToken is the bearer token the test resolver accepts for a player.
func playerToken(p models.Player) string {
	return "token-" + p.ID
}

// newTestApp wires the full route surface against the given DB, resolving
// bearer tokens through a tokenResolver fed from the players table.
func newTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	resolver := tokenResolver{}
	var players []models.Player
	require.NoError(t, db.Find(&players).Error)
	for _, p := range players {
		resolver[playerToken(p)] = middleware.Identity{PlayerID: p.ID, Username: p.Username}
	}

	playerService := NewPlayerService(db)
	tournamentService := NewTournamentService(db)
	powerUpService := NewPowerUpService(db)

	app := fiber.New()
	api := app.Group("/api/v1")

	api.Post("/players", playerService.CreatePlayer)
	api.Get("/players/:id", playerService.GetPlayerByID)
	securedPlayers := api.Group("/players", middleware.PlayerContextMiddleware(resolver))
	securedPlayers.Post("/:id/apply-power-up", playerService.ApplyPowerUp)
	securedPlayers.Get("/:id/inventory", playerService.GetInventory)

	api.Get("/tournaments", tournamentService.ListTournaments)
	api.Get("/tournaments/:id", tournamentService.GetTournamentByID)
	securedTournaments := api.Group("/tournaments", middleware.PlayerContextMiddleware(resolver))
	securedTournaments.Post("/:id/join", tournamentService.JoinTournament)

	api.Get("/power-ups", powerUpService.ListPowerUps)
	admin := api.Group("/admin", middleware.ServiceAuthMiddleware(testServiceToken))
	admin.Post("/players/:id/power-ups", powerUpService.GrantPowerUp)
	admin.Post("/tournaments", tournamentService.CreateTournament)
	admin.Patch("/tournaments/:id/status", tournamentService.UpdateTournamentStatus)

	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// Fixture builders. Each writes directly to the store.

func createTestPlayer(t *testing.T, db *gorm.DB, username string) models.Player {
	t.Helper()
	player := models.Player{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@retro.com",
		AvatarURL: models.DefaultAvatarURL,
		Coins:     models.StartingCoins,
		Level:     models.StartingLevel,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&player).Error)
	return player
}

func createTestTournament(t *testing.T, db *gorm.DB, name, gameTitle, status string) models.Tournament {
	t.Helper()
	now := time.Now().UTC()
	tournament := models.Tournament{
		ID:              uuid.NewString(),
		Name:            name,
		GameTitle:       gameTitle,
		MaxParticipants: 32,
		StartDate:       now.Add(-time.Hour),
		EndDate:         now.Add(24 * time.Hour),
		Status:          status,
	}
	require.NoError(t, db.Create(&tournament).Error)
	return tournament
}

func createTestPowerUp(t *testing.T, db *gorm.DB, name, effectType string, effectValue float64, durationMinutes int) models.PowerUp {
	t.Helper()
	powerUp := models.PowerUp{
		ID:              uuid.NewString(),
		Name:            name,
		EffectType:      effectType,
		EffectValue:     effectValue,
		DurationMinutes: durationMinutes,
		Rarity:          "common",
		Price:           100,
	}
	require.NoError(t, db.Create(&powerUp).Error)
	return powerUp
}

func grantTestInventory(t *testing.T, db *gorm.DB, playerID, powerUpID string, quantity int) models.PlayerPowerUp {
	t.Helper()
	entry := models.PlayerPowerUp{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		PowerUpID: powerUpID,
		Quantity:  quantity,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func joinTestTournament(t *testing.T, db *gorm.DB, tournamentID, playerID string) models.TournamentParticipation {
	t.Helper()
	participation := models.TournamentParticipation{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		PlayerID:     playerID,
	}
	require.NoError(t, db.Create(&participation).Error)
	return participation
}
