package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"retroarcade-hub/middleware"
	"retroarcade-hub/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	errTournamentFull    = errors.New("tournament is full")
	errInsufficientCoins = errors.New("insufficient coins for entry fee")
)

type TournamentService struct {
	DB *gorm.DB
}

func NewTournamentService(db *gorm.DB) *TournamentService {
	return &TournamentService{DB: db}
}

// participantCounts returns participation counts per tournament in one
// grouped query.
func (s *TournamentService) participantCounts(ids []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []struct {
		TournamentID string
		Total        int64
	}
	err := s.DB.Model(&models.TournamentParticipation{}).
		Select("tournament_id, COUNT(*) as total").
		Where("tournament_id IN ?", ids).
		Group("tournament_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.TournamentID] = r.Total
	}
	return counts, nil
}

// ListTournaments lists tournaments with optional game_title substring and
// status filters. Status defaults to "active"; pass status= to list all.
func (s *TournamentService) ListTournaments(c *fiber.Ctx) error {
	gameTitle := c.Query("game_title", "")
	status := "active"
	if c.Request().URI().QueryArgs().Has("status") {
		status = c.Query("status")
	}

	db := s.DB.Model(&models.Tournament{}).Order("start_date")
	if gameTitle != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(gameTitle)) + "%"
		db = db.Where("LOWER(game_title) LIKE ?", searchTerm)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var tournaments []models.Tournament
	if err := db.Find(&tournaments).Error; err != nil {
		log.Printf("ERROR fetching tournaments: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to fetch tournaments"})
	}

	ids := make([]string, len(tournaments))
	for i, t := range tournaments {
		ids[i] = t.ID
	}
	counts, err := s.participantCounts(ids)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to count participants"})
	}
	for i := range tournaments {
		tournaments[i].CurrentParticipants = counts[tournaments[i].ID]
	}

	return c.JSON(tournaments)
}

// GetTournamentByID returns one tournament with its participant count.
func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Tournament not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error fetching tournament"})
	}

	counts, err := s.participantCounts([]string{tournament.ID})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to count participants"})
	}
	tournament.CurrentParticipants = counts[tournament.ID]

	return c.JSON(tournament)
}

// JoinTournament enrolls the caller. The entry fee is deducted from the
// player's coins in the same transaction that creates the participation, with
// a guarded update so the balance cannot go negative under concurrent joins.
func (s *TournamentService) JoinTournament(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	playerID := middleware.CallerID(c)

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Tournament not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error fetching tournament"})
	}
	if tournament.Status == models.TournamentStatusCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "tournament has already completed"})
	}

	var existing models.TournamentParticipation
	err := s.DB.Where("tournament_id = ? AND player_id = ?", tournamentID, playerID).
		First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"detail":        "player already joined this tournament",
			"participation": existing,
		})
	}
	if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "DB error checking participation"})
	}

	participation := models.TournamentParticipation{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		PlayerID:     playerID,
		JoinedAt:     time.Now().UTC(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if tournament.MaxParticipants > 0 {
			var count int64
			if err := tx.Model(&models.TournamentParticipation{}).
				Where("tournament_id = ?", tournamentID).
				Count(&count).Error; err != nil {
				return err
			}
			if int(count) >= tournament.MaxParticipants {
				return errTournamentFull
			}
		}

		if tournament.EntryFee > 0 {
			res := tx.Model(&models.Player{}).
				Where("id = ? AND coins >= ?", playerID, tournament.EntryFee).
				Update("coins", gorm.Expr("coins - ?", tournament.EntryFee))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errInsufficientCoins
			}
		}

		return tx.Create(&participation).Error
	})
	if err != nil {
		switch err {
		case errTournamentFull:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "tournament is full"})
		case errInsufficientCoins:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "insufficient coins for entry fee"})
		default:
			log.Printf("ERROR: join transaction failed for tournament %s: %v", tournamentID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to join tournament"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "joined tournament successfully",
		"participation": participation,
	})
}

// CreateTournament creates a new tournament (operator only).
func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	type Req struct {
		Name            string    `json:"name"`
		GameTitle       string    `json:"game_title"`
		Description     string    `json:"description"`
		EntryFee        int64     `json:"entry_fee"`
		PrizePool       int64     `json:"prize_pool"`
		MaxParticipants int       `json:"max_participants"`
		StartDate       time.Time `json:"start_date"`
		EndDate         time.Time `json:"end_date"`
		Status          string    `json:"status"`
	}

	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid JSON body"})
	}
	if req.Name == "" || req.GameTitle == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "name and game_title are required"})
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() || !req.EndDate.After(req.StartDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "start_date and end_date must form a valid window"})
	}

	status := req.Status
	if status == "" {
		status = models.TournamentStatusUpcoming
	}
	if status != models.TournamentStatusUpcoming &&
		status != models.TournamentStatusActive &&
		status != models.TournamentStatusCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid status"})
	}

	maxParticipants := req.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 32
	}

	tournament := models.Tournament{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Slug:            slug.Make(req.Name),
		GameTitle:       req.GameTitle,
		Description:     req.Description,
		EntryFee:        req.EntryFee,
		PrizePool:       req.PrizePool,
		MaxParticipants: maxParticipants,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          status,
	}

	if err := s.DB.Create(&tournament).Error; err != nil {
		log.Printf("ERROR creating tournament %s: %v", req.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to create tournament"})
	}

	return c.Status(fiber.StatusCreated).JSON(tournament)
}

// UpdateTournamentStatus forces a lifecycle status (operator only).
func (s *TournamentService) UpdateTournamentStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid JSON body"})
	}
	if req.Status != models.TournamentStatusUpcoming &&
		req.Status != models.TournamentStatusActive &&
		req.Status != models.TournamentStatusCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "invalid status"})
	}

	res := s.DB.Model(&models.Tournament{}).Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "failed to update status"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Tournament not found"})
	}

	return c.JSON(fiber.Map{"message": "status updated", "status": req.Status})
}

// TransitionStatuses advances tournament lifecycles against the clock:
// upcoming → active once the window opens, active → completed once it closes.
func (s *TournamentService) TransitionStatuses(now time.Time) error {
	res := s.DB.Model(&models.Tournament{}).
		Where("status = ? AND start_date <= ?", models.TournamentStatusUpcoming, now).
		Update("status", models.TournamentStatusActive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ Activated %d tournament(s)", res.RowsAffected)
	}

	res = s.DB.Model(&models.Tournament{}).
		Where("status = ? AND end_date <= ?", models.TournamentStatusActive, now).
		Update("status", models.TournamentStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ Completed %d tournament(s)", res.RowsAffected)
	}

	return nil
}

// StartStatusScheduler runs TransitionStatuses every minute.
func (s *TournamentService) StartStatusScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := s.TransitionStatuses(time.Now().UTC()); err != nil {
				log.Printf("[Scheduler] status transition error: %v", err)
			}
		}),
	)
}
