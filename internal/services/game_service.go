package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/portalpals/backend/internal/catalog"
	"github.com/portalpals/backend/internal/config"
	"github.com/portalpals/backend/internal/middleware"
	"github.com/portalpals/backend/internal/models"
)

// CatalogSource is the external character catalog the game draws from.
type CatalogSource interface {
	Character(ctx context.Context, id int) (*catalog.Character, error)
	Random(ctx context.Context) (*catalog.Character, error)
}

// GameService orchestrates the coin ledger, daily gate, session store and
// catalog into the two game flows plus the collection endpoints.
type GameService struct {
	db        *sql.DB
	ledger    *CoinLedger
	gate      *DailyGate
	sessions  *SessionStore
	catalog   CatalogSource
	cfg       *config.GameConfig
	validator *ValidationHelper
}

func NewGameService(db *sql.DB, catalogSource CatalogSource, sessions *SessionStore, cfg *config.GameConfig) *GameService {
	return &GameService{
		db:        db,
		ledger:    NewCoinLedger(db),
		gate:      NewDailyGate(db),
		sessions:  sessions,
		catalog:   catalogSource,
		cfg:       cfg,
		validator: NewValidationHelper(),
	}
}

type unlockedCharacterView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Status   string `json:"status"`
	Species  string `json:"species"`
	Location string `json:"location"`
	Rarity   string `json:"rarity"`
}

func characterView(character *catalog.Character, rarity string) unlockedCharacterView {
	return unlockedCharacterView{
		ID:       character.ID,
		Name:     character.Name,
		Image:    character.Image,
		Status:   character.Status,
		Species:  character.Species,
		Location: character.Location.Name,
		Rarity:   rarity,
	}
}

type unlockResult struct {
	Character      unlockedCharacterView
	AlreadyOwned   bool
	BonusCoins     int64
	CoinsSpent     int64
	RemainingCoins int64
}

// playRandomCharacter runs the once-per-day unlock flow. The daily gate is
// claimed before the funds check: a user who cannot afford the unlock has
// still used up today's attempt, and the gate is never rolled back on a
// downstream failure.
func (s *GameService) playRandomCharacter(ctx context.Context, userID int) (*unlockResult, error) {
	if err := s.gate.TryClaim(userID, models.ActivityRandomCharacter); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(userID)
	if err != nil {
		return nil, err
	}
	if balance < s.cfg.UnlockCost {
		return nil, &InsufficientFundsError{Required: s.cfg.UnlockCost, Current: balance}
	}

	character, err := s.catalog.Random(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch: %w", err)
	}

	owned, err := s.ownsCharacter(userID, character.ID)
	if err != nil {
		return nil, err
	}

	if owned {
		newBalance, err := s.ledger.Credit(userID, s.cfg.DuplicateUnlockBonus, "random_character_duplicate")
		if err != nil {
			return nil, err
		}
		if err := s.gate.RecordOutcome(userID, models.ActivityRandomCharacter, character.ID, true, s.cfg.DuplicateUnlockBonus); err != nil {
			return nil, err
		}
		return &unlockResult{
			Character:      characterView(character, ""),
			AlreadyOwned:   true,
			BonusCoins:     s.cfg.DuplicateUnlockBonus,
			RemainingCoins: newBalance,
		}, nil
	}

	newBalance, err := s.ledger.Debit(userID, s.cfg.UnlockCost, "random_character")
	if err != nil {
		return nil, err
	}

	rarity := classifyRarity(character)
	if _, err := s.insertUnlockedCharacter(userID, character, rarity); err != nil {
		return nil, err
	}

	if err := s.gate.RecordOutcome(userID, models.ActivityRandomCharacter, character.ID, false, -s.cfg.UnlockCost); err != nil {
		return nil, err
	}

	return &unlockResult{
		Character:      characterView(character, rarity),
		CoinsSpent:     s.cfg.UnlockCost,
		RemainingCoins: newBalance,
	}, nil
}

type memoryStartResult struct {
	Session   *MemorySession
	Remaining int64
}

// startMemoryGame charges the entry fee and opens a session. The correct
// position stays inside the session store.
func (s *GameService) startMemoryGame(ctx context.Context, userID int) (*memoryStartResult, error) {
	balance, err := s.ledger.Balance(userID)
	if err != nil {
		return nil, err
	}
	if balance < s.cfg.MemoryGameCost {
		return nil, &InsufficientFundsError{Required: s.cfg.MemoryGameCost, Current: balance}
	}

	character, err := s.catalog.Random(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch: %w", err)
	}

	remaining, err := s.ledger.Debit(userID, s.cfg.MemoryGameCost, "memory_game")
	if err != nil {
		return nil, err
	}

	session := s.sessions.Create(userID, character)
	return &memoryStartResult{Session: session, Remaining: remaining}, nil
}

type memoryGuessResult struct {
	Correct         bool
	CorrectPosition int
	Character       unlockedCharacterView
	CoinsEarned     int64
	TotalCoins      int64
}

// submitMemoryGuess settles a session. The consume is the gatekeeper: a
// stale, expired or replayed session fails here before any coin movement.
func (s *GameService) submitMemoryGuess(userID int, sessionID string, selectedPosition int) (*memoryGuessResult, error) {
	session, err := s.sessions.Consume(sessionID, userID)
	if err != nil {
		return nil, err
	}

	correct := selectedPosition == session.CorrectPosition
	var reward int64
	rarity := ""

	if correct {
		owned, err := s.ownsCharacter(userID, session.Character.ID)
		if err != nil {
			return nil, err
		}
		if owned {
			reward = s.cfg.MemoryDuplicateReward
		} else {
			rarity = classifyRarity(&session.Character)
			if _, err := s.insertUnlockedCharacter(userID, &session.Character, rarity); err != nil {
				return nil, err
			}
			reward = s.cfg.MemoryWinReward
		}
	}

	var total int64
	if reward > 0 {
		total, err = s.ledger.Credit(userID, reward, "memory_game_win")
	} else {
		total, err = s.ledger.Balance(userID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.recordMemoryResult(userID, session.Character.ID, correct, reward); err != nil {
		return nil, err
	}

	return &memoryGuessResult{
		Correct:         correct,
		CorrectPosition: session.CorrectPosition,
		Character:       characterView(&session.Character, rarity),
		CoinsEarned:     reward,
		TotalCoins:      total,
	}, nil
}

func (s *GameService) ownsCharacter(userID, characterID int) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM unlocked_characters WHERE user_id = $1 AND character_id = $2
		)`,
		userID, characterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ownership lookup: %w", err)
	}
	return exists, nil
}

// insertUnlockedCharacter adds a character to a user's collection. The
// unique (user_id, character_id) constraint plus ON CONFLICT DO NOTHING
// make a racing duplicate insert a no-op rather than an error.
func (s *GameService) insertUnlockedCharacter(userID int, character *catalog.Character, rarity string) (bool, error) {
	result, err := s.db.Exec(`
		INSERT INTO unlocked_characters
			(user_id, character_id, character_name, character_image, character_status, character_species, character_location, rarity, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id, character_id) DO NOTHING`,
		userID, character.ID, character.Name, character.Image, character.Status,
		character.Species, character.Location.Name, rarity)
	if err != nil {
		return false, fmt.Errorf("unlock insert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *GameService) recordMemoryResult(userID, characterID int, correct bool, coinsEarned int64) error {
	_, err := s.db.Exec(`
		INSERT INTO memory_game_results (user_id, character_id, correct_guess, coins_earned, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		userID, characterID, correct, coinsEarned)
	if err != nil {
		return fmt.Errorf("memory result insert: %w", err)
	}
	return nil
}

// --- HTTP handlers ---

// PlayRandomCharacter handles the once-per-day random unlock.
// @Summary Unlock a random character
// @Tags game
// @Produce json
// @Success 200 {object} map[string]interface{} "Unlock result"
// @Failure 400 {object} ErrorResponse "Already played or not enough coins"
// @Router /game/random-character [post]
func (s *GameService) PlayRandomCharacter(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := s.playRandomCharacter(r.Context(), userID)
	if err != nil {
		s.writeUnlockError(w, userID, err)
		return
	}

	if result.AlreadyOwned {
		SendJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"message":         "Character already unlocked! Bonus coins received.",
			"character":       result.Character,
			"bonusCoins":      result.BonusCoins,
			"alreadyUnlocked": true,
			"remainingCoins":  result.RemainingCoins,
		})
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Character unlocked successfully!",
		"character":      result.Character,
		"coinsSpent":     result.CoinsSpent,
		"remainingCoins": result.RemainingCoins,
	})
}

func (s *GameService) writeUnlockError(w http.ResponseWriter, userID int, err error) {
	var fundsErr *InsufficientFundsError
	switch {
	case errors.Is(err, ErrAlreadyClaimed):
		next := s.gate.NextAvailable()
		SendJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "daily_game_already_played",
			"message":           "You can only unlock one random character per day",
			"nextGameAvailable": next.Format(time.RFC3339),
			"timeRemaining":     timeRemaining(next),
		})
	case errors.As(err, &fundsErr):
		SendJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "not_enough_coins",
			"required": fundsErr.Required,
			"current":  fundsErr.Current,
		})
	case errors.Is(err, ErrAccountNotFound):
		SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
	default:
		log.Printf("[GAME] Random character game failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to play random character game", http.StatusInternalServerError, nil)
	}
}

// CanPlayRandom reports today's gate state for the random unlock.
// @Summary Check random unlock availability
// @Tags game
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /game/can-play-random [get]
func (s *GameService) CanPlayRandom(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claimed, err := s.gate.Claimed(userID, models.ActivityRandomCharacter)
	if err != nil {
		log.Printf("[GAME] Availability check failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to check game availability", http.StatusInternalServerError, nil)
		return
	}

	if claimed {
		next := s.gate.NextAvailable()
		SendJSON(w, http.StatusOK, map[string]any{
			"canPlay":           false,
			"nextGameAvailable": next.Format(time.RFC3339),
			"timeRemaining":     timeRemaining(next),
			"message":           "You can only play once per day",
		})
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"canPlay": true,
		"message": "You can play the random character game!",
	})
}

type memoryCard struct {
	ID int `json:"id"`
}

// StartMemoryGame opens a memory round.
// @Summary Start a memory game round
// @Tags game
// @Produce json
// @Success 200 {object} map[string]interface{} "Session and card layout"
// @Failure 400 {object} ErrorResponse "Not enough coins"
// @Router /game/memory/start [post]
func (s *GameService) StartMemoryGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := s.startMemoryGame(r.Context(), userID)
	if err != nil {
		var fundsErr *InsufficientFundsError
		switch {
		case errors.As(err, &fundsErr):
			SendJSON(w, http.StatusBadRequest, map[string]any{
				"error":    "not_enough_coins",
				"required": fundsErr.Required,
				"current":  fundsErr.Current,
			})
		case errors.Is(err, ErrAccountNotFound):
			SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		default:
			log.Printf("[GAME] Memory game start failed for user %d: %v", userID, err)
			SendErrorResponse(w, "Failed to start memory game", http.StatusInternalServerError, nil)
		}
		return
	}

	cards := make([]memoryCard, cardCount)
	for i := range cards {
		cards[i] = memoryCard{ID: i}
	}

	session := result.Session
	SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"gameId":  session.ID,
		"character": map[string]any{
			"name":    session.Character.Name,
			"image":   session.Character.Image,
			"species": session.Character.Species,
		},
		"cards":          cards,
		"message":        "Memorize the character position! Cards will be shuffled.",
		"timeToMemorize": 3000,
		"coinsSpent":     s.cfg.MemoryGameCost,
		"remainingCoins": result.Remaining,
	})
}

type memoryGuessRequest struct {
	GameID           string `json:"gameId" validate:"required"`
	SelectedPosition *int   `json:"selectedPosition" validate:"required,gte=0,lte=2"`
}

// SubmitMemoryGuess settles a memory round.
// @Summary Submit a memory game guess
// @Tags game
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Guess result"
// @Failure 400 {object} ErrorResponse "Session missing or consumed"
// @Failure 403 {object} ErrorResponse "Not the session owner"
// @Router /game/memory/guess [post]
func (s *GameService) SubmitMemoryGuess(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req memoryGuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := s.submitMemoryGuess(userID, req.GameID, *req.SelectedPosition)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			SendJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "game_not_found",
				"message": "Game not found or expired. Please start a new game.",
			})
		case errors.Is(err, ErrAlreadyConsumed):
			SendJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "game_already_submitted",
				"message": "This game has already been submitted.",
			})
		case errors.Is(err, ErrNotOwner):
			SendErrorResponse(w, "Not your game", http.StatusForbidden, nil)
		default:
			log.Printf("[GAME] Memory guess failed for user %d: %v", userID, err)
			SendErrorResponse(w, "Failed to submit guess", http.StatusInternalServerError, nil)
		}
		return
	}

	message := "Wrong choice! Better luck next time."
	if result.Correct {
		message = "Correct! Well done!"
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"correct":         result.Correct,
		"correctPosition": result.CorrectPosition,
		"character":       result.Character,
		"coinsEarned":     result.CoinsEarned,
		"totalCoins":      result.TotalCoins,
		"message":         message,
	})
}

// ClaimDailyBonus grants the daily login-independent coin bonus.
// @Summary Claim the daily bonus
// @Tags game
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse "Already claimed today"
// @Router /game/daily-bonus [post]
func (s *GameService) ClaimDailyBonus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := s.gate.TryClaim(userID, models.ActivityDailyBonus); err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			next := s.gate.NextAvailable()
			SendJSON(w, http.StatusBadRequest, map[string]any{
				"error":         "daily_bonus_already_claimed",
				"nextClaim":     next.Format(time.RFC3339),
				"timeRemaining": timeRemaining(next),
			})
			return
		}
		log.Printf("[GAME] Daily bonus claim failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to claim daily bonus", http.StatusInternalServerError, nil)
		return
	}

	total, err := s.ledger.Credit(userID, s.cfg.DailyBonus, "daily_bonus")
	if err != nil {
		log.Printf("[GAME] Daily bonus credit failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to claim daily bonus", http.StatusInternalServerError, nil)
		return
	}

	if err := s.gate.RecordOutcome(userID, models.ActivityDailyBonus, 0, false, s.cfg.DailyBonus); err != nil {
		log.Printf("[GAME] Daily bonus outcome record failed for user %d: %v", userID, err)
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"message":       "Daily bonus claimed!",
		"coinsReceived": s.cfg.DailyBonus,
		"totalCoins":    total,
	})
}

// ListCharacters returns the user's collection, newest first.
// @Summary List unlocked characters
// @Tags game
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /game/characters [get]
func (s *GameService) ListCharacters(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, character_id, character_name, character_image,
		       character_status, character_species, character_location, rarity, unlocked_at
		FROM unlocked_characters
		WHERE user_id = $1
		ORDER BY unlocked_at DESC`, userID)
	if err != nil {
		log.Printf("[GAME] Character list failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch characters", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	characters := []models.UnlockedCharacter{}
	for rows.Next() {
		var c models.UnlockedCharacter
		if err := rows.Scan(&c.ID, &c.UserID, &c.CharacterID, &c.Name, &c.Image,
			&c.Status, &c.Species, &c.Location, &c.Rarity, &c.UnlockedAt); err != nil {
			log.Printf("[GAME] Character row scan failed for user %d: %v", userID, err)
			SendErrorResponse(w, "Failed to fetch characters", http.StatusInternalServerError, nil)
			return
		}
		characters = append(characters, c)
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"characters":    characters,
		"totalUnlocked": len(characters),
	})
}

// GetStats returns coin totals, collection breakdown and login streak.
// @Summary Get user game stats
// @Tags game
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /game/stats [get]
func (s *GameService) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	err := s.db.QueryRow(`SELECT id, name, coins, total_coins_earned, created_at FROM users WHERE id = $1`, userID).
		Scan(&user.ID, &user.Name, &user.Coins, &user.TotalCoinsEarned, &user.CreatedAt)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[GAME] Stats user lookup failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch user stats", http.StatusInternalServerError, nil)
		return
	}

	var total, common, rare, epic, legendary int
	err = s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE rarity = 'common'),
		       COUNT(*) FILTER (WHERE rarity = 'rare'),
		       COUNT(*) FILTER (WHERE rarity = 'epic'),
		       COUNT(*) FILTER (WHERE rarity = 'legendary')
		FROM unlocked_characters
		WHERE user_id = $1`, userID).
		Scan(&total, &common, &rare, &epic, &legendary)
	if err != nil {
		log.Printf("[GAME] Stats rarity count failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch user stats", http.StatusInternalServerError, nil)
		return
	}

	var loginDays int
	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM daily_activities
		WHERE user_id = $1 AND activity_kind = $2`, userID, models.ActivityDailyLogin).
		Scan(&loginDays)
	if err != nil {
		log.Printf("[GAME] Stats login count failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch user stats", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"name":             user.Name,
			"coins":            user.Coins,
			"totalCoinsEarned": user.TotalCoinsEarned,
			"memberSince":      user.CreatedAt,
		},
		"characters": map[string]any{
			"total":     total,
			"common":    common,
			"rare":      rare,
			"epic":      epic,
			"legendary": legendary,
		},
		"loginDays": loginDays,
	})
}

func timeRemaining(next time.Time) map[string]any {
	diff := time.Until(next)
	if diff <= 0 {
		return nil
	}
	return map[string]any{
		"hours":   int(diff.Hours()),
		"minutes": int(diff.Minutes()) % 60,
		"total":   diff.Milliseconds(),
	}
}
