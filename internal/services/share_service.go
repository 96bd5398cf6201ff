package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/portalpals/backend/internal/middleware"
	"github.com/portalpals/backend/internal/models"
)

// ShareService issues short-lived share links for unlocked characters. A
// share token lives in Redis with a TTL and resolves publicly to the
// character card; the QR image encodes the resolve URL.
type ShareService struct {
	db      *sql.DB
	redis   *redis.Client
	ttl     time.Duration
	baseURL string
}

func NewShareService(db *sql.DB, redisClient *redis.Client, ttl time.Duration, baseURL string) *ShareService {
	return &ShareService{
		db:      db,
		redis:   redisClient,
		ttl:     ttl,
		baseURL: baseURL,
	}
}

// CreateShare issues a share token and QR code for an owned character
// @Summary Share an unlocked character
// @Tags game
// @Produce json
// @Param characterId path int true "Catalog character id"
// @Success 200 {object} map[string]interface{} "Share token and QR image"
// @Failure 404 {object} ErrorResponse "Character not unlocked"
// @Router /game/characters/{characterId}/share [post]
func (s *ShareService) CreateShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if s.redis == nil {
		SendErrorResponse(w, "Sharing is unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	characterID, err := strconv.Atoi(chi.URLParam(r, "characterId"))
	if err != nil {
		SendErrorResponse(w, "Invalid character id", http.StatusBadRequest, nil)
		return
	}

	var character models.UnlockedCharacter
	err = s.db.QueryRow(`
		SELECT character_id, character_name, character_image, character_status,
		       character_species, character_location, rarity, unlocked_at
		FROM unlocked_characters
		WHERE user_id = $1 AND character_id = $2`,
		userID, characterID).
		Scan(&character.CharacterID, &character.Name, &character.Image, &character.Status,
			&character.Species, &character.Location, &character.Rarity, &character.UnlockedAt)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Character not unlocked", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[SHARE] Character lookup failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create share", http.StatusInternalServerError, nil)
		return
	}

	payload, err := json.Marshal(character)
	if err != nil {
		SendErrorResponse(w, "Failed to create share", http.StatusInternalServerError, nil)
		return
	}

	token := generateShareToken()
	key := fmt.Sprintf("share:%s", token)
	if err := s.redis.Set(r.Context(), key, payload, s.ttl).Err(); err != nil {
		log.Printf("[SHARE] Failed to store share token: %v", err)
		SendErrorResponse(w, "Failed to create share", http.StatusInternalServerError, nil)
		return
	}

	shareURL := fmt.Sprintf("%s/api/v1/game/share/%s", s.baseURL, token)
	qr, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		log.Printf("[SHARE] QR encode failed: %v", err)
		SendErrorResponse(w, "Failed to create share", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"shareUrl":  shareURL,
		"qrImage":   base64.StdEncoding.EncodeToString(qr),
		"expiresIn": int(s.ttl.Seconds()),
	})
}

// ResolveShare resolves a share token to a character card
// @Summary Resolve a character share token
// @Tags game
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} models.UnlockedCharacter
// @Failure 404 {object} ErrorResponse "Invalid or expired share"
// @Router /game/share/{token} [get]
func (s *ShareService) ResolveShare(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		SendErrorResponse(w, "Sharing is unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	token := chi.URLParam(r, "token")
	key := fmt.Sprintf("share:%s", token)

	data, err := s.redis.Get(r.Context(), key).Bytes()
	if err == redis.Nil {
		SendErrorResponse(w, "Invalid or expired share", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[SHARE] Share lookup failed: %v", err)
		SendErrorResponse(w, "Failed to resolve share", http.StatusInternalServerError, nil)
		return
	}

	var character models.UnlockedCharacter
	if err := json.Unmarshal(data, &character); err != nil {
		SendErrorResponse(w, "Failed to resolve share", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"character": character})
}

func generateShareToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b)
}
