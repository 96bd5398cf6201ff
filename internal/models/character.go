package models

import "time"

// Rarity tiers, least to most valuable.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

type UnlockedCharacter struct {
	ID          int       `json:"id" db:"id"`
	UserID      int       `json:"user_id" db:"user_id"`
	CharacterID int       `json:"character_id" db:"character_id"`
	Name        string    `json:"name" db:"character_name"`
	Image       string    `json:"image" db:"character_image"`
	Status      string    `json:"status" db:"character_status"`
	Species     string    `json:"species" db:"character_species"`
	Location    string    `json:"location" db:"character_location"`
	Rarity      string    `json:"rarity" db:"rarity"`
	UnlockedAt  time.Time `json:"unlocked_at" db:"unlocked_at"`
}
