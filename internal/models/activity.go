package models

import (
	"database/sql"
	"time"
)

// Activity kinds gated to once per user per UTC calendar day.
const (
	ActivityRandomCharacter = "random_character"
	ActivityDailyBonus      = "daily_bonus"
	ActivityDailyLogin      = "daily_login"
)

// DailyActivity is the daily-gate row. Its existence for a given
// (user, kind, date) is the gate signal; outcome columns are filled
// in after the gated flow settles.
type DailyActivity struct {
	ID           int            `json:"id" db:"id"`
	UserID       int            `json:"user_id" db:"user_id"`
	ActivityKind string         `json:"activity_kind" db:"activity_kind"`
	ActivityDate string         `json:"activity_date" db:"activity_date"` // YYYY-MM-DD, UTC
	CharacterID  sql.NullInt64  `json:"character_id" db:"character_id"`
	AlreadyOwned sql.NullBool   `json:"already_owned" db:"already_owned"`
	CoinsDelta   sql.NullInt64  `json:"coins_delta" db:"coins_delta"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// MemoryGameResult is recorded for every submitted guess, win or lose.
type MemoryGameResult struct {
	ID           int       `json:"id" db:"id"`
	UserID       int       `json:"user_id" db:"user_id"`
	CharacterID  int       `json:"character_id" db:"character_id"`
	CorrectGuess bool      `json:"correct_guess" db:"correct_guess"`
	CoinsEarned  int64     `json:"coins_earned" db:"coins_earned"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
