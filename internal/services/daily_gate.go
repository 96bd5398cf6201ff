package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

// DailyGate enforces once-per-UTC-day activities. The unique constraint on
// (user_id, activity_kind, activity_date) is the source of truth: every
// caller attempts the insert and a duplicate-key rejection means the day
// is already claimed. Two near-simultaneous claims both insert; exactly
// one wins.
type DailyGate struct {
	db  *sql.DB
	now func() time.Time
}

func NewDailyGate(db *sql.DB) *DailyGate {
	return &DailyGate{db: db, now: time.Now}
}

// Today returns the current UTC calendar day as stored in activity_date.
func (g *DailyGate) Today() string {
	return g.now().UTC().Format("2006-01-02")
}

// NextAvailable returns the start of the next UTC calendar day. Display
// only; it carries no enforcement weight.
func (g *DailyGate) NextAvailable() time.Time {
	now := g.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// TryClaim attempts to claim today's slot for an activity kind. Returns
// ErrAlreadyClaimed when the slot is taken.
func (g *DailyGate) TryClaim(userID int, kind string) error {
	_, err := g.db.Exec(`
		INSERT INTO daily_activities (user_id, activity_kind, activity_date, created_at)
		VALUES ($1, $2, $3, NOW())`,
		userID, kind, g.Today())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrAlreadyClaimed
		}
		return fmt.Errorf("daily gate claim: %w", err)
	}
	return nil
}

// Claimed reports whether today's slot for an activity kind is taken.
// Informational only; callers must still go through TryClaim, since a
// check-then-insert pair reopens the race TryClaim exists to close.
func (g *DailyGate) Claimed(userID int, kind string) (bool, error) {
	var exists bool
	err := g.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM daily_activities
			WHERE user_id = $1 AND activity_kind = $2 AND activity_date = $3
		)`,
		userID, kind, g.Today()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("daily gate lookup: %w", err)
	}
	return exists, nil
}

// RecordOutcome fills in the activity detail columns on today's gate row
// once the gated flow has settled. The gate signal is row existence, which
// this never changes.
func (g *DailyGate) RecordOutcome(userID int, kind string, characterID int, alreadyOwned bool, coinsDelta int64) error {
	_, err := g.db.Exec(`
		UPDATE daily_activities
		SET character_id = NULLIF($4, 0), already_owned = $5, coins_delta = $6
		WHERE user_id = $1 AND activity_kind = $2 AND activity_date = $3`,
		userID, kind, g.Today(), characterID, alreadyOwned, coinsDelta)
	if err != nil {
		return fmt.Errorf("daily gate outcome: %w", err)
	}
	return nil
}
