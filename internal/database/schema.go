package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Schema statements are idempotent so the server can bootstrap a fresh
// database on first start. The unique constraints on daily_activities and
// unlocked_characters are load-bearing: the daily gate and duplicate-unlock
// checks rely on them under concurrent requests.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password TEXT NOT NULL,
		coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
		total_coins_earned BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS coin_transactions (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		transaction_type VARCHAR(10) NOT NULL CHECK (transaction_type IN ('earn', 'spend')),
		amount BIGINT NOT NULL CHECK (amount > 0),
		reason VARCHAR(100) NOT NULL,
		reference VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS unlocked_characters (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		character_id INTEGER NOT NULL,
		character_name VARCHAR(255) NOT NULL,
		character_image TEXT,
		character_status VARCHAR(50),
		character_species VARCHAR(100),
		character_location VARCHAR(255),
		rarity VARCHAR(20) NOT NULL,
		unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, character_id)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_activities (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		activity_kind VARCHAR(50) NOT NULL,
		activity_date DATE NOT NULL,
		character_id INTEGER,
		already_owned BOOLEAN,
		coins_delta BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, activity_kind, activity_date)
	)`,
	`CREATE TABLE IF NOT EXISTS memory_game_results (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		character_id INTEGER NOT NULL,
		correct_guess BOOLEAN NOT NULL,
		coins_earned BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_unlocked_characters_user ON unlocked_characters (user_id, unlocked_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_coin_transactions_user ON coin_transactions (user_id, created_at DESC)`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	log.Println("Database schema verified")
	return nil
}
