package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CoinLedger mutates coin balances and appends the matching transaction
// row in a single database transaction. Balance checks and updates are a
// single conditional statement so two interleaved debits can never drive
// a balance negative.
type CoinLedger struct {
	db *sql.DB
}

func NewCoinLedger(db *sql.DB) *CoinLedger {
	return &CoinLedger{db: db}
}

// Credit adds coins to a user and bumps the lifetime earned total.
// Returns the new balance.
func (l *CoinLedger) Credit(userID int, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive: %d", amount)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin credit: %w", err)
	}
	defer tx.Rollback()

	var newBalance int64
	err = tx.QueryRow(`
		UPDATE users
		SET coins = coins + $1, total_coins_earned = total_coins_earned + $1
		WHERE id = $2
		RETURNING coins`,
		amount, userID).Scan(&newBalance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("credit balance update: %w", err)
	}

	if err := l.appendTransaction(tx, userID, "earn", amount, reason); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit credit: %w", err)
	}

	return newBalance, nil
}

// Debit removes coins from a user. The balance check and the decrement are
// one statement guarded by coins >= amount; when no row matches, the user
// either does not exist or cannot afford the debit, and the two are told
// apart with a follow-up read.
func (l *CoinLedger) Debit(userID int, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive: %d", amount)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin debit: %w", err)
	}
	defer tx.Rollback()

	var newBalance int64
	err = tx.QueryRow(`
		UPDATE users
		SET coins = coins - $1
		WHERE id = $2 AND coins >= $1
		RETURNING coins`,
		amount, userID).Scan(&newBalance)
	if err == sql.ErrNoRows {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("debit account lookup: %w", err)
		}
		if !exists {
			return 0, ErrAccountNotFound
		}
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("debit balance update: %w", err)
	}

	if err := l.appendTransaction(tx, userID, "spend", amount, reason); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit debit: %w", err)
	}

	return newBalance, nil
}

// Balance reads the current coin balance.
func (l *CoinLedger) Balance(userID int) (int64, error) {
	var balance int64
	err := l.db.QueryRow(`SELECT coins FROM users WHERE id = $1`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("balance read: %w", err)
	}
	return balance, nil
}

func (l *CoinLedger) appendTransaction(tx *sql.Tx, userID int, txType string, amount int64, reason string) error {
	_, err := tx.Exec(`
		INSERT INTO coin_transactions (user_id, transaction_type, amount, reason, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		userID, txType, amount, reason, uuid.New().String())
	if err != nil {
		return fmt.Errorf("append coin transaction: %w", err)
	}
	return nil
}
