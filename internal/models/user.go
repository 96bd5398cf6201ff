package models

import "time"

type User struct {
	ID               int       `json:"id" example:"1"`                   // User ID
	Name             string    `json:"name" example:"Jane Doe"`          // Display name
	Email            string    `json:"email" example:"user@example.com"` // User email
	Coins            int64     `json:"coins" example:"50"`               // Current coin balance
	TotalCoinsEarned int64     `json:"totalCoinsEarned" example:"50"`    // Lifetime earned coins
	CreatedAt        time.Time `json:"createdAt"`
}

// CoinTransaction is an append-only audit row; exactly one per balance change.
type CoinTransaction struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Type      string    `json:"transaction_type" db:"transaction_type"` // earn or spend
	Amount    int64     `json:"amount" db:"amount"`
	Reason    string    `json:"reason" db:"reason"`
	Reference string    `json:"reference" db:"reference"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
