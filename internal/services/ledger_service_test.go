package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCoinLedger_Credit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ledger := NewCoinLedger(db)

	t.Run("successful credit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE users SET coins = coins \\+ \\$1, total_coins_earned = total_coins_earned \\+ \\$1 WHERE id = \\$2 RETURNING coins").
			WithArgs(int64(15), 1).
			WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(65))
		mock.ExpectExec("INSERT INTO coin_transactions").
			WithArgs(1, "earn", int64(15), "memory_game_win", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		newBalance, err := ledger.Credit(1, 15, "memory_game_win")
		assert.NoError(t, err)
		assert.Equal(t, int64(65), newBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE users SET coins = coins \\+ \\$1").
			WithArgs(int64(15), 42).
			WillReturnRows(sqlmock.NewRows([]string{"coins"}))
		mock.ExpectRollback()

		_, err := ledger.Credit(42, 15, "memory_game_win")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := ledger.Credit(1, 0, "memory_game_win")
		assert.Error(t, err)
	})
}

func TestCoinLedger_Debit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ledger := NewCoinLedger(db)

	t.Run("successful debit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE users SET coins = coins - \\$1 WHERE id = \\$2 AND coins >= \\$1 RETURNING coins").
			WithArgs(int64(10), 1).
			WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(40))
		mock.ExpectExec("INSERT INTO coin_transactions").
			WithArgs(1, "spend", int64(10), "random_character", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		newBalance, err := ledger.Debit(1, 10, "random_character")
		assert.NoError(t, err)
		assert.Equal(t, int64(40), newBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient funds writes no transaction row", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE users SET coins = coins - \\$1 WHERE id = \\$2 AND coins >= \\$1 RETURNING coins").
			WithArgs(int64(10), 1).
			WillReturnRows(sqlmock.NewRows([]string{"coins"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := ledger.Debit(1, 10, "random_character")
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE users SET coins = coins - \\$1 WHERE id = \\$2 AND coins >= \\$1 RETURNING coins").
			WithArgs(int64(10), 42).
			WillReturnRows(sqlmock.NewRows([]string{"coins"}))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(42).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := ledger.Debit(42, 10, "random_character")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCoinLedger_Balance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ledger := NewCoinLedger(db)

	mock.ExpectQuery("SELECT coins FROM users WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(100))

	balance, err := ledger.Balance(1)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}
