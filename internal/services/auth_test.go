package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/lib/pq"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/portalpals/backend/internal/config"
)

func setupAuthConfig() {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
}

func TestAuthService_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()
	service := NewAuthService(db, nil, config.LoadGameConfig())

	t.Run("successful registration grants signup bonus", func(t *testing.T) {
		req := RegisterRequest{
			Name:     "Jane Doe",
			Email:    "Test@Example.com",
			Password: "password123",
		}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(req.Name, "test@example.com", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE users SET coins = coins \\+ \\$1").
			WithArgs(int64(50), 1).
			WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(50))
		mock.ExpectExec("INSERT INTO coin_transactions").
			WithArgs(1, "earn", int64(50), "signup_bonus", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "test@example.com", response.User.Email)
		assert.Equal(t, int64(50), response.User.Coins)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := RegisterRequest{
			Name:     "Jane Doe",
			Email:    "taken@example.com",
			Password: "password123",
		}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(req.Name, req.Email, sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505"})

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer([]byte("invalid")))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		body, _ := json.Marshal(RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "abc"})
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()
	service := NewAuthService(db, nil, config.LoadGameConfig())

	userColumns := []string{"id", "name", "email", "password", "coins", "total_coins_earned", "created_at"}

	t.Run("first login of the day earns the bonus", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, name, email, password, coins, total_coins_earned, created_at FROM users").
			WithArgs("test@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "Jane Doe", "test@example.com", hashedPassword, 50, 50, time.Now()))
		mock.ExpectExec("INSERT INTO daily_activities").
			WithArgs(1, "daily_login", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE users SET coins = coins \\+ \\$1").
			WithArgs(int64(10), 1).
			WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(60))
		mock.ExpectExec("INSERT INTO coin_transactions").
			WithArgs(1, "earn", int64(10), "daily_login", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		mock.ExpectExec("UPDATE daily_activities").
			WithArgs(1, "daily_login", sqlmock.AnyArg(), 0, false, int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		body, _ := json.Marshal(LoginRequest{Email: "test@example.com", Password: "password123"})
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.True(t, response.DailyBonus)
		assert.Equal(t, int64(60), response.User.Coins)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeat login gets no bonus but still succeeds", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, name, email, password, coins, total_coins_earned, created_at FROM users").
			WithArgs("test@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "Jane Doe", "test@example.com", hashedPassword, 60, 60, time.Now()))
		mock.ExpectExec("INSERT INTO daily_activities").
			WithArgs(1, "daily_login", sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505"})

		body, _ := json.Marshal(LoginRequest{Email: "test@example.com", Password: "password123"})
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.False(t, response.DailyBonus)
		assert.Equal(t, int64(60), response.User.Coins)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, email, password, coins, total_coins_earned, created_at FROM users").
			WithArgs("nonexistent@example.com").
			WillReturnError(sql.ErrNoRows)

		body, _ := json.Marshal(LoginRequest{Email: "nonexistent@example.com", Password: "password123"})
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, name, email, password, coins, total_coins_earned, created_at FROM users").
			WithArgs("test@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(1, "Jane Doe", "test@example.com", hashedPassword, 60, 60, time.Now()))

		body, _ := json.Marshal(LoginRequest{Email: "test@example.com", Password: "wrongpassword"})
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthService_Logout(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()
	redisClient, redisMock := redismock.NewClientMock()
	service := NewAuthService(db, redisClient, config.LoadGameConfig())

	redisMock.ExpectSet("blacklist:some-token", "1", 24*time.Hour).SetVal("OK")

	r := httptest.NewRequest("POST", "/auth/logout", nil)
	r.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	service.Logout(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestPasswordHashing(t *testing.T) {
	setupAuthConfig()

	password := "testpassword"

	hashed, err := hashPassword(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hashed)

	assert.True(t, verifyPassword(password, hashed))
	assert.False(t, verifyPassword("wrongpassword", hashed))
}

func TestGenerateJWT(t *testing.T) {
	setupAuthConfig()

	token, err := generateJWT(123)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}
