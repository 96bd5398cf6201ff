package config

import (
	"os"
	"strconv"
	"time"
)

type GameConfig struct {
	UnlockCost            int64
	MemoryGameCost        int64
	MemoryWinReward       int64
	MemoryDuplicateReward int64
	DuplicateUnlockBonus  int64
	SignupBonus           int64
	DailyLoginBonus       int64
	DailyBonus            int64
	SessionMaxAge         time.Duration
	SweepSchedule         string
	CatalogBaseURL        string
	CatalogMaxID          int
	ShareTokenTTL         time.Duration
}

func LoadGameConfig() *GameConfig {
	return &GameConfig{
		UnlockCost:            getEnvAsInt64("GAME_UNLOCK_COST", 10),
		MemoryGameCost:        getEnvAsInt64("GAME_MEMORY_COST", 5),
		MemoryWinReward:       getEnvAsInt64("GAME_MEMORY_WIN_REWARD", 15),
		MemoryDuplicateReward: getEnvAsInt64("GAME_MEMORY_DUPLICATE_REWARD", 8),
		DuplicateUnlockBonus:  getEnvAsInt64("GAME_DUPLICATE_UNLOCK_BONUS", 5),
		SignupBonus:           getEnvAsInt64("GAME_SIGNUP_BONUS", 50),
		DailyLoginBonus:       getEnvAsInt64("GAME_DAILY_LOGIN_BONUS", 10),
		DailyBonus:            getEnvAsInt64("GAME_DAILY_BONUS", 5),
		SessionMaxAge:         getEnvAsDuration("GAME_SESSION_MAX_AGE", 5*time.Minute),
		SweepSchedule:         getEnv("GAME_SESSION_SWEEP_SCHEDULE", "@every 1m"),
		CatalogBaseURL:        getEnv("CATALOG_BASE_URL", "https://rickandmortyapi.com/api"),
		CatalogMaxID:          getEnvAsInt("CATALOG_MAX_ID", 826),
		ShareTokenTTL:         getEnvAsDuration("GAME_SHARE_TOKEN_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
