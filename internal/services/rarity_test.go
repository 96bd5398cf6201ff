package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/portalpals/backend/internal/catalog"
	"github.com/portalpals/backend/internal/models"
)

func TestClassifyRarity(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{"Rick Sanchez", "Alive", models.RarityLegendary},
		{"Morty Smith", "Alive", models.RarityLegendary},
		{"PICKLE RICK", "Alive", models.RarityLegendary},
		{"Rick Sanchez", "Dead", models.RarityLegendary}, // name rule outranks status
		{"Evil Morty", "unknown", models.RarityLegendary},
		{"Birdperson", "unknown", models.RarityEpic},
		{"Alan Rails", "Dead", models.RarityRare},
		{"Summer Smith", "Alive", models.RarityCommon},
		{"Jerry Smith", "Alive", models.RarityCommon},
	}

	for _, tt := range tests {
		characterName := tt.name
		character := &catalog.Character{Name: characterName, Status: tt.status}
		assert.Equal(t, tt.expected, classifyRarity(character), "%s (%s)", tt.name, tt.status)
	}
}

func TestClassifyRarity_Deterministic(t *testing.T) {
	character := &catalog.Character{Name: "Squanchy", Status: "unknown"}
	first := classifyRarity(character)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, classifyRarity(character))
	}
}
