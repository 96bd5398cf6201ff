package services

import (
	"strings"

	"github.com/portalpals/backend/internal/catalog"
	"github.com/portalpals/backend/internal/models"
)

// classifyRarity maps a catalog character to a rarity tier. Rules are
// evaluated in priority order and the first match wins: the name rule
// outranks the status rules, so a dead character named Morty is
// legendary, not rare.
func classifyRarity(character *catalog.Character) string {
	name := strings.ToLower(character.Name)
	switch {
	case strings.Contains(name, "rick") || strings.Contains(name, "morty"):
		return models.RarityLegendary
	case character.Status == "unknown":
		return models.RarityEpic
	case character.Status == "Dead":
		return models.RarityRare
	default:
		return models.RarityCommon
	}
}
