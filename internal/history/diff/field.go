package diff

import (
	"strings"

	"copro/internal/history/models"
)

// normalize maps empty and whitespace-only values to nil and trims the rest.
func normalize(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func equalNormalized(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CompareField compares two scalar values after normalization and reports
// a MODIFIED change carrying the normalized values when they differ.
func CompareField(cat models.Category, label, oldValue, newValue string) (models.Change, bool) {
	o, n := normalize(oldValue), normalize(newValue)
	if equalNormalized(o, n) {
		return models.Change{}, false
	}
	return models.Modified(cat, label, o, n), true
}

func appendField(changes []models.Change, cat models.Category, label, oldValue, newValue string) []models.Change {
	if c, ok := CompareField(cat, label, oldValue, newValue); ok {
		return append(changes, c)
	}
	return changes
}
