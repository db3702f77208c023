package diff

import (
	"strconv"
	"strings"

	"copro/internal/history/models"
)

type bucket struct {
	category models.Category
	kind     models.Kind
	noun     string
	verb     string
}

// Phrase order is fixed. The generic bucket (empty category) counts
// MODIFIED changes outside the occupant and account categories.
var buckets = []bucket{
	{kind: models.KindModified, noun: "field", verb: "modified"},
	{category: models.CategoryOccupant, kind: models.KindAdded, noun: "occupant", verb: "added"},
	{category: models.CategoryOccupant, kind: models.KindRemoved, noun: "occupant", verb: "removed"},
	{category: models.CategoryOccupant, kind: models.KindModified, noun: "occupant field", verb: "modified"},
	{category: models.CategoryAccount, kind: models.KindAdded, noun: "account", verb: "added"},
	{category: models.CategoryAccount, kind: models.KindRemoved, noun: "account", verb: "removed"},
	{category: models.CategoryAccount, kind: models.KindModified, noun: "account field", verb: "modified"},
}

func (b bucket) matches(c models.Change) bool {
	if c.Kind != b.kind {
		return false
	}
	if b.category == "" {
		return c.Category != models.CategoryOccupant && c.Category != models.CategoryAccount
	}
	return c.Category == b.category
}

// Describe summarizes a change list as comma-separated phrases, e.g.
// "2 fields modified, 1 occupant added". Returns "" for an empty list.
func Describe(changes []models.Change) string {
	parts := make([]string, 0, len(buckets))
	for _, b := range buckets {
		n := 0
		for _, c := range changes {
			if b.matches(c) {
				n++
			}
		}
		if n == 0 {
			continue
		}
		noun := b.noun
		if n > 1 {
			noun += "s"
		}
		parts = append(parts, strconv.Itoa(n)+" "+noun+" "+b.verb)
	}
	return strings.Join(parts, ", ")
}
