package diff

import (
	"strings"

	"copro/internal/history/models"
)

// SubField is one scalar attribute compared on entries present on both sides.
type SubField[T any] struct {
	Label string
	Value func(T) string
}

// Collection describes how entries of one list are matched and compared.
type Collection[T any] struct {
	Category models.Category
	// EntryLabel labels ADDED and REMOVED changes ("occupant").
	EntryLabel string
	// Name returns the entry's name, used both as match key and display name.
	Name   func(T) string
	Fields []SubField[T]
}

// orderedIndex maps match keys to entries, remembering first-insertion order.
// A later entry with the same key replaces the earlier one in place.
type orderedIndex[T any] struct {
	keys    []string
	entries map[string]T
}

func buildIndex[T any](entries []T, name func(T) string) orderedIndex[T] {
	idx := orderedIndex[T]{entries: make(map[string]T, len(entries))}
	for _, e := range entries {
		key, ok := matchKey(name(e))
		if !ok {
			continue
		}
		if _, seen := idx.entries[key]; !seen {
			idx.keys = append(idx.keys, key)
		}
		idx.entries[key] = e
	}
	return idx
}

func matchKey(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	return key, key != ""
}

func displayName(name string) string {
	return strings.TrimSpace(name)
}

// DiffCollection compares two ordered lists of entries matched by
// case-insensitive, trimmed name. Entries without a name are ignored.
//
// Output is every REMOVED entry (old order), then every ADDED entry (new
// order), then sub-field MODIFIED changes for entries on both sides,
// visited in new order and labelled "<field> of <name>".
func DiffCollection[T any](c Collection[T], oldEntries, newEntries []T) []models.Change {
	oldIdx := buildIndex(oldEntries, c.Name)
	newIdx := buildIndex(newEntries, c.Name)

	var changes []models.Change
	for _, key := range oldIdx.keys {
		if _, ok := newIdx.entries[key]; !ok {
			changes = append(changes, models.Removed(c.Category, c.EntryLabel, displayName(c.Name(oldIdx.entries[key]))))
		}
	}
	for _, key := range newIdx.keys {
		if _, ok := oldIdx.entries[key]; !ok {
			changes = append(changes, models.Added(c.Category, c.EntryLabel, displayName(c.Name(newIdx.entries[key]))))
		}
	}
	for _, key := range newIdx.keys {
		oldEntry, ok := oldIdx.entries[key]
		if !ok {
			continue
		}
		newEntry := newIdx.entries[key]
		name := displayName(c.Name(newEntry))
		for _, f := range c.Fields {
			changes = appendField(changes, c.Category, f.Label+" of "+name, f.Value(oldEntry), f.Value(newEntry))
		}
	}
	return changes
}
