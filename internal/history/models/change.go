package models

// Category groups a change by the part of the resident aggregate it touches.
type Category string

const (
	CategoryLot      Category = "LOT"
	CategoryOwner    Category = "OWNER"
	CategoryOccupant Category = "OCCUPANT"
	CategoryAccount  Category = "ACCOUNT"
)

// Kind says how a value changed.
type Kind string

const (
	KindModified Kind = "MODIFIED"
	KindAdded    Kind = "ADDED"
	KindRemoved  Kind = "REMOVED"
)

// Change is one categorized difference between two snapshots, or one value
// removed by a deletion.
//
// Invariants:
//   - KindAdded: OldValue is nil
//   - KindRemoved: NewValue is nil
//   - KindModified: both are set and differ
type Change struct {
	Category   Category `json:"category"`
	Kind       Kind     `json:"change_type"`
	FieldLabel string   `json:"field_label"`
	OldValue   *string  `json:"old_value"`
	NewValue   *string  `json:"new_value"`
}

// Modified builds a MODIFIED change.
func Modified(cat Category, label string, oldValue, newValue *string) Change {
	return Change{Category: cat, Kind: KindModified, FieldLabel: label, OldValue: oldValue, NewValue: newValue}
}

// Added builds an ADDED change.
func Added(cat Category, label, value string) Change {
	return Change{Category: cat, Kind: KindAdded, FieldLabel: label, NewValue: &value}
}

// Removed builds a REMOVED change.
func Removed(cat Category, label, value string) Change {
	return Change{Category: cat, Kind: KindRemoved, FieldLabel: label, OldValue: &value}
}
