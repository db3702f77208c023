package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"copro/internal/history/models"
)

func modified(cat models.Category) models.Change {
	return models.Modified(cat, "x", ptr("a"), ptr("b"))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		changes []models.Change
		want    string
	}{
		{name: "no changes", want: ""},
		{
			name:    "single field",
			changes: []models.Change{modified(models.CategoryLot)},
			want:    "1 field modified",
		},
		{
			name:    "lot and owner share the generic bucket",
			changes: []models.Change{modified(models.CategoryLot), modified(models.CategoryOwner), modified(models.CategoryLot)},
			want:    "3 fields modified",
		},
		{
			name: "every bucket in fixed order",
			changes: []models.Change{
				modified(models.CategoryAccount),
				models.Added(models.CategoryAccount, "account", "Badge"),
				models.Removed(models.CategoryOccupant, "occupant", "Jean"),
				models.Added(models.CategoryOccupant, "occupant", "Hugo"),
				models.Added(models.CategoryOccupant, "occupant", "Lea"),
				modified(models.CategoryOccupant),
				models.Removed(models.CategoryAccount, "account", "Old badge"),
				modified(models.CategoryAccount),
				modified(models.CategoryOwner),
			},
			want: "1 field modified, 2 occupants added, 1 occupant removed, 1 occupant field modified, " +
				"1 account added, 1 account removed, 2 account fields modified",
		},
		{
			name:    "lot removals are not counted",
			changes: []models.Change{models.Removed(models.CategoryLot, "lot 12", "building A")},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.changes))
		})
	}
}

func TestDescribeFromDiff(t *testing.T) {
	oldRes := sampleResident()
	newRes := oldRes.Clone()
	newRes.Location.Floor = "3"
	newRes.Occupants = append(newRes.Occupants, occ{Name: "Hugo"})

	assert.Equal(t, "1 field modified, 1 occupant added", Describe(Diff(oldRes, newRes)))
}
