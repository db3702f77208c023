package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	residentmodels "copro/internal/resident/models"
)

func TestApartmentKey(t *testing.T) {
	loc := residentmodels.Location{Building: "B", Floor: "3", Door: "31", CellarID: "C7"}

	assert.Equal(t, "B-3-31", ApartmentKeyOf(loc))
	assert.Equal(t, ApartmentKeyOf(loc), ApartmentKeyOf(loc))
	assert.NotEqual(t, ApartmentKey("B", "3", "31"), ApartmentKey("B", "3", "32"))
	assert.NotEqual(t, ApartmentKey("A", "1", "2"), ApartmentKey("B", "1", "2"))
}

func TestApartmentKeyIgnoresCellar(t *testing.T) {
	a := residentmodels.Location{Building: "B", Floor: "3", Door: "31", CellarID: "C7"}
	b := residentmodels.Location{Building: "B", Floor: "3", Door: "31"}

	assert.Equal(t, ApartmentKeyOf(a), ApartmentKeyOf(b))
}

func TestChangeConstructorsHonorKindInvariants(t *testing.T) {
	added := Added(CategoryOccupant, "occupant", "Jean")
	assert.Nil(t, added.OldValue)
	require.NotNil(t, added.NewValue)
	assert.Equal(t, "Jean", *added.NewValue)

	removed := Removed(CategoryAccount, "account", "Badge")
	assert.Nil(t, removed.NewValue)
	require.NotNil(t, removed.OldValue)
	assert.Equal(t, "Badge", *removed.OldValue)
}

func TestRecordJSONRoundTrip(t *testing.T) {
	oldFloor, newFloor := "1", "2"
	rec := Record{
		ID:          uuid.New(),
		ResidentKey: "r-1",
		Lot:         Lot{LotID: "12", Building: "A", Floor: "2", Door: "21"},
		Action:      ActionUpdate,
		Description: "1 field modified, 1 occupant added",
		Changes: []Change{
			Modified(CategoryLot, "floor", &oldFloor, &newFloor),
			Added(CategoryOccupant, "occupant", "Jean"),
		},
		OccurredAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		ApartmentKey: "A-2-21",
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"old_value":null`)
	assert.Contains(t, string(raw), `"change_type":"MODIFIED"`)
	assert.NotContains(t, string(raw), "changed_by")

	var decoded Record
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rec, decoded)
}
