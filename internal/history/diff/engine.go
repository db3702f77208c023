package diff

import (
	"copro/internal/history/models"
	residentmodels "copro/internal/resident/models"
)

var occupants = Collection[residentmodels.Occupant]{
	Category:   models.CategoryOccupant,
	EntryLabel: "occupant",
	Name:       func(o residentmodels.Occupant) string { return o.Name },
	Fields: []SubField[residentmodels.Occupant]{
		{Label: "phone", Value: func(o residentmodels.Occupant) string { return o.Phone }},
		{Label: "email", Value: func(o residentmodels.Occupant) string { return o.Email }},
	},
}

var accounts = Collection[residentmodels.SecondaryAccount]{
	Category:   models.CategoryAccount,
	EntryLabel: "account",
	Name:       func(a residentmodels.SecondaryAccount) string { return a.Name },
	Fields: []SubField[residentmodels.SecondaryAccount]{
		{Label: "phone", Value: func(a residentmodels.SecondaryAccount) string { return a.Phone }},
		{Label: "email", Value: func(a residentmodels.SecondaryAccount) string { return a.Email }},
		{Label: "device name", Value: func(a residentmodels.SecondaryAccount) string { return a.DeviceName }},
		{Label: "type", Value: func(a residentmodels.SecondaryAccount) string { return a.Type }},
		{Label: "relation", Value: func(a residentmodels.SecondaryAccount) string { return a.Relation }},
	},
}

// Diff returns every change between old and new, in contract order.
// A nil snapshot compares as an empty resident.
func Diff(oldRes, newRes *residentmodels.Resident) []models.Change {
	if oldRes == nil {
		oldRes = &residentmodels.Resident{}
	}
	if newRes == nil {
		newRes = &residentmodels.Resident{}
	}

	changes := make([]models.Change, 0)

	changes = appendField(changes, models.CategoryLot, "lot number", oldRes.LotID, newRes.LotID)
	changes = appendField(changes, models.CategoryLot, "building", oldRes.Location.Building, newRes.Location.Building)
	changes = appendField(changes, models.CategoryLot, "floor", oldRes.Location.Floor, newRes.Location.Floor)
	changes = appendField(changes, models.CategoryLot, "door", oldRes.Location.Door, newRes.Location.Door)
	changes = appendField(changes, models.CategoryLot, "cellar", oldRes.Location.CellarID, newRes.Location.CellarID)
	changes = appendField(changes, models.CategoryLot, "status", oldRes.Status, newRes.Status)

	changes = appendField(changes, models.CategoryOwner, "owner name", oldRes.Owner.Name, newRes.Owner.Name)
	changes = appendField(changes, models.CategoryOwner, "owner phone", oldRes.Owner.Phone, newRes.Owner.Phone)
	changes = appendField(changes, models.CategoryOwner, "owner email", oldRes.Owner.Email, newRes.Owner.Email)

	changes = append(changes, DiffCollection(occupants, oldRes.Occupants, newRes.Occupants)...)
	changes = append(changes, DiffCollection(accounts, oldRes.Accounts, newRes.Accounts)...)

	return changes
}
