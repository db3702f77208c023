package models

import (
	"strings"

	residentmodels "copro/internal/resident/models"
)

const apartmentKeySeparator = "-"

// ApartmentKey identifies a physical unit independently of the resident
// record occupying it. Fields are joined verbatim: a separator inside a
// field can make two different units share a key.
func ApartmentKey(building, floor, door string) string {
	return strings.Join([]string{building, floor, door}, apartmentKeySeparator)
}

// ApartmentKeyOf derives the apartment key from a resident's location.
func ApartmentKeyOf(loc residentmodels.Location) string {
	return ApartmentKey(loc.Building, loc.Floor, loc.Door)
}

// ResidentKey is the resident aggregate's own identifier.
func ResidentKey(r *residentmodels.Resident) string {
	return r.ID
}

// LotOf captures the location descriptor stored on a record.
func LotOf(r *residentmodels.Resident) Lot {
	return Lot{
		LotID:    r.LotID,
		Building: r.Location.Building,
		Floor:    r.Location.Floor,
		Door:     r.Location.Door,
	}
}
