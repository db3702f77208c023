package models

import (
	"strings"

	dErrors "copro/pkg/domain-errors"
	"copro/pkg/email"
)

// Lot status values.
const (
	StatusOwnerOccupier = "owner-occupier"
	StatusLandlord      = "landlord"
)

// Secondary account types.
const (
	AccountTypeResident   = "resident"
	AccountTypeAuthorized = "authorized"
)

const (
	maxLotIDLen    = 20
	maxBuildingLen = 10
	maxFloorLen    = 5
	maxDoorLen     = 10
	maxCellarLen   = 20
	maxNameLen     = 100
	maxEmailLen    = 100
	maxShortLen    = 50
)

// Normalize trims every text field and lower-cases e-mail addresses.
func (r *Resident) Normalize() {
	r.LotID = strings.TrimSpace(r.LotID)
	r.Location.Building = strings.TrimSpace(r.Location.Building)
	r.Location.Floor = strings.TrimSpace(r.Location.Floor)
	r.Location.Door = strings.TrimSpace(r.Location.Door)
	r.Location.CellarID = strings.TrimSpace(r.Location.CellarID)
	r.Status = strings.TrimSpace(r.Status)
	r.Owner.Name = strings.TrimSpace(r.Owner.Name)
	r.Owner.Phone = strings.TrimSpace(r.Owner.Phone)
	r.Owner.Email = email.Normalize(r.Owner.Email)
	for i := range r.Occupants {
		o := &r.Occupants[i]
		o.Name = strings.TrimSpace(o.Name)
		o.Phone = strings.TrimSpace(o.Phone)
		o.Email = email.Normalize(o.Email)
	}
	for i := range r.Accounts {
		a := &r.Accounts[i]
		a.Name = strings.TrimSpace(a.Name)
		a.Phone = strings.TrimSpace(a.Phone)
		a.Email = email.Normalize(a.Email)
		a.DeviceName = strings.TrimSpace(a.DeviceName)
		a.Type = strings.TrimSpace(a.Type)
		a.Relation = strings.TrimSpace(a.Relation)
	}
}

// Validate checks the invariants a resident must satisfy before it is stored.
// Call Normalize first.
func (r *Resident) Validate() error {
	checks := []struct {
		value string
		field string
		max   int
	}{
		{r.LotID, "lot_id", maxLotIDLen},
		{r.Location.Building, "building", maxBuildingLen},
		{r.Location.Floor, "floor", maxFloorLen},
		{r.Location.Door, "door", maxDoorLen},
		{r.Owner.Name, "owner name", maxNameLen},
	}
	for _, c := range checks {
		if c.value == "" {
			return dErrors.New(dErrors.CodeValidation, c.field+" is required")
		}
		if len(c.value) > c.max {
			return dErrors.New(dErrors.CodeValidation, c.field+" is too long")
		}
	}
	if len(r.Location.CellarID) > maxCellarLen {
		return dErrors.New(dErrors.CodeValidation, "cellar_id is too long")
	}
	switch r.Status {
	case "", StatusOwnerOccupier, StatusLandlord:
	default:
		return dErrors.New(dErrors.CodeValidation, "status must be owner-occupier or landlord")
	}
	if err := checkEmail("owner email", r.Owner.Email); err != nil {
		return err
	}
	for _, o := range r.Occupants {
		if o.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "occupant name is required")
		}
		if len(o.Name) > maxNameLen {
			return dErrors.New(dErrors.CodeValidation, "occupant field is too long")
		}
		if err := checkEmail("occupant email", o.Email); err != nil {
			return err
		}
	}
	for _, a := range r.Accounts {
		if a.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "account name is required")
		}
		if err := checkEmail("account email", a.Email); err != nil {
			return err
		}
		if len(a.Name) > maxNameLen ||
			len(a.DeviceName) > maxShortLen || len(a.Relation) > maxShortLen {
			return dErrors.New(dErrors.CodeValidation, "account field is too long")
		}
		switch a.Type {
		case "", AccountTypeResident, AccountTypeAuthorized:
		default:
			return dErrors.New(dErrors.CodeValidation, "account type must be resident or authorized")
		}
	}
	return nil
}

func checkEmail(field, addr string) error {
	if addr == "" {
		return nil
	}
	if len(addr) > maxEmailLen {
		return dErrors.New(dErrors.CodeValidation, field+" is too long")
	}
	if !email.LooksValid(addr) {
		return dErrors.New(dErrors.CodeValidation, field+" is not a valid address")
	}
	return nil
}
