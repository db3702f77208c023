package models

import "time"

// Location describes the physical unit a resident record is attached to.
type Location struct {
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Door     string `json:"door"`
	CellarID string `json:"cellar_id,omitempty"`
}

// Owner holds the lot owner's contact details.
type Owner struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Occupant is a person living in the lot.
type Occupant struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// SecondaryAccount is an access-control account linked to the lot
// (intercom, gate terminal).
type SecondaryAccount struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
	Type       string `json:"type,omitempty"`
	Relation   string `json:"relation,omitempty"`
}

// Resident is the aggregate root for a lot and the people attached to it.
//
// A Resident value passed to the history recorder is treated as a snapshot:
// it is never mutated there. Use Clone before mutating a value that a
// snapshot shares slices with.
type Resident struct {
	ID        string             `json:"id"`
	LotID     string             `json:"lot_id"`
	Location  Location           `json:"location"`
	Status    string             `json:"status,omitempty"`
	Owner     Owner              `json:"owner"`
	Occupants []Occupant         `json:"occupants"`
	Accounts  []SecondaryAccount `json:"accounts"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Clone returns a deep copy of r.
func (r *Resident) Clone() *Resident {
	if r == nil {
		return nil
	}
	c := *r
	c.Occupants = append([]Occupant(nil), r.Occupants...)
	c.Accounts = append([]SecondaryAccount(nil), r.Accounts...)
	return &c
}
