package models

import (
	"time"

	"github.com/google/uuid"
)

// Action is the resident mutation an audit record describes.
type Action string

const (
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Lot is the location descriptor captured on a record at creation time.
type Lot struct {
	LotID    string `json:"lot_id"`
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Door     string `json:"door"`
}

// Record is one immutable, persisted summary of all changes from a single
// update or deletion. Records are appended once and never modified.
type Record struct {
	ID           uuid.UUID `json:"id"`
	ResidentKey  string    `json:"resident_id"`
	Lot          Lot       `json:"lot"`
	Action       Action    `json:"action_type"`
	Description  string    `json:"description"`
	Changes      []Change  `json:"changes"`
	OccurredAt   time.Time `json:"changed_at"`
	Actor        string    `json:"changed_by,omitempty"`
	ApartmentKey string    `json:"apartment_key"`
}
