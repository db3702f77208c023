package service

import (
	"errors"

	"copro/internal/history/models"
)

var (
	// ErrResidentMismatch means RecordUpdate received snapshots of two
	// different residents.
	ErrResidentMismatch = errors.New("snapshots belong to different residents")
	// ErrMissingSnapshot means a nil snapshot was passed in.
	ErrMissingSnapshot = errors.New("resident snapshot is required")
	// ErrPersistenceFailed wraps the store error when Save fails.
	ErrPersistenceFailed = errors.New("history persistence failed")
)

// Status is what happened to one recording request.
type Status int

const (
	StatusRecorded Status = iota
	StatusSkipped
	StatusRejected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRecorded:
		return "recorded"
	case StatusSkipped:
		return "skipped"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome reports the result of RecordUpdate or RecordDelete. It is
// informational: the recorder has already logged any failure, and callers
// must not fail their own operation because of it.
type Outcome struct {
	Status Status
	// Record is set when a record was built, even if persisting it failed.
	Record *models.Record
	Err    error
}

// Recorded reports whether a record was persisted.
func (o Outcome) Recorded() bool {
	return o.Status == StatusRecorded
}
