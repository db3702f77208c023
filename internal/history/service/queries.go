package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"copro/internal/history/models"
	dErrors "copro/pkg/domain-errors"
)

// ApartmentHistory returns the history of a physical unit, newest first,
// across every resident record that occupied it.
func (r *Recorder) ApartmentHistory(ctx context.Context, building, floor, door string) ([]models.Record, error) {
	building, floor, door = strings.TrimSpace(building), strings.TrimSpace(floor), strings.TrimSpace(door)
	if building == "" || floor == "" || door == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "building, floor and door are required")
	}
	key := models.ApartmentKey(building, floor, door)

	ctx, span := tracer.Start(ctx, "history.ApartmentHistory")
	defer span.End()
	span.SetAttributes(attribute.String("apartment_key", key))

	records, err := r.store.ListByApartment(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list apartment history")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load apartment history")
	}
	span.SetAttributes(attribute.Int("result_count", len(records)))
	return nonNil(records), nil
}

// ResidentHistory returns the history of one resident record, newest first.
func (r *Recorder) ResidentHistory(ctx context.Context, residentID string) ([]models.Record, error) {
	residentID = strings.TrimSpace(residentID)
	if residentID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}

	ctx, span := tracer.Start(ctx, "history.ResidentHistory")
	defer span.End()
	span.SetAttributes(attribute.String("resident_id", residentID))

	records, err := r.store.ListByResident(ctx, residentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list resident history")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resident history")
	}
	span.SetAttributes(attribute.Int("result_count", len(records)))
	return nonNil(records), nil
}

func nonNil(records []models.Record) []models.Record {
	if records == nil {
		return []models.Record{}
	}
	return records
}
