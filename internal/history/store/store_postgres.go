package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"copro/internal/history/models"
	txcontext "copro/pkg/platform/tx"
)

const savepointName = "resident_history_save"

// PostgresStore persists history records in the resident_history table.
// When the context carries a transaction, Save runs inside a savepoint so
// a failed insert leaves the surrounding transaction usable.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed history store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record models.Record) error {
	changes, err := json.Marshal(record.Changes)
	if err != nil {
		return fmt.Errorf("marshal history changes: %w", err)
	}

	tx, inTx := txcontext.From(ctx)
	if !inTx {
		return s.insert(ctx, s.db, record, changes)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("create history savepoint: %w", err)
	}
	if err := s.insert(ctx, tx, record, changes); err != nil {
		// ctx may be the expired save deadline; the enclosing transaction
		// still needs the savepoint unwound.
		if _, rbErr := tx.ExecContext(context.WithoutCancel(ctx), "ROLLBACK TO SAVEPOINT "+savepointName); rbErr != nil {
			return fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("release history savepoint: %w", err)
	}
	return nil
}

func (s *PostgresStore) insert(ctx context.Context, exec txcontext.DBTX, record models.Record, changes []byte) error {
	query := `
		INSERT INTO resident_history (
			id, resident_id, apartment_key, lot_id, building, floor, door,
			action_type, description, changes, changed_at, changed_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := exec.ExecContext(ctx, query,
		record.ID,
		record.ResidentKey,
		record.ApartmentKey,
		record.Lot.LotID,
		record.Lot.Building,
		record.Lot.Floor,
		record.Lot.Door,
		string(record.Action),
		record.Description,
		changes,
		record.OccurredAt,
		nullString(record.Actor),
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByApartment(ctx context.Context, apartmentKey string) ([]models.Record, error) {
	return s.list(ctx, "apartment_key", apartmentKey)
}

func (s *PostgresStore) ListByResident(ctx context.Context, residentKey string) ([]models.Record, error) {
	return s.list(ctx, "resident_id", residentKey)
}

// column is one of two fixed identifiers, never caller input.
func (s *PostgresStore) list(ctx context.Context, column, value string) ([]models.Record, error) {
	query := `
		SELECT id, resident_id, apartment_key, lot_id, building, floor, door,
			   action_type, description, changes, changed_at, changed_by
		FROM resident_history
		WHERE ` + column + ` = $1
		ORDER BY changed_at DESC, seq DESC
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("query history records: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var (
			record    models.Record
			id        uuid.UUID
			action    string
			changes   []byte
			changedBy sql.NullString
		)
		err := rows.Scan(
			&id,
			&record.ResidentKey,
			&record.ApartmentKey,
			&record.Lot.LotID,
			&record.Lot.Building,
			&record.Lot.Floor,
			&record.Lot.Door,
			&action,
			&record.Description,
			&changes,
			&record.OccurredAt,
			&changedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if err := json.Unmarshal(changes, &record.Changes); err != nil {
			return nil, fmt.Errorf("decode history changes: %w", err)
		}
		record.ID = id
		record.Action = models.Action(action)
		record.Actor = changedBy.String
		record.OccurredAt = record.OccurredAt.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history records: %w", err)
	}
	return records, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
