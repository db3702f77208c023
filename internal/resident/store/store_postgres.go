package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"copro/internal/resident/models"
	"copro/pkg/platform/sentinel"
	txcontext "copro/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists residents in the residents table with occupants
// and accounts as JSONB arrays.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed resident store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const residentColumns = `id, lot_id, building, floor, door, cellar_id, status,
	owner_name, owner_phone, owner_email, occupants, accounts, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, resident *models.Resident) error {
	occupants, accounts, err := encodeMembers(resident)
	if err != nil {
		return err
	}
	query := `INSERT INTO residents (` + residentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		resident.ID,
		resident.LotID,
		resident.Location.Building,
		resident.Location.Floor,
		resident.Location.Door,
		resident.Location.CellarID,
		resident.Status,
		resident.Owner.Name,
		resident.Owner.Phone,
		resident.Owner.Email,
		occupants,
		accounts,
		resident.CreatedAt,
		resident.UpdatedAt,
	)
	if err != nil {
		return translateWriteErr("insert resident", err)
	}
	return nil
}

// FindByID locks the row when called inside a transaction so a concurrent
// update cannot interleave between snapshot and write.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, id)
	resident, err := scanResident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resident %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return resident, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents ORDER BY building, door`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query residents: %w", err)
	}
	defer rows.Close()

	residents := make([]*models.Resident, 0)
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		residents = append(residents, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate residents: %w", err)
	}
	return residents, nil
}

// sortColumns maps sort fields to columns. Values never come from input.
var sortColumns = map[models.SortField]string{
	models.SortLotID:     "lot_id",
	models.SortBuilding:  "building",
	models.SortFloor:     "floor",
	models.SortDoor:      "door",
	models.SortOwnerName: "owner_name",
	models.SortStatus:    "status",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *PostgresStore) Search(ctx context.Context, q models.Query) ([]*models.Resident, int64, error) {
	where, args := searchFilter(q)
	exec := txcontext.Executor(ctx, s.db)

	var total int64
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM residents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count residents: %w", err)
	}

	args = append(args, q.Size, q.Offset())
	query := `SELECT ` + residentColumns + ` FROM residents` + where +
		` ORDER BY ` + orderBy(q) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search residents: %w", err)
	}
	defer rows.Close()

	residents := make([]*models.Resident, 0, q.Size)
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, 0, err
		}
		residents = append(residents, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate residents: %w", err)
	}
	return residents, total, nil
}

func searchFilter(q models.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Building != "" {
		args = append(args, q.Building)
		conds = append(conds, fmt.Sprintf("building = $%d", len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(q.Search)+"%")
		conds = append(conds, fmt.Sprintf(`(owner_name ILIKE $%[1]d OR lot_id ILIKE $%[1]d OR door ILIKE $%[1]d
			OR EXISTS (SELECT 1 FROM jsonb_array_elements(occupants) o WHERE o->>'name' ILIKE $%[1]d)
			OR EXISTS (SELECT 1 FROM jsonb_array_elements(accounts) a WHERE a->>'name' ILIKE $%[1]d))`, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderBy compares bytewise so the order matches the in-memory store.
func orderBy(q models.Query) string {
	col, ok := sortColumns[q.Sort]
	if !ok {
		return `building COLLATE "C", door COLLATE "C", id COLLATE "C"`
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	return col + ` COLLATE "C" ` + dir + `, id COLLATE "C"`
}

func (s *PostgresStore) Update(ctx context.Context, resident *models.Resident) error {
	occupants, accounts, err := encodeMembers(resident)
	if err != nil {
		return err
	}
	query := `
		UPDATE residents SET
			lot_id = $2, building = $3, floor = $4, door = $5, cellar_id = $6, status = $7,
			owner_name = $8, owner_phone = $9, owner_email = $10,
			occupants = $11, accounts = $12, updated_at = $13
		WHERE id = $1
	`
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		resident.ID,
		resident.LotID,
		resident.Location.Building,
		resident.Location.Floor,
		resident.Location.Door,
		resident.Location.CellarID,
		resident.Status,
		resident.Owner.Name,
		resident.Owner.Phone,
		resident.Owner.Email,
		occupants,
		accounts,
		resident.UpdatedAt,
	)
	if err != nil {
		return translateWriteErr("update resident", err)
	}
	return requireAffected(res, resident.ID)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM residents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resident: %w", err)
	}
	return requireAffected(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResident(row rowScanner) (*models.Resident, error) {
	var (
		r         models.Resident
		occupants []byte
		accounts  []byte
	)
	err := row.Scan(
		&r.ID,
		&r.LotID,
		&r.Location.Building,
		&r.Location.Floor,
		&r.Location.Door,
		&r.Location.CellarID,
		&r.Status,
		&r.Owner.Name,
		&r.Owner.Phone,
		&r.Owner.Email,
		&occupants,
		&accounts,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan resident: %w", err)
	}
	if err := json.Unmarshal(occupants, &r.Occupants); err != nil {
		return nil, fmt.Errorf("decode occupants: %w", err)
	}
	if err := json.Unmarshal(accounts, &r.Accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

func encodeMembers(r *models.Resident) ([]byte, []byte, error) {
	occupants := r.Occupants
	if occupants == nil {
		occupants = []models.Occupant{}
	}
	accounts := r.Accounts
	if accounts == nil {
		accounts = []models.SecondaryAccount{}
	}
	occ, err := json.Marshal(occupants)
	if err != nil {
		return nil, nil, fmt.Errorf("encode occupants: %w", err)
	}
	acc, err := json.Marshal(accounts)
	if err != nil {
		return nil, nil, fmt.Errorf("encode accounts: %w", err)
	}
	return occ, acc, nil
}

func translateWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("resident %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
