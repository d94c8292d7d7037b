package caregiver

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medtrack/adherence/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const connCols = `id, patient_id, caregiver_id, relationship, active, notify, device_key, created_at, updated_at`

func scanConnection(row pgx.Row) (*Connection, error) {
	var c Connection
	err := row.Scan(&c.ID, &c.PatientID, &c.CaregiverID, &c.Relationship, &c.Active, &c.Notify,
		&c.DeviceKey, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Connection) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO caregiver_connection (id, patient_id, caregiver_id, relationship, active, notify)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientID, c.CaregiverID, c.Relationship, c.Active, c.Notify).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Connection, error) {
	return scanConnection(r.conn(ctx).QueryRow(ctx,
		`SELECT `+connCols+` FROM caregiver_connection WHERE id = $1`, id))
}

func (r *repoPG) list(ctx context.Context, sql string, arg interface{}) ([]*Connection, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Connection, error) {
	return r.list(ctx, `SELECT `+connCols+` FROM caregiver_connection WHERE patient_id = $1 ORDER BY created_at`, patientID)
}

func (r *repoPG) ListByCaregiver(ctx context.Context, caregiverID uuid.UUID) ([]*Connection, error) {
	return r.list(ctx, `SELECT `+connCols+` FROM caregiver_connection WHERE caregiver_id = $1 ORDER BY created_at`, caregiverID)
}

func (r *repoPG) Update(ctx context.Context, c *Connection) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE caregiver_connection SET relationship=$2, active=$3, notify=$4, device_key=$5, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Relationship, c.Active, c.Notify, c.DeviceKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM caregiver_connection WHERE id = $1 AND patient_id = $2`, id, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ActiveExists(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM caregiver_connection
			WHERE caregiver_id = $1 AND patient_id = $2 AND active
		)`, caregiverID, patientID).Scan(&exists)
	return exists, err
}

func (r *repoPG) ListNotifiable(ctx context.Context, patientID uuid.UUID) ([]*Connection, error) {
	return r.list(ctx, `
		SELECT `+connCols+` FROM caregiver_connection
		WHERE patient_id = $1 AND active AND notify
		ORDER BY created_at`, patientID)
}
