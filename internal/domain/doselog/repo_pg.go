package doselog

import (
	"context"
	"errors"
	"time"

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

const logCols = `id, schedule_id, scheduled_time, taken_at, status, notes, created_at, updated_at`

func scanLog(row pgx.Row) (*DoseLog, error) {
	var dl DoseLog
	err := row.Scan(&dl.ID, &dl.ScheduleID, &dl.ScheduledTime, &dl.TakenAt,
		&dl.Status, &dl.Notes, &dl.CreatedAt, &dl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dl, nil
}

// Create races concurrent materializers on a unique index over
// (schedule_id, date_trunc('minute', scheduled_time)). The loser of the race
// gets no row back from ON CONFLICT DO NOTHING and re-reads the winner.
func (r *repoPG) Create(ctx context.Context, scheduleID uuid.UUID, scheduledTime time.Time) (*DoseLog, error) {
	id := uuid.New()
	dl, err := scanLog(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO dose_log (id, schedule_id, scheduled_time, status)
		VALUES ($1, $2, $3, 'pending')
		ON CONFLICT (schedule_id, (date_trunc('minute', scheduled_time))) DO NOTHING
		RETURNING `+logCols,
		id, scheduleID, scheduledTime))
	if err == nil {
		return dl, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	start := scheduledTime.Truncate(time.Minute)
	winner, err := r.FindInWindow(ctx, scheduleID, start, start.Add(time.Minute))
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, ErrNotFound
	}
	return winner, nil
}

func (r *repoPG) FindInWindow(ctx context.Context, scheduleID uuid.UUID, start, end time.Time) (*DoseLog, error) {
	dl, err := scanLog(r.conn(ctx).QueryRow(ctx, `
		SELECT `+logCols+` FROM dose_log
		WHERE schedule_id = $1 AND scheduled_time >= $2 AND scheduled_time < $3`,
		scheduleID, start, end))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return dl, err
}

func (r *repoPG) GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*DoseLog, error) {
	return scanLog(r.conn(ctx).QueryRow(ctx, `
		SELECT dl.id, dl.schedule_id, dl.scheduled_time, dl.taken_at, dl.status, dl.notes, dl.created_at, dl.updated_at
		FROM dose_log dl
		JOIN schedule s ON s.id = dl.schedule_id
		JOIN medication m ON m.id = s.medication_id
		WHERE dl.id = $1 AND m.patient_id = $2`, id, patientID))
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status Status, takenAt *time.Time, notes *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE dose_log SET status=$2, taken_at=$3, notes=COALESCE($4, notes), updated_at=NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, status, takenAt, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a terminal row from a missing one.
	var current Status
	err = r.conn(ctx).QueryRow(ctx, `SELECT status FROM dose_log WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrTerminalStatus
}

func (r *repoPG) ListForPatientBetween(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*DoseLog, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT dl.id, dl.schedule_id, dl.scheduled_time, dl.taken_at, dl.status, dl.notes, dl.created_at, dl.updated_at
		FROM dose_log dl
		JOIN schedule s ON s.id = dl.schedule_id
		JOIN medication m ON m.id = s.medication_id
		WHERE m.patient_id = $1 AND dl.scheduled_time >= $2 AND dl.scheduled_time < $3
		ORDER BY dl.scheduled_time`, patientID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*DoseLog
	for rows.Next() {
		dl, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, dl)
	}
	return items, rows.Err()
}

func (r *repoPG) ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]*OverdueDose, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT dl.id, dl.schedule_id, dl.scheduled_time, dl.taken_at, dl.status, dl.notes, dl.created_at, dl.updated_at,
		       m.patient_id, m.name
		FROM dose_log dl
		JOIN schedule s ON s.id = dl.schedule_id
		JOIN medication m ON m.id = s.medication_id
		WHERE dl.status = 'pending' AND dl.scheduled_time < $1
		ORDER BY dl.scheduled_time
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*OverdueDose
	for rows.Next() {
		var od OverdueDose
		if err := rows.Scan(&od.ID, &od.ScheduleID, &od.ScheduledTime, &od.TakenAt,
			&od.Status, &od.Notes, &od.CreatedAt, &od.UpdatedAt,
			&od.PatientID, &od.MedicationName); err != nil {
			return nil, err
		}
		items = append(items, &od)
	}
	return items, rows.Err()
}

func (r *repoPG) MarkMissed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE dose_log SET status='missed', updated_at=NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
