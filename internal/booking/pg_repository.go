package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/availability"
)

const appointmentColumns = `id, doctor_id, patient_id, start_time, duration_minutes,
		status, is_reserved, reservation_expires_at, reason, notes,
		cancellation_reason, created_at, updated_at`

// PgPool is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ PgPool = (*pgxpool.Pool)(nil)

type PgRepository struct {
	pool PgPool
}

func NewPgRepository(pool PgPool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.StartTime,
		&a.DurationMinutes,
		&a.Status,
		&a.IsReserved,
		&a.ReservationExpiresAt,
		&a.Reason,
		&a.Notes,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, active, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status IN ('reserved', 'scheduled', 'rescheduled')
		  AND start_time < $3
		  AND start_time + make_interval(mins => duration_minutes) > $2
		ORDER BY start_time
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListRules(ctx context.Context, doctorID uuid.UUID) (availability.RuleSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, day_of_week, on_date, start_minute, end_minute, slot_minutes, available
		FROM availability_rules
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return availability.RuleSet{}, err
	}
	defer rows.Close()

	var set availability.RuleSet
	for rows.Next() {
		var (
			id          uuid.UUID
			kind        string
			dayOfWeek   *int16
			onDate      *time.Time
			startMinute int16
			endMinute   int16
			slotMinutes int16
			avail       bool
		)
		if err := rows.Scan(&id, &kind, &dayOfWeek, &onDate, &startMinute, &endMinute, &slotMinutes, &avail); err != nil {
			return availability.RuleSet{}, err
		}

		switch kind {
		case "recurring":
			if dayOfWeek == nil {
				return availability.RuleSet{}, fmt.Errorf("recurring rule %s has no day_of_week", id)
			}
			set.Recurring = append(set.Recurring, availability.RecurringRule{
				ID:          id,
				DoctorID:    doctorID,
				Weekday:     time.Weekday(*dayOfWeek),
				Start:       availability.TimeOfDay(startMinute),
				End:         availability.TimeOfDay(endMinute),
				SlotMinutes: int(slotMinutes),
			})
		case "override":
			if onDate == nil {
				return availability.RuleSet{}, fmt.Errorf("override rule %s has no on_date", id)
			}
			set.Overrides = append(set.Overrides, availability.DateOverride{
				ID:          id,
				DoctorID:    doctorID,
				Date:        *onDate,
				Start:       availability.TimeOfDay(startMinute),
				End:         availability.TimeOfDay(endMinute),
				SlotMinutes: int(slotMinutes),
				Available:   avail,
			})
		default:
			return availability.RuleSet{}, fmt.Errorf("unknown availability rule kind %q", kind)
		}
	}
	if err := rows.Err(); err != nil {
		return availability.RuleSet{}, err
	}

	return set, nil
}

func (r *PgRepository) FindExpiredReserved(ctx context.Context, now time.Time, limit int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'reserved'
		  AND reservation_expires_at IS NOT NULL
		  AND reservation_expires_at < $1
		ORDER BY reservation_expires_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// ExpireReservation soft-cancels one lapsed hold. The status and expiry
// guards make it atomic against a concurrent confirm and idempotent across
// sweep passes.
func (r *PgRepository) ExpireReservation(ctx context.Context, id uuid.UUID, now time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
		    is_reserved = false,
		    reservation_expires_at = NULL,
		    cancellation_reason = 'expired',
		    updated_at = now()
		WHERE id = $1
		  AND status = 'reserved'
		  AND reservation_expires_at < $2
		RETURNING `+appointmentColumns+`
	`, id, now)
	return scanAppointment(row)
}

func (r *PgRepository) WithTx(ctx context.Context, fn func(tx TxRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTxRepository{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) ConflictingIDs(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id
		FROM appointments
		WHERE doctor_id = $1
		  AND id <> $2
		  AND status IN ('reserved', 'scheduled', 'rescheduled')
		  AND (status <> 'reserved' OR reservation_expires_at > $5)
		  AND start_time < $4
		  AND start_time + make_interval(mins => duration_minutes) > $3
		FOR UPDATE
	`, doctorID, exclude, start, end, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *pgTxRepository) CreateReserved(ctx context.Context, doctorID, patientID uuid.UUID, start time.Time, durationMinutes int, expiresAt time.Time) (*Appointment, error) {
	id := uuid.New()

	row := r.tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, doctor_id, patient_id, start_time, duration_minutes,
			 status, is_reserved, reservation_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'reserved', true, $6, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, doctorID, patientID, start, durationMinutes, expiresAt)

	return scanAppointment(row)
}

func (r *pgTxRepository) ConfirmReserved(ctx context.Context, id uuid.UUID, reason, notes *string) (*Appointment, error) {
	row := r.tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'scheduled',
		    is_reserved = false,
		    reservation_expires_at = NULL,
		    reason = $2,
		    notes = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'reserved'
		RETURNING `+appointmentColumns+`
	`, id, reason, notes)
	return scanAppointment(row)
}

func (r *pgTxRepository) CancelAppointment(ctx context.Context, id uuid.UUID, from Status, reason string) (*Appointment, error) {
	row := r.tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
		    is_reserved = false,
		    reservation_expires_at = NULL,
		    cancellation_reason = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status = $2
		RETURNING `+appointmentColumns+`
	`, id, from, reason)
	return scanAppointment(row)
}

func (r *pgTxRepository) MoveAppointment(ctx context.Context, id uuid.UUID, from Status, newStart time.Time, durationMinutes int) (*Appointment, error) {
	row := r.tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'rescheduled',
		    start_time = $3,
		    duration_minutes = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status = $2
		RETURNING `+appointmentColumns+`
	`, id, from, newStart, durationMinutes)
	return scanAppointment(row)
}

func (r *pgTxRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)
	return scanAppointment(row)
}
