package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/availability"
)

// Repository contains all store interactions needed by the service and the
// sweeper. The appointment table is the single source of truth; availability
// queries always read it directly.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)

	// ListDoctorAppointments returns potentially blocking rows (reserved,
	// scheduled, rescheduled) touching [from, to) for slot computation.
	ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// ListRules loads the doctor's availability configuration.
	ListRules(ctx context.Context, doctorID uuid.UUID) (availability.RuleSet, error)

	// Expiry sweeping. ExpireReservation is a status-guarded update, so a
	// second pass over the same row is a no-op.
	FindExpiredReserved(ctx context.Context, now time.Time, limit int) ([]Appointment, error)
	ExpireReservation(ctx context.Context, id uuid.UUID, now time.Time) (*Appointment, error)

	// WithTx runs fn inside one transaction. Every conflict check and the
	// write depending on it go through here so they commit as one unit.
	WithTx(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository is the transaction-scoped slice of the store.
type TxRepository interface {
	// ConflictingIDs locks and returns the non-cancelled, non-lapsed
	// appointments overlapping [start, end) for the doctor, excluding at most
	// one appointment id (uuid.Nil excludes nothing).
	ConflictingIDs(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID, now time.Time) ([]uuid.UUID, error)

	CreateReserved(ctx context.Context, doctorID, patientID uuid.UUID, start time.Time, durationMinutes int, expiresAt time.Time) (*Appointment, error)
	ConfirmReserved(ctx context.Context, id uuid.UUID, reason, notes *string) (*Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID, from Status, reason string) (*Appointment, error)
	MoveAppointment(ctx context.Context, id uuid.UUID, from Status, newStart time.Time, durationMinutes int) (*Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
}
