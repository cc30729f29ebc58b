package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusReserved    Status = "reserved"
	StatusScheduled   Status = "scheduled"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
	StatusNoShow      Status = "no_show"
)

// Cancellation reasons written by the core itself. Caller-supplied reasons
// pass through untouched.
const (
	ReasonExpired  = "expired"
	ReasonReleased = "released"
)

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is one booking attempt or confirmed visit. Rows are never
// physically deleted; lapsed holds are soft-cancelled with ReasonExpired.
type Appointment struct {
	ID                   uuid.UUID
	DoctorID             uuid.UUID
	PatientID            uuid.UUID
	StartTime            time.Time
	DurationMinutes      int
	Status               Status
	IsReserved           bool
	ReservationExpiresAt *time.Time
	Reason               *string
	Notes                *string
	CancellationReason   *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// HoldLapsed reports whether a Reserved appointment's hold has expired.
func (a *Appointment) HoldLapsed(now time.Time) bool {
	return a.Status == StatusReserved &&
		a.ReservationExpiresAt != nil &&
		a.ReservationExpiresAt.Before(now)
}

// Blocks reports whether this appointment makes its window unavailable to
// other bookings: scheduled and rescheduled visits always, reserved holds
// only until they lapse.
func (a *Appointment) Blocks(now time.Time) bool {
	switch a.Status {
	case StatusScheduled, StatusRescheduled:
		return true
	case StatusReserved:
		return !a.HoldLapsed(now)
	default:
		return false
	}
}
