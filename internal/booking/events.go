package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventReserved    EventType = "APPOINTMENT_RESERVED"
	EventConfirmed   EventType = "APPOINTMENT_CONFIRMED"
	EventCancelled   EventType = "APPOINTMENT_CANCELLED"
	EventRescheduled EventType = "APPOINTMENT_RESCHEDULED"
	EventCompleted   EventType = "APPOINTMENT_COMPLETED"
	EventNoShow      EventType = "APPOINTMENT_NO_SHOW"
	EventExpired     EventType = "APPOINTMENT_EXPIRED"
)

// Notifier receives an event after each committed state transition. Delivery
// (email, SMS, reminders) lives outside the core; failures here never roll
// back the transition.
type Notifier interface {
	OnAppointmentEvent(ctx context.Context, event EventType, appt *Appointment)
}

// Auditor records who did what. Best-effort: a failing auditor is logged and
// otherwise ignored.
type Auditor interface {
	OnAuditable(ctx context.Context, action string, entityID, actorID uuid.UUID, details map[string]any) error
}

type NopNotifier struct{}

func (NopNotifier) OnAppointmentEvent(context.Context, EventType, *Appointment) {}

type NopAuditor struct{}

func (NopAuditor) OnAuditable(context.Context, string, uuid.UUID, uuid.UUID, map[string]any) error {
	return nil
}

// LogNotifier writes each event to the log. The default collaborator when no
// delivery channel is wired.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) OnAppointmentEvent(_ context.Context, event EventType, appt *Appointment) {
	n.Log.Info().
		Str("event", string(event)).
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", appt.DoctorID.String()).
		Str("status", string(appt.Status)).
		Time("start_time", appt.StartTime).
		Msg("appointment event")
}
