package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/booking"
)

type ReserveRequest struct {
	DoctorID        string    `json:"doctor_id"`
	PatientID       string    `json:"patient_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

type ConfirmRequest struct {
	PatientID string  `json:"patient_id"`
	Reason    *string `json:"reason,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type ReleaseRequest struct {
	PatientID string `json:"patient_id"`
}

type CancelRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

type RescheduleRequest struct {
	ActorID         string    `json:"actor_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

type CloseOutRequest struct {
	ActorID string `json:"actor_id"`
}

type AppointmentResponse struct {
	ID                   uuid.UUID  `json:"id"`
	DoctorID             uuid.UUID  `json:"doctor_id"`
	PatientID            uuid.UUID  `json:"patient_id"`
	StartTime            time.Time  `json:"start_time"`
	DurationMinutes      int        `json:"duration_minutes"`
	Status               string     `json:"status"`
	ReservationExpiresAt *time.Time `json:"reservation_expires_at,omitempty"`
	CancellationReason   *string    `json:"cancellation_reason,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                   a.ID,
		DoctorID:             a.DoctorID,
		PatientID:            a.PatientID,
		StartTime:            a.StartTime,
		DurationMinutes:      a.DurationMinutes,
		Status:               string(a.Status),
		ReservationExpiresAt: a.ReservationExpiresAt,
		CancellationReason:   a.CancellationReason,
	}
}

type SlotResponse struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
