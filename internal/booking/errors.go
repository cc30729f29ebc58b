package booking

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	ErrDoctorInactive = errors.New("doctor is not accepting appointments")
	ErrEmptyRange     = errors.New("date range is empty")
	ErrStartInPast    = errors.New("appointment start must be in the future")
	ErrNotOwner       = errors.New("appointment belongs to another patient")

	// ErrSlotUnavailable is the conflict outcome: the proposed window overlaps
	// an existing non-cancelled, non-lapsed appointment, or does not match a
	// bookable slot at all.
	ErrSlotUnavailable = errors.New("slot is not available")

	// ErrDoctorBusy means the per-doctor lock could not be acquired; the
	// caller should retry shortly.
	ErrDoctorBusy = errors.New("doctor calendar is busy, please retry")

	ErrReservationExpired = errors.New("reservation hold has expired")
	ErrInvalidTransition  = errors.New("invalid appointment status transition")

	// ErrCancelWindow is the policy failure for cancelling inside the notice
	// window.
	ErrCancelWindow = errors.New("cancellation window has closed")

	// ErrNotStarted guards completion/no-show marking before the visit time.
	ErrNotStarted = errors.New("appointment has not started yet")
)
