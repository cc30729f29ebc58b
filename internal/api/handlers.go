package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/booking"
)

// Handler carries the booking service and exposes the HTTP endpoints.
type Handler struct {
	svc *booking.Service
}

func NewHandler(svc *booking.Service) *Handler {
	return &Handler{svc: svc}
}

// GetSlots handles GET /api/v1/doctors/{doctorID}/slots?from=...&to=...
// Dates are accepted as RFC 3339 timestamps or plain YYYY-MM-DD days.
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid doctor id")
		return
	}

	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid 'from' date")
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid 'to' date")
		return
	}

	slots, err := h.svc.AvailableSlots(r.Context(), doctorID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{Start: s.Start, End: s.End, Available: s.Available})
	}
	writeJSON(w, http.StatusOK, out)
}

// Reserve handles POST /api/v1/appointments/reserve.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid doctor id")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid patient id")
		return
	}

	appt, err := h.svc.Reserve(r.Context(), doctorID, patientID, req.StartTime, req.DurationMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

// Confirm handles POST /api/v1/appointments/{id}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid appointment id")
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid patient id")
		return
	}

	appt, err := h.svc.Confirm(r.Context(), id, patientID, booking.ConfirmDetails{
		Reason: req.Reason,
		Notes:  req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// Release handles POST /api/v1/appointments/{id}/release.
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid appointment id")
		return
	}

	var req ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid patient id")
		return
	}

	appt, err := h.svc.Release(r.Context(), id, patientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// Cancel handles POST /api/v1/appointments/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid appointment id")
		return
	}

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	actorID, err := uuid.Parse(req.ActorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid actor id")
		return
	}

	appt, err := h.svc.Cancel(r.Context(), id, actorID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// Reschedule handles POST /api/v1/appointments/{id}/reschedule.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid appointment id")
		return
	}

	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	actorID, err := uuid.Parse(req.ActorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid actor id")
		return
	}

	appt, err := h.svc.Reschedule(r.Context(), id, actorID, req.StartTime, req.DurationMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// Complete handles POST /api/v1/appointments/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.closeOut(w, r, h.svc.MarkCompleted)
}

// NoShow handles POST /api/v1/appointments/{id}/no-show.
func (h *Handler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.closeOut(w, r, h.svc.MarkNoShow)
}

func (h *Handler) closeOut(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id, actorID uuid.UUID) (*booking.Appointment, error),
) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid appointment id")
		return
	}

	var req CloseOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	actorID, err := uuid.Parse(req.ActorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid actor id")
		return
	}

	appt, err := fn(r.Context(), id, actorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// GetAppointment handles GET /api/v1/appointments/{id}.
func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid appointment id")
		return
	}

	appt, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// ListAppointments handles GET /api/v1/appointments?patient_id=...&limit=&offset=.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(r.URL.Query().Get("patient_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "patient_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	appts, err := h.svc.ListAppointmentsByPatient(r.Context(), patientID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeServiceError maps booking sentinel errors onto HTTP statuses and
// stable error codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound),
		errors.Is(err, booking.ErrPatientNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrReservationExpired):
		writeError(w, http.StatusConflict, "reservation_expired", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, booking.ErrDoctorBusy):
		writeError(w, http.StatusConflict, "doctor_busy", err.Error())
	case errors.Is(err, booking.ErrCancelWindow):
		writeError(w, http.StatusUnprocessableEntity, "cancel_window", err.Error())
	case errors.Is(err, booking.ErrNotStarted),
		errors.Is(err, booking.ErrStartInPast),
		errors.Is(err, booking.ErrEmptyRange),
		errors.Is(err, booking.ErrDoctorInactive):
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
	case errors.Is(err, booking.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner", err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "temporary storage failure, please retry")
	}
}

// parseDateParam accepts RFC 3339 or bare YYYY-MM-DD values.
func parseDateParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
