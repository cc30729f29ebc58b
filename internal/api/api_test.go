package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/booking"
)

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{booking.ErrDoctorNotFound, http.StatusNotFound, "not_found"},
		{booking.ErrPatientNotFound, http.StatusNotFound, "not_found"},
		{booking.ErrAppointmentNotFound, http.StatusNotFound, "not_found"},
		{booking.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{booking.ErrReservationExpired, http.StatusConflict, "reservation_expired"},
		{booking.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{booking.ErrDoctorBusy, http.StatusConflict, "doctor_busy"},
		{booking.ErrCancelWindow, http.StatusUnprocessableEntity, "cancel_window"},
		{booking.ErrNotStarted, http.StatusUnprocessableEntity, "invalid_request"},
		{booking.ErrStartInPast, http.StatusUnprocessableEntity, "invalid_request"},
		{booking.ErrDoctorInactive, http.StatusUnprocessableEntity, "invalid_request"},
		{booking.ErrNotOwner, http.StatusForbidden, "not_owner"},
		{errors.New("connection refused"), http.StatusServiceUnavailable, "store_unavailable"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tc.err)

		assert.Equal(t, tc.status, rec.Code, "status for %v", tc.err)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Error, "code for %v", tc.err)
	}
}

func TestWriteServiceErrorWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("confirm appointment"), booking.ErrReservationExpired)

	rec := httptest.NewRecorder()
	writeServiceError(rec, wrapped)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestParseDateParam(t *testing.T) {
	day, err := parseDateParam("2026-09-07")
	require.NoError(t, err)
	assert.Equal(t, 2026, day.Year())
	assert.Equal(t, 0, day.Hour())

	ts, err := parseDateParam("2026-09-07T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 14, ts.Hour())

	_, err = parseDateParam("next tuesday")
	assert.Error(t, err)
}

func TestRequestIDMiddleware(t *testing.T) {
	var captured string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("generates id when missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		RequestIDMiddleware(inner).ServeHTTP(rec, req)

		require.NotEmpty(t, captured)
		assert.Equal(t, captured, rec.Header().Get("X-Request-ID"))
	})

	t.Run("propagates caller id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-abc123")
		RequestIDMiddleware(inner).ServeHTTP(rec, req)

		assert.Equal(t, "req-abc123", captured)
		assert.Equal(t, "req-abc123", rec.Header().Get("X-Request-ID"))
	})
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	LivenessHandler("test", "dev")(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "dev", body.Env)
}
