package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/availability"
	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/config"
	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/metrics"
	redisclient "github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/redis"
)

// ConfirmDetails carries the booking details attached when a hold is
// confirmed.
type ConfirmDetails struct {
	Reason *string
	Notes  *string
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	cfg      config.Config
	notifier Notifier
	auditor  Auditor
	metrics  *metrics.BookingMetrics
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the service clock. Tests use it to step past hold
// expiries and cancellation windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		locker:   locker,
		cfg:      cfg,
		notifier: LogNotifier{Log: log},
		auditor:  NopAuditor{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AvailableSlots computes the candidate slots for a doctor over [from, to]
// calendar days: the doctor's rules partitioned into fixed-width windows,
// masked by every appointment that currently blocks its window.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]availability.Slot, error) {
	if to.Before(from) {
		return nil, ErrEmptyRange
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Active {
		return nil, ErrDoctorInactive
	}

	rules, err := s.repo.ListRules(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load availability rules: %w", err)
	}

	busy, err := s.busyIntervals(ctx, doctorID, dayStart(from), dayStart(to).AddDate(0, 0, 1), uuid.Nil)
	if err != nil {
		return nil, err
	}

	return availability.Expand(doctorID, rules, from, to, busy), nil
}

// Reserve places a short-lived hold on a slot. The conflict check and the
// insert run under the per-doctor lock inside one transaction, so two
// concurrent reserves for the same window cannot both succeed.
func (s *Service) Reserve(ctx context.Context, doctorID, patientID uuid.UUID, start time.Time, durationMinutes int) (*Appointment, error) {
	now := s.now()
	if !start.After(now) {
		return nil, ErrStartInPast
	}

	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Active {
		return nil, ErrDoctorInactive
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	ok, err := s.isBookableSlot(ctx, doctorID, start, end, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.ObserveReserve("conflict")
		return nil, ErrSlotUnavailable
	}

	var created *Appointment
	err = s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx TxRepository) error {
			conflicts, err := tx.ConflictingIDs(lockCtx, doctorID, start, end, uuid.Nil, now)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return ErrSlotUnavailable
			}

			appt, err := tx.CreateReserved(lockCtx, doctorID, patientID, start, durationMinutes, now.Add(s.cfg.HoldTTL))
			if err != nil {
				return fmt.Errorf("create reservation: %w", err)
			}
			created = appt
			return nil
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			s.metrics.ObserveReserve("busy")
			return nil, ErrDoctorBusy
		case errors.Is(err, ErrSlotUnavailable):
			s.metrics.ObserveReserve("conflict")
			return nil, err
		default:
			s.metrics.ObserveReserve("error")
			return nil, err
		}
	}

	s.metrics.ObserveReserve("reserved")
	s.afterTransition(ctx, EventReserved, created, patientID, "appointment.reserve", map[string]any{
		"start_time": created.StartTime,
		"expires_at": created.ReservationExpiresAt,
	})
	return created, nil
}

// Confirm turns a live hold into a scheduled visit. The conflict check is
// re-run excluding the hold itself before the transition commits.
func (s *Service) Confirm(ctx context.Context, id, patientID uuid.UUID, details ConfirmDetails) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != patientID {
		return nil, ErrNotOwner
	}

	now := s.now()
	if appt.HoldLapsed(now) {
		// Reap it now rather than waiting for the sweeper.
		expired, expErr := s.repo.ExpireReservation(ctx, appt.ID, now)
		switch {
		case expErr == nil:
			s.metrics.ObserveTransition(string(StatusReserved), string(StatusCancelled))
			s.afterTransition(ctx, EventExpired, expired, patientID, "appointment.expire", map[string]any{
				"reason": "confirm_after_expiry",
			})
		case !errors.Is(expErr, ErrAppointmentNotFound):
			s.log.Warn().Err(expErr).Str("appointment_id", appt.ID.String()).
				Msg("failed to expire lapsed hold during confirm")
		}
		return nil, ErrReservationExpired
	}
	if err := checkTransition(appt.Status, StatusScheduled); err != nil {
		return nil, err
	}

	var updated *Appointment
	err = s.locker.WithDoctorLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx TxRepository) error {
			conflicts, err := tx.ConflictingIDs(lockCtx, appt.DoctorID, appt.StartTime, appt.EndTime(), appt.ID, now)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return ErrSlotUnavailable
			}

			u, err := tx.ConfirmReserved(lockCtx, appt.ID, details.Reason, details.Notes)
			if err != nil {
				if errors.Is(err, ErrAppointmentNotFound) {
					// The guarded update matched nothing: the sweeper (or a
					// concurrent release) got there first.
					return ErrReservationExpired
				}
				return fmt.Errorf("confirm reservation: %w", err)
			}
			updated = u
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBusy
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(StatusReserved), string(StatusScheduled))
	s.afterTransition(ctx, EventConfirmed, updated, patientID, "appointment.confirm", nil)
	return updated, nil
}

// Release cancels an unconfirmed hold explicitly, freeing the slot before
// its natural expiry.
func (s *Service) Release(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != patientID {
		return nil, ErrNotOwner
	}
	if appt.Status != StatusReserved {
		return nil, ErrInvalidTransition
	}

	var updated *Appointment
	err = s.locker.WithDoctorLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx TxRepository) error {
			u, err := tx.CancelAppointment(lockCtx, appt.ID, StatusReserved, ReasonReleased)
			if err != nil {
				if errors.Is(err, ErrAppointmentNotFound) {
					return ErrInvalidTransition
				}
				return fmt.Errorf("release reservation: %w", err)
			}
			updated = u
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBusy
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(StatusReserved), string(StatusCancelled))
	s.afterTransition(ctx, EventCancelled, updated, patientID, "appointment.release", nil)
	return updated, nil
}

// Cancel cancels a scheduled or rescheduled visit, subject to the notice
// window policy. Holds go through Release instead.
func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusReserved {
		return nil, ErrInvalidTransition
	}
	if err := checkTransition(appt.Status, StatusCancelled); err != nil {
		return nil, err
	}
	if appt.StartTime.Sub(s.now()) < s.cfg.CancelNotice {
		return nil, ErrCancelWindow
	}

	from := appt.Status
	var updated *Appointment
	err = s.locker.WithDoctorLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx TxRepository) error {
			u, err := tx.CancelAppointment(lockCtx, appt.ID, from, reason)
			if err != nil {
				if errors.Is(err, ErrAppointmentNotFound) {
					return ErrInvalidTransition
				}
				return fmt.Errorf("cancel appointment: %w", err)
			}
			updated = u
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBusy
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(StatusCancelled))
	s.afterTransition(ctx, EventCancelled, updated, actorID, "appointment.cancel", map[string]any{
		"reason": reason,
	})
	return updated, nil
}

// Reschedule moves a scheduled visit to a new window. The conflict check
// excludes the appointment itself, so moving within the doctor's own old
// window is never self-blocking; the old slot frees implicitly.
func (s *Service) Reschedule(ctx context.Context, id, actorID uuid.UUID, newStart time.Time, durationMinutes int) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(appt.Status, StatusRescheduled); err != nil {
		return nil, err
	}

	now := s.now()
	if !newStart.After(now) {
		return nil, ErrStartInPast
	}

	end := newStart.Add(time.Duration(durationMinutes) * time.Minute)
	ok, err := s.isBookableSlot(ctx, appt.DoctorID, newStart, end, appt.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSlotUnavailable
	}

	from := appt.Status
	var updated *Appointment
	err = s.locker.WithDoctorLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(tx TxRepository) error {
			conflicts, err := tx.ConflictingIDs(lockCtx, appt.DoctorID, newStart, end, appt.ID, now)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return ErrSlotUnavailable
			}

			u, err := tx.MoveAppointment(lockCtx, appt.ID, from, newStart, durationMinutes)
			if err != nil {
				if errors.Is(err, ErrAppointmentNotFound) {
					return ErrInvalidTransition
				}
				return fmt.Errorf("reschedule appointment: %w", err)
			}
			updated = u
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBusy
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(StatusRescheduled))
	s.afterTransition(ctx, EventRescheduled, updated, actorID, "appointment.reschedule", map[string]any{
		"new_start": newStart,
	})
	return updated, nil
}

// MarkCompleted records attendance once the visit time has passed.
func (s *Service) MarkCompleted(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	return s.closeOut(ctx, id, actorID, StatusCompleted, EventCompleted, "appointment.complete")
}

// MarkNoShow records non-attendance once the visit time has passed.
func (s *Service) MarkNoShow(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	return s.closeOut(ctx, id, actorID, StatusNoShow, EventNoShow, "appointment.no_show")
}

func (s *Service) closeOut(ctx context.Context, id, actorID uuid.UUID, to Status, event EventType, action string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(appt.Status, to); err != nil {
		return nil, err
	}
	if s.now().Before(appt.StartTime) {
		return nil, ErrNotStarted
	}

	from := appt.Status
	var updated *Appointment
	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		u, err := tx.SetStatus(ctx, appt.ID, from, to)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrInvalidTransition
			}
			return fmt.Errorf("set status %s: %w", to, err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(to))
	s.afterTransition(ctx, event, updated, actorID, action, nil)
	return updated, nil
}

// SweepExpired reclaims lapsed holds in one batch, soft-cancelling each with
// ReasonExpired. Safe to run repeatedly and concurrently with confirms: the
// guarded update matches a given row at most once.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.repo.FindExpiredReserved(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find expired holds: %w", err)
	}

	reaped := 0
	for _, appt := range candidates {
		expired, err := s.repo.ExpireReservation(ctx, appt.ID, now)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// Confirmed or already swept since the candidate query.
				continue
			}
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).
				Msg("failed to expire hold")
			continue
		}
		reaped++
		s.metrics.ObserveTransition(string(StatusReserved), string(StatusCancelled))
		s.afterTransition(ctx, EventExpired, expired, uuid.Nil, "appointment.expire", map[string]any{
			"reason": "sweep",
		})
	}
	return reaped, nil
}

// GetAppointment retrieves an appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// ListAppointmentsByPatient retrieves a patient's appointments, newest first.
func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
}

// isBookableSlot checks that [start, end) is one of the currently available
// slots per the doctor's rules, optionally ignoring one appointment (the one
// being rescheduled).
func (s *Service) isBookableSlot(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	rules, err := s.repo.ListRules(ctx, doctorID)
	if err != nil {
		return false, fmt.Errorf("load availability rules: %w", err)
	}

	busy, err := s.busyIntervals(ctx, doctorID, dayStart(start), dayStart(start).AddDate(0, 0, 1), exclude)
	if err != nil {
		return false, err
	}

	for _, slot := range availability.Expand(doctorID, rules, start, start, busy) {
		if slot.Available && slot.Start.Equal(start) && slot.End.Equal(end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) busyIntervals(ctx context.Context, doctorID uuid.UUID, from, to time.Time, exclude uuid.UUID) ([]availability.Interval, error) {
	appts, err := s.repo.ListDoctorAppointments(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load doctor appointments: %w", err)
	}

	now := s.now()
	var busy []availability.Interval
	for _, a := range appts {
		if a.ID == exclude || !a.Blocks(now) {
			continue
		}
		busy = append(busy, availability.Interval{Start: a.StartTime, End: a.EndTime()})
	}
	return busy, nil
}

// afterTransition fans a committed transition out to the collaborators.
// Both are best-effort: the outcome of the booking write is already decided.
func (s *Service) afterTransition(ctx context.Context, event EventType, appt *Appointment, actorID uuid.UUID, action string, details map[string]any) {
	s.notifier.OnAppointmentEvent(ctx, event, appt)
	if err := s.auditor.OnAuditable(ctx, action, appt.ID, actorID, details); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("audit record dropped")
	}
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
