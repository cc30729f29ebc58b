package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/availability"
)

// fakeClock is a mutable test clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeLocker is a blocking per-doctor mutex. Unlike the Redis locker it
// queues contenders instead of refusing them, which makes concurrency tests
// deterministic: both racers run their critical sections, serialized.
type fakeLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *fakeLocker) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[doctorID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[doctorID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// fakeRepo is an in-memory Repository. WithTx holds the repo mutex for the
// whole callback, mirroring the serializable scope the pg implementation gets
// from its transaction plus row locks.
type fakeRepo struct {
	mu       sync.Mutex
	doctors  map[uuid.UUID]Doctor
	patients map[uuid.UUID]Patient
	rules    map[uuid.UUID]availability.RuleSet
	appts    map[uuid.UUID]*Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		doctors:  make(map[uuid.UUID]Doctor),
		patients: make(map[uuid.UUID]Patient),
		rules:    make(map[uuid.UUID]availability.RuleSet),
		appts:    make(map[uuid.UUID]*Appointment),
	}
}

func (r *fakeRepo) addDoctor(d Doctor) { r.doctors[d.ID] = d }

func (r *fakeRepo) addPatient(p Patient) { r.patients[p.ID] = p }

func (r *fakeRepo) setRules(doctorID uuid.UUID, set availability.RuleSet) {
	r.rules[doctorID] = set
}

func (r *fakeRepo) putAppointment(a Appointment) {
	cp := a
	r.appts[a.ID] = &cp
}

func (r *fakeRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

func (r *fakeRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) ListAppointmentsByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListDoctorAppointments(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doctorAppointmentsLocked(doctorID, from, to), nil
}

func (r *fakeRepo) doctorAppointmentsLocked(doctorID uuid.UUID, from, to time.Time) []Appointment {
	var out []Appointment
	for _, a := range r.appts {
		if a.DoctorID != doctorID {
			continue
		}
		switch a.Status {
		case StatusReserved, StatusScheduled, StatusRescheduled:
		default:
			continue
		}
		if a.StartTime.Before(to) && a.EndTime().After(from) {
			out = append(out, *a)
		}
	}
	return out
}

func (r *fakeRepo) ListRules(_ context.Context, doctorID uuid.UUID) (availability.RuleSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rules[doctorID], nil
}

func (r *fakeRepo) FindExpiredReserved(_ context.Context, now time.Time, limit int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appts {
		if a.HoldLapsed(now) {
			out = append(out, *a)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) ExpireReservation(_ context.Context, id uuid.UUID, now time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || !a.HoldLapsed(now) {
		return nil, ErrAppointmentNotFound
	}
	a.Status = StatusCancelled
	a.IsReserved = false
	a.ReservationExpiresAt = nil
	reason := ReasonExpired
	a.CancellationReason = &reason
	a.UpdatedAt = now
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) WithTx(_ context.Context, fn func(tx TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&fakeTx{repo: r})
}

// fakeTx operates on an already-locked fakeRepo.
type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) ConflictingIDs(_ context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, a := range t.repo.appts {
		if a.DoctorID != doctorID || a.ID == exclude {
			continue
		}
		if !a.Blocks(now) {
			continue
		}
		if a.StartTime.Before(end) && a.EndTime().After(start) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (t *fakeTx) CreateReserved(_ context.Context, doctorID, patientID uuid.UUID, start time.Time, durationMinutes int, expiresAt time.Time) (*Appointment, error) {
	a := &Appointment{
		ID:                   uuid.New(),
		DoctorID:             doctorID,
		PatientID:            patientID,
		StartTime:            start,
		DurationMinutes:      durationMinutes,
		Status:               StatusReserved,
		IsReserved:           true,
		ReservationExpiresAt: &expiresAt,
	}
	t.repo.appts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (t *fakeTx) ConfirmReserved(_ context.Context, id uuid.UUID, reason, notes *string) (*Appointment, error) {
	a, ok := t.repo.appts[id]
	if !ok || a.Status != StatusReserved {
		return nil, ErrAppointmentNotFound
	}
	a.Status = StatusScheduled
	a.IsReserved = false
	a.ReservationExpiresAt = nil
	a.Reason = reason
	a.Notes = notes
	cp := *a
	return &cp, nil
}

func (t *fakeTx) CancelAppointment(_ context.Context, id uuid.UUID, from Status, reason string) (*Appointment, error) {
	a, ok := t.repo.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = StatusCancelled
	a.IsReserved = false
	a.ReservationExpiresAt = nil
	a.CancellationReason = &reason
	cp := *a
	return &cp, nil
}

func (t *fakeTx) MoveAppointment(_ context.Context, id uuid.UUID, from Status, newStart time.Time, durationMinutes int) (*Appointment, error) {
	a, ok := t.repo.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = StatusRescheduled
	a.StartTime = newStart
	a.DurationMinutes = durationMinutes
	cp := *a
	return &cp, nil
}

func (t *fakeTx) SetStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, ok := t.repo.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}
