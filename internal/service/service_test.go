package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/region23/medbook/internal/scheduler"
	"github.com/region23/medbook/internal/scheduling"
	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/internal/storage/memory"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/pkg/errors"
)

// Суббота, 2026-10-17 08:00 UTC; 2026-10-19 - понедельник
var fixedNow = time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

const monday = "2026-10-19"

// failingSource читает нормально, но отклоняет запись
type failingSource[T storage.Record] struct {
	inner *memory.Store[T]
}

func (f failingSource[T]) Load(ctx context.Context) ([]T, error) {
	return f.inner.Load(ctx)
}

func (f failingSource[T]) Store(ctx context.Context, records []T) error {
	return stderrors.New("disk full")
}

// flakySource отказывает в Load, пока failLoads > 0
type flakySource[T storage.Record] struct {
	inner     *memory.Store[T]
	mu        sync.Mutex
	failLoads int
}

func (f *flakySource[T]) failNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failLoads = n
}

func (f *flakySource[T]) Load(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	if f.failLoads > 0 {
		f.failLoads--
		f.mu.Unlock()
		return nil, stderrors.New("transient read error")
	}
	f.mu.Unlock()
	return f.inner.Load(ctx)
}

func (f *flakySource[T]) Store(ctx context.Context, records []T) error {
	return f.inner.Store(ctx, records)
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]scheduler.Reminder
	cancelled []string
	restored  []scheduler.Reminder
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]scheduler.Reminder)}
}

func (f *fakeScheduler) Schedule(ctx context.Context, r scheduler.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled[r.Appointment.ID] = r
	return nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, id)
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeScheduler) ReschedulePending(ctx context.Context, reminders []scheduler.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored = reminders
	return nil
}

func (f *fakeScheduler) Start(ctx context.Context) error { return nil }
func (f *fakeScheduler) Stop() error                     { return nil }

func memoryStores() *storage.Stores {
	return &storage.Stores{
		Patients:     storage.NewCollection[models.Patient](storage.CollectionPatients, memory.New[models.Patient](), nil),
		Doctors:      storage.NewCollection[models.Doctor](storage.CollectionDoctors, memory.New[models.Doctor](), nil),
		Appointments: storage.NewCollection[models.Appointment](storage.CollectionAppointments, memory.New[models.Appointment](), nil),
	}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(memoryStores(), nil, opts...)
}

func seed(t *testing.T, s *Service) (models.Patient, models.Doctor) {
	t.Helper()
	ctx := context.Background()

	p, err := s.RegisterPatient(ctx, PatientInput{Name: "Ana Lopez", Age: 34, Phone: "+34600123456", Email: "ana@example.com"})
	require.NoError(t, err)

	d, err := s.RegisterDoctor(ctx, DoctorInput{
		Name: "Gregory House", Specialty: "Diagnostics",
		AvailableDays: []string{"monday"}, StartTime: "09:00", EndTime: "12:00",
	})
	require.NoError(t, err)
	return p, d
}

func TestRegisterPatient(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	p, err := s.RegisterPatient(ctx, PatientInput{Name: "Ana", Age: 34, Phone: "+34600123456", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "P001", p.ID)
	assert.Equal(t, "2026-10-17", p.RegisteredDate)

	_, err = s.RegisterPatient(ctx, PatientInput{Name: "Other", Age: 40, Phone: "+34600123457", Email: "ANA@example.com"})
	assert.ErrorIs(t, err, errors.ErrEmailTaken)

	_, err = s.RegisterPatient(ctx, PatientInput{Name: "Kid", Age: 0, Phone: "+34600123458", Email: "kid@example.com"})
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	assert.Len(t, s.ListPatients(ctx), 1)
}

func TestRegisterPatient_IDsAreSequential(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		p, err := s.RegisterPatient(ctx, PatientInput{
			Name: "Patient", Age: 20 + i, Phone: "+34600123456", Email: fmt.Sprintf("p%d@example.com", i),
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("P%03d", i), p.ID)
	}
}

func TestUpdatePatient(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, _ := seed(t, s)

	_, err := s.RegisterPatient(ctx, PatientInput{Name: "Luis", Age: 50, Phone: "+34600000001", Email: "luis@example.com"})
	require.NoError(t, err)

	age := 35
	phone := "+34 611 222 333"
	updated, err := s.UpdatePatient(ctx, p.ID, PatientPatch{Age: &age, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, 35, updated.Age)
	assert.Equal(t, "Ana Lopez", updated.Name)
	assert.Equal(t, p.RegisteredDate, updated.RegisteredDate)

	got, err := s.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "+34 611 222 333", got.Phone)

	taken := "luis@example.com"
	_, err = s.UpdatePatient(ctx, p.ID, PatientPatch{Email: &taken})
	assert.ErrorIs(t, err, errors.ErrEmailTaken)

	bad := -1
	_, err = s.UpdatePatient(ctx, p.ID, PatientPatch{Age: &bad})
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	_, err = s.UpdatePatient(ctx, "P404", PatientPatch{Age: &age})
	assert.ErrorIs(t, err, errors.ErrPatientNotFound)
}

func TestRegisterDoctor(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, d := seed(t, s)

	assert.Equal(t, "D001", d.ID)
	assert.Equal(t, []string{"Monday"}, d.AvailableDays)

	_, err := s.RegisterDoctor(ctx, DoctorInput{
		Name: "Gregory House", Specialty: "Diagnostics",
		AvailableDays: []string{"Friday"}, StartTime: "09:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, errors.ErrDoctorExists)

	_, err = s.RegisterDoctor(ctx, DoctorInput{
		Name: "Gregory House", Specialty: "Nephrology",
		AvailableDays: []string{"Friday"}, StartTime: "12:00", EndTime: "09:00",
	})
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	d2, err := s.RegisterDoctor(ctx, DoctorInput{
		Name: "Gregory House", Specialty: "Nephrology",
		AvailableDays: []string{"Friday"}, StartTime: "09:00", EndTime: "12:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "D002", d2.ID)

	assert.Len(t, s.DoctorsBySpecialty(ctx, "nephrology"), 1)
	assert.Empty(t, s.DoctorsBySpecialty(ctx, "Surgery"))

	_, err = s.GetDoctor(ctx, "D404")
	assert.ErrorIs(t, err, errors.ErrDoctorNotFound)
}

func TestBookAppointment_MondayScenario(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, d := seed(t, s)

	req := scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "11:30", Reason: "checkup"}
	a, err := s.BookAppointment(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "C001", a.ID)
	assert.Equal(t, models.StatusScheduled, a.Status)
	assert.Equal(t, fixedNow, a.CreatedAt)

	_, err = s.BookAppointment(ctx, req)
	assert.Equal(t, errors.KindSchedulingConflict, errors.KindOf(err))

	atEnd := req
	atEnd.Time = "12:00"
	_, err = s.BookAppointment(ctx, atEnd)
	assert.ErrorIs(t, err, errors.ErrOutsideWorkingHours)

	tuesday := req
	tuesday.Date = "2026-10-20"
	tuesday.Time = "10:00"
	_, err = s.BookAppointment(ctx, tuesday)
	assert.ErrorIs(t, err, errors.ErrDoctorNotAvailableOnDay)
	assert.Contains(t, err.Error(), "Tuesday")

	// после отмены тот же слот снова доступен
	_, err = s.CancelAppointment(ctx, a.ID)
	require.NoError(t, err)
	again, err := s.BookAppointment(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "C002", again.ID)
}

func TestBookAppointment_Rejections(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, d := seed(t, s)

	tests := []struct {
		name string
		req  scheduling.Request
		want *errors.AppError
	}{
		{"unknown patient", scheduling.Request{PatientID: "P404", DoctorID: d.ID, Date: monday, Time: "10:00", Reason: "x"}, errors.ErrPatientNotFound},
		{"unknown doctor", scheduling.Request{PatientID: p.ID, DoctorID: "D404", Date: monday, Time: "10:00", Reason: "x"}, errors.ErrDoctorNotFound},
		{"past date", scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: "2026-10-12", Time: "10:00", Reason: "x"}, errors.ErrPastDate},
		{"malformed date", scheduling.Request{PatientID: "P404", DoctorID: d.ID, Date: "19-10-2026", Time: "10:00", Reason: "x"}, errors.ErrInvalidDate},
		{"malformed time", scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "10", Reason: "x"}, errors.ErrInvalidTime},
		{"missing reason", scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "10:00"}, errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.BookAppointment(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, s.ListAppointments(ctx, AppointmentFilter{}))
}

func TestBookAppointment_PersistenceFailureIsDistinct(t *testing.T) {
	stores := memoryStores()
	stores.Appointments = storage.NewCollection[models.Appointment](storage.CollectionAppointments,
		failingSource[models.Appointment]{memory.New[models.Appointment]()}, nil)
	sched := newFakeScheduler()
	s := New(stores, nil, WithClock(func() time.Time { return fixedNow }), WithReminders(sched, time.Hour))
	ctx := context.Background()
	p, d := seed(t, s)

	_, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "10:00", Reason: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPersistence)
	assert.Equal(t, errors.KindPersistenceFailure, errors.KindOf(err))
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, sched.scheduled, "no reminder for an unsaved appointment")
}

func TestBookAppointment_ReadFailureKeepsStoredAppointments(t *testing.T) {
	stores := memoryStores()
	flaky := &flakySource[models.Appointment]{inner: memory.New[models.Appointment]()}
	stores.Appointments = storage.NewCollection[models.Appointment](storage.CollectionAppointments, flaky, nil)
	s := New(stores, nil, WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()
	p, d := seed(t, s)

	for _, clock := range []string{"09:00", "10:00"} {
		_, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: clock, Reason: "x"})
		require.NoError(t, err)
	}

	flaky.failNext(1)
	_, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "09:00", Reason: "dup"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPersistence)

	stored := s.ListAppointments(ctx, AppointmentFilter{})
	require.Len(t, stored, 2)
	assert.Equal(t, "C001", stored[0].ID)
	assert.Equal(t, "C002", stored[1].ID)

	// слот 09:00 по-прежнему занят, номер не переиспользуется
	_, err = s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "09:00", Reason: "dup"})
	assert.ErrorIs(t, err, errors.ErrSlotAlreadyBooked)
	a, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "11:00", Reason: "x"})
	require.NoError(t, err)
	assert.Equal(t, "C003", a.ID)

	flaky.failNext(1)
	_, err = s.CancelAppointment(ctx, "C001")
	assert.ErrorIs(t, err, errors.ErrPersistence)
	assert.Len(t, s.ListAppointments(ctx, AppointmentFilter{Status: models.StatusScheduled}), 3)
}

func TestRegister_ReadFailureIsPersistenceFailure(t *testing.T) {
	stores := memoryStores()
	patients := &flakySource[models.Patient]{inner: memory.New[models.Patient]()}
	doctors := &flakySource[models.Doctor]{inner: memory.New[models.Doctor]()}
	stores.Patients = storage.NewCollection[models.Patient](storage.CollectionPatients, patients, nil)
	stores.Doctors = storage.NewCollection[models.Doctor](storage.CollectionDoctors, doctors, nil)
	s := New(stores, nil, WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()
	p, _ := seed(t, s)

	patients.failNext(1)
	_, err := s.RegisterPatient(ctx, PatientInput{Name: "Bo Chen", Age: 51, Phone: "+34600999888", Email: "bo@example.com"})
	assert.ErrorIs(t, err, errors.ErrPersistence)

	patients.failNext(1)
	name := "Ana M. Lopez"
	_, err = s.UpdatePatient(ctx, p.ID, PatientPatch{Name: &name})
	assert.ErrorIs(t, err, errors.ErrPersistence)

	doctors.failNext(1)
	_, err = s.RegisterDoctor(ctx, DoctorInput{
		Name: "Meredith Grey", Specialty: "Surgery",
		AvailableDays: []string{"Tuesday"}, StartTime: "08:00", EndTime: "14:00",
	})
	assert.ErrorIs(t, err, errors.ErrPersistence)

	assert.Len(t, s.ListPatients(ctx), 1)
	assert.Len(t, s.ListDoctors(ctx), 1)
	next, err := s.RegisterPatient(ctx, PatientInput{Name: "Bo Chen", Age: 51, Phone: "+34600999888", Email: "bo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "P002", next.ID)
}

func TestCancelAppointment(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, d := seed(t, s)

	a, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "10:00", Reason: "x"})
	require.NoError(t, err)

	cancelled, err := s.CancelAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// повторная отмена всегда InvalidState и ничего не меняет
	for i := 0; i < 2; i++ {
		_, err = s.CancelAppointment(ctx, a.ID)
		assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))
	}
	stored, err := s.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, cancelled, stored)

	_, err = s.CancelAppointment(ctx, "C404")
	assert.ErrorIs(t, err, errors.ErrAppointmentNotFound)
}

func TestBookAppointment_ConcurrentSameSlot(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, d := seed(t, s)

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "09:30", Reason: "x"})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.Equal(t, errors.KindSchedulingConflict, errors.KindOf(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Len(t, s.ListAppointments(ctx, AppointmentFilter{Status: models.StatusScheduled}), 1)
}

func TestQueries(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, d := seed(t, s)

	d2, err := s.RegisterDoctor(ctx, DoctorInput{
		Name: "Meredith Grey", Specialty: "Surgery",
		AvailableDays: []string{"Monday", "Sunday"}, StartTime: "07:00", EndTime: "18:00",
	})
	require.NoError(t, err)

	_, err = s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d2.ID, Date: monday, Time: "10:00", Reason: "x"})
	require.NoError(t, err)
	_, err = s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d2.ID, Date: "2026-10-18", Time: "07:30", Reason: "y"})
	require.NoError(t, err)
	c3, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "09:00", Reason: "z"})
	require.NoError(t, err)
	_, err = s.CancelAppointment(ctx, c3.ID)
	require.NoError(t, err)

	available, err := s.AvailableDoctors(ctx, monday, "10:00")
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, d.ID, available[0].ID)

	_, err = s.AvailableDoctors(ctx, "tomorrow", "10:00")
	assert.ErrorIs(t, err, errors.ErrInvalidDate)

	// now = суббота 08:00; в окно попадает только воскресенье 07:30
	upcoming := s.UpcomingAppointments(ctx)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "2026-10-18", upcoming[0].Date)

	top := s.TopDoctor(ctx)
	assert.Equal(t, d2.ID, top.DoctorID)
	assert.Equal(t, 2, top.TotalAppointments)

	specialty := s.TopSpecialty(ctx)
	assert.Equal(t, "Surgery", specialty.Specialty)
	assert.Equal(t, 2, specialty.TotalAppointments)

	history, err := s.PatientHistory(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, history.Appointments, 3)

	agenda, err := s.DoctorAgenda(ctx, d.ID)
	require.NoError(t, err)
	assert.Empty(t, agenda.Appointments)

	assert.Len(t, s.ListAppointments(ctx, AppointmentFilter{Date: monday}), 2)
	assert.Len(t, s.ListAppointments(ctx, AppointmentFilter{Date: monday, Status: models.StatusCancelled}), 1)
}

func TestReminders(t *testing.T) {
	sched := newFakeScheduler()
	s := newTestService(t, WithReminders(sched, time.Hour))
	ctx := context.Background()
	p, d := seed(t, s)

	a, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "10:00", Reason: "x"})
	require.NoError(t, err)

	r, ok := sched.scheduled[a.ID]
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), r.NotifyAt)
	assert.Equal(t, "Gregory House", r.Doctor.Name)
	assert.Equal(t, "Ana Lopez", r.Patient.Name)

	b, err := s.BookAppointment(ctx, scheduling.Request{PatientID: p.ID, DoctorID: d.ID, Date: monday, Time: "11:00", Reason: "y"})
	require.NoError(t, err)
	_, err = s.CancelAppointment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, sched.cancelled)

	n, err := s.RestoreReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, sched.restored, 1)
	assert.Equal(t, a.ID, sched.restored[0].Appointment.ID)
}

func TestFailSoftRead(t *testing.T) {
	stores := memoryStores()
	stores.Doctors = storage.NewCollection[models.Doctor](storage.CollectionDoctors, brokenSource[models.Doctor]{}, nil)
	s := New(stores, nil)

	assert.Empty(t, s.ListDoctors(context.Background()))
	assert.False(t, s.TopDoctor(context.Background()).Found)
}

type brokenSource[T storage.Record] struct{}

func (brokenSource[T]) Load(ctx context.Context) ([]T, error) { return nil, stderrors.New("io error") }
func (brokenSource[T]) Store(ctx context.Context, records []T) error {
	return stderrors.New("io error")
}
