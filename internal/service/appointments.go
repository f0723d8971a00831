package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/region23/medbook/internal/scheduling"
	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/internal/validation"
	"github.com/region23/medbook/pkg/errors"
	"github.com/region23/medbook/pkg/logger"
	"github.com/region23/medbook/pkg/metrics"
)

// AppointmentFilter - фильтр списка записей; пустые поля не фильтруют
type AppointmentFilter struct {
	Date   string
	Status models.Status
}

// BookAppointment проверяет запрос и сохраняет новую запись в статусе scheduled
func (s *Service) BookAppointment(ctx context.Context, req scheduling.Request) (appointment models.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "appointments.book")
	span.SetAttributes(
		attribute.String("patient.id", req.PatientID),
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("appointment.date", req.Date),
		attribute.String("appointment.time", req.Time),
	)
	defer func() {
		if err != nil {
			s.recordRejection(ctx, req, err)
		}
		finishSpan(span, err)
	}()

	if err := validation.ValidateBooking(req); err != nil {
		return models.Appointment{}, err
	}

	s.patientsMu.RLock()
	defer s.patientsMu.RUnlock()
	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()
	s.appointmentsMu.Lock()
	defer s.appointmentsMu.Unlock()

	patients, err := s.stores.Patients.ReadForUpdate(ctx)
	if err != nil {
		return models.Appointment{}, persistenceFailure(err)
	}
	doctors, err := s.stores.Doctors.ReadForUpdate(ctx)
	if err != nil {
		return models.Appointment{}, persistenceFailure(err)
	}
	appointments, err := s.stores.Appointments.ReadForUpdate(ctx)
	if err != nil {
		return models.Appointment{}, persistenceFailure(err)
	}

	now := s.now()
	checked, err := scheduling.Validate(req, patients, doctors, appointments, now)
	if err != nil {
		return models.Appointment{}, err
	}

	appointment = models.Appointment{
		ID:        storage.NextID(storage.AppointmentIDPrefix, appointments),
		PatientID: checked.Patient.ID,
		DoctorID:  checked.Doctor.ID,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    strings.TrimSpace(req.Reason),
		Status:    models.StatusScheduled,
		CreatedAt: now,
	}
	span.SetAttributes(attribute.String("appointment.id", appointment.ID))

	if err := s.stores.Appointments.Write(ctx, append(appointments, appointment)); err != nil {
		return models.Appointment{}, persistenceFailure(err)
	}

	metrics.RecordBooking()
	s.logFor(ctx).Info("Appointment booked",
		logger.String("appointment_id", appointment.ID),
		logger.String("doctor_id", appointment.DoctorID),
		logger.String("slot", appointment.GetFormattedDateTime()),
	)

	s.scheduleReminder(ctx, appointment, checked.Patient, checked.Doctor)
	return appointment, nil
}

// CancelAppointment переводит запись из scheduled в cancelled
func (s *Service) CancelAppointment(ctx context.Context, id string) (appointment models.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "appointments.cancel")
	span.SetAttributes(attribute.String("appointment.id", id))
	defer func() { finishSpan(span, err) }()

	s.appointmentsMu.Lock()
	defer s.appointmentsMu.Unlock()

	appointments, err := s.stores.Appointments.ReadForUpdate(ctx)
	if err != nil {
		return models.Appointment{}, persistenceFailure(err)
	}
	appointment, idx, ok := storage.Find(appointments, id)
	if !ok {
		return models.Appointment{}, errors.ErrAppointmentNotFound.WithContext(map[string]interface{}{"appointment_id": id})
	}

	if err := appointment.Cancel(s.now()); err != nil {
		return models.Appointment{}, errors.ErrAppointmentNotScheduled.WithError(err).WithContext(map[string]interface{}{
			"appointment_id": id,
			"status":         string(appointment.Status),
		})
	}

	updated := make([]models.Appointment, len(appointments))
	copy(updated, appointments)
	updated[idx] = appointment

	if err := s.stores.Appointments.Write(ctx, updated); err != nil {
		return models.Appointment{}, persistenceFailure(err)
	}

	metrics.RecordCancellation()
	s.logFor(ctx).Info("Appointment cancelled", logger.String("appointment_id", id))

	s.cancelReminder(ctx, id)
	return appointment, nil
}

// ListAppointments возвращает записи с учетом фильтра
func (s *Service) ListAppointments(ctx context.Context, filter AppointmentFilter) []models.Appointment {
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	appointments := s.stores.Appointments.Read(ctx)
	if filter.Date == "" && filter.Status == "" {
		return appointments
	}

	filtered := []models.Appointment{}
	for _, a := range appointments {
		if filter.Date != "" && a.Date != filter.Date {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

// GetAppointment возвращает запись по идентификатору
func (s *Service) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	appointment, _, ok := storage.Find(s.stores.Appointments.Read(ctx), id)
	if !ok {
		return models.Appointment{}, errors.ErrAppointmentNotFound.WithContext(map[string]interface{}{"appointment_id": id})
	}
	return appointment, nil
}

func (s *Service) recordRejection(ctx context.Context, req scheduling.Request, err error) {
	code := string(errors.KindInternal)
	if appErr, ok := errors.GetAppError(err); ok {
		code = appErr.Code
	}
	metrics.RecordRejection(code)

	fields := []logger.Field{
		logger.String("patient_id", req.PatientID),
		logger.String("doctor_id", req.DoctorID),
		logger.String("slot", req.Date+" "+req.Time),
		logger.String("reason", code),
	}
	if errors.KindOf(err) == errors.KindPersistenceFailure {
		s.logFor(ctx).Error("Validated appointment was not saved", append(fields, logger.Error(err))...)
		return
	}
	s.logFor(ctx).Info("Appointment rejected", fields...)
}
