package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/internal/validation"
	"github.com/region23/medbook/pkg/errors"
	"github.com/region23/medbook/pkg/logger"
	"github.com/region23/medbook/pkg/metrics"
)

// DoctorInput - данные для регистрации врача
type DoctorInput struct {
	Name          string   `json:"name"`
	Specialty     string   `json:"specialty"`
	AvailableDays []string `json:"available_days"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
}

// DoctorAgenda - врач и его запланированные записи
type DoctorAgenda struct {
	Doctor       models.Doctor        `json:"doctor"`
	Appointments []models.Appointment `json:"appointments"`
}

// RegisterDoctor регистрирует врача. Пара (имя, специальность) уникальна.
func (s *Service) RegisterDoctor(ctx context.Context, in DoctorInput) (doctor models.Doctor, err error) {
	ctx, span := tracer.Start(ctx, "doctors.register")
	defer func() { finishSpan(span, err) }()

	days, err := validation.ValidateDoctor(in.Name, in.Specialty, in.StartTime, in.EndTime, in.AvailableDays)
	if err != nil {
		return models.Doctor{}, err
	}
	name := strings.TrimSpace(in.Name)
	specialty := strings.TrimSpace(in.Specialty)

	s.doctorsMu.Lock()
	defer s.doctorsMu.Unlock()

	doctors, err := s.stores.Doctors.ReadForUpdate(ctx)
	if err != nil {
		return models.Doctor{}, persistenceFailure(err)
	}
	for _, d := range doctors {
		if d.Name == name && d.Specialty == specialty {
			return models.Doctor{}, errors.ErrDoctorExists.WithContext(map[string]interface{}{
				"name":      name,
				"specialty": specialty,
			})
		}
	}

	doctor = models.Doctor{
		ID:            storage.NextID(storage.DoctorIDPrefix, doctors),
		Name:          name,
		Specialty:     specialty,
		AvailableDays: days,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
	}
	span.SetAttributes(attribute.String("doctor.id", doctor.ID))

	if err := s.stores.Doctors.Write(ctx, append(doctors, doctor)); err != nil {
		return models.Doctor{}, persistenceFailure(err)
	}

	metrics.RecordDoctorRegistration()
	s.logFor(ctx).Info("Doctor registered",
		logger.String("doctor_id", doctor.ID),
		logger.String("specialty", doctor.Specialty),
	)
	return doctor, nil
}

// ListDoctors возвращает всех врачей
func (s *Service) ListDoctors(ctx context.Context) []models.Doctor {
	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()

	return s.stores.Doctors.Read(ctx)
}

// GetDoctor возвращает врача по идентификатору
func (s *Service) GetDoctor(ctx context.Context, id string) (models.Doctor, error) {
	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()

	doctor, _, ok := storage.Find(s.stores.Doctors.Read(ctx), id)
	if !ok {
		return models.Doctor{}, errors.ErrDoctorNotFound.WithContext(map[string]interface{}{"doctor_id": id})
	}
	return doctor, nil
}

// DoctorsBySpecialty возвращает врачей специальности без учета регистра
func (s *Service) DoctorsBySpecialty(ctx context.Context, specialty string) []models.Doctor {
	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()

	specialty = strings.TrimSpace(specialty)
	found := []models.Doctor{}
	for _, d := range s.stores.Doctors.Read(ctx) {
		if strings.EqualFold(d.Specialty, specialty) {
			found = append(found, d)
		}
	}
	return found
}

// DoctorAgenda возвращает врача и его запланированные записи
func (s *Service) DoctorAgenda(ctx context.Context, doctorID string) (DoctorAgenda, error) {
	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	doctor, _, ok := storage.Find(s.stores.Doctors.Read(ctx), doctorID)
	if !ok {
		return DoctorAgenda{}, errors.ErrDoctorNotFound.WithContext(map[string]interface{}{"doctor_id": doctorID})
	}

	agenda := []models.Appointment{}
	for _, a := range s.stores.Appointments.Read(ctx) {
		if a.DoctorID == doctorID && a.IsScheduled() {
			agenda = append(agenda, a)
		}
	}
	return DoctorAgenda{Doctor: doctor, Appointments: agenda}, nil
}
