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

// PatientInput - данные для регистрации пациента
type PatientInput struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// PatientPatch - частичное обновление пациента; nil поля не меняются
type PatientPatch struct {
	Name  *string `json:"name"`
	Age   *int    `json:"age"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

// PatientHistory - пациент и все его записи
type PatientHistory struct {
	Patient      models.Patient       `json:"patient"`
	Appointments []models.Appointment `json:"appointments"`
}

// RegisterPatient регистрирует пациента
func (s *Service) RegisterPatient(ctx context.Context, in PatientInput) (patient models.Patient, err error) {
	ctx, span := tracer.Start(ctx, "patients.register")
	defer func() { finishSpan(span, err) }()

	if err := validation.ValidatePatient(in.Name, in.Age, in.Phone, in.Email); err != nil {
		return models.Patient{}, err
	}

	s.patientsMu.Lock()
	defer s.patientsMu.Unlock()

	patients, err := s.stores.Patients.ReadForUpdate(ctx)
	if err != nil {
		return models.Patient{}, persistenceFailure(err)
	}
	if emailTaken(patients, in.Email, "") {
		return models.Patient{}, errors.ErrEmailTaken.WithContext(map[string]interface{}{"email": in.Email})
	}

	patient = models.Patient{
		ID:             storage.NextID(storage.PatientIDPrefix, patients),
		Name:           strings.TrimSpace(in.Name),
		Age:            in.Age,
		Phone:          strings.TrimSpace(in.Phone),
		Email:          strings.TrimSpace(in.Email),
		RegisteredDate: s.now().Format(models.DateLayout),
	}
	span.SetAttributes(attribute.String("patient.id", patient.ID))

	if err := s.stores.Patients.Write(ctx, append(patients, patient)); err != nil {
		return models.Patient{}, persistenceFailure(err)
	}

	metrics.RecordPatientRegistration()
	s.logFor(ctx).Info("Patient registered", logger.String("patient_id", patient.ID))
	return patient, nil
}

// ListPatients возвращает всех пациентов
func (s *Service) ListPatients(ctx context.Context) []models.Patient {
	s.patientsMu.RLock()
	defer s.patientsMu.RUnlock()

	return s.stores.Patients.Read(ctx)
}

// GetPatient возвращает пациента по идентификатору
func (s *Service) GetPatient(ctx context.Context, id string) (models.Patient, error) {
	s.patientsMu.RLock()
	defer s.patientsMu.RUnlock()

	patient, _, ok := storage.Find(s.stores.Patients.Read(ctx), id)
	if !ok {
		return models.Patient{}, errors.ErrPatientNotFound.WithContext(map[string]interface{}{"patient_id": id})
	}
	return patient, nil
}

// UpdatePatient применяет частичное обновление.
// Идентификатор и дата регистрации не меняются.
func (s *Service) UpdatePatient(ctx context.Context, id string, patch PatientPatch) (patient models.Patient, err error) {
	ctx, span := tracer.Start(ctx, "patients.update")
	span.SetAttributes(attribute.String("patient.id", id))
	defer func() { finishSpan(span, err) }()

	s.patientsMu.Lock()
	defer s.patientsMu.Unlock()

	patients, err := s.stores.Patients.ReadForUpdate(ctx)
	if err != nil {
		return models.Patient{}, persistenceFailure(err)
	}
	patient, idx, ok := storage.Find(patients, id)
	if !ok {
		return models.Patient{}, errors.ErrPatientNotFound.WithContext(map[string]interface{}{"patient_id": id})
	}

	if patch.Name != nil {
		patient.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Age != nil {
		patient.Age = *patch.Age
	}
	if patch.Phone != nil {
		patient.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Email != nil {
		patient.Email = strings.TrimSpace(*patch.Email)
	}

	if err := validation.ValidatePatient(patient.Name, patient.Age, patient.Phone, patient.Email); err != nil {
		return models.Patient{}, err
	}
	if emailTaken(patients, patient.Email, patient.ID) {
		return models.Patient{}, errors.ErrEmailTaken.WithContext(map[string]interface{}{"email": patient.Email})
	}

	updated := make([]models.Patient, len(patients))
	copy(updated, patients)
	updated[idx] = patient

	if err := s.stores.Patients.Write(ctx, updated); err != nil {
		return models.Patient{}, persistenceFailure(err)
	}

	s.logFor(ctx).Info("Patient updated", logger.String("patient_id", id))
	return patient, nil
}

// PatientHistory возвращает пациента и все его записи в любом статусе
func (s *Service) PatientHistory(ctx context.Context, id string) (PatientHistory, error) {
	s.patientsMu.RLock()
	defer s.patientsMu.RUnlock()
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	patient, _, ok := storage.Find(s.stores.Patients.Read(ctx), id)
	if !ok {
		return PatientHistory{}, errors.ErrPatientNotFound.WithContext(map[string]interface{}{"patient_id": id})
	}

	history := []models.Appointment{}
	for _, a := range s.stores.Appointments.Read(ctx) {
		if a.PatientID == id {
			history = append(history, a)
		}
	}
	return PatientHistory{Patient: patient, Appointments: history}, nil
}

// emailTaken проверяет уникальность email без учета регистра, пропуская запись exceptID
func emailTaken(patients []models.Patient, email, exceptID string) bool {
	for _, p := range patients {
		if p.ID != exceptID && strings.EqualFold(p.Email, email) {
			return true
		}
	}
	return false
}
