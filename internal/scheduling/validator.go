package scheduling

import (
	"time"

	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/pkg/errors"
)

// Request - запрос на запись к врачу
type Request struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
}

// Validated содержит найденные при проверке пациента и врача
type Validated struct {
	Patient models.Patient
	Doctor  models.Doctor
}

// Validate проверяет запрос на запись. Проверки выполняются по порядку,
// первая неудачная определяет причину отказа:
// пациент, врач, прошедшая дата, расписание врача, занятость слота.
func Validate(req Request, patients []models.Patient, doctors []models.Doctor, appointments []models.Appointment, now time.Time) (Validated, error) {
	patient, _, ok := storage.Find(patients, req.PatientID)
	if !ok {
		return Validated{}, errors.ErrPatientNotFound.WithContext(map[string]interface{}{"patient_id": req.PatientID})
	}

	doctor, _, ok := storage.Find(doctors, req.DoctorID)
	if !ok {
		return Validated{}, errors.ErrDoctorNotFound.WithContext(map[string]interface{}{"doctor_id": req.DoctorID})
	}

	day, err := ParseDate(req.Date, now.Location())
	if err != nil {
		return Validated{}, errors.ErrInvalidDate.WithError(err).WithContext(map[string]interface{}{"date": req.Date})
	}
	// Сравниваются только календарные дни: сегодняшняя дата допустима
	if day.Before(startOfDay(now)) {
		return Validated{}, errors.ErrPastDate.WithContext(map[string]interface{}{"date": req.Date})
	}

	if err := CheckSchedule(doctor, req.Date, req.Time); err != nil {
		return Validated{}, err
	}

	if HasConflict(appointments, doctor.ID, req.Date, req.Time) {
		return Validated{}, errors.ErrSlotAlreadyBooked.WithContext(map[string]interface{}{
			"doctor_id": doctor.ID,
			"date":      req.Date,
			"time":      req.Time,
		})
	}

	return Validated{Patient: patient, Doctor: doctor}, nil
}
