package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/region23/medbook/internal/scheduling"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/pkg/errors"
)

// Регулярные выражения для валидации
var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{4,19}$`)
	dateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRegex  = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Required проверяет, что строковое поле не пустое
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.InvalidField(field, "is required")
	}
	return nil
}

// ValidateEmail валидирует адрес электронной почты
func ValidateEmail(email string) error {
	if err := Required("email", email); err != nil {
		return err
	}
	if !emailRegex.MatchString(email) {
		return errors.InvalidField("email", "invalid email format")
	}
	return nil
}

// ValidatePhoneNumber валидирует номер телефона
func ValidatePhoneNumber(phone string) error {
	if err := Required("phone", phone); err != nil {
		return err
	}
	if !phoneRegex.MatchString(phone) {
		return errors.InvalidField("phone", "invalid phone number")
	}
	return nil
}

// ValidateAge проверяет, что возраст положительный
func ValidateAge(age int) error {
	if age <= 0 {
		return errors.InvalidField("age", "must be greater than 0")
	}
	return nil
}

// ValidateDate валидирует дату в формате YYYY-MM-DD
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return errors.ErrInvalidDate.WithContext(map[string]interface{}{"reason": "date is required"})
	}
	if !dateRegex.MatchString(dateStr) {
		return errors.ErrInvalidDate.WithContext(map[string]interface{}{"date": dateStr})
	}
	if _, err := time.Parse(models.DateLayout, dateStr); err != nil {
		return errors.ErrInvalidDate.WithError(err).WithContext(map[string]interface{}{"date": dateStr})
	}
	return nil
}

// ValidateTime валидирует время в формате HH:MM
func ValidateTime(timeStr string) error {
	if timeStr == "" {
		return errors.ErrInvalidTime.WithContext(map[string]interface{}{"reason": "time is required"})
	}
	if !timeRegex.MatchString(timeStr) {
		return errors.ErrInvalidTime.WithContext(map[string]interface{}{"time": timeStr})
	}
	if _, err := time.Parse(models.TimeLayout, timeStr); err != nil {
		return errors.ErrInvalidTime.WithError(err).WithContext(map[string]interface{}{"time": timeStr})
	}
	return nil
}

// ValidateWorkingHours проверяет, что начало приема раньше окончания
func ValidateWorkingHours(startTime, endTime string) error {
	if err := ValidateTime(startTime); err != nil {
		return err
	}
	if err := ValidateTime(endTime); err != nil {
		return err
	}

	start, _ := scheduling.ParseClock(startTime)
	end, _ := scheduling.ParseClock(endTime)
	if start >= end {
		return errors.InvalidField("start_time", "must be earlier than end_time").WithContext(map[string]interface{}{
			"start_time": startTime,
			"end_time":   endTime,
		})
	}
	return nil
}

// NormalizeDays приводит дни недели к каноническим названиям и убирает повторы.
// Порядок первого появления сохраняется.
func NormalizeDays(days []string) ([]string, error) {
	if len(days) == 0 {
		return nil, errors.InvalidField("available_days", "at least one day is required")
	}

	seen := make(map[string]bool, len(days))
	normalized := make([]string, 0, len(days))
	for _, raw := range days {
		day, ok := scheduling.NormalizeWeekday(raw)
		if !ok {
			return nil, errors.InvalidField("available_days", "unknown weekday "+raw)
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		normalized = append(normalized, day)
	}
	return normalized, nil
}

// ValidatePatient проверяет поля пациента
func ValidatePatient(name string, age int, phone, email string) error {
	if err := Required("name", name); err != nil {
		return err
	}
	if err := ValidateAge(age); err != nil {
		return err
	}
	if err := ValidatePhoneNumber(phone); err != nil {
		return err
	}
	return ValidateEmail(email)
}

// ValidateDoctor проверяет поля врача и возвращает нормализованные дни приема
func ValidateDoctor(name, specialty, startTime, endTime string, days []string) ([]string, error) {
	if err := Required("name", name); err != nil {
		return nil, err
	}
	if err := Required("specialty", specialty); err != nil {
		return nil, err
	}
	if err := ValidateWorkingHours(startTime, endTime); err != nil {
		return nil, err
	}
	return NormalizeDays(days)
}

// ValidateBooking проверяет поля запроса на запись до правил расписания
func ValidateBooking(req scheduling.Request) error {
	if err := Required("patient_id", req.PatientID); err != nil {
		return err
	}
	if err := Required("doctor_id", req.DoctorID); err != nil {
		return err
	}
	if err := ValidateDate(req.Date); err != nil {
		return err
	}
	if err := ValidateTime(req.Time); err != nil {
		return err
	}
	return Required("reason", req.Reason)
}
