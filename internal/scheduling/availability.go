package scheduling

import (
	"time"

	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/pkg/errors"
)

// CheckSchedule проверяет день недели и рабочее окно врача.
// Окно полуоткрытое: начало приема входит, конец - нет.
func CheckSchedule(doctor models.Doctor, date, clock string) error {
	day, err := ParseDate(date, time.UTC)
	if err != nil {
		return errors.ErrInvalidDate.WithError(err)
	}
	at, err := ParseClock(clock)
	if err != nil {
		return errors.ErrInvalidTime.WithError(err)
	}

	weekday := WeekdayOf(day)
	if !doctor.WorksOn(weekday) {
		return errors.DoctorNotAvailableOnDay(weekday)
	}

	start, errStart := ParseClock(doctor.StartTime)
	end, errEnd := ParseClock(doctor.EndTime)
	if errStart != nil || errEnd != nil || at < start || at >= end {
		return errors.OutsideWorkingHours(doctor.StartTime, doctor.EndTime)
	}
	return nil
}

// IsWithinSchedule сообщает, принимает ли врач в указанные дату и время
func IsWithinSchedule(doctor models.Doctor, date, clock string) bool {
	return CheckSchedule(doctor, date, clock) == nil
}

// HasConflict сообщает, занят ли слот врача активной записью.
// Сравнение точное: дата и время совпадают строково.
func HasConflict(appointments []models.Appointment, doctorID, date, clock string) bool {
	for i := range appointments {
		a := &appointments[i]
		if a.DoctorID == doctorID && a.Date == date && a.Time == clock && a.IsActive() {
			return true
		}
	}
	return false
}
