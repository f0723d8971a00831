package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Форматы даты и времени, принятые во всех коллекциях
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Patient представляет пациента клиники
type Patient struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	RegisteredDate string `json:"registered_date"`
}

// RecordID возвращает идентификатор записи
func (p Patient) RecordID() string { return p.ID }

// Doctor представляет врача и его рабочее расписание
type Doctor struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Specialty     string   `json:"specialty"`
	AvailableDays []string `json:"available_days"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
}

// RecordID возвращает идентификатор записи
func (d Doctor) RecordID() string { return d.ID }

// WorksOn проверяет, входит ли день недели в рабочие дни врача
func (d Doctor) WorksOn(day string) bool {
	for _, available := range d.AvailableDays {
		if available == day {
			return true
		}
	}
	return false
}

// Status описывает состояние записи на прием
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

// Valid проверяет, что статус входит в перечисление
func (s Status) Valid() bool {
	return s == StatusScheduled || s == StatusCancelled
}

// UnmarshalJSON отклоняет неизвестные статусы
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st := Status(raw)
	if !st.Valid() {
		return fmt.Errorf("unknown appointment status %q", raw)
	}
	*s = st
	return nil
}

// ParseStatus разбирает статус из строки запроса
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.Valid()
}

// Appointment представляет запись пациента к врачу
type Appointment struct {
	ID          string     `json:"id"`
	PatientID   string     `json:"patient_id"`
	DoctorID    string     `json:"doctor_id"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Reason      string     `json:"reason"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// RecordID возвращает идентификатор записи
func (a Appointment) RecordID() string { return a.ID }

// IsActive проверяет, занимает ли запись слот врача
func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}

// IsScheduled проверяет, что запись в статусе scheduled
func (a *Appointment) IsScheduled() bool {
	return a.Status == StatusScheduled
}

// Cancel выполняет единственный допустимый переход scheduled -> cancelled
func (a *Appointment) Cancel(at time.Time) error {
	if a.Status != StatusScheduled {
		return fmt.Errorf("appointment %s is %s, not %s", a.ID, a.Status, StatusScheduled)
	}
	a.Status = StatusCancelled
	a.CancelledAt = &at
	return nil
}

// StartsAt возвращает момент начала записи в указанной зоне
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
}

// GetFormattedDateTime возвращает отформатированные дату и время
func (a *Appointment) GetFormattedDateTime() string {
	return a.Date + " " + a.Time
}
