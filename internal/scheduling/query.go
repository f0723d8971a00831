package scheduling

import (
	"sort"
	"time"

	"github.com/region23/medbook/internal/storage/models"
)

// UpcomingWindow - горизонт выборки ближайших записей
const UpcomingWindow = 24 * time.Hour

// FindAvailable возвращает врачей, свободных в указанные дату и время.
// Порядок врачей сохраняется.
func FindAvailable(date, clock string, doctors []models.Doctor, appointments []models.Appointment) []models.Doctor {
	available := []models.Doctor{}
	for _, d := range doctors {
		if IsWithinSchedule(d, date, clock) && !HasConflict(appointments, d.ID, date, clock) {
			available = append(available, d)
		}
	}
	return available
}

// Upcoming возвращает запланированные записи с началом в (now, now+24h]
func Upcoming(appointments []models.Appointment, now time.Time) []models.Appointment {
	until := now.Add(UpcomingWindow)
	upcoming := []models.Appointment{}
	for _, a := range appointments {
		if !a.IsScheduled() {
			continue
		}
		starts, err := a.StartsAt(now.Location())
		if err != nil {
			continue
		}
		if starts.After(now) && !starts.After(until) {
			upcoming = append(upcoming, a)
		}
	}
	return upcoming
}

// DoctorStat - врач с наибольшим числом активных записей
type DoctorStat struct {
	Found             bool   `json:"-"`
	DoctorID          string `json:"doctor_id,omitempty"`
	Doctor            string `json:"doctor,omitempty"`
	Specialty         string `json:"specialty,omitempty"`
	TotalAppointments int    `json:"total_appointments"`
}

// TopDoctor находит врача с максимумом активных записей.
// При равенстве побеждает врач, стоящий раньше в коллекции.
// Пустой список врачей дает результат с Found = false.
func TopDoctor(doctors []models.Doctor, appointments []models.Appointment) DoctorStat {
	if len(doctors) == 0 {
		return DoctorStat{}
	}

	counts := make(map[string]int, len(doctors))
	for i := range appointments {
		if appointments[i].IsActive() {
			counts[appointments[i].DoctorID]++
		}
	}

	stats := make([]DoctorStat, 0, len(doctors))
	for _, d := range doctors {
		stats = append(stats, DoctorStat{
			Found:             true,
			DoctorID:          d.ID,
			Doctor:            d.Name,
			Specialty:         d.Specialty,
			TotalAppointments: counts[d.ID],
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalAppointments > stats[j].TotalAppointments
	})
	return stats[0]
}

// SpecialtyStat - самая востребованная специальность
type SpecialtyStat struct {
	Specialty         string `json:"specialty"`
	TotalAppointments int    `json:"total_appointments"`
}

// TopSpecialty считает активные записи по специальностям врачей.
// При равенстве побеждает специальность, встреченная первой.
// Записи с неизвестным врачом пропускаются.
func TopSpecialty(doctors []models.Doctor, appointments []models.Appointment) SpecialtyStat {
	specialtyOf := make(map[string]string, len(doctors))
	for _, d := range doctors {
		if _, ok := specialtyOf[d.ID]; !ok {
			specialtyOf[d.ID] = d.Specialty
		}
	}

	var order []string
	counts := make(map[string]int)
	for i := range appointments {
		a := &appointments[i]
		if !a.IsActive() {
			continue
		}
		specialty, ok := specialtyOf[a.DoctorID]
		if !ok {
			continue
		}
		if _, seen := counts[specialty]; !seen {
			order = append(order, specialty)
		}
		counts[specialty]++
	}

	var top SpecialtyStat
	for _, specialty := range order {
		if counts[specialty] > top.TotalAppointments {
			top = SpecialtyStat{Specialty: specialty, TotalAppointments: counts[specialty]}
		}
	}
	return top
}
