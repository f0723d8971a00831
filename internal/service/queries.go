package service

import (
	"context"

	"github.com/region23/medbook/internal/scheduling"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/internal/validation"
)

// AvailableDoctors возвращает врачей, свободных в указанные дату и время
func (s *Service) AvailableDoctors(ctx context.Context, date, clock string) ([]models.Doctor, error) {
	if err := validation.ValidateDate(date); err != nil {
		return nil, err
	}
	if err := validation.ValidateTime(clock); err != nil {
		return nil, err
	}

	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	return scheduling.FindAvailable(date, clock, s.stores.Doctors.Read(ctx), s.stores.Appointments.Read(ctx)), nil
}

// UpcomingAppointments возвращает запланированные записи на ближайшие 24 часа
func (s *Service) UpcomingAppointments(ctx context.Context) []models.Appointment {
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	return scheduling.Upcoming(s.stores.Appointments.Read(ctx), s.now())
}

// TopDoctor возвращает врача с наибольшим числом активных записей
func (s *Service) TopDoctor(ctx context.Context) scheduling.DoctorStat {
	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	return scheduling.TopDoctor(s.stores.Doctors.Read(ctx), s.stores.Appointments.Read(ctx))
}

// TopSpecialty возвращает самую востребованную специальность
func (s *Service) TopSpecialty(ctx context.Context) scheduling.SpecialtyStat {
	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	return scheduling.TopSpecialty(s.stores.Doctors.Read(ctx), s.stores.Appointments.Read(ctx))
}
