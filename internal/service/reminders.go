package service

import (
	"context"

	"github.com/region23/medbook/internal/scheduler"
	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/pkg/logger"
)

// scheduleReminder планирует напоминание; ошибка не отменяет уже сохраненную запись
func (s *Service) scheduleReminder(ctx context.Context, a models.Appointment, patient models.Patient, doctor models.Doctor) {
	if s.reminders == nil {
		return
	}
	reminder, ok := s.reminderFor(a, patient, doctor)
	if !ok {
		return
	}
	if err := s.reminders.Schedule(ctx, reminder); err != nil {
		s.logFor(ctx).Warn("Failed to schedule reminder",
			logger.String("appointment_id", a.ID),
			logger.Error(err),
		)
	}
}

func (s *Service) cancelReminder(ctx context.Context, appointmentID string) {
	if s.reminders == nil {
		return
	}
	if err := s.reminders.Cancel(ctx, appointmentID); err != nil {
		s.logFor(ctx).Warn("Failed to cancel reminder",
			logger.String("appointment_id", appointmentID),
			logger.Error(err),
		)
	}
}

// reminderFor строит напоминание для записи, которая еще не началась
func (s *Service) reminderFor(a models.Appointment, patient models.Patient, doctor models.Doctor) (scheduler.Reminder, bool) {
	now := s.now()
	starts, err := a.StartsAt(now.Location())
	if err != nil || !starts.After(now) {
		return scheduler.Reminder{}, false
	}
	return scheduler.Reminder{
		Appointment: a,
		Patient:     patient,
		Doctor:      doctor,
		NotifyAt:    starts.Add(-s.reminderLead),
	}, true
}

// RestoreReminders заново планирует напоминания для всех будущих записей в статусе scheduled
func (s *Service) RestoreReminders(ctx context.Context) (int, error) {
	if s.reminders == nil {
		return 0, nil
	}

	s.patientsMu.RLock()
	defer s.patientsMu.RUnlock()
	s.doctorsMu.RLock()
	defer s.doctorsMu.RUnlock()
	s.appointmentsMu.RLock()
	defer s.appointmentsMu.RUnlock()

	patients := s.stores.Patients.Read(ctx)
	doctors := s.stores.Doctors.Read(ctx)

	var pending []scheduler.Reminder
	for _, a := range s.stores.Appointments.Read(ctx) {
		if !a.IsScheduled() {
			continue
		}
		patient, _, _ := storage.Find(patients, a.PatientID)
		doctor, _, _ := storage.Find(doctors, a.DoctorID)
		if reminder, ok := s.reminderFor(a, patient, doctor); ok {
			pending = append(pending, reminder)
		}
	}

	if err := s.reminders.ReschedulePending(ctx, pending); err != nil {
		return 0, err
	}
	s.log.Info("Reminders restored", logger.Int("count", len(pending)))
	return len(pending), nil
}
