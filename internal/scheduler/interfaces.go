package scheduler

import (
	"context"
	"time"

	"github.com/region23/medbook/internal/storage/models"
)

// Reminder - напоминание о записи к врачу
type Reminder struct {
	Appointment models.Appointment
	Patient     models.Patient
	Doctor      models.Doctor
	NotifyAt    time.Time
}

// ReminderScheduler определяет интерфейс для планирования напоминаний
type ReminderScheduler interface {
	// Schedule планирует напоминание; повторный вызов для той же записи заменяет таймер
	Schedule(ctx context.Context, reminder Reminder) error

	// Cancel отменяет запланированное напоминание
	Cancel(ctx context.Context, appointmentID string) error

	// ReschedulePending заменяет все таймеры переданным набором напоминаний
	ReschedulePending(ctx context.Context, reminders []Reminder) error

	// Start запускает планировщик
	Start(ctx context.Context) error

	// Stop останавливает планировщик
	Stop() error
}

// ReminderSender определяет интерфейс для отправки напоминаний
type ReminderSender interface {
	// SendReminder отправляет напоминание о записи
	SendReminder(ctx context.Context, reminder Reminder) error
}
