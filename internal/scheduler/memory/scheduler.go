package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/region23/medbook/internal/scheduler"
	"github.com/region23/medbook/pkg/logger"
	"github.com/region23/medbook/pkg/metrics"
)

type entry struct {
	timer    *time.Timer
	reminder scheduler.Reminder
}

// MemoryScheduler реализует планировщик напоминаний в памяти, один таймер на запись
type MemoryScheduler struct {
	timers   map[string]*entry
	mu       sync.Mutex
	sender   scheduler.ReminderSender
	log      *logger.FieldLogger
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemoryScheduler создает новый планировщик в памяти
func NewMemoryScheduler(sender scheduler.ReminderSender, log *logger.Logger) *MemoryScheduler {
	if log == nil {
		log = logger.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &MemoryScheduler{
		timers: make(map[string]*entry),
		sender: sender,
		log:    log.WithFields(logger.String("component", "scheduler")),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start запускает планировщик
func (s *MemoryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}
	s.log.Info("Reminder scheduler started", logger.Int("pending", len(s.timers)))
	return nil
}

// Schedule планирует напоминание о записи
func (s *MemoryScheduler) Schedule(ctx context.Context, reminder scheduler.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}

	s.scheduleLocked(reminder)
	s.updateGaugeLocked()
	return nil
}

// scheduleLocked заменяет таймер записи; вызывается под s.mu
func (s *MemoryScheduler) scheduleLocked(reminder scheduler.Reminder) {
	id := reminder.Appointment.ID
	if old, exists := s.timers[id]; exists {
		old.timer.Stop()
		delete(s.timers, id)
	}

	e := &entry{reminder: reminder}
	// Время уже прошло - таймер с нулевой задержкой срабатывает сразу
	delay := time.Until(reminder.NotifyAt)
	if delay < 0 {
		delay = 0
	}
	e.timer = time.AfterFunc(delay, func() {
		s.handleReminder(e)
	})
	s.timers[id] = e

	s.log.Debug("Reminder scheduled",
		logger.String("appointment_id", id),
		logger.Time("notify_at", reminder.NotifyAt),
	)
}

// Cancel отменяет запланированное напоминание
func (s *MemoryScheduler) Cancel(ctx context.Context, appointmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.timers[appointmentID]; exists {
		e.timer.Stop()
		delete(s.timers, appointmentID)
		s.log.Debug("Reminder cancelled", logger.String("appointment_id", appointmentID))
	}
	s.updateGaugeLocked()
	return nil
}

// ReschedulePending заменяет все таймеры переданными напоминаниями
func (s *MemoryScheduler) ReschedulePending(ctx context.Context, reminders []scheduler.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}

	for id, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, id)
	}
	for _, r := range reminders {
		s.scheduleLocked(r)
	}
	s.updateGaugeLocked()

	s.log.Info("Pending reminders rescheduled", logger.Int("count", len(reminders)))
	return nil
}

// Stop останавливает планировщик и ждет отправляемые напоминания
func (s *MemoryScheduler) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		for id, e := range s.timers {
			e.timer.Stop()
			delete(s.timers, id)
		}
		s.updateGaugeLocked()
		s.mu.Unlock()

		s.cancel()
		s.wg.Wait()
		s.log.Info("Reminder scheduler stopped")
	})
	return nil
}

// handleReminder отправляет напоминание, если таймер не был заменен или отменен
func (s *MemoryScheduler) handleReminder(e *entry) {
	id := e.reminder.Appointment.ID

	s.mu.Lock()
	if s.stopped || s.timers[id] != e {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.updateGaugeLocked()
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if err := s.sender.SendReminder(s.ctx, e.reminder); err != nil {
		metrics.RecordReminder("error")
		s.log.Error("Failed to send reminder",
			logger.String("appointment_id", id),
			logger.Error(err),
		)
		return
	}
	metrics.RecordReminder("sent")
	s.log.Info("Reminder sent", logger.String("appointment_id", id))
}

func (s *MemoryScheduler) updateGaugeLocked() {
	metrics.SetPendingReminders(float64(len(s.timers)))
}

// GetActiveTimersCount возвращает количество активных таймеров
func (s *MemoryScheduler) GetActiveTimersCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}
