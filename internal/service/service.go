package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/region23/medbook/internal/scheduler"
	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/pkg/errors"
	"github.com/region23/medbook/pkg/logger"
)

var tracer = otel.Tracer("medbook.internal.service")

// Service реализует операции записи к врачам поверх хранилища.
// Запись в коллекцию выполняется под ее мьютексом на всем отрезке
// чтение-проверка-запись. Мьютексы берутся в порядке patients, doctors, appointments.
type Service struct {
	stores *storage.Stores
	log    *logger.Logger

	patientsMu     sync.RWMutex
	doctorsMu      sync.RWMutex
	appointmentsMu sync.RWMutex

	reminders    scheduler.ReminderScheduler
	reminderLead time.Duration

	now func() time.Time
}

// Option настраивает Service
type Option func(*Service)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithReminders включает напоминания за lead до начала приема
func WithReminders(sched scheduler.ReminderScheduler, lead time.Duration) Option {
	return func(s *Service) {
		s.reminders = sched
		s.reminderLead = lead
	}
}

// New создает сервис
func New(stores *storage.Stores, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		stores: stores,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) logFor(ctx context.Context) *logger.FieldLogger {
	return s.log.WithContext(ctx).With(logger.String("component", "service"))
}

// persistenceFailure отличает непринятое изменение от отказа валидации
func persistenceFailure(err error) error {
	return errors.ErrPersistence.WithError(err)
}

// finishSpan помечает спан ошибкой, если она есть
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
