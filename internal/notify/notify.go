package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/region23/medbook/internal/scheduler"
	"github.com/region23/medbook/pkg/logger"
)

// FormatReminder возвращает текст напоминания
func FormatReminder(r scheduler.Reminder) string {
	a := r.Appointment
	text := fmt.Sprintf("Reminder: appointment %s on %s", a.ID, a.GetFormattedDateTime())
	if r.Doctor.Name != "" {
		text += fmt.Sprintf(" with %s (%s)", r.Doctor.Name, r.Doctor.Specialty)
	}
	if r.Patient.Name != "" {
		text += fmt.Sprintf(" for %s", r.Patient.Name)
	}
	if a.Reason != "" {
		text += fmt.Sprintf(". Reason: %s", a.Reason)
	}
	return text
}

// TelegramSender отправляет напоминания в чат Telegram
type TelegramSender struct {
	bot    *bot.Bot
	chatID int64
}

// NewTelegramSender создает отправителя поверх Telegram Bot API
func NewTelegramSender(token string, chatID int64, opts ...bot.Option) (*TelegramSender, error) {
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramSender{bot: b, chatID: chatID}, nil
}

// SendReminder отправляет напоминание о записи
func (s *TelegramSender) SendReminder(ctx context.Context, reminder scheduler.Reminder) error {
	params := &bot.SendMessageParams{
		ChatID: s.chatID,
		Text:   FormatReminder(reminder),
	}
	if _, err := s.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("telegram: send reminder %s: %w", reminder.Appointment.ID, err)
	}
	return nil
}

// LogSender пишет напоминания в лог, когда Telegram не настроен
type LogSender struct {
	log *logger.FieldLogger
}

// NewLogSender создает отправителя в лог
func NewLogSender(log *logger.Logger) *LogSender {
	if log == nil {
		log = logger.Discard()
	}
	return &LogSender{log: log.WithFields(logger.String("component", "reminders"))}
}

// SendReminder пишет напоминание в лог
func (s *LogSender) SendReminder(ctx context.Context, reminder scheduler.Reminder) error {
	s.log.Info(FormatReminder(reminder),
		logger.String("appointment_id", reminder.Appointment.ID),
		logger.String("patient_id", reminder.Appointment.PatientID),
	)
	return nil
}
