package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/region23/medbook/internal/config"
	"github.com/region23/medbook/internal/notify"
	"github.com/region23/medbook/internal/scheduler"
	"github.com/region23/medbook/internal/scheduler/memory"
	"github.com/region23/medbook/internal/server"
	"github.com/region23/medbook/internal/service"
	"github.com/region23/medbook/internal/storage/driver"
	"github.com/region23/medbook/pkg/logger"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(logger.ParseLevel(cfg.LogLevel))
	appLog.Info("Configuration loaded successfully",
		logger.String("driver", cfg.Database.Driver),
		logger.Bool("reminders", cfg.Reminders.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancelOpen := context.WithTimeout(ctx, 30*time.Second)
	stores, backend, err := driver.Open(openCtx, cfg.Database, appLog)
	cancelOpen()
	if err != nil {
		appLog.Fatal("Failed to initialize storage", logger.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			appLog.Error("Error closing storage", logger.Error(err))
		}
	}()
	appLog.Info("Storage initialized successfully")

	var opts []service.Option
	var reminders *memory.MemoryScheduler
	if cfg.Reminders.Enabled {
		sender, err := newSender(cfg.Telegram, appLog)
		if err != nil {
			appLog.Fatal("Failed to create reminder sender", logger.Error(err))
		}
		reminders = memory.NewMemoryScheduler(sender, appLog)
		if err := reminders.Start(ctx); err != nil {
			appLog.Fatal("Failed to start reminder scheduler", logger.Error(err))
		}
		opts = append(opts, service.WithReminders(reminders, cfg.Reminders.Lead()))
	}

	svc := service.New(stores, appLog, opts...)

	if reminders != nil {
		restored, err := svc.RestoreReminders(ctx)
		if err != nil {
			appLog.Error("Failed to restore pending reminders", logger.Error(err))
		} else {
			appLog.Info("Pending reminders restored", logger.Int("count", restored))
		}
	}

	srv := server.New(cfg, svc, backend, appLog)
	if err := srv.Start(ctx); err != nil {
		appLog.Error("Server error", logger.Error(err))
	}

	if reminders != nil {
		if err := reminders.Stop(); err != nil {
			appLog.Error("Error stopping reminder scheduler", logger.Error(err))
		}
	}
	appLog.Info("Server stopped gracefully")
}

// newSender выбирает канал доставки напоминаний: Telegram, если задан токен, иначе журнал
func newSender(cfg config.TelegramConfig, log *logger.Logger) (scheduler.ReminderSender, error) {
	if !cfg.Enabled() {
		log.Warn("TELEGRAM_TOKEN is not set, reminders will be written to the log")
		return notify.NewLogSender(log), nil
	}
	return notify.NewTelegramSender(cfg.Token, cfg.ChatID)
}
