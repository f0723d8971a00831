package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/region23/medbook/internal/middleware"
	"github.com/region23/medbook/pkg/logger"
)

// SecurityLogger логирует события безопасности
type SecurityLogger struct {
	log *logger.Logger
}

// NewSecurityLogger создает новый логгер безопасности
func NewSecurityLogger(log *logger.Logger) *SecurityLogger {
	return &SecurityLogger{log: log}
}

// LogSuspiciousActivity логирует подозрительную активность
func (sl *SecurityLogger) LogSuspiciousActivity(r *http.Request, activity string, details map[string]interface{}) {
	fields := []logger.Field{
		logger.String("activity", activity),
		logger.String("ip", middleware.RealIP(r)),
		logger.String("user_agent", r.UserAgent()),
		logger.String("path", r.URL.Path),
		logger.String("method", r.Method),
	}
	for key, value := range details {
		fields = append(fields, logger.Any(key, value))
	}

	sl.log.WithContext(r.Context()).Warn("Suspicious activity detected", fields...)
}

// LogValidationError логирует отклоненный по валидации запрос
func (sl *SecurityLogger) LogValidationError(r *http.Request, code, reason string) {
	sl.log.WithContext(r.Context()).Info("Validation error",
		logger.String("code", code),
		logger.String("reason", reason),
		logger.String("ip", middleware.RealIP(r)),
		logger.String("path", r.URL.Path),
	)
}

// LogSystemEvent логирует системное событие
func (sl *SecurityLogger) LogSystemEvent(event string, level string, details map[string]interface{}) {
	fields := []logger.Field{
		logger.String("event", event),
		logger.Int64("timestamp", time.Now().UTC().Unix()),
	}
	for key, value := range details {
		fields = append(fields, logger.Any(key, value))
	}

	switch strings.ToLower(level) {
	case "error":
		sl.log.Error("System event", fields...)
	case "warn", "warning":
		sl.log.Warn("System event", fields...)
	case "debug":
		sl.log.Debug("System event", fields...)
	default:
		sl.log.Info("System event", fields...)
	}
}
