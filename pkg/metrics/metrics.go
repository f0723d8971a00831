package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики сервиса записи к врачам
var (
	// Метрики записей
	AppointmentsBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medbook_appointments_booked_total",
			Help: "Общее количество созданных записей",
		},
	)

	AppointmentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbook_appointments_rejected_total",
			Help: "Количество отклоненных запросов на запись по причине",
		},
		[]string{"reason"},
	)

	AppointmentsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medbook_appointments_cancelled_total",
			Help: "Общее количество отмененных записей",
		},
	)

	// Метрики регистраций
	PatientRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medbook_patient_registrations_total",
			Help: "Общее количество зарегистрированных пациентов",
		},
	)

	DoctorRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medbook_doctor_registrations_total",
			Help: "Общее количество зарегистрированных врачей",
		},
	)

	// Метрики напоминаний
	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbook_reminders_sent_total",
			Help: "Общее количество отправленных напоминаний",
		},
		[]string{"status"},
	)

	PendingReminders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medbook_pending_reminders",
			Help: "Количество запланированных напоминаний",
		},
	)

	// Метрики хранилища
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbook_store_operations_total",
			Help: "Общее количество операций с хранилищем",
		},
		[]string{"operation", "collection", "status"},
	)

	// Метрики производительности
	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medbook_memory_usage_bytes",
			Help: "Использование памяти в байтах",
		},
	)

	GoroutinesCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medbook_goroutines_count",
			Help: "Количество активных горутин",
		},
	)

	// Метрики HTTP сервера
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbook_http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medbook_http_request_duration_seconds",
			Help:    "Время обработки HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordBooking записывает метрику успешной записи
func RecordBooking() {
	AppointmentsBooked.Inc()
}

// RecordRejection записывает метрику отклоненной записи
func RecordRejection(reason string) {
	AppointmentsRejected.WithLabelValues(reason).Inc()
}

// RecordCancellation записывает метрику отмены записи
func RecordCancellation() {
	AppointmentsCancelled.Inc()
}

// RecordPatientRegistration записывает метрику регистрации пациента
func RecordPatientRegistration() {
	PatientRegistrations.Inc()
}

// RecordDoctorRegistration записывает метрику регистрации врача
func RecordDoctorRegistration() {
	DoctorRegistrations.Inc()
}

// RecordReminder записывает метрику отправки напоминания
func RecordReminder(status string) {
	RemindersSent.WithLabelValues(status).Inc()
}

// RecordStoreOperation записывает метрику операции с хранилищем
func RecordStoreOperation(operation, collection, status string) {
	StoreOperations.WithLabelValues(operation, collection, status).Inc()
}

// RecordHTTPRequest записывает метрику HTTP запроса
func RecordHTTPRequest(method, route, status string) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// SetPendingReminders устанавливает количество запланированных напоминаний
func SetPendingReminders(count float64) {
	PendingReminders.Set(count)
}
