package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/pkg/logger"
	"github.com/region23/medbook/pkg/metrics"
)

// Имена коллекций
const (
	CollectionPatients     = "patients"
	CollectionDoctors      = "doctors"
	CollectionAppointments = "appointments"
)

// Префиксы идентификаторов
const (
	PatientIDPrefix     = "P"
	DoctorIDPrefix      = "D"
	AppointmentIDPrefix = "C"
)

// Record - элемент коллекции с идентификатором
type Record interface {
	RecordID() string
}

// Source определяет контракт бэкенда хранения одной коллекции.
// Load возвращает всю коллекцию в порядке хранения, Store атомарно заменяет ее целиком.
type Source[T Record] interface {
	Load(ctx context.Context) ([]T, error)
	Store(ctx context.Context, records []T) error
}

// RecordStore - контракт хранилища, с которым работает сервис
type RecordStore[T Record] interface {
	// Read возвращает текущую коллекцию; при ошибке ввода-вывода - пустую
	Read(ctx context.Context) []T

	// ReadForUpdate возвращает коллекцию перед записью; ошибка чтения не маскируется
	ReadForUpdate(ctx context.Context) ([]T, error)

	// Write заменяет коллекцию целиком; ошибка возвращается вызывающему
	Write(ctx context.Context, records []T) error
}

// Backend объединяет служебные операции бэкенда
type Backend interface {
	Ping(ctx context.Context) error
	Close() error
}

// Stores объединяет три коллекции приложения
type Stores struct {
	Patients     RecordStore[models.Patient]
	Doctors      RecordStore[models.Doctor]
	Appointments RecordStore[models.Appointment]
}

// Collection оборачивает Source: чтение без ошибок (fail-soft), запись с ошибкой
type Collection[T Record] struct {
	name   string
	source Source[T]
	log    *logger.FieldLogger
}

// NewCollection создает коллекцию поверх бэкенда
func NewCollection[T Record](name string, source Source[T], log *logger.Logger) *Collection[T] {
	if log == nil {
		log = logger.Discard()
	}
	return &Collection[T]{
		name:   name,
		source: source,
		log:    log.WithFields(logger.String("collection", name)),
	}
}

// Name возвращает имя коллекции
func (c *Collection[T]) Name() string {
	return c.name
}

// Read возвращает всю коллекцию. Ошибка чтения логируется и превращается в пустой результат.
func (c *Collection[T]) Read(ctx context.Context) []T {
	records, err := c.source.Load(ctx)
	if err != nil {
		metrics.RecordStoreOperation("read", c.name, "error")
		c.log.Error("Failed to read collection, returning empty result", logger.Error(err))
		return []T{}
	}
	metrics.RecordStoreOperation("read", c.name, "success")
	if records == nil {
		records = []T{}
	}
	return records
}

// ReadForUpdate читает коллекцию для последующего Write.
// Пустой результат при ошибке здесь недопустим: Write затер бы сохраненные записи.
func (c *Collection[T]) ReadForUpdate(ctx context.Context) ([]T, error) {
	records, err := c.source.Load(ctx)
	if err != nil {
		metrics.RecordStoreOperation("read", c.name, "error")
		c.log.Error("Failed to read collection for update", logger.Error(err))
		return nil, fmt.Errorf("read %s: %w", c.name, err)
	}
	metrics.RecordStoreOperation("read", c.name, "success")
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Write атомарно заменяет коллекцию. Повторов нет.
func (c *Collection[T]) Write(ctx context.Context, records []T) error {
	if err := c.source.Store(ctx, records); err != nil {
		metrics.RecordStoreOperation("write", c.name, "error")
		c.log.Error("Failed to write collection", logger.Int("records", len(records)), logger.Error(err))
		return fmt.Errorf("write %s: %w", c.name, err)
	}
	metrics.RecordStoreOperation("write", c.name, "success")
	return nil
}

// NextID возвращает следующий идентификатор вида prefix + 3 цифры.
// Берется максимум среди существующих номеров с этим префиксом; нечисловой остаток считается нулем.
func NextID[T Record](prefix string, records []T) string {
	maxID := 0
	for _, r := range records {
		id := r.RecordID()
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err != nil {
			n = 0
		}
		if n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, maxID+1)
}

// Find ищет запись по идентификатору и возвращает ее позицию в коллекции
func Find[T Record](records []T, id string) (T, int, bool) {
	for i, r := range records {
		if r.RecordID() == id {
			return r, i, true
		}
	}
	var zero T
	return zero, -1, false
}
