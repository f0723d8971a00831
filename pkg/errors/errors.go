package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind классифицирует ошибку независимо от транспорта
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindInvalidState       Kind = "INVALID_STATE"
	KindSchedulingConflict Kind = "SCHEDULING_CONFLICT"
	KindOutOfPolicy        Kind = "OUT_OF_POLICY"
	KindPersistenceFailure Kind = "PERSISTENCE_FAILURE"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindDuplicate          Kind = "DUPLICATE"
	KindInternal           Kind = "INTERNAL"
)

// AppError представляет ошибку приложения с кодом, видом и контекстом
type AppError struct {
	Kind    Kind        `json:"kind"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
	Context interface{} `json:"context,omitempty"`
}

// Error реализует интерфейс error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap позволяет использовать errors.Is и errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, поэтому копии из WithContext/WithMessage
// совпадают с исходной предопределенной ошибкой
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithContext добавляет контекст к ошибке
func (e *AppError) WithContext(ctx interface{}) *AppError {
	c := *e
	c.Context = ctx
	return &c
}

// WithError добавляет underlying ошибку
func (e *AppError) WithError(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// WithMessage заменяет сообщение, сохраняя код и вид
func (e *AppError) WithMessage(msg string) *AppError {
	c := *e
	c.Message = msg
	return &c
}

// Предопределенные ошибки
var (
	// Сущности
	ErrPatientNotFound = &AppError{
		Kind:    KindNotFound,
		Code:    "PATIENT_NOT_FOUND",
		Message: "patient not found",
	}

	ErrDoctorNotFound = &AppError{
		Kind:    KindNotFound,
		Code:    "DOCTOR_NOT_FOUND",
		Message: "doctor not found",
	}

	ErrAppointmentNotFound = &AppError{
		Kind:    KindNotFound,
		Code:    "APPOINTMENT_NOT_FOUND",
		Message: "appointment not found",
	}

	// Правила расписания
	ErrPastDate = &AppError{
		Kind:    KindOutOfPolicy,
		Code:    "PAST_DATE",
		Message: "the appointment must be on a future date",
	}

	ErrDoctorNotAvailableOnDay = &AppError{
		Kind:    KindOutOfPolicy,
		Code:    "DOCTOR_NOT_AVAILABLE_ON_DAY",
		Message: "the doctor does not work on that day",
	}

	ErrOutsideWorkingHours = &AppError{
		Kind:    KindOutOfPolicy,
		Code:    "OUTSIDE_WORKING_HOURS",
		Message: "the time is outside the doctor's working hours",
	}

	ErrSlotAlreadyBooked = &AppError{
		Kind:    KindSchedulingConflict,
		Code:    "SLOT_ALREADY_BOOKED",
		Message: "the doctor already has an appointment at this time",
	}

	// Состояние записи
	ErrAppointmentNotScheduled = &AppError{
		Kind:    KindInvalidState,
		Code:    "APPOINTMENT_NOT_SCHEDULED",
		Message: "only scheduled appointments can be cancelled",
	}

	// Хранилище
	ErrPersistence = &AppError{
		Kind:    KindPersistenceFailure,
		Code:    "PERSISTENCE_FAILURE",
		Message: "the change was validated but could not be saved",
	}

	// Ошибки валидации
	ErrInvalidInput = &AppError{
		Kind:    KindInvalidInput,
		Code:    "INVALID_INPUT",
		Message: "invalid input",
	}

	ErrInvalidDate = &AppError{
		Kind:    KindInvalidInput,
		Code:    "INVALID_DATE",
		Message: "invalid date, expected YYYY-MM-DD",
	}

	ErrInvalidTime = &AppError{
		Kind:    KindInvalidInput,
		Code:    "INVALID_TIME",
		Message: "invalid time, expected HH:MM",
	}

	// Уникальность
	ErrEmailTaken = &AppError{
		Kind:    KindDuplicate,
		Code:    "EMAIL_TAKEN",
		Message: "a patient with this email already exists",
	}

	ErrDoctorExists = &AppError{
		Kind:    KindDuplicate,
		Code:    "DOCTOR_EXISTS",
		Message: "a doctor with this name and specialty already exists",
	}
)

// DoctorNotAvailableOnDay возвращает ошибку с названием дня недели
func DoctorNotAvailableOnDay(day string) *AppError {
	return ErrDoctorNotAvailableOnDay.
		WithMessage(fmt.Sprintf("the doctor does not work on %s", day)).
		WithContext(map[string]interface{}{"day": day})
}

// OutsideWorkingHours возвращает ошибку с границами рабочего окна врача
func OutsideWorkingHours(start, end string) *AppError {
	return ErrOutsideWorkingHours.
		WithMessage(fmt.Sprintf("the doctor only sees patients from %s to %s", start, end)).
		WithContext(map[string]interface{}{"start_time": start, "end_time": end})
}

// InvalidField возвращает ошибку валидации для конкретного поля
func InvalidField(field, reason string) *AppError {
	return ErrInvalidInput.
		WithMessage(fmt.Sprintf("%s: %s", field, reason)).
		WithContext(map[string]interface{}{"field": field})
}

// New создает новую ошибку приложения
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает обычную ошибку в AppError
func Wrap(err error, kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// GetAppError извлекает AppError из цепочки ошибок
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError проверяет, содержит ли цепочка AppError
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// KindOf возвращает вид ошибки или KindInternal для прочих ошибок
func KindOf(err error) Kind {
	if appErr, ok := GetAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
