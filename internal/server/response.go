package server

import (
	"encoding/json"
	"net/http"

	"github.com/region23/medbook/pkg/errors"
	"github.com/region23/medbook/pkg/logger"
)

// envelope - формат ответа API с ошибкой
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// dataEnvelope - формат успешного ответа; data присутствует всегда, даже пустой список
type dataEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, dataEnvelope{Success: true, Message: message, Data: data})
}

// statusFor переводит вид ошибки в HTTP статус
func statusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindInvalidInput, errors.KindOutOfPolicy:
		return http.StatusBadRequest
	case errors.KindDuplicate, errors.KindSchedulingConflict, errors.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает ошибкой приложения; прочие ошибки скрываются за INTERNAL
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.GetAppError(err)
	if !ok {
		s.log.WithContext(r.Context()).Error("Unhandled error", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, envelope{
			Success: false,
			Message: "internal server error",
			Code:    string(errors.KindInternal),
			Kind:    string(errors.KindInternal),
		})
		return
	}

	status := statusFor(appErr.Kind)
	if status == http.StatusInternalServerError {
		s.log.WithContext(r.Context()).Error("Request failed",
			logger.Error(err),
			logger.String("path", r.URL.Path),
		)
	} else if appErr.Kind == errors.KindInvalidInput {
		s.securityLogger.LogValidationError(r, appErr.Code, appErr.Message)
	}

	writeJSON(w, status, envelope{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
		Kind:    string(appErr.Kind),
		Details: appErr.Context,
	})
}
