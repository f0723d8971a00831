package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/region23/medbook/pkg/errors"
)

const (
	maxBodyBytes  = 1 << 20
	maxInputBytes = 1000
)

// decodeJSON проверяет Content-Type и размер тела и разбирает JSON в dst
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return errors.ErrInvalidInput.WithMessage("Content-Type must be application/json")
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.Is(err, io.EOF):
			return errors.ErrInvalidInput.WithMessage("request body is empty")
		case stderrors.As(err, &maxErr):
			s.securityLogger.LogSuspiciousActivity(r, "oversized_body", map[string]interface{}{"limit": maxErr.Limit})
			return errors.ErrInvalidInput.WithMessage("request body too large")
		default:
			return errors.ErrInvalidInput.WithMessage(fmt.Sprintf("malformed JSON: %v", err)).WithError(err)
		}
	}
	return nil
}

// sanitizeInput убирает управляющие символы и обрезает строку до maxInputBytes по границе символа
func sanitizeInput(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, input)

	if len(cleaned) > maxInputBytes {
		cut := maxInputBytes
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
	}
	return strings.TrimSpace(cleaned)
}
