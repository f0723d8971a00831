package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, LevelWarn)

	l.Info("hidden")
	l.Warn("visible", String("doctor_id", "D001"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "visible doctor_id=D001")
}

func TestLogger_CallerPointsAtCallSite(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, LevelDebug)

	l.Info("direct")
	l.WithFields(String("component", "test")).Info("bound")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.Contains(t, line, "logger/logger_test.go:")
	}
}

func TestFieldLogger_MergesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, LevelDebug)

	fl := l.WithFields(String("component", "service")).With(Int("attempt", 2))
	fl.Error("write failed", Error(errors.New("disk full")))

	out := buf.String()
	assert.Contains(t, out, "component=service attempt=2 error=disk full")
}

func TestWithContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, LevelInfo)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	l.WithContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), "request_id=req-42")
}

func TestField_QuotesValuesWithSpaces(t *testing.T) {
	assert.Equal(t, `reason="annual checkup"`, String("reason", "annual checkup").String())
	assert.Equal(t, "age=30", Int("age", 30).String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
