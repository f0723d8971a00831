package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/region23/medbook/internal/storage/models"
)

// Weekdays - названия дней недели, индекс совпадает с time.Weekday (воскресенье = 0)
var Weekdays = [7]string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

// WeekdayOf возвращает название дня недели для даты
func WeekdayOf(date time.Time) string {
	return Weekdays[date.Weekday()]
}

// NormalizeWeekday приводит название дня к каноническому виду без учета регистра
func NormalizeWeekday(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, day := range Weekdays {
		if strings.EqualFold(day, name) {
			return day, true
		}
	}
	return "", false
}

// ParseDate разбирает календарную дату YYYY-MM-DD в указанной зоне
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(models.DateLayout, s, loc)
}

// ParseClock переводит HH:MM в минуты от полуночи
func ParseClock(s string) (int, error) {
	t, err := time.Parse(models.TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// startOfDay возвращает полночь календарного дня t
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
