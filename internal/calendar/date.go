package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// DateLayout — формат дат на границе системы.
const DateLayout = time.DateOnly

// ParseDate разбирает "YYYY-MM-DD" в полночь UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// MustDate — для тестов.
func MustDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf оставляет только настенную дату t (полночь UTC).
// Часовые пояса не пересчитываются: вход уже в бизнес-зоне.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDate сравнивает только настенные даты.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// IsWeekday — понедельник..пятница.
func IsWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// DaysIn — количество дней в месяце.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths прибавляет n календарных месяцев, прижимая день к концу месяца
// (31 января + 1 месяц = 28/29 февраля).
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DayBounds — [начало дня, начало следующего дня) для выборок по timestamp.
func DayBounds(d time.Time) (time.Time, time.Time) {
	start := DateOf(d)
	return start, start.AddDate(0, 0, 1)
}
