package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidClock     = errors.New("invalid time of day, expected HH:MM")
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

const minutesPerDay = 24 * 60

// Clock — время суток в минутах от полуночи (0..1439).
// На границе системы всегда сериализуется как "HH:MM".
type Clock int

// ParseClock разбирает "HH:MM" (секунды "HH:MM:SS" допускаются и отбрасываются).
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(h*60 + m), nil
}

// MustClock — для констант и тестов.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf берёт настенное время из t без перевода часовых поясов.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Add сдвигает время на minutes минут; переход через полночь не нормализуется.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// On собирает дату и время суток в один момент в поясе даты.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

func (c Clock) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *Clock) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return c.parseInto(v)
	case []byte:
		return c.parseInto(string(v))
	case time.Time:
		*c = ClockOf(v)
		return nil
	case nil:
		*c = 0
		return nil
	default:
		return fmt.Errorf("calendar.Clock: unsupported scan type %T", src)
	}
}

func (c *Clock) parseInto(s string) error {
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidClock, string(data))
	}
	return c.parseInto(s)
}

// Range представляет интервал времени суток [Start, End).
type Range struct {
	Start Clock
	End   Clock
}

// NewRange создаёт интервал; Start должен быть строго раньше End.
func NewRange(start, end Clock) (Range, error) {
	if start < 0 || end > minutesPerDay || start >= end {
		return Range{}, fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, start, end)
	}
	return Range{Start: start, End: end}, nil
}

// ParseRange — NewRange поверх строк "HH:MM".
func ParseRange(start, end string) (Range, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Range{}, err
	}
	return NewRange(s, e)
}

// MustRange — для констант и тестов.
func MustRange(start, end string) Range {
	r, err := ParseRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Minutes — длительность интервала.
func (r Range) Minutes() int {
	return int(r.End - r.Start)
}

// Overlaps — полуоткрытые интервалы, касание концами пересечением не считается.
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.Start, r.End, other.Start, other.End)
}

// Contains — inner целиком внутри r, равенство границ допускается.
func (r Range) Contains(inner Range) bool {
	return inner.Start >= r.Start && inner.End <= r.End
}

// Overlaps проверяет пересечение [startA, endA) и [startB, endB).
func Overlaps(startA, endA, startB, endB Clock) bool {
	return startA < endB && endA > startB
}

// HasOverlap проверяет, пересекается ли newRange с existing.
// inclusive = true — касание концами считается пересечением.
func HasOverlap(newRange Range, existing []Range, inclusive bool) (bool, []Range) {
	var conflicts []Range

	for _, r := range existing {
		if rangesOverlap(newRange, r, inclusive) {
			conflicts = append(conflicts, r)
		}
	}

	return len(conflicts) > 0, conflicts
}

func rangesOverlap(a, b Range, inclusive bool) bool {
	if inclusive {
		return a.Start <= b.End && b.Start <= a.End
	}
	return a.Overlaps(b)
}

// SplitToSlots разбивает окно на слоты длительностью slotMinutes с шагом
// stepMinutes (stepMinutes <= 0 — шаг равен длительности). Начало выравнивается
// по сетке шага от полуночи, "хвост" короче слота отбрасывается.
func SplitToSlots(window Range, slotMinutes, stepMinutes int) ([]Range, error) {
	if slotMinutes <= 0 {
		return nil, ErrSlotDuration
	}
	if stepMinutes <= 0 {
		stepMinutes = slotMinutes
	}
	if window.End <= window.Start {
		return []Range{}, nil
	}

	start := window.Start
	if rem := int(start) % stepMinutes; rem != 0 {
		start = start.Add(stepMinutes - rem)
	}

	slots := []Range{}
	for cur := start; cur.Add(slotMinutes) <= window.End; cur = cur.Add(stepMinutes) {
		slots = append(slots, Range{Start: cur, End: cur.Add(slotMinutes)})
	}
	return slots, nil
}
