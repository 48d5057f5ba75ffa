package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidFrequency  = errors.New("invalid recurrence frequency")
	ErrInvalidEnd        = errors.New("invalid recurrence end condition")
	ErrEndBeforeStart    = errors.New("recurrence ends before it starts")
	ErrInvalidOccurrence = errors.New("occurrence count must be positive")
)

// ===== Recurring rules =====

type Frequency string

const (
	FrequencyNone    Frequency = "None"
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// EndCondition — условие окончания повторений. Реализации: NeverEnds,
// EndsOnDate, EndsAfter; других быть не может.
type EndCondition interface {
	// lastDate возвращает последнюю допустимую дату; ok=false — без ограничения.
	lastDate(start time.Time, freq Frequency) (last time.Time, ok bool)
	validate(start time.Time) error
}

// NeverEnds — правило повторяется бесконечно.
type NeverEnds struct{}

// EndsOnDate — повторения до Date включительно.
type EndsOnDate struct {
	Date time.Time
}

// EndsAfter — ровно Occurrences повторений, считая стартовое.
type EndsAfter struct {
	Occurrences int
}

func (NeverEnds) lastDate(time.Time, Frequency) (time.Time, bool) { return time.Time{}, false }
func (NeverEnds) validate(time.Time) error                        { return nil }

func (e EndsOnDate) lastDate(time.Time, Frequency) (time.Time, bool) {
	return DateOf(e.Date), true
}

func (e EndsOnDate) validate(start time.Time) error {
	if e.Date.IsZero() {
		return fmt.Errorf("%w: end date is required", ErrInvalidEnd)
	}
	if DateOf(e.Date).Before(DateOf(start)) {
		return ErrEndBeforeStart
	}
	return nil
}

func (e EndsAfter) lastDate(start time.Time, freq Frequency) (time.Time, bool) {
	return LastOccurrence(start, freq, e.Occurrences), true
}

func (e EndsAfter) validate(time.Time) error {
	if e.Occurrences <= 0 {
		return ErrInvalidOccurrence
	}
	return nil
}

// Rule — повторяющееся правило с датой начала и условием окончания.
// Для FrequencyNone Ends всегда nil, для остальных частот — обязателен.
type Rule struct {
	Start     time.Time
	Frequency Frequency
	Ends      EndCondition
}

// NewRule проверяет согласованность частоты и условия окончания.
func NewRule(start time.Time, freq Frequency, ends EndCondition) (Rule, error) {
	if !freq.Valid() {
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, freq)
	}
	if start.IsZero() {
		return Rule{}, fmt.Errorf("%w: start date is required", ErrInvalidEnd)
	}
	if freq == FrequencyNone {
		if ends != nil {
			return Rule{}, fmt.Errorf("%w: non-repeating rule cannot have an end condition", ErrInvalidEnd)
		}
		return Rule{Start: DateOf(start), Frequency: freq}, nil
	}
	if ends == nil {
		return Rule{}, fmt.Errorf("%w: repeating rule needs an end condition", ErrInvalidEnd)
	}
	if err := ends.validate(start); err != nil {
		return Rule{}, err
	}
	return Rule{Start: DateOf(start), Frequency: freq, Ends: ends}, nil
}

// OccursOn — активно ли правило в дату target.
func (r Rule) OccursOn(target time.Time) bool {
	if r.Frequency == FrequencyNone || r.Ends == nil {
		return OccursOn(target, r.Start, r.Frequency)
	}
	last, bounded := r.Ends.lastDate(r.Start, r.Frequency)
	if !bounded {
		return OccursOn(target, r.Start, r.Frequency)
	}
	return OccursBetween(target, r.Start, last, r.Frequency)
}

// OccursOn — совпадает ли target с повторением правила, начатого в start,
// без ограничения сверху. Даты раньше start никогда не совпадают.
func OccursOn(target, start time.Time, freq Frequency) bool {
	target, start = DateOf(target), DateOf(start)
	if target.Before(start) {
		return false
	}

	switch freq {
	case FrequencyNone:
		return target.Equal(start)
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return target.Weekday() == start.Weekday()
	case FrequencyMonthly:
		// День старта, которого нет в месяце target, прижимается к последнему дню месяца.
		effective := min(start.Day(), DaysIn(target.Year(), target.Month()))
		return target.Day() == effective
	default:
		return false
	}
}

// OccursBetween — OccursOn с ограничением start <= target <= end.
func OccursBetween(target, start, end time.Time, freq Frequency) bool {
	t := DateOf(target)
	if t.Before(DateOf(start)) || t.After(DateOf(end)) {
		return false
	}
	return OccursOn(t, start, freq)
}

// OccursWithin — OccursOn, ограниченный количеством повторений.
func OccursWithin(target, start time.Time, freq Frequency, occurrences int) bool {
	if occurrences <= 0 {
		return false
	}
	return OccursBetween(target, start, LastOccurrence(start, freq, occurrences), freq)
}

// LastOccurrence — дата последнего из n повторений: start + (n-1) дней/недель
// или календарных месяцев.
func LastOccurrence(start time.Time, freq Frequency, occurrences int) time.Time {
	start = DateOf(start)
	steps := occurrences - 1
	if steps < 0 {
		steps = 0
	}

	switch freq {
	case FrequencyDaily:
		return start.AddDate(0, 0, steps)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*steps)
	case FrequencyMonthly:
		return AddMonths(start, steps)
	default:
		return start
	}
}
