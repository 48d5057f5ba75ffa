package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/calendar"
)

type TimeOffType string

const (
	TimeOffAnnualLeave TimeOffType = "Annual leave"
	TimeOffSickLeave   TimeOffType = "Sick leave"
	TimeOffPersonal    TimeOffType = "Personal"
	TimeOffOther       TimeOffType = "Other"
)

func (t TimeOffType) Valid() bool {
	switch t {
	case TimeOffAnnualLeave, TimeOffSickLeave, TimeOffPersonal, TimeOffOther:
		return true
	}
	return false
}

// У отгула нет под-частоты: Repeat означает каждый день до EndsDate включительно.
type TimeOffFrequency string

const (
	TimeOffOnce   TimeOffFrequency = "None"
	TimeOffRepeat TimeOffFrequency = "Repeat"
)

// time_offs
type TimeOff struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	StaffID uuid.UUID   `gorm:"type:uuid;not null;index"`
	Type    TimeOffType `gorm:"type:varchar(32);not null"`

	// Длительность в часах, как её ввёл администратор.
	Duration float64 `gorm:"not null;default:0"`

	StartDate datatypes.Date `gorm:"type:date;not null;index"`
	StartTime calendar.Clock `gorm:"type:varchar(5);not null"`
	EndTime   calendar.Clock `gorm:"type:varchar(5);not null"`

	Frequency TimeOffFrequency `gorm:"type:varchar(16);not null;default:'None'"`
	EndsDate  *datatypes.Date  `gorm:"type:date"`

	Description string `gorm:"type:varchar(255)"`
	Approved    bool   `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Staff *Staff `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (t *TimeOff) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (t *TimeOff) Date() time.Time {
	return calendar.DateOf(time.Time(t.StartDate))
}

func (t *TimeOff) Window() calendar.Range {
	return calendar.Range{Start: t.StartTime, End: t.EndTime}
}

// ActiveOn — действует ли отгул в дату d.
func (t *TimeOff) ActiveOn(d time.Time) bool {
	if t.Frequency != TimeOffRepeat || t.EndsDate == nil {
		return calendar.SameDate(t.Date(), d)
	}
	return calendar.OccursBetween(d, t.Date(), time.Time(*t.EndsDate), calendar.FrequencyDaily)
}

func (t *TimeOff) Validate() error {
	if t.StaffID == uuid.Nil {
		return fmt.Errorf("%w: time off staff is required", ErrInvalidEntity)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown time off type %q", ErrInvalidEntity, t.Type)
	}
	if time.Time(t.StartDate).IsZero() {
		return fmt.Errorf("%w: time off start date is required", ErrInvalidEntity)
	}
	if _, err := calendar.NewRange(t.StartTime, t.EndTime); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	switch t.Frequency {
	case TimeOffOnce:
		if t.EndsDate != nil {
			return fmt.Errorf("%w: non-repeating time off cannot have an end date", ErrInvalidEntity)
		}
	case TimeOffRepeat:
		if t.EndsDate == nil {
			return fmt.Errorf("%w: repeating time off needs an end date", ErrInvalidEntity)
		}
		if calendar.DateOf(time.Time(*t.EndsDate)).Before(t.Date()) {
			return fmt.Errorf("%w: %w", ErrInvalidEntity, calendar.ErrEndBeforeStart)
		}
	default:
		return fmt.Errorf("%w: unknown time off frequency %q", ErrInvalidEntity, t.Frequency)
	}
	return nil
}
